package sim

import (
	"math"
	"strings"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/formic/components"
	"github.com/pthm-cable/formic/plugins"
	"github.com/pthm-cable/formic/telemetry"
	"github.com/pthm-cable/formic/world"
)

// execute applies one agent's staged intent against the evolving
// committed state. Intents apply in colony order: earlier agents win
// contested cells, later ones see the already-committed occupancy.
func (s *Simulation) execute(pd *pending, c *tickCounters) telemetry.AgentEvent {
	ev := telemetry.AgentEvent{
		Tick:    s.tick,
		AgentID: pd.agent.ID,
		Role:    pd.agent.Role,
		Task:    pd.trace.Task,
		Step:    pd.trace.Step,
		FromX:   pd.agent.X,
		FromY:   pd.agent.Y,
		ToX:     pd.agent.X,
		ToY:     pd.agent.Y,
	}
	for _, err := range pd.trace.Errors {
		pd.detail = append(pd.detail, err.Error())
	}

	if pd.intent == nil {
		ev.Outcome = telemetry.OutcomeNoIntent
		ev.Detail = strings.Join(pd.detail, "; ")
		return ev
	}
	intent := pd.intent

	// Deposits land even when the rest of the intent is rejected; the
	// agent stood on that cell when it staged them.
	if d := intent.Deposit; d != nil {
		if err := s.field.Deposit(d.Type, d.X, d.Y, d.Amount); err != nil {
			pd.detail = append(pd.detail, err.Error())
		}
	}

	pos := s.posMap.Get(pd.e)
	ev.Outcome = telemetry.OutcomeCommitted
	if m := intent.Move; m != nil && (m.DX != 0 || m.DY != 0) {
		outcome, why := s.tryMove(pos, m)
		ev.Outcome = outcome
		if why != "" {
			pd.detail = append(pd.detail, why)
		}
	}

	// A rejected move drops everything else the intent staged.
	if ev.Outcome == telemetry.OutcomeCommitted {
		ev.ToX, ev.ToY = pos.X, pos.Y

		bb := pd.agent.BB
		for _, wr := range intent.Writes {
			bb.Set(wr.Key, wr.Val)
		}
		bb.Commit()

		ph := s.phMap.Get(pd.e)
		if intent.Collect > 0 {
			s.applyCollect(ph, pos, intent.Collect, c)
		}
		if intent.Drop > 0 {
			s.applyDrop(ph, pos, intent.Drop, c)
		}
		if f := intent.Feed; f != nil {
			if why := s.applyFeed(ph, f); why != "" {
				pd.detail = append(pd.detail, why)
			}
		}
		if sp := intent.Spawn; sp != nil {
			if why := s.applySpawn(pd.e, sp, c); why != "" {
				pd.detail = append(pd.detail, why)
			}
		}
	}

	ev.Detail = strings.Join(pd.detail, "; ")
	return ev
}

// tryMove validates and commits a single-cell move against the current
// occupancy. The position and occupancy counters update together so
// later agents this tick contest the right cells.
func (s *Simulation) tryMove(pos *components.Position, m *plugins.MoveReq) (string, string) {
	if m.DX < -1 || m.DX > 1 || m.DY < -1 || m.DY > 1 {
		return telemetry.OutcomeBlocked, "move delta exceeds one cell"
	}
	tx, ty := pos.X+m.DX, pos.Y+m.DY
	if !s.grid.InBounds(tx, ty) {
		return telemetry.OutcomeOutOfBounds, ""
	}
	if !s.grid.Walkable(tx, ty) {
		return telemetry.OutcomeBlocked, ""
	}

	limit := s.cfg.Occupancy.OpenLimit
	if s.grid.Class(tx, ty) == world.ClassNest {
		limit = s.cfg.Occupancy.NestLimit
	}
	if limit > 0 && s.grid.Occupants(tx, ty) >= limit {
		return telemetry.OutcomeOccupied, ""
	}

	s.grid.Leave(pos.X, pos.Y)
	s.grid.Enter(tx, ty)
	pos.X, pos.Y = tx, ty
	return telemetry.OutcomeCommitted, ""
}

// applyCollect moves food from the committed cell into the social
// stomach, bounded by remaining capacity and what the cell holds.
func (s *Simulation) applyCollect(ph *components.Physiology, pos *components.Position, amount float64, c *tickCounters) {
	amount = math.Min(amount, ph.SocialCap-ph.Social)
	if amount <= 0 {
		return
	}
	taken := s.grid.TakeFood(pos.X, pos.Y, amount)
	ph.Social += taken
	c.foodPicked += taken
}

// applyDrop unloads the social stomach onto the committed cell.
func (s *Simulation) applyDrop(ph *components.Physiology, pos *components.Position, amount float64, c *tickCounters) {
	amount = math.Min(amount, ph.Social)
	if amount <= 0 {
		return
	}
	ph.Social -= amount
	s.grid.AddFood(pos.X, pos.Y, amount)
	if s.grid.InNest(pos.X, pos.Y) {
		c.foodStored += amount
	}
}

// applyFeed transfers social stomach contents into the target's
// stomach. The target may have died or moved out of existence between
// evaluation and execution; that is not an error, just a miss.
func (s *Simulation) applyFeed(ph *components.Physiology, req *plugins.FeedReq) string {
	target, ok := s.byID[req.TargetID]
	if !ok {
		return "feed target gone"
	}
	tp := s.phMap.Get(target)
	if tp == nil || tp.Dead {
		return "feed target gone"
	}
	amt := math.Min(req.Amount, ph.Social)
	amt = math.Min(amt, tp.StomachCap-tp.Stomach)
	if amt <= 0 {
		return ""
	}
	ph.Social -= amt
	tp.Stomach += amt
	s.collector.RecordFeeding()
	return ""
}

// applySpawn creates a new agent at the actor's cell. Queens pay the
// egg cost and restart their timer.
func (s *Simulation) applySpawn(e ecs.Entity, req *plugins.SpawnReq, c *tickCounters) string {
	role, ok := components.ParseRole(req.Role)
	if !ok {
		return "spawn: unknown role " + req.Role
	}
	ag := s.agMap.Get(e)
	ph := s.phMap.Get(e)
	pos := s.posMap.Get(e)

	if ag.Role == components.RoleQueen {
		if ph.Energy <= s.cfg.Energy.EggCost {
			return "spawn: insufficient energy"
		}
		ph.Energy -= s.cfg.Energy.EggCost
		ph.EggTimer = s.cfg.Energy.EggInterval
	}

	s.spawn(role, req.Class, pos.X, pos.Y)
	c.births++
	return ""
}
