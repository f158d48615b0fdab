package sim

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/formic/behavior"
	"github.com/pthm-cable/formic/blackboard"
	"github.com/pthm-cable/formic/components"
	"github.com/pthm-cable/formic/plugins"
	"github.com/pthm-cable/formic/telemetry"
)

// pending is one agent's evaluation result, held until the executor
// pass. Evaluation for every agent completes before any intent is
// applied, so sensors and steps only ever see the previous committed
// state.
type pending struct {
	e      ecs.Entity
	agent  plugins.Agent
	intent *plugins.Intent
	trace  behavior.Trace
	detail []string
}

// tickCounters accumulates per-tick lifecycle and resource totals.
type tickCounters struct {
	births     int
	foodPicked float64
	foodStored float64
}

// Tick advances the simulation by one step: rebuild the spatial index,
// run sensors and evaluate trees for every agent, execute intents in
// colony order, apply metabolism and lifecycle transitions, then step
// the pheromone field. Returns the tick's event report.
func (s *Simulation) Tick() *telemetry.TickReport {
	view := simView{s}

	s.spatial.Clear()
	for _, e := range s.colony {
		pos := s.posMap.Get(e)
		s.spatial.Insert(e, pos.X, pos.Y)
	}

	evals := make([]pending, 0, len(s.colony))
	for _, e := range s.colony {
		pd := pending{e: e, agent: s.agentView(e)}
		s.runSensors(&pd, view)
		pd.intent, pd.trace = s.trees[pd.agent.Class].Evaluate(&pd.agent, view)
		evals = append(evals, pd)
	}

	var counters tickCounters
	events := make([]telemetry.AgentEvent, 0, len(evals))
	for i := range evals {
		events = append(events, s.execute(&evals[i], &counters))
	}

	deaths := s.metabolize()

	summaries := s.field.Step()
	s.fieldMass = 0
	deltas := make([]telemetry.PheromoneDelta, 0, len(summaries))
	for _, sum := range summaries {
		s.fieldMass += sum.After
		deltas = append(deltas, telemetry.PheromoneDelta{
			Type:      sum.Type,
			Before:    sum.Before,
			After:     sum.After,
			Deposited: sum.Deposited,
		})
	}

	report := &telemetry.TickReport{
		Tick:       s.tick,
		Agents:     events,
		Pheromones: deltas,
		Births:     counters.births,
		Deaths:     deaths,
		FoodPicked: counters.foodPicked,
		FoodStored: counters.foodStored,
	}
	s.collector.Record(report)
	s.tick++
	return report
}

// agentView projects an entity's committed components into the plugin
// contract's read view.
func (s *Simulation) agentView(e ecs.Entity) plugins.Agent {
	pos := s.posMap.Get(e)
	ag := s.agMap.Get(e)
	ph := s.phMap.Get(e)
	return plugins.Agent{
		ID:    ag.ID,
		Role:  ag.Role.String(),
		Class: ag.Class,
		X:     pos.X,
		Y:     pos.Y,
		BB:    s.mindMap.Get(e).BB,

		Energy:     ph.Energy,
		MaxEnergy:  ph.MaxEnergy,
		Stomach:    ph.Stomach,
		StomachCap: ph.StomachCap,
		Social:     ph.Social,
		SocialCap:  ph.SocialCap,
		Hungry:     ph.Hungry(),
		EggReady: ag.Role == components.RoleQueen &&
			ph.EggTimer <= 0 && ph.Energy > s.cfg.Energy.EggCost,
	}
}

// runSensors applies the agent's class sensor list to its blackboard.
// Writes outside the sense namespace are dropped and reported in the
// event detail. Keys apply in sorted order so the change log is
// reproducible.
func (s *Simulation) runSensors(pd *pending, view simView) {
	bb := pd.agent.BB
	for _, sensor := range s.sensors[pd.agent.Class] {
		writes := sensor.fn(&pd.agent, view)
		keys := make([]string, 0, len(writes))
		for k := range writes {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if !strings.HasPrefix(k, plugins.SenseNamespace) {
				pd.detail = append(pd.detail,
					fmt.Sprintf("sensor %s: dropped key %q", sensor.name, k))
				continue
			}
			bb.Set(k, writes[k])
		}
	}
	bb.Commit()
}

// metabolize drains energy, digests stomach contents, advances queen
// and brood timers, and removes the dead. Returns the death count.
func (s *Simulation) metabolize() int {
	en := s.cfg.Energy
	for _, e := range s.colony {
		ag := s.agMap.Get(e)
		ph := s.phMap.Get(e)

		ph.Energy -= en.DrainPerTick

		if ph.Stomach > 0 && ph.Energy < ph.MaxEnergy {
			amt := math.Min(en.DigestionRate, ph.Stomach)
			amt = math.Min(amt, ph.MaxEnergy-ph.Energy)
			ph.Stomach -= amt
			ph.Energy += amt
		}

		// The social stomach only feeds its owner under hunger;
		// otherwise its contents stay carryable.
		if ph.Hungry() && ph.Social > 0 && ph.Stomach < ph.StomachCap {
			amt := math.Min(en.SocialDigestion, ph.Social)
			amt = math.Min(amt, ph.StomachCap-ph.Stomach)
			ph.Social -= amt
			ph.Stomach += amt
		}

		switch ag.Role {
		case components.RoleQueen:
			if ph.EggTimer > 0 {
				ph.EggTimer--
			}
		case components.RoleBrood:
			ph.DevelopTicks++
			if ph.DevelopTicks >= en.BroodStageTicks {
				ph.DevelopTicks = 0
				ph.DevelopStage++
				if ph.DevelopStage >= en.BroodStages {
					s.emerge(e, ag, ph)
				}
			}
		}

		if ph.Energy <= 0 {
			ph.Dead = true
		}
	}
	return s.removeDead()
}

// emerge turns a fully developed brood into a worker with a fresh
// blackboard.
func (s *Simulation) emerge(e ecs.Entity, ag *components.Agent, ph *components.Physiology) {
	rc := s.cfg.Colony.Defaults.Worker
	ag.Role = components.RoleWorker
	ag.Class = rc.Class
	*ph = components.Physiology{
		Energy:      rc.InitialEnergy,
		MaxEnergy:   rc.MaxEnergy,
		StomachCap:  rc.StomachCap,
		SocialCap:   rc.SocialCap,
		HungerLevel: rc.HungerLevel,
	}
	s.mindMap.Get(e).BB = blackboard.New()
}

// removeDead drops dead agents from the colony, grid, and ECS world.
// Collection completes before any removal so iteration stays valid.
func (s *Simulation) removeDead() int {
	var dead []ecs.Entity
	alive := s.colony[:0]
	for _, e := range s.colony {
		if s.phMap.Get(e).Dead {
			dead = append(dead, e)
			continue
		}
		alive = append(alive, e)
	}
	s.colony = alive

	for _, e := range dead {
		pos := s.posMap.Get(e)
		id := s.agMap.Get(e).ID
		s.grid.Leave(pos.X, pos.Y)
		s.field.Remove(plugins.BreadcrumbType(id))
		delete(s.byID, id)
		s.mapper.Remove(e)
	}
	return len(dead)
}
