// Package plugins defines the capability plugin contract: sensors
// write namespaced observations to an agent's blackboard, triggers are
// pure predicates over it, and steps propose intents that the executor
// may or may not commit. Plugins never mutate shared world state.
package plugins

import (
	"errors"

	"github.com/pthm-cable/formic/blackboard"
	"github.com/pthm-cable/formic/world"
)

// ErrConfig marks fatal startup configuration failures (duplicate
// registrations, unknown plugin references). Nothing wrapped in it is
// recoverable at runtime; the simulation never starts.
var ErrConfig = errors.New("configuration error")

// SenseNamespace is the key prefix sensors are allowed to write.
const SenseNamespace = "sense."

// Agent is the read view of one agent handed to plugins, rebuilt from
// the committed ECS state at the top of each tick.
type Agent struct {
	ID    uint32
	Role  string
	Class string
	X, Y  int
	BB    *blackboard.Board

	Energy     float64
	MaxEnergy  float64
	Stomach    float64
	StomachCap float64
	Social     float64
	SocialCap  float64
	Hungry     bool
	EggReady   bool
}

// NeighborInfo describes a nearby agent from a spatial query.
type NeighborInfo struct {
	ID      uint32
	Role    string
	X, Y    int
	DX, DY  int
	DistSq  int
	Hungry  bool
	Stomach float64
}

// View is the read-only world handed to sensors and steps. It exposes
// only the previous tick's committed state.
type View interface {
	Tick() int
	Grid() *world.Grid
	Field() *world.Field
	Neighbors(a *Agent, radius int) []NeighborInfo
}

// Params carries per-node configuration for triggers and steps.
type Params map[string]any

// Float reads a numeric parameter, accepting YAML's int or float forms.
func (p Params) Float(key string, fallback float64) float64 {
	switch v := p[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return fallback
}

// Text reads a string parameter.
func (p Params) Text(key, fallback string) string {
	if v, ok := p[key].(string); ok {
		return v
	}
	return fallback
}

// MoveReq is a single-cell move delta; the zero delta means "stay",
// which always commits.
type MoveReq struct {
	DX, DY int
}

// DepositReq lays pheromone at a cell. Applied even when the bundled
// move is rejected.
type DepositReq struct {
	Type   string
	Amount float64
	X, Y   int
}

// FeedReq transfers food from the acting agent's social stomach into
// the target's stomach (trophallaxis).
type FeedReq struct {
	TargetID uint32
	Amount   float64
}

// SpawnReq asks the colony to create a new agent at the actor's cell.
type SpawnReq struct {
	Role  string
	Class string
}

// Write is one staged blackboard mutation, committed atomically with
// the intent's move.
type Write struct {
	Key string
	Val blackboard.Value
}

// Intent is an agent's proposed action for the current tick. At most
// one intent per agent per tick reaches the executor.
type Intent struct {
	Move    *MoveReq
	Deposit *DepositReq
	Writes  []Write
	Collect float64 // food to pick up from the current cell
	Drop    float64 // food to drop from the social stomach
	Feed    *FeedReq
	Spawn   *SpawnReq
}

// StepStatus is a step function's verdict.
type StepStatus uint8

const (
	// StepFailed means the step could not act; composites fall through.
	StepFailed StepStatus = iota
	// StepDone means the step's goal already holds; nothing to do.
	StepDone
	// StepActed means the step staged an intent for this tick.
	StepActed
)

// StepResult pairs a verdict with the intent staged under StepActed.
type StepResult struct {
	Status StepStatus
	Intent Intent
}

// Acted stages an intent.
func Acted(i Intent) StepResult { return StepResult{Status: StepActed, Intent: i} }

// Done reports a verified goal with nothing left to do.
func Done() StepResult { return StepResult{Status: StepDone} }

// Failed reports that the step cannot act right now.
func Failed() StepResult { return StepResult{Status: StepFailed} }

// SensorFunc observes the world and returns blackboard writes. Only
// keys under SenseNamespace are applied; writes must be a pure function
// of the committed world state so reruns within a tick are identical.
type SensorFunc func(a *Agent, v View) map[string]blackboard.Value

// TriggerFunc is a pure predicate over an agent's blackboard.
// Evaluation errors count as false.
type TriggerFunc func(bb *blackboard.Board, p Params) (bool, error)

// StepFunc proposes an action. Blackboard mutations are staged in the
// intent, never applied directly.
type StepFunc func(a *Agent, v View, p Params) (StepResult, error)
