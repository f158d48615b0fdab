// Package components defines ECS components for the colony simulation.
package components

import (
	"github.com/pthm-cable/formic/blackboard"
)

// Role determines which lifecycle rules apply to an agent.
type Role uint8

const (
	RoleWorker Role = iota
	RoleQueen
	RoleBrood
)

// String returns the role name used in config, logs and telemetry.
func (r Role) String() string {
	switch r {
	case RoleWorker:
		return "worker"
	case RoleQueen:
		return "queen"
	case RoleBrood:
		return "brood"
	}
	return "unknown"
}

// ParseRole maps a config string to a Role.
func ParseRole(s string) (Role, bool) {
	switch s {
	case "worker":
		return RoleWorker, true
	case "queen":
		return RoleQueen, true
	case "brood":
		return RoleBrood, true
	}
	return 0, false
}

// Position is an agent's cell coordinate on the grid.
type Position struct {
	X, Y int
}

// Agent identifies an entity to the behavior layer.
type Agent struct {
	ID    uint32 // stable colony-assigned id, dense from 0
	Role  Role
	Class string // capability class, selects the compiled behavior tree
}

// Physiology holds the energy model restored from the colony lifecycle:
// a private stomach that digests into energy and a social stomach used
// for trophallaxis and food hauling.
type Physiology struct {
	Energy        float64
	MaxEnergy     float64
	Stomach       float64 // individual stomach contents
	StomachCap    float64
	Social        float64 // social stomach (carryable / shareable)
	SocialCap     float64
	HungerLevel   float64 // energy fraction below which hunger triggers fire
	EggTimer      int     // queen: ticks until next lay attempt
	DevelopTicks  int     // brood: ticks spent in current stage
	DevelopStage  int     // brood: 0 egg, 1 larva, 2 pupa
	Dead          bool
}

// Hungry reports whether energy has fallen below the hunger threshold.
func (p *Physiology) Hungry() bool {
	if p.MaxEnergy <= 0 {
		return false
	}
	return p.Energy/p.MaxEnergy < p.HungerLevel
}

// Mind carries the agent's blackboard.
type Mind struct {
	BB *blackboard.Board
}
