// Package telemetry provides the structured per-tick event log, the
// windowed statistics collector, and CSV output.
package telemetry

// Intent outcome codes recorded in the event log. Rejections are data,
// not errors; nothing here aborts the tick loop.
const (
	OutcomeCommitted   = "committed"    // move (possibly zero) applied
	OutcomeNoIntent    = "no_intent"    // tree produced no intent
	OutcomeOutOfBounds = "out_of_bounds"
	OutcomeBlocked     = "blocked"  // destination is a wall
	OutcomeOccupied    = "occupied" // occupancy limit or lost collision
)

// AgentEvent records one agent's decision and outcome for one tick.
type AgentEvent struct {
	Tick    int    `csv:"tick"`
	AgentID uint32 `csv:"agent"`
	Role    string `csv:"role"`
	Task    string `csv:"task"`
	Step    string `csv:"step"`
	Outcome string `csv:"outcome"`
	FromX   int    `csv:"from_x"`
	FromY   int    `csv:"from_y"`
	ToX     int    `csv:"to_x"`
	ToY     int    `csv:"to_y"`
	Detail  string `csv:"detail"` // evaluation errors, dropped sensor keys
}

// PheromoneDelta is one type's mass movement during a tick.
type PheromoneDelta struct {
	Type      string  `csv:"type"`
	Before    float64 `csv:"before"`
	After     float64 `csv:"after"`
	Deposited float64 `csv:"deposited"`
}

// TickReport is the structured result of one tick, consumed by
// observability and UI layers.
type TickReport struct {
	Tick       int
	Agents     []AgentEvent
	Pheromones []PheromoneDelta
	Births     int
	Deaths     int
	FoodPicked float64 // collected from grid cells this tick
	FoodStored float64 // dropped at nest cells this tick
}
