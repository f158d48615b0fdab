package telemetry

// Collector accumulates tick reports into window counters and produces
// WindowStats on flush.
type Collector struct {
	windowTicks int
	startTick   int

	births         int
	deaths         int
	movesCommitted int
	movesRejected  int
	feedings       int
	foodPicked     float64
	foodStored     float64
}

// NewCollector creates a collector flushing every windowTicks ticks.
func NewCollector(windowTicks int) *Collector {
	if windowTicks < 1 {
		windowTicks = 1
	}
	return &Collector{windowTicks: windowTicks}
}

// Record folds one tick report into the current window.
func (c *Collector) Record(r *TickReport) {
	c.births += r.Births
	c.deaths += r.Deaths
	c.foodPicked += r.FoodPicked
	c.foodStored += r.FoodStored
	for i := range r.Agents {
		switch r.Agents[i].Outcome {
		case OutcomeCommitted:
			c.movesCommitted++
		case OutcomeOutOfBounds, OutcomeBlocked, OutcomeOccupied:
			c.movesRejected++
		}
	}
}

// RecordFeeding counts one committed trophallaxis transfer.
func (c *Collector) RecordFeeding() { c.feedings++ }

// ShouldFlush reports whether the current window is complete.
func (c *Collector) ShouldFlush(tick int) bool {
	return tick-c.startTick >= c.windowTicks
}

// Flush produces the window's stats and resets the counters. Snapshot
// values (populations, energies, field mass, grid food) arrive from
// the caller because the collector never touches world state.
func (c *Collector) Flush(tick, workers, queens, brood int, energies []float64, pheromoneMass, foodOnGrid float64) WindowStats {
	mean, std, p10, p50, p90 := ComputeEnergyStats(energies)
	stats := WindowStats{
		WindowStartTick: c.startTick,
		WindowEndTick:   tick,

		Workers: workers,
		Queens:  queens,
		Brood:   brood,

		Births:         c.births,
		Deaths:         c.deaths,
		MovesCommitted: c.movesCommitted,
		MovesRejected:  c.movesRejected,
		Feedings:       c.feedings,

		FoodPicked: c.foodPicked,
		FoodStored: c.foodStored,
		FoodOnGrid: foodOnGrid,

		EnergyMean: mean,
		EnergyStd:  std,
		EnergyP10:  p10,
		EnergyP50:  p50,
		EnergyP90:  p90,

		PheromoneMass: pheromoneMass,
	}

	c.startTick = tick
	c.births = 0
	c.deaths = 0
	c.movesCommitted = 0
	c.movesRejected = 0
	c.feedings = 0
	c.foodPicked = 0
	c.foodStored = 0

	return stats
}

// WindowTicks returns the number of ticks per window.
func (c *Collector) WindowTicks() int { return c.windowTicks }
