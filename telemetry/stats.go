package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated colony statistics for a tick window.
type WindowStats struct {
	WindowStartTick int `csv:"-"`
	WindowEndTick   int `csv:"window_end"`

	// Population at window end
	Workers int `csv:"workers"`
	Queens  int `csv:"queens"`
	Brood   int `csv:"brood"`

	// Events during the window
	Births         int `csv:"births"`
	Deaths         int `csv:"deaths"`
	MovesCommitted int `csv:"moves_committed"`
	MovesRejected  int `csv:"moves_rejected"`
	Feedings       int `csv:"feedings"`

	// Food flow during the window
	FoodPicked float64 `csv:"food_picked"`
	FoodStored float64 `csv:"food_stored"`
	FoodOnGrid float64 `csv:"food_on_grid"`

	// Energy distribution (sampled at window end)
	EnergyMean float64 `csv:"energy_mean"`
	EnergyStd  float64 `csv:"energy_std"`
	EnergyP10  float64 `csv:"energy_p10"`
	EnergyP50  float64 `csv:"energy_p50"`
	EnergyP90  float64 `csv:"energy_p90"`

	// Pheromone field totals at window end
	PheromoneMass float64 `csv:"pheromone_mass"`
}

// ComputeEnergyStats calculates mean, standard deviation, and
// percentiles from per-agent energy values.
func ComputeEnergyStats(values []float64) (mean, std, p10, p50, p90 float64) {
	if len(values) == 0 {
		return 0, 0, 0, 0, 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mean, std = stat.MeanStdDev(sorted, nil)
	if len(sorted) < 2 {
		std = 0
	}
	p10 = stat.Quantile(0.10, stat.Empirical, sorted, nil)
	p50 = stat.Quantile(0.50, stat.Empirical, sorted, nil)
	p90 = stat.Quantile(0.90, stat.Empirical, sorted, nil)
	return mean, std, p10, p50, p90
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"workers", s.Workers,
		"queens", s.Queens,
		"brood", s.Brood,
		"births", s.Births,
		"deaths", s.Deaths,
		"moves_committed", s.MovesCommitted,
		"moves_rejected", s.MovesRejected,
		"feedings", s.Feedings,
		"food_picked", s.FoodPicked,
		"food_stored", s.FoodStored,
		"food_on_grid", s.FoodOnGrid,
		"energy_mean", s.EnergyMean,
		"energy_std", s.EnergyStd,
		"energy_p10", s.EnergyP10,
		"energy_p50", s.EnergyP50,
		"energy_p90", s.EnergyP90,
		"pheromone_mass", s.PheromoneMass,
	)
}
