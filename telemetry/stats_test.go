package telemetry

import (
	"math"
	"testing"
)

func TestComputeEnergyStats(t *testing.T) {
	mean, std, p10, p50, p90 := ComputeEnergyStats(nil)
	if mean != 0 || std != 0 || p10 != 0 || p50 != 0 || p90 != 0 {
		t.Fatal("empty input should give zeros")
	}

	values := []float64{10, 20, 30, 40, 50}
	mean, std, _, p50, _ = ComputeEnergyStats(values)
	if mean != 30 {
		t.Fatalf("mean = %v, want 30", mean)
	}
	if math.Abs(std-15.811) > 0.001 {
		t.Fatalf("std = %v", std)
	}
	if p50 != 30 {
		t.Fatalf("p50 = %v, want 30", p50)
	}
}

func TestCollectorWindow(t *testing.T) {
	c := NewCollector(5)

	r := &TickReport{
		Births: 1, Deaths: 2, FoodPicked: 1.5, FoodStored: 0.5,
		Agents: []AgentEvent{
			{Outcome: OutcomeCommitted},
			{Outcome: OutcomeOccupied},
			{Outcome: OutcomeNoIntent},
		},
	}
	c.Record(r)
	c.Record(r)
	c.RecordFeeding()

	if c.ShouldFlush(4) {
		t.Fatal("window not complete at tick 4")
	}
	if !c.ShouldFlush(5) {
		t.Fatal("window complete at tick 5")
	}

	stats := c.Flush(5, 10, 1, 3, []float64{50, 50}, 12.5, 80)
	if stats.Births != 2 || stats.Deaths != 4 {
		t.Fatalf("births/deaths = %d/%d", stats.Births, stats.Deaths)
	}
	if stats.MovesCommitted != 2 || stats.MovesRejected != 2 {
		t.Fatalf("moves = %d/%d", stats.MovesCommitted, stats.MovesRejected)
	}
	if stats.Feedings != 1 || stats.FoodPicked != 3.0 || stats.FoodStored != 1.0 {
		t.Fatalf("stats = %+v", stats)
	}
	if stats.Workers != 10 || stats.PheromoneMass != 12.5 || stats.FoodOnGrid != 80 {
		t.Fatalf("snapshot fields = %+v", stats)
	}

	// Counters reset after flush.
	next := c.Flush(10, 0, 0, 0, nil, 0, 0)
	if next.Births != 0 || next.MovesCommitted != 0 || next.WindowStartTick != 5 {
		t.Fatalf("post-reset stats = %+v", next)
	}
}
