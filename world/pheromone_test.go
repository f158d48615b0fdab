package world

import (
	"errors"
	"math"
	"testing"
)

func intensity(t *testing.T, f *Field, typ string, x, y int) float64 {
	t.Helper()
	v, err := f.At(typ, x, y)
	if err != nil {
		t.Fatalf("At(%s,%d,%d): %v", typ, x, y, err)
	}
	return v
}

func TestEvaporation(t *testing.T) {
	f := NewField(10, 10, PheromoneParams{}, false)
	f.RegisterType("food", PheromoneParams{Evaporation: 0.1})
	if err := f.Add("food", 5, 5, 10.0); err != nil {
		t.Fatal(err)
	}

	f.Step()
	if got := intensity(t, f, "food", 5, 5); math.Abs(got-9.0) > 1e-12 {
		t.Fatalf("after 1 tick = %v, want 9.0", got)
	}

	for i := 0; i < 9; i++ {
		f.Step()
	}
	want := 10.0 * math.Pow(0.9, 10)
	if got := intensity(t, f, "food", 5, 5); math.Abs(got-want) > 1e-9 {
		t.Fatalf("after 10 ticks = %v, want %v", got, want)
	}
}

func TestDiffusionSpreadsToNeighbors(t *testing.T) {
	f := NewField(10, 10, PheromoneParams{}, false)
	f.RegisterType("trail", PheromoneParams{Diffusion: 0.4})
	f.Add("trail", 5, 5, 10.0)

	f.Step()

	if got := intensity(t, f, "trail", 5, 5); math.Abs(got-6.0) > 1e-12 {
		t.Fatalf("center = %v, want 6.0", got)
	}
	for _, d := range Neighbors4 {
		got := intensity(t, f, "trail", 5+d[0], 5+d[1])
		if math.Abs(got-1.0) > 1e-12 {
			t.Fatalf("neighbor %v = %v, want 1.0", d, got)
		}
	}
	// Diagonals untouched after one step.
	if got := intensity(t, f, "trail", 6, 6); got != 0 {
		t.Fatalf("diagonal = %v, want 0", got)
	}
}

func TestDiffusionConservesMass(t *testing.T) {
	f := NewField(8, 8, PheromoneParams{}, false)
	f.RegisterType("trail", PheromoneParams{Diffusion: 0.5})
	// Corner placement exercises the reflecting border.
	f.Add("trail", 0, 0, 4.0)
	f.Add("trail", 7, 3, 2.5)

	var sums []TypeSummary
	for i := 0; i < 20; i++ {
		sums = f.Step()
	}
	if got := sums[0].After; math.Abs(got-6.5) > 1e-9 {
		t.Fatalf("mass after 20 ticks = %v, want 6.5", got)
	}
}

func TestDepositAppliesAfterDecay(t *testing.T) {
	f := NewField(6, 6, PheromoneParams{}, false)
	f.RegisterType("food", PheromoneParams{Evaporation: 0.5})
	if err := f.Deposit("food", 2, 2, 8.0); err != nil {
		t.Fatal(err)
	}

	// Staged deposits land post-decay: full strength on the tick they
	// were staged, decayed from the next tick on.
	sums := f.Step()
	if got := intensity(t, f, "food", 2, 2); got != 8.0 {
		t.Fatalf("tick 1 = %v, want 8.0", got)
	}
	if sums[0].Deposited != 8.0 {
		t.Fatalf("deposited = %v, want 8.0", sums[0].Deposited)
	}

	f.Step()
	if got := intensity(t, f, "food", 2, 2); got != 4.0 {
		t.Fatalf("tick 2 = %v, want 4.0", got)
	}
}

func TestUnknownTypeRejected(t *testing.T) {
	f := NewField(4, 4, PheromoneParams{}, false)
	f.RegisterType("food", PheromoneParams{})

	var ute *UnknownTypeError
	if _, err := f.At("alarm", 1, 1); !errors.As(err, &ute) {
		t.Fatalf("At: got %v, want UnknownTypeError", err)
	}
	if err := f.Deposit("alarm", 1, 1, 1); !errors.As(err, &ute) {
		t.Fatalf("Deposit: got %v, want UnknownTypeError", err)
	}
	if ute.Type != "alarm" {
		t.Fatalf("error names type %q", ute.Type)
	}
}

func TestDynamicTypesLazilyCreated(t *testing.T) {
	f := NewField(4, 4, PheromoneParams{Evaporation: 0.25}, true)
	f.RegisterType("food", PheromoneParams{})

	if err := f.Deposit("breadcrumb.7", 1, 1, 4.0); err != nil {
		t.Fatal(err)
	}
	f.Step()
	if got := intensity(t, f, "breadcrumb.7", 1, 1); got != 4.0 {
		t.Fatalf("breadcrumb = %v, want 4.0", got)
	}
	f.Step()
	// Dynamic layers decay with the default parameters.
	if got := intensity(t, f, "breadcrumb.7", 1, 1); got != 3.0 {
		t.Fatalf("decayed breadcrumb = %v, want 3.0", got)
	}

	// Type listing stays sorted as layers appear.
	want := []string{"breadcrumb.7", "food"}
	got := f.Types()
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("Types = %v, want %v", got, want)
	}
}

func TestRemoveDropsType(t *testing.T) {
	f := NewField(4, 4, PheromoneParams{Evaporation: 0.25}, true)
	f.RegisterType("food", PheromoneParams{})
	f.RegisterType("trail", PheromoneParams{})
	f.Add("breadcrumb.3", 1, 1, 2.0)

	f.Remove("breadcrumb.3")
	f.Remove("no.such.type") // no-op

	if f.Has("breadcrumb.3") {
		t.Fatal("removed type still present")
	}
	var ute *UnknownTypeError
	f.dynamic = false
	if _, err := f.At("breadcrumb.3", 1, 1); !errors.As(err, &ute) {
		t.Fatalf("At after remove: got %v, want UnknownTypeError", err)
	}
	got := f.Types()
	if len(got) != 2 || got[0] != "food" || got[1] != "trail" {
		t.Fatalf("Types = %v", got)
	}
	if sums := f.Step(); len(sums) != 2 {
		t.Fatalf("stepped %d layers, want 2", len(sums))
	}
}

func TestStepSummaryOrderAndMass(t *testing.T) {
	f := NewField(4, 4, PheromoneParams{}, false)
	f.RegisterType("trail", PheromoneParams{Evaporation: 0.5})
	f.RegisterType("alarm", PheromoneParams{})
	f.Add("trail", 0, 0, 2.0)

	sums := f.Step()
	if len(sums) != 2 || sums[0].Type != "alarm" || sums[1].Type != "trail" {
		t.Fatalf("summary order = %v", sums)
	}
	if sums[1].Before != 2.0 || sums[1].After != 1.0 {
		t.Fatalf("trail mass = %+v", sums[1])
	}
}

func TestOutOfBoundsAccessIsInert(t *testing.T) {
	f := NewField(4, 4, PheromoneParams{}, false)
	f.RegisterType("food", PheromoneParams{})
	if err := f.Deposit("food", -1, 9, 5); err != nil {
		t.Fatal(err)
	}
	sums := f.Step()
	if sums[0].After != 0 || sums[0].Deposited != 0 {
		t.Fatalf("out-of-bounds deposit landed: %+v", sums[0])
	}
	if v, err := f.At("food", 99, 99); err != nil || v != 0 {
		t.Fatalf("out-of-bounds read = %v, %v", v, err)
	}
}
