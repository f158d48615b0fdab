package world

import (
	"math"
	"testing"
)

func TestGridBoundsAndClasses(t *testing.T) {
	g := NewGrid(5, 4)
	if !g.InBounds(4, 3) || g.InBounds(5, 0) || g.InBounds(0, -1) {
		t.Fatal("bounds check wrong")
	}

	g.SetClass(2, 2, ClassWall)
	g.SetClass(1, 1, ClassNest)

	cases := []struct {
		x, y     int
		walkable bool
	}{
		{0, 0, true},
		{2, 2, false}, // wall
		{1, 1, true},  // nest
		{-1, 0, false},
		{5, 3, false},
	}
	for _, c := range cases {
		if got := g.Walkable(c.x, c.y); got != c.walkable {
			t.Errorf("Walkable(%d,%d) = %v, want %v", c.x, c.y, got, c.walkable)
		}
	}

	// Out-of-bounds cells read as walls.
	if g.Class(-1, 0) != ClassWall {
		t.Fatal("out-of-bounds class should be wall")
	}
}

func TestFoodAccounting(t *testing.T) {
	g := NewGrid(4, 4)
	g.AddFood(1, 1, 5)
	g.AddFood(2, 2, 3)

	if got := g.TotalFood(); got != 8 {
		t.Fatalf("TotalFood = %v, want 8", got)
	}
	if took := g.TakeFood(1, 1, 2); took != 2 {
		t.Fatalf("TakeFood partial = %v, want 2", took)
	}
	if took := g.TakeFood(1, 1, 100); took != 3 {
		t.Fatalf("TakeFood drain = %v, want 3", took)
	}
	if took := g.TakeFood(1, 1, 1); took != 0 {
		t.Fatalf("TakeFood empty = %v, want 0", took)
	}
	if got := g.TotalFood(); got != 3 {
		t.Fatalf("TotalFood after = %v, want 3", got)
	}
}

func TestOccupancyCounts(t *testing.T) {
	g := NewGrid(3, 3)
	g.Enter(1, 1)
	g.Enter(1, 1)
	g.Leave(1, 1)
	if got := g.Occupants(1, 1); got != 1 {
		t.Fatalf("Occupants = %d, want 1", got)
	}
	g.Leave(1, 1)
	g.Leave(1, 1) // extra leave is a no-op
	if got := g.Occupants(1, 1); got != 0 {
		t.Fatalf("Occupants = %d, want 0", got)
	}
}

func TestStepToward(t *testing.T) {
	cases := []struct {
		x, y, tx, ty, dx, dy int
	}{
		{0, 0, 5, 5, 1, 1},
		{5, 5, 0, 9, -1, 1},
		{3, 3, 3, 3, 0, 0},
		{3, 3, 3, 1, 0, -1},
	}
	for _, c := range cases {
		dx, dy := StepToward(c.x, c.y, c.tx, c.ty)
		if dx != c.dx || dy != c.dy {
			t.Errorf("StepToward(%d,%d -> %d,%d) = (%d,%d), want (%d,%d)",
				c.x, c.y, c.tx, c.ty, dx, dy, c.dx, c.dy)
		}
	}
}

func TestGenerateCarvesNest(t *testing.T) {
	p := GenParams{
		NoiseScale:    0.15,
		WallThreshold: 0.6,
		FoodThreshold: 0.7,
		FoodAmount:    10,
		NestRadius:    3,
	}
	g := Generate(40, 40, 42, p)

	cx, cy := g.NestCenter()
	if cx != 20 || cy != 20 {
		t.Fatalf("nest center = (%d,%d)", cx, cy)
	}
	for dy := -3; dy <= 3; dy++ {
		for dx := -3; dx <= 3; dx++ {
			if dx*dx+dy*dy > 9 {
				continue
			}
			x, y := cx+dx, cy+dy
			if g.Class(x, y) != ClassNest {
				t.Fatalf("nest cell (%d,%d) = %s", x, y, g.Class(x, y))
			}
			if g.Food(x, y) != 0 {
				t.Fatalf("nest cell (%d,%d) holds food", x, y)
			}
		}
	}

	// Same seed, same world.
	h := Generate(40, 40, 42, p)
	for y := 0; y < 40; y++ {
		for x := 0; x < 40; x++ {
			if g.Class(x, y) != h.Class(x, y) || math.Abs(g.Food(x, y)-h.Food(x, y)) > 0 {
				t.Fatalf("generation not deterministic at (%d,%d)", x, y)
			}
		}
	}
}
