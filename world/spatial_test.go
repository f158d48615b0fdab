package world

import (
	"testing"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/formic/components"
)

func TestSpatialIndexQueryRadius(t *testing.T) {
	w := ecs.NewWorld()
	mapper := ecs.NewMap1[components.Position](w)
	idx := NewSpatialIndex(10, 10)

	mk := func(x, y int) ecs.Entity {
		pos := components.Position{X: x, Y: y}
		e := mapper.NewEntity(&pos)
		idx.Insert(e, x, y)
		return e
	}

	self := mk(5, 5)
	north := mk(5, 4)
	east := mk(7, 5)
	mk(9, 9) // outside radius

	got := idx.QueryRadiusInto(nil, 5, 5, 2, self, mapper)
	if len(got) != 2 {
		t.Fatalf("got %d neighbors, want 2", len(got))
	}
	// Row-major scan order: north row before the center row.
	if got[0].E != north || got[0].DistSq != 1 {
		t.Fatalf("first = %+v", got[0])
	}
	if got[1].E != east || got[1].DX != 2 || got[1].DistSq != 4 {
		t.Fatalf("second = %+v", got[1])
	}
}

func TestSpatialIndexClearAndAt(t *testing.T) {
	w := ecs.NewWorld()
	mapper := ecs.NewMap1[components.Position](w)
	idx := NewSpatialIndex(4, 4)

	pos := components.Position{X: 1, Y: 2}
	e := mapper.NewEntity(&pos)
	idx.Insert(e, 1, 2)

	if cell := idx.At(1, 2); len(cell) != 1 || cell[0] != e {
		t.Fatalf("cell = %v", cell)
	}
	if idx.At(-1, 0) != nil {
		t.Fatal("out-of-bounds lookup must be empty")
	}

	idx.Clear()
	if len(idx.At(1, 2)) != 0 {
		t.Fatal("index not empty after Clear")
	}
}
