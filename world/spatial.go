package world

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/formic/components"
)

// Neighbor holds a nearby entity with precomputed spatial data.
// This avoids recomputing delta and distance in sensors.
type Neighbor struct {
	E      ecs.Entity
	DX, DY int // delta from query origin
	DistSq int // squared distance (avoid sqrt in hot path)
}

// SpatialIndex provides O(1) neighbor lookups with one bucket per grid
// cell. Rebuilt at the top of every tick from agent positions.
type SpatialIndex struct {
	w, h  int
	cells [][]ecs.Entity
}

// NewSpatialIndex creates an index covering a w by h grid.
func NewSpatialIndex(w, h int) *SpatialIndex {
	cells := make([][]ecs.Entity, w*h)
	for i := range cells {
		cells[i] = make([]ecs.Entity, 0, 4) // pre-allocate small capacity
	}
	return &SpatialIndex{w: w, h: h, cells: cells}
}

// Clear removes all entities from the index.
func (s *SpatialIndex) Clear() {
	for i := range s.cells {
		s.cells[i] = s.cells[i][:0]
	}
}

// Insert adds an entity at the given cell.
func (s *SpatialIndex) Insert(e ecs.Entity, x, y int) {
	if x < 0 || x >= s.w || y < 0 || y >= s.h {
		return
	}
	i := y*s.w + x
	s.cells[i] = append(s.cells[i], e)
}

// At returns the entities standing on one cell. The returned slice is
// owned by the index; do not retain it across ticks.
func (s *SpatialIndex) At(x, y int) []ecs.Entity {
	if x < 0 || x >= s.w || y < 0 || y >= s.h {
		return nil
	}
	return s.cells[y*s.w+x]
}

// MaxQueryResults caps the number of neighbors returned by spatial queries.
// This prevents density spikes from causing unbounded work.
const MaxQueryResults = 64

// QueryRadiusInto finds entities within radius cells and appends to dst
// (up to MaxQueryResults). Returns the updated slice. Reuse dst across
// calls to avoid allocations. Scan order is row-major, so results are
// deterministic for a given index state.
func (s *SpatialIndex) QueryRadiusInto(dst []Neighbor, x, y, radius int, exclude ecs.Entity, posMap *ecs.Map1[components.Position]) []Neighbor {
	radiusSq := radius * radius

	for dy := -radius; dy <= radius; dy++ {
		ny := y + dy
		if ny < 0 || ny >= s.h {
			continue
		}
		for dx := -radius; dx <= radius; dx++ {
			nx := x + dx
			if nx < 0 || nx >= s.w {
				continue
			}
			if dx*dx+dy*dy > radiusSq {
				continue
			}
			for _, e := range s.cells[ny*s.w+nx] {
				if e == exclude {
					continue
				}
				pos := posMap.Get(e)
				if pos == nil {
					continue
				}
				ddx := pos.X - x
				ddy := pos.Y - y
				dst = append(dst, Neighbor{E: e, DX: ddx, DY: ddy, DistSq: ddx*ddx + ddy*ddy})
				if len(dst) >= MaxQueryResults {
					return dst
				}
			}
		}
	}
	return dst
}
