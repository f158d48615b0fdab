// Package world holds the spatial state of the simulation: the cell
// grid, the pheromone field, the entity spatial index, and terrain
// generation.
package world

import (
	"gonum.org/v1/gonum/floats"
)

// CellClass categorizes a grid cell for movement and behavior rules.
type CellClass uint8

const (
	ClassOpen CellClass = iota
	ClassWall
	ClassNest
)

// String returns the class name used in logs and telemetry.
func (c CellClass) String() string {
	switch c {
	case ClassOpen:
		return "open"
	case ClassWall:
		return "wall"
	case ClassNest:
		return "nest"
	}
	return "unknown"
}

// Neighbors4 lists the orthogonal neighbor deltas.
var Neighbors4 = [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}

// Neighbors8 lists the full neighborhood deltas, in a fixed scan order
// so gradient sensors resolve ties the same way every tick.
var Neighbors8 = [8][2]int{
	{-1, -1}, {0, -1}, {1, -1},
	{-1, 0}, {1, 0},
	{-1, 1}, {0, 1}, {1, 1},
}

// Grid is the bounded cell grid. Classes, food, and occupancy counts
// are stored per cell; coordinates are (x, y) with origin top-left.
type Grid struct {
	W, H int

	class []CellClass
	food  []float64
	occ   []int16

	// Nest center, set by the generator (or SetNest).
	NestX, NestY int
}

// NewGrid creates an all-open grid.
func NewGrid(w, h int) *Grid {
	return &Grid{
		W: w, H: h,
		class: make([]CellClass, w*h),
		food:  make([]float64, w*h),
		occ:   make([]int16, w*h),
	}
}

// InBounds reports whether (x, y) is on the grid.
func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && x < g.W && y >= 0 && y < g.H
}

func (g *Grid) idx(x, y int) int { return y*g.W + x }

// Class returns the cell class. Out-of-bounds cells read as walls so
// movement checks compose.
func (g *Grid) Class(x, y int) CellClass {
	if !g.InBounds(x, y) {
		return ClassWall
	}
	return g.class[g.idx(x, y)]
}

// SetClass assigns a cell class.
func (g *Grid) SetClass(x, y int, c CellClass) {
	if g.InBounds(x, y) {
		g.class[g.idx(x, y)] = c
	}
}

// Walkable reports whether an agent may stand on (x, y).
func (g *Grid) Walkable(x, y int) bool {
	return g.InBounds(x, y) && g.class[g.idx(x, y)] != ClassWall
}

// Food returns the food stored at a cell.
func (g *Grid) Food(x, y int) float64 {
	if !g.InBounds(x, y) {
		return 0
	}
	return g.food[g.idx(x, y)]
}

// AddFood deposits food onto a cell.
func (g *Grid) AddFood(x, y int, amount float64) {
	if g.InBounds(x, y) && amount > 0 {
		g.food[g.idx(x, y)] += amount
	}
}

// TakeFood removes up to amount of food from a cell and returns what
// was actually taken.
func (g *Grid) TakeFood(x, y int, amount float64) float64 {
	if !g.InBounds(x, y) || amount <= 0 {
		return 0
	}
	i := g.idx(x, y)
	take := amount
	if take > g.food[i] {
		take = g.food[i]
	}
	g.food[i] -= take
	return take
}

// TotalFood returns the food mass across the grid.
func (g *Grid) TotalFood() float64 {
	return floats.Sum(g.food)
}

// Occupants returns the number of agents standing on a cell.
func (g *Grid) Occupants(x, y int) int {
	if !g.InBounds(x, y) {
		return 0
	}
	return int(g.occ[g.idx(x, y)])
}

// Enter increments a cell's occupancy count.
func (g *Grid) Enter(x, y int) {
	if g.InBounds(x, y) {
		g.occ[g.idx(x, y)]++
	}
}

// Leave decrements a cell's occupancy count.
func (g *Grid) Leave(x, y int) {
	if g.InBounds(x, y) && g.occ[g.idx(x, y)] > 0 {
		g.occ[g.idx(x, y)]--
	}
}

// NestCenter returns the nest center coordinate.
func (g *Grid) NestCenter() (int, int) { return g.NestX, g.NestY }

// SetNest records the nest center.
func (g *Grid) SetNest(x, y int) { g.NestX, g.NestY = x, y }

// InNest reports whether the cell belongs to the nest.
func (g *Grid) InNest(x, y int) bool { return g.Class(x, y) == ClassNest }

// StepToward returns the unit delta that moves one cell from (x, y)
// toward (tx, ty), allowing diagonals.
func StepToward(x, y, tx, ty int) (int, int) {
	return sign(tx - x), sign(ty - y)
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
