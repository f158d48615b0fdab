package world

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// PheromoneParams tunes one pheromone type.
type PheromoneParams struct {
	Evaporation float64 // fraction removed per tick, 0..1
	Diffusion   float64 // fraction spread to neighbors per tick, 0..1
}

func (p PheromoneParams) clamped() PheromoneParams {
	if p.Evaporation < 0 {
		p.Evaporation = 0
	} else if p.Evaporation > 1 {
		p.Evaporation = 1
	}
	if p.Diffusion < 0 {
		p.Diffusion = 0
	} else if p.Diffusion > 1 {
		p.Diffusion = 1
	}
	return p
}

// UnknownTypeError reports access to a pheromone type that was never
// registered while dynamic types are disabled.
type UnknownTypeError struct {
	Type string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("pheromone: unknown type %q", e.Type)
}

// TypeSummary reports per-type mass movement for one field step.
type TypeSummary struct {
	Type      string
	Before    float64 // mass before evaporation
	After     float64 // mass after the full step
	Deposited float64 // staged deposits applied this step
}

// layer is one pheromone type's double-buffered intensity grid plus
// its staged deposits for the current tick.
type layer struct {
	params PheromoneParams
	cur    []float64
	next   []float64
	staged []float64
	dirty  bool // staged has nonzero entries

	lastDeposited float64
}

// Field is the multi-type pheromone field. Types registered up front
// carry their own parameters; dynamic types (per-agent breadcrumb
// trails) are created lazily with the default parameters when enabled.
type Field struct {
	W, H int

	layers   map[string]*layer
	order    []string // sorted type names, kept in lockstep with layers
	defaults PheromoneParams
	dynamic  bool
}

// NewField creates an empty field. defaults apply to lazily created
// dynamic types; allowDynamic gates that creation.
func NewField(w, h int, defaults PheromoneParams, allowDynamic bool) *Field {
	return &Field{
		W: w, H: h,
		layers:   make(map[string]*layer),
		defaults: defaults.clamped(),
		dynamic:  allowDynamic,
	}
}

// RegisterType adds a pheromone type with its own parameters.
// Registering an existing type updates its parameters in place.
func (f *Field) RegisterType(name string, p PheromoneParams) {
	if l, ok := f.layers[name]; ok {
		l.params = p.clamped()
		return
	}
	f.addLayer(name, p.clamped())
}

func (f *Field) addLayer(name string, p PheromoneParams) *layer {
	n := f.W * f.H
	l := &layer{
		params: p,
		cur:    make([]float64, n),
		next:   make([]float64, n),
		staged: make([]float64, n),
	}
	f.layers[name] = l
	i := sort.SearchStrings(f.order, name)
	f.order = append(f.order, "")
	copy(f.order[i+1:], f.order[i:])
	f.order[i] = name
	return l
}

// Remove drops a pheromone type and its buffers. Dynamic per-agent
// types are removed when their owner dies so the field does not step
// ever more near-empty layers. Unknown names are a no-op.
func (f *Field) Remove(name string) {
	if _, ok := f.layers[name]; !ok {
		return
	}
	delete(f.layers, name)
	i := sort.SearchStrings(f.order, name)
	if i < len(f.order) && f.order[i] == name {
		f.order = append(f.order[:i], f.order[i+1:]...)
	}
}

// resolve returns the layer for name, creating it when dynamic types
// are allowed.
func (f *Field) resolve(name string) (*layer, error) {
	if l, ok := f.layers[name]; ok {
		return l, nil
	}
	if !f.dynamic {
		return nil, &UnknownTypeError{Type: name}
	}
	return f.addLayer(name, f.defaults), nil
}

// Types returns the registered type names in sorted order.
func (f *Field) Types() []string {
	out := make([]string, len(f.order))
	copy(out, f.order)
	return out
}

// Has reports whether a type exists.
func (f *Field) Has(name string) bool {
	_, ok := f.layers[name]
	return ok
}

// At returns the current intensity of one type at a cell.
// Out-of-bounds reads are zero.
func (f *Field) At(name string, x, y int) (float64, error) {
	l, ok := f.layers[name]
	if !ok {
		return 0, &UnknownTypeError{Type: name}
	}
	if x < 0 || x >= f.W || y < 0 || y >= f.H {
		return 0, nil
	}
	return l.cur[y*f.W+x], nil
}

// Deposit stages an amount to be added after this tick's evaporation
// and diffusion. Negative amounts are ignored.
func (f *Field) Deposit(name string, x, y int, amount float64) error {
	l, err := f.resolve(name)
	if err != nil {
		return err
	}
	if amount <= 0 || x < 0 || x >= f.W || y < 0 || y >= f.H {
		return nil
	}
	l.staged[y*f.W+x] += amount
	l.dirty = true
	return nil
}

// Add writes intensity into the live buffer immediately, bypassing the
// staging pass. Used for world seeding and direct scent sources.
func (f *Field) Add(name string, x, y int, amount float64) error {
	l, err := f.resolve(name)
	if err != nil {
		return err
	}
	if x < 0 || x >= f.W || y < 0 || y >= f.H {
		return nil
	}
	v := l.cur[y*f.W+x] + amount
	if v < 0 {
		v = 0
	}
	l.cur[y*f.W+x] = v
	return nil
}

// Step advances every type by one tick: evaporate, diffuse, apply
// staged deposits, swap buffers. Returns per-type mass summaries in
// sorted type order.
func (f *Field) Step() []TypeSummary {
	out := make([]TypeSummary, 0, len(f.order))
	for _, name := range f.order {
		l := f.layers[name]
		s := TypeSummary{Type: name, Before: floats.Sum(l.cur)}

		f.stepLayer(l)

		s.After = floats.Sum(l.cur)
		s.Deposited = l.lastDeposited
		out = append(out, s)
	}
	return out
}

func (f *Field) stepLayer(l *layer) {
	w, h := f.W, f.H
	evap := 1 - l.params.Evaporation
	alpha := l.params.Diffusion
	share := alpha / 4
	src, dst := l.cur, l.next

	// Evaporation first, folded into the read below.
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			c := src[i] * evap

			// Retained fraction plus reflected shares from borders:
			// a share that would leave the grid stays put, so mass
			// is conserved by diffusion alone.
			acc := c * (1 - alpha)
			for _, d := range Neighbors4 {
				nx, ny := x+d[0], y+d[1]
				if nx < 0 || nx >= w || ny < 0 || ny >= h {
					acc += c * share
					continue
				}
				acc += src[ny*w+nx] * evap * share
			}
			dst[i] = acc
		}
	}

	// Staged deposits land on the post-diffusion buffer.
	l.lastDeposited = 0
	if l.dirty {
		for i, a := range l.staged {
			if a == 0 {
				continue
			}
			dst[i] += a
			l.lastDeposited += a
			l.staged[i] = 0
		}
		l.dirty = false
	}

	for i, v := range dst {
		if v < 0 {
			dst[i] = 0
		}
	}

	l.cur, l.next = dst, src
}

// Max returns the peak intensity of one type, for telemetry.
func (f *Field) Max(name string) (float64, error) {
	l, ok := f.layers[name]
	if !ok {
		return 0, &UnknownTypeError{Type: name}
	}
	if len(l.cur) == 0 {
		return 0, nil
	}
	return floats.Max(l.cur), nil
}
