package sim

// AgentSnapshot is one agent's exported state.
type AgentSnapshot struct {
	ID      uint32
	Role    string
	Class   string
	X, Y    int
	Energy  float64
	Stomach float64
	Social  float64
	Stage   int // brood development stage; 0 for adults
}

// PheromoneSnapshot is one type's full intensity grid, row-major.
type PheromoneSnapshot struct {
	Type   string
	W, H   int
	Values []float64
}

// Snapshot is a copy of the observable simulation state, safe to use
// after further ticks.
type Snapshot struct {
	Tick       int
	Agents     []AgentSnapshot
	FoodOnGrid float64
	Pheromones []PheromoneSnapshot
}

// Snapshot exports the current committed state. Agents come back in
// colony order, which is ascending id order. Call between ticks only.
func (s *Simulation) Snapshot() Snapshot {
	snap := Snapshot{
		Tick:       s.tick,
		Agents:     make([]AgentSnapshot, 0, len(s.colony)),
		FoodOnGrid: s.grid.TotalFood(),
	}

	for _, e := range s.colony {
		pos := s.posMap.Get(e)
		ag := s.agMap.Get(e)
		ph := s.phMap.Get(e)
		snap.Agents = append(snap.Agents, AgentSnapshot{
			ID:      ag.ID,
			Role:    ag.Role.String(),
			Class:   ag.Class,
			X:       pos.X,
			Y:       pos.Y,
			Energy:  ph.Energy,
			Stomach: ph.Stomach,
			Social:  ph.Social,
			Stage:   ph.DevelopStage,
		})
	}

	for _, typ := range s.field.Types() {
		ps := PheromoneSnapshot{
			Type:   typ,
			W:      s.field.W,
			H:      s.field.H,
			Values: make([]float64, 0, s.field.W*s.field.H),
		}
		for y := 0; y < s.field.H; y++ {
			for x := 0; x < s.field.W; x++ {
				v, _ := s.field.At(typ, x, y)
				ps.Values = append(ps.Values, v)
			}
		}
		snap.Pheromones = append(snap.Pheromones, ps)
	}
	return snap
}
