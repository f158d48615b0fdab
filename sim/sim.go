// Package sim runs the colony: it owns the ECS world, the grid and
// pheromone field, the compiled behavior trees, and the tick pipeline
// that turns staged intents into committed state.
package sim

import (
	"fmt"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/formic/behavior"
	"github.com/pthm-cable/formic/blackboard"
	"github.com/pthm-cable/formic/components"
	"github.com/pthm-cable/formic/config"
	"github.com/pthm-cable/formic/plugins"
	"github.com/pthm-cable/formic/telemetry"
	"github.com/pthm-cable/formic/world"
)

// boundSensor is one resolved sensor in a class's per-tick scan list.
type boundSensor struct {
	name string
	fn   plugins.SensorFunc
}

// Simulation is one running colony. All methods must be called from a
// single goroutine; the tick pipeline is strictly sequential so runs
// with the same config and seed replay identically.
type Simulation struct {
	cfg  *config.Config
	tick int

	world   *ecs.World
	mapper  *ecs.Map4[components.Position, components.Agent, components.Physiology, components.Mind]
	posMap  *ecs.Map1[components.Position]
	agMap   *ecs.Map1[components.Agent]
	phMap   *ecs.Map1[components.Physiology]
	mindMap *ecs.Map1[components.Mind]

	grid    *world.Grid
	field   *world.Field
	spatial *world.SpatialIndex

	registry *plugins.Registry
	trees    map[string]*behavior.Tree
	sensors  map[string][]boundSensor

	// colony holds every living agent in insertion order; evaluation
	// and execution both walk it front to back.
	colony []ecs.Entity
	byID   map[uint32]ecs.Entity
	nextID uint32

	collector *telemetry.Collector

	fieldMass float64
	scratch   []world.Neighbor
}

// New builds a simulation from a validated config and a world seed.
// Every plugin reference in the behavior configuration is resolved
// here; unknown names fail before the first tick.
func New(cfg *config.Config, seed int64) (*Simulation, error) {
	grid := world.Generate(cfg.World.Width, cfg.World.Height, seed, world.GenParams{
		NoiseScale:    cfg.Worldgen.NoiseScale,
		WallThreshold: cfg.Worldgen.WallThreshold,
		FoodThreshold: cfg.Worldgen.FoodThreshold,
		FoodAmount:    cfg.Worldgen.FoodAmount,
		NestRadius:    cfg.Worldgen.NestRadius,
	})
	return newSimulation(cfg, grid)
}

// newSimulation wires a simulation onto an already-built grid.
func newSimulation(cfg *config.Config, grid *world.Grid) (*Simulation, error) {
	w, h := cfg.World.Width, cfg.World.Height

	field := world.NewField(w, h, world.PheromoneParams{
		Evaporation: cfg.Pheromones.DefaultEvaporation,
		Diffusion:   cfg.Pheromones.DefaultDiffusion,
	}, cfg.Pheromones.AllowDynamic)
	for _, t := range cfg.Pheromones.Types {
		field.RegisterType(t.Name, world.PheromoneParams{
			Evaporation: t.Evaporation,
			Diffusion:   t.Diffusion,
		})
	}

	registry := plugins.NewRegistry()
	if err := plugins.RegisterBuiltins(registry, plugins.BuiltinConfig{
		ScanRadius:       cfg.Navigation.ScanRadius,
		GradientTypes:    cfg.Derived.PheromoneTypeNames,
		DetourThreshold:  cfg.Navigation.DetourThreshold,
		NoiseFloor:       cfg.Navigation.NoiseFloor,
		CenterBias:       cfg.Navigation.CenterBias,
		BreadcrumbAmount: cfg.Navigation.BreadcrumbAmount,
		CollectAmount:    cfg.Energy.CollectAmount,
		FeedAmount:       cfg.Energy.FeedAmount,
	}); err != nil {
		return nil, err
	}

	ecsWorld := ecs.NewWorld()
	s := &Simulation{
		cfg:   cfg,
		world: ecsWorld,
		mapper: ecs.NewMap4[
			components.Position,
			components.Agent,
			components.Physiology,
			components.Mind,
		](ecsWorld),
		posMap:  ecs.NewMap1[components.Position](ecsWorld),
		agMap:   ecs.NewMap1[components.Agent](ecsWorld),
		phMap:   ecs.NewMap1[components.Physiology](ecsWorld),
		mindMap: ecs.NewMap1[components.Mind](ecsWorld),

		grid:    grid,
		field:   field,
		spatial: world.NewSpatialIndex(w, h),

		registry: registry,
		trees:    make(map[string]*behavior.Tree),
		sensors:  make(map[string][]boundSensor),

		byID: make(map[uint32]ecs.Entity),

		collector: telemetry.NewCollector(cfg.Telemetry.StatsWindow),
		scratch:   make([]world.Neighbor, 0, world.MaxQueryResults),
	}

	for _, class := range cfg.Derived.ClassNames {
		cc := cfg.Behavior.Classes[class]

		bound, err := s.bindSensors(class, cc.Sensors)
		if err != nil {
			return nil, err
		}
		s.sensors[class] = bound

		tree, err := behavior.CompileTasks(taskSpecs(cc.Tasks), registry)
		if err != nil {
			return nil, fmt.Errorf("class %s: %w", class, err)
		}
		s.trees[class] = tree
	}

	if err := s.spawnColony(); err != nil {
		return nil, err
	}
	return s, nil
}

// bindSensors resolves a class's sensor list against the registry,
// dropping duplicate names so each sensor runs at most once per tick.
func (s *Simulation) bindSensors(class string, names []string) ([]boundSensor, error) {
	seen := make(map[string]bool, len(names))
	bound := make([]boundSensor, 0, len(names))
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true
		fn, ok := s.registry.Sensor(name)
		if !ok {
			return nil, fmt.Errorf("%w: class %s references unknown sensor %q",
				plugins.ErrConfig, class, name)
		}
		bound = append(bound, boundSensor{name: name, fn: fn})
	}
	return bound, nil
}

// taskSpecs converts the configuration's task list into the compiler's
// form.
func taskSpecs(tasks []config.TaskConfig) []behavior.TaskSpec {
	specs := make([]behavior.TaskSpec, 0, len(tasks))
	for _, t := range tasks {
		spec := behavior.TaskSpec{
			Name:      t.Name,
			Priority:  t.Priority,
			Logic:     t.Logic,
			MaxCycles: t.MaxCycles,
		}
		for _, ref := range t.Triggers {
			spec.Triggers = append(spec.Triggers, behavior.TriggerRef{
				Name:   ref.Name,
				Params: plugins.Params(ref.Params),
			})
		}
		for _, ref := range t.Steps {
			spec.Steps = append(spec.Steps, behavior.StepRef{
				Name:   ref.Name,
				Params: plugins.Params(ref.Params),
			})
		}
		specs = append(specs, spec)
	}
	return specs
}

// spawnColony places the starting queens and workers on nest cells,
// row-major with wraparound.
func (s *Simulation) spawnColony() error {
	var nest [][2]int
	for y := 0; y < s.grid.H; y++ {
		for x := 0; x < s.grid.W; x++ {
			if s.grid.Class(x, y) == world.ClassNest {
				nest = append(nest, [2]int{x, y})
			}
		}
	}
	if len(nest) == 0 {
		return fmt.Errorf("%w: generated world has no nest cells", plugins.ErrConfig)
	}

	total := s.cfg.Colony.Queens + s.cfg.Colony.Workers
	for i := 0; i < total; i++ {
		role := components.RoleWorker
		if i < s.cfg.Colony.Queens {
			role = components.RoleQueen
		}
		cell := nest[i%len(nest)]
		s.spawn(role, "", cell[0], cell[1])
	}
	return nil
}

// roleDefaults returns the configured defaults for a role.
func (s *Simulation) roleDefaults(role components.Role) config.RoleConfig {
	switch role {
	case components.RoleQueen:
		return s.cfg.Colony.Defaults.Queen
	case components.RoleBrood:
		return s.cfg.Colony.Defaults.Brood
	}
	return s.cfg.Colony.Defaults.Worker
}

// spawn creates one agent at a cell. An empty class falls back to the
// role's configured default; unknown classes do too, so a bad spawn
// request can never produce an agent without a tree.
func (s *Simulation) spawn(role components.Role, class string, x, y int) ecs.Entity {
	rc := s.roleDefaults(role)
	if class == "" {
		class = rc.Class
	}
	if _, ok := s.trees[class]; !ok {
		class = rc.Class
	}

	pos := components.Position{X: x, Y: y}
	ag := components.Agent{ID: s.nextID, Role: role, Class: class}
	phys := components.Physiology{
		Energy:      rc.InitialEnergy,
		MaxEnergy:   rc.MaxEnergy,
		StomachCap:  rc.StomachCap,
		SocialCap:   rc.SocialCap,
		HungerLevel: rc.HungerLevel,
	}
	if role == components.RoleQueen {
		phys.EggTimer = s.cfg.Energy.EggInterval
	}
	mind := components.Mind{BB: blackboard.New()}

	e := s.mapper.NewEntity(&pos, &ag, &phys, &mind)
	s.byID[s.nextID] = e
	s.nextID++
	s.colony = append(s.colony, e)
	s.grid.Enter(x, y)
	return e
}

// CurrentTick returns the number of completed ticks.
func (s *Simulation) CurrentTick() int { return s.tick }

// Grid returns the terrain grid.
func (s *Simulation) Grid() *world.Grid { return s.grid }

// Field returns the pheromone field.
func (s *Simulation) Field() *world.Field { return s.field }

// Collector returns the telemetry collector fed by Tick.
func (s *Simulation) Collector() *telemetry.Collector { return s.collector }

// Population returns the living agent counts by role.
func (s *Simulation) Population() (workers, queens, brood int) {
	for _, e := range s.colony {
		switch s.agMap.Get(e).Role {
		case components.RoleQueen:
			queens++
		case components.RoleBrood:
			brood++
		default:
			workers++
		}
	}
	return workers, queens, brood
}

// FlushStats closes the current telemetry window against the live
// colony state.
func (s *Simulation) FlushStats() telemetry.WindowStats {
	workers, queens, brood := s.Population()
	energies := make([]float64, 0, len(s.colony))
	for _, e := range s.colony {
		energies = append(energies, s.phMap.Get(e).Energy)
	}
	return s.collector.Flush(s.tick, workers, queens, brood,
		energies, s.fieldMass, s.grid.TotalFood())
}

// simView is the read-only world handed to sensors and steps. It
// exposes the state committed before the current evaluation pass.
type simView struct {
	s *Simulation
}

func (v simView) Tick() int           { return v.s.tick }
func (v simView) Grid() *world.Grid   { return v.s.grid }
func (v simView) Field() *world.Field { return v.s.field }

// Neighbors queries the spatial index around an agent. Results come
// back in the index's row-major scan order.
func (v simView) Neighbors(a *plugins.Agent, radius int) []plugins.NeighborInfo {
	s := v.s
	self := s.byID[a.ID]
	s.scratch = s.spatial.QueryRadiusInto(s.scratch[:0], a.X, a.Y, radius, self, s.posMap)

	out := make([]plugins.NeighborInfo, 0, len(s.scratch))
	for _, n := range s.scratch {
		ag := s.agMap.Get(n.E)
		ph := s.phMap.Get(n.E)
		if ag == nil || ph == nil {
			continue
		}
		out = append(out, plugins.NeighborInfo{
			ID:      ag.ID,
			Role:    ag.Role.String(),
			X:       a.X + n.DX,
			Y:       a.Y + n.DY,
			DX:      n.DX,
			DY:      n.DY,
			DistSq:  n.DistSq,
			Hungry:  ph.Hungry(),
			Stomach: ph.Stomach,
		})
	}
	return out
}
