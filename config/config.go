// Package config provides configuration loading and access for the
// colony simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	World      WorldConfig      `yaml:"world"`
	Worldgen   WorldgenConfig   `yaml:"worldgen"`
	Colony     ColonyConfig     `yaml:"colony"`
	Pheromones PheromonesConfig `yaml:"pheromones"`
	Navigation NavigationConfig `yaml:"navigation"`
	Occupancy  OccupancyConfig  `yaml:"occupancy"`
	Energy     EnergyConfig     `yaml:"energy"`
	Behavior   BehaviorConfig   `yaml:"behavior"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// WorldConfig holds the grid dimensions.
type WorldConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// WorldgenConfig holds terrain generation parameters.
type WorldgenConfig struct {
	NoiseScale    float64 `yaml:"noise_scale"`    // lattice frequency; higher = smaller features
	WallThreshold float64 `yaml:"wall_threshold"` // terrain noise above this becomes wall
	FoodThreshold float64 `yaml:"food_threshold"` // food noise above this seeds a patch
	FoodAmount    float64 `yaml:"food_amount"`    // food per cell at a patch peak
	NestRadius    int     `yaml:"nest_radius"`
}

// RoleConfig holds per-role agent defaults.
type RoleConfig struct {
	Class         string  `yaml:"class"` // capability class; selects the behavior tree
	MaxEnergy     float64 `yaml:"max_energy"`
	InitialEnergy float64 `yaml:"initial_energy"`
	StomachCap    float64 `yaml:"stomach_cap"`
	SocialCap     float64 `yaml:"social_cap"`
	HungerLevel   float64 `yaml:"hunger_level"` // energy fraction below which hunger fires
}

// RoleDefaults groups the per-role defaults.
type RoleDefaults struct {
	Worker RoleConfig `yaml:"worker"`
	Queen  RoleConfig `yaml:"queen"`
	Brood  RoleConfig `yaml:"brood"`
}

// ColonyConfig holds the starting colony composition.
type ColonyConfig struct {
	Workers  int          `yaml:"workers"`
	Queens   int          `yaml:"queens"`
	Defaults RoleDefaults `yaml:"defaults"`
}

// PheromoneTypeConfig declares one static pheromone type.
type PheromoneTypeConfig struct {
	Name        string  `yaml:"name"`
	Evaporation float64 `yaml:"evaporation"` // fraction removed per tick
	Diffusion   float64 `yaml:"diffusion"`   // fraction spread to neighbors per tick
}

// PheromonesConfig holds the pheromone field parameters.
type PheromonesConfig struct {
	AllowDynamic       bool                  `yaml:"allow_dynamic"` // permit lazily created types (breadcrumbs)
	DefaultEvaporation float64               `yaml:"default_evaporation"`
	DefaultDiffusion   float64               `yaml:"default_diffusion"`
	Types              []PheromoneTypeConfig `yaml:"types"`
}

// NavigationConfig holds the return-to-nest fallback thresholds.
type NavigationConfig struct {
	ScanRadius       int     `yaml:"scan_radius"`
	DetourThreshold  int     `yaml:"detour_threshold"`  // blocked attempts before detouring
	NoiseFloor       float64 `yaml:"noise_floor"`       // breadcrumb intensity below this reads as absent
	CenterBias       float64 `yaml:"center_bias"`       // emergency center-bias weight, 0..1
	BreadcrumbAmount float64 `yaml:"breadcrumb_amount"` // breadcrumb laid per walking step
}

// OccupancyConfig restricts agents per cell by cell class; 0 means
// unbounded.
type OccupancyConfig struct {
	OpenLimit int `yaml:"open_limit"`
	NestLimit int `yaml:"nest_limit"`
}

// EnergyConfig holds the colony energy model.
type EnergyConfig struct {
	DrainPerTick    float64 `yaml:"drain_per_tick"`   // base energy cost of being alive
	DigestionRate   float64 `yaml:"digestion_rate"`   // stomach -> energy per tick
	SocialDigestion float64 `yaml:"social_digestion"` // social -> stomach per tick when hungry
	CollectAmount   float64 `yaml:"collect_amount"`   // default food picked up per collect step
	FeedAmount      float64 `yaml:"feed_amount"`      // default trophallaxis transfer
	EggCost         float64 `yaml:"egg_cost"`         // queen energy spent per egg
	EggInterval     int     `yaml:"egg_interval"`     // ticks between lay attempts
	BroodStageTicks int     `yaml:"brood_stage_ticks"`
	BroodStages     int     `yaml:"brood_stages"` // stages before emerging as a worker
}

// PluginRefConfig names a trigger or step with its parameters.
type PluginRefConfig struct {
	Name   string         `yaml:"name"`
	Params map[string]any `yaml:"params"`
}

// TaskConfig is one named task in a class's task list.
type TaskConfig struct {
	Name      string            `yaml:"name"`
	Priority  int               `yaml:"priority"` // lower runs first
	Logic     string            `yaml:"logic"`    // trigger combinator: and (default) / or
	Triggers  []PluginRefConfig `yaml:"triggers"`
	Steps     []PluginRefConfig `yaml:"steps"`
	MaxCycles int               `yaml:"max_cycles"` // consecutive active ticks before yielding; 0 = unbounded
}

// ClassConfig configures one capability class: which sensors run each
// tick and the task list its tree compiles from.
type ClassConfig struct {
	Sensors []string     `yaml:"sensors"`
	Tasks   []TaskConfig `yaml:"tasks"`
}

// BehaviorConfig maps capability class names to their configuration.
type BehaviorConfig struct {
	Classes map[string]ClassConfig `yaml:"classes"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow int `yaml:"stats_window"` // ticks per stats window
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	PheromoneTypeNames []string // static type names, sorted
	ClassNames         []string // configured classes, sorted
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded
// defaults if path is empty. Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded
// defaults. If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.computeDerived()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	names := make([]string, 0, len(c.Pheromones.Types))
	for _, t := range c.Pheromones.Types {
		names = append(names, t.Name)
	}
	sort.Strings(names)
	c.Derived.PheromoneTypeNames = names

	classes := make([]string, 0, len(c.Behavior.Classes))
	for name := range c.Behavior.Classes {
		classes = append(classes, name)
	}
	sort.Strings(classes)
	c.Derived.ClassNames = classes
}

// Validate range-checks every numeric parameter so the engine can
// assume a fully-defaulted, in-range document. Fails before the first
// tick ever runs.
func (c *Config) Validate() error {
	if c.World.Width < 4 || c.World.Height < 4 {
		return fmt.Errorf("config: world dimensions %dx%d too small", c.World.Width, c.World.Height)
	}
	if c.Colony.Workers < 0 || c.Colony.Queens < 0 {
		return fmt.Errorf("config: negative colony composition")
	}
	if err := validateFraction("pheromones.default_evaporation", c.Pheromones.DefaultEvaporation); err != nil {
		return err
	}
	if err := validateFraction("pheromones.default_diffusion", c.Pheromones.DefaultDiffusion); err != nil {
		return err
	}
	seen := make(map[string]bool, len(c.Pheromones.Types))
	for _, t := range c.Pheromones.Types {
		if t.Name == "" {
			return fmt.Errorf("config: pheromone type with empty name")
		}
		if seen[t.Name] {
			return fmt.Errorf("config: duplicate pheromone type %q", t.Name)
		}
		seen[t.Name] = true
		if err := validateFraction("pheromones."+t.Name+".evaporation", t.Evaporation); err != nil {
			return err
		}
		if err := validateFraction("pheromones."+t.Name+".diffusion", t.Diffusion); err != nil {
			return err
		}
	}
	if err := validateFraction("navigation.center_bias", c.Navigation.CenterBias); err != nil {
		return err
	}
	if c.Navigation.ScanRadius < 1 {
		return fmt.Errorf("config: navigation.scan_radius must be at least 1")
	}
	if c.Occupancy.OpenLimit < 0 || c.Occupancy.NestLimit < 0 {
		return fmt.Errorf("config: negative occupancy limit")
	}
	for _, rc := range []struct {
		name string
		role RoleConfig
	}{
		{"worker", c.Colony.Defaults.Worker},
		{"queen", c.Colony.Defaults.Queen},
		{"brood", c.Colony.Defaults.Brood},
	} {
		if rc.role.MaxEnergy <= 0 {
			return fmt.Errorf("config: colony.defaults.%s.max_energy must be positive", rc.name)
		}
		if rc.role.InitialEnergy < 0 || rc.role.InitialEnergy > rc.role.MaxEnergy {
			return fmt.Errorf("config: colony.defaults.%s.initial_energy out of range", rc.name)
		}
		if err := validateFraction("colony.defaults."+rc.name+".hunger_level", rc.role.HungerLevel); err != nil {
			return err
		}
		if _, ok := c.Behavior.Classes[rc.role.Class]; !ok {
			return fmt.Errorf("config: colony.defaults.%s.class %q has no behavior configuration", rc.name, rc.role.Class)
		}
	}
	for name, class := range c.Behavior.Classes {
		if len(class.Tasks) == 0 {
			return fmt.Errorf("config: behavior class %q has no tasks", name)
		}
		taskNames := make(map[string]bool, len(class.Tasks))
		for _, task := range class.Tasks {
			if task.Name == "" {
				return fmt.Errorf("config: behavior class %q has a task without a name", name)
			}
			if taskNames[task.Name] {
				return fmt.Errorf("config: behavior class %q has duplicate task %q", name, task.Name)
			}
			taskNames[task.Name] = true
			if task.MaxCycles < 0 {
				return fmt.Errorf("config: task %s.%s max_cycles negative", name, task.Name)
			}
		}
	}
	if c.Energy.EggInterval < 1 {
		return fmt.Errorf("config: energy.egg_interval must be at least 1")
	}
	if c.Energy.BroodStages < 1 || c.Energy.BroodStageTicks < 1 {
		return fmt.Errorf("config: brood development parameters must be at least 1")
	}
	if c.Telemetry.StatsWindow < 1 {
		return fmt.Errorf("config: telemetry.stats_window must be at least 1")
	}
	return nil
}

func validateFraction(name string, v float64) error {
	if v < 0 || v > 1 {
		return fmt.Errorf("config: %s = %g out of range [0, 1]", name, v)
	}
	return nil
}

// WriteYAML saves the configuration to a file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
