package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.World.Width < 4 || cfg.World.Height < 4 {
		t.Fatalf("world = %+v", cfg.World)
	}
	if len(cfg.Behavior.Classes) == 0 {
		t.Fatal("no behavior classes in defaults")
	}
	for _, role := range []RoleConfig{
		cfg.Colony.Defaults.Worker,
		cfg.Colony.Defaults.Queen,
		cfg.Colony.Defaults.Brood,
	} {
		if _, ok := cfg.Behavior.Classes[role.Class]; !ok {
			t.Fatalf("role class %q has no behavior configuration", role.Class)
		}
	}
}

func TestDerivedNamesSorted(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i < len(cfg.Derived.PheromoneTypeNames); i++ {
		if cfg.Derived.PheromoneTypeNames[i-1] >= cfg.Derived.PheromoneTypeNames[i] {
			t.Fatalf("pheromone names not sorted: %v", cfg.Derived.PheromoneTypeNames)
		}
	}
	for i := 1; i < len(cfg.Derived.ClassNames); i++ {
		if cfg.Derived.ClassNames[i-1] >= cfg.Derived.ClassNames[i] {
			t.Fatalf("class names not sorted: %v", cfg.Derived.ClassNames)
		}
	}
}

func TestUserFileOverridesSubset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	doc := "world:\n  width: 32\ncolony:\n  workers: 3\n"
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.World.Width != 32 {
		t.Fatalf("width = %d, want override", cfg.World.Width)
	}
	if cfg.Colony.Workers != 3 {
		t.Fatalf("workers = %d, want override", cfg.Colony.Workers)
	}
	// Untouched fields keep their defaults.
	if cfg.World.Height != 80 {
		t.Fatalf("height = %d, want default", cfg.World.Height)
	}
	if cfg.Colony.Queens != 1 {
		t.Fatalf("queens = %d, want default", cfg.Colony.Queens)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{
			name:   "tiny world",
			mutate: func(c *Config) { c.World.Width = 2 },
			want:   "too small",
		},
		{
			name: "evaporation out of range",
			mutate: func(c *Config) {
				c.Pheromones.Types[0].Evaporation = 1.5
			},
			want: "out of range",
		},
		{
			name: "duplicate pheromone type",
			mutate: func(c *Config) {
				c.Pheromones.Types = append(c.Pheromones.Types, c.Pheromones.Types[0])
			},
			want: "duplicate pheromone type",
		},
		{
			name: "role class without behavior",
			mutate: func(c *Config) {
				c.Colony.Defaults.Worker.Class = "ghost"
			},
			want: "no behavior configuration",
		},
		{
			name: "class without tasks",
			mutate: func(c *Config) {
				c.Behavior.Classes["empty"] = ClassConfig{}
			},
			want: "has no tasks",
		},
		{
			name: "duplicate task name",
			mutate: func(c *Config) {
				class := c.Behavior.Classes["queen"]
				class.Tasks = append(class.Tasks, class.Tasks[0])
				c.Behavior.Classes["queen"] = class
			},
			want: "duplicate task",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := Load("")
			if err != nil {
				t.Fatal(err)
			}
			tc.mutate(cfg)
			err = cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("err = %v, want %q", err, tc.want)
			}
		})
	}
}
