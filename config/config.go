// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/phage/components"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Sim         SimConfig         `yaml:"sim"`
	Grid        GridConfig        `yaml:"grid"`
	Diffusion   DiffusionConfig   `yaml:"diffusion"`
	Pathfinding PathfindingConfig `yaml:"pathfinding"`
	Movement    MovementConfig    `yaml:"movement"`
	Units       []UnitKindConfig  `yaml:"units"`
	Level       LevelConfig       `yaml:"level"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// SimConfig holds the fixed-step loop parameters.
type SimConfig struct {
	DT   float64 `yaml:"dt"`   // seconds per tick
	Seed int64   `yaml:"seed"` // 0 = caller decides
}

// GridConfig holds the default grid dimensions.
type GridConfig struct {
	Cols     int     `yaml:"cols"`
	Rows     int     `yaml:"rows"`
	TileSize float64 `yaml:"tile_size"` // pixels per tile, for world positions
}

// DiffusionConfig holds substance spreading parameters.
type DiffusionConfig struct {
	Ordering         string          `yaml:"ordering"`          // snapshot | in_place
	Diagonal         bool            `yaml:"diagonal"`          // disperse into diagonal neighbours
	ConcentrationMin float64         `yaml:"concentration_min"` // below this nothing disperses; decay snaps to zero
	PaintAmount      float64         `yaml:"paint_amount"`      // default brush deposit
	Virus            SubstanceConfig `yaml:"virus"`
	Antibody         SubstanceConfig `yaml:"antibody"`
}

// SubstanceConfig holds the timers and rates for one substance.
type SubstanceConfig struct {
	DispersionPeriod time.Duration `yaml:"dispersion_period"`
	DispersionSpeed  float64       `yaml:"dispersion_speed"` // fraction withdrawn per dispersion
	Decays           bool          `yaml:"decays"`
	DecayPeriod      time.Duration `yaml:"decay_period"`
	DecaySpeed       float64       `yaml:"decay_speed"` // fraction withdrawn per decay
	JitterPeriod     time.Duration `yaml:"jitter_period"`
	JitterVariance   float64       `yaml:"jitter_variance"` // +/- fraction of the jitter period
}

// PathfindingConfig holds A* options.
type PathfindingConfig struct {
	Diagonal      bool   `yaml:"diagonal"`
	Heuristic     string `yaml:"heuristic"` // euclidean | manhattan | chebyshev | none
	CornerCutting bool   `yaml:"corner_cutting"`
}

// MovementConfig holds movement order timers.
type MovementConfig struct {
	RepathInterval time.Duration `yaml:"repath_interval"`
	BlockedRepath  time.Duration `yaml:"blocked_repath"`
	BlockedCancel  time.Duration `yaml:"blocked_cancel"`
}

// UnitKindConfig is one row of the unit-kind table.
type UnitKindConfig struct {
	Name             string        `yaml:"name"`
	Speed            float64       `yaml:"speed"`        // tiles per second
	SightRadius      float64       `yaml:"sight_radius"` // tiles; 0 = no flare
	PlayerControlled bool          `yaml:"player_controlled"`
	EatRate          float64       `yaml:"eat_rate"`       // virus consumed per second while idle
	InfectionRate    float64       `yaml:"infection_rate"` // infection gained per second per unit of virus
	SpawnPeriod      time.Duration `yaml:"spawn_period"`   // virus refill period
	SpawnAmount      float64       `yaml:"spawn_amount"`   // virus deposited per refill
}

// LevelConfig holds procedural level parameters.
type LevelConfig struct {
	NoiseScale    float64 `yaml:"noise_scale"`
	WallThreshold float64 `yaml:"wall_threshold"` // noise above this becomes wall
	Border        bool    `yaml:"border"`
	Macrophages   int     `yaml:"macrophages"`
	Civilians     int     `yaml:"civilians"`
	Infected      int     `yaml:"infected"`
}

// TelemetryConfig holds stats output parameters.
type TelemetryConfig struct {
	StatsWindow float64 `yaml:"stats_window"` // seconds per window
	PerfWindow  int     `yaml:"perf_window"`  // ticks in the perf rolling window
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	DT       time.Duration // Sim.DT as a duration
	KindByID map[string]components.Kind

	// Kinds is the unit table indexed by kind.
	Kinds [components.NumKinds]UnitKindConfig
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
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

// Default returns a fresh copy of the embedded defaults.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults invalid: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
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
		if err := Merge(cfg, data); err != nil {
			return nil, err
		}
	}

	if err := cfg.computeDerived(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Merge overlays YAML data onto cfg. Only fields present in data change;
// unit rows are matched by name so a file may tune a single field of a kind.
func Merge(cfg *Config, data []byte) error {
	base := cfg.Units
	if err := yaml.Unmarshal(data, cfg); err != nil {
		cfg.Units = base
		return fmt.Errorf("parsing config file: %w", err)
	}
	cfg.Units = base

	var rows struct {
		Units []yaml.Node `yaml:"units"`
	}
	if err := yaml.Unmarshal(data, &rows); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	for i := range rows.Units {
		var head struct {
			Name string `yaml:"name"`
		}
		if err := rows.Units[i].Decode(&head); err != nil {
			return fmt.Errorf("parsing unit row %d: %w", i, err)
		}
		if err := rows.Units[i].Decode(cfg.unitRow(head.Name)); err != nil {
			return fmt.Errorf("parsing unit %q: %w", head.Name, err)
		}
	}
	return nil
}

// unitRow returns the row named name, appending an empty one if needed.
func (c *Config) unitRow(name string) *UnitKindConfig {
	for i := range c.Units {
		if c.Units[i].Name == name {
			return &c.Units[i]
		}
	}
	c.Units = append(c.Units, UnitKindConfig{Name: name})
	return &c.Units[len(c.Units)-1]
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() error {
	if c.Sim.DT <= 0 {
		return fmt.Errorf("sim.dt must be positive, got %v", c.Sim.DT)
	}
	c.Derived.DT = time.Duration(c.Sim.DT * float64(time.Second))

	switch c.Diffusion.Ordering {
	case "", "snapshot":
		c.Diffusion.Ordering = "snapshot"
	case "in_place":
	default:
		return fmt.Errorf("unknown diffusion.ordering %q", c.Diffusion.Ordering)
	}

	switch c.Pathfinding.Heuristic {
	case "":
		c.Pathfinding.Heuristic = "euclidean"
	case "euclidean", "manhattan", "chebyshev", "none":
	default:
		return fmt.Errorf("unknown pathfinding.heuristic %q", c.Pathfinding.Heuristic)
	}

	c.Derived.KindByID = make(map[string]components.Kind, len(c.Units))
	var seen [components.NumKinds]bool
	for _, u := range c.Units {
		k, ok := components.ParseKind(u.Name)
		if !ok {
			return fmt.Errorf("unknown unit kind %q", u.Name)
		}
		c.Derived.Kinds[k] = u
		c.Derived.KindByID[u.Name] = k
		seen[k] = true
	}
	for k := components.Kind(0); k < components.NumKinds; k++ {
		if !seen[k] {
			return fmt.Errorf("unit kind %q missing from units table", k)
		}
	}
	return nil
}

// Kind returns the table row for kind k.
func (c *Config) Kind(k components.Kind) UnitKindConfig {
	return c.Derived.Kinds[k]
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
