// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	World     WorldConfig     `yaml:"world"`
	Grid      GridConfig      `yaml:"grid"`
	Mutation  MutationConfig  `yaml:"mutation"`
	Food      FoodConfig      `yaml:"food"`
	Physics   PhysicsConfig   `yaml:"physics"`
	Solar     SolarConfig     `yaml:"solar"`
	Species   SpeciesConfig   `yaml:"species"`
	Colony    ColonyConfig    `yaml:"colony"`
	Alliance  AllianceConfig  `yaml:"alliance"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading.
	Derived DerivedConfig `yaml:"-"`
}

// WorldConfig holds world sizing and population capacity.
type WorldConfig struct {
	Size     float64 `yaml:"size"`
	Capacity int     `yaml:"capacity"`
}

// GridConfig holds spatial index parameters.
type GridConfig struct {
	Resolution int `yaml:"resolution"`
}

// MutationConfig holds the global genome mutation multiplier.
type MutationConfig struct {
	Rate float64 `yaml:"rate"`
}

// FoodConfig holds solar-energy-gain scaling.
type FoodConfig struct {
	Abundance float64 `yaml:"abundance"`
}

// PhysicsConfig holds movement integration parameters.
type PhysicsConfig struct {
	Friction float64 `yaml:"friction"`
}

// SolarConfig holds the global solar sampling multiplier.
type SolarConfig struct {
	Constant float64 `yaml:"constant"`
}

// SpeciesConfig holds species-identification pass cadence and the
// normalized-distance compatibility threshold.
type SpeciesConfig struct {
	IntervalTicks int     `yaml:"interval_ticks"`
	Threshold     float64 `yaml:"threshold"`
}

// ColonyConfig holds colony-formation pass cadence and density thresholds.
// Dense* fields apply once active population exceeds DensePopulationGate,
// tightening the clustering criteria to keep the pass affordable at scale.
type ColonyConfig struct {
	IntervalTicks       int     `yaml:"interval_ticks"`
	DensityThreshold    int     `yaml:"density_threshold"`
	SearchRadius        float64 `yaml:"search_radius"`
	DenseDensity        int     `yaml:"dense_density_threshold"`
	DenseSearchRadius   float64 `yaml:"dense_search_radius"`
	DensePopulationGate int     `yaml:"dense_population_gate"`
	FusionCooldown      float64 `yaml:"fusion_cooldown"`
}

// AllianceConfig holds alliance-maintenance pass cadence.
type AllianceConfig struct {
	IntervalTicks int `yaml:"interval_ticks"`
}

// TelemetryConfig holds analytics ring buffer sizing.
type TelemetryConfig struct {
	RingBufferSize int `yaml:"ring_buffer_size"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	FrictionF32 float32 // Physics.Friction as float32
	SolarF32    float32 // Solar.Constant as float32
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

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
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

	// Compute derived values
	cfg.computeDerived()

	return cfg, nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.FrictionF32 = float32(c.Physics.Friction)
	c.Derived.SolarF32 = float32(c.Solar.Constant)
}

// WriteYAML saves cfg to path, for dumping the effective configuration
// alongside a run's output.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config file %s: %w", path, err)
	}
	return nil
}

// Clone returns an independent copy safe to hand to a new Engine instance.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
