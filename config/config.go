// Package config provides configuration loading and access for the engine
// and its tools.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/bloom/flower"
	"github.com/pthm-cable/bloom/model3d"
	"github.com/pthm-cable/bloom/neural"
	"github.com/pthm-cable/bloom/renderer"
	"github.com/pthm-cable/bloom/stats"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all engine configuration parameters.
type Config struct {
	Phenotype     flower.Params              `yaml:"phenotype"`
	Mutation      MutationConfig             `yaml:"mutation"`
	Crossover     CrossoverConfig            `yaml:"crossover"`
	Compatibility neural.CompatibilityCoeffs `yaml:"compatibility"`
	Render        RenderConfig               `yaml:"render"`
	Model3D       model3d.Parameters         `yaml:"model3d"`
	Garden        GardenConfig               `yaml:"garden"`
	Telemetry     TelemetryConfig            `yaml:"telemetry"`
	Storage       StorageConfig              `yaml:"storage"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// MutationConfig holds the seven operator rates and the weight bounds.
type MutationConfig struct {
	Rates        neural.MutationRates `yaml:",inline"`
	PerturbSigma float64              `yaml:"perturb_sigma"` // std dev of weight noise
	MaxWeight    float64              `yaml:"max_weight"`    // absolute weight clamp
}

// CrossoverConfig holds crossover parameters.
type CrossoverConfig struct {
	WeakerDisjointProb float64 `yaml:"weaker_disjoint_prob"` // survival chance of the weaker parent's unmatched genes
}

// RenderConfig holds raster settings.
type RenderConfig struct {
	StemWidth      float64 `yaml:"stem_width"`
	Leaves         int     `yaml:"leaves"`
	LeafLength     float64 `yaml:"leaf_length"`
	AlphaThreshold uint8   `yaml:"alpha_threshold"` // opacity cutoff for coverage metrics
}

// GardenConfig holds the evolution loop parameters.
type GardenConfig struct {
	Population     int     `yaml:"population"`
	Generations    int     `yaml:"generations"`
	TournamentSize int     `yaml:"tournament_size"`
	Elite          int     `yaml:"elite"`            // best flowers copied unchanged
	CrossoverRate  float64 `yaml:"crossover_rate"`   // chance a child has two parents
	Seed           int64   `yaml:"seed"`             // 0 = time based
	Workers        int     `yaml:"workers"`          // 0 = NumCPU
	Humidity       float64 `yaml:"humidity"`         // [0, 1]
	Temperature    int     `yaml:"temperature"`      // degrees
	Altitude       int     `yaml:"altitude"`         // metres
	TerrainType    int     `yaml:"terrain_type"`     // free-form terrain code
	ContactSheet   bool    `yaml:"contact_sheet"`    // write a thumbnail grid of the final population
	ThumbnailSize  int     `yaml:"thumbnail_size"`   // contact sheet cell size in pixels
	StoreBestEvery int     `yaml:"store_best_every"` // persist the best genome every N generations, 0 = never
}

// Environment returns the garden climate.
func (g GardenConfig) Environment() stats.Environment {
	return stats.Environment{
		Humidity:    g.Humidity,
		Temperature: g.Temperature,
		Altitude:    g.Altitude,
		TerrainType: g.TerrainType,
	}
}

// TelemetryConfig holds output settings.
type TelemetryConfig struct {
	OutputDir   string `yaml:"output_dir"`   // empty disables CSV output
	LogInterval int    `yaml:"log_interval"` // generations between summary logs
}

// StorageConfig selects the genome store.
type StorageConfig struct {
	Kind string `yaml:"kind"` // memory or sqlite
	Path string `yaml:"path"` // sqlite database file
}

// DerivedConfig holds values computed from the loaded configuration.
type DerivedConfig struct {
	Workers         int
	MutationOptions neural.MutationOptions
	Crossover       neural.CrossoverOptions
	Render          renderer.Options
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from path (or embedded defaults if empty).
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

// Default returns the embedded defaults.
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
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()
	return cfg, nil
}

// Validate checks the sections the engine relies on.
func (c *Config) Validate() error {
	if err := c.Phenotype.Validate(); err != nil {
		return fmt.Errorf("phenotype: %w", err)
	}
	if err := c.Mutation.Rates.Validate(); err != nil {
		return fmt.Errorf("mutation: %w", err)
	}
	if c.Crossover.WeakerDisjointProb < 0 || c.Crossover.WeakerDisjointProb > 1 {
		return fmt.Errorf("crossover: weaker_disjoint_prob must be in [0, 1], got %v", c.Crossover.WeakerDisjointProb)
	}
	if err := c.Model3D.Validate(); err != nil {
		return fmt.Errorf("model3d: %w", err)
	}
	g := c.Garden
	switch {
	case g.Population < 2:
		return fmt.Errorf("garden: population must be at least 2, got %d", g.Population)
	case g.TournamentSize < 1:
		return fmt.Errorf("garden: tournament_size must be positive, got %d", g.TournamentSize)
	case g.Elite < 0 || g.Elite >= g.Population:
		return fmt.Errorf("garden: elite must be in [0, population), got %d", g.Elite)
	case g.Humidity < 0 || g.Humidity > 1:
		return fmt.Errorf("garden: humidity must be in [0, 1], got %v", g.Humidity)
	}
	switch c.Storage.Kind {
	case "", "memory", "sqlite":
	default:
		return fmt.Errorf("storage: unknown kind %q", c.Storage.Kind)
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.Workers = c.Garden.Workers
	if c.Derived.Workers <= 0 {
		c.Derived.Workers = runtime.NumCPU()
	}
	c.Derived.MutationOptions = neural.MutationOptions{
		PerturbSigma: c.Mutation.PerturbSigma,
		MaxWeight:    c.Mutation.MaxWeight,
	}
	c.Derived.Crossover = neural.CrossoverOptions{WeakerDisjointProb: c.Crossover.WeakerDisjointProb}
	c.Derived.Render = renderer.Options{
		StemWidth:  c.Render.StemWidth,
		Leaves:     c.Render.Leaves,
		LeafLength: c.Render.LeafLength,
	}
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
