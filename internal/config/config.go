// Package config loads the YAML run configuration.
package config

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"rrt-planner/internal/geometry"
	"rrt-planner/internal/planner"
	"rrt-planner/internal/space"
)

// MaxRandomObstacles caps how many random obstacles a run may ask for.
const MaxRandomObstacles = 10000

// SpaceConfig describes the search domain and where its obstacles come from.
type SpaceConfig struct {
	Bounds          space.Bounds `yaml:"bounds"`
	Obstacles       [][]float64  `yaml:"obstacles,omitempty"`
	ObstaclesFile   string       `yaml:"obstacles_file,omitempty"`
	RandomObstacles int          `yaml:"random_obstacles"`
}

// PlannerConfig holds the tuning knobs of a run.
type PlannerConfig struct {
	MaxSamples        int                 `yaml:"max_samples"`
	Resolution        float64             `yaml:"resolution"`
	GoalProbability   float64             `yaml:"goal_probability"`
	Schedule          []planner.Extension `yaml:"schedule"`
	MaxSampleAttempts int                 `yaml:"max_sample_attempts"`
}

// OutputConfig selects the artifacts written after a run. Empty paths are skipped.
type OutputConfig struct {
	Image   string `yaml:"image,omitempty"`
	GeoJSON string `yaml:"geojson,omitempty"`
	Width   int    `yaml:"width"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr        string `yaml:"addr"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// AppConfig is the root configuration.
type AppConfig struct {
	Space    SpaceConfig   `yaml:"space"`
	Start    []float64     `yaml:"start"`
	Goal     []float64     `yaml:"goal"`
	Planner  PlannerConfig `yaml:"planner"`
	Seed     int64         `yaml:"seed"`
	Output   OutputConfig  `yaml:"output"`
	Server   ServerConfig  `yaml:"server"`
	LogLevel string        `yaml:"log_level"`
}

// Load reads a config from path. A missing file yields the defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, errors.Wrap(err, "failed to read config")
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", path)
	}
	applyDefaults(cfg)
	return cfg, nil
}

// Save writes cfg to path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Default mirrors the reference run: a 100x100 square with 50 random
// obstacles, planning from (0,0) to (90,80).
func Default() *AppConfig {
	return &AppConfig{
		Space: SpaceConfig{
			Bounds:          space.Bounds{{Min: 0, Max: 100}, {Min: 0, Max: 100}},
			RandomObstacles: 50,
		},
		Start: []float64{0, 0},
		Goal:  []float64{90, 80},
		Planner: PlannerConfig{
			MaxSamples:        planner.DefaultMaxSamples,
			Resolution:        planner.DefaultResolution,
			GoalProbability:   planner.DefaultGoalProbability,
			Schedule:          planner.DefaultSchedule(),
			MaxSampleAttempts: space.DefaultMaxSampleAttempts,
		},
		Output: OutputConfig{
			Image: filepath.Join("output", "rrt_2d_with_50_obstacles.png"),
			Width: 800,
		},
		Server:   ServerConfig{Addr: ":8080", TimeoutSecs: 30},
		LogLevel: "info",
	}
}

// applyDefaults fills zero values a partial file left behind.
func applyDefaults(cfg *AppConfig) {
	def := Default()
	if cfg.Planner.MaxSamples == 0 {
		cfg.Planner.MaxSamples = def.Planner.MaxSamples
	}
	if cfg.Planner.Resolution == 0 {
		cfg.Planner.Resolution = def.Planner.Resolution
	}
	if len(cfg.Planner.Schedule) == 0 {
		cfg.Planner.Schedule = def.Planner.Schedule
	}
	if cfg.Planner.MaxSampleAttempts == 0 {
		cfg.Planner.MaxSampleAttempts = def.Planner.MaxSampleAttempts
	}
	if cfg.Output.Width == 0 {
		cfg.Output.Width = def.Output.Width
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = def.Server.Addr
	}
	if cfg.Server.TimeoutSecs == 0 {
		cfg.Server.TimeoutSecs = def.Server.TimeoutSecs
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = def.LogLevel
	}
}

// Validate checks the shape of the configuration. Semantic checks such as
// min < max happen when the space and planner are built.
func (c *AppConfig) Validate() error {
	var err error
	dim := len(c.Space.Bounds)
	if dim < 2 {
		err = multierr.Append(err, errors.Wrapf(space.ErrTooFewDimensions, "config has %d bounds", dim))
	}
	if len(c.Start) != dim {
		err = multierr.Append(err, errors.Errorf("start has %d coordinates, bounds have %d", len(c.Start), dim))
	}
	if len(c.Goal) != dim {
		err = multierr.Append(err, errors.Errorf("goal has %d coordinates, bounds have %d", len(c.Goal), dim))
	}
	for i, o := range c.Space.Obstacles {
		if len(o) != 2*dim {
			err = multierr.Append(err, errors.Errorf("obstacle %d has %d values, want %d", i, len(o), 2*dim))
		}
	}
	if n := c.Space.RandomObstacles; n < 0 || n > MaxRandomObstacles {
		err = multierr.Append(err, errors.Errorf("random_obstacles must be in [0, %d], got %d", MaxRandomObstacles, n))
	}
	if c.Output.Width <= 0 {
		err = multierr.Append(err, errors.New("output width must be positive"))
	}
	return err
}

// Obstacles converts the flat obstacle lists into boxes.
func (c *AppConfig) Obstacles() ([]geometry.Box, error) {
	boxes := make([]geometry.Box, 0, len(c.Space.Obstacles))
	for i, o := range c.Space.Obstacles {
		b, err := geometry.BoxFromSlice(o)
		if err != nil {
			return nil, errors.Wrapf(err, "obstacle %d", i)
		}
		boxes = append(boxes, b)
	}
	return boxes, nil
}

// PlannerOptions translates the tuning section into planner options.
func (c *AppConfig) PlannerOptions() []planner.Option {
	return []planner.Option{
		planner.WithMaxSamples(c.Planner.MaxSamples),
		planner.WithResolution(c.Planner.Resolution),
		planner.WithGoalProbability(c.Planner.GoalProbability),
		planner.WithSchedule(c.Planner.Schedule),
	}
}
