// Package config loads the YAML description of a field simulation.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"go.uber.org/multierr"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"hichi/spectral"
)

// ErrInvalid is wrapped by every error returned from Validate.
var ErrInvalid = errors.New("config: invalid")

// Environment variables that override file values.
const (
	EnvLightSpeed = "HICHI_LIGHT_SPEED"
	EnvWorkers    = "HICHI_WORKERS"
	EnvLogLevel   = "HICHI_LOG_LEVEL"
)

// Config is the top-level configuration.
type Config struct {
	Physics PhysicsConfig `yaml:"physics"`
	Solver  SolverConfig  `yaml:"solver"`
	Logging LoggingConfig `yaml:"logging"`
	Grids   []GridConfig  `yaml:"grids"`
}

// PhysicsConfig holds physical constants.
type PhysicsConfig struct {
	LightSpeed float64 `yaml:"light_speed"`
}

// SolverConfig tunes the spectral solvers.
type SolverConfig struct {
	Workers int `yaml:"workers"` // 0 = GOMAXPROCS
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level       string `yaml:"level"` // debug, info, warn, error
	Development bool   `yaml:"development"`
}

// GridConfig describes one grid.
type GridConfig struct {
	Name     string     `yaml:"name"`
	Scheme   string     `yaml:"scheme"` // psatd, pstd, psatd-staggered
	Size     [3]int     `yaml:"size"`
	Min      [3]float64 `yaml:"min"`
	Max      [3]float64 `yaml:"max"`
	TimeStep float64    `yaml:"time_step"`
	// Poisson requests a divergence correction of the initial fields.
	Poisson bool `yaml:"poisson"`
}

// DefaultConfig returns a configuration with CGS light speed, one worker
// per CPU and info logging. It has no grids.
func DefaultConfig() *Config {
	return &Config{
		Physics: PhysicsConfig{LightSpeed: spectral.LightSpeedCGS},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads configuration from a YAML file and applies environment
// overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to a YAML file, creating parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv(EnvLightSpeed); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvLightSpeed, err)
		}
		c.Physics.LightSpeed = f
	}
	if v := os.Getenv(EnvWorkers); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvWorkers, err)
		}
		c.Solver.Workers = n
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
	return nil
}

// Validate reports every problem found in the configuration. Each one
// wraps ErrInvalid.
func (c *Config) Validate() error {
	var err error
	if !(c.Physics.LightSpeed > 0) {
		err = multierr.Append(err, invalid("physics.light_speed", "must be positive, got %g", c.Physics.LightSpeed))
	}
	if c.Solver.Workers < 0 {
		err = multierr.Append(err, invalid("solver.workers", "must not be negative, got %d", c.Solver.Workers))
	}
	if _, lerr := zapcore.ParseLevel(c.Logging.Level); lerr != nil {
		err = multierr.Append(err, invalid("logging.level", "%v", lerr))
	}

	seen := make(map[string]bool, len(c.Grids))
	for i, g := range c.Grids {
		prefix := fmt.Sprintf("grids[%d]", i)
		if g.Name != "" {
			prefix = fmt.Sprintf("grids[%s]", g.Name)
			if seen[g.Name] {
				err = multierr.Append(err, invalid(prefix, "duplicate name"))
			}
			seen[g.Name] = true
		}
		err = multierr.Append(err, g.validate(prefix))
	}
	return err
}

func (g GridConfig) validate(prefix string) error {
	var err error
	if _, serr := spectral.ParseScheme(g.Scheme); serr != nil {
		err = multierr.Append(err, invalid(prefix+".scheme", "%v", serr))
	}
	for a := 0; a < 3; a++ {
		if g.Size[a] < 1 {
			err = multierr.Append(err, invalid(prefix+".size", "axis %d has %d cells", a, g.Size[a]))
		}
		if !(g.Max[a] > g.Min[a]) {
			err = multierr.Append(err, invalid(prefix+".max", "axis %d: max %g not above min %g", a, g.Max[a], g.Min[a]))
		}
	}
	if !(g.TimeStep > 0) {
		err = multierr.Append(err, invalid(prefix+".time_step", "must be positive, got %g", g.TimeStep))
	}
	return err
}

func invalid(field, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalid, field, fmt.Sprintf(format, args...))
}

// Grid returns the grid configuration with the given name.
func (c *Config) Grid(name string) (GridConfig, bool) {
	for _, g := range c.Grids {
		if g.Name == name {
			return g, true
		}
	}
	return GridConfig{}, false
}
