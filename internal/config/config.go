package config

import (
	"os"

	"github.com/san-kum/couette/internal/automation"
	"github.com/san-kum/couette/internal/dynamo"
	"github.com/san-kum/couette/internal/physics"
	"github.com/san-kum/couette/internal/shooting"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gopkg.in/yaml.v3"
)

const (
	DefaultMachMin   = 0.0
	DefaultMachMax   = 10.0
	DefaultMachCount = 51
	DefaultOutputDir = "export"
)

type Config struct {
	Constants physics.Constants `yaml:"constants"`
	Mach      MachConfig        `yaml:"mach"`
	Solver    SolverConfig      `yaml:"solver"`
	Output    OutputConfig      `yaml:"output"`
}

// MachConfig describes the swept Mach numbers. A non-empty Values list
// takes precedence over the Min/Max/Count range.
type MachConfig struct {
	Min    float64   `yaml:"min"`
	Max    float64   `yaml:"max"`
	Count  int       `yaml:"count"`
	Values []float64 `yaml:"values,omitempty"`
}

type SolverConfig struct {
	Rtol                float64 `yaml:"rtol"`
	Atol                float64 `yaml:"atol"`
	Points              int     `yaml:"points"`
	BracketLower        float64 `yaml:"bracket_lower"`
	BracketOffset       float64 `yaml:"bracket_offset"`
	MaxExpansions       int     `yaml:"max_expansions"`
	MaxIter             int     `yaml:"max_iter"`
	Xtol                float64 `yaml:"xtol"`
	Ftol                float64 `yaml:"ftol"`
	CollapseTemperature float64 `yaml:"collapse_temperature"`
	Workers             int     `yaml:"workers"`
}

type OutputConfig struct {
	Dir string `yaml:"dir"`
	SVG bool   `yaml:"svg"`
}

func DefaultConfig() *Config {
	opts := shooting.DefaultOptions()
	return &Config{
		Constants: physics.DefaultConstants(),
		Mach: MachConfig{
			Min:   DefaultMachMin,
			Max:   DefaultMachMax,
			Count: DefaultMachCount,
		},
		Solver: SolverConfig{
			Rtol:                opts.Integrator.Rtol,
			Atol:                opts.Integrator.Atol,
			Points:              opts.Points,
			BracketLower:        opts.BracketLower,
			BracketOffset:       opts.BracketOffset,
			MaxExpansions:       opts.Roots.MaxExpansions,
			MaxIter:             opts.Roots.MaxIter,
			Xtol:                opts.Roots.Xtol,
			Ftol:                opts.Roots.Ftol,
			CollapseTemperature: opts.CollapseTemperature,
			Workers:             1,
		},
		Output: OutputConfig{Dir: DefaultOutputDir},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Numbers expands the Mach configuration into the ordered case sequence.
func (m MachConfig) Numbers() []float64 {
	if len(m.Values) > 0 {
		return append([]float64(nil), m.Values...)
	}
	switch {
	case m.Count <= 0:
		return nil
	case m.Count == 1:
		return []float64{m.Min}
	}
	return floats.Span(make([]float64, m.Count), m.Min, m.Max)
}

// SolverOptions converts the solver section to shooting options.
func (c *Config) SolverOptions() shooting.Options {
	opts := shooting.DefaultOptions()
	opts.Integrator.Rtol = c.Solver.Rtol
	opts.Integrator.Atol = c.Solver.Atol
	opts.Points = c.Solver.Points
	opts.BracketLower = c.Solver.BracketLower
	opts.BracketOffset = c.Solver.BracketOffset
	opts.Roots.MaxExpansions = c.Solver.MaxExpansions
	opts.Roots.MaxIter = c.Solver.MaxIter
	opts.Roots.Xtol = c.Solver.Xtol
	opts.Roots.Ftol = c.Solver.Ftol
	opts.CollapseTemperature = c.Solver.CollapseTemperature
	return opts
}

// SweepOptions bundles the solver options with the worker count.
func (c *Config) SweepOptions(log logrus.FieldLogger) automation.Options {
	return automation.Options{
		Solver:  c.SolverOptions(),
		Logger:  log,
		Workers: c.Solver.Workers,
	}
}

// Validate reports the first configuration error; it matches
// dynamo.ErrInvalidConfig.
func (c *Config) Validate() error {
	if err := c.Constants.Validate(); err != nil {
		return err
	}
	if len(c.Mach.Values) == 0 && c.Mach.Max < c.Mach.Min {
		return dynamo.InvalidConfigf("mach range max %g below min %g", c.Mach.Max, c.Mach.Min)
	}
	if err := automation.ValidateMachs(c.Mach.Numbers()); err != nil {
		return err
	}

	s := c.Solver
	switch {
	case s.Rtol <= 0 || s.Atol <= 0:
		return dynamo.InvalidConfigf("rtol and atol must be positive")
	case s.Points < 2:
		return dynamo.InvalidConfigf("points must be at least 2, got %d", s.Points)
	case s.BracketLower <= 0:
		return dynamo.InvalidConfigf("bracket_lower must be positive, got %g", s.BracketLower)
	case s.BracketOffset <= 0:
		return dynamo.InvalidConfigf("bracket_offset must be positive, got %g", s.BracketOffset)
	case s.MaxExpansions < 0:
		return dynamo.InvalidConfigf("max_expansions must not be negative")
	case s.MaxIter <= 0:
		return dynamo.InvalidConfigf("max_iter must be positive, got %d", s.MaxIter)
	case s.Xtol <= 0:
		return dynamo.InvalidConfigf("xtol must be positive, got %g", s.Xtol)
	case s.Ftol < 0:
		return dynamo.InvalidConfigf("ftol must not be negative, got %g", s.Ftol)
	case s.Workers < 0:
		return dynamo.InvalidConfigf("workers must not be negative, got %d", s.Workers)
	case s.CollapseTemperature <= 0:
		return dynamo.InvalidConfigf("collapse_temperature must be positive, got %g", s.CollapseTemperature)
	}
	return nil
}
