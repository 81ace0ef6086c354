package automation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"time"

	"github.com/san-kum/couette/internal/dynamo"
	"github.com/san-kum/couette/internal/physics"
	"github.com/san-kum/couette/internal/shooting"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Options configure a sweep. A nil Logger uses the logrus standard logger.
// Workers above 1 solve cases concurrently; Solver.OnPhase must then be
// safe for concurrent use.
type Options struct {
	Solver  shooting.Options
	Logger  logrus.FieldLogger
	Workers int
}

func DefaultOptions() Options {
	return Options{Solver: shooting.DefaultOptions()}
}

// Result is the aggregate of a sweep: converged profiles keyed by case
// index plus the cases that failed.
type Result struct {
	Constants physics.Constants
	Machs     []float64
	Profiles  map[int]*shooting.Profile
	Failures  []*dynamo.CaseError
	Elapsed   time.Duration
}

// Indices returns the converged case indices in order.
func (r *Result) Indices() []int {
	idx := make([]int, 0, len(r.Profiles))
	for i := range r.Profiles {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	return idx
}

func (r *Result) Converged() int { return len(r.Profiles) }
func (r *Result) Failed() int    { return len(r.Failures) }

// ValidateMachs rejects an empty sequence and negative or non-finite entries.
func ValidateMachs(machs []float64) error {
	if len(machs) == 0 {
		return dynamo.InvalidConfigf("empty Mach-number sequence")
	}
	for i, m := range machs {
		if math.IsNaN(m) || math.IsInf(m, 0) || m < 0 {
			return dynamo.InvalidConfigf("Mach number %d is %g", i, m)
		}
	}
	return nil
}

func validateSolver(o shooting.Options) error {
	switch {
	case o.Points < 2:
		return dynamo.InvalidConfigf("grid needs at least 2 points, got %d", o.Points)
	case o.Integrator.Rtol <= 0 || o.Integrator.Atol <= 0:
		return dynamo.InvalidConfigf("integrator tolerances must be positive")
	case o.BracketLower <= 0 || o.BracketOffset <= 0:
		return dynamo.InvalidConfigf("bracket bounds must be positive")
	case o.Roots.MaxIter <= 0:
		return dynamo.InvalidConfigf("root finder needs a positive iteration cap")
	case o.Roots.MaxExpansions < 0:
		return dynamo.InvalidConfigf("negative bracket expansion budget")
	case o.Roots.Ftol < 0:
		return dynamo.InvalidConfigf("negative residual tolerance")
	}
	return nil
}

func validateOptions(o Options) error {
	if o.Workers < 0 {
		return dynamo.InvalidConfigf("negative worker count %d", o.Workers)
	}
	return validateSolver(o.Solver)
}

// RunSweep solves every Mach number in order. Configuration errors are
// returned before any case runs; a failing case is recorded and skipped.
// Cancelling ctx stops the sweep between cases and returns what was done.
func RunSweep(ctx context.Context, c physics.Constants, machs []float64, opts Options) (*Result, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := ValidateMachs(machs); err != nil {
		return nil, err
	}
	if err := validateOptions(opts); err != nil {
		return nil, err
	}

	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	if opts.Workers > 1 {
		return runParallel(ctx, c, machs, opts, log)
	}

	solver := shooting.NewSolver(c, opts.Solver).WithLogger(log)
	result := &Result{
		Constants: c,
		Machs:     append([]float64(nil), machs...),
		Profiles:  make(map[int]*shooting.Profile, len(machs)),
	}

	start := time.Now()
	defer func() { result.Elapsed = time.Since(start) }()

	for i, m := range machs {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("sweep stopped before case %d: %w", i, err)
		}

		p, ce := solveCase(solver, shooting.Case{Index: i, Mach: m}, log)
		if ce != nil {
			result.Failures = append(result.Failures, ce)
			continue
		}
		result.Profiles[i] = p
	}

	logFinished(log, result, time.Since(start))

	return result, nil
}

// solveCase runs one case and converts any failure into a CaseError.
func solveCase(solver *shooting.Solver, c shooting.Case, log logrus.FieldLogger) (*shooting.Profile, *dynamo.CaseError) {
	log.WithField("mach", fmt.Sprintf("%.2f", c.Mach)).Info("calculating mach")

	p, err := solver.Solve(c)
	if err == nil {
		return p, nil
	}

	var ce *dynamo.CaseError
	if !errors.As(err, &ce) {
		ce = &dynamo.CaseError{Index: c.Index, Mach: c.Mach, Wrapped: err}
	}
	log.WithFields(logrus.Fields{
		"mach":  c.Mach,
		"flag":  ce.Flag,
		"error": ce.Wrapped,
	}).Warn("case failed")
	return nil, ce
}

func logFinished(log logrus.FieldLogger, r *Result, elapsed time.Duration) {
	log.WithFields(logrus.Fields{
		"converged": r.Converged(),
		"failed":    r.Failed(),
		"elapsed":   elapsed.Round(time.Millisecond),
	}).Info("sweep finished")
}

// Scenario is a scripted sequence of sweeps, e.g. the same Mach range
// under several gases.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

type ScenarioStep struct {
	Name      string            `yaml:"name"`
	Constants physics.Constants `yaml:"constants"`
	Machs     []float64         `yaml:"machs"`
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}

	return &scenario, nil
}

// RunScenario executes all steps in a scenario. Every step is validated
// before the first one runs.
func RunScenario(ctx context.Context, scenario *Scenario, opts Options) ([]*Result, error) {
	if len(scenario.Steps) == 0 {
		return nil, dynamo.InvalidConfigf("scenario %q has no steps", scenario.Name)
	}
	for i, step := range scenario.Steps {
		if err := step.Constants.Validate(); err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
		if err := ValidateMachs(step.Machs); err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
	}

	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	results := make([]*Result, 0, len(scenario.Steps))
	for i, step := range scenario.Steps {
		log.WithFields(logrus.Fields{
			"step":  fmt.Sprintf("%d/%d", i+1, len(scenario.Steps)),
			"name":  step.Name,
			"cases": len(step.Machs),
		}).Info("running scenario step")

		result, err := RunSweep(ctx, step.Constants, step.Machs, opts)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		results = append(results, result)
	}

	return results, nil
}
