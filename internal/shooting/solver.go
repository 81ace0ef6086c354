package shooting

import (
	"fmt"

	"github.com/san-kum/couette/internal/dynamo"
	"github.com/san-kum/couette/internal/integrators"
	"github.com/san-kum/couette/internal/physics"
	"github.com/san-kum/couette/internal/roots"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
)

const (
	DefaultPoints        = 3001
	DefaultBracketLower  = 0.1
	DefaultBracketOffset = 1.0

	// DefaultCollapseTemperature ends a residual integration once the
	// temperature has fallen this far. Along a trajectory
	// T = T_r - (gamma-1)/2 Pr M^2 U0^2, so U0 is already past 1 there.
	DefaultCollapseTemperature = 1e-2
)

type Options struct {
	Integrator          integrators.Options
	Roots               roots.Options
	Points              int
	BracketLower        float64
	BracketOffset       float64
	CollapseTemperature float64

	// OnPhase, if set, observes every phase transition.
	OnPhase func(c Case, p dynamo.Phase)
}

func DefaultOptions() Options {
	return Options{
		Integrator:          integrators.DefaultOptions(),
		Roots:               roots.DefaultOptions(),
		Points:              DefaultPoints,
		BracketLower:        DefaultBracketLower,
		BracketOffset:       DefaultBracketOffset,
		CollapseTemperature: DefaultCollapseTemperature,
	}
}

// Case is one Mach number of a sweep.
type Case struct {
	Index int
	Mach  float64
}

// Diagnostics describe how a case converged.
type Diagnostics struct {
	Iterations    int
	FunctionCalls int
	Expansions    int
	Lower, Upper  float64
	Flag          string
	Steps         int
	Rejected      int
	Evaluations   int
}

// Profile is the converged solution of one case sampled on the height grid.
type Profile struct {
	Case
	Tau float64
	Y   []float64
	U0  []float64
	T   []float64
	Eta []float64

	// RawTopTemperature is T(1) before the boundary shift.
	RawTopTemperature float64
	Diagnostics       Diagnostics
}

type Solver struct {
	constants physics.Constants
	opts      Options
	integ     *integrators.RK45
	log       logrus.FieldLogger
	phase     dynamo.Phase
}

func NewSolver(c physics.Constants, opts Options) *Solver {
	return &Solver{
		constants: c,
		opts:      opts,
		integ:     integrators.NewRK45(opts.Integrator),
		log:       logrus.StandardLogger(),
	}
}

func (s *Solver) WithLogger(l logrus.FieldLogger) *Solver {
	s.log = l
	return s
}

func (s *Solver) Constants() physics.Constants {
	return s.constants
}

// Phase returns the phase reached by the most recent Solve.
func (s *Solver) Phase() dynamo.Phase {
	return s.phase
}

func (s *Solver) enter(c Case, p dynamo.Phase) {
	s.phase = p
	if s.opts.OnPhase != nil {
		s.opts.OnPhase(c, p)
	}
	if p.Terminal() {
		s.log.WithFields(logrus.Fields{"mach": c.Mach, "phase": p}).Debug("case finished")
	}
}

// Bracket returns the initial tau bracket and guess for a Mach number.
func (s *Solver) Bracket(mach float64) (lo, hi, guess float64) {
	return s.opts.BracketLower, mach + s.opts.BracketOffset, 1 + mach/2
}

// Shoot integrates the profile model at the trial tau and returns U0(1)-1.
// If the temperature collapses before y=1 the integration stops there and
// the returned value is U0 at that height minus 1, which is positive.
func (s *Solver) Shoot(mach, tau float64) (float64, error) {
	model := physics.NewCouette(s.constants, mach, tau)

	collapse := s.opts.CollapseTemperature
	stop := func(_ float64, x dynamo.State) bool { return x[1] < collapse }

	sol, err := s.integ.SolveUntil(model, 0, 1, model.InitialState(), stop)
	if err != nil {
		return 0, fmt.Errorf("shoot tau=%g: %w", tau, err)
	}
	if sol.Stopped {
		return sol.Final()[0] - 1, nil
	}
	return sol.Eval(1)[0] - 1, nil
}

// Solve runs the full shooting method for one case.
func (s *Solver) Solve(c Case) (*Profile, error) {
	s.enter(c, dynamo.PhaseInitialized)

	residual := func(tau float64) (float64, error) {
		return s.Shoot(c.Mach, tau)
	}

	lo, hi, guess := s.Bracket(c.Mach)
	s.enter(c, dynamo.PhaseEvaluating)
	res, err := roots.Find(residual, lo, hi, guess, s.opts.Roots)
	if err != nil {
		s.enter(c, dynamo.PhaseFailed)
		return nil, &dynamo.CaseError{Index: c.Index, Mach: c.Mach, Flag: res.Flag, Wrapped: err}
	}
	s.enter(c, dynamo.PhaseConverged)

	s.log.WithFields(logrus.Fields{
		"mach":       c.Mach,
		"tau":        fmt.Sprintf("%.6f", res.Root),
		"iterations": res.Iterations,
		"calls":      res.FunctionCalls,
		"expansions": res.Expansions,
	}).Info("root found")

	s.enter(c, dynamo.PhaseFinalIntegration)
	p, err := s.integrate(c, res.Root)
	if err != nil {
		s.enter(c, dynamo.PhaseFailed)
		return nil, &dynamo.CaseError{Index: c.Index, Mach: c.Mach, Flag: "integration error", Wrapped: err}
	}
	p.Diagnostics.Iterations = res.Iterations
	p.Diagnostics.FunctionCalls = res.FunctionCalls
	p.Diagnostics.Expansions = res.Expansions
	p.Diagnostics.Lower, p.Diagnostics.Upper = res.Lower, res.Upper
	p.Diagnostics.Flag = res.Flag

	s.enter(c, dynamo.PhaseDone)
	return p, nil
}

// integrate samples the profile at tau and applies the boundary shift
// T += 1 - T(1), so the top temperature is exactly 1.
func (s *Solver) integrate(c Case, tau float64) (*Profile, error) {
	model := physics.NewCouette(s.constants, c.Mach, tau)
	sol, err := s.integ.Solve(model, 0, 1, model.InitialState())
	if err != nil {
		return nil, err
	}

	y := Grid(s.opts.Points)
	series := sol.Sample(y)
	u0, temp := series[0], series[1]

	last := len(temp) - 1
	top := temp[last]
	floats.AddConst(1-top, temp)
	temp[last] = 1

	eta := make([]float64, len(temp))
	for i, t := range temp {
		eta[i] = s.constants.Viscosity(t)
	}

	return &Profile{
		Case:              c,
		Tau:               tau,
		Y:                 y,
		U0:                u0,
		T:                 temp,
		Eta:               eta,
		RawTopTemperature: top,
		Diagnostics: Diagnostics{
			Steps:       sol.Stats.Steps,
			Rejected:    sol.Stats.Rejected,
			Evaluations: sol.Stats.Evaluations,
		},
	}, nil
}

// Grid returns n evenly spaced heights on [0, 1] with exact endpoints.
func Grid(n int) []float64 {
	if n < 2 {
		return []float64{0}
	}
	y := floats.Span(make([]float64, n), 0, 1)
	y[0], y[n-1] = 0, 1
	return y
}
