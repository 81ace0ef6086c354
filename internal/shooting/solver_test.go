package shooting

import (
	"errors"
	"io"
	"testing"

	"github.com/san-kum/couette/internal/dynamo"
	"github.com/san-kum/couette/internal/physics"
	"github.com/san-kum/couette/internal/roots"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietSolver(opts Options) *Solver {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return NewSolver(physics.DefaultConstants(), opts).WithLogger(l)
}

func TestSolve_ZeroMachIsLinear(t *testing.T) {
	p, err := quietSolver(DefaultOptions()).Solve(Case{Mach: 0})
	require.NoError(t, err)

	assert.InDelta(t, 1.0, p.Tau, 1e-6)
	require.Len(t, p.T, DefaultPoints)
	for i, temp := range p.T {
		assert.InDelta(t, 1.0, temp, 1e-3)
		assert.InDelta(t, p.Y[i], p.U0[i], 1e-6)
	}
}

func TestSolve_ZeroMachFixedBracket(t *testing.T) {
	opts := DefaultOptions()
	opts.Roots.MaxExpansions = 0

	p, err := quietSolver(opts).Solve(Case{Mach: 0})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, p.Tau, 1e-9)
	assert.Equal(t, 0, p.Diagnostics.Expansions)
	assert.Equal(t, roots.FlagConverged, p.Diagnostics.Flag)
}

func TestSolve_MachOne(t *testing.T) {
	s := quietSolver(DefaultOptions())
	p, err := s.Solve(Case{Index: 10, Mach: 1})
	require.NoError(t, err)

	assert.Equal(t, 10, p.Index)
	assert.Greater(t, p.Tau, 1.0)
	assert.Less(t, p.Tau, 2.0)

	require.Len(t, p.Y, DefaultPoints)
	require.Len(t, p.U0, DefaultPoints)
	require.Len(t, p.Eta, DefaultPoints)
	assert.Equal(t, 0.0, p.Y[0])
	assert.Equal(t, 1.0, p.Y[DefaultPoints-1])

	assert.Equal(t, 0.0, p.U0[0])
	assert.InDelta(t, 1.0, p.U0[DefaultPoints-1], 1e-3)
	assert.Equal(t, 1.0, p.T[DefaultPoints-1])

	tr := s.Constants().RecoveryTemperature(1)
	assert.InDelta(t, 1.144, tr, 1e-12)
	assert.InDelta(t, tr, p.T[0], 1e-3)
	assert.InDelta(t, 1.0, p.RawTopTemperature, 1e-3)

	for i := 1; i < len(p.T); i++ {
		if p.T[i] > p.T[i-1]+1e-6 {
			t.Fatalf("temperature rises at y=%g: %g -> %g", p.Y[i], p.T[i-1], p.T[i])
		}
	}
	assert.Greater(t, p.T[0]-p.T[len(p.T)-1], 0.1)

	assert.Equal(t, dynamo.PhaseDone, s.Phase())
	assert.Equal(t, roots.FlagConverged, p.Diagnostics.Flag)
	assert.Greater(t, p.Diagnostics.Steps, 0)
}

func TestSolve_ViscosityFollowsTemperature(t *testing.T) {
	p, err := quietSolver(DefaultOptions()).Solve(Case{Mach: 3})
	require.NoError(t, err)

	for i := 1; i < len(p.T); i++ {
		switch {
		case p.T[i] > p.T[i-1]:
			assert.GreaterOrEqual(t, p.Eta[i]+1e-12, p.Eta[i-1])
		case p.T[i] < p.T[i-1]:
			assert.LessOrEqual(t, p.Eta[i], p.Eta[i-1]+1e-12)
		}
	}
	assert.InDelta(t, 1.0, p.Eta[len(p.Eta)-1], 1e-15)
}

func TestSolve_Reproducible(t *testing.T) {
	a, err := quietSolver(DefaultOptions()).Solve(Case{Mach: 2.4})
	require.NoError(t, err)
	b, err := quietSolver(DefaultOptions()).Solve(Case{Mach: 2.4})
	require.NoError(t, err)

	assert.Equal(t, a.Tau, b.Tau)
	assert.Equal(t, a.U0, b.U0)
	assert.Equal(t, a.T, b.T)
	assert.Equal(t, a.Eta, b.Eta)
}

func TestSolve_HighMach(t *testing.T) {
	p, err := quietSolver(DefaultOptions()).Solve(Case{Mach: 10})
	require.NoError(t, err)

	assert.Greater(t, p.Tau, 4.0)
	assert.Less(t, p.Tau, 5.0)
	assert.InDelta(t, 1.0, p.U0[len(p.U0)-1], 1e-3)
	assert.Equal(t, 1.0, p.T[len(p.T)-1])
}

func TestSolve_NoSignChange(t *testing.T) {
	opts := DefaultOptions()
	opts.BracketLower = 3
	opts.BracketOffset = 3
	opts.Roots.MaxExpansions = 0

	s := quietSolver(opts)
	p, err := s.Solve(Case{Index: 4, Mach: 1})
	require.Error(t, err)
	assert.Nil(t, p)

	var ce *dynamo.CaseError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, 4, ce.Index)
	assert.Equal(t, 1.0, ce.Mach)
	assert.Equal(t, roots.FlagSignError, ce.Flag)
	assert.ErrorIs(t, err, dynamo.ErrNoBracket)
	assert.Equal(t, dynamo.PhaseFailed, s.Phase())
}

func TestSolve_Phases(t *testing.T) {
	var phases []dynamo.Phase
	opts := DefaultOptions()
	opts.OnPhase = func(_ Case, p dynamo.Phase) { phases = append(phases, p) }

	_, err := quietSolver(opts).Solve(Case{Mach: 0.5})
	require.NoError(t, err)

	assert.Equal(t, []dynamo.Phase{
		dynamo.PhaseInitialized,
		dynamo.PhaseEvaluating,
		dynamo.PhaseConverged,
		dynamo.PhaseFinalIntegration,
		dynamo.PhaseDone,
	}, phases)
}

func TestSolve_LogsTerminalPhase(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	s := NewSolver(physics.DefaultConstants(), DefaultOptions()).WithLogger(logger)

	_, err := s.Solve(Case{Mach: 0.5})
	require.NoError(t, err)
	require.True(t, s.Phase().Terminal())

	last := hook.LastEntry()
	require.NotNil(t, last)
	assert.Equal(t, "case finished", last.Message)
	assert.Equal(t, dynamo.PhaseDone, last.Data["phase"])

	opts := DefaultOptions()
	opts.BracketLower, opts.BracketOffset = 3, 3
	opts.Roots.MaxExpansions = 0
	s = NewSolver(physics.DefaultConstants(), opts).WithLogger(logger)
	_, err = s.Solve(Case{Mach: 1})
	require.Error(t, err)
	assert.Equal(t, dynamo.PhaseFailed, hook.LastEntry().Data["phase"])
}

func TestShoot_Signs(t *testing.T) {
	s := quietSolver(DefaultOptions())

	low, err := s.Shoot(1, 0.1)
	require.NoError(t, err)
	assert.Less(t, low, 0.0)

	high, err := s.Shoot(1, 2)
	require.NoError(t, err)
	assert.Greater(t, high, 0.0)
}

func TestShoot_TemperatureCollapse(t *testing.T) {
	r, err := quietSolver(DefaultOptions()).Shoot(10, 22)
	require.NoError(t, err)
	assert.Greater(t, r, 0.0)
}

func TestGrid(t *testing.T) {
	y := Grid(5)
	assert.Equal(t, []float64{0, 0.25, 0.5, 0.75, 1}, y)

	y = Grid(DefaultPoints)
	assert.Len(t, y, DefaultPoints)
	assert.Equal(t, 1.0, y[DefaultPoints-1])
}
