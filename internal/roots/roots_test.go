package roots

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/couette/internal/dynamo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func plain(f func(float64) float64) Func {
	return func(x float64) (float64, error) { return f(x), nil }
}

func TestBrent_Polynomials(t *testing.T) {
	tests := []struct {
		name   string
		f      func(float64) float64
		a, b   float64
		expect float64
	}{
		{"linear", func(x float64) float64 { return 2*x - 3 }, 0, 5, 1.5},
		{"sqrt2", func(x float64) float64 { return x*x - 2 }, 0, 2, math.Sqrt2},
		{"cubic", func(x float64) float64 { return x*x*x - x - 2 }, 1, 2, 1.5213797068045676},
		{"cosine", math.Cos, 0, 3, math.Pi / 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Brent(plain(tt.f), tt.a, tt.b, DefaultOptions())
			require.NoError(t, err)
			assert.True(t, res.Converged)
			assert.Equal(t, FlagConverged, res.Flag)
			assert.InDelta(t, tt.expect, res.Root, 1e-10)
			assert.LessOrEqual(t, res.Iterations, DefaultOptions().MaxIter)
			assert.Equal(t, res.Iterations+1, res.FunctionCalls)
		})
	}
}

func TestBrent_RootAtEndpoint(t *testing.T) {
	res, err := Brent(plain(func(x float64) float64 { return x - 1 }), 1, 4, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 1.0, res.Root)
	assert.Equal(t, 0, res.Iterations)
}

func TestBrent_SignError(t *testing.T) {
	res, err := Brent(plain(func(x float64) float64 { return x*x + 1 }), -1, 1, DefaultOptions())
	require.Error(t, err)
	assert.True(t, errors.Is(err, dynamo.ErrNoBracket))
	assert.False(t, res.Converged)
	assert.Equal(t, FlagSignError, res.Flag)
}

func TestBrent_IterationCap(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxIter = 2

	res, err := Brent(plain(math.Cos), 0, 3, opts)
	require.Error(t, err)
	assert.True(t, errors.Is(err, dynamo.ErrNotConverged))
	assert.Equal(t, FlagConvergenceError, res.Flag)
	assert.Equal(t, 2, res.Iterations)
}

func TestBrent_FunctionError(t *testing.T) {
	boom := errors.New("boom")
	f := func(x float64) (float64, error) {
		if x > 1 {
			return 0, boom
		}
		return x - 0.5, nil
	}

	res, err := Brent(f, 0, 2, DefaultOptions())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, FlagFunctionError, res.Flag)
}

func TestFind_NoExpansionNeeded(t *testing.T) {
	res, err := Find(plain(func(x float64) float64 { return x - 1.2 }), 0.1, 2, 1.5, DefaultOptions())
	require.NoError(t, err)
	assert.InDelta(t, 1.2, res.Root, 1e-11)
	assert.Equal(t, 0, res.Expansions)
	assert.Equal(t, 0.1, res.Lower)
	assert.Equal(t, 1.5, res.Upper, "guess should have narrowed the bracket")
}

func TestFind_ExpandsUpperBound(t *testing.T) {
	res, err := Find(plain(func(x float64) float64 { return x - 7 }), 0.1, 1.1, 1.5, DefaultOptions())
	require.NoError(t, err)
	assert.InDelta(t, 7.0, res.Root, 1e-10)
	assert.Equal(t, 3, res.Expansions)
}

func TestFind_ExpansionBudget(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxExpansions = 0

	res, err := Find(plain(func(x float64) float64 { return x - 7 }), 0.1, 1.1, 0.5, opts)
	require.ErrorIs(t, err, dynamo.ErrNoBracket)
	assert.False(t, res.Converged)
	assert.Equal(t, FlagSignError, res.Flag)
	assert.Equal(t, 2, res.FunctionCalls)
}

func TestFind_GuessIsRoot(t *testing.T) {
	res, err := Find(plain(func(x float64) float64 { return x - 1.5 }), 0.1, 2, 1.5, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 1.5, res.Root)
	assert.Equal(t, 3, res.FunctionCalls)
}

func TestFind_EmptyBracket(t *testing.T) {
	_, err := Find(plain(func(x float64) float64 { return x }), 2, 1, 1.5, DefaultOptions())
	assert.ErrorIs(t, err, dynamo.ErrNoBracket)
}

func TestFind_NearZeroEndpoint(t *testing.T) {
	// f(1) rounds to -2.22e-16, so the fixed bracket [0.1, 1] has no sign change.
	f := plain(func(x float64) float64 { return x - 1 - 0x1p-52 })
	opts := DefaultOptions()
	opts.MaxExpansions = 0

	res, err := Find(f, 0.1, 1, 0.5, opts)
	require.NoError(t, err)
	assert.True(t, res.Converged)
	assert.Equal(t, 1.0, res.Root)
	assert.Equal(t, FlagConverged, res.Flag)

	opts.Ftol = 0
	_, err = Find(f, 0.1, 1, 0.5, opts)
	assert.ErrorIs(t, err, dynamo.ErrNoBracket)
}

func TestBrent_NearZeroEndpoint(t *testing.T) {
	f := plain(func(x float64) float64 { return x - 2 + 1e-11 })
	_, err := Brent(f, 2, 5, DefaultOptions())
	require.ErrorIs(t, err, dynamo.ErrNoBracket, "1e-11 is above the default Ftol")

	opts := DefaultOptions()
	opts.Ftol = 1e-10
	res, err := Brent(f, 2, 5, opts)
	require.NoError(t, err)
	assert.Equal(t, 2.0, res.Root)
	assert.Equal(t, 0, res.Iterations)
}
