// Package roots finds zeros of scalar functions on a bracket.
package roots

import (
	"fmt"
	"math"

	"github.com/san-kum/couette/internal/dynamo"
)

// Diagnostic flags reported in Result.Flag.
const (
	FlagConverged        = "converged"
	FlagSignError        = "sign error"
	FlagConvergenceError = "convergence error"
	FlagFunctionError    = "function error"
)

// Func is a scalar function whose evaluation may fail.
type Func func(x float64) (float64, error)

// Options bound the search. An endpoint whose |f| is at most Ftol counts
// as a root; Ftol 0 accepts exact zeros only.
type Options struct {
	Xtol          float64
	Rtol          float64
	Ftol          float64
	MaxIter       int
	MaxExpansions int
}

func DefaultOptions() Options {
	return Options{
		Xtol:          2e-12,
		Rtol:          4 * 0x1p-52,
		Ftol:          1e-12,
		MaxIter:       100,
		MaxExpansions: 8,
	}
}

func (o Options) negligible(f float64) bool {
	return math.Abs(f) <= o.Ftol
}

// Result carries the root and the diagnostics of the search.
type Result struct {
	Root          float64
	Iterations    int
	FunctionCalls int
	Expansions    int
	Lower, Upper  float64
	Converged     bool
	Flag          string
}

type counter struct {
	f     Func
	calls int
}

func (c *counter) eval(x float64) (float64, error) {
	c.calls++
	return c.f(x)
}

func sameSign(a, b float64) bool {
	return math.Signbit(a) == math.Signbit(b)
}

// Brent finds a zero of f in [a, b]. f(a) and f(b) must differ in sign.
func Brent(f Func, a, b float64, opts Options) (Result, error) {
	c := &counter{f: f}
	fa, err := c.eval(a)
	if err != nil {
		return Result{Flag: FlagFunctionError, FunctionCalls: c.calls}, err
	}
	fb, err := c.eval(b)
	if err != nil {
		return Result{Flag: FlagFunctionError, FunctionCalls: c.calls}, err
	}
	res, err := brent(c, a, b, fa, fb, opts)
	res.Lower, res.Upper = a, b
	return res, err
}

// brent is Brent's method with inverse quadratic extrapolation, started
// from known endpoint values.
func brent(c *counter, xa, xb, fa, fb float64, opts Options) (Result, error) {
	xpre, xcur := xa, xb
	fpre, fcur := fa, fb
	var xblk, fblk, spre, scur float64

	done := func(x float64, iter int) (Result, error) {
		return Result{Root: x, Iterations: iter, FunctionCalls: c.calls, Converged: true, Flag: FlagConverged}, nil
	}

	if opts.negligible(fpre) || opts.negligible(fcur) {
		if math.Abs(fpre) <= math.Abs(fcur) {
			return done(xpre, 0)
		}
		return done(xcur, 0)
	}
	if sameSign(fpre, fcur) {
		return Result{FunctionCalls: c.calls, Flag: FlagSignError},
			fmt.Errorf("%w: f(%g)=%g, f(%g)=%g", dynamo.ErrNoBracket, xa, fa, xb, fb)
	}

	for i := 0; i < opts.MaxIter; i++ {
		if fpre != 0 && fcur != 0 && !sameSign(fpre, fcur) {
			xblk, fblk = xpre, fpre
			spre = xcur - xpre
			scur = spre
		}
		if math.Abs(fblk) < math.Abs(fcur) {
			xpre, xcur, xblk = xcur, xblk, xcur
			fpre, fcur, fblk = fcur, fblk, fcur
		}

		delta := (opts.Xtol + opts.Rtol*math.Abs(xcur)) / 2
		sbis := (xblk - xcur) / 2
		if fcur == 0 || math.Abs(sbis) < delta {
			return done(xcur, i+1)
		}

		if math.Abs(spre) > delta && math.Abs(fcur) < math.Abs(fpre) {
			var stry float64
			if xpre == xblk {
				// secant
				stry = -fcur * (xcur - xpre) / (fcur - fpre)
			} else {
				// inverse quadratic
				dpre := (fpre - fcur) / (xpre - xcur)
				dblk := (fblk - fcur) / (xblk - xcur)
				stry = -fcur * (fblk*dblk - fpre*dpre) / (dblk * dpre * (fblk - fpre))
			}
			if 2*math.Abs(stry) < math.Min(math.Abs(spre), 3*math.Abs(sbis)-delta) {
				spre, scur = scur, stry
			} else {
				spre, scur = sbis, sbis
			}
		} else {
			spre, scur = sbis, sbis
		}

		xpre, fpre = xcur, fcur
		if math.Abs(scur) > delta {
			xcur += scur
		} else if sbis > 0 {
			xcur += delta
		} else {
			xcur -= delta
		}

		var err error
		fcur, err = c.eval(xcur)
		if err != nil {
			return Result{Root: xcur, Iterations: i + 1, FunctionCalls: c.calls, Flag: FlagFunctionError}, err
		}
	}

	return Result{Root: xcur, Iterations: opts.MaxIter, FunctionCalls: c.calls, Flag: FlagConvergenceError},
		fmt.Errorf("%w after %d iterations", dynamo.ErrNotConverged, opts.MaxIter)
}
