package roots

import (
	"fmt"

	"github.com/san-kum/couette/internal/dynamo"
)

// Find searches [lo, hi] for a zero of f. When the endpoints share a sign
// the upper end is pushed out, doubling the width each time, up to
// opts.MaxExpansions times. A guess strictly inside the bracket is
// evaluated once and used to narrow it before Brent's method runs.
func Find(f Func, lo, hi, guess float64, opts Options) (Result, error) {
	if !(hi > lo) {
		return Result{Flag: FlagSignError}, fmt.Errorf("%w: empty bracket [%g, %g]", dynamo.ErrNoBracket, lo, hi)
	}

	c := &counter{f: f}
	fail := func(res Result, err error) (Result, error) {
		res.FunctionCalls = c.calls
		return res, err
	}

	flo, err := c.eval(lo)
	if err != nil {
		return fail(Result{Lower: lo, Upper: hi, Flag: FlagFunctionError}, err)
	}
	fhi, err := c.eval(hi)
	if err != nil {
		return fail(Result{Lower: lo, Upper: hi, Flag: FlagFunctionError}, err)
	}

	expansions := 0
	endpointRoot := func() bool { return opts.negligible(flo) || opts.negligible(fhi) }

	for !endpointRoot() && sameSign(flo, fhi) {
		if expansions >= opts.MaxExpansions {
			return fail(Result{Lower: lo, Upper: hi, Expansions: expansions, Flag: FlagSignError},
				fmt.Errorf("%w: f(%g)=%g, f(%g)=%g after %d expansions", dynamo.ErrNoBracket, lo, flo, hi, fhi, expansions))
		}
		hi = lo + 2*(hi-lo)
		expansions++
		if fhi, err = c.eval(hi); err != nil {
			return fail(Result{Lower: lo, Upper: hi, Expansions: expansions, Flag: FlagFunctionError}, err)
		}
	}

	if !endpointRoot() && guess > lo && guess < hi {
		fg, err := c.eval(guess)
		if err != nil {
			return fail(Result{Lower: lo, Upper: hi, Expansions: expansions, Flag: FlagFunctionError}, err)
		}
		switch {
		case opts.negligible(fg):
			return Result{Root: guess, FunctionCalls: c.calls, Expansions: expansions,
				Lower: lo, Upper: hi, Converged: true, Flag: FlagConverged}, nil
		case sameSign(fg, flo):
			lo, flo = guess, fg
		default:
			hi, fhi = guess, fg
		}
	}

	res, err := brent(c, lo, hi, flo, fhi, opts)
	res.Expansions = expansions
	res.Lower, res.Upper = lo, hi
	return res, err
}
