package integrators

import (
	"fmt"
	"math"

	"github.com/san-kum/couette/internal/dynamo"
)

// Dormand-Prince coefficients (RK45)
var (
	a2 = 1.0 / 5.0
	a3 = 3.0 / 10.0
	a4 = 4.0 / 5.0
	a5 = 8.0 / 9.0

	b21 = 1.0 / 5.0
	b31 = 3.0 / 40.0
	b32 = 9.0 / 40.0
	b41 = 44.0 / 45.0
	b42 = -56.0 / 15.0
	b43 = 32.0 / 9.0
	b51 = 19372.0 / 6561.0
	b52 = -25360.0 / 2187.0
	b53 = 64448.0 / 6561.0
	b54 = -212.0 / 729.0
	b61 = 9017.0 / 3168.0
	b62 = -355.0 / 33.0
	b63 = 46732.0 / 5247.0
	b64 = 49.0 / 176.0
	b65 = -5103.0 / 18656.0

	c1 = 35.0 / 384.0
	c3 = 500.0 / 1113.0
	c4 = 125.0 / 192.0
	c5 = -2187.0 / 6784.0
	c6 = 11.0 / 84.0

	dc1 = c1 - 5179.0/57600.0
	dc3 = c3 - 7571.0/16695.0
	dc4 = c4 - 393.0/640.0
	dc5 = c5 - -92097.0/339200.0
	dc6 = c6 - 187.0/2100.0
	dc7 = -1.0 / 40.0
)

const errorExponent = -1.0 / 5.0

// Options control the adaptive step. Zero FirstStep selects the step
// automatically; zero MaxStep leaves it unbounded.
type Options struct {
	Rtol      float64
	Atol      float64
	FirstStep float64
	MaxStep   float64
	MaxSteps  int
}

func DefaultOptions() Options {
	return Options{
		Rtol:     1e-3,
		Atol:     1e-6,
		MaxSteps: 100000,
	}
}

// Stats counts the work done by one Solve call.
type Stats struct {
	Steps       int
	Rejected    int
	Evaluations int
}

type RK45 struct {
	opts     Options
	safety   float64
	minScale float64
	maxScale float64
}

func NewRK45(opts Options) *RK45 {
	return &RK45{
		opts:     opts,
		safety:   0.9,
		minScale: 0.2,
		maxScale: 10.0,
	}
}

// stepResult holds one attempted step. k has the seven stage derivatives;
// k[6] is the derivative at the new point (first-same-as-last).
type stepResult struct {
	x       dynamo.State
	k       [7]dynamo.State
	errNorm float64
}

// attempt advances x by h from t, given k1 = f(t, x).
func (r *RK45) attempt(dyn dynamo.System, t float64, x, k1 dynamo.State, h float64) stepResult {
	n := len(x)

	x2 := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		x2[i] = x[i] + h*b21*k1[i]
	}
	k2 := dyn.Derive(t+a2*h, x2)

	x3 := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		x3[i] = x[i] + h*(b31*k1[i]+b32*k2[i])
	}
	k3 := dyn.Derive(t+a3*h, x3)

	x4 := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		x4[i] = x[i] + h*(b41*k1[i]+b42*k2[i]+b43*k3[i])
	}
	k4 := dyn.Derive(t+a4*h, x4)

	x5 := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		x5[i] = x[i] + h*(b51*k1[i]+b52*k2[i]+b53*k3[i]+b54*k4[i])
	}
	k5 := dyn.Derive(t+a5*h, x5)

	x6 := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		x6[i] = x[i] + h*(b61*k1[i]+b62*k2[i]+b63*k3[i]+b64*k4[i]+b65*k5[i])
	}
	k6 := dyn.Derive(t+h, x6)

	xNew := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		xNew[i] = x[i] + h*(c1*k1[i]+c3*k3[i]+c4*k4[i]+c5*k5[i]+c6*k6[i])
	}

	k7 := dyn.Derive(t+h, xNew)

	sum := 0.0
	for i := 0; i < n; i++ {
		errEst := h * (dc1*k1[i] + dc3*k3[i] + dc4*k4[i] + dc5*k5[i] + dc6*k6[i] + dc7*k7[i])
		scale := r.opts.Atol + r.opts.Rtol*math.Max(math.Abs(x[i]), math.Abs(xNew[i]))
		sum += (errEst / scale) * (errEst / scale)
	}

	return stepResult{
		x:       xNew,
		k:       [7]dynamo.State{k1, k2, k3, k4, k5, k6, k7},
		errNorm: math.Sqrt(sum / float64(n)),
	}
}

// StopFunc ends an integration early when it returns true for an accepted step.
type StopFunc func(t float64, x dynamo.State) bool

// Solve integrates dyn from t0 to t1 starting at x0 and returns a dense
// solution valid over [t0, t1].
func (r *RK45) Solve(dyn dynamo.System, t0, t1 float64, x0 dynamo.State) (*Solution, error) {
	return r.SolveUntil(dyn, t0, t1, x0, nil)
}

// SolveUntil is Solve with a terminal condition. When stop fires the
// solution ends at that step and Stopped is set.
func (r *RK45) SolveUntil(dyn dynamo.System, t0, t1 float64, x0 dynamo.State, stop StopFunc) (*Solution, error) {
	if len(x0) != dyn.StateDim() {
		return nil, dynamo.ErrDimensionMismatch
	}
	if !(t1 > t0) {
		return nil, fmt.Errorf("integrators: empty span [%g, %g]", t0, t1)
	}
	if !x0.IsValid() {
		return nil, dynamo.ErrInvalidState
	}

	maxStep := r.opts.MaxStep
	if maxStep <= 0 {
		maxStep = math.Inf(1)
	}
	maxSteps := r.opts.MaxSteps
	if maxSteps <= 0 {
		maxSteps = DefaultOptions().MaxSteps
	}

	sol := newSolution(t0, x0)

	t := t0
	x := x0.Clone()
	f := dyn.Derive(t, x)
	sol.Stats.Evaluations++

	h := r.opts.FirstStep
	if h <= 0 {
		h = r.initialStep(dyn, t0, t1, x, f)
		sol.Stats.Evaluations++
	}

	for t < t1 {
		if sol.Stats.Steps >= maxSteps {
			return sol, fmt.Errorf("%w: %d steps at y=%g", dynamo.ErrTooManySteps, maxSteps, t)
		}

		minStep := 10 * math.Abs(math.Nextafter(t, math.Inf(1))-t)
		h = math.Min(h, maxStep)
		if h < minStep {
			h = minStep
		}

		rejected := false
		var (
			res      stepResult
			hh, tNew float64
		)
		for {
			if h < minStep {
				return sol, fmt.Errorf("%w: h=%g at y=%g", dynamo.ErrStepTooSmall, h, t)
			}
			tNew = t + h
			if tNew > t1 {
				tNew = t1
			}
			hh = tNew - t

			res = r.attempt(dyn, t, x, f, hh)
			sol.Stats.Evaluations += 6

			if res.errNorm < 1 {
				factor := r.maxScale
				if res.errNorm > 0 {
					factor = math.Min(r.maxScale, r.safety*math.Pow(res.errNorm, errorExponent))
				}
				if rejected {
					factor = math.Min(1, factor)
				}
				h = hh * factor
				break
			}

			if math.IsNaN(res.errNorm) {
				h = hh * r.minScale
			} else {
				h = hh * math.Max(r.minScale, r.safety*math.Pow(res.errNorm, errorExponent))
			}
			rejected = true
			sol.Stats.Rejected++
		}

		if !res.x.IsValid() {
			return sol, fmt.Errorf("%w at y=%g", dynamo.ErrInvalidState, tNew)
		}

		sol.append(tNew, hh, res.x, res.k)
		sol.Stats.Steps++

		t = tNew
		x = res.x
		f = res.k[6]

		if stop != nil && t < t1 && stop(t, x) {
			sol.Stopped = true
			break
		}
	}

	return sol, nil
}

// initialStep estimates a first step from the local derivative scale.
func (r *RK45) initialStep(dyn dynamo.System, t0, t1 float64, x0, f0 dynamo.State) float64 {
	n := len(x0)
	rms := func(v func(i int) float64) float64 {
		sum := 0.0
		for i := 0; i < n; i++ {
			sum += v(i) * v(i)
		}
		return math.Sqrt(sum / float64(n))
	}
	scale := make([]float64, n)
	for i := range scale {
		scale[i] = r.opts.Atol + math.Abs(x0[i])*r.opts.Rtol
	}

	d0 := rms(func(i int) float64 { return x0[i] / scale[i] })
	d1 := rms(func(i int) float64 { return f0[i] / scale[i] })

	h0 := 0.01 * d0 / d1
	if d0 < 1e-5 || d1 < 1e-5 {
		h0 = 1e-6
	}
	h0 = math.Min(h0, t1-t0)

	x1 := make(dynamo.State, n)
	for i := range x1 {
		x1[i] = x0[i] + h0*f0[i]
	}
	f1 := dyn.Derive(t0+h0, x1)
	d2 := rms(func(i int) float64 { return (f1[i] - f0[i]) / scale[i] }) / h0

	var h1 float64
	if d1 <= 1e-15 && d2 <= 1e-15 {
		h1 = math.Max(1e-6, h0*1e-3)
	} else {
		h1 = math.Pow(0.01/math.Max(d1, d2), -errorExponent)
	}

	return math.Min(math.Min(100*h0, h1), t1-t0)
}
