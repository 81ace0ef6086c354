package integrators

import (
	"sort"

	"github.com/san-kum/couette/internal/dynamo"
)

// Continuous extension of the Dormand-Prince pair (fourth order). Row s
// maps stage derivative k[s] to the coefficients of theta, theta^2,
// theta^3, theta^4 on a step.
var denseP = [7][4]float64{
	{1, -8048581381.0 / 2820520608.0, 8663915743.0 / 2820520608.0, -12715105075.0 / 11282082432.0},
	{0, 0, 0, 0},
	{0, 131558114200.0 / 32700410799.0, -68118460800.0 / 10900136933.0, 87487479700.0 / 32700410799.0},
	{0, -1754552775.0 / 470086768.0, 14199869525.0 / 1410260304.0, -10690763975.0 / 1880347072.0},
	{0, 127303824393.0 / 49829197408.0, -318862633887.0 / 49829197408.0, 701980252875.0 / 199316789632.0},
	{0, -282668133.0 / 205662961.0, 2019193451.0 / 616988883.0, -1453857185.0 / 822651844.0},
	{0, 40617522.0 / 29380423.0, -110615467.0 / 29380423.0, 69997945.0 / 29380423.0},
}

// Solution is the dense output of one Solve call. Eval interpolates the
// accepted steps, so it is usable at any height in the span.
type Solution struct {
	Ts      []float64
	Xs      []dynamo.State
	Stats   Stats
	Stopped bool

	hs []float64
	qs [][][4]float64
}

func newSolution(t0 float64, x0 dynamo.State) *Solution {
	return &Solution{
		Ts: []float64{t0},
		Xs: []dynamo.State{x0.Clone()},
	}
}

func (s *Solution) append(t, h float64, x dynamo.State, k [7]dynamo.State) {
	n := len(x)
	q := make([][4]float64, n)
	for i := 0; i < n; i++ {
		for j := 0; j < 4; j++ {
			sum := 0.0
			for st := 0; st < 7; st++ {
				sum += k[st][i] * denseP[st][j]
			}
			q[i][j] = sum
		}
	}
	s.Ts = append(s.Ts, t)
	s.Xs = append(s.Xs, x)
	s.hs = append(s.hs, h)
	s.qs = append(s.qs, q)
}

// Span returns the integrated interval.
func (s *Solution) Span() (float64, float64) {
	return s.Ts[0], s.Ts[len(s.Ts)-1]
}

// Final returns the state at the end of the span.
func (s *Solution) Final() dynamo.State {
	return s.Xs[len(s.Xs)-1].Clone()
}

// Eval returns the state at t. Step endpoints return the stored states
// exactly; points outside the span are extrapolated from the nearest step.
func (s *Solution) Eval(t float64) dynamo.State {
	idx := sort.SearchFloat64s(s.Ts, t)
	if idx < len(s.Ts) && s.Ts[idx] == t {
		return s.Xs[idx].Clone()
	}
	if len(s.hs) == 0 {
		return s.Xs[0].Clone()
	}

	seg := idx - 1
	if seg < 0 {
		seg = 0
	}
	if seg >= len(s.hs) {
		seg = len(s.hs) - 1
	}

	h := s.hs[seg]
	theta := (t - s.Ts[seg]) / h
	p := [4]float64{theta, theta * theta, theta * theta * theta, theta * theta * theta * theta}

	x0 := s.Xs[seg]
	q := s.qs[seg]
	out := make(dynamo.State, len(x0))
	for i := range x0 {
		sum := 0.0
		for j := 0; j < 4; j++ {
			sum += q[i][j] * p[j]
		}
		out[i] = x0[i] + h*sum
	}
	return out
}

// Sample evaluates the solution on grid and returns one series per state
// component: out[i][k] is component i at grid[k].
func (s *Solution) Sample(grid []float64) [][]float64 {
	n := len(s.Xs[0])
	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, len(grid))
	}
	for k, t := range grid {
		x := s.Eval(t)
		for i := 0; i < n; i++ {
			out[i][k] = x[i]
		}
	}
	return out
}
