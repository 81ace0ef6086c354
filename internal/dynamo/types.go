package dynamo

import (
	"math"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// System is the right-hand side of dX/dy = f(y, X).
type System interface {
	Derive(y float64, x State) State
	StateDim() int
}

// Phase tracks where a single case is in its solve.
type Phase int

const (
	PhaseInitialized Phase = iota
	PhaseEvaluating
	PhaseConverged
	PhaseFailed
	PhaseFinalIntegration
	PhaseDone
)

var phaseNames = [...]string{
	PhaseInitialized:      "initialized",
	PhaseEvaluating:       "residual-evaluating",
	PhaseConverged:        "converged",
	PhaseFailed:           "failed",
	PhaseFinalIntegration: "final-integration",
	PhaseDone:             "done",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}

// Terminal reports whether no further transition is possible.
func (p Phase) Terminal() bool {
	return p == PhaseFailed || p == PhaseDone
}
