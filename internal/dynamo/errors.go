package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for solver operations.
var (
	// ErrInvalidConfig indicates malformed run parameters; fatal before any case runs.
	ErrInvalidConfig = errors.New("dynamo: invalid configuration")

	// ErrInvalidState indicates a state vector with NaN or Inf values.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrStepTooSmall indicates the adaptive step fell below the representable minimum.
	ErrStepTooSmall = errors.New("dynamo: adaptive step below minimum")

	// ErrTooManySteps indicates the integrator hit its step budget.
	ErrTooManySteps = errors.New("dynamo: integrator step budget exhausted")

	// ErrNoBracket indicates the root bracket endpoints share a sign.
	ErrNoBracket = errors.New("dynamo: bracket does not contain a sign change")

	// ErrNotConverged indicates the root finder hit its iteration cap.
	ErrNotConverged = errors.New("dynamo: root finder failed to converge")

	// ErrDimensionMismatch indicates mismatched state and system dimensions.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between state and system")
)

// CaseError wraps a failure of one Mach-number case.
type CaseError struct {
	Index   int
	Mach    float64
	Flag    string
	Wrapped error
}

func (e *CaseError) Error() string {
	if e.Flag != "" {
		return fmt.Sprintf("case %d (M_r=%g): %s: %v", e.Index, e.Mach, e.Flag, e.Wrapped)
	}
	return fmt.Sprintf("case %d (M_r=%g): %v", e.Index, e.Mach, e.Wrapped)
}

func (e *CaseError) Unwrap() error {
	return e.Wrapped
}

// InvalidConfigf formats a configuration error that matches ErrInvalidConfig.
func InvalidConfigf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}
