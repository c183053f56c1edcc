package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrConfiguration indicates an invalid or unrecognized trap or species
	// specification. Detected before integration begins.
	ErrConfiguration = errors.New("dynamo: invalid configuration")

	// ErrNumericalDegeneracy indicates coincident ions during force evaluation
	// or a state that is no longer finite.
	ErrNumericalDegeneracy = errors.New("dynamo: numerical degeneracy")

	// ErrAllocation indicates a replacement ion could not be constructed.
	ErrAllocation = errors.New("dynamo: unable to construct ion")

	// ErrInvalidIndex indicates an out-of-range ion index.
	ErrInvalidIndex = errors.New("dynamo: ion index out of range")
)

// SimulationError wraps an error with simulation context.
type SimulationError struct {
	Step    int
	Time    float64
	Phase   string
	Wrapped error
}

func (e *SimulationError) Error() string {
	if e.Phase == "" {
		return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
	}
	return fmt.Sprintf("%s step %d (t=%.4f): %v", e.Phase, e.Step, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}

// CoincidentError reports the pair of ions whose separation vanished.
type CoincidentError struct {
	I, J int
}

func (e *CoincidentError) Error() string {
	return fmt.Sprintf("%v: ions %d and %d are coincident", ErrNumericalDegeneracy, e.I, e.J)
}

func (e *CoincidentError) Unwrap() error {
	return ErrNumericalDegeneracy
}
