package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors. All of them are contract violations raised by malformed
// input, never transient conditions.
var (
	// ErrDegenerateVector indicates a zero-length vector reached an
	// operation that needs a direction.
	ErrDegenerateVector = errors.New("dynamo: degenerate (zero-length) vector")

	// ErrDegenerateSlider indicates a slider whose endpoints coincide or
	// whose range is empty.
	ErrDegenerateSlider = errors.New("dynamo: degenerate slider geometry or range")

	// ErrParameterBounds indicates a parameter value is outside valid range.
	ErrParameterBounds = errors.New("dynamo: parameter out of valid bounds")

	// ErrInvalidState indicates a point with NaN or Inf coordinates.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")
)

// SimulationError wraps an error with the frame it occurred in.
type SimulationError struct {
	Frame   int
	Time    float64
	Point   int
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("frame %d (t=%.4f) point %d: %v", e.Frame, e.Time, e.Point, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
