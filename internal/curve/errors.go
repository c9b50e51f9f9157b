// internal/curve/errors.go
package curve

import "errors"

// Sentinel errors for every failure kind the engine can surface.
// Callers match them with errors.Is and decide whether the operation
// can be resubmitted (slippage, threshold) or is final (graduated).
var (
	// Validation errors: rejected before any computation.
	ErrInvalidBasePrice = errors.New("invalid base price")
	ErrInvalidMaxSupply = errors.New("invalid max supply")
	ErrInvalidAmount    = errors.New("invalid amount")

	// State errors: operation not legal in the curve's current state.
	ErrCurveGraduated   = errors.New("curve has graduated")
	ErrAlreadyGraduated = errors.New("curve already graduated")
	ErrNotGraduated     = errors.New("curve has not graduated yet")

	// Arithmetic errors: fixed-point computation failed closed.
	ErrMathOverflow   = errors.New("math overflow")
	ErrDivisionByZero = errors.New("division by zero")

	// Trade check errors.
	ErrSlippageExceeded     = errors.New("slippage tolerance exceeded")
	ErrMaxSupplyExceeded    = errors.New("max supply exceeded")
	ErrInsufficientSupply   = errors.New("insufficient supply")
	ErrInsufficientReserves = errors.New("insufficient reserves")

	// Graduation threshold not reached.
	ErrThresholdNotReached = errors.New("graduation threshold not reached")
)
