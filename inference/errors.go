package inference

import "errors"

var (
	// ErrDimensionMismatch is returned when the likelihood, transition,
	// evidence, policy or prior inputs disagree on factor count or state
	// counts.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrInvalidActionIndex is returned when an action in the past or
	// future trajectory does not index an action slice of its factor's
	// transition tensor.
	ErrInvalidActionIndex = errors.New("invalid action index")

	// ErrInvalidConfig is returned for unusable iteration counts or step
	// sizes.
	ErrInvalidConfig = errors.New("invalid config")
)
