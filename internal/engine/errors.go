package engine

import "errors"

var (
	// ErrInvalidDuration is returned when a non-positive duration is configured.
	ErrInvalidDuration = errors.New("invalid duration: must be greater than zero")
	// ErrIllegalTransition is returned when an operation is invoked in the wrong phase.
	// The engine state is left untouched.
	ErrIllegalTransition = errors.New("illegal transition")
)
