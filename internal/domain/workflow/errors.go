package workflow

import "errors"

var (
	// ErrInvalidTransition is returned when a state transition is not allowed
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrAlreadyDecided is returned when an admin decision targets an entity
	// a human has already decided
	ErrAlreadyDecided = errors.New("entity already decided")
)
