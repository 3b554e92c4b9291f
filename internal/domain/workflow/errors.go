package workflow

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTransition is returned when the subject's current place is
	// not in the transition's from set
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrUnknownTransition is returned when the requested transition is not
	// part of the workflow definition
	ErrUnknownTransition = errors.New("unknown transition")

	// ErrInvalidPlace is returned when a place is not part of the definition
	ErrInvalidPlace = errors.New("invalid place")
)

// GuardRejectedError is returned by Apply when the guard blocks a transition.
// It carries the structured denial reason for the caller to render.
type GuardRejectedError struct {
	Transition string
	Reason     Reason
}

func (e *GuardRejectedError) Error() string {
	return fmt.Sprintf("transition %s rejected: %s", e.Transition, e.Reason.Code)
}
