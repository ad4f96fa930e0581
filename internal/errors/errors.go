package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for the engine's failure taxonomy. Handlers map these to
// HTTP statuses; the scheduler captures downstream failures into run
// records instead of propagating them.
var (
	ErrNotFound           = errors.New("not found")
	ErrAgentNotRegistered = errors.New("agent not registered")
	ErrConfigDisabled     = errors.New("agent config missing or disabled")
	ErrInvalidConfig      = errors.New("invalid agent config")
)

type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return e.Field + ": " + e.Message
}

// ErrInvalidState is returned when a card action is attempted from a
// status that disallows it.
type ErrInvalidState struct {
	Action string
	Status string
}

func (e *ErrInvalidState) Error() string {
	return fmt.Sprintf("cannot %s card with status %s", e.Action, e.Status)
}

// IsInvalidState reports whether err is an invalid-state error.
func IsInvalidState(err error) bool {
	var target *ErrInvalidState
	return errors.As(err, &target)
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool {
	var target *ErrValidation
	return errors.As(err, &target)
}
