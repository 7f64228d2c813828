package domain

import "fmt"

// ValidationError reports the first failing field of a create or update
// request. Callers fix the input; it is never retried automatically.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// InvalidTransitionError rejects a booking status change whose edge is
// not in the transition table.
type InvalidTransitionError struct {
	From BookingStatus
	To   BookingStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition from %s to %s", e.From, e.To)
}

// NotFoundError marks a missing booking or alert at the persistence
// boundary.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// UnauthorizedError marks an action the actor may not perform.
// Authorization policy lives outside the engines; the kind exists so
// callers can distinguish it from validation failures.
type UnauthorizedError struct {
	Action string
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("not authorized to %s", e.Action)
}
