package domain

import (
	"fmt"
	"time"
)

// BookingStatus represents the current state of a booking in its
// lifecycle.
type BookingStatus string

const (
	StatusPendingPayment BookingStatus = "PENDING_PAYMENT"
	StatusPaymentFailed  BookingStatus = "PAYMENT_FAILED"
	StatusConfirmed      BookingStatus = "CONFIRMED"
	StatusTicketed       BookingStatus = "TICKETED"
	StatusCheckedIn      BookingStatus = "CHECKED_IN"
	StatusBoarding       BookingStatus = "BOARDING"
	StatusDeparted       BookingStatus = "DEPARTED"
	StatusCompleted      BookingStatus = "COMPLETED"
	StatusCancelled      BookingStatus = "CANCELLED"
	StatusRefunded       BookingStatus = "REFUNDED"
	StatusExpired        BookingStatus = "EXPIRED"
)

// validTransitions is the single adjacency table for the booking state
// machine. CANCELLED is reachable from every non-terminal state,
// REFUNDED only from CANCELLED, EXPIRED only from PENDING_PAYMENT.
var validTransitions = map[BookingStatus][]BookingStatus{
	StatusPendingPayment: {StatusPaymentFailed, StatusConfirmed, StatusCancelled, StatusExpired},
	StatusPaymentFailed:  {StatusPendingPayment, StatusCancelled},
	StatusConfirmed:      {StatusTicketed, StatusCancelled},
	StatusTicketed:       {StatusCheckedIn, StatusCancelled},
	StatusCheckedIn:      {StatusBoarding, StatusCancelled},
	StatusBoarding:       {StatusDeparted, StatusCancelled},
	StatusDeparted:       {StatusCompleted, StatusCancelled},
	StatusCompleted:      {},
	StatusCancelled:      {StatusRefunded},
	StatusRefunded:       {},
	StatusExpired:        {},
}

// IsValid returns true if the status is a recognized booking status.
func (s BookingStatus) IsValid() bool {
	_, ok := validTransitions[s]
	return ok
}

// IsTerminal returns true if the status ends the booking lifecycle.
// CANCELLED counts as terminal even though the refund edge leaves it.
func (s BookingStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusRefunded, StatusExpired:
		return true
	}
	return false
}

// CanTransitionTo returns true if the (s, target) edge is in the table.
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	for _, t := range validTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

func (s BookingStatus) String() string {
	return string(s)
}

// ParseBookingStatus converts a string to a BookingStatus, returning an
// error if it is not in the enum.
func ParseBookingStatus(s string) (BookingStatus, error) {
	status := BookingStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid booking status: %s", s)
	}
	return status, nil
}

// TransitionRequest describes one requested status change.
// CancellationFees is consulted only when Target is CANCELLED; the
// figure comes from the caller's fee policy and is opaque here. A zero
// At means time.Now().
type TransitionRequest struct {
	Target           BookingStatus
	Actor            Actor
	Reason           string
	CancellationFees float64
	At               time.Time
}

// Transition validates the requested edge against the table and, on
// success, returns a new snapshot with the target status and exactly
// one appended modification record. The input snapshot is not touched.
// A booking whose current status is outside the enum panics: that is
// corrupt data from upstream, not a domain outcome.
func Transition(b FlightBooking, req TransitionRequest) (FlightBooking, error) {
	if !b.Status.IsValid() {
		panic(fmt.Sprintf("corrupt booking %s: unknown status %q", b.ID, b.Status))
	}
	if !b.Status.CanTransitionTo(req.Target) {
		return FlightBooking{}, &InvalidTransitionError{From: b.Status, To: req.Target}
	}

	now := req.At
	if now.IsZero() {
		now = time.Now()
	}

	next := b
	next.Modifications = make([]BookingModification, len(b.Modifications), len(b.Modifications)+1)
	copy(next.Modifications, b.Modifications)
	next.Modifications = append(next.Modifications, BookingModification{
		Type:   ModificationStatusChange,
		At:     now,
		Actor:  req.Actor,
		Field:  "status",
		From:   string(b.Status),
		To:     string(req.Target),
		Reason: req.Reason,
	})
	next.Status = req.Target
	next.UpdatedAt = now

	if req.Target == StatusCancelled {
		next.Cancellation = &Cancellation{
			Reason:       req.Reason,
			At:           now,
			Fees:         req.CancellationFees,
			RefundAmount: Refund(b.Pricing.Total, req.CancellationFees),
		}
	}
	return next, nil
}

// CanCancel reports whether a customer-facing cancel action should be
// offered. Advisory only: Transition remains the sole authority.
func CanCancel(b FlightBooking) bool {
	switch b.Status {
	case StatusPendingPayment, StatusConfirmed, StatusTicketed:
		return true
	}
	return false
}

// CanCheckIn reports whether online check-in should be offered.
func CanCheckIn(b FlightBooking) bool {
	switch b.Status {
	case StatusConfirmed, StatusTicketed:
		return true
	}
	return false
}

// CanModify reports whether passenger or itinerary edits should be
// offered.
func CanModify(b FlightBooking) bool {
	switch b.Status {
	case StatusConfirmed, StatusTicketed:
		return true
	}
	return false
}
