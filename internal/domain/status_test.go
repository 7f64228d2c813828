package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBooking(status BookingStatus) FlightBooking {
	return FlightBooking{
		ID:          "b-1",
		Reference:   "ABC123",
		UserID:      "u-1",
		Origin:      "SVO",
		Destination: "LED",
		Status:      status,
		Passengers: []Passenger{
			{FirstName: "Anna", LastName: "Petrova", Type: PassengerAdult},
		},
		Pricing: Pricing{Base: 400, Taxes: 80, Fees: 20, Total: 500, Currency: "USD"},
	}
}

func TestTransition_LegalEdge(t *testing.T) {
	b := testBooking(StatusPendingPayment)

	next, err := Transition(b, TransitionRequest{Target: StatusConfirmed, Actor: ActorSystem, Reason: "payment captured"})
	require.NoError(t, err)

	assert.Equal(t, StatusConfirmed, next.Status)
	assert.Equal(t, b.ID, next.ID)
	assert.Equal(t, b.Reference, next.Reference)
	require.Len(t, next.Modifications, 1)
	mod := next.Modifications[0]
	assert.Equal(t, ModificationStatusChange, mod.Type)
	assert.Equal(t, ActorSystem, mod.Actor)
	assert.Equal(t, "status", mod.Field)
	assert.Equal(t, "PENDING_PAYMENT", mod.From)
	assert.Equal(t, "CONFIRMED", mod.To)
	assert.Equal(t, "payment captured", mod.Reason)
}

func TestTransition_IllegalEdge(t *testing.T) {
	b := testBooking(StatusPendingPayment)

	_, err := Transition(b, TransitionRequest{Target: StatusCheckedIn, Actor: ActorCustomer})
	require.Error(t, err)

	var invalid *InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, StatusPendingPayment, invalid.From)
	assert.Equal(t, StatusCheckedIn, invalid.To)
}

func TestTransition_DoesNotMutateInput(t *testing.T) {
	b := testBooking(StatusConfirmed)
	b.Modifications = []BookingModification{{Type: ModificationStatusChange, Field: "status", From: "PENDING_PAYMENT", To: "CONFIRMED"}}

	next, err := Transition(b, TransitionRequest{Target: StatusTicketed, Actor: ActorAgent})
	require.NoError(t, err)

	assert.Equal(t, StatusConfirmed, b.Status)
	assert.Len(t, b.Modifications, 1)
	assert.Len(t, next.Modifications, 2)
	assert.Nil(t, b.Cancellation)
}

func TestTransition_ModificationLogGrowsByOne(t *testing.T) {
	b := testBooking(StatusPendingPayment)

	chain := []BookingStatus{StatusConfirmed, StatusTicketed, StatusCheckedIn, StatusBoarding, StatusDeparted, StatusCompleted}
	for i, target := range chain {
		next, err := Transition(b, TransitionRequest{Target: target, Actor: ActorSystem})
		require.NoError(t, err)
		assert.Len(t, next.Modifications, i+1)
		b = next
	}
	assert.Equal(t, StatusCompleted, b.Status)
}

func TestTransition_CancelAttachesRefund(t *testing.T) {
	b := testBooking(StatusTicketed)

	next, err := Transition(b, TransitionRequest{
		Target:           StatusCancelled,
		Actor:            ActorCustomer,
		Reason:           "change of plans",
		CancellationFees: 120,
		At:               time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	require.NotNil(t, next.Cancellation)
	assert.Equal(t, "change of plans", next.Cancellation.Reason)
	assert.Equal(t, 120.0, next.Cancellation.Fees)
	assert.Equal(t, 380.0, next.Cancellation.RefundAmount)
	assert.Equal(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), next.Cancellation.At)
}

func TestTransition_RefundedOnlyFromCancelled(t *testing.T) {
	for _, status := range []BookingStatus{StatusPendingPayment, StatusConfirmed, StatusTicketed, StatusCompleted} {
		_, err := Transition(testBooking(status), TransitionRequest{Target: StatusRefunded, Actor: ActorAgent})
		assert.Error(t, err, "REFUNDED should not be reachable from %s", status)
	}

	cancelled, err := Transition(testBooking(StatusConfirmed), TransitionRequest{Target: StatusCancelled, Actor: ActorAgent})
	require.NoError(t, err)
	refunded, err := Transition(cancelled, TransitionRequest{Target: StatusRefunded, Actor: ActorSystem})
	require.NoError(t, err)
	assert.Equal(t, StatusRefunded, refunded.Status)
}

func TestTransition_ExpiredOnlyFromPendingPayment(t *testing.T) {
	next, err := Transition(testBooking(StatusPendingPayment), TransitionRequest{Target: StatusExpired, Actor: ActorSystem})
	require.NoError(t, err)
	assert.Equal(t, StatusExpired, next.Status)

	for _, status := range []BookingStatus{StatusConfirmed, StatusTicketed, StatusCheckedIn, StatusCancelled} {
		_, err := Transition(testBooking(status), TransitionRequest{Target: StatusExpired, Actor: ActorSystem})
		assert.Error(t, err, "EXPIRED should not be reachable from %s", status)
	}
}

func TestTransition_CancelledReachableFromEveryNonTerminalState(t *testing.T) {
	for status := range validTransitions {
		if status.IsTerminal() {
			continue
		}
		_, err := Transition(testBooking(status), TransitionRequest{Target: StatusCancelled, Actor: ActorAgent})
		assert.NoError(t, err, "CANCELLED should be reachable from %s", status)
	}
}

func TestTransition_TerminalStatesRejectForwardEdges(t *testing.T) {
	for _, status := range []BookingStatus{StatusCompleted, StatusRefunded, StatusExpired} {
		for target := range validTransitions {
			_, err := Transition(testBooking(status), TransitionRequest{Target: target, Actor: ActorSystem})
			assert.Error(t, err, "%s -> %s should be rejected", status, target)
		}
	}
}

func TestTransition_CorruptStatusPanics(t *testing.T) {
	b := testBooking("TELEPORTED")
	assert.Panics(t, func() {
		_, _ = Transition(b, TransitionRequest{Target: StatusConfirmed, Actor: ActorSystem})
	})
}

func TestCanCancelImpliesCancelSucceeds(t *testing.T) {
	for status := range validTransitions {
		b := testBooking(status)
		if !CanCancel(b) {
			continue
		}
		_, err := Transition(b, TransitionRequest{Target: StatusCancelled, Actor: ActorCustomer})
		assert.NoError(t, err, "CanCancel is true for %s but cancel failed", status)
	}
}

func TestPredicates(t *testing.T) {
	cases := []struct {
		status     BookingStatus
		canCancel  bool
		canCheckIn bool
		canModify  bool
	}{
		{StatusPendingPayment, true, false, false},
		{StatusPaymentFailed, false, false, false},
		{StatusConfirmed, true, true, true},
		{StatusTicketed, true, true, true},
		{StatusCheckedIn, false, false, false},
		{StatusBoarding, false, false, false},
		{StatusDeparted, false, false, false},
		{StatusCompleted, false, false, false},
		{StatusCancelled, false, false, false},
		{StatusRefunded, false, false, false},
		{StatusExpired, false, false, false},
	}
	for _, tc := range cases {
		b := testBooking(tc.status)
		assert.Equal(t, tc.canCancel, CanCancel(b), "CanCancel(%s)", tc.status)
		assert.Equal(t, tc.canCheckIn, CanCheckIn(b), "CanCheckIn(%s)", tc.status)
		assert.Equal(t, tc.canModify, CanModify(b), "CanModify(%s)", tc.status)
	}
}

func TestPredicates_Idempotent(t *testing.T) {
	b := testBooking(StatusConfirmed)
	before := b

	for i := 0; i < 3; i++ {
		assert.True(t, CanCancel(b))
		assert.True(t, CanCheckIn(b))
		assert.True(t, CanModify(b))
	}
	assert.Equal(t, before, b)
}

func TestParseBookingStatus(t *testing.T) {
	status, err := ParseBookingStatus("TICKETED")
	require.NoError(t, err)
	assert.Equal(t, StatusTicketed, status)

	_, err = ParseBookingStatus("ticketed")
	assert.Error(t, err)
}
