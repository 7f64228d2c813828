package domain

import "time"

// Actor identifies who requested a change. It is recorded on the
// modification log, not authorized here.
type Actor string

const (
	ActorCustomer Actor = "customer"
	ActorAgent    Actor = "agent"
	ActorSystem   Actor = "system"
)

type PassengerType string

const (
	PassengerAdult  PassengerType = "adult"
	PassengerChild  PassengerType = "child"
	PassengerInfant PassengerType = "infant"
)

type Passenger struct {
	FirstName string        `json:"first_name"`
	LastName  string        `json:"last_name"`
	Type      PassengerType `json:"type"`
}

// Pricing holds the price breakdown of a booking. Total is always
// Subtotal() - Discounts and never negative.
type Pricing struct {
	Base      float64 `json:"base"`
	Taxes     float64 `json:"taxes"`
	Fees      float64 `json:"fees"`
	AddOns    float64 `json:"add_ons"`
	Discounts float64 `json:"discounts"`
	Total     float64 `json:"total"`
	Currency  string  `json:"currency"`
}

type ModificationType string

const (
	ModificationStatusChange ModificationType = "status_change"
	ModificationEdit         ModificationType = "edit"
)

// BookingModification is one entry of the append-only audit trail.
type BookingModification struct {
	Type   ModificationType `json:"type"`
	At     time.Time        `json:"at"`
	Actor  Actor            `json:"actor"`
	Field  string           `json:"field"`
	From   string           `json:"from"`
	To     string           `json:"to"`
	Reason string           `json:"reason,omitempty"`
}

// Cancellation is attached once a booking passes through CANCELLED.
type Cancellation struct {
	Reason       string    `json:"reason"`
	At           time.Time `json:"at"`
	Fees         float64   `json:"fees"`
	RefundAmount float64   `json:"refund_amount"`
}

// FlightBooking is one confirmed or in-progress purchase. Engine
// functions take and return it by value as a snapshot and never mutate
// their input; persistence and locking are the caller's concern.
type FlightBooking struct {
	ID            string
	Reference     string
	UserID        string
	Origin        string
	Destination   string
	DepartureDate time.Time
	Status        BookingStatus
	Passengers    []Passenger
	Pricing       Pricing
	Modifications []BookingModification
	Cancellation  *Cancellation
	PaymentDueAt  time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
