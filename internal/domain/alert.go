package domain

import (
	"time"

	"github.com/google/uuid"
)

type TripType string

const (
	TripOneWay    TripType = "one-way"
	TripRoundTrip TripType = "round-trip"
)

type AlertType string

const (
	AlertPriceBelow AlertType = "price-below"
	AlertPriceAbove AlertType = "price-above"
	AlertPriceDrop  AlertType = "price-drop"
)

// PriceHistoryCap bounds the per-alert sample history; the oldest entry
// is evicted first.
const PriceHistoryCap = 30

// PricePoint is one sampled price with its delta against the previous
// sample.
type PricePoint struct {
	Date          time.Time `json:"date"`
	Price         float64   `json:"price"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"change_percent"`
}

// PriceAlert is a user's standing instruction to watch a route/date for
// a price condition. Like FlightBooking it is handled as a value
// snapshot; EvaluateAlert returns an updated copy.
type PriceAlert struct {
	ID            string
	UserID        string
	Origin        string
	Destination   string
	DepartureDate time.Time
	ReturnDate    *time.Time
	TripType      TripType
	TargetPrice   float64
	Currency      string
	AlertType     AlertType
	Adults        int
	CurrentPrice  *float64
	LastChecked   *time.Time
	PriceHistory  []PricePoint
	IsActive      bool
	ExpiresAt     *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CreateAlertInput carries the user-supplied fields of a new alert.
type CreateAlertInput struct {
	Origin        string
	Destination   string
	DepartureDate time.Time
	ReturnDate    *time.Time
	TripType      TripType
	TargetPrice   float64
	Currency      string
	AlertType     AlertType
	Adults        int
	ExpiresAt     *time.Time
}

// NewPriceAlert validates the input and builds a fresh alert: active,
// no samples, empty history. The first failing field is reported and
// nothing is written anywhere.
func NewPriceAlert(userID string, in CreateAlertInput, now time.Time) (PriceAlert, error) {
	if in.Origin == "" {
		return PriceAlert{}, &ValidationError{Field: "origin", Reason: "is required"}
	}
	if in.Destination == "" {
		return PriceAlert{}, &ValidationError{Field: "destination", Reason: "is required"}
	}
	if in.DepartureDate.IsZero() {
		return PriceAlert{}, &ValidationError{Field: "departureDate", Reason: "is required"}
	}
	// Same-day departures are allowed, so compare at day granularity.
	today := now.Truncate(24 * time.Hour)
	if in.DepartureDate.Truncate(24 * time.Hour).Before(today) {
		return PriceAlert{}, &ValidationError{Field: "departureDate", Reason: "must not be in the past"}
	}

	tripType := in.TripType
	if tripType == "" {
		tripType = TripOneWay
	}
	switch tripType {
	case TripOneWay, TripRoundTrip:
	default:
		return PriceAlert{}, &ValidationError{Field: "tripType", Reason: "must be one-way or round-trip"}
	}
	if tripType == TripRoundTrip {
		if in.ReturnDate == nil {
			return PriceAlert{}, &ValidationError{Field: "returnDate", Reason: "is required for round-trip"}
		}
		if !in.ReturnDate.After(in.DepartureDate) {
			return PriceAlert{}, &ValidationError{Field: "returnDate", Reason: "must be after departure date"}
		}
	}

	if in.TargetPrice <= 0 {
		return PriceAlert{}, &ValidationError{Field: "targetPrice", Reason: "must be greater than zero"}
	}
	switch in.AlertType {
	case AlertPriceBelow, AlertPriceAbove, AlertPriceDrop:
	default:
		return PriceAlert{}, &ValidationError{Field: "alertType", Reason: "must be price-below, price-above or price-drop"}
	}
	if in.Adults < 1 {
		return PriceAlert{}, &ValidationError{Field: "adults", Reason: "at least one adult passenger is required"}
	}

	currency := in.Currency
	if currency == "" {
		currency = "USD"
	}

	return PriceAlert{
		ID:            uuid.NewString(),
		UserID:        userID,
		Origin:        in.Origin,
		Destination:   in.Destination,
		DepartureDate: in.DepartureDate,
		ReturnDate:    in.ReturnDate,
		TripType:      tripType,
		TargetPrice:   in.TargetPrice,
		Currency:      currency,
		AlertType:     in.AlertType,
		Adults:        in.Adults,
		PriceHistory:  []PricePoint{},
		IsActive:      true,
		ExpiresAt:     in.ExpiresAt,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// ToggleActive flips the active switch and nothing else.
func ToggleActive(a PriceAlert, now time.Time) PriceAlert {
	a.IsActive = !a.IsActive
	a.UpdatedAt = now
	return a
}

// Expired reports whether the alert's expiry has passed. A nil
// ExpiresAt never expires.
func (a PriceAlert) Expired(now time.Time) bool {
	return a.ExpiresAt != nil && now.After(*a.ExpiresAt)
}

// EligibleForSweep reports whether the sweep should evaluate this
// alert. The check belongs to the caller; EvaluateAlert itself never
// looks at IsActive or ExpiresAt.
func (a PriceAlert) EligibleForSweep(now time.Time) bool {
	return a.IsActive && !a.Expired(now)
}
