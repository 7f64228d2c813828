package booking

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/avelora/farewatch/internal/domain"
	"github.com/avelora/farewatch/internal/kafka"
	"github.com/avelora/farewatch/internal/repository"
	"github.com/google/uuid"
)

// ErrBookingBusy is returned when another operation holds the
// per-booking lock; the caller should retry.
var ErrBookingBusy = errors.New("booking is locked by another operation")

type BookingUseCase interface {
	CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.FlightBooking, error)
	GetBooking(ctx context.Context, reference string) (*domain.FlightBooking, error)
	Transition(ctx context.Context, reference string, target domain.BookingStatus, actor domain.Actor, reason string) (*domain.FlightBooking, error)
	ExpirePendingBookings(ctx context.Context) ([]domain.FlightBooking, error)
}

// Cache serializes concurrent transitions against one booking. The
// transition engine validates a snapshot; the lock guarantees the
// snapshot is fresh.
type Cache interface {
	AcquireBookingLock(ctx context.Context, bookingID string, ttl time.Duration) (bool, error)
	ReleaseBookingLock(ctx context.Context, bookingID string) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

// FeePolicy supplies the cancellation fee for a booking. The figure is
// opaque to the transition engine, which only applies the refund floor.
type FeePolicy interface {
	CancellationFees(ctx context.Context, booking domain.FlightBooking) (float64, error)
}

type BookingService struct {
	bookings    repository.BookingRepository
	cache       Cache
	producer    Producer
	feePolicy   FeePolicy
	eventsTopic string
	paymentTTL  time.Duration
	lockTTL     time.Duration
}

type CreateBookingInput struct {
	UserID        string             `json:"user_id"`
	Origin        string             `json:"origin"`
	Destination   string             `json:"destination"`
	DepartureDate time.Time          `json:"departure_date"`
	Passengers    []domain.Passenger `json:"passengers"`
	Base          float64            `json:"base"`
	Taxes         float64            `json:"taxes"`
	Fees          float64            `json:"fees"`
	AddOns        float64            `json:"add_ons"`
	Discounts     float64            `json:"discounts"`
	Currency      string             `json:"currency"`
}

func NewBookingService(
	bookings repository.BookingRepository,
	cache Cache,
	producer Producer,
	feePolicy FeePolicy,
	eventsTopic string,
	paymentTTL, lockTTL time.Duration,
) *BookingService {
	return &BookingService{
		bookings:    bookings,
		cache:       cache,
		producer:    producer,
		feePolicy:   feePolicy,
		eventsTopic: eventsTopic,
		paymentTTL:  paymentTTL,
		lockTTL:     lockTTL,
	}
}

func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.FlightBooking, error) {
	if input.UserID == "" {
		return nil, &domain.ValidationError{Field: "userId", Reason: "is required"}
	}
	if input.Origin == "" {
		return nil, &domain.ValidationError{Field: "origin", Reason: "is required"}
	}
	if input.Destination == "" {
		return nil, &domain.ValidationError{Field: "destination", Reason: "is required"}
	}
	if input.DepartureDate.IsZero() {
		return nil, &domain.ValidationError{Field: "departureDate", Reason: "is required"}
	}
	if len(input.Passengers) == 0 {
		return nil, &domain.ValidationError{Field: "passengers", Reason: "at least one passenger is required"}
	}

	pricing, err := domain.NewPricing(input.Base, input.Taxes, input.Fees, input.AddOns, input.Discounts, input.Currency)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	booking := &domain.FlightBooking{
		ID:            uuid.NewString(),
		Reference:     domain.NewReference(),
		UserID:        input.UserID,
		Origin:        input.Origin,
		Destination:   input.Destination,
		DepartureDate: input.DepartureDate,
		Status:        domain.StatusPendingPayment,
		Passengers:    input.Passengers,
		Pricing:       pricing,
		Modifications: []domain.BookingModification{},
		PaymentDueAt:  now.Add(s.paymentTTL),
	}

	if err := s.bookings.Create(ctx, booking); err != nil {
		return nil, err
	}

	if err := s.publish(ctx, "booking_created", "", booking); err != nil {
		log.Printf("WARNING: failed to publish booking_created event for %s: %v", booking.Reference, err)
	}
	return booking, nil
}

func (s *BookingService) GetBooking(ctx context.Context, reference string) (*domain.FlightBooking, error) {
	return s.bookings.GetByReference(ctx, reference)
}

// Transition serializes on the booking reference, loads a fresh
// snapshot and runs it through the pure transition engine. Persistence
// and event publishing happen only after the engine accepts the edge.
func (s *BookingService) Transition(ctx context.Context, reference string, target domain.BookingStatus, actor domain.Actor, reason string) (*domain.FlightBooking, error) {
	if s.cache != nil {
		ok, err := s.cache.AcquireBookingLock(ctx, reference, s.lockTTL)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrBookingBusy
		}
		defer func() {
			_ = s.cache.ReleaseBookingLock(ctx, reference)
		}()
	}

	current, err := s.bookings.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}

	var fees float64
	if target == domain.StatusCancelled && s.feePolicy != nil {
		fees, err = s.feePolicy.CancellationFees(ctx, *current)
		if err != nil {
			return nil, err
		}
	}

	updated, err := domain.Transition(*current, domain.TransitionRequest{
		Target:           target,
		Actor:            actor,
		Reason:           reason,
		CancellationFees: fees,
	})
	if err != nil {
		return nil, err
	}

	if err := s.bookings.Save(ctx, &updated); err != nil {
		return nil, err
	}

	if err := s.publish(ctx, eventType(target), string(current.Status), &updated); err != nil {
		log.Printf("WARNING: failed to publish %s event for %s: %v", eventType(target), updated.Reference, err)
	}
	return &updated, nil
}

// ExpirePendingBookings moves every payment-due PENDING_PAYMENT booking
// to EXPIRED through the engine, one at a time, so each expiry lands in
// the modification log like any other transition.
func (s *BookingService) ExpirePendingBookings(ctx context.Context) ([]domain.FlightBooking, error) {
	due, err := s.bookings.ListPaymentDueBefore(ctx, time.Now())
	if err != nil {
		return nil, err
	}

	var expired []domain.FlightBooking
	for _, b := range due {
		updated, err := s.Transition(ctx, b.Reference, domain.StatusExpired, domain.ActorSystem, "payment deadline passed")
		if err != nil {
			log.Printf("expire booking %s: %v", b.Reference, err)
			continue
		}
		expired = append(expired, *updated)
	}
	return expired, nil
}

func (s *BookingService) publish(ctx context.Context, eventType, fromStatus string, booking *domain.FlightBooking) error {
	if s.producer == nil || s.eventsTopic == "" {
		return nil
	}
	event := kafka.BookingEvent{
		Type:       eventType,
		Reference:  booking.Reference,
		UserID:     booking.UserID,
		FromStatus: fromStatus,
		Status:     string(booking.Status),
		Total:      booking.Pricing.Total,
		Currency:   booking.Pricing.Currency,
		At:         booking.UpdatedAt,
	}
	return s.producer.Publish(ctx, s.eventsTopic, booking.Reference, event)
}

func eventType(target domain.BookingStatus) string {
	return "booking_" + strings.ToLower(string(target))
}

var _ BookingUseCase = (*BookingService)(nil)
