package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/avelora/farewatch/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *domain.FlightBooking) error
	GetByReference(ctx context.Context, reference string) (*domain.FlightBooking, error)
	Save(ctx context.Context, booking *domain.FlightBooking) error
	ListPaymentDueBefore(ctx context.Context, deadline time.Time) ([]domain.FlightBooking, error)
}

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

const bookingColumns = `id, reference, user_id, origin, destination, departure_date, status, passengers, pricing, modifications, cancellation, payment_due_at, created_at, updated_at`

func (r *PGBookingRepository) Create(ctx context.Context, booking *domain.FlightBooking) error {
	passengers, pricing, modifications, cancellation, err := marshalBookingParts(booking)
	if err != nil {
		return err
	}

	return r.db.QueryRow(ctx, `INSERT INTO bookings (id, reference, user_id, origin, destination, departure_date, status, passengers, pricing, modifications, cancellation, payment_due_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at`,
		booking.ID, booking.Reference, booking.UserID, booking.Origin, booking.Destination, booking.DepartureDate,
		booking.Status, passengers, pricing, modifications, cancellation, booking.PaymentDueAt).
		Scan(&booking.CreatedAt, &booking.UpdatedAt)
}

func (r *PGBookingRepository) GetByReference(ctx context.Context, reference string) (*domain.FlightBooking, error) {
	row := r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE reference=$1`, reference)
	booking, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &domain.NotFoundError{Kind: "booking", ID: reference}
		}
		return nil, err
	}
	return booking, nil
}

func (r *PGBookingRepository) Save(ctx context.Context, booking *domain.FlightBooking) error {
	passengers, pricing, modifications, cancellation, err := marshalBookingParts(booking)
	if err != nil {
		return err
	}

	cmd, err := r.db.Exec(ctx, `UPDATE bookings SET status=$1, passengers=$2, pricing=$3, modifications=$4, cancellation=$5, updated_at=$6 WHERE id=$7`,
		booking.Status, passengers, pricing, modifications, cancellation, booking.UpdatedAt, booking.ID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return &domain.NotFoundError{Kind: "booking", ID: booking.ID}
	}
	return nil
}

func (r *PGBookingRepository) ListPaymentDueBefore(ctx context.Context, deadline time.Time) ([]domain.FlightBooking, error) {
	rows, err := r.db.Query(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE status=$1 AND payment_due_at <= $2 ORDER BY payment_due_at`,
		domain.StatusPendingPayment, deadline)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var due []domain.FlightBooking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		due = append(due, *booking)
	}
	return due, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*domain.FlightBooking, error) {
	var (
		b             domain.FlightBooking
		passengers    []byte
		pricing       []byte
		modifications []byte
		cancellation  []byte
	)
	if err := row.Scan(&b.ID, &b.Reference, &b.UserID, &b.Origin, &b.Destination, &b.DepartureDate, &b.Status,
		&passengers, &pricing, &modifications, &cancellation, &b.PaymentDueAt, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(passengers, &b.Passengers); err != nil {
		return nil, fmt.Errorf("decode passengers: %w", err)
	}
	if err := json.Unmarshal(pricing, &b.Pricing); err != nil {
		return nil, fmt.Errorf("decode pricing: %w", err)
	}
	if err := json.Unmarshal(modifications, &b.Modifications); err != nil {
		return nil, fmt.Errorf("decode modifications: %w", err)
	}
	if cancellation != nil {
		if err := json.Unmarshal(cancellation, &b.Cancellation); err != nil {
			return nil, fmt.Errorf("decode cancellation: %w", err)
		}
	}
	return &b, nil
}

func marshalBookingParts(b *domain.FlightBooking) (passengers, pricing, modifications, cancellation []byte, err error) {
	if passengers, err = json.Marshal(b.Passengers); err != nil {
		return
	}
	if pricing, err = json.Marshal(b.Pricing); err != nil {
		return
	}
	if modifications, err = json.Marshal(b.Modifications); err != nil {
		return
	}
	if b.Cancellation != nil {
		cancellation, err = json.Marshal(b.Cancellation)
	}
	return
}

var _ BookingRepository = (*PGBookingRepository)(nil)
