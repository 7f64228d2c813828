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

type AlertRepository interface {
	Create(ctx context.Context, alert *domain.PriceAlert) error
	GetByID(ctx context.Context, id string) (*domain.PriceAlert, error)
	ListByUser(ctx context.Context, userID string) ([]domain.PriceAlert, error)
	ListActive(ctx context.Context, now time.Time) ([]domain.PriceAlert, error)
	Save(ctx context.Context, alert *domain.PriceAlert) error
	Delete(ctx context.Context, id string) error
}

type PGAlertRepository struct {
	db *pgxpool.Pool
}

func NewAlertRepository(db *pgxpool.Pool) AlertRepository {
	return &PGAlertRepository{db: db}
}

const alertColumns = `id, user_id, origin, destination, departure_date, return_date, trip_type, target_price, currency, alert_type, adults, current_price, last_checked, price_history, is_active, expires_at, created_at, updated_at`

func (r *PGAlertRepository) Create(ctx context.Context, alert *domain.PriceAlert) error {
	history, err := json.Marshal(alert.PriceHistory)
	if err != nil {
		return fmt.Errorf("encode price history: %w", err)
	}

	_, err = r.db.Exec(ctx, `INSERT INTO price_alerts (id, user_id, origin, destination, departure_date, return_date, trip_type, target_price, currency, alert_type, adults, price_history, is_active, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		alert.ID, alert.UserID, alert.Origin, alert.Destination, alert.DepartureDate, alert.ReturnDate,
		alert.TripType, alert.TargetPrice, alert.Currency, alert.AlertType, alert.Adults,
		history, alert.IsActive, alert.ExpiresAt, alert.CreatedAt, alert.UpdatedAt)
	return err
}

func (r *PGAlertRepository) GetByID(ctx context.Context, id string) (*domain.PriceAlert, error) {
	row := r.db.QueryRow(ctx, `SELECT `+alertColumns+` FROM price_alerts WHERE id=$1`, id)
	alert, err := scanAlert(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &domain.NotFoundError{Kind: "alert", ID: id}
		}
		return nil, err
	}
	return alert, nil
}

func (r *PGAlertRepository) ListByUser(ctx context.Context, userID string) ([]domain.PriceAlert, error) {
	rows, err := r.db.Query(ctx, `SELECT `+alertColumns+` FROM price_alerts WHERE user_id=$1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAlerts(rows)
}

// ListActive returns the alerts eligible for a sweep: active and not
// yet past their expiry.
func (r *PGAlertRepository) ListActive(ctx context.Context, now time.Time) ([]domain.PriceAlert, error) {
	rows, err := r.db.Query(ctx, `SELECT `+alertColumns+` FROM price_alerts WHERE is_active AND (expires_at IS NULL OR expires_at > $1) ORDER BY created_at`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAlerts(rows)
}

func (r *PGAlertRepository) Save(ctx context.Context, alert *domain.PriceAlert) error {
	history, err := json.Marshal(alert.PriceHistory)
	if err != nil {
		return fmt.Errorf("encode price history: %w", err)
	}

	cmd, err := r.db.Exec(ctx, `UPDATE price_alerts SET target_price=$1, currency=$2, alert_type=$3, current_price=$4, last_checked=$5, price_history=$6, is_active=$7, expires_at=$8, updated_at=$9 WHERE id=$10`,
		alert.TargetPrice, alert.Currency, alert.AlertType, alert.CurrentPrice, alert.LastChecked,
		history, alert.IsActive, alert.ExpiresAt, alert.UpdatedAt, alert.ID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return &domain.NotFoundError{Kind: "alert", ID: alert.ID}
	}
	return nil
}

// Delete removes the alert row for good; there is no tombstone.
func (r *PGAlertRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM price_alerts WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return &domain.NotFoundError{Kind: "alert", ID: id}
	}
	return nil
}

func scanAlert(row rowScanner) (*domain.PriceAlert, error) {
	var (
		a       domain.PriceAlert
		history []byte
	)
	if err := row.Scan(&a.ID, &a.UserID, &a.Origin, &a.Destination, &a.DepartureDate, &a.ReturnDate,
		&a.TripType, &a.TargetPrice, &a.Currency, &a.AlertType, &a.Adults, &a.CurrentPrice,
		&a.LastChecked, &history, &a.IsActive, &a.ExpiresAt, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(history, &a.PriceHistory); err != nil {
		return nil, fmt.Errorf("decode price history: %w", err)
	}
	return &a, nil
}

func collectAlerts(rows pgx.Rows) ([]domain.PriceAlert, error) {
	var alerts []domain.PriceAlert
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, *alert)
	}
	return alerts, rows.Err()
}

var _ AlertRepository = (*PGAlertRepository)(nil)
