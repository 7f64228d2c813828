package alerts

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/avelora/farewatch/internal/domain"
	"github.com/avelora/farewatch/internal/kafka"
	"github.com/avelora/farewatch/internal/repository"
)

type AlertUseCase interface {
	CreateAlert(ctx context.Context, userID string, input domain.CreateAlertInput) (*domain.PriceAlert, error)
	GetAlert(ctx context.Context, id string) (*domain.PriceAlert, error)
	ListAlerts(ctx context.Context, userID string) ([]domain.PriceAlert, error)
	UpdateAlert(ctx context.Context, id string, input UpdateAlertInput) (*domain.PriceAlert, error)
	ToggleActive(ctx context.Context, id string) (*domain.PriceAlert, error)
	DeleteAlert(ctx context.Context, id string) error
	SweepOnce(ctx context.Context) (SweepStats, error)
}

// Cache provides the per-alert sweep lease so two workers never
// evaluate the same alert for one cycle, plus a short-lived route-level
// quote cache shared by alerts watching the same trip.
type Cache interface {
	AcquireAlertLease(ctx context.Context, alertID string, ttl time.Duration) (bool, error)
	ReleaseAlertLease(ctx context.Context, alertID string) error
	GetQuote(ctx context.Context, route string) (float64, bool, error)
	SetQuote(ctx context.Context, route string, price float64) error
}

// Sampler is the price-sampling collaborator: one externally sourced
// quote per call. Failures skip the alert's sweep iteration.
type Sampler interface {
	SampleCurrentPrice(ctx context.Context, alert domain.PriceAlert) (float64, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

// UpdateAlertInput carries the user-editable fields; nil means leave
// unchanged.
type UpdateAlertInput struct {
	TargetPrice *float64
	AlertType   *domain.AlertType
	ExpiresAt   *time.Time
}

type SweepStats struct {
	Evaluated int
	Skipped   int
	Triggered int
}

type AlertService struct {
	alerts             repository.AlertRepository
	cache              Cache
	sampler            Sampler
	producer           Producer
	notificationsTopic string
	leaseTTL           time.Duration
}

func NewAlertService(
	alerts repository.AlertRepository,
	cache Cache,
	sampler Sampler,
	producer Producer,
	notificationsTopic string,
	leaseTTL time.Duration,
) *AlertService {
	return &AlertService{
		alerts:             alerts,
		cache:              cache,
		sampler:            sampler,
		producer:           producer,
		notificationsTopic: notificationsTopic,
		leaseTTL:           leaseTTL,
	}
}

func (s *AlertService) CreateAlert(ctx context.Context, userID string, input domain.CreateAlertInput) (*domain.PriceAlert, error) {
	if userID == "" {
		return nil, &domain.ValidationError{Field: "userId", Reason: "is required"}
	}

	alert, err := domain.NewPriceAlert(userID, input, time.Now())
	if err != nil {
		return nil, err
	}

	if err := s.alerts.Create(ctx, &alert); err != nil {
		return nil, err
	}
	return &alert, nil
}

func (s *AlertService) GetAlert(ctx context.Context, id string) (*domain.PriceAlert, error) {
	return s.alerts.GetByID(ctx, id)
}

func (s *AlertService) ListAlerts(ctx context.Context, userID string) ([]domain.PriceAlert, error) {
	return s.alerts.ListByUser(ctx, userID)
}

func (s *AlertService) UpdateAlert(ctx context.Context, id string, input UpdateAlertInput) (*domain.PriceAlert, error) {
	alert, err := s.alerts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.TargetPrice != nil {
		if *input.TargetPrice <= 0 {
			return nil, &domain.ValidationError{Field: "targetPrice", Reason: "must be greater than zero"}
		}
		alert.TargetPrice = *input.TargetPrice
	}
	if input.AlertType != nil {
		switch *input.AlertType {
		case domain.AlertPriceBelow, domain.AlertPriceAbove, domain.AlertPriceDrop:
		default:
			return nil, &domain.ValidationError{Field: "alertType", Reason: "must be price-below, price-above or price-drop"}
		}
		alert.AlertType = *input.AlertType
	}
	if input.ExpiresAt != nil {
		alert.ExpiresAt = input.ExpiresAt
	}
	alert.UpdatedAt = time.Now()

	if err := s.alerts.Save(ctx, alert); err != nil {
		return nil, err
	}
	return alert, nil
}

func (s *AlertService) ToggleActive(ctx context.Context, id string) (*domain.PriceAlert, error) {
	alert, err := s.alerts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	toggled := domain.ToggleActive(*alert, time.Now())
	if err := s.alerts.Save(ctx, &toggled); err != nil {
		return nil, err
	}
	return &toggled, nil
}

func (s *AlertService) DeleteAlert(ctx context.Context, id string) error {
	return s.alerts.Delete(ctx, id)
}

// SweepOnce runs one evaluation pass over every eligible alert. Each
// iteration takes a lease, samples one price, feeds the engine,
// persists the updated alert and hands any notification directive to
// the event stream. A slow or failed sample skips just that alert; the
// sweep as a whole is cancellable between iterations.
func (s *AlertService) SweepOnce(ctx context.Context) (SweepStats, error) {
	var stats SweepStats

	now := time.Now()
	eligible, err := s.alerts.ListActive(ctx, now)
	if err != nil {
		return stats, err
	}

	for _, alert := range eligible {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		default:
		}

		if !alert.EligibleForSweep(time.Now()) {
			stats.Skipped++
			continue
		}

		if s.cache != nil {
			ok, err := s.cache.AcquireAlertLease(ctx, alert.ID, s.leaseTTL)
			if err != nil || !ok {
				if err != nil {
					log.Printf("acquire lease for alert %s: %v", alert.ID, err)
				}
				stats.Skipped++
				continue
			}
		}

		if err := s.sweepAlert(ctx, alert, &stats); err != nil {
			log.Printf("sweep alert %s: %v", alert.ID, err)
			stats.Skipped++
		}

		if s.cache != nil {
			_ = s.cache.ReleaseAlertLease(ctx, alert.ID)
		}
	}
	return stats, nil
}

func (s *AlertService) sweepAlert(ctx context.Context, alert domain.PriceAlert, stats *SweepStats) error {
	price, err := s.samplePrice(ctx, alert)
	if err != nil {
		return fmt.Errorf("sample price: %w", err)
	}

	eval := domain.EvaluateAlert(alert, price, time.Now())
	if err := s.alerts.Save(ctx, &eval.Alert); err != nil {
		return fmt.Errorf("save alert: %w", err)
	}
	stats.Evaluated++

	if eval.Notification == nil {
		return nil
	}
	stats.Triggered++

	if s.producer == nil || s.notificationsTopic == "" {
		return nil
	}
	event := kafka.NotificationEvent{
		UserID:       alert.UserID,
		Notification: *eval.Notification,
		At:           time.Now(),
	}
	if err := s.producer.Publish(ctx, s.notificationsTopic, alert.ID, event); err != nil {
		// The alert update is already persisted; delivery failures do
		// not roll it back.
		log.Printf("WARNING: failed to publish notification for alert %s: %v", alert.ID, err)
	}
	return nil
}

func (s *AlertService) samplePrice(ctx context.Context, alert domain.PriceAlert) (float64, error) {
	route := quoteRoute(alert)
	if s.cache != nil {
		if price, ok, err := s.cache.GetQuote(ctx, route); err == nil && ok {
			return price, nil
		}
	}

	price, err := s.sampler.SampleCurrentPrice(ctx, alert)
	if err != nil {
		return 0, err
	}
	if s.cache != nil {
		_ = s.cache.SetQuote(ctx, route, price)
	}
	return price, nil
}

func quoteRoute(alert domain.PriceAlert) string {
	route := fmt.Sprintf("%s:%s:%s", alert.Origin, alert.Destination, alert.DepartureDate.Format("2006-01-02"))
	if alert.ReturnDate != nil {
		route += ":" + alert.ReturnDate.Format("2006-01-02")
	}
	return route
}

var _ AlertUseCase = (*AlertService)(nil)
