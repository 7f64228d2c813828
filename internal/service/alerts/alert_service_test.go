package alerts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/avelora/farewatch/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockAlertRepository struct {
	mock.Mock
}

func (m *MockAlertRepository) Create(ctx context.Context, alert *domain.PriceAlert) error {
	args := m.Called(ctx, alert)
	return args.Error(0)
}

func (m *MockAlertRepository) GetByID(ctx context.Context, id string) (*domain.PriceAlert, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PriceAlert), args.Error(1)
}

func (m *MockAlertRepository) ListByUser(ctx context.Context, userID string) ([]domain.PriceAlert, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.PriceAlert), args.Error(1)
}

func (m *MockAlertRepository) ListActive(ctx context.Context, now time.Time) ([]domain.PriceAlert, error) {
	args := m.Called(ctx, now)
	return args.Get(0).([]domain.PriceAlert), args.Error(1)
}

func (m *MockAlertRepository) Save(ctx context.Context, alert *domain.PriceAlert) error {
	args := m.Called(ctx, alert)
	return args.Error(0)
}

func (m *MockAlertRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) AcquireAlertLease(ctx context.Context, alertID string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, alertID, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockCache) ReleaseAlertLease(ctx context.Context, alertID string) error {
	args := m.Called(ctx, alertID)
	return args.Error(0)
}

func (m *MockCache) GetQuote(ctx context.Context, route string) (float64, bool, error) {
	args := m.Called(ctx, route)
	return args.Get(0).(float64), args.Bool(1), args.Error(2)
}

func (m *MockCache) SetQuote(ctx context.Context, route string, price float64) error {
	args := m.Called(ctx, route, price)
	return args.Error(0)
}

type MockSampler struct {
	mock.Mock
}

func (m *MockSampler) SampleCurrentPrice(ctx context.Context, alert domain.PriceAlert) (float64, error) {
	args := m.Called(ctx, alert)
	return args.Get(0).(float64), args.Error(1)
}

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, topic, key string, value interface{}) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

func newTestService(repo *MockAlertRepository, cache *MockCache, sampler *MockSampler, producer *MockProducer) *AlertService {
	return NewAlertService(repo, cache, sampler, producer, "price-alert-notifications", time.Minute)
}

func activeAlert(id string, alertType domain.AlertType, target float64) domain.PriceAlert {
	return domain.PriceAlert{
		ID:            id,
		UserID:        "u-1",
		Origin:        "JFK",
		Destination:   "LHR",
		DepartureDate: time.Now().AddDate(0, 1, 0),
		TripType:      domain.TripOneWay,
		TargetPrice:   target,
		Currency:      "USD",
		AlertType:     alertType,
		Adults:        1,
		PriceHistory:  []domain.PricePoint{},
		IsActive:      true,
	}
}

func TestCreateAlert(t *testing.T) {
	repo := &MockAlertRepository{}
	service := newTestService(repo, &MockCache{}, &MockSampler{}, &MockProducer{})

	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.PriceAlert")).Return(nil)

	created, err := service.CreateAlert(context.Background(), "u-1", domain.CreateAlertInput{
		Origin:        "JFK",
		Destination:   "LHR",
		DepartureDate: time.Now().AddDate(0, 1, 0),
		TargetPrice:   500,
		AlertType:     domain.AlertPriceBelow,
		Adults:        1,
	})
	require.NoError(t, err)

	assert.True(t, created.IsActive)
	assert.Nil(t, created.CurrentPrice)
	repo.AssertExpectations(t)
}

func TestCreateAlert_ValidationFailureWritesNothing(t *testing.T) {
	repo := &MockAlertRepository{}
	service := newTestService(repo, &MockCache{}, &MockSampler{}, &MockProducer{})

	_, err := service.CreateAlert(context.Background(), "u-1", domain.CreateAlertInput{
		Origin:      "JFK",
		Destination: "LHR",
		TargetPrice: 500,
	})

	var validation *domain.ValidationError
	require.ErrorAs(t, err, &validation)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestUpdateAlert_RejectsBadTargetPrice(t *testing.T) {
	repo := &MockAlertRepository{}
	service := newTestService(repo, &MockCache{}, &MockSampler{}, &MockProducer{})

	alert := activeAlert("a-1", domain.AlertPriceBelow, 500)
	repo.On("GetByID", mock.Anything, "a-1").Return(&alert, nil)

	bad := -5.0
	_, err := service.UpdateAlert(context.Background(), "a-1", UpdateAlertInput{TargetPrice: &bad})

	var validation *domain.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "targetPrice", validation.Field)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestToggleActive(t *testing.T) {
	repo := &MockAlertRepository{}
	service := newTestService(repo, &MockCache{}, &MockSampler{}, &MockProducer{})

	alert := activeAlert("a-1", domain.AlertPriceBelow, 500)
	repo.On("GetByID", mock.Anything, "a-1").Return(&alert, nil)
	repo.On("Save", mock.Anything, mock.AnythingOfType("*domain.PriceAlert")).Return(nil)

	toggled, err := service.ToggleActive(context.Background(), "a-1")
	require.NoError(t, err)
	assert.False(t, toggled.IsActive)
}

func TestDeleteAlert_NotFound(t *testing.T) {
	repo := &MockAlertRepository{}
	service := newTestService(repo, &MockCache{}, &MockSampler{}, &MockProducer{})

	repo.On("Delete", mock.Anything, "missing").Return(&domain.NotFoundError{Kind: "alert", ID: "missing"})

	err := service.DeleteAlert(context.Background(), "missing")

	var notFound *domain.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestSweepOnce_TriggersAndPublishes(t *testing.T) {
	repo := &MockAlertRepository{}
	cache := &MockCache{}
	sampler := &MockSampler{}
	producer := &MockProducer{}
	service := newTestService(repo, cache, sampler, producer)

	alert := activeAlert("a-1", domain.AlertPriceBelow, 500)
	repo.On("ListActive", mock.Anything, mock.AnythingOfType("time.Time")).Return([]domain.PriceAlert{alert}, nil)
	cache.On("AcquireAlertLease", mock.Anything, "a-1", time.Minute).Return(true, nil)
	cache.On("ReleaseAlertLease", mock.Anything, "a-1").Return(nil)
	cache.On("GetQuote", mock.Anything, mock.AnythingOfType("string")).Return(0.0, false, nil)
	cache.On("SetQuote", mock.Anything, mock.AnythingOfType("string"), 480.0).Return(nil)
	sampler.On("SampleCurrentPrice", mock.Anything, alert).Return(480.0, nil)
	repo.On("Save", mock.Anything, mock.MatchedBy(func(a *domain.PriceAlert) bool {
		return a.CurrentPrice != nil && *a.CurrentPrice == 480.0 && len(a.PriceHistory) == 1
	})).Return(nil)
	producer.On("Publish", mock.Anything, "price-alert-notifications", "a-1", mock.Anything).Return(nil)

	stats, err := service.SweepOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Evaluated)
	assert.Equal(t, 1, stats.Triggered)
	assert.Equal(t, 0, stats.Skipped)
	repo.AssertExpectations(t)
	producer.AssertExpectations(t)
}

func TestSweepOnce_NoTriggerNoPublish(t *testing.T) {
	repo := &MockAlertRepository{}
	cache := &MockCache{}
	sampler := &MockSampler{}
	producer := &MockProducer{}
	service := newTestService(repo, cache, sampler, producer)

	alert := activeAlert("a-1", domain.AlertPriceBelow, 500)
	repo.On("ListActive", mock.Anything, mock.AnythingOfType("time.Time")).Return([]domain.PriceAlert{alert}, nil)
	cache.On("AcquireAlertLease", mock.Anything, "a-1", time.Minute).Return(true, nil)
	cache.On("ReleaseAlertLease", mock.Anything, "a-1").Return(nil)
	cache.On("GetQuote", mock.Anything, mock.AnythingOfType("string")).Return(0.0, false, nil)
	cache.On("SetQuote", mock.Anything, mock.AnythingOfType("string"), 520.0).Return(nil)
	sampler.On("SampleCurrentPrice", mock.Anything, alert).Return(520.0, nil)
	repo.On("Save", mock.Anything, mock.AnythingOfType("*domain.PriceAlert")).Return(nil)

	stats, err := service.SweepOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Evaluated)
	assert.Equal(t, 0, stats.Triggered)
	producer.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSweepOnce_SkipsLeasedAlert(t *testing.T) {
	repo := &MockAlertRepository{}
	cache := &MockCache{}
	sampler := &MockSampler{}
	service := newTestService(repo, cache, sampler, &MockProducer{})

	alert := activeAlert("a-1", domain.AlertPriceBelow, 500)
	repo.On("ListActive", mock.Anything, mock.AnythingOfType("time.Time")).Return([]domain.PriceAlert{alert}, nil)
	cache.On("AcquireAlertLease", mock.Anything, "a-1", time.Minute).Return(false, nil)

	stats, err := service.SweepOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, stats.Evaluated)
	assert.Equal(t, 1, stats.Skipped)
	sampler.AssertNotCalled(t, "SampleCurrentPrice", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestSweepOnce_SampleFailureSkipsAlert(t *testing.T) {
	repo := &MockAlertRepository{}
	cache := &MockCache{}
	sampler := &MockSampler{}
	service := newTestService(repo, cache, sampler, &MockProducer{})

	alert := activeAlert("a-1", domain.AlertPriceBelow, 500)
	repo.On("ListActive", mock.Anything, mock.AnythingOfType("time.Time")).Return([]domain.PriceAlert{alert}, nil)
	cache.On("AcquireAlertLease", mock.Anything, "a-1", time.Minute).Return(true, nil)
	cache.On("ReleaseAlertLease", mock.Anything, "a-1").Return(nil)
	cache.On("GetQuote", mock.Anything, mock.AnythingOfType("string")).Return(0.0, false, nil)
	sampler.On("SampleCurrentPrice", mock.Anything, alert).Return(0.0, errors.New("quote feed timeout"))

	stats, err := service.SweepOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, stats.Evaluated)
	assert.Equal(t, 1, stats.Skipped)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestSweepOnce_UsesCachedQuote(t *testing.T) {
	repo := &MockAlertRepository{}
	cache := &MockCache{}
	sampler := &MockSampler{}
	producer := &MockProducer{}
	service := newTestService(repo, cache, sampler, producer)

	alert := activeAlert("a-1", domain.AlertPriceAbove, 500)
	repo.On("ListActive", mock.Anything, mock.AnythingOfType("time.Time")).Return([]domain.PriceAlert{alert}, nil)
	cache.On("AcquireAlertLease", mock.Anything, "a-1", time.Minute).Return(true, nil)
	cache.On("ReleaseAlertLease", mock.Anything, "a-1").Return(nil)
	cache.On("GetQuote", mock.Anything, mock.AnythingOfType("string")).Return(510.0, true, nil)
	repo.On("Save", mock.Anything, mock.AnythingOfType("*domain.PriceAlert")).Return(nil)
	producer.On("Publish", mock.Anything, "price-alert-notifications", "a-1", mock.Anything).Return(nil)

	stats, err := service.SweepOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Evaluated)
	sampler.AssertNotCalled(t, "SampleCurrentPrice", mock.Anything, mock.Anything)
}

func TestSweepOnce_PublishFailureKeepsAlertState(t *testing.T) {
	repo := &MockAlertRepository{}
	cache := &MockCache{}
	sampler := &MockSampler{}
	producer := &MockProducer{}
	service := newTestService(repo, cache, sampler, producer)

	alert := activeAlert("a-1", domain.AlertPriceBelow, 500)
	repo.On("ListActive", mock.Anything, mock.AnythingOfType("time.Time")).Return([]domain.PriceAlert{alert}, nil)
	cache.On("AcquireAlertLease", mock.Anything, "a-1", time.Minute).Return(true, nil)
	cache.On("ReleaseAlertLease", mock.Anything, "a-1").Return(nil)
	cache.On("GetQuote", mock.Anything, mock.AnythingOfType("string")).Return(0.0, false, nil)
	cache.On("SetQuote", mock.Anything, mock.AnythingOfType("string"), 480.0).Return(nil)
	sampler.On("SampleCurrentPrice", mock.Anything, alert).Return(480.0, nil)
	repo.On("Save", mock.Anything, mock.AnythingOfType("*domain.PriceAlert")).Return(nil)
	producer.On("Publish", mock.Anything, "price-alert-notifications", "a-1", mock.Anything).Return(errors.New("broker unavailable"))

	stats, err := service.SweepOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Evaluated)
	assert.Equal(t, 1, stats.Triggered)
	repo.AssertExpectations(t)
}

func TestSweepOnce_CancelledBetweenIterations(t *testing.T) {
	repo := &MockAlertRepository{}
	service := newTestService(repo, &MockCache{}, &MockSampler{}, &MockProducer{})

	alerts := []domain.PriceAlert{
		activeAlert("a-1", domain.AlertPriceBelow, 500),
		activeAlert("a-2", domain.AlertPriceBelow, 500),
	}
	repo.On("ListActive", mock.Anything, mock.AnythingOfType("time.Time")).Return(alerts, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := service.SweepOnce(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
