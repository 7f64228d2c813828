package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/avelora/farewatch/config"
	"github.com/avelora/farewatch/internal/bootstrap"
	"github.com/avelora/farewatch/internal/cache"
	"github.com/avelora/farewatch/internal/fees"
	"github.com/avelora/farewatch/internal/kafka"
	"github.com/avelora/farewatch/internal/quotes"
	"github.com/avelora/farewatch/internal/repository"
	alertsvc "github.com/avelora/farewatch/internal/service/alerts"
	bookingsvc "github.com/avelora/farewatch/internal/service/booking"
	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	redisCache := cache.NewRedisCache(cfg.Redis, cfg.Quotes.CacheTTL())
	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	bookingRepo := repository.NewBookingRepository(pool)
	alertRepo := repository.NewAlertRepository(pool)
	feePolicy := fees.NewFixedPolicy(cfg.Fees.CancellationFlat)
	sampler := quotes.NewClient(cfg.Quotes.BaseURL, cfg.Quotes.Timeout())

	bookingService := bookingsvc.NewBookingService(
		bookingRepo,
		redisCache,
		producer,
		feePolicy,
		cfg.Kafka.BookingEventsTopic,
		cfg.Booking.PaymentTTL(),
		cfg.Booking.LockTTL(),
	)
	alertService := alertsvc.NewAlertService(
		alertRepo,
		redisCache,
		sampler,
		producer,
		cfg.Kafka.NotificationsTopic,
		cfg.Alerts.LeaseTTL(),
	)

	if err := bootstrap.Run(ctx, cfg, bookingService, alertService); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
