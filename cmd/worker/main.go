package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/avelora/farewatch/config"
	"github.com/avelora/farewatch/internal/cache"
	"github.com/avelora/farewatch/internal/email"
	"github.com/avelora/farewatch/internal/fees"
	"github.com/avelora/farewatch/internal/kafka"
	"github.com/avelora/farewatch/internal/quotes"
	"github.com/avelora/farewatch/internal/repository"
	alertsvc "github.com/avelora/farewatch/internal/service/alerts"
	bookingsvc "github.com/avelora/farewatch/internal/service/booking"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robfig/cron/v3"
	kafkaGo "github.com/segmentio/kafka-go"
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

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.Alerts.SweepSpec, func() {
		stats, err := alertService.SweepOnce(ctx)
		if err != nil {
			log.Printf("alert sweep error: %v", err)
			return
		}
		log.Printf("alert sweep: evaluated=%d triggered=%d skipped=%d", stats.Evaluated, stats.Triggered, stats.Skipped)
	}); err != nil {
		log.Fatalf("schedule alert sweep: %v", err)
	}
	if _, err := scheduler.AddFunc(cfg.Booking.ExpirySweepSpec, func() {
		expired, err := bookingService.ExpirePendingBookings(ctx)
		if err != nil {
			log.Printf("expire bookings error: %v", err)
			return
		}
		if len(expired) > 0 {
			log.Printf("expired %d bookings", len(expired))
		}
	}); err != nil {
		log.Fatalf("schedule booking expiry: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	notifications := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic)
	defer notifications.Close()
	bookingEvents := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.BookingEventsTopic)
	defer bookingEvents.Close()

	sender := email.NewSender()

	go func() {
		if err := notifications.Consume(ctx, func(ctx context.Context, msg kafkaGo.Message) error {
			var event kafka.NotificationEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				log.Printf("decode notification event: %v", err)
				return nil
			}
			return sender.SendNotification(ctx, event)
		}); err != nil && ctx.Err() == nil {
			log.Printf("notifications consumer stopped: %v", err)
		}
	}()

	go func() {
		if err := bookingEvents.Consume(ctx, func(ctx context.Context, msg kafkaGo.Message) error {
			var event kafka.BookingEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				log.Printf("decode booking event: %v", err)
				return nil
			}
			return sender.SendBookingUpdate(ctx, event)
		}); err != nil && ctx.Err() == nil {
			log.Printf("booking events consumer stopped: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down worker")
}
