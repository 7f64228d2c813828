package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/avelora/farewatch/internal/domain"
	"github.com/segmentio/kafka-go"
)

// BookingEvent mirrors a successful status transition onto the event
// stream. Consumers see the edge, not the whole aggregate.
type BookingEvent struct {
	Type       string    `json:"type"`
	Reference  string    `json:"reference"`
	UserID     string    `json:"user_id"`
	FromStatus string    `json:"from_status"`
	Status     string    `json:"status"`
	Total      float64   `json:"total"`
	Currency   string    `json:"currency"`
	At         time.Time `json:"at"`
}

// NotificationEvent carries one triggered alert directive to the
// delivery worker.
type NotificationEvent struct {
	UserID       string                   `json:"user_id"`
	Notification domain.PriceNotification `json:"notification"`
	At           time.Time                `json:"at"`
}

type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 50 * time.Millisecond,
			RequiredAcks: kafka.RequireOne,
		},
	}
}

func (p *Producer) Publish(ctx context.Context, topic, key string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	message := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
		Time:  time.Now(),
	}
	if err := p.writer.WriteMessages(ctx, message); err != nil {
		return fmt.Errorf("failed to write message to Kafka: %w", err)
	}
	return nil
}

func (p *Producer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}
