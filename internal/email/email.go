package email

import (
	"context"
	"log"

	"github.com/avelora/farewatch/internal/kafka"
)

// Sender is the delivery collaborator consumed by the worker. Delivery
// is fire-and-forget; a failure here never rolls back the alert state
// already persisted.
type Sender struct{}

func NewSender() *Sender {
	return &Sender{}
}

func (s *Sender) SendNotification(ctx context.Context, event kafka.NotificationEvent) error {
	log.Printf("deliver %s notification to user %s for alert %s: %s",
		event.Notification.Kind, event.UserID, event.Notification.AlertID, event.Notification.Message)
	return nil
}

func (s *Sender) SendBookingUpdate(ctx context.Context, event kafka.BookingEvent) error {
	log.Printf("deliver booking update to user %s: %s is now %s", event.UserID, event.Reference, event.Status)
	return nil
}
