package domain

import (
	"fmt"
	"time"
)

type NotificationKind string

const (
	NotificationTargetReached NotificationKind = "TARGET_REACHED"
	NotificationPriceIncrease NotificationKind = "PRICE_INCREASE"
	NotificationPriceDrop     NotificationKind = "PRICE_DROP"
)

// PriceNotification is the directive handed to the delivery
// collaborator when an alert triggers. The engine never sends anything
// itself.
type PriceNotification struct {
	AlertID       string           `json:"alert_id"`
	Kind          NotificationKind `json:"kind"`
	PreviousPrice float64          `json:"previous_price"`
	CurrentPrice  float64          `json:"current_price"`
	ChangeAmount  float64          `json:"change_amount"`
	ChangePercent float64          `json:"change_percent"`
	Message       string           `json:"message"`
}

// Evaluation is the result of feeding one price sample to an alert.
type Evaluation struct {
	Alert        PriceAlert
	Notification *PriceNotification
}

// EvaluateAlert ingests one sampled price: it appends a history entry
// (evicting the oldest past the cap), updates CurrentPrice/LastChecked
// and decides whether the alert's condition is satisfied. The caller
// has already filtered out inactive and expired alerts; neither field
// is touched here. The input snapshot is not mutated.
func EvaluateAlert(a PriceAlert, sampled float64, now time.Time) Evaluation {
	previous := a.TargetPrice
	if a.CurrentPrice != nil {
		previous = *a.CurrentPrice
	}
	change := sampled - previous
	changePercent := 0.0
	if previous != 0 {
		changePercent = change / previous * 100
	}

	src := a.PriceHistory
	if len(src) >= PriceHistoryCap {
		src = src[len(src)-(PriceHistoryCap-1):]
	}
	history := make([]PricePoint, 0, len(src)+1)
	history = append(history, src...)
	history = append(history, PricePoint{
		Date:          now,
		Price:         sampled,
		Change:        change,
		ChangePercent: changePercent,
	})

	updated := a
	updated.PriceHistory = history
	price := sampled
	updated.CurrentPrice = &price
	checked := now
	updated.LastChecked = &checked
	updated.UpdatedAt = now

	var kind NotificationKind
	triggered := false
	switch a.AlertType {
	case AlertPriceBelow:
		if sampled <= a.TargetPrice {
			kind, triggered = NotificationTargetReached, true
		}
	case AlertPriceAbove:
		if sampled >= a.TargetPrice {
			kind, triggered = NotificationPriceIncrease, true
		}
	case AlertPriceDrop:
		// Compares against the immediately preceding sample, not the
		// target. The very first sample has nothing to drop from.
		if a.CurrentPrice != nil && sampled < previous {
			kind, triggered = NotificationPriceDrop, true
		}
	}
	if !triggered {
		return Evaluation{Alert: updated}
	}

	return Evaluation{
		Alert: updated,
		Notification: &PriceNotification{
			AlertID:       a.ID,
			Kind:          kind,
			PreviousPrice: previous,
			CurrentPrice:  sampled,
			ChangeAmount:  change,
			ChangePercent: changePercent,
			Message:       notificationMessage(a, kind, sampled),
		},
	}
}

func notificationMessage(a PriceAlert, kind NotificationKind, sampled float64) string {
	route := fmt.Sprintf("%s-%s", a.Origin, a.Destination)
	switch kind {
	case NotificationTargetReached:
		return fmt.Sprintf("Price for %s is now %.2f %s, at or below your target of %.2f", route, sampled, a.Currency, a.TargetPrice)
	case NotificationPriceIncrease:
		return fmt.Sprintf("Price for %s rose to %.2f %s, at or above your target of %.2f", route, sampled, a.Currency, a.TargetPrice)
	case NotificationPriceDrop:
		return fmt.Sprintf("Price for %s dropped to %.2f %s since the last check", route, sampled, a.Currency)
	}
	return ""
}
