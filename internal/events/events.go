// Package events publishes order lifecycle events.
package events

import (
	"context"
	"time"

	"pharmago/internal/model"

	"github.com/shopspring/decimal"
)

// Event types.
const (
	TypeOrderPlaced        = "order.placed"
	TypeOrderStatusChanged = "order.status_changed"
)

// Event describes something that happened to an order.
type Event struct {
	Type       string            `json:"type"`
	OrderID    string            `json:"orderId"`
	UserID     string            `json:"userId"`
	PharmacyID string            `json:"pharmacyId"`
	Status     model.OrderStatus `json:"status"`
	Total      decimal.Decimal   `json:"total"`
	OccurredAt time.Time         `json:"occurredAt"`
}

// NewOrderEvent builds an event of the given type from an order.
func NewOrderEvent(eventType string, o model.Order, at time.Time) Event {
	return Event{
		Type:       eventType,
		OrderID:    o.ID,
		UserID:     o.UserID,
		PharmacyID: o.PharmacyID,
		Status:     o.Status,
		Total:      o.Total,
		OccurredAt: at.UTC(),
	}
}

// Publisher sends events to interested consumers.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// NopPublisher discards every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

func (NopPublisher) Close() error { return nil }
