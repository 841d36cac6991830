package port

import (
	"context"
	"time"
)

const (
	EventOrderCreated     = "order.created"
	EventOrderStatus      = "order.status"
	EventPaymentCompleted = "payment.completed"
	EventPaymentFailed    = "payment.failed"
)

type Event struct {
	Type        string    `json:"type"`
	OrderID     uint64    `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	ShopID      uint64    `json:"shop_id"`
	PaymentID   string    `json:"payment_id,omitempty"`
	Status      string    `json:"status"`
	At          time.Time `json:"at"`
}

//go:generate mockgen -source=events.go -destination=mock/events.go -package=mock
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}
