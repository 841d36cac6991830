package domain

import (
	"time"

	"github.com/govalues/decimal"
)

type OrderStatus string

const (
	OrderStatusPending         OrderStatus = "pending"
	OrderStatusAwaitingPayment OrderStatus = "awaiting_payment"
	OrderStatusPaid            OrderStatus = "paid"
	OrderStatusShipped         OrderStatus = "shipped"
	OrderStatusDelivered       OrderStatus = "delivered"
	OrderStatusCancelled       OrderStatus = "cancelled"
	OrderStatusRefunded        OrderStatus = "refunded"
)

type PaymentState string

const (
	PaymentStateUnpaid   PaymentState = "unpaid"
	PaymentStateCOD      PaymentState = "cod"
	PaymentStatePaid     PaymentState = "paid"
	PaymentStateRefunded PaymentState = "refunded"
)

// ForwardTransitions is the only seller-driven status chain. Orders in
// delivered or cancelled have no forward action.
var ForwardTransitions = map[OrderStatus]OrderStatus{
	OrderStatusPending:         OrderStatusPaid,
	OrderStatusAwaitingPayment: OrderStatusPaid,
	OrderStatusPaid:            OrderStatusShipped,
	OrderStatusShipped:         OrderStatusDelivered,
}

// CancellableFrom lists the statuses a seller may cancel from.
var CancellableFrom = map[OrderStatus]bool{
	OrderStatusPending:         true,
	OrderStatusAwaitingPayment: true,
}

type ShippingAddress struct {
	City    string `json:"city"`
	Street  string `json:"street"`
	Phone   string `json:"phone"`
	Comment string `json:"comment,omitempty"`
}

type Order struct {
	ID              uint64
	Number          string
	UserID          uint64
	ShopID          uint64
	Total           decimal.Decimal
	Discount        decimal.Decimal
	ShippingFee     decimal.Decimal
	Status          OrderStatus
	PaymentState    PaymentState
	PaymentMethod   PaymentMethod
	PaymentID       string
	ShippingAddress ShippingAddress
	// Version guards concurrent status writers (buyer payment path vs
	// seller fulfillment path) with a compare-and-swap update.
	Version     uint64
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ShippedAt   *time.Time
	DeliveredAt *time.Time
}

// PayableNow reports whether a new payment may be initiated for the order.
func (o *Order) PayableNow() bool {
	return o.Status == OrderStatusPending || o.Status == OrderStatusAwaitingPayment
}

type OrderItem struct {
	ID        uint64
	OrderID   uint64
	ProductID uint64
	Quantity  uint32
	UnitPrice decimal.Decimal
	Color     string
	Size      string
}
