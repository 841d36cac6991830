package domain

import (
	"time"

	"github.com/govalues/decimal"
)

// Currency is fixed for the whole marketplace.
const Currency = "KGS"

type PaymentMethod string

const (
	PaymentMethodMBank   PaymentMethod = "mbank"
	PaymentMethodElsom   PaymentMethod = "elsom"
	PaymentMethodODengi  PaymentMethod = "odengi"
	PaymentMethodBalance PaymentMethod = "balance"
	PaymentMethodCash    PaymentMethod = "cash"
)

var PaymentMethods = map[PaymentMethod]bool{
	PaymentMethodMBank:   true,
	PaymentMethodElsom:   true,
	PaymentMethodODengi:  true,
	PaymentMethodBalance: true,
	PaymentMethodCash:    true,
}

// IsProviderMethod reports whether the method settles through an external
// mobile-money provider (as opposed to cash or the stored balance).
func (m PaymentMethod) IsProviderMethod() bool {
	switch m {
	case PaymentMethodMBank, PaymentMethodElsom, PaymentMethodODengi:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusCompleted  PaymentStatus = "completed"
	PaymentStatusFailed     PaymentStatus = "failed"
	PaymentStatusRefunded   PaymentStatus = "refunded"
)

// Terminal reports whether no further status change is allowed.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentStatusCompleted || s == PaymentStatusFailed || s == PaymentStatusRefunded
}

// ProviderEvent is a received webhook callback, persisted before processing
// so replays can be detected by the (provider, event id) pair.
type ProviderEvent struct {
	ID         string
	Provider   PaymentMethod
	EventID    string
	Payload    []byte
	ReceivedAt time.Time
}

type Payment struct {
	ID               string
	OrderID          uint64
	UserID           uint64
	Amount           decimal.Decimal
	Currency         string
	Method           PaymentMethod
	Status           PaymentStatus
	TransactionID    string
	ProviderResponse []byte
	Note             string
	// ExpiresAt is issued by the server at creation; the reconciler fails
	// the payment once it elapses.
	ExpiresAt time.Time
	PaidAt    *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}
