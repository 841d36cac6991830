package port

import (
	"context"
	"time"

	"github.com/dukan-market/dukanpay/internal/core/domain"
)

// UpdateOrderFn mutates an order inside a repository transaction.
type UpdateOrderFn func(*domain.Order) error

// SettlePaymentFn mutates a payment and its order inside one transaction,
// both rows locked for update.
type SettlePaymentFn func(*domain.Order, *domain.Payment) error

// UpdateBalanceFn mutates a buyer balance together with the payment's order
// and the payment itself, all inside one transaction.
type UpdateBalanceFn func(*domain.Balance, *domain.Order, *domain.Payment) error

//go:generate mockgen -source=repository.go -destination=mock/repository.go -package=mock
type Repository interface {
	// User
	CreateUser(ctx context.Context, user *domain.User) (*domain.User, error)
	GetUserByLogin(ctx context.Context, login string) (*domain.User, error)

	// Order
	CreateOrder(ctx context.Context, order *domain.Order, items []*domain.OrderItem) (*domain.Order, error)
	ReadOrder(ctx context.Context, orderID uint64) (*domain.Order, error)
	ListOrdersByUser(ctx context.Context, userID uint64) ([]*domain.Order, error)
	ListOrdersByShop(ctx context.Context, shopID uint64, limit, offset uint64) ([]*domain.Order, error)
	ListOrderItems(ctx context.Context, orderID uint64) ([]*domain.OrderItem, error)
	// UpdateOrder persists the order with a version check and returns
	// domain.ErrVersionConflict when another writer got there first.
	UpdateOrder(ctx context.Context, order *domain.Order) (*domain.Order, error)

	// Payment
	ReadPayment(ctx context.Context, paymentID string) (*domain.Payment, error)
	FindPaymentByTransaction(ctx context.Context, method domain.PaymentMethod, transactionID string) (*domain.Payment, error)
	ListPaymentsByOrder(ctx context.Context, userID, orderID uint64) ([]*domain.Payment, error)
	ListPaymentsByUser(ctx context.Context, userID uint64) ([]*domain.Payment, error)
	ListStalePayments(ctx context.Context, before time.Time) ([]*domain.Payment, error)

	// Atomic flows. InitiatePayment inserts the payment and applies orderFn
	// to its order in one transaction; SettlePayment applies fn to a locked
	// payment/order pair; UpdateUserBalanceByPayment additionally locks the
	// buyer's balance row.
	InitiatePayment(ctx context.Context, payment *domain.Payment, orderFn UpdateOrderFn) (*domain.Payment, error)
	SettlePayment(ctx context.Context, paymentID string, fn SettlePaymentFn) (*domain.Payment, error)
	UpdateUserBalanceByPayment(ctx context.Context, userID uint64, paymentID string, fn UpdateBalanceFn) (*domain.Balance, error)

	// Balance
	ReadBalanceByUserID(ctx context.Context, userID uint64) (*domain.Balance, error)

	// RecordProviderEvent persists a webhook event for dedupe; reports false
	// when the provider/event pair was already recorded.
	RecordProviderEvent(ctx context.Context, event *domain.ProviderEvent) (bool, error)
}
