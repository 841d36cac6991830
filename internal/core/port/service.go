package port

import (
	"context"
	"net/http"

	"github.com/dukan-market/dukanpay/internal/core/domain"
)

// PaymentReceipt is what the buyer gets back from payment initiation. For
// provider methods it carries the payable artifact (URL, QR or USSD code);
// for balance and cash it carries the final redirect.
type PaymentReceipt struct {
	Payment      *domain.Payment
	PaymentURL   string
	QRCode       string
	USSDCode     string
	Instructions []string
	Mock         bool
	RedirectURL  string
}

//go:generate mockgen -source=service.go -destination=mock/service.go -package=mock
type Service interface {
	RegisterUser(ctx context.Context, user *domain.User) (*domain.User, error)
	LoginUser(ctx context.Context, login string, password string) (string, error)

	CreateOrder(ctx context.Context, order *domain.Order, items []*domain.OrderItem) (*domain.Order, error)
	GetOrdersByUser(ctx context.Context, userID uint64) ([]*domain.Order, error)
	GetOrdersByShop(ctx context.Context, shopID uint64, limit, offset uint64) ([]*domain.Order, error)
	GetOrderItems(ctx context.Context, userID uint64, orderID uint64) ([]*domain.OrderItem, error)
	TransitionOrderStatus(ctx context.Context, shopID uint64, orderID uint64, next domain.OrderStatus) (*domain.Order, error)

	InitiatePayment(ctx context.Context, userID uint64, orderID uint64,
		method domain.PaymentMethod, returnURL string) (*PaymentReceipt, error)
	GetPayments(ctx context.Context, userID uint64, orderID uint64, paymentID string) ([]*domain.Payment, error)
	SimulatePayment(ctx context.Context, userID uint64, paymentID string) (*domain.Payment, error)

	CompletePayment(ctx context.Context, paymentID string, transactionID string, raw []byte) (*domain.Payment, error)
	FailPayment(ctx context.Context, paymentID string, reason string, raw []byte) (*domain.Payment, error)
	HandleProviderCallback(ctx context.Context, method domain.PaymentMethod,
		header http.Header, body []byte) (*domain.Payment, error)

	GetUserBalance(ctx context.Context, userID uint64) (*domain.Balance, error)

	ExpireStalePayments(ctx context.Context) (int, error)
}
