package port

import (
	"context"
	"net/http"

	"github.com/dukan-market/dukanpay/internal/core/domain"
	"github.com/govalues/decimal"
)

type InvoiceRequest struct {
	PaymentID   string
	OrderNumber string
	Amount      decimal.Decimal
	ReturnURL   string
	CallbackURL string
}

// Invoice is the normalized payable artifact produced by a provider.
type Invoice struct {
	TransactionID string
	PaymentURL    string
	QRCode        string
	USSDCode      string
	Instructions  []string
	Mock          bool
	Raw           []byte
}

// CallbackEvent is a provider webhook mapped to a terminal payment status.
type CallbackEvent struct {
	EventID       string
	TransactionID string
	Status        domain.PaymentStatus
	Raw           []byte
}

//go:generate mockgen -source=provider.go -destination=mock/provider.go -package=mock
type PaymentProvider interface {
	Method() domain.PaymentMethod
	// Mock reports whether the provider runs without real credentials.
	Mock() bool
	// CreateInvoice performs at most one outbound request; no retries.
	CreateInvoice(ctx context.Context, req InvoiceRequest) (*Invoice, error)
	// ParseCallback verifies and decodes a webhook request body.
	ParseCallback(header http.Header, body []byte) (*CallbackEvent, error)
}
