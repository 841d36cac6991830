package http

import (
	"strconv"
	"time"

	"github.com/dukan-market/dukanpay/internal/core/domain"
	"github.com/dukan-market/dukanpay/internal/core/port"
	"github.com/gin-gonic/gin"
	"github.com/govalues/decimal"
	"go.uber.org/zap"
)

type PaymentHandler struct {
	Handler
	service port.Service
}

func NewPaymentHandler(service port.Service, logger *zap.Logger) (*PaymentHandler, error) {
	return &PaymentHandler{
		Handler: *NewHandler(logger),
		service: service,
	}, nil
}

type createPaymentRequest struct {
	OrderID   uint64 `json:"orderId" binding:"required"`
	Method    string `json:"method" binding:"required"`
	ReturnURL string `json:"returnUrl" binding:"required"`
}

type createPaymentResponse struct {
	Success       bool      `json:"success"`
	PaymentID     string    `json:"paymentId"`
	PaymentURL    string    `json:"paymentUrl,omitempty"`
	TransactionID string    `json:"transactionId,omitempty"`
	QRCode        string    `json:"qrCode,omitempty"`
	USSDCode      string    `json:"ussdCode,omitempty"`
	Instructions  []string  `json:"instructions,omitempty"`
	RedirectURL   string    `json:"redirectUrl,omitempty"`
	Mock          bool      `json:"mock,omitempty"`
	ExpiresAt     time.Time `json:"expiresAt"`
}

func (ph *PaymentHandler) CreatePayment(ctx *gin.Context) {
	userID := getAuthPayload(ctx).UserID

	req := createPaymentRequest{}
	if err := ctx.ShouldBindBodyWithJSON(&req); err != nil {
		ph.handleValidationError(ctx, err)
		return
	}

	receipt, err := ph.service.InitiatePayment(ctx, userID, req.OrderID,
		domain.PaymentMethod(req.Method), req.ReturnURL)
	if err != nil {
		paymentOperations.WithLabelValues(req.Method, "error").Inc()
		ph.handleError(ctx, err)
		return
	}
	paymentOperations.WithLabelValues(req.Method, "ok").Inc()

	ph.handleSuccess(ctx, createPaymentResponse{
		Success:       true,
		PaymentID:     receipt.Payment.ID,
		PaymentURL:    receipt.PaymentURL,
		TransactionID: receipt.Payment.TransactionID,
		QRCode:        receipt.QRCode,
		USSDCode:      receipt.USSDCode,
		Instructions:  receipt.Instructions,
		RedirectURL:   receipt.RedirectURL,
		Mock:          receipt.Mock,
		ExpiresAt:     receipt.Payment.ExpiresAt,
	})
}

type paymentResponse struct {
	ID            string          `json:"id"`
	OrderID       uint64          `json:"orderId"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Method        string          `json:"method"`
	Status        string          `json:"status"`
	TransactionID string          `json:"transactionId,omitempty"`
	ExpiresAt     time.Time       `json:"expiresAt"`
	PaidAt        *time.Time      `json:"paidAt,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
}

func newPaymentResponse(p *domain.Payment) paymentResponse {
	return paymentResponse{
		ID:            p.ID,
		OrderID:       p.OrderID,
		Amount:        p.Amount,
		Currency:      p.Currency,
		Method:        string(p.Method),
		Status:        string(p.Status),
		TransactionID: p.TransactionID,
		ExpiresAt:     p.ExpiresAt,
		PaidAt:        p.PaidAt,
		CreatedAt:     p.CreatedAt,
	}
}

// ListPayments backs the buyer's payment page polling: the client re-fetches
// by payment_id until it sees a terminal status.
func (ph *PaymentHandler) ListPayments(ctx *gin.Context) {
	userID := getAuthPayload(ctx).UserID

	var orderID uint64
	if raw := ctx.Query("order_id"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			ph.handleValidationError(ctx, err)
			return
		}
		orderID = parsed
	}
	paymentID := ctx.Query("payment_id")

	list, err := ph.service.GetPayments(ctx, userID, orderID, paymentID)
	if err != nil {
		ph.handleError(ctx, err)
		return
	}

	result := make([]paymentResponse, 0, len(list))
	for _, p := range list {
		result = append(result, newPaymentResponse(p))
	}

	ph.handleSuccess(ctx, gin.H{"payments": result})
}

// SimulatePayment completes a mock-mode provider payment without waiting for
// a callback. Disabled as soon as real credentials are configured.
func (ph *PaymentHandler) SimulatePayment(ctx *gin.Context) {
	userID := getAuthPayload(ctx).UserID

	payment, err := ph.service.SimulatePayment(ctx, userID, ctx.Param("id"))
	if err != nil {
		ph.handleError(ctx, err)
		return
	}

	ph.handleSuccess(ctx, newPaymentResponse(payment))
}
