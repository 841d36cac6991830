package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/dukan-market/dukanpay/internal/core/domain"
	"github.com/dukan-market/dukanpay/internal/core/port"
	"github.com/dukan-market/dukanpay/internal/core/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// InitiatePayment validates the order, creates a payment row and routes it to
// the requested settlement path. The payment insert and the order status
// write happen in one transaction; balance settlement is a second transaction
// with a conditional debit, so no partial deduction is possible.
func (s *Service) InitiatePayment(ctx context.Context, userID uint64, orderID uint64,
	method domain.PaymentMethod, returnURL string) (*port.PaymentReceipt, error) {
	if !domain.PaymentMethods[method] {
		return nil, domain.ErrInvalidPaymentMethod
	}

	order, err := s.repo.ReadOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, domain.ErrDataNotFound) {
			return nil, domain.ErrOrderNotPayable
		}
		return nil, err
	}
	if order.UserID != userID || !order.PayableNow() {
		return nil, domain.ErrOrderNotPayable
	}

	now := time.Now()
	payment := &domain.Payment{
		ID:        uuid.NewString(),
		OrderID:   order.ID,
		UserID:    userID,
		Amount:    order.Total,
		Currency:  domain.Currency,
		Method:    method,
		Status:    domain.PaymentStatusPending,
		ExpiresAt: now.Add(s.paymentTTL),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if method == domain.PaymentMethodCash {
		payment.Note = "cash on delivery"
	}

	payment, err = s.repo.InitiatePayment(ctx, payment, func(o *domain.Order) error {
		// re-checked under the row lock: a concurrent initiation loses here
		if !o.PayableNow() {
			return domain.ErrOrderNotPayable
		}
		o.PaymentMethod = method
		o.PaymentID = payment.ID
		if method == domain.PaymentMethodCash {
			o.Status = domain.OrderStatusPending
			o.PaymentState = domain.PaymentStateCOD
		} else {
			o.Status = domain.OrderStatusAwaitingPayment
		}
		o.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}

	switch method {
	case domain.PaymentMethodBalance:
		return s.settleFromBalance(ctx, order, payment, returnURL)
	case domain.PaymentMethodCash:
		return &port.PaymentReceipt{
			Payment:     payment,
			RedirectURL: redirectURL(returnURL, order.Number, "method", "cash"),
		}, nil
	default:
		return s.invoiceFromProvider(ctx, order, payment, returnURL)
	}
}

func (s *Service) settleFromBalance(ctx context.Context, order *domain.Order,
	payment *domain.Payment, returnURL string) (*port.PaymentReceipt, error) {
	required := utils.CoinsRequired(payment.Amount)
	now := time.Now()

	_, err := s.repo.UpdateUserBalanceByPayment(ctx, payment.UserID, payment.ID,
		func(b *domain.Balance, o *domain.Order, p *domain.Payment) error {
			// re-checked under the row lock: a cancel racing the debit wins
			// and no money moves
			if !o.PayableNow() {
				return domain.ErrOrderNotPayable
			}
			if b.Current.Cmp(required) < 0 {
				return &domain.InsufficientBalanceError{Required: required, Available: b.Current}
			}

			newCurrent, err := b.Current.Sub(required)
			if err != nil {
				return fmt.Errorf("math error: %w", err)
			}
			b.Current = newCurrent

			newSpent, err := b.Spent.Add(required)
			if err != nil {
				return fmt.Errorf("math error: %w", err)
			}
			b.Spent = newSpent

			p.Status = domain.PaymentStatusCompleted
			p.PaidAt = &now
			p.UpdatedAt = now

			o.Status = domain.OrderStatusPaid
			o.PaymentState = domain.PaymentStatePaid
			o.UpdatedAt = now
			return nil
		})
	if err != nil {
		var insufficient *domain.InsufficientBalanceError
		if errors.As(err, &insufficient) {
			if ferr := s.markInitiationFailed(ctx, payment.ID, "insufficient balance"); ferr != nil {
				s.logger.Error("Mark payment failed", zap.String("payment", payment.ID), zap.Error(ferr))
			}
			return nil, err
		}
		if errors.Is(err, domain.ErrOrderNotPayable) {
			if ferr := s.markInitiationFailed(ctx, payment.ID, "order left the payment flow"); ferr != nil {
				s.logger.Error("Mark payment failed", zap.String("payment", payment.ID), zap.Error(ferr))
			}
			return nil, err
		}
		s.logger.Error("Balance settlement", zap.String("payment", payment.ID), zap.Error(err))
		return nil, domain.ErrInternal
	}

	payment.Status = domain.PaymentStatusCompleted
	payment.PaidAt = &now

	s.publish(ctx, port.Event{
		Type:        port.EventPaymentCompleted,
		OrderID:     order.ID,
		OrderNumber: order.Number,
		ShopID:      order.ShopID,
		PaymentID:   payment.ID,
		Status:      string(domain.PaymentStatusCompleted),
		At:          now,
	})

	return &port.PaymentReceipt{
		Payment:     payment,
		RedirectURL: redirectURL(returnURL, order.Number, "status", "success"),
	}, nil
}

func (s *Service) invoiceFromProvider(ctx context.Context, order *domain.Order,
	payment *domain.Payment, returnURL string) (*port.PaymentReceipt, error) {
	provider, ok := s.providers[payment.Method]
	if !ok {
		return nil, domain.ErrInvalidPaymentMethod
	}

	inv, err := provider.CreateInvoice(ctx, port.InvoiceRequest{
		PaymentID:   payment.ID,
		OrderNumber: order.Number,
		Amount:      payment.Amount,
		ReturnURL:   returnURL,
		CallbackURL: s.publicBaseURL + "/api/payments/webhook/" + string(payment.Method),
	})
	if err != nil {
		s.logger.Error("Provider invoice",
			zap.String("provider", string(payment.Method)),
			zap.String("payment", payment.ID),
			zap.Error(err))
		if ferr := s.markInitiationFailed(ctx, payment.ID, "provider error"); ferr != nil {
			s.logger.Error("Mark payment failed", zap.String("payment", payment.ID), zap.Error(ferr))
		}
		return nil, domain.ErrPaymentProvider
	}

	now := time.Now()
	payment, err = s.repo.SettlePayment(ctx, payment.ID,
		func(o *domain.Order, p *domain.Payment) error {
			p.Status = domain.PaymentStatusProcessing
			p.TransactionID = inv.TransactionID
			p.ProviderResponse = inv.Raw
			p.UpdatedAt = now
			return nil
		})
	if err != nil {
		return nil, err
	}

	return &port.PaymentReceipt{
		Payment:      payment,
		PaymentURL:   inv.PaymentURL,
		QRCode:       inv.QRCode,
		USSDCode:     inv.USSDCode,
		Instructions: inv.Instructions,
		Mock:         inv.Mock,
	}, nil
}

// markInitiationFailed terminates a payment that never reached its provider
// or could not be covered, returning the order to the pending status so the
// buyer can retry.
func (s *Service) markInitiationFailed(ctx context.Context, paymentID string, reason string) error {
	now := time.Now()
	_, err := s.repo.SettlePayment(ctx, paymentID,
		func(o *domain.Order, p *domain.Payment) error {
			if p.Status.Terminal() {
				return domain.ErrPaymentTerminal
			}
			p.Status = domain.PaymentStatusFailed
			p.Note = reason
			p.UpdatedAt = now
			if o.Status == domain.OrderStatusAwaitingPayment {
				o.Status = domain.OrderStatusPending
				o.PaymentState = domain.PaymentStateUnpaid
				o.UpdatedAt = now
			}
			return nil
		})
	return err
}

func (s *Service) GetPayments(ctx context.Context, userID uint64, orderID uint64,
	paymentID string) ([]*domain.Payment, error) {
	if paymentID != "" {
		payment, err := s.repo.ReadPayment(ctx, paymentID)
		if err != nil {
			return nil, err
		}
		if payment.UserID != userID {
			return nil, domain.ErrDataNotFound
		}
		return []*domain.Payment{payment}, nil
	}
	if orderID != 0 {
		return s.repo.ListPaymentsByOrder(ctx, userID, orderID)
	}
	return s.repo.ListPaymentsByUser(ctx, userID)
}

// SimulatePayment completes a provider payment without the provider, for
// development setups running in mock mode only.
func (s *Service) SimulatePayment(ctx context.Context, userID uint64, paymentID string) (*domain.Payment, error) {
	payment, err := s.repo.ReadPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.UserID != userID {
		return nil, domain.ErrDataNotFound
	}
	provider, ok := s.providers[payment.Method]
	if !ok || !provider.Mock() {
		return nil, domain.ErrSimulateDisabled
	}
	return s.CompletePayment(ctx, paymentID, payment.TransactionID, nil)
}

// CompletePayment settles a payment as paid. The first terminal write wins:
// replays (a second webhook, or a webhook racing the simulate path) get
// domain.ErrPaymentTerminal and change nothing. An order that already left
// the payment flow (a cancel racing the webhook) keeps its status; the
// payment is recorded as completed and flagged for a refund.
func (s *Service) CompletePayment(ctx context.Context, paymentID string,
	transactionID string, raw []byte) (*domain.Payment, error) {
	now := time.Now()
	var orderEv port.Event
	payment, err := s.repo.SettlePayment(ctx, paymentID,
		func(o *domain.Order, p *domain.Payment) error {
			if p.Status.Terminal() {
				return domain.ErrPaymentTerminal
			}
			p.Status = domain.PaymentStatusCompleted
			p.PaidAt = &now
			p.UpdatedAt = now
			if transactionID != "" {
				p.TransactionID = transactionID
			}
			if raw != nil {
				p.ProviderResponse = raw
			}

			if o.PayableNow() {
				o.Status = domain.OrderStatusPaid
				o.PaymentState = domain.PaymentStatePaid
				o.UpdatedAt = now
			} else {
				// the provider captured funds for an order that is no
				// longer awaiting them
				p.Note = "order no longer payable, refund required"
			}

			orderEv = port.Event{
				Type:        port.EventPaymentCompleted,
				OrderID:     o.ID,
				OrderNumber: o.Number,
				ShopID:      o.ShopID,
				PaymentID:   p.ID,
				Status:      string(domain.PaymentStatusCompleted),
				At:          now,
			}
			return nil
		})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, orderEv)
	return payment, nil
}

// FailPayment terminates a payment and, when the order is still waiting on
// it, returns the order to pending.
func (s *Service) FailPayment(ctx context.Context, paymentID string,
	reason string, raw []byte) (*domain.Payment, error) {
	now := time.Now()
	var orderEv port.Event
	payment, err := s.repo.SettlePayment(ctx, paymentID,
		func(o *domain.Order, p *domain.Payment) error {
			if p.Status.Terminal() {
				return domain.ErrPaymentTerminal
			}
			p.Status = domain.PaymentStatusFailed
			p.Note = reason
			p.UpdatedAt = now
			if raw != nil {
				p.ProviderResponse = raw
			}

			if o.Status == domain.OrderStatusAwaitingPayment {
				o.Status = domain.OrderStatusPending
				o.PaymentState = domain.PaymentStateUnpaid
				o.UpdatedAt = now
			}

			orderEv = port.Event{
				Type:        port.EventPaymentFailed,
				OrderID:     o.ID,
				OrderNumber: o.Number,
				ShopID:      o.ShopID,
				PaymentID:   p.ID,
				Status:      string(domain.PaymentStatusFailed),
				At:          now,
			}
			return nil
		})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, orderEv)
	return payment, nil
}

// HandleProviderCallback verifies, dedupes and applies a provider webhook.
// Replayed events and callbacks racing an already-terminal payment return
// domain.ErrPaymentTerminal without changing anything.
func (s *Service) HandleProviderCallback(ctx context.Context, method domain.PaymentMethod,
	header http.Header, body []byte) (*domain.Payment, error) {
	provider, ok := s.providers[method]
	if !ok {
		return nil, domain.ErrInvalidPaymentMethod
	}

	ev, err := provider.ParseCallback(header, body)
	if err != nil {
		return nil, err
	}

	if ev.EventID != "" {
		fresh, err := s.repo.RecordProviderEvent(ctx, &domain.ProviderEvent{
			ID:         uuid.NewString(),
			Provider:   method,
			EventID:    ev.EventID,
			Payload:    ev.Raw,
			ReceivedAt: time.Now(),
		})
		if err != nil {
			s.logger.Error("Record provider event", zap.Error(err))
			return nil, domain.ErrInternal
		}
		if !fresh {
			return nil, domain.ErrPaymentTerminal
		}
	}

	payment, err := s.repo.FindPaymentByTransaction(ctx, method, ev.TransactionID)
	if err != nil {
		if errors.Is(err, domain.ErrDataNotFound) {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, err
	}

	if ev.Status == domain.PaymentStatusCompleted {
		return s.CompletePayment(ctx, payment.ID, ev.TransactionID, ev.Raw)
	}
	return s.FailPayment(ctx, payment.ID, "provider callback", ev.Raw)
}

// ExpireStalePayments fails provider payments that outlived their expiry and
// reverts their orders, reconciling the window where an order is left in
// awaiting_payment with no terminal payment.
func (s *Service) ExpireStalePayments(ctx context.Context) (int, error) {
	stale, err := s.repo.ListStalePayments(ctx, time.Now())
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, p := range stale {
		if _, err := s.FailPayment(ctx, p.ID, "payment expired", nil); err != nil {
			if errors.Is(err, domain.ErrPaymentTerminal) {
				continue
			}
			s.logger.Error("Expire payment", zap.String("payment", p.ID), zap.Error(err))
			continue
		}
		expired++
	}
	return expired, nil
}

func redirectURL(returnURL string, orderNumber string, key, value string) string {
	u, err := url.Parse(returnURL)
	if err != nil {
		return returnURL
	}
	q := u.Query()
	q.Set(key, value)
	q.Set("order", orderNumber)
	u.RawQuery = q.Encode()
	return u.String()
}
