package service_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/dukan-market/dukanpay/internal/core/domain"
	"github.com/dukan-market/dukanpay/internal/core/port"
	"github.com/dukan-market/dukanpay/internal/core/port/mock"
	"github.com/golang/mock/gomock"
	"github.com/govalues/decimal"
	"github.com/stretchr/testify/assert"
)

func newPayableOrder() *domain.Order {
	return &domain.Order{
		ID:           7,
		Number:       "DK-260828-000123",
		UserID:       1,
		ShopID:       2,
		Total:        decimal.MustParse("2999.01"),
		Status:       domain.OrderStatusPending,
		PaymentState: domain.PaymentStateUnpaid,
		Version:      1,
	}
}

// expectInitiate wires repo.InitiatePayment to run the order callback against
// a fresh payable order and hand back the mutated order for assertions.
func expectInitiate(repo *mock.MockRepository, captured **domain.Order) {
	repo.EXPECT().InitiatePayment(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, payment *domain.Payment, orderFn port.UpdateOrderFn) (*domain.Payment, error) {
			order := newPayableOrder()
			if err := orderFn(order); err != nil {
				return nil, err
			}
			*captured = order
			return payment, nil
		})
}

func newMockProvider(t *testing.T, method domain.PaymentMethod) *mock.MockPaymentProvider {
	t.Helper()
	provider := mock.NewMockPaymentProvider(gomock.NewController(t))
	provider.EXPECT().Method().Return(method).AnyTimes()
	return provider
}

func TestService_InitiatePayment_Validation(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	type validationTest struct {
		name     string
		userID   uint64
		method   domain.PaymentMethod
		mock     prepareMocks
		expError error
	}

	tests := []validationTest{
		{
			name: "unknown method", userID: 1, method: domain.PaymentMethod("visa"),
			mock:     func(repo *mock.MockRepository, provider *mock.MockPaymentProvider, events *mock.MockEventPublisher) {},
			expError: domain.ErrInvalidPaymentMethod,
		},
		{
			name: "order not found", userID: 1, method: domain.PaymentMethodBalance,
			mock: func(repo *mock.MockRepository, provider *mock.MockPaymentProvider, events *mock.MockEventPublisher) {
				repo.EXPECT().ReadOrder(gomock.Any(), uint64(7)).Return(nil, domain.ErrDataNotFound)
			},
			expError: domain.ErrOrderNotPayable,
		},
		{
			name: "other user's order", userID: 99, method: domain.PaymentMethodBalance,
			mock: func(repo *mock.MockRepository, provider *mock.MockPaymentProvider, events *mock.MockEventPublisher) {
				repo.EXPECT().ReadOrder(gomock.Any(), uint64(7)).Return(newPayableOrder(), nil)
			},
			expError: domain.ErrOrderNotPayable,
		},
		{
			name: "already paid order", userID: 1, method: domain.PaymentMethodBalance,
			mock: func(repo *mock.MockRepository, provider *mock.MockPaymentProvider, events *mock.MockEventPublisher) {
				order := newPayableOrder()
				order.Status = domain.OrderStatusPaid
				order.PaymentState = domain.PaymentStatePaid
				repo.EXPECT().ReadOrder(gomock.Any(), uint64(7)).Return(order, nil)
			},
			expError: domain.ErrOrderNotPayable,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			repo := mock.NewMockRepository(mockCtrl)
			test.mock(repo, nil, nil)

			s := newTestService(t, repo, nil)

			receipt, err := s.InitiatePayment(context.Background(), test.userID, 7,
				test.method, "https://dukan.kg/orders")

			assert.Nil(t, receipt)
			assert.Equal(t, test.expError, err)
		})
	}
}

func TestService_InitiatePayment_Balance(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	t.Run("sufficient balance settles in full", func(t *testing.T) {
		repo := mock.NewMockRepository(mockCtrl)
		events := mock.NewMockEventPublisher(mockCtrl)

		var lockedOrder *domain.Order
		var settledBalance *domain.Balance

		repo.EXPECT().ReadOrder(gomock.Any(), uint64(7)).Return(newPayableOrder(), nil)
		expectInitiate(repo, &lockedOrder)
		repo.EXPECT().UpdateUserBalanceByPayment(gomock.Any(), uint64(1), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ uint64, _ string, fn port.UpdateBalanceFn) (*domain.Balance, error) {
				balance := &domain.Balance{UserID: 1, Current: decimal.MustParse("3500.75"), Spent: decimal.Zero}
				payment := &domain.Payment{ID: "p1", Status: domain.PaymentStatusPending}
				if err := fn(balance, lockedOrder, payment); err != nil {
					return nil, err
				}
				settledBalance = balance
				return balance, nil
			})
		events.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)

		s := newTestService(t, repo, events)

		receipt, err := s.InitiatePayment(context.Background(), 1, 7,
			domain.PaymentMethodBalance, "https://dukan.kg/orders")

		assert.NoError(t, err)
		// 2999.01 is covered by 3000 whole units
		assert.Equal(t, "500.75", settledBalance.Current.String())
		assert.Equal(t, "3000", settledBalance.Spent.String())
		assert.Equal(t, domain.OrderStatusPaid, lockedOrder.Status)
		assert.Equal(t, domain.PaymentStatePaid, lockedOrder.PaymentState)
		assert.Equal(t, domain.PaymentStatusCompleted, receipt.Payment.Status)
		assert.NotNil(t, receipt.Payment.PaidAt)
		assert.Equal(t, "https://dukan.kg/orders?order=DK-260828-000123&status=success", receipt.RedirectURL)
	})

	t.Run("insufficient balance deducts nothing", func(t *testing.T) {
		repo := mock.NewMockRepository(mockCtrl)

		var lockedOrder *domain.Order
		balance := &domain.Balance{UserID: 1, Current: decimal.MustParse("2999.99"), Spent: decimal.Zero}

		repo.EXPECT().ReadOrder(gomock.Any(), uint64(7)).Return(newPayableOrder(), nil)
		expectInitiate(repo, &lockedOrder)
		repo.EXPECT().UpdateUserBalanceByPayment(gomock.Any(), uint64(1), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ uint64, _ string, fn port.UpdateBalanceFn) (*domain.Balance, error) {
				payment := &domain.Payment{ID: "p1", Status: domain.PaymentStatusPending}
				if err := fn(balance, lockedOrder, payment); err != nil {
					return nil, err
				}
				return balance, nil
			})
		repo.EXPECT().SettlePayment(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, paymentID string, fn port.SettlePaymentFn) (*domain.Payment, error) {
				payment := &domain.Payment{ID: paymentID, Status: domain.PaymentStatusPending}
				if err := fn(lockedOrder, payment); err != nil {
					return nil, err
				}
				assert.Equal(t, domain.PaymentStatusFailed, payment.Status)
				assert.Equal(t, "insufficient balance", payment.Note)
				return payment, nil
			})

		s := newTestService(t, repo, nil)

		receipt, err := s.InitiatePayment(context.Background(), 1, 7,
			domain.PaymentMethodBalance, "https://dukan.kg/orders")

		assert.Nil(t, receipt)
		var insufficient *domain.InsufficientBalanceError
		assert.ErrorAs(t, err, &insufficient)
		assert.Equal(t, "3000", insufficient.Required.String())
		assert.Equal(t, "2999.99", insufficient.Available.String())

		assert.Equal(t, "2999.99", balance.Current.String())
		assert.Equal(t, "0", balance.Spent.String())
		assert.Equal(t, domain.OrderStatusPending, lockedOrder.Status)
		assert.Equal(t, domain.PaymentStateUnpaid, lockedOrder.PaymentState)
	})

	t.Run("cancel racing the debit deducts nothing", func(t *testing.T) {
		repo := mock.NewMockRepository(mockCtrl)

		var lockedOrder *domain.Order
		balance := &domain.Balance{UserID: 1, Current: decimal.MustParse("3500.75"), Spent: decimal.Zero}

		repo.EXPECT().ReadOrder(gomock.Any(), uint64(7)).Return(newPayableOrder(), nil)
		expectInitiate(repo, &lockedOrder)
		repo.EXPECT().UpdateUserBalanceByPayment(gomock.Any(), uint64(1), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ uint64, _ string, fn port.UpdateBalanceFn) (*domain.Balance, error) {
				// the seller cancelled between initiation and the debit
				lockedOrder.Status = domain.OrderStatusCancelled
				payment := &domain.Payment{ID: "p1", Status: domain.PaymentStatusPending}
				if err := fn(balance, lockedOrder, payment); err != nil {
					return nil, err
				}
				return balance, nil
			})
		repo.EXPECT().SettlePayment(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, paymentID string, fn port.SettlePaymentFn) (*domain.Payment, error) {
				payment := &domain.Payment{ID: paymentID, Status: domain.PaymentStatusPending}
				if err := fn(lockedOrder, payment); err != nil {
					return nil, err
				}
				assert.Equal(t, domain.PaymentStatusFailed, payment.Status)
				assert.Equal(t, "order left the payment flow", payment.Note)
				return payment, nil
			})

		s := newTestService(t, repo, nil)

		receipt, err := s.InitiatePayment(context.Background(), 1, 7,
			domain.PaymentMethodBalance, "https://dukan.kg/orders")

		assert.Nil(t, receipt)
		assert.Equal(t, domain.ErrOrderNotPayable, err)
		assert.Equal(t, "3500.75", balance.Current.String())
		assert.Equal(t, "0", balance.Spent.String())
		assert.Equal(t, domain.OrderStatusCancelled, lockedOrder.Status)
	})
}

func TestService_InitiatePayment_Cash(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	repo := mock.NewMockRepository(mockCtrl)

	var lockedOrder *domain.Order
	repo.EXPECT().ReadOrder(gomock.Any(), uint64(7)).Return(newPayableOrder(), nil)
	expectInitiate(repo, &lockedOrder)

	s := newTestService(t, repo, nil)

	receipt, err := s.InitiatePayment(context.Background(), 1, 7,
		domain.PaymentMethodCash, "https://dukan.kg/orders")

	assert.NoError(t, err)
	// cash keeps the order pending for the seller, marked as COD
	assert.Equal(t, domain.OrderStatusPending, lockedOrder.Status)
	assert.Equal(t, domain.PaymentStateCOD, lockedOrder.PaymentState)
	assert.Equal(t, domain.PaymentMethodCash, lockedOrder.PaymentMethod)
	assert.Equal(t, domain.PaymentStatusPending, receipt.Payment.Status)
	assert.Equal(t, "cash on delivery", receipt.Payment.Note)
	assert.Equal(t, "https://dukan.kg/orders?method=cash&order=DK-260828-000123", receipt.RedirectURL)
}

func TestService_InitiatePayment_Provider(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	t.Run("invoice issued", func(t *testing.T) {
		repo := mock.NewMockRepository(mockCtrl)
		provider := newMockProvider(t, domain.PaymentMethodMBank)

		var lockedOrder *domain.Order
		repo.EXPECT().ReadOrder(gomock.Any(), uint64(7)).Return(newPayableOrder(), nil)
		expectInitiate(repo, &lockedOrder)

		provider.EXPECT().CreateInvoice(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, req port.InvoiceRequest) (*port.Invoice, error) {
				assert.Equal(t, "DK-260828-000123", req.OrderNumber)
				assert.Equal(t, "https://api.dukan.kg/api/payments/webhook/mbank", req.CallbackURL)
				return &port.Invoice{
					TransactionID: "MB-1756380000-000042",
					PaymentURL:    "https://pay.mbank.kg/i/42",
					Mock:          true,
					Raw:           []byte(`{"mock":true}`),
				}, nil
			})

		repo.EXPECT().SettlePayment(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, paymentID string, fn port.SettlePaymentFn) (*domain.Payment, error) {
				payment := &domain.Payment{ID: paymentID, Status: domain.PaymentStatusPending}
				if err := fn(lockedOrder, payment); err != nil {
					return nil, err
				}
				return payment, nil
			})

		s := newTestService(t, repo, nil, provider)

		receipt, err := s.InitiatePayment(context.Background(), 1, 7,
			domain.PaymentMethodMBank, "https://dukan.kg/orders")

		assert.NoError(t, err)
		assert.Equal(t, domain.OrderStatusAwaitingPayment, lockedOrder.Status)
		assert.Equal(t, domain.PaymentStatusProcessing, receipt.Payment.Status)
		assert.Equal(t, "MB-1756380000-000042", receipt.Payment.TransactionID)
		assert.Equal(t, "https://pay.mbank.kg/i/42", receipt.PaymentURL)
		assert.True(t, receipt.Mock)
	})

	t.Run("provider failure reverts the order", func(t *testing.T) {
		repo := mock.NewMockRepository(mockCtrl)
		provider := newMockProvider(t, domain.PaymentMethodMBank)

		var lockedOrder *domain.Order
		repo.EXPECT().ReadOrder(gomock.Any(), uint64(7)).Return(newPayableOrder(), nil)
		expectInitiate(repo, &lockedOrder)

		provider.EXPECT().CreateInvoice(gomock.Any(), gomock.Any()).
			Return(nil, errors.New("mbank: status 503"))

		repo.EXPECT().SettlePayment(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, paymentID string, fn port.SettlePaymentFn) (*domain.Payment, error) {
				payment := &domain.Payment{ID: paymentID, Status: domain.PaymentStatusPending}
				if err := fn(lockedOrder, payment); err != nil {
					return nil, err
				}
				assert.Equal(t, domain.PaymentStatusFailed, payment.Status)
				assert.Equal(t, "provider error", payment.Note)
				return payment, nil
			})

		s := newTestService(t, repo, nil, provider)

		receipt, err := s.InitiatePayment(context.Background(), 1, 7,
			domain.PaymentMethodMBank, "https://dukan.kg/orders")

		assert.Nil(t, receipt)
		assert.Equal(t, domain.ErrPaymentProvider, err)
		assert.Equal(t, domain.OrderStatusPending, lockedOrder.Status)
		assert.Equal(t, domain.PaymentStateUnpaid, lockedOrder.PaymentState)
	})
}

func TestService_CompletePayment(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	t.Run("first terminal write wins", func(t *testing.T) {
		repo := mock.NewMockRepository(mockCtrl)
		events := mock.NewMockEventPublisher(mockCtrl)

		order := newPayableOrder()
		order.Status = domain.OrderStatusAwaitingPayment

		repo.EXPECT().SettlePayment(gomock.Any(), "p1", gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, fn port.SettlePaymentFn) (*domain.Payment, error) {
				payment := &domain.Payment{ID: "p1", OrderID: 7, Status: domain.PaymentStatusProcessing}
				if err := fn(order, payment); err != nil {
					return nil, err
				}
				return payment, nil
			})
		events.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)

		s := newTestService(t, repo, events)

		payment, err := s.CompletePayment(context.Background(), "p1", "MB-1", []byte(`{}`))
		assert.NoError(t, err)
		assert.Equal(t, domain.PaymentStatusCompleted, payment.Status)
		assert.Equal(t, "MB-1", payment.TransactionID)
		assert.NotNil(t, payment.PaidAt)
		assert.Equal(t, domain.OrderStatusPaid, order.Status)
		assert.Equal(t, domain.PaymentStatePaid, order.PaymentState)
	})

	t.Run("replay against terminal payment is rejected", func(t *testing.T) {
		repo := mock.NewMockRepository(mockCtrl)

		repo.EXPECT().SettlePayment(gomock.Any(), "p1", gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, fn port.SettlePaymentFn) (*domain.Payment, error) {
				order := newPayableOrder()
				order.Status = domain.OrderStatusPaid
				payment := &domain.Payment{ID: "p1", OrderID: 7, Status: domain.PaymentStatusCompleted}
				if err := fn(order, payment); err != nil {
					return nil, err
				}
				return payment, nil
			})

		s := newTestService(t, repo, nil)

		payment, err := s.CompletePayment(context.Background(), "p1", "MB-2", nil)
		assert.Nil(t, payment)
		assert.Equal(t, domain.ErrPaymentTerminal, err)
	})
}

func TestService_FailPayment(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	repo := mock.NewMockRepository(mockCtrl)
	events := mock.NewMockEventPublisher(mockCtrl)

	order := newPayableOrder()
	order.Status = domain.OrderStatusAwaitingPayment

	repo.EXPECT().SettlePayment(gomock.Any(), "p1", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, fn port.SettlePaymentFn) (*domain.Payment, error) {
			payment := &domain.Payment{ID: "p1", OrderID: 7, Status: domain.PaymentStatusProcessing}
			if err := fn(order, payment); err != nil {
				return nil, err
			}
			return payment, nil
		})
	events.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)

	s := newTestService(t, repo, events)

	payment, err := s.FailPayment(context.Background(), "p1", "provider callback", nil)
	assert.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusFailed, payment.Status)
	assert.Equal(t, "provider callback", payment.Note)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Equal(t, domain.PaymentStateUnpaid, order.PaymentState)
}

func TestService_SimulatePayment(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	payment := &domain.Payment{
		ID:            "p1",
		OrderID:       7,
		UserID:        1,
		Method:        domain.PaymentMethodMBank,
		Status:        domain.PaymentStatusProcessing,
		TransactionID: "MB-1",
	}

	t.Run("mock provider completes", func(t *testing.T) {
		repo := mock.NewMockRepository(mockCtrl)
		events := mock.NewMockEventPublisher(mockCtrl)
		provider := newMockProvider(t, domain.PaymentMethodMBank)
		provider.EXPECT().Mock().Return(true)

		repo.EXPECT().ReadPayment(gomock.Any(), "p1").Return(payment, nil)
		repo.EXPECT().SettlePayment(gomock.Any(), "p1", gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, fn port.SettlePaymentFn) (*domain.Payment, error) {
				order := newPayableOrder()
				order.Status = domain.OrderStatusAwaitingPayment
				p := &domain.Payment{ID: "p1", OrderID: 7, Status: domain.PaymentStatusProcessing}
				if err := fn(order, p); err != nil {
					return nil, err
				}
				return p, nil
			})
		events.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)

		s := newTestService(t, repo, events, provider)

		result, err := s.SimulatePayment(context.Background(), 1, "p1")
		assert.NoError(t, err)
		assert.Equal(t, domain.PaymentStatusCompleted, result.Status)
	})

	t.Run("real provider refuses", func(t *testing.T) {
		repo := mock.NewMockRepository(mockCtrl)
		provider := newMockProvider(t, domain.PaymentMethodMBank)
		provider.EXPECT().Mock().Return(false)

		repo.EXPECT().ReadPayment(gomock.Any(), "p1").Return(payment, nil)

		s := newTestService(t, repo, nil, provider)

		_, err := s.SimulatePayment(context.Background(), 1, "p1")
		assert.Equal(t, domain.ErrSimulateDisabled, err)
	})

	t.Run("other user's payment is hidden", func(t *testing.T) {
		repo := mock.NewMockRepository(mockCtrl)

		repo.EXPECT().ReadPayment(gomock.Any(), "p1").Return(payment, nil)

		s := newTestService(t, repo, nil)

		_, err := s.SimulatePayment(context.Background(), 99, "p1")
		assert.Equal(t, domain.ErrDataNotFound, err)
	})
}

func TestService_HandleProviderCallback(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	body := []byte(`{"event_id":"ev-1","transaction_id":"MB-1","status":"success"}`)

	t.Run("fresh completed event settles", func(t *testing.T) {
		repo := mock.NewMockRepository(mockCtrl)
		events := mock.NewMockEventPublisher(mockCtrl)
		provider := newMockProvider(t, domain.PaymentMethodMBank)

		provider.EXPECT().ParseCallback(gomock.Any(), body).
			Return(&port.CallbackEvent{
				EventID:       "ev-1",
				TransactionID: "MB-1",
				Status:        domain.PaymentStatusCompleted,
				Raw:           body,
			}, nil)
		repo.EXPECT().RecordProviderEvent(gomock.Any(), gomock.Any()).Return(true, nil)
		repo.EXPECT().FindPaymentByTransaction(gomock.Any(), domain.PaymentMethodMBank, "MB-1").
			Return(&domain.Payment{ID: "p1", OrderID: 7, UserID: 1, Method: domain.PaymentMethodMBank,
				Status: domain.PaymentStatusProcessing}, nil)
		repo.EXPECT().SettlePayment(gomock.Any(), "p1", gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, fn port.SettlePaymentFn) (*domain.Payment, error) {
				order := newPayableOrder()
				order.Status = domain.OrderStatusAwaitingPayment
				p := &domain.Payment{ID: "p1", OrderID: 7, Status: domain.PaymentStatusProcessing}
				if err := fn(order, p); err != nil {
					return nil, err
				}
				return p, nil
			})
		events.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)

		s := newTestService(t, repo, events, provider)

		payment, err := s.HandleProviderCallback(context.Background(),
			domain.PaymentMethodMBank, http.Header{}, body)
		assert.NoError(t, err)
		assert.Equal(t, domain.PaymentStatusCompleted, payment.Status)
	})

	t.Run("webhook after cancel leaves the order cancelled", func(t *testing.T) {
		repo := mock.NewMockRepository(mockCtrl)
		events := mock.NewMockEventPublisher(mockCtrl)
		provider := newMockProvider(t, domain.PaymentMethodMBank)

		provider.EXPECT().ParseCallback(gomock.Any(), body).
			Return(&port.CallbackEvent{
				EventID:       "ev-1",
				TransactionID: "MB-1",
				Status:        domain.PaymentStatusCompleted,
				Raw:           body,
			}, nil)
		repo.EXPECT().RecordProviderEvent(gomock.Any(), gomock.Any()).Return(true, nil)
		repo.EXPECT().FindPaymentByTransaction(gomock.Any(), domain.PaymentMethodMBank, "MB-1").
			Return(&domain.Payment{ID: "p1", OrderID: 7, UserID: 1, Method: domain.PaymentMethodMBank,
				Status: domain.PaymentStatusProcessing}, nil)

		order := newPayableOrder()
		order.Status = domain.OrderStatusCancelled
		repo.EXPECT().SettlePayment(gomock.Any(), "p1", gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, fn port.SettlePaymentFn) (*domain.Payment, error) {
				p := &domain.Payment{ID: "p1", OrderID: 7, Status: domain.PaymentStatusProcessing}
				if err := fn(order, p); err != nil {
					return nil, err
				}
				return p, nil
			})
		events.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)

		s := newTestService(t, repo, events, provider)

		payment, err := s.HandleProviderCallback(context.Background(),
			domain.PaymentMethodMBank, http.Header{}, body)
		assert.NoError(t, err)
		// the captured funds are kept on the payment for the refund path
		assert.Equal(t, domain.PaymentStatusCompleted, payment.Status)
		assert.Equal(t, "order no longer payable, refund required", payment.Note)
		assert.Equal(t, domain.OrderStatusCancelled, order.Status)
		assert.Equal(t, domain.PaymentStateUnpaid, order.PaymentState)
	})

	t.Run("replayed event id is dropped", func(t *testing.T) {
		repo := mock.NewMockRepository(mockCtrl)
		provider := newMockProvider(t, domain.PaymentMethodMBank)

		provider.EXPECT().ParseCallback(gomock.Any(), body).
			Return(&port.CallbackEvent{
				EventID:       "ev-1",
				TransactionID: "MB-1",
				Status:        domain.PaymentStatusCompleted,
				Raw:           body,
			}, nil)
		repo.EXPECT().RecordProviderEvent(gomock.Any(), gomock.Any()).Return(false, nil)

		s := newTestService(t, repo, nil, provider)

		_, err := s.HandleProviderCallback(context.Background(),
			domain.PaymentMethodMBank, http.Header{}, body)
		assert.Equal(t, domain.ErrPaymentTerminal, err)
	})

	t.Run("unknown transaction", func(t *testing.T) {
		repo := mock.NewMockRepository(mockCtrl)
		provider := newMockProvider(t, domain.PaymentMethodMBank)

		provider.EXPECT().ParseCallback(gomock.Any(), body).
			Return(&port.CallbackEvent{TransactionID: "MB-404", Status: domain.PaymentStatusCompleted}, nil)
		repo.EXPECT().FindPaymentByTransaction(gomock.Any(), domain.PaymentMethodMBank, "MB-404").
			Return(nil, domain.ErrDataNotFound)

		s := newTestService(t, repo, nil, provider)

		_, err := s.HandleProviderCallback(context.Background(),
			domain.PaymentMethodMBank, http.Header{}, body)
		assert.Equal(t, domain.ErrPaymentNotFound, err)
	})

	t.Run("unconfigured provider", func(t *testing.T) {
		repo := mock.NewMockRepository(mockCtrl)
		s := newTestService(t, repo, nil)

		_, err := s.HandleProviderCallback(context.Background(),
			domain.PaymentMethodMBank, http.Header{}, body)
		assert.Equal(t, domain.ErrInvalidPaymentMethod, err)
	})
}

func TestService_ExpireStalePayments(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	repo := mock.NewMockRepository(mockCtrl)
	events := mock.NewMockEventPublisher(mockCtrl)

	stale := []*domain.Payment{
		{ID: "p1", OrderID: 7, Status: domain.PaymentStatusProcessing},
		{ID: "p2", OrderID: 8, Status: domain.PaymentStatusProcessing},
	}

	repo.EXPECT().ListStalePayments(gomock.Any(), gomock.Any()).Return(stale, nil)
	// p1 is still open, p2 got completed by a webhook racing the sweep
	repo.EXPECT().SettlePayment(gomock.Any(), "p1", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, fn port.SettlePaymentFn) (*domain.Payment, error) {
			order := newPayableOrder()
			order.Status = domain.OrderStatusAwaitingPayment
			p := &domain.Payment{ID: "p1", OrderID: 7, Status: domain.PaymentStatusProcessing}
			if err := fn(order, p); err != nil {
				return nil, err
			}
			assert.Equal(t, "payment expired", p.Note)
			assert.Equal(t, domain.OrderStatusPending, order.Status)
			return p, nil
		})
	repo.EXPECT().SettlePayment(gomock.Any(), "p2", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, fn port.SettlePaymentFn) (*domain.Payment, error) {
			order := newPayableOrder()
			order.ID = 8
			order.Status = domain.OrderStatusPaid
			p := &domain.Payment{ID: "p2", OrderID: 8, Status: domain.PaymentStatusCompleted}
			if err := fn(order, p); err != nil {
				return nil, err
			}
			return p, nil
		})
	events.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)

	s := newTestService(t, repo, events)

	expired, err := s.ExpireStalePayments(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 1, expired)
}

func TestService_GetPayments(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	payment := &domain.Payment{ID: "p1", OrderID: 7, UserID: 1}

	t.Run("by payment id", func(t *testing.T) {
		repo := mock.NewMockRepository(mockCtrl)
		repo.EXPECT().ReadPayment(gomock.Any(), "p1").Return(payment, nil)
		s := newTestService(t, repo, nil)

		list, err := s.GetPayments(context.Background(), 1, 0, "p1")
		assert.NoError(t, err)
		assert.Equal(t, []*domain.Payment{payment}, list)
	})

	t.Run("by payment id of another user", func(t *testing.T) {
		repo := mock.NewMockRepository(mockCtrl)
		repo.EXPECT().ReadPayment(gomock.Any(), "p1").Return(payment, nil)
		s := newTestService(t, repo, nil)

		_, err := s.GetPayments(context.Background(), 99, 0, "p1")
		assert.Equal(t, domain.ErrDataNotFound, err)
	})

	t.Run("by order", func(t *testing.T) {
		repo := mock.NewMockRepository(mockCtrl)
		repo.EXPECT().ListPaymentsByOrder(gomock.Any(), uint64(1), uint64(7)).
			Return([]*domain.Payment{payment}, nil)
		s := newTestService(t, repo, nil)

		list, err := s.GetPayments(context.Background(), 1, 7, "")
		assert.NoError(t, err)
		assert.Len(t, list, 1)
	})

	t.Run("all for user", func(t *testing.T) {
		repo := mock.NewMockRepository(mockCtrl)
		repo.EXPECT().ListPaymentsByUser(gomock.Any(), uint64(1)).
			Return([]*domain.Payment{payment}, nil)
		s := newTestService(t, repo, nil)

		list, err := s.GetPayments(context.Background(), 1, 0, "")
		assert.NoError(t, err)
		assert.Len(t, list, 1)
	})
}
