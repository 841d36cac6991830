// Package reconciler runs the background sweep that expires overdue provider
// payments. It closes the window where an order is stuck in awaiting_payment
// because a buyer abandoned the payment page or a provider never called back.
package reconciler

import (
	"context"
	"time"

	"github.com/dukan-market/dukanpay/internal/core/port"
	"go.uber.org/zap"
)

type PaymentReconciler struct {
	service  port.Service
	interval time.Duration
	logger   *zap.Logger
}

func NewPaymentReconciler(service port.Service, interval time.Duration, logger *zap.Logger) *PaymentReconciler {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &PaymentReconciler{
		service:  service,
		interval: interval,
		logger:   logger,
	}
}

// Run starts the sweep loop; it stops when ctx is cancelled.
func (r *PaymentReconciler) Run(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				expired, err := r.service.ExpireStalePayments(ctx)
				if err != nil {
					r.logger.Error("Expire stale payments", zap.Error(err))
					continue
				}
				if expired > 0 {
					r.logger.Info("Expired stale payments", zap.Int("count", expired))
				}
			case <-ctx.Done():
				r.logger.Debug("Finished payment reconciler")
				return
			}
		}
	}()
}
