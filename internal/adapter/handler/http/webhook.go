package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/dukan-market/dukanpay/internal/core/domain"
	"github.com/dukan-market/dukanpay/internal/core/port"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type WebhookHandler struct {
	Handler
	service port.Service
}

func NewWebhookHandler(service port.Service, logger *zap.Logger) (*WebhookHandler, error) {
	return &WebhookHandler{
		Handler: *NewHandler(logger),
		service: service,
	}, nil
}

// HandleCallback receives a provider callback. Providers retry on non-2xx,
// so replays of an already-processed event answer 200.
func (wh *WebhookHandler) HandleCallback(ctx *gin.Context) {
	method := domain.PaymentMethod(ctx.Param("provider"))
	if !method.IsProviderMethod() {
		wh.handleError(ctx, domain.ErrInvalidPaymentMethod)
		return
	}

	body, err := io.ReadAll(ctx.Request.Body)
	if err != nil {
		wh.handleValidationError(ctx, err)
		return
	}
	defer ctx.Request.Body.Close()

	payment, err := wh.service.HandleProviderCallback(ctx, method, ctx.Request.Header, body)
	if err != nil {
		if errors.Is(err, domain.ErrPaymentTerminal) {
			wh.logger.Info("duplicate provider callback",
				zap.String("provider", string(method)))
			ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
			return
		}
		wh.handleError(ctx, err)
		return
	}

	wh.logger.Info("provider callback applied",
		zap.String("provider", string(method)),
		zap.String("payment", payment.ID),
		zap.String("status", string(payment.Status)))

	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}
