package http

import (
	"errors"
	"net/http"

	"github.com/dukan-market/dukanpay/internal/core/domain"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var errorStatusMap = map[error]int{
	domain.ErrInternal:        http.StatusInternalServerError,
	domain.ErrDataNotFound:    http.StatusNotFound,
	domain.ErrConflictingData: http.StatusConflict,
	domain.ErrVersionConflict: http.StatusConflict,

	domain.ErrInvalidCredentials:         http.StatusUnauthorized,
	domain.ErrUnauthorized:               http.StatusUnauthorized,
	domain.ErrEmptyAuthorizationHeader:   http.StatusUnauthorized,
	domain.ErrInvalidAuthorizationHeader: http.StatusUnauthorized,
	domain.ErrInvalidAuthorizationType:   http.StatusUnauthorized,
	domain.ErrInvalidToken:               http.StatusUnauthorized,
	domain.ErrExpiredToken:               http.StatusUnauthorized,
	domain.ErrForbidden:                  http.StatusForbidden,

	domain.ErrNoUpdatedData: http.StatusBadRequest,
	domain.ErrBadRequest:    http.StatusBadRequest,

	domain.ErrInvalidPaymentMethod: http.StatusBadRequest,
	domain.ErrOrderNotPayable:      http.StatusNotFound,
	domain.ErrPaymentNotFound:      http.StatusNotFound,
	domain.ErrPaymentTerminal:      http.StatusConflict,
	domain.ErrInvalidTransition:    http.StatusUnprocessableEntity,
	domain.ErrOrderNotCancellable:  http.StatusUnprocessableEntity,
	domain.ErrSimulateDisabled:     http.StatusForbidden,
	domain.ErrPaymentProvider:      http.StatusBadGateway,
}

// errorMessageMap holds the buyer-facing localized messages for the errors
// the storefront shows as inline banners.
var errorMessageMap = map[error]string{
	domain.ErrInvalidPaymentMethod: "Способ оплаты не поддерживается",
	domain.ErrOrderNotPayable:      "Заказ не найден или уже оплачен",
	domain.ErrPaymentProvider:      "Платёжный сервис временно недоступен, попробуйте позже",
	domain.ErrOrderNotCancellable:  "Заказ уже нельзя отменить",
}

type Handler struct {
	logger *zap.Logger
}

func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{logger: logger}
}

// handleValidationError sends an error response for some specific request validation error
func (h *Handler) handleValidationError(ctx *gin.Context, err error) {
	ctx.JSON(http.StatusBadRequest, gin.H{"error": domain.ErrBadRequest.Error()})
}

// handleAbort sends an error response and aborts the request with the specified status code and error message
func (h *Handler) handleAbort(ctx *gin.Context, err error) {
	statusCode, ok := errorStatusMap[err]
	if !ok {
		statusCode = http.StatusInternalServerError
		h.logger.Error("aborting request", zap.Error(err))
	}
	ctx.AbortWithStatusJSON(statusCode, gin.H{"error": err.Error()})
}

func (h *Handler) handleError(ctx *gin.Context, err error) {
	var insufficient *domain.InsufficientBalanceError
	if errors.As(err, &insufficient) {
		// decimals marshal as strings; the storefront expects plain numbers
		required, _ := insufficient.Required.Float64()
		available, _ := insufficient.Available.Float64()
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error":     "Недостаточно средств на балансе",
			"required":  required,
			"available": available,
		})
		return
	}

	statusCode, ok := errorStatusMap[err]
	if !ok {
		statusCode = http.StatusInternalServerError
		h.logger.Error("error processing request", zap.Error(err))
	}
	message, ok := errorMessageMap[err]
	if !ok {
		message = err.Error()
	}
	ctx.JSON(statusCode, gin.H{"error": message})
}

// handleSuccess sends a success response with the specified status code and optional data
func (h *Handler) handleSuccessWithStatus(ctx *gin.Context, data any, status int) {
	if data != nil {
		ctx.JSON(status, data)
	} else {
		ctx.Status(status)
	}
}

func (h *Handler) handleSuccess(ctx *gin.Context, data any) {
	h.handleSuccessWithStatus(ctx, data, http.StatusOK)
}
