package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dukan-market/dukanpay/internal/core/domain"
	"github.com/dukan-market/dukanpay/internal/core/port"
	"github.com/dukan-market/dukanpay/internal/core/port/mock"
	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newWebhookRouter(t *testing.T, service port.Service) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	wh, err := NewWebhookHandler(service, zap.NewNop())
	require.NoError(t, err)

	router := gin.New()
	router.POST("/api/payments/webhook/:provider", wh.HandleCallback)
	return router
}

func TestWebhookHandler_HandleCallback(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	body := `{"event_id":"ev-1","transaction_id":"MB-42","status":"success"}`

	t.Run("applied", func(t *testing.T) {
		service := mock.NewMockService(mockCtrl)
		service.EXPECT().HandleProviderCallback(gomock.Any(), domain.PaymentMethodMBank,
			gomock.Any(), []byte(body)).
			Return(&domain.Payment{ID: "p1", Status: domain.PaymentStatusCompleted}, nil)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook/mbank", strings.NewReader(body))
		newWebhookRouter(t, service).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	})

	t.Run("replay answers 200", func(t *testing.T) {
		service := mock.NewMockService(mockCtrl)
		service.EXPECT().HandleProviderCallback(gomock.Any(), domain.PaymentMethodMBank,
			gomock.Any(), []byte(body)).
			Return(nil, domain.ErrPaymentTerminal)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook/mbank", strings.NewReader(body))
		newWebhookRouter(t, service).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	})

	t.Run("unknown provider", func(t *testing.T) {
		service := mock.NewMockService(mockCtrl)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook/visa", strings.NewReader(body))
		newWebhookRouter(t, service).ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("balance is not a webhook provider", func(t *testing.T) {
		service := mock.NewMockService(mockCtrl)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook/balance", strings.NewReader(body))
		newWebhookRouter(t, service).ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown transaction", func(t *testing.T) {
		service := mock.NewMockService(mockCtrl)
		service.EXPECT().HandleProviderCallback(gomock.Any(), domain.PaymentMethodODengi,
			gomock.Any(), gomock.Any()).
			Return(nil, domain.ErrPaymentNotFound)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook/odengi", strings.NewReader(body))
		newWebhookRouter(t, service).ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
