package provider

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/dukan-market/dukanpay/internal/core/domain"
	"github.com/dukan-market/dukanpay/internal/core/port"
	"github.com/dukan-market/dukanpay/internal/core/utils"
	"go.uber.org/zap"
)

const mbankSignatureHeader = "X-Mbank-Signature"

// MBank is the adapter for the MBank invoice API. MBank is the one provider
// that requires a request signature: HMAC-SHA256 over merchant id, amount,
// order number and timestamp.
type MBank struct {
	conf   Config
	client *http.Client
	logger *zap.Logger
}

func NewMBank(conf Config, logger *zap.Logger) *MBank {
	return &MBank{conf: conf, client: newHTTPClient(), logger: logger}
}

func (m *MBank) Method() domain.PaymentMethod { return domain.PaymentMethodMBank }

func (m *MBank) Mock() bool { return m.conf.Mock() }

func (m *MBank) CreateInvoice(ctx context.Context, req port.InvoiceRequest) (*port.Invoice, error) {
	if m.Mock() {
		txn := mockTransactionID("MBANK")
		return &port.Invoice{
			TransactionID: txn,
			QRCode:        qrImageURL(txn),
			Instructions: []string{
				"1. Откройте приложение MBank",
				"2. Выберите «Оплата по QR»",
				"3. Отсканируйте QR-код на экране",
				fmt.Sprintf("4. Подтвердите оплату на сумму %s сом", utils.FormatAmount(req.Amount)),
			},
			Mock: true,
		}, nil
	}

	ts := strconv.FormatInt(time.Now().Unix(), 10)
	body := struct {
		MerchantID  string `json:"merchant_id"`
		Amount      string `json:"amount"`
		OrderID     string `json:"order_id"`
		Timestamp   string `json:"timestamp"`
		Signature   string `json:"signature"`
		CallbackURL string `json:"callback_url"`
		RedirectURL string `json:"redirect_url"`
	}{
		MerchantID:  m.conf.MerchantID,
		Amount:      req.Amount.String(),
		OrderID:     req.OrderNumber,
		Timestamp:   ts,
		Signature:   m.sign(req.Amount.String(), req.OrderNumber, ts),
		CallbackURL: req.CallbackURL,
		RedirectURL: req.ReturnURL,
	}

	var result struct {
		PaymentURL    string `json:"payment_url"`
		TransactionID string `json:"transaction_id"`
		QR            string `json:"qr"`
	}
	raw, err := postJSON(ctx, m.client, m.conf.APIURL+"/api/v1/invoice", body, &result)
	if err != nil {
		m.logger.Error("MBank invoice request", zap.String("order", req.OrderNumber), zap.Error(err))
		return nil, fmt.Errorf("mbank: %w", err)
	}

	return &port.Invoice{
		TransactionID: result.TransactionID,
		PaymentURL:    result.PaymentURL,
		QRCode:        result.QR,
		Raw:           raw,
	}, nil
}

func (m *MBank) ParseCallback(header http.Header, body []byte) (*port.CallbackEvent, error) {
	if !m.Mock() {
		sig := header.Get(mbankSignatureHeader)
		mac := hmac.New(sha256.New, []byte(m.conf.SecretKey))
		mac.Write(body)
		want := hex.EncodeToString(mac.Sum(nil))
		if !hmac.Equal([]byte(sig), []byte(want)) {
			return nil, domain.ErrForbidden
		}
	}

	var cb struct {
		EventID       string `json:"event_id"`
		TransactionID string `json:"transaction_id"`
		Status        string `json:"status"`
	}
	if err := json.Unmarshal(body, &cb); err != nil {
		return nil, domain.ErrBadRequest
	}

	ev := &port.CallbackEvent{
		EventID:       cb.EventID,
		TransactionID: cb.TransactionID,
		Raw:           body,
	}
	switch cb.Status {
	case "success":
		ev.Status = domain.PaymentStatusCompleted
	case "failed", "cancelled":
		ev.Status = domain.PaymentStatusFailed
	default:
		return nil, domain.ErrBadRequest
	}
	return ev, nil
}

func (m *MBank) sign(amount, orderNumber, ts string) string {
	mac := hmac.New(sha256.New, []byte(m.conf.SecretKey))
	mac.Write([]byte(m.conf.MerchantID + amount + orderNumber + ts))
	return hex.EncodeToString(mac.Sum(nil))
}
