package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dukan-market/dukanpay/internal/core/domain"
	"github.com/dukan-market/dukanpay/internal/core/port"
	"github.com/dukan-market/dukanpay/internal/core/utils"
	"go.uber.org/zap"
)

// Elsom is the adapter for the Elsom wallet API (QR-based payments).
type Elsom struct {
	conf   Config
	client *http.Client
	logger *zap.Logger
}

func NewElsom(conf Config, logger *zap.Logger) *Elsom {
	return &Elsom{conf: conf, client: newHTTPClient(), logger: logger}
}

func (e *Elsom) Method() domain.PaymentMethod { return domain.PaymentMethodElsom }

func (e *Elsom) Mock() bool { return e.conf.Mock() }

func (e *Elsom) CreateInvoice(ctx context.Context, req port.InvoiceRequest) (*port.Invoice, error) {
	if e.Mock() {
		txn := mockTransactionID("ELSOM")
		return &port.Invoice{
			TransactionID: txn,
			QRCode:        qrImageURL(txn),
			Instructions: []string{
				"1. Откройте кошелёк Элсом",
				"2. Нажмите «Оплатить по QR»",
				"3. Отсканируйте QR-код",
				fmt.Sprintf("4. Оплатите %s сом и дождитесь подтверждения", utils.FormatAmount(req.Amount)),
			},
			Mock: true,
		}, nil
	}

	body := struct {
		Merchant    string `json:"merchant"`
		Token       string `json:"token"`
		Amount      string `json:"amount"`
		Order       string `json:"order"`
		CallbackURL string `json:"callback_url"`
	}{
		Merchant:    e.conf.MerchantID,
		Token:       e.conf.SecretKey,
		Amount:      req.Amount.String(),
		Order:       req.OrderNumber,
		CallbackURL: req.CallbackURL,
	}

	var result struct {
		InvoiceID string `json:"invoice_id"`
		QRCode    string `json:"qr_code"`
		PayURL    string `json:"pay_url"`
	}
	raw, err := postJSON(ctx, e.client, e.conf.APIURL+"/v1/invoices", body, &result)
	if err != nil {
		e.logger.Error("Elsom invoice request", zap.String("order", req.OrderNumber), zap.Error(err))
		return nil, fmt.Errorf("elsom: %w", err)
	}

	return &port.Invoice{
		TransactionID: result.InvoiceID,
		PaymentURL:    result.PayURL,
		QRCode:        result.QRCode,
		Raw:           raw,
	}, nil
}

func (e *Elsom) ParseCallback(header http.Header, body []byte) (*port.CallbackEvent, error) {
	var cb struct {
		ID        string `json:"id"`
		InvoiceID string `json:"invoice_id"`
		State     string `json:"state"`
	}
	if err := json.Unmarshal(body, &cb); err != nil {
		return nil, domain.ErrBadRequest
	}

	ev := &port.CallbackEvent{
		EventID:       cb.ID,
		TransactionID: cb.InvoiceID,
		Raw:           body,
	}
	switch cb.State {
	case "PAID":
		ev.Status = domain.PaymentStatusCompleted
	case "CANCELLED", "EXPIRED":
		ev.Status = domain.PaymentStatusFailed
	default:
		return nil, domain.ErrBadRequest
	}
	return ev, nil
}
