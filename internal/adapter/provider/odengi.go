package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"

	"github.com/dukan-market/dukanpay/internal/core/domain"
	"github.com/dukan-market/dukanpay/internal/core/port"
	"github.com/dukan-market/dukanpay/internal/core/utils"
	"go.uber.org/zap"
)

// ODengi is the adapter for the O!Dengi API (USSD-based payments).
type ODengi struct {
	conf   Config
	client *http.Client
	logger *zap.Logger
}

func NewODengi(conf Config, logger *zap.Logger) *ODengi {
	return &ODengi{conf: conf, client: newHTTPClient(), logger: logger}
}

func (o *ODengi) Method() domain.PaymentMethod { return domain.PaymentMethodODengi }

func (o *ODengi) Mock() bool { return o.conf.Mock() }

func (o *ODengi) CreateInvoice(ctx context.Context, req port.InvoiceRequest) (*port.Invoice, error) {
	if o.Mock() {
		txn := mockTransactionID("ODENGI")
		ussd := fmt.Sprintf("*404*%06d#", rand.Intn(1000000))
		return &port.Invoice{
			TransactionID: txn,
			QRCode:        qrImageURL(txn),
			USSDCode:      ussd,
			Instructions: []string{
				fmt.Sprintf("1. Наберите %s на телефоне О!", ussd),
				fmt.Sprintf("2. Подтвердите платёж на сумму %s сом", utils.FormatAmount(req.Amount)),
				"3. Дождитесь SMS о списании",
			},
			Mock: true,
		}, nil
	}

	body := struct {
		Cmd         string `json:"cmd"`
		MerchantID  string `json:"sid"`
		Password    string `json:"password"`
		Amount      string `json:"amount"`
		OrderID     string `json:"order_id"`
		CallbackURL string `json:"result_url"`
	}{
		Cmd:         "createInvoice",
		MerchantID:  o.conf.MerchantID,
		Password:    o.conf.SecretKey,
		Amount:      req.Amount.String(),
		OrderID:     req.OrderNumber,
		CallbackURL: req.CallbackURL,
	}

	var result struct {
		OrderID string `json:"order_id"`
		USSD    string `json:"ussd"`
		URL     string `json:"url"`
	}
	raw, err := postJSON(ctx, o.client, o.conf.APIURL+"/api/json/json.php", body, &result)
	if err != nil {
		o.logger.Error("O!Dengi invoice request", zap.String("order", req.OrderNumber), zap.Error(err))
		return nil, fmt.Errorf("odengi: %w", err)
	}

	return &port.Invoice{
		TransactionID: result.OrderID,
		PaymentURL:    result.URL,
		USSDCode:      result.USSD,
		Raw:           raw,
	}, nil
}

func (o *ODengi) ParseCallback(header http.Header, body []byte) (*port.CallbackEvent, error) {
	var cb struct {
		EventID string `json:"event_id"`
		OrderID string `json:"order_id"`
		Status  int    `json:"status"`
	}
	if err := json.Unmarshal(body, &cb); err != nil {
		return nil, domain.ErrBadRequest
	}

	ev := &port.CallbackEvent{
		EventID:       cb.EventID,
		TransactionID: cb.OrderID,
		Raw:           body,
	}
	switch cb.Status {
	case 1:
		ev.Status = domain.PaymentStatusCompleted
	case 2:
		ev.Status = domain.PaymentStatusFailed
	default:
		return nil, domain.ErrBadRequest
	}
	return ev, nil
}
