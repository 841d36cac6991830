// Package provider holds the adapters for the external mobile-money
// providers. Each adapter produces a payable artifact for a payment, either
// by a single call to the real provider API or, when no credentials are
// configured, by fabricating a mock invoice that never touches the network.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"time"
)

const (
	requestTimeout = 10 * time.Second
	qrImageBase    = "https://api.qrserver.com/v1/create-qr-code/?size=300x300&data="
)

type Config struct {
	MerchantID string
	SecretKey  string
	APIURL     string
}

// Mock reports whether the provider must fabricate invoices instead of
// calling the real API.
func (c Config) Mock() bool {
	return c.MerchantID == "" || c.SecretKey == ""
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: requestTimeout}
}

func mockTransactionID(prefix string) string {
	return fmt.Sprintf("%s-%d-%06d", prefix, time.Now().Unix(), rand.Intn(1000000))
}

func qrImageURL(data string) string {
	return qrImageBase + url.QueryEscape(data)
}

// postJSON fires the single outbound request a provider adapter is allowed
// and decodes the JSON response. Non-2xx statuses are returned as errors.
func postJSON(ctx context.Context, client *http.Client, endpoint string,
	payload any, result any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("bad response %d from %s", resp.StatusCode, endpoint)
	}
	if err := json.Unmarshal(raw, result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return raw, nil
}
