package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.razorpay.com/v1"

// Order is a gateway-side record binding amount, currency and receipt
// before payment capture.  Amount is in minor units.
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// Refund is the gateway's record of a (partial) refund against a captured
// payment.  Amount is in minor units.
type Refund struct {
	ID        string `json:"id"`
	PaymentID string `json:"payment_id"`
	Amount    int64  `json:"amount"`
	Status    string `json:"status"`
}

// Gateway is the remote payment provider as seen by the handlers.  Both
// operations are blocking remote calls; implementations must respect the
// context and bound their own request timeout.
type Gateway interface {
	CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string, notes map[string]string) (*Order, error)
	RefundPayment(ctx context.Context, paymentID string, amountMinor int64, notes map[string]string) (*Refund, error)
}

// Config holds the gateway credentials.  KeyID is public and may be handed
// to clients for the hosted checkout; KeySecret signs checkout callbacks
// and authenticates API calls and must never leave the server.
// WebhookSecret is independent from KeySecret and may be empty, in which
// case webhook signature verification is skipped.
type Config struct {
	KeyID         string
	KeySecret     string
	WebhookSecret string
	Currency      string
}

// Configured reports whether the API credentials are present.  The order
// and refund endpoints answer 503 when they are not.
func (c Config) Configured() bool { return c.KeyID != "" && c.KeySecret != "" }

// Client talks to the Razorpay REST API using HTTP basic auth.  The base
// URL is overridable for tests.
type Client struct {
	cfg     Config
	baseURL string
	http    *http.Client
}

// NewClient builds a gateway client with a bounded request timeout so a
// stalled gateway cannot pin request handlers indefinitely.
func NewClient(cfg Config) *Client {
	return &Client{
		cfg:     cfg,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// NewClientWithBaseURL is NewClient pointed at a custom API root, used by
// tests to target an httptest server.
func NewClientWithBaseURL(cfg Config, baseURL string) *Client {
	c := NewClient(cfg)
	c.baseURL = baseURL
	return c
}

type orderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type refundRequest struct {
	Amount int64             `json:"amount"`
	Notes  map[string]string `json:"notes,omitempty"`
}

// CreateOrder creates a gateway order for the given minor-unit amount.
// The receipt is the booking number and acts as the idempotent reference
// on the gateway side; notes carry opaque reconciliation metadata.
func (c *Client) CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string, notes map[string]string) (*Order, error) {
	var order Order
	req := orderRequest{Amount: amountMinor, Currency: currency, Receipt: receipt, Notes: notes}
	if err := c.post(ctx, "/orders", req, &order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	return &order, nil
}

// RefundPayment issues a partial or full refund against a captured
// payment.  A zero amountMinor asks the gateway for a full refund.
func (c *Client) RefundPayment(ctx context.Context, paymentID string, amountMinor int64, notes map[string]string) (*Refund, error) {
	var refund Refund
	req := refundRequest{Amount: amountMinor, Notes: notes}
	if err := c.post(ctx, "/payments/"+paymentID+"/refund", req, &refund); err != nil {
		return nil, fmt.Errorf("refund payment %s: %w", paymentID, err)
	}
	return &refund, nil
}

// post serializes body, performs an authenticated POST and decodes the
// JSON response into out.  Non-2xx responses are returned as errors with
// the gateway's error body included for server-side logs.
func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.cfg.KeyID, c.cfg.KeySecret)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("gateway returned %d: %s", resp.StatusCode, raw)
	}
	return json.Unmarshal(raw, out)
}
