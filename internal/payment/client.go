// Package payment talks to the hosted checkout gateway. Checkout
// creation is a single authenticated POST; everything after that arrives
// asynchronously on the webhook endpoint. The gateway's retry and
// settlement behavior is opaque to this service.
package payment

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Vendor status values delivered on the webhook.
const (
	StatusSuccess   = "PAYMENT_SUCCESS"
	StatusFailed    = "PAYMENT_FAILED"
	StatusExpired   = "PAYMENT_EXPIRED"
	StatusCancelled = "PAYMENT_CANCELLED"
)

// WebhookPayload is the callback body posted by the gateway after a
// checkout reaches a terminal state.
type WebhookPayload struct {
	RequestReferenceNumber string  `json:"requestReferenceNumber" validate:"required"`
	Status                 string  `json:"status" validate:"required"`
	CheckoutID             string  `json:"checkoutId"`
	TotalAmount            float64 `json:"totalAmount"`
}

// CheckoutRequest describes one checkout session to create.
type CheckoutRequest struct {
	ReferenceNumber string // our order's checkout_ref
	Description     string // line shown on the hosted page
	AmountCents     uint32
	Currency        string
	CustomerName    string
	CustomerEmail   string
	ReturnURL       string
}

// CheckoutSession is the gateway's answer: the id of the session and
// the hosted page to redirect the buyer to.
type CheckoutSession struct {
	CheckoutID  string `json:"checkoutId"`
	RedirectURL string `json:"redirectUrl"`
}

// Client is a thin HTTP client for the checkout API. The secret key is
// sent as HTTP basic auth per the gateway's server-to-server scheme.
type Client struct {
	baseURL   string
	secretKey string
	http      *http.Client
}

// NewClient builds a Client. A default timeout guards against a slow
// gateway holding checkout requests open indefinitely.
func NewClient(baseURL, secretKey string) *Client {
	return &Client{
		baseURL:   baseURL,
		secretKey: secretKey,
		http:      &http.Client{Timeout: 15 * time.Second},
	}
}

// CreateCheckout registers a checkout session and returns the redirect
// URL for the client. Amounts are sent in major units with two decimals,
// which is what the hosted checkout expects.
func (c *Client) CreateCheckout(ctx context.Context, req CheckoutRequest) (CheckoutSession, error) {
	currency := req.Currency
	if currency == "" {
		currency = "PHP"
	}
	body := map[string]interface{}{
		"totalAmount": map[string]interface{}{
			"value":    float64(req.AmountCents) / 100.0,
			"currency": currency,
		},
		"requestReferenceNumber": req.ReferenceNumber,
		"items": []map[string]interface{}{
			{"name": req.Description, "quantity": 1},
		},
		"buyer": map[string]interface{}{
			"firstName": req.CustomerName,
			"contact":   map[string]string{"email": req.CustomerEmail},
		},
	}
	if req.ReturnURL != "" {
		body["redirectUrl"] = map[string]string{
			"success": req.ReturnURL,
			"failure": req.ReturnURL,
			"cancel":  req.ReturnURL,
		}
	}
	buf, err := json.Marshal(body)
	if err != nil {
		return CheckoutSession{}, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/checkout/v1/checkouts", bytes.NewReader(buf))
	if err != nil {
		return CheckoutSession{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(c.secretKey+":")))

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return CheckoutSession{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return CheckoutSession{}, fmt.Errorf("gateway: checkout create returned %d", resp.StatusCode)
	}
	var session CheckoutSession
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return CheckoutSession{}, fmt.Errorf("gateway: decode checkout response: %w", err)
	}
	return session, nil
}
