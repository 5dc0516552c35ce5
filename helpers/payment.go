package helpers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
)

var ErrPaymentNotConfirmed = errors.New("payment not confirmed")

// PaymentVerifier confirms with the payment provider that a
// checkout session was paid
type PaymentVerifier interface {
	Verify(ctx context.Context, transactionID string, amount float64, currency string) error
}

// Doer is satisfied by *http.Client and the zipkin traced client
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// CheckoutClient asks a Stripe-like API for a checkout session
type CheckoutClient struct {
	client Doer
	api    string
	secret string
}

// NewCheckoutClient returns nil when no API is configured,
// membership upgrades are then trusted as sent
func NewCheckoutClient(client Doer, api, secret string) *CheckoutClient {
	if api == "" {
		return nil
	}

	return &CheckoutClient{client: client, api: strings.TrimSuffix(api, "/"), secret: secret}
}

type checkoutSession struct {
	PaymentStatus string `json:"payment_status"`
	AmountTotal   int64  `json:"amount_total"`
	Currency      string `json:"currency"`
}

// Verify checks the session is paid, for the expected amount (in
// major units) and currency
func (c *CheckoutClient) Verify(ctx context.Context, transactionID string, amount float64, currency string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.api+"/v1/checkout/sessions/"+url.PathEscape(transactionID), nil)
	if err != nil {
		return fmt.Errorf("unable to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secret)

	response, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("unable to make request: %w", err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(io.LimitReader(response.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("unable to read request: %w", err)
	}

	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: provider answered %d", ErrPaymentNotConfirmed, response.StatusCode)
	}

	var session checkoutSession
	if err := json.Unmarshal(body, &session); err != nil {
		return fmt.Errorf("unable to decode session: %w", err)
	}

	if session.PaymentStatus != "paid" ||
		session.AmountTotal != int64(math.Round(amount*100)) ||
		!strings.EqualFold(session.Currency, currency) {
		return ErrPaymentNotConfirmed
	}

	return nil
}
