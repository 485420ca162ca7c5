// Package payment looks up booking payments with Stripe.
package payment

import (
	"context"
	"errors"
	"fmt"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/paymentintent"
)

var ErrNotConfigured = errors.New("payment provider is not configured")

// Intent is the provider-side state of a booking payment. Amount is in the
// currency's minor unit.
type Intent struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type Client struct {
	getIntent func(id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

// NewClient returns a client for secretKey. An empty key yields a client
// whose lookups fail with ErrNotConfigured.
func NewClient(secretKey string) *Client {
	if secretKey == "" {
		return &Client{}
	}
	stripe.Key = secretKey
	return &Client{getIntent: paymentintent.Get}
}

func (c *Client) Configured() bool {
	return c.getIntent != nil
}

// PaymentIntent fetches the payment intent with the given ID.
func (c *Client) PaymentIntent(ctx context.Context, id string) (*Intent, error) {
	if c.getIntent == nil {
		return nil, ErrNotConfigured
	}
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := c.getIntent(id, params)
	if err != nil {
		return nil, fmt.Errorf("get payment intent %s: %w", id, err)
	}
	return &Intent{
		ID:       pi.ID,
		Status:   string(pi.Status),
		Amount:   pi.Amount,
		Currency: string(pi.Currency),
	}, nil
}
