// Package payments wraps the payment gateway. The server only requests a
// payment intent and relays its client secret; charge processing happens
// on the gateway side.
package payments

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
)

type IntentCreator interface {
	CreateIntent(ctx context.Context, amountCents int64, currency string) (string, error)
}

type StripeClient struct{}

func NewStripeClient(secretKey string) *StripeClient {
	stripe.Key = secretKey
	return &StripeClient{}
}

func (c *StripeClient) CreateIntent(ctx context.Context, amountCents int64, currency string) (string, error) {
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(amountCents),
		Currency:           stripe.String(currency),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	params.Context = ctx

	pi, err := paymentintent.New(params)
	if err != nil {
		return "", fmt.Errorf("create payment intent: %w", err)
	}
	return pi.ClientSecret, nil
}
