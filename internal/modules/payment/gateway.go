package payment

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"github.com/stripe/stripe-go/v76/refund"

	"fixnow/internal/types"
)

// Gateway is the card processor behind the escrow: authorize places a hold,
// capture settles it, refund returns it.
type Gateway interface {
	Authorize(ctx context.Context, p *Payment) (providerRef string, err error)
	Capture(ctx context.Context, providerRef string, amount types.Money) error
	Refund(ctx context.Context, providerRef string, reason string) error
}

// NopGateway accepts everything; used when no Stripe key is configured.
type NopGateway struct{}

func (NopGateway) Authorize(_ context.Context, p *Payment) (string, error) {
	return "dev_" + string(p.ID), nil
}
func (NopGateway) Capture(context.Context, string, types.Money) error { return nil }
func (NopGateway) Refund(context.Context, string, string) error       { return nil }

// StripeGateway holds funds with manual-capture PaymentIntents.
type StripeGateway struct{}

func NewStripeGateway(apiKey string) *StripeGateway {
	stripe.Key = apiKey
	return &StripeGateway{}
}

func (g *StripeGateway) Authorize(_ context.Context, p *Payment) (string, error) {
	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(p.Amount.Cents()),
		Currency:      stripe.String(string(stripe.CurrencyEUR)),
		CaptureMethod: stripe.String(string(stripe.PaymentIntentCaptureMethodManual)),
		Metadata: map[string]string{
			"booking_id": string(p.BookingID),
			"payment_id": string(p.ID),
		},
	}
	pi, err := paymentintent.New(params)
	if err != nil {
		return "", fmt.Errorf("create payment intent: %w", err)
	}
	return pi.ID, nil
}

func (g *StripeGateway) Capture(_ context.Context, providerRef string, amount types.Money) error {
	_, err := paymentintent.Capture(providerRef, &stripe.PaymentIntentCaptureParams{
		AmountToCapture: stripe.Int64(amount.Cents()),
	})
	if err != nil {
		return fmt.Errorf("capture payment intent %s: %w", providerRef, err)
	}
	return nil
}

func (g *StripeGateway) Refund(_ context.Context, providerRef string, reason string) error {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(providerRef),
	}
	if reason != "" {
		params.AddMetadata("reason", reason)
	}
	if _, err := refund.New(params); err != nil {
		return fmt.Errorf("refund payment intent %s: %w", providerRef, err)
	}
	return nil
}
