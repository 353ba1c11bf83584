package payment

import (
	"context"
	"fmt"

	"groundandgrow/config"
	"groundandgrow/utils"

	"github.com/stripe/stripe-go/v76"
	checkoutsession "github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/refund"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"
)

// CheckoutSession is the subset of the provider's session the booking
// flow needs.
type CheckoutSession struct {
	ID  string
	URL string
}

// Gateway abstracts the payment provider so the booking service can be
// tested without network calls.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, bookingID, email, description string, amountCents int64) (*CheckoutSession, error)
	CreateRefund(ctx context.Context, paymentIntentID string, amountCents int64) (string, error)
	VerifyEvent(payload []byte, signature string) (stripe.Event, error)
}

type stripeGateway struct {
	webhookSecret string
	currency      string
	successURL    string
	cancelURL     string
}

// NewStripeGateway configures the global Stripe client from AppConfig.
func NewStripeGateway() Gateway {
	stripe.Key = config.AppConfig.StripeKey
	return &stripeGateway{
		webhookSecret: config.AppConfig.StripeWebhookSecret,
		currency:      config.AppConfig.StripeCurrency,
		successURL:    config.AppConfig.StripeSuccessURL,
		cancelURL:     config.AppConfig.StripeCancelURL,
	}
}

// CreateCheckoutSession opens a hosted checkout page for the booking amount.
// The booking id travels in the session metadata so webhook events can be
// correlated back.
func (g *stripeGateway) CreateCheckoutSession(ctx context.Context, bookingID, email, description string, amountCents int64) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:          stripe.String(string(stripe.CheckoutSessionModePayment)),
		CustomerEmail: stripe.String(email),
		SuccessURL:    stripe.String(g.successURL),
		CancelURL:     stripe.String(g.cancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(g.currency),
					UnitAmount: stripe.Int64(amountCents),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(description),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.Context = ctx
	params.AddMetadata("booking_id", bookingID)

	sess, err := checkoutsession.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	utils.GetLogger().Info("checkout session created",
		zap.String("bookingID", bookingID),
		zap.String("sessionID", sess.ID),
		zap.Int64("amountCents", amountCents))
	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

// CreateRefund refunds the given amount against the captured payment intent
// and returns the provider refund id.
func (g *stripeGateway) CreateRefund(ctx context.Context, paymentIntentID string, amountCents int64) (string, error) {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(paymentIntentID),
		Amount:        stripe.Int64(amountCents),
	}
	params.Context = ctx

	ref, err := refund.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create refund: %w", err)
	}

	utils.GetLogger().Info("refund created",
		zap.String("paymentIntentID", paymentIntentID),
		zap.String("refundID", ref.ID),
		zap.Int64("amountCents", amountCents))
	return ref.ID, nil
}

// VerifyEvent checks the webhook signature against the shared secret and
// parses the event. Callers must pass the raw, unmodified request body.
func (g *stripeGateway) VerifyEvent(payload []byte, signature string) (stripe.Event, error) {
	event, err := webhook.ConstructEvent(payload, signature, g.webhookSecret)
	if err != nil {
		return stripe.Event{}, fmt.Errorf("webhook signature verification failed: %w", err)
	}
	return event, nil
}

// Cents converts a decimal amount to the integer minor units Stripe expects.
func Cents(amount float64) int64 {
	return int64(amount*100 + 0.5)
}
