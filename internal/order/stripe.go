package order

import (
	"errors"
	"fmt"
	"math"
	"net/http"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"

	"storefront/internal/config"
	"storefront/internal/logger"
	"storefront/internal/models"
)

var ErrStripeClientInitFailed = errors.New("failed to initialize Stripe client")

// StripeGateway wraps the Stripe API for payment-intent issuance and
// webhook signature verification.
type StripeGateway struct {
	client *client.API
	cfg    config.StripeConfig
	log    *logger.Logger
}

func NewStripeGateway(cfg config.StripeConfig, log *logger.Logger) (*StripeGateway, error) {
	if cfg.SecretKey == "" {
		log.Error("STRIPE", "STRIPE_SECRET_KEY is not set")
		return nil, ErrStripeClientInitFailed
	}

	sc := client.New(cfg.SecretKey, nil)
	if sc == nil {
		log.Error("STRIPE", "Failed to initialize Stripe client")
		return nil, ErrStripeClientInitFailed
	}

	log.Info("STRIPE", "Stripe client initialized successfully")
	return &StripeGateway{client: sc, cfg: cfg, log: log}, nil
}

// AmountToMinorUnits converts a decimal amount to the gateway's minor-unit
// representation. Rounds, never truncates: truncation would systematically
// under-charge.
func AmountToMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// CreatePaymentIntent requests a payment intent and returns the client
// secret and intent id for the client-side payment UI. Amounts below the
// configured floor are rejected before the gateway is contacted.
func (g *StripeGateway) CreatePaymentIntent(req models.PaymentIntentRequest) (*models.PaymentIntentResponse, error) {
	amountInCents := AmountToMinorUnits(req.Amount)
	if amountInCents < g.cfg.MinimumChargeCents {
		g.log.Warn("PAYMENT", fmt.Sprintf("Rejected sub-minimum amount %.2f (%d cents, floor %d)",
			req.Amount, amountInCents, g.cfg.MinimumChargeCents))
		return nil, fmt.Errorf("%w: amount must be at least %d cents", ErrValidation, g.cfg.MinimumChargeCents)
	}

	currency := req.Currency
	if currency == "" {
		currency = g.cfg.Currency
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountInCents),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	intent, err := g.client.PaymentIntents.New(params)
	if err != nil {
		g.log.Error("PAYMENT", fmt.Sprintf("Failed to create payment intent: %v", err))
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	g.log.Info("PAYMENT", fmt.Sprintf("Created payment intent %s (%d %s)", intent.ID, amountInCents, currency))
	return &models.PaymentIntentResponse{
		ClientSecret:    intent.ClientSecret,
		PaymentIntentID: intent.ID,
	}, nil
}

// VerifyWebhook checks the Stripe signature against the shared webhook
// secret before any event is acted on.
func (g *StripeGateway) VerifyWebhook(payload []byte, signatureHeader string) (stripe.Event, error) {
	if g.cfg.WebhookSecret == "" {
		g.log.Error("WEBHOOK", "Stripe webhook secret is not configured")
		return stripe.Event{}, &WebhookError{
			Category:      "configuration",
			StatusCode:    http.StatusInternalServerError,
			PublicError:   "Webhook processing error",
			InternalError: "Stripe webhook secret is not configured",
		}
	}

	opts := webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	}

	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, g.cfg.WebhookSecret, opts)
	if err != nil {
		g.log.Error("WEBHOOK", fmt.Sprintf("Webhook signature verification failed: %v", err))
		return stripe.Event{}, &WebhookError{
			Category:      "validation",
			StatusCode:    http.StatusBadRequest,
			PublicError:   "Invalid webhook signature",
			InternalError: fmt.Sprintf("webhook signature verification failed: %v", err),
			OriginalErr:   err,
		}
	}

	return event, nil
}

// WebhookError splits what is safe to expose to the sender from the detail
// that belongs in the logs.
type WebhookError struct {
	Category      string // "configuration", "validation", "processing"
	StatusCode    int
	PublicError   string
	InternalError string
	OriginalErr   error
}

func (e *WebhookError) Error() string {
	return e.InternalError
}

func (e *WebhookError) Unwrap() error {
	return e.OriginalErr
}
