// AngelaMos | 2026
// stripe.go

package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/carterperez-dev/learnhub/internal/config"
	"github.com/carterperez-dev/learnhub/internal/core"
)

type StripeProvider struct {
	sessions      session.Client
	webhookSecret string
}

type StripeOption func(*stripe.BackendConfig)

// WithAPIURL points the client at a different API host.
func WithAPIURL(url string) StripeOption {
	return func(c *stripe.BackendConfig) {
		c.URL = stripe.String(url)
	}
}

// NewStripeProvider builds a client that fails fast: one attempt per call,
// bounded by the configured timeout.
func NewStripeProvider(cfg config.PaymentConfig, opts ...StripeOption) *StripeProvider {
	backendCfg := &stripe.BackendConfig{
		HTTPClient:        &http.Client{Timeout: cfg.Timeout},
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelError},
	}
	for _, opt := range opts {
		opt(backendCfg)
	}

	return &StripeProvider{
		sessions: session.Client{
			B:   stripe.GetBackendWithConfig(stripe.APIBackend, backendCfg),
			Key: cfg.SecretKey,
		},
		webhookSecret: cfg.WebhookSecret,
	}
}

func (p *StripeProvider) CreateCheckoutSession(
	ctx context.Context,
	req CheckoutRequest,
) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(strings.ToLower(req.Currency)),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name:        stripe.String(req.ProductName),
					Description: optionalString(req.Description),
				},
				UnitAmount: stripe.Int64(req.AmountCents),
			},
			Quantity: stripe.Int64(1),
		}},
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.CancelURL),
		ClientReferenceID: optionalString(req.ClientReferenceID),
		CustomerEmail:     optionalString(req.CustomerEmail),
		Metadata:          req.Metadata,
	}
	params.Context = ctx

	s, err := p.sessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}

	return &CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

func (p *StripeProvider) ParseEvent(payload []byte, signature string) (*Event, error) {
	event, err := webhook.ConstructEventWithOptions(
		payload,
		signature,
		p.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrBadSignature, err)
	}

	out := &Event{ID: event.ID, Type: string(event.Type)}

	if strings.HasPrefix(out.Type, "checkout.session.") && event.Data != nil {
		var s stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &s); err != nil {
			return nil, fmt.Errorf("decode checkout session: %w", core.ErrInvalidInput)
		}
		out.Session = &SessionSnapshot{
			ID:            s.ID,
			PaymentStatus: string(s.PaymentStatus),
			AmountTotal:   s.AmountTotal,
			Currency:      string(s.Currency),
			Metadata:      s.Metadata,
		}
	}

	return out, nil
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return stripe.String(s)
}

var _ Provider = (*StripeProvider)(nil)
