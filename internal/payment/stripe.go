package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

// MetadataOrderKey is the metadata key carrying the correlation token.
const MetadataOrderKey = "order_id"

const (
	eventCheckoutCompleted      = "checkout.session.completed"
	eventCheckoutAsyncSucceeded = "checkout.session.async_payment_succeeded"
	eventPaymentIntentSucceeded = "payment_intent.succeeded"
)

// StripeConfig configures the Stripe Checkout provider.
type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	Currency      string
	Timeout       time.Duration

	// Backend overrides the API backend. Used by tests.
	Backend stripe.Backend
}

// StripeProvider implements Provider with Stripe Checkout.
type StripeProvider struct {
	api           *client.API
	webhookSecret string
	currency      string
	logger        zerolog.Logger
}

// NewStripeProvider creates a Stripe Checkout provider.
func NewStripeProvider(cfg StripeConfig, logger zerolog.Logger) *StripeProvider {
	backends := stripe.NewBackends(&http.Client{Timeout: cfg.Timeout})
	if cfg.Backend != nil {
		backends = &stripe.Backends{API: cfg.Backend, Connect: cfg.Backend, Uploads: cfg.Backend}
	}

	api := &client.API{}
	api.Init(cfg.SecretKey, backends)

	return &StripeProvider{
		api:           api,
		webhookSecret: cfg.WebhookSecret,
		currency:      cfg.Currency,
		logger:        logger.With().Str("provider", "stripe").Logger(),
	}
}

// CreateSession opens a Stripe Checkout session in payment mode.
func (p *StripeProvider) CreateSession(ctx context.Context, req SessionRequest) (*Session, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.CancelURL),
		ClientReferenceID: stripe.String(req.CorrelationToken),
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: map[string]string{MetadataOrderKey: req.CorrelationToken},
		},
	}
	params.Context = ctx
	params.AddMetadata(MetadataOrderKey, req.CorrelationToken)

	for _, item := range req.Items {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(p.currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Name),
				},
				UnitAmount: stripe.Int64(ToMinorUnits(item.UnitPrice)),
			},
			Quantity: stripe.Int64(int64(item.Quantity)),
		})
	}

	s, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		p.logger.Error().
			Err(err).
			Str("order_id", req.CorrelationToken).
			Msg("failed to create checkout session")
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	p.logger.Info().
		Str("order_id", req.CorrelationToken).
		Str("session_id", s.ID).
		Int("items", len(req.Items)).
		Msg("checkout session created")

	return &Session{ID: s.ID, URL: s.URL}, nil
}

// RetrieveSession fetches a Stripe Checkout session.
func (p *StripeProvider) RetrieveSession(ctx context.Context, sessionID string) (*SessionState, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	s, err := p.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		p.logger.Error().Err(err).Str("session_id", sessionID).Msg("failed to retrieve checkout session")
		return nil, fmt.Errorf("failed to retrieve checkout session: %w", err)
	}

	return sessionState(s), nil
}

// ParseEvent verifies the Stripe-Signature header and maps the event.
func (p *StripeProvider) ParseEvent(payload []byte, signature string) (*Event, error) {
	evt, err := webhook.ConstructEventWithOptions(payload, signature, p.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	event := &Event{
		ID:   evt.ID,
		Type: string(evt.Type),
		Kind: EventIgnored,
	}
	if evt.Data == nil {
		return event, nil
	}

	switch event.Type {
	case eventCheckoutCompleted, eventCheckoutAsyncSucceeded:
		var s stripe.CheckoutSession
		if err := json.Unmarshal(evt.Data.Raw, &s); err != nil {
			p.logger.Warn().Err(err).Str("event_id", evt.ID).Msg("failed to decode checkout session event")
			return event, nil
		}
		state := sessionState(&s)
		event.SessionID = state.ID
		event.CorrelationToken = state.CorrelationToken
		event.PaymentIntentID = state.PaymentIntentID
		if state.Paid {
			event.Kind = EventSessionCompleted
		}

	case eventPaymentIntentSucceeded:
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(evt.Data.Raw, &pi); err != nil {
			p.logger.Warn().Err(err).Str("event_id", evt.ID).Msg("failed to decode payment intent event")
			return event, nil
		}
		event.Kind = EventPaymentSucceeded
		event.PaymentIntentID = pi.ID
		event.CorrelationToken = pi.Metadata[MetadataOrderKey]
	}

	return event, nil
}

func sessionState(s *stripe.CheckoutSession) *SessionState {
	state := &SessionState{
		ID:               s.ID,
		CorrelationToken: s.Metadata[MetadataOrderKey],
		Paid: s.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid ||
			s.PaymentStatus == stripe.CheckoutSessionPaymentStatusNoPaymentRequired,
	}
	if state.CorrelationToken == "" {
		state.CorrelationToken = s.ClientReferenceID
	}
	if s.PaymentIntent != nil {
		state.PaymentIntentID = s.PaymentIntent.ID
	}
	return state
}
