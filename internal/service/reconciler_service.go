package service

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/model"
	"storefront/internal/payment"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// reconcilerService implements ReconcilerService.
//
// Orders move from Pending to Completed through either the browser returning
// from checkout or the provider's webhook, in any order and possibly at the
// same time. Both paths end in CompleteOrder, whose conditional update lets
// exactly one caller perform the transition.
type reconcilerService struct {
	orderRepo repository.OrderRepository
	provider  payment.Provider
	logger    zerolog.Logger
	now       func() time.Time
}

// NewReconcilerService creates a new payment reconciler.
func NewReconcilerService(
	orderRepo repository.OrderRepository,
	provider payment.Provider,
	logger zerolog.Logger,
) ReconcilerService {
	return &reconcilerService{
		orderRepo: orderRepo,
		provider:  provider,
		logger:    logger.With().Str("service", "reconciler").Logger(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// HandleWebhook authenticates a provider notification and applies it.
func (s *reconcilerService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.provider.ParseEvent(payload, signature)
	if err != nil {
		s.logger.Warn().Err(err).Int("payload_bytes", len(payload)).Msg("rejected webhook")
		return fmt.Errorf("%w: %w", model.ErrInvalidWebhookSignature, err)
	}

	return s.HandleProviderEvent(ctx, event)
}

// HandleProviderEvent completes the order an event refers to. Events that
// are irrelevant or refer to no known order are acknowledged without effect.
func (s *reconcilerService) HandleProviderEvent(ctx context.Context, event *payment.Event) error {
	logger := s.logger.With().
		Str("event_id", event.ID).
		Str("event_type", event.Type).
		Logger()

	switch event.Kind {
	case payment.EventSessionCompleted, payment.EventPaymentSucceeded:
	default:
		logger.Debug().Msg("ignoring provider event")
		return nil
	}

	orderID, err := uuid.Parse(event.CorrelationToken)
	if err != nil {
		logger.Warn().Str("token", event.CorrelationToken).Msg("event without usable order reference")
		return nil
	}

	outcome, err := s.CompleteOrder(ctx, orderID, optional(event.SessionID), optional(event.PaymentIntentID))
	if err != nil {
		return err
	}

	logger.Info().
		Str("order_id", orderID.String()).
		Str("outcome", outcome.String()).
		Msg("webhook reconciled")

	return nil
}

// ReconcileFromReturn checks the session the browser returned from.
func (s *reconcilerService) ReconcileFromReturn(ctx context.Context, sessionID string) *model.OrderDetail {
	if sessionID == "" {
		return nil
	}

	logger := s.logger.With().Str("session_id", sessionID).Logger()

	state, err := s.provider.RetrieveSession(ctx, sessionID)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to retrieve session, deferring to webhook")
		return nil
	}

	orderID, err := uuid.Parse(state.CorrelationToken)
	if err != nil {
		logger.Warn().Str("token", state.CorrelationToken).Msg("session without usable order reference")
		return nil
	}
	logger = logger.With().Str("order_id", orderID.String()).Logger()

	if state.Paid {
		outcome, err := s.CompleteOrder(ctx, orderID, optional(state.ID), optional(state.PaymentIntentID))
		if err != nil {
			logger.Error().Err(err).Msg("failed to complete order on return")
		} else {
			logger.Info().Str("outcome", outcome.String()).Msg("return reconciled")
		}
	} else {
		logger.Debug().Msg("session not paid yet")
	}

	detail, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		logger.Error().Err(err).Msg("failed to load order after return")
		return nil
	}

	return detail
}

// CompleteOrder marks a pending order paid now.
func (s *reconcilerService) CompleteOrder(ctx context.Context, orderID uuid.UUID, sessionID, paymentIntentID *string) (model.CompletionOutcome, error) {
	outcome, err := s.orderRepo.CompleteOrder(ctx, model.CompletionRequest{
		OrderID:         orderID,
		SessionID:       sessionID,
		PaymentIntentID: paymentIntentID,
		PaidAt:          s.now(),
	})
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to complete order")
		return model.OutcomeNotFound, fmt.Errorf("failed to complete order: %w", err)
	}

	if outcome == model.OutcomeNotFound {
		s.logger.Warn().Str("order_id", orderID.String()).Msg("completion for unknown order")
	}

	return outcome, nil
}

// optional returns nil for an empty string.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
