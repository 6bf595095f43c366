package service

import (
	"context"
	"fmt"

	"storefront/internal/model"
	"storefront/internal/payment"
	"storefront/internal/repository"

	"github.com/rs/zerolog"
)

// CheckoutConfig holds the URLs the provider redirects the browser to.
type CheckoutConfig struct {
	SuccessURL string
	CancelURL  string
}

// checkoutService implements CheckoutService.
type checkoutService struct {
	orderRepo repository.OrderRepository
	provider  payment.Provider
	config    CheckoutConfig
	logger    zerolog.Logger
}

// NewCheckoutService creates a new checkout service.
func NewCheckoutService(
	orderRepo repository.OrderRepository,
	provider payment.Provider,
	config CheckoutConfig,
	logger zerolog.Logger,
) CheckoutService {
	return &checkoutService{
		orderRepo: orderRepo,
		provider:  provider,
		config:    config,
		logger:    logger.With().Str("service", "checkout").Logger(),
	}
}

// OpenSession opens a checkout session for the user's pending order.
func (s *checkoutService) OpenSession(ctx context.Context, userID string) (*model.SessionHandle, error) {
	logger := s.logger.With().Str("user_id", userID).Logger()

	cart, err := s.orderRepo.GetPendingOrder(ctx, userID)
	if err != nil {
		logger.Error().Err(err).Msg("failed to load cart")
		return nil, fmt.Errorf("failed to open checkout session: %w", err)
	}
	if cart == nil || len(cart.Items) == 0 {
		logger.Debug().Msg("checkout requested with empty cart")
		return nil, model.ErrEmptyCart
	}

	orderID := cart.ID.String()
	logger = logger.With().Str("order_id", orderID).Logger()

	req := payment.SessionRequest{
		CorrelationToken: orderID,
		Items:            make([]payment.LineItem, 0, len(cart.Items)),
		SuccessURL:       s.config.SuccessURL,
		CancelURL:        s.config.CancelURL,
	}
	for _, item := range cart.Items {
		req.Items = append(req.Items, payment.LineItem{
			Name:      item.ProductName,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
		})
	}

	session, err := s.provider.CreateSession(ctx, req)
	if err != nil {
		logger.Error().Err(err).Msg("payment provider failed to open session")
		return nil, fmt.Errorf("%w: %w", model.ErrPaymentProviderUnavailable, err)
	}

	recorded, err := s.orderRepo.SetPaymentSession(ctx, cart.ID, session.ID)
	switch {
	case err != nil:
		logger.Warn().Err(err).Str("session_id", session.ID).Msg("failed to record payment session")
	case !recorded:
		logger.Warn().Str("session_id", session.ID).Msg("order no longer pending, payment session not recorded")
	}

	logger.Info().
		Str("session_id", session.ID).
		Int("items", len(req.Items)).
		Str("total", cart.TotalPrice.StringFixed(2)).
		Msg("checkout session opened")

	return &model.SessionHandle{
		OrderID:     cart.ID,
		SessionID:   session.ID,
		RedirectURL: session.URL,
	}, nil
}
