package service

import (
	"context"
	"fmt"

	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// orderService implements OrderService.
type orderService struct {
	orderRepo repository.OrderRepository
	logger    zerolog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(orderRepo repository.OrderRepository, logger zerolog.Logger) OrderService {
	return &orderService{
		orderRepo: orderRepo,
		logger:    logger.With().Str("service", "order").Logger(),
	}
}

// ListForUser returns the user's completed orders, newest first.
func (s *orderService) ListForUser(ctx context.Context, userID string, limit, offset int) ([]model.Order, error) {
	limit, offset = normalisePage(limit, offset)

	orders, err := s.orderRepo.ListCompletedByUser(ctx, userID, limit, offset)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("failed to list orders")
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	return orders, nil
}

// GetForUser retrieves one of the user's orders with its items.
func (s *orderService) GetForUser(ctx context.Context, userID string, id uuid.UUID) (*model.OrderDetail, error) {
	detail, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if detail == nil || detail.UserID != userID {
		s.logger.Debug().
			Str("order_id", id.String()).
			Str("user_id", userID).
			Msg("order not found")
		return nil, model.ErrOrderNotFound
	}

	return detail, nil
}
