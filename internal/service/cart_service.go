package service

import (
	"context"
	"fmt"

	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// cartService implements CartService. Every mutation runs in one transaction
// that holds the row lock of the user's pending order until commit, so
// concurrent requests for the same user apply one after another.
type cartService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	logger      zerolog.Logger
}

// NewCartService creates a new cart service.
func NewCartService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	logger zerolog.Logger,
) CartService {
	return &cartService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		logger:      logger.With().Str("service", "cart").Logger(),
	}
}

// withTx runs fn in a transaction, committing on success and rolling back otherwise.
func (s *cartService) withTx(ctx context.Context, fn func(tx pgx.Tx) error) (err error) {
	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Msg("failed to commit transaction")
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// AddItem adds one unit of a product to the user's cart.
func (s *cartService) AddItem(ctx context.Context, userID, productID string) (*model.OrderDetail, *model.OrderItem, error) {
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", productID).Msg("failed to get product")
		return nil, nil, fmt.Errorf("failed to add item: %w", err)
	}
	if product == nil {
		s.logger.Debug().Str("product_id", productID).Msg("product not found")
		return nil, nil, model.ErrProductNotFound
	}

	var (
		detail *model.OrderDetail
		item   *model.OrderItem
	)

	err = s.withTx(ctx, func(tx pgx.Tx) error {
		order, err := s.orderRepo.EnsurePendingOrder(ctx, tx, userID)
		if err != nil {
			return fmt.Errorf("failed to add item: %w", err)
		}

		if _, err := s.orderRepo.IncrementItem(ctx, tx, order.ID, productID); err != nil {
			return fmt.Errorf("failed to add item: %w", err)
		}

		total, err := s.orderRepo.RecalculateTotal(ctx, tx, order.ID)
		if err != nil {
			return fmt.Errorf("failed to add item: %w", err)
		}
		order.TotalPrice = total

		items, err := s.orderRepo.ListItems(ctx, tx, order.ID)
		if err != nil {
			return fmt.Errorf("failed to add item: %w", err)
		}

		detail = &model.OrderDetail{Order: *order, Items: items}
		for i := range detail.Items {
			if detail.Items[i].ProductID == productID {
				item = &detail.Items[i]
				break
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error().Err(err).
			Str("user_id", userID).
			Str("product_id", productID).
			Msg("failed to add item to cart")
		return nil, nil, err
	}

	s.logger.Info().
		Str("user_id", userID).
		Str("order_id", detail.ID.String()).
		Str("product_id", productID).
		Str("total", detail.TotalPrice.StringFixed(2)).
		Msg("item added to cart")

	return detail, item, nil
}

// DecrementOrRemove removes one unit of a product from the cart.
func (s *cartService) DecrementOrRemove(ctx context.Context, userID, productID string) (int, error) {
	quantity := 0

	err := s.withTx(ctx, func(tx pgx.Tx) error {
		order, item, err := s.lockItem(ctx, tx, userID, productID)
		if err != nil {
			return err
		}

		if item.Quantity > 1 {
			quantity = item.Quantity - 1
			if err := s.orderRepo.UpdateItemQuantity(ctx, tx, item.ID, quantity); err != nil {
				return fmt.Errorf("failed to decrement item: %w", err)
			}
		} else if err := s.orderRepo.DeleteItem(ctx, tx, item.ID); err != nil {
			return fmt.Errorf("failed to remove item: %w", err)
		}

		if _, err := s.orderRepo.RecalculateTotal(ctx, tx, order.ID); err != nil {
			return fmt.Errorf("failed to decrement item: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, s.logMutationError(err, "decrement", userID, productID)
	}

	s.logger.Info().
		Str("user_id", userID).
		Str("product_id", productID).
		Int("quantity", quantity).
		Msg("item decremented")

	return quantity, nil
}

// RemoveItem removes a product line from the cart.
func (s *cartService) RemoveItem(ctx context.Context, userID, productID string) error {
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		order, item, err := s.lockItem(ctx, tx, userID, productID)
		if err != nil {
			return err
		}

		if err := s.orderRepo.DeleteItem(ctx, tx, item.ID); err != nil {
			return fmt.Errorf("failed to remove item: %w", err)
		}

		if _, err := s.orderRepo.RecalculateTotal(ctx, tx, order.ID); err != nil {
			return fmt.Errorf("failed to remove item: %w", err)
		}
		return nil
	})
	if err != nil {
		return s.logMutationError(err, "remove", userID, productID)
	}

	s.logger.Info().
		Str("user_id", userID).
		Str("product_id", productID).
		Msg("item removed")

	return nil
}

// lockItem locks the user's pending order and returns it with the product's line.
func (s *cartService) lockItem(ctx context.Context, tx pgx.Tx, userID, productID string) (*model.Order, *model.OrderItem, error) {
	order, err := s.orderRepo.LockPendingOrder(ctx, tx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if order == nil {
		return nil, nil, model.ErrNoActiveCart
	}

	item, err := s.orderRepo.GetItem(ctx, tx, order.ID, productID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load cart item: %w", err)
	}
	if item == nil {
		return nil, nil, model.ErrItemNotFound
	}

	return order, item, nil
}

// logMutationError logs err at a level matching its cause and returns it.
func (s *cartService) logMutationError(err error, op, userID, productID string) error {
	event := s.logger.Error()
	if model.CodeOf(err) != model.ErrCodeInternalError {
		event = s.logger.Debug()
	}
	event.Err(err).
		Str("op", op).
		Str("user_id", userID).
		Str("product_id", productID).
		Msg("cart mutation failed")
	return err
}

// GetCart returns the user's pending order, or nil.
func (s *cartService) GetCart(ctx context.Context, userID string) (*model.OrderDetail, error) {
	detail, err := s.orderRepo.GetPendingOrder(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("failed to get cart")
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	return detail, nil
}

// ItemCount sums item quantities in the user's cart.
func (s *cartService) ItemCount(ctx context.Context, userID string) (int, error) {
	count, err := s.orderRepo.CountPendingItems(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("failed to count cart items")
		return 0, fmt.Errorf("failed to count cart items: %w", err)
	}
	return count, nil
}
