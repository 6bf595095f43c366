package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// maxEnsureAttempts bounds the insert-then-lock loop in EnsurePendingOrder.
// A retry only happens when the pending order is completed between the two
// statements.
const maxEnsureAttempts = 3

const orderColumns = `id, user_id, status, total_price, payment_session_id, payment_intent_id, paid_at, created_at, updated_at`

// orderRepository implements the OrderRepository interface using PostgreSQL.
type orderRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
	now    func() time.Time
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order").Logger(),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// BeginTx starts a new database transaction.
func (r *orderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// EnsurePendingOrder returns the user's locked pending order, creating it when absent.
func (r *orderRepository) EnsurePendingOrder(ctx context.Context, tx pgx.Tx, userID string) (*model.Order, error) {
	query := `
		INSERT INTO orders (id, user_id, status, total_price, created_at, updated_at)
		VALUES ($1, $2, 'Pending', 0, $3, $3)
		ON CONFLICT (user_id) WHERE status = 'Pending' DO NOTHING
	`

	for attempt := 1; attempt <= maxEnsureAttempts; attempt++ {
		tag, err := tx.Exec(ctx, query, uuid.New(), userID, r.now())
		if err != nil {
			r.logger.Error().Err(err).Str("user_id", userID).Msg("failed to create pending order")
			return nil, fmt.Errorf("failed to create pending order: %w", err)
		}
		if tag.RowsAffected() == 1 {
			r.logger.Debug().Str("user_id", userID).Msg("pending order created")
		}

		order, err := r.LockPendingOrder(ctx, tx, userID)
		if err != nil {
			return nil, err
		}
		if order != nil {
			return order, nil
		}

		r.logger.Debug().
			Str("user_id", userID).
			Int("attempt", attempt).
			Msg("pending order completed concurrently, retrying")
	}

	return nil, fmt.Errorf("failed to obtain pending order for user %s after %d attempts", userID, maxEnsureAttempts)
}

// LockPendingOrder returns and row-locks the user's pending order, or nil.
func (r *orderRepository) LockPendingOrder(ctx context.Context, tx pgx.Tx, userID string) (*model.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE user_id = $1 AND status = 'Pending'
		FOR UPDATE
	`

	order, err := scanOrder(tx.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("user_id", userID).Msg("failed to lock pending order")
		return nil, fmt.Errorf("failed to lock pending order: %w", err)
	}

	return order, nil
}

// IncrementItem adds one unit of a product to the order.
func (r *orderRepository) IncrementItem(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, productID string) (*model.OrderItem, error) {
	query := `
		INSERT INTO order_items (id, order_id, product_id, quantity)
		VALUES ($1, $2, $3, 1)
		ON CONFLICT (order_id, product_id)
		DO UPDATE SET quantity = order_items.quantity + 1
		RETURNING id, order_id, product_id, quantity
	`

	var item model.OrderItem
	err := tx.QueryRow(ctx, query, uuid.New(), orderID, productID).Scan(
		&item.ID,
		&item.OrderID,
		&item.ProductID,
		&item.Quantity,
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", orderID.String()).
			Str("product_id", productID).
			Msg("failed to increment order item")
		return nil, fmt.Errorf("failed to increment order item: %w", err)
	}

	return &item, nil
}

// GetItem returns the order's line item for a product, or nil.
func (r *orderRepository) GetItem(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, productID string) (*model.OrderItem, error) {
	query := `
		SELECT oi.id, oi.order_id, oi.product_id, p.name, p.price, oi.quantity
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = $1 AND oi.product_id = $2
	`

	item, err := scanItem(tx.QueryRow(ctx, query, orderID, productID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().
			Err(err).
			Str("order_id", orderID.String()).
			Str("product_id", productID).
			Msg("failed to query order item")
		return nil, fmt.Errorf("failed to query order item: %w", err)
	}

	return item, nil
}

// UpdateItemQuantity sets a line item's quantity.
func (r *orderRepository) UpdateItemQuantity(ctx context.Context, tx pgx.Tx, itemID uuid.UUID, quantity int) error {
	if quantity < 1 {
		return fmt.Errorf("invalid item quantity %d", quantity)
	}

	tag, err := tx.Exec(ctx, `UPDATE order_items SET quantity = $2 WHERE id = $1`, itemID, quantity)
	if err != nil {
		r.logger.Error().Err(err).Str("item_id", itemID.String()).Msg("failed to update item quantity")
		return fmt.Errorf("failed to update item quantity: %w", err)
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("failed to update item quantity: item %s not found", itemID)
	}

	return nil
}

// DeleteItem removes a line item.
func (r *orderRepository) DeleteItem(ctx context.Context, tx pgx.Tx, itemID uuid.UUID) error {
	tag, err := tx.Exec(ctx, `DELETE FROM order_items WHERE id = $1`, itemID)
	if err != nil {
		r.logger.Error().Err(err).Str("item_id", itemID.String()).Msg("failed to delete item")
		return fmt.Errorf("failed to delete item: %w", err)
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("failed to delete item: item %s not found", itemID)
	}

	return nil
}

// RecalculateTotal re-sums the order's line items and stores the total.
func (r *orderRepository) RecalculateTotal(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) (decimal.Decimal, error) {
	query := `
		UPDATE orders o
		SET total_price = COALESCE((
				SELECT SUM(p.price * oi.quantity)
				FROM order_items oi
				JOIN products p ON p.id = oi.product_id
				WHERE oi.order_id = o.id
			), 0),
			updated_at = $2
		WHERE o.id = $1 AND o.status = 'Pending'
		RETURNING o.total_price
	`

	var total decimal.Decimal
	if err := tx.QueryRow(ctx, query, orderID, r.now()).Scan(&total); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, fmt.Errorf("failed to recalculate total: order %s is not pending", orderID)
		}
		r.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to recalculate total")
		return decimal.Zero, fmt.Errorf("failed to recalculate total: %w", err)
	}

	return total, nil
}

// ListItems returns the order's line items with product details.
func (r *orderRepository) ListItems(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) ([]model.OrderItem, error) {
	return r.listItems(ctx, tx, orderID)
}

func (r *orderRepository) listItems(ctx context.Context, db DBTX, orderID uuid.UUID) ([]model.OrderItem, error) {
	query := `
		SELECT oi.id, oi.order_id, oi.product_id, p.name, p.price, oi.quantity
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = $1
		ORDER BY oi.created_at, oi.id
	`

	rows, err := db.Query(ctx, query, orderID)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", orderID.String()).
			Msg("failed to query order items")
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	items := []model.OrderItem{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order item row")
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, *item)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order item rows")
		return nil, fmt.Errorf("error iterating order items: %w", err)
	}

	return items, nil
}

// GetPendingOrder returns the user's pending order with items, or nil.
func (r *orderRepository) GetPendingOrder(ctx context.Context, userID string) (*model.OrderDetail, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE user_id = $1 AND status = 'Pending'
	`

	order, err := scanOrder(r.pool.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("user_id", userID).Msg("failed to query pending order")
		return nil, fmt.Errorf("failed to query pending order: %w", err)
	}

	items, err := r.listItems(ctx, r.pool, order.ID)
	if err != nil {
		return nil, err
	}

	return &model.OrderDetail{Order: *order, Items: items}, nil
}

// CountPendingItems sums item quantities of the user's pending order.
func (r *orderRepository) CountPendingItems(ctx context.Context, userID string) (int, error) {
	query := `
		SELECT COALESCE(SUM(oi.quantity), 0)
		FROM orders o
		JOIN order_items oi ON oi.order_id = o.id
		WHERE o.user_id = $1 AND o.status = 'Pending'
	`

	var count int
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		r.logger.Error().Err(err).Str("user_id", userID).Msg("failed to count cart items")
		return 0, fmt.Errorf("failed to count cart items: %w", err)
	}

	return count, nil
}

// GetByID retrieves an order by its ID along with its items.
func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.OrderDetail, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE id = $1
	`

	order, err := scanOrder(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("order_id", id.String()).Msg("order not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to query order")
		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	items, err := r.listItems(ctx, r.pool, id)
	if err != nil {
		return nil, err
	}

	return &model.OrderDetail{Order: *order, Items: items}, nil
}

// ListCompletedByUser retrieves a user's paid orders, newest first.
func (r *orderRepository) ListCompletedByUser(ctx context.Context, userID string, limit, offset int) ([]model.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE user_id = $1 AND status = 'Completed'
		ORDER BY paid_at DESC, id
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID).Msg("failed to query orders")
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := []model.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order row")
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *order)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order rows")
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	return orders, nil
}

// SetPaymentSession records the checkout session of a pending order.
func (r *orderRepository) SetPaymentSession(ctx context.Context, orderID uuid.UUID, sessionID string) (bool, error) {
	query := `
		UPDATE orders
		SET payment_session_id = $2, updated_at = $3
		WHERE id = $1 AND status = 'Pending'
	`

	tag, err := r.pool.Exec(ctx, query, orderID, sessionID, r.now())
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", orderID.String()).
			Str("session_id", sessionID).
			Msg("failed to record payment session")
		return false, fmt.Errorf("failed to record payment session: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// CompleteOrder transitions a pending order to completed with a single
// conditional update. Concurrent callers serialise on the row lock and only
// one of them observes an affected row.
//
// When the order is already completed, identifiers that are still empty are
// filled in; recorded identifiers and paid_at are never changed.
func (r *orderRepository) CompleteOrder(ctx context.Context, req model.CompletionRequest) (model.CompletionOutcome, error) {
	logger := r.logger.With().Str("order_id", req.OrderID.String()).Logger()

	transition := `
		UPDATE orders
		SET status = 'Completed',
			paid_at = $2,
			updated_at = $2,
			payment_session_id = COALESCE(payment_session_id, $3),
			payment_intent_id = COALESCE(payment_intent_id, $4)
		WHERE id = $1 AND status = 'Pending'
	`

	tag, err := r.pool.Exec(ctx, transition, req.OrderID, req.PaidAt, req.SessionID, req.PaymentIntentID)
	if err != nil {
		logger.Error().Err(err).Msg("failed to complete order")
		return model.OutcomeNotFound, fmt.Errorf("failed to complete order: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return model.OutcomeCompleted, nil
	}

	backfill := `
		UPDATE orders
		SET payment_session_id = COALESCE(payment_session_id, $2),
			payment_intent_id = COALESCE(payment_intent_id, $3)
		WHERE id = $1 AND status = 'Completed'
	`

	tag, err = r.pool.Exec(ctx, backfill, req.OrderID, req.SessionID, req.PaymentIntentID)
	if err != nil {
		logger.Error().Err(err).Msg("failed to backfill payment identifiers")
		return model.OutcomeNotFound, fmt.Errorf("failed to backfill payment identifiers: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.OutcomeNotFound, nil
	}

	return model.OutcomeAlreadyCompleted, nil
}

// scanOrder scans a row selected with orderColumns.
func scanOrder(row pgx.Row) (*model.Order, error) {
	var (
		order  model.Order
		status string
	)
	err := row.Scan(
		&order.ID,
		&order.UserID,
		&status,
		&order.TotalPrice,
		&order.SessionID,
		&order.PaymentIntentID,
		&order.PaidAt,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	order.Status = model.OrderStatus(status)
	return &order, nil
}

func scanItem(row pgx.Row) (*model.OrderItem, error) {
	var item model.OrderItem
	err := row.Scan(
		&item.ID,
		&item.OrderID,
		&item.ProductID,
		&item.ProductName,
		&item.UnitPrice,
		&item.Quantity,
	)
	if err != nil {
		return nil, err
	}
	return &item, nil
}
