package repository

import (
	"context"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ProductRepository defines the interface for product data access operations.
type ProductRepository interface {
	// GetAll retrieves all products with pagination support.
	GetAll(ctx context.Context, limit, offset int) ([]model.Product, error)

	// GetByID retrieves a single product by its ID. Returns nil when absent.
	GetByID(ctx context.Context, id string) (*model.Product, error)

	// GetByIDs retrieves multiple products by their IDs.
	GetByIDs(ctx context.Context, ids []string) ([]model.Product, error)

	// ListByCategory retrieves the products of one category, oldest first.
	ListByCategory(ctx context.Context, category string, limit, offset int) ([]model.Product, error)

	// Featured retrieves up to perCategory products from every category.
	Featured(ctx context.Context, perCategory int) ([]model.Product, error)

	// SlugExists reports whether any product already uses slug.
	SlugExists(ctx context.Context, slug string) (bool, error)

	// Insert stores a new product. Existing products are left untouched and
	// reported with inserted=false.
	Insert(ctx context.Context, product *model.Product) (inserted bool, err error)
}

// OrderRepository defines the interface for order and cart data access.
//
// Methods taking a pgx.Tx must be called inside a transaction opened with
// BeginTx; the cart ledger relies on LockPendingOrder/EnsurePendingOrder holding
// the order row lock until commit.
type OrderRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// EnsurePendingOrder returns the user's pending order, creating it when
	// absent, and locks its row for the rest of the transaction.
	EnsurePendingOrder(ctx context.Context, tx pgx.Tx, userID string) (*model.Order, error)

	// LockPendingOrder returns and locks the user's pending order, or nil.
	LockPendingOrder(ctx context.Context, tx pgx.Tx, userID string) (*model.Order, error)

	// IncrementItem adds one unit of productID to the order, creating the
	// line item with quantity 1 when absent.
	IncrementItem(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, productID string) (*model.OrderItem, error)

	// GetItem returns the order's line item for productID, or nil.
	GetItem(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, productID string) (*model.OrderItem, error)

	// UpdateItemQuantity sets a line item's quantity. quantity must be positive.
	UpdateItemQuantity(ctx context.Context, tx pgx.Tx, itemID uuid.UUID, quantity int) error

	// DeleteItem removes a line item.
	DeleteItem(ctx context.Context, tx pgx.Tx, itemID uuid.UUID) error

	// RecalculateTotal re-sums unit price times quantity over all items of a
	// pending order and stores the result.
	RecalculateTotal(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) (decimal.Decimal, error)

	// ListItems returns the order's line items with product name and price.
	ListItems(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) ([]model.OrderItem, error)

	// GetPendingOrder returns the user's pending order with items, or nil.
	GetPendingOrder(ctx context.Context, userID string) (*model.OrderDetail, error)

	// CountPendingItems sums item quantities of the user's pending order.
	CountPendingItems(ctx context.Context, userID string) (int, error)

	// GetByID retrieves an order with its items. Returns nil when absent.
	GetByID(ctx context.Context, id uuid.UUID) (*model.OrderDetail, error)

	// ListCompletedByUser retrieves a user's paid orders, newest first.
	ListCompletedByUser(ctx context.Context, userID string, limit, offset int) ([]model.Order, error)

	// SetPaymentSession records the checkout session of a pending order.
	// It reports false when the order is no longer pending.
	SetPaymentSession(ctx context.Context, orderID uuid.UUID, sessionID string) (bool, error)

	// CompleteOrder performs the conditional Pending to Completed transition.
	CompleteOrder(ctx context.Context, req model.CompletionRequest) (model.CompletionOutcome, error)
}
