package service

import (
	"context"

	"storefront/internal/model"
	"storefront/internal/payment"

	"github.com/google/uuid"
)

// ProductService defines read operations on the catalogue.
type ProductService interface {
	// GetAll retrieves all products with pagination.
	GetAll(ctx context.Context, limit, offset int) ([]model.Product, error)

	// GetByID retrieves a single product by ID.
	GetByID(ctx context.Context, id string) (*model.Product, error)

	// GetByIDs retrieves multiple products by their IDs.
	GetByIDs(ctx context.Context, ids []string) ([]model.Product, error)

	// ListByCategory retrieves the products of a category.
	// Unknown categories return model.ErrInvalidCategory.
	ListByCategory(ctx context.Context, category string, limit, offset int) ([]model.Product, error)

	// Featured returns the first few products of every category, in
	// category display order.
	Featured(ctx context.Context) ([]model.CategoryProducts, error)

	// Categories lists the product categories in display order.
	Categories() []string
}

// CartService manages the user's pending order.
type CartService interface {
	// AddItem adds one unit of a product, creating the cart on first use.
	AddItem(ctx context.Context, userID, productID string) (*model.OrderDetail, *model.OrderItem, error)

	// DecrementOrRemove removes one unit of a product and returns the new
	// quantity. Zero means the line was removed.
	DecrementOrRemove(ctx context.Context, userID, productID string) (int, error)

	// RemoveItem removes a product line regardless of quantity.
	RemoveItem(ctx context.Context, userID, productID string) error

	// GetCart returns the pending order, or nil when the user has none.
	GetCart(ctx context.Context, userID string) (*model.OrderDetail, error)

	// ItemCount sums item quantities in the cart.
	ItemCount(ctx context.Context, userID string) (int, error)
}

// CheckoutService opens payment sessions for carts.
type CheckoutService interface {
	// OpenSession snapshots the cart into a hosted checkout session.
	OpenSession(ctx context.Context, userID string) (*model.SessionHandle, error)
}

// ReconcilerService completes orders from payment provider signals.
type ReconcilerService interface {
	// HandleWebhook authenticates a provider notification and applies it.
	HandleWebhook(ctx context.Context, payload []byte, signature string) error

	// HandleProviderEvent applies an authenticated provider event.
	HandleProviderEvent(ctx context.Context, event *payment.Event) error

	// ReconcileFromReturn checks the session the browser returned from and
	// completes its order when paid. It returns the order as it now stands,
	// or nil when it cannot be determined.
	ReconcileFromReturn(ctx context.Context, sessionID string) *model.OrderDetail

	// CompleteOrder marks a pending order paid.
	CompleteOrder(ctx context.Context, orderID uuid.UUID, sessionID, paymentIntentID *string) (model.CompletionOutcome, error)
}

// OrderService exposes a user's receipts.
type OrderService interface {
	// ListForUser returns the user's completed orders, newest first.
	ListForUser(ctx context.Context, userID string, limit, offset int) ([]model.Order, error)

	// GetForUser returns one of the user's orders. Orders owned by someone
	// else are reported as model.ErrOrderNotFound.
	GetForUser(ctx context.Context, userID string, id uuid.UUID) (*model.OrderDetail, error)
}
