package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	// OrderStatusPending marks the user's mutable cart.
	OrderStatusPending OrderStatus = "Pending"
	// OrderStatusCompleted marks a paid, immutable receipt.
	OrderStatusCompleted OrderStatus = "Completed"
)

// Order represents a customer order. A Pending order is the user's cart.
type Order struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	UserID          string          `json:"userId" db:"user_id"`
	Status          OrderStatus     `json:"status" db:"status"`
	TotalPrice      decimal.Decimal `json:"totalPrice" db:"total_price"`
	SessionID       *string         `json:"sessionId,omitempty" db:"payment_session_id"`
	PaymentIntentID *string         `json:"paymentIntentId,omitempty" db:"payment_intent_id"`
	PaidAt          *time.Time      `json:"paidAt,omitempty" db:"paid_at"`
	CreatedAt       time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time       `json:"updatedAt" db:"updated_at"`
}

// IsCompleted reports whether the order has been paid.
func (o *Order) IsCompleted() bool {
	return o.Status == OrderStatusCompleted
}

// OrderItem represents a line item in an order.
// ProductName and UnitPrice are read from the product at query time.
type OrderItem struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	OrderID     uuid.UUID       `json:"-" db:"order_id"`
	ProductID   string          `json:"productId" db:"product_id"`
	ProductName string          `json:"productName,omitempty" db:"name"`
	UnitPrice   decimal.Decimal `json:"unitPrice" db:"price"`
	Quantity    int             `json:"quantity" db:"quantity"`
}

// LineTotal returns unit price multiplied by quantity.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// OrderDetail is an order together with its line items.
type OrderDetail struct {
	Order
	Items []OrderItem `json:"items"`
}

// ItemCount returns the sum of quantities across all items.
func (d *OrderDetail) ItemCount() int {
	count := 0
	for _, item := range d.Items {
		count += item.Quantity
	}
	return count
}

// CartResponse is returned by the cart endpoint. Cart is nil when the user
// has no pending order.
type CartResponse struct {
	Cart      *OrderDetail `json:"cart"`
	ItemCount int          `json:"itemCount"`
}

// CartItemResponse is returned after a cart mutation.
type CartItemResponse struct {
	Cart     *OrderDetail `json:"cart"`
	Item     *OrderItem   `json:"item,omitempty"`
	Quantity int          `json:"quantity"`
}

// CartCountResponse is returned by the cart count endpoint.
type CartCountResponse struct {
	Count int `json:"count"`
}

// CompletionOutcome describes what a completion attempt did.
type CompletionOutcome int

const (
	// OutcomeNotFound means no order matched the correlation token.
	OutcomeNotFound CompletionOutcome = iota
	// OutcomeCompleted means this call performed the Pending to Completed transition.
	OutcomeCompleted
	// OutcomeAlreadyCompleted means another call had already completed the order.
	OutcomeAlreadyCompleted
)

// String returns the outcome name used in logs.
func (o CompletionOutcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeAlreadyCompleted:
		return "already_completed"
	default:
		return "not_found"
	}
}

// CompletionRequest carries the identifiers recorded when an order is paid.
type CompletionRequest struct {
	OrderID         uuid.UUID
	SessionID       *string
	PaymentIntentID *string
	PaidAt          time.Time
}

// CheckoutResult is returned to the browser after it comes back from checkout.
// Order is nil when the session could not be matched to an order.
type CheckoutResult struct {
	Order *OrderDetail `json:"order"`
	Paid  bool         `json:"paid"`
}

// SessionHandle is returned to the caller after a checkout session is opened.
type SessionHandle struct {
	OrderID     uuid.UUID `json:"orderId"`
	SessionID   string    `json:"sessionId"`
	RedirectURL string    `json:"redirectUrl"`
}
