// Package payment abstracts the hosted checkout provider used to collect
// payment for a pending order.
package payment

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// ErrInvalidSignature is returned by ParseEvent when a webhook payload cannot
// be authenticated.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// EventKind classifies provider events by what they mean for an order.
type EventKind string

const (
	// EventSessionCompleted means the checkout session finished with a paid status.
	EventSessionCompleted EventKind = "session_completed"
	// EventPaymentSucceeded means the payment behind a session settled.
	EventPaymentSucceeded EventKind = "payment_succeeded"
	// EventIgnored covers every event the store does not act on.
	EventIgnored EventKind = "ignored"
)

// LineItem is a snapshot of one cart line sent to the provider.
type LineItem struct {
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
}

// SessionRequest describes the checkout session to open.
type SessionRequest struct {
	// CorrelationToken is echoed back by the provider in session state and
	// events. The store uses the order id.
	CorrelationToken string
	Items            []LineItem
	SuccessURL       string
	CancelURL        string
}

// Session is a freshly opened checkout session.
type Session struct {
	ID  string
	URL string
}

// SessionState is the provider's current view of a checkout session.
type SessionState struct {
	ID               string
	CorrelationToken string
	PaymentIntentID  string
	Paid             bool
}

// Event is an authenticated provider notification.
type Event struct {
	ID               string
	Type             string
	Kind             EventKind
	CorrelationToken string
	SessionID        string
	PaymentIntentID  string
}

// Provider opens checkout sessions and authenticates their notifications.
type Provider interface {
	// CreateSession opens a hosted checkout session.
	CreateSession(ctx context.Context, req SessionRequest) (*Session, error)

	// RetrieveSession fetches the current state of a session.
	RetrieveSession(ctx context.Context, sessionID string) (*SessionState, error)

	// ParseEvent verifies signature and decodes payload. Verification
	// failures wrap ErrInvalidSignature.
	ParseEvent(payload []byte, signature string) (*Event, error)
}

// ToMinorUnits converts an amount to integer minor units (cents).
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}
