package model

import "errors"

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	CorrelationID string `json:"correlationId,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidRequest             = "INVALID_REQUEST"
	ErrCodeNotFound                   = "NOT_FOUND"
	ErrCodeInvalidCategory            = "INVALID_CATEGORY"
	ErrCodeNoActiveCart               = "NO_ACTIVE_CART"
	ErrCodeItemNotFound               = "ITEM_NOT_FOUND"
	ErrCodeEmptyCart                  = "EMPTY_CART"
	ErrCodePaymentProviderUnavailable = "PAYMENT_PROVIDER_UNAVAILABLE"
	ErrCodeInvalidWebhookSignature    = "INVALID_WEBHOOK_SIGNATURE"
	ErrCodeUnauthorised               = "UNAUTHORIZED"
	ErrCodeMethodNotAllowed           = "METHOD_NOT_ALLOWED"
	ErrCodeInternalError              = "INTERNAL_ERROR"
)

// Domain errors for business logic
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrProductNotFound            = NewDomainError(ErrCodeNotFound, "product not found")
	ErrOrderNotFound              = NewDomainError(ErrCodeNotFound, "order not found")
	ErrInvalidCategory            = NewDomainError(ErrCodeInvalidCategory, "unknown product category")
	ErrNoActiveCart               = NewDomainError(ErrCodeNoActiveCart, "no active cart")
	ErrItemNotFound               = NewDomainError(ErrCodeItemNotFound, "item not in cart")
	ErrEmptyCart                  = NewDomainError(ErrCodeEmptyCart, "cart is empty")
	ErrPaymentProviderUnavailable = NewDomainError(ErrCodePaymentProviderUnavailable, "payment provider unavailable, please retry")
	ErrInvalidWebhookSignature    = NewDomainError(ErrCodeInvalidWebhookSignature, "invalid webhook signature")
)

// CodeOf returns the domain error code carried by err, or ErrCodeInternalError.
func CodeOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ErrCodeInternalError
}
