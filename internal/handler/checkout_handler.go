package handler

import (
	"net/http"

	"storefront/internal/model"
	"storefront/internal/service"

	"github.com/rs/zerolog"
)

// CheckoutHandler opens checkout sessions and receives the browser back from
// the payment page.
type CheckoutHandler struct {
	checkout   service.CheckoutService
	reconciler service.ReconcilerService
	logger     zerolog.Logger
}

// NewCheckoutHandler creates a new checkout handler.
func NewCheckoutHandler(checkout service.CheckoutService, reconciler service.ReconcilerService, logger zerolog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		checkout:   checkout,
		reconciler: reconciler,
		logger:     logger.With().Str("handler", "checkout").Logger(),
	}
}

// Create handles POST /api/checkout.
func (h *CheckoutHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r, h.logger)
	if !ok {
		return
	}

	handle, err := h.checkout.OpenSession(r.Context(), user)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, handle)
}

// Success handles GET /api/checkout/success. The browser always gets a 200;
// the webhook completes the order when this path cannot.
func (h *CheckoutHandler) Success(w http.ResponseWriter, r *http.Request) {
	order := h.reconciler.ReconcileFromReturn(r.Context(), r.URL.Query().Get("session_id"))

	writeJSON(w, http.StatusOK, model.CheckoutResult{
		Order: order,
		Paid:  order != nil && order.IsCompleted(),
	})
}
