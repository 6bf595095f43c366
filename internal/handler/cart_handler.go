package handler

import (
	"net/http"

	"storefront/internal/model"
	"storefront/internal/service"

	"github.com/rs/zerolog"
)

// CartHandler handles the authenticated user's cart.
type CartHandler struct {
	service service.CartService
	logger  zerolog.Logger
}

// NewCartHandler creates a new cart handler.
func NewCartHandler(service service.CartService, logger zerolog.Logger) *CartHandler {
	return &CartHandler{
		service: service,
		logger:  logger.With().Str("handler", "cart").Logger(),
	}
}

// Get handles GET /api/cart.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r, h.logger)
	if !ok {
		return
	}

	h.writeCart(w, r, user, http.StatusOK)
}

// Count handles GET /api/cart/count.
func (h *CartHandler) Count(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r, h.logger)
	if !ok {
		return
	}

	count, err := h.service.ItemCount(r.Context(), user)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, model.CartCountResponse{Count: count})
}

// AddItem handles POST /api/cart/items/{productID}.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r, h.logger)
	if !ok {
		return
	}

	cart, item, err := h.service.AddItem(r.Context(), user, r.PathValue("productID"))
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	resp := model.CartItemResponse{Cart: cart, Item: item}
	if item != nil {
		resp.Quantity = item.Quantity
	}
	writeJSON(w, http.StatusOK, resp)
}

// Decrement handles POST /api/cart/items/{productID}/decrement.
func (h *CartHandler) Decrement(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r, h.logger)
	if !ok {
		return
	}

	quantity, err := h.service.DecrementOrRemove(r.Context(), user, r.PathValue("productID"))
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	cart, err := h.service.GetCart(r.Context(), user)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, model.CartItemResponse{Cart: cart, Quantity: quantity})
}

// Remove handles DELETE /api/cart/items/{productID}.
func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.service.RemoveItem(r.Context(), user, r.PathValue("productID")); err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	h.writeCart(w, r, user, http.StatusOK)
}

func (h *CartHandler) writeCart(w http.ResponseWriter, r *http.Request, user string, status int) {
	cart, err := h.service.GetCart(r.Context(), user)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	resp := model.CartResponse{Cart: cart}
	if cart != nil {
		resp.ItemCount = cart.ItemCount()
	}
	writeJSON(w, status, resp)
}
