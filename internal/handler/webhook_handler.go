package handler

import (
	"errors"
	"io"
	"net/http"

	"storefront/internal/model"
	"storefront/internal/service"

	"github.com/rs/zerolog"
)

const (
	// SignatureHeader carries the provider's payload signature.
	SignatureHeader = "Stripe-Signature"

	maxWebhookBody = 64 << 10
)

// WebhookHandler receives payment provider notifications.
type WebhookHandler struct {
	reconciler service.ReconcilerService
	logger     zerolog.Logger
}

// NewWebhookHandler creates a new webhook handler.
func NewWebhookHandler(reconciler service.ReconcilerService, logger zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{
		reconciler: reconciler,
		logger:     logger.With().Str("handler", "webhook").Logger(),
	}
}

type webhookAck struct {
	Received bool `json:"received"`
}

// Handle handles POST /api/webhooks/payment. Only unauthenticated payloads are
// rejected; anything else is acknowledged so the provider stops retrying.
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidRequest, "unreadable webhook payload", h.logger)
		return
	}

	err = h.reconciler.HandleWebhook(r.Context(), payload, r.Header.Get(SignatureHeader))
	switch {
	case errors.Is(err, model.ErrInvalidWebhookSignature):
		writeServiceError(w, r, model.ErrInvalidWebhookSignature, h.logger)
		return
	case err != nil:
		h.logger.Error().Err(err).Msg("webhook processing failed, acknowledging")
	}

	writeJSON(w, http.StatusOK, webhookAck{Received: true})
}
