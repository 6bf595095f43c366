package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"storefront/internal/middleware"
	"storefront/internal/model"

	"github.com/rs/zerolog"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but don't expose it to the client
		return
	}
}

// writeError writes a model.ErrorResponse carrying the request id.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string, logger zerolog.Logger) {
	requestID := middleware.RequestIDFromContext(r.Context())

	event := logger.Warn()
	if status >= http.StatusInternalServerError {
		event = logger.Error()
	}
	event.Str("error", code).
		Str("message", message).
		Int("status", status).
		Str("request_id", requestID).
		Msg("handler error")

	writeJSON(w, status, model.ErrorResponse{
		Error:         code,
		Message:       message,
		CorrelationID: requestID,
	})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrProductNotFound),
		errors.Is(err, model.ErrOrderNotFound),
		errors.Is(err, model.ErrNoActiveCart),
		errors.Is(err, model.ErrItemNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrEmptyCart),
		errors.Is(err, model.ErrInvalidCategory),
		errors.Is(err, model.ErrInvalidWebhookSignature):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrPaymentProviderUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError writes the response for an error returned by a service.
// Infrastructure failures are reported without their details.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, logger zerolog.Logger) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeError(w, r, status, model.ErrCodeInternalError, "internal server error", logger)
		return
	}

	var de *model.DomainError
	message := err.Error()
	if errors.As(err, &de) {
		message = de.Message
	}
	writeError(w, r, status, model.CodeOf(err), message, logger)
}

// userID returns the authenticated user, writing a 401 when there is none.
func userID(w http.ResponseWriter, r *http.Request, logger zerolog.Logger) (string, bool) {
	id, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeError(w, r, http.StatusUnauthorized, model.ErrCodeUnauthorised, "authentication required", logger)
		return "", false
	}
	return id, true
}

// parsePagination reads the limit and offset query parameters.
func parsePagination(w http.ResponseWriter, r *http.Request, logger zerolog.Logger) (limit, offset int, ok bool) {
	limit = 10 // default
	if s := r.URL.Query().Get("limit"); s != "" {
		var err error
		if limit, err = strconv.Atoi(s); err != nil {
			writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidRequest, "invalid limit parameter", logger)
			return 0, 0, false
		}
	}

	if s := r.URL.Query().Get("offset"); s != "" {
		var err error
		if offset, err = strconv.Atoi(s); err != nil {
			writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidRequest, "invalid offset parameter", logger)
			return 0, 0, false
		}
	}

	return limit, offset, true
}
