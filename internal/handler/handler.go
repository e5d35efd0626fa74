// Package handler provides HTTP request handlers.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/notegen/notegen/internal/handler/dto"
	"github.com/notegen/notegen/internal/middleware"
	"github.com/notegen/notegen/internal/service"
)

// Error codes returned in API error bodies.
const (
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodeInvalidJSON      = "INVALID_JSON"
	CodeForbidden        = "FORBIDDEN"
	CodeNotFound         = "NOT_FOUND"
	CodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	CodePayloadTooLarge  = "PAYLOAD_TOO_LARGE"
	CodeInternal         = "INTERNAL_ERROR"
)

// NotFound handles 404 responses.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, CodeNotFound, "Resource not found")
}

// MethodNotAllowed handles 405 responses.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, CodeMethodNotAllowed, "Method not allowed")
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{Error: message, Code: code})
}

// writeServiceError maps service errors to HTTP responses. Unexpected
// errors are logged and answered with internalMsg, never the error text.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, internalMsg string) {
	var quota *service.QuotaExceededError
	var invalid *service.ValidationError
	var tooLarge *http.MaxBytesError

	switch {
	case errors.As(err, &quota):
		writeJSON(w, http.StatusTooManyRequests, dto.NewQuotaExceededResponse(quota.Limit, quota.ResetAt))
	case errors.As(err, &invalid):
		writeError(w, http.StatusBadRequest, CodeInvalidRequest, invalid.Message)
	case errors.As(err, &tooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, CodePayloadTooLarge, "Request body too large")
	case errors.Is(err, service.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, CodeInvalidRequest, "Invalid request")
	case errors.Is(err, service.ErrNoteNotFound):
		writeError(w, http.StatusNotFound, CodeNotFound, "Note not found")
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, CodeForbidden, "Forbidden")
	default:
		logger.ErrorContext(r.Context(), "internal_error",
			"error", err,
			"endpoint", r.Method+" "+r.URL.Path,
			"request_id", middleware.GetRequestID(r.Context()),
		)
		writeError(w, http.StatusInternalServerError, CodeInternal, internalMsg)
	}
}
