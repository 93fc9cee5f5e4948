package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"invoicing/internal/core"
	"invoicing/internal/logger"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := errorResponse{
		Error:     message,
		Code:      code,
		RequestID: requestIDFromContext(r.Context()),
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeJSON writes a JSON response with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

// writeJSONStatus writes a JSON response with the given status.
func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeServiceError maps a service error onto its HTTP status. Messages of
// caller errors are passed through; internal failures are logged and masked.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrInvalidInput):
		writeError(w, r, err.Error(), "BAD_REQUEST", http.StatusBadRequest)
	case errors.Is(err, core.ErrUnauthorized):
		writeError(w, r, "authentication required", "UNAUTHORIZED", http.StatusUnauthorized)
	case errors.Is(err, core.ErrNotFound):
		writeError(w, r, "not found", "NOT_FOUND", http.StatusNotFound)
	case errors.Is(err, core.ErrIllegalTransition):
		writeError(w, r, err.Error(), "CONFLICT", http.StatusConflict)
	case errors.Is(err, core.ErrDownstreamFailure):
		logServiceError(r, err)
		writeError(w, r, "email provider failed", "DOWNSTREAM_FAILURE", http.StatusBadGateway)
	case errors.Is(err, context.DeadlineExceeded):
		logServiceError(r, err)
		writeError(w, r, "request timed out", "TIMEOUT", http.StatusGatewayTimeout)
	case errors.Is(err, core.ErrAllocationFailure):
		logServiceError(r, err)
		writeError(w, r, "could not allocate invoice number", "ALLOCATION_FAILED", http.StatusInternalServerError)
	default:
		logServiceError(r, err)
		writeError(w, r, "internal server error", "INTERNAL_ERROR", http.StatusInternalServerError)
	}
}

func logServiceError(r *http.Request, err error) {
	log := logger.WithRequestID(requestIDFromContext(r.Context()))
	log.Error().
		Err(err).
		Str("method", r.Method).
		Str("route", routePattern(r)).
		Msg("request failed")
}
