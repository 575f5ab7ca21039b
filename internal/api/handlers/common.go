package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/luocfprime/labtasker/internal/logger"
	"github.com/luocfprime/labtasker/internal/redact"
	"github.com/luocfprime/labtasker/internal/store"
)

// ErrorResponse is the JSON body written for any non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.WithComponent("api").Error().Err(err).Msg("failed to encode json response")
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: http.StatusText(status), Message: message})
}

// respondStoreError maps a store sentinel error to its HTTP status per
// the error-kind table and writes it. Unrecognized errors are treated
// as internal.
func respondStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrUnauthenticated):
		respondError(w, http.StatusUnauthorized, redact.Error(err))
	case errors.Is(err, store.ErrForbidden):
		respondError(w, http.StatusForbidden, redact.Error(err))
	case errors.Is(err, store.ErrNotFound):
		respondError(w, http.StatusNotFound, redact.Error(err))
	case errors.Is(err, store.ErrConflict):
		respondError(w, http.StatusConflict, redact.Error(err))
	case errors.Is(err, store.ErrBadInput):
		respondError(w, http.StatusUnprocessableEntity, redact.Error(err))
	case errors.Is(err, store.ErrUnsafeDenied):
		respondError(w, http.StatusForbidden, redact.Error(err))
	default:
		logger.WithComponent("api").Error().Err(err).Msg("unhandled store error")
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}
