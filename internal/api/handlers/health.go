package handlers

import (
	"net/http"

	"github.com/luocfprime/labtasker/internal/store"
)

// HealthHandler serves GET /health.
type HealthHandler struct {
	store *store.Store
}

// NewHealthHandler constructs a HealthHandler backed by store.
func NewHealthHandler(s *store.Store) *HealthHandler {
	return &HealthHandler{store: s}
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// Check handles GET /health.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		respondJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unhealthy", Database: "disconnected"})
		return
	}
	respondJSON(w, http.StatusOK, healthResponse{Status: "healthy", Database: "connected"})
}
