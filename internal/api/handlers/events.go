package handlers

import (
	"net/http"

	"github.com/luocfprime/labtasker/internal/api/middleware"
	"github.com/luocfprime/labtasker/internal/events"
)

// EventsHandler serves /api/v1/queues/me/events.
type EventsHandler struct {
	hub *events.Hub
}

// NewEventsHandler constructs an EventsHandler backed by hub.
func NewEventsHandler(hub *events.Hub) *EventsHandler {
	return &EventsHandler{hub: hub}
}

// Stream handles GET /api/v1/queues/me/events as an SSE stream scoped
// to the authenticated queue.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	q := middleware.QueueFromContext(r.Context())
	events.ServeSSE(h.hub, w, r, q.QueueID)
}
