package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/luocfprime/labtasker/internal/api/middleware"
	"github.com/luocfprime/labtasker/internal/model"
	"github.com/luocfprime/labtasker/internal/store"
)

// QueueHandler serves /api/v1/queues and /api/v1/queues/me.
type QueueHandler struct {
	store *store.Store
}

// NewQueueHandler constructs a QueueHandler backed by store.
func NewQueueHandler(s *store.Store) *QueueHandler {
	return &QueueHandler{store: s}
}

type createQueueRequest struct {
	QueueName string      `json:"queue_name"`
	Password  string      `json:"password"`
	Metadata  model.Value `json:"metadata"`
}

// Create handles POST /api/v1/queues.
func (h *QueueHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createQueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	q, err := h.store.CreateQueue(r.Context(), req.QueueName, req.Password, req.Metadata)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{"queue_id": q.QueueID})
}

// GetMe handles GET /api/v1/queues/me.
func (h *QueueHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	q := middleware.QueueFromContext(r.Context())
	respondJSON(w, http.StatusOK, q)
}

type updateQueueRequest struct {
	NewName     *string     `json:"new_queue_name"`
	NewPassword *string     `json:"new_password"`
	Metadata    model.Value `json:"metadata"`
}

// UpdateMe handles PUT /api/v1/queues/me.
func (h *QueueHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	q := middleware.QueueFromContext(r.Context())

	var req updateQueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := h.store.UpdateQueue(r.Context(), q.QueueID, store.UpdateQueueInput{
		NewName:     req.NewName,
		NewPassword: req.NewPassword,
		Metadata:    req.Metadata,
	})
	if err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, updated)
}

// DeleteMe handles DELETE /api/v1/queues/me?cascade_delete=bool.
func (h *QueueHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	q := middleware.QueueFromContext(r.Context())
	cascade, _ := strconv.ParseBool(r.URL.Query().Get("cascade_delete"))

	if err := h.store.DeleteQueue(r.Context(), q.QueueID, cascade); err != nil {
		respondStoreError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
