package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/luocfprime/labtasker/internal/api/middleware"
	"github.com/luocfprime/labtasker/internal/model"
	"github.com/luocfprime/labtasker/internal/store"
)

// WorkerHandler serves /api/v1/queues/me/workers.
type WorkerHandler struct {
	store *store.Store
}

// NewWorkerHandler constructs a WorkerHandler backed by store.
func NewWorkerHandler(s *store.Store) *WorkerHandler {
	return &WorkerHandler{store: s}
}

type createWorkerRequest struct {
	WorkerName string      `json:"worker_name"`
	Metadata   model.Value `json:"metadata"`
	MaxRetries int         `json:"max_retries"`
}

// Create handles POST /api/v1/queues/me/workers.
func (h *WorkerHandler) Create(w http.ResponseWriter, r *http.Request) {
	q := middleware.QueueFromContext(r.Context())

	var req createWorkerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	wk, err := h.store.CreateWorker(r.Context(), q.QueueID, store.CreateWorkerInput{
		WorkerName: req.WorkerName,
		Metadata:   req.Metadata,
		MaxRetries: req.MaxRetries,
	})
	if err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{"worker_id": wk.WorkerID})
}

type listWorkersResponse struct {
	Found   bool            `json:"found"`
	Content []*model.Worker `json:"content"`
}

// List handles GET /api/v1/queues/me/workers.
func (h *WorkerHandler) List(w http.ResponseWriter, r *http.Request) {
	q := middleware.QueueFromContext(r.Context())

	workers, err := h.store.ListWorkers(r.Context(), q.QueueID)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, listWorkersResponse{Found: len(workers) > 0, Content: workers})
}

type reportWorkerStatusRequest struct {
	Status model.WorkerStatus `json:"status"`
}

// ReportStatus handles POST /api/v1/queues/me/workers/{id}/status.
func (h *WorkerHandler) ReportStatus(w http.ResponseWriter, r *http.Request) {
	q := middleware.QueueFromContext(r.Context())
	workerID := chi.URLParam(r, "id")

	var req reportWorkerStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	wk, err := h.store.ReportWorkerStatus(r.Context(), q.QueueID, workerID, req.Status)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, wk)
}
