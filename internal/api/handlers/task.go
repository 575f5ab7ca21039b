package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/luocfprime/labtasker/internal/api/middleware"
	"github.com/luocfprime/labtasker/internal/duration"
	"github.com/luocfprime/labtasker/internal/model"
	"github.com/luocfprime/labtasker/internal/store"
	"github.com/luocfprime/labtasker/internal/transpile"
)

// TaskHandler serves /api/v1/queues/me/tasks.
type TaskHandler struct {
	store *store.Store
}

// NewTaskHandler constructs a TaskHandler backed by store.
func NewTaskHandler(s *store.Store) *TaskHandler {
	return &TaskHandler{store: s}
}

type createTaskRequest struct {
	TaskName         string             `json:"task_name"`
	Args             model.Value        `json:"args"`
	Metadata         model.Value        `json:"metadata"`
	Cmd              model.StringOrList `json:"cmd"`
	Priority         model.Priority     `json:"priority"`
	MaxRetries       int                `json:"max_retries"`
	HeartbeatTimeout int                `json:"heartbeat_timeout"`
	TaskTimeout      *int               `json:"task_timeout"`
}

// Create handles POST /api/v1/queues/me/tasks.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	q := middleware.QueueFromContext(r.Context())

	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	t, err := h.store.CreateTask(r.Context(), q.QueueID, store.CreateTaskInput{
		TaskName:         req.TaskName,
		Args:             req.Args,
		Metadata:         req.Metadata,
		Cmd:              req.Cmd,
		Priority:         req.Priority,
		MaxRetries:       req.MaxRetries,
		HeartbeatTimeout: req.HeartbeatTimeout,
		TaskTimeout:      req.TaskTimeout,
	})
	if err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{"task_id": t.TaskID})
}

// Get handles GET /api/v1/queues/me/tasks/{id}.
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	q := middleware.QueueFromContext(r.Context())
	taskID := chi.URLParam(r, "id")

	t, err := h.store.GetTask(r.Context(), q.QueueID, taskID)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, t)
}

type listTasksResponse struct {
	Found   bool          `json:"found"`
	Content []*model.Task `json:"content"`
}

// List handles GET /api/v1/queues/me/tasks?offset=&limit=.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	q := middleware.QueueFromContext(r.Context())
	offset, limit := paginationParams(r)

	tasks, err := h.store.ListTasks(r.Context(), q.QueueID, offset, limit)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, listTasksResponse{Found: len(tasks) > 0, Content: tasks})
}

type fetchTaskRequest struct {
	WorkerID       *string     `json:"worker_id"`
	EtaMax         *string     `json:"eta_max"` // duration string, e.g. "1h30m"
	RequiredFields model.Value `json:"required_fields"`
	ExtraFilter    string      `json:"extra_filter"` // query-expression source, transpiled server-side
}

type fetchTaskResponse struct {
	Found bool        `json:"found"`
	Task  *model.Task `json:"task,omitempty"`
}

// Next handles POST /api/v1/queues/me/tasks/next.
func (h *TaskHandler) Next(w http.ResponseWriter, r *http.Request) {
	q := middleware.QueueFromContext(r.Context())

	var req fetchTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var extraFilter bson.M
	if req.ExtraFilter != "" {
		filter, err := transpile.Transpile(req.ExtraFilter)
		if err != nil {
			respondError(w, http.StatusUnprocessableEntity, "invalid extra_filter: "+err.Error())
			return
		}
		extraFilter = filter
	}

	var etaMaxSeconds *int
	if req.EtaMax != nil {
		d, err := duration.Parse(*req.EtaMax)
		if err != nil {
			respondError(w, http.StatusUnprocessableEntity, "invalid eta_max: "+err.Error())
			return
		}
		seconds := int(d.Seconds())
		etaMaxSeconds = &seconds
	}

	t, err := h.store.FetchTask(r.Context(), q.QueueID, store.FetchTaskInput{
		WorkerID:       req.WorkerID,
		EtaMaxSeconds:  etaMaxSeconds,
		RequiredFields: req.RequiredFields,
		ExtraFilter:    extraFilter,
		TrackHeartbeat: true,
	})
	if err != nil {
		respondStoreError(w, err)
		return
	}
	if t == nil {
		respondJSON(w, http.StatusOK, fetchTaskResponse{Found: false})
		return
	}

	respondJSON(w, http.StatusOK, fetchTaskResponse{Found: true, Task: t})
}

type reportStatusRequest struct {
	Status  model.TaskStatus `json:"status"`
	Summary model.Value      `json:"summary"`
}

// ReportStatus handles POST /api/v1/queues/me/tasks/{id}/status.
func (h *TaskHandler) ReportStatus(w http.ResponseWriter, r *http.Request) {
	q := middleware.QueueFromContext(r.Context())
	taskID := chi.URLParam(r, "id")

	var req reportStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	t, err := h.store.ReportTaskStatus(r.Context(), q.QueueID, taskID, req.Status, req.Summary)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, t)
}

// Heartbeat handles POST /api/v1/queues/me/tasks/{id}/heartbeat.
func (h *TaskHandler) Heartbeat(w http.ResponseWriter, r *http.Request) {
	q := middleware.QueueFromContext(r.Context())
	taskID := chi.URLParam(r, "id")

	if err := h.store.RefreshTaskHeartbeat(r.Context(), q.QueueID, taskID); err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"task_id": taskID})
}

// Delete handles DELETE /api/v1/queues/me/tasks/{id}.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	q := middleware.QueueFromContext(r.Context())
	taskID := chi.URLParam(r, "id")

	if err := h.store.DeleteTask(r.Context(), q.QueueID, taskID); err != nil {
		respondStoreError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func paginationParams(r *http.Request) (offset, limit int64) {
	offset, _ = strconv.ParseInt(r.URL.Query().Get("offset"), 10, 64)
	limit, _ = strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64)
	if limit <= 0 {
		limit = 100
	}
	return offset, limit
}
