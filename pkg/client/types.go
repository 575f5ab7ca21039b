package client

import "github.com/luocfprime/labtasker/internal/model"

// ErrorResponse mirrors the coordinator's JSON error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// CreateQueueRequest is the body of POST /api/v1/queues.
type CreateQueueRequest struct {
	QueueName string      `json:"queue_name"`
	Password  string      `json:"password"`
	Metadata  model.Value `json:"metadata,omitempty"`
}

// CreateQueueResponse is the body of a successful queue creation.
type CreateQueueResponse struct {
	QueueID string `json:"queue_id"`
}

// UpdateQueueRequest is the body of PUT /api/v1/queues/me.
type UpdateQueueRequest struct {
	NewName     *string     `json:"new_queue_name,omitempty"`
	NewPassword *string     `json:"new_password,omitempty"`
	Metadata    model.Value `json:"metadata,omitempty"`
}

// CreateTaskRequest is the body of POST /api/v1/queues/me/tasks.
type CreateTaskRequest struct {
	TaskName         string             `json:"task_name,omitempty"`
	Args             model.Value        `json:"args,omitempty"`
	Metadata         model.Value        `json:"metadata,omitempty"`
	Cmd              model.StringOrList `json:"cmd,omitempty"`
	Priority         model.Priority     `json:"priority,omitempty"`
	MaxRetries       int                `json:"max_retries,omitempty"`
	HeartbeatTimeout int                `json:"heartbeat_timeout,omitempty"`
	TaskTimeout      *int               `json:"task_timeout,omitempty"`
}

// CreateTaskResponse is the body of a successful task creation.
type CreateTaskResponse struct {
	TaskID string `json:"task_id"`
}

// ListTasksResponse is the body of GET /api/v1/queues/me/tasks.
type ListTasksResponse struct {
	Found   bool          `json:"found"`
	Content []*model.Task `json:"content"`
}

// FetchTaskRequest is the body of POST /api/v1/queues/me/tasks/next.
type FetchTaskRequest struct {
	WorkerID *string `json:"worker_id,omitempty"`
	// EtaMax is a duration string ("1h30m", "1 hour, 30 minutes", "30m"),
	// parsed and validated (> 0) server-side.
	EtaMax         *string     `json:"eta_max,omitempty"`
	RequiredFields model.Value `json:"required_fields,omitempty"`
	ExtraFilter    string      `json:"extra_filter,omitempty"`
}

// FetchTaskResponse is the body of a tasks/next call.
type FetchTaskResponse struct {
	Found bool        `json:"found"`
	Task  *model.Task `json:"task,omitempty"`
}

// ReportStatusRequest is the body of POST .../tasks/{id}/status.
type ReportStatusRequest struct {
	Status  model.TaskStatus `json:"status"`
	Summary model.Value      `json:"summary,omitempty"`
}

// CreateWorkerRequest is the body of POST /api/v1/queues/me/workers.
type CreateWorkerRequest struct {
	WorkerName string      `json:"worker_name,omitempty"`
	Metadata   model.Value `json:"metadata,omitempty"`
	MaxRetries int         `json:"max_retries,omitempty"`
}

// CreateWorkerResponse is the body of a successful worker creation.
type CreateWorkerResponse struct {
	WorkerID string `json:"worker_id"`
}

// ListWorkersResponse is the body of GET /api/v1/queues/me/workers.
type ListWorkersResponse struct {
	Found   bool            `json:"found"`
	Content []*model.Worker `json:"content"`
}

// ReportWorkerStatusRequest is the body of POST .../workers/{id}/status.
type ReportWorkerStatusRequest struct {
	Status model.WorkerStatus `json:"status"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}
