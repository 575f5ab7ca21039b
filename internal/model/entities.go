package model

import "time"

// Priority is the dispatch priority of a task. Higher sorts first.
type Priority int

const (
	PriorityLow    Priority = 0
	PriorityMedium Priority = 10
	PriorityHigh   Priority = 20
)

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	default:
		return "unknown"
	}
}

// TaskStatus is one of the states in the task FSM (see internal/fsm).
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskRunning   TaskStatus = "running"
	TaskSuccess   TaskStatus = "success"
	TaskFailed    TaskStatus = "failed"
	TaskCancelled TaskStatus = "cancelled"
)

// WorkerStatus is one of the states in the worker FSM.
type WorkerStatus string

const (
	WorkerActive    WorkerStatus = "active"
	WorkerSuspended WorkerStatus = "suspended"
	WorkerCrashed   WorkerStatus = "crashed"
)

// Queue is the authentication/isolation boundary: every Task and Worker
// belongs to exactly one Queue via QueueID.
type Queue struct {
	QueueID      string    `bson:"_id" json:"queue_id"`
	QueueName    string    `bson:"queue_name" json:"queue_name"`
	PasswordHash string    `bson:"password_hash" json:"-"`
	Metadata     Value     `bson:"metadata" json:"metadata"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
	LastModified time.Time `bson:"last_modified" json:"last_modified"`
}

// Task is a unit of work scoped to a Queue.
type Task struct {
	TaskID          string     `bson:"_id" json:"task_id"`
	QueueID         string     `bson:"queue_id" json:"queue_id"`
	TaskName        string     `bson:"task_name,omitempty" json:"task_name,omitempty"`
	Args            Value      `bson:"args" json:"args"`
	Metadata        Value      `bson:"metadata" json:"metadata"`
	Cmd             []string   `bson:"cmd,omitempty" json:"cmd,omitempty"`
	Priority        Priority   `bson:"priority" json:"priority"`
	Status          TaskStatus `bson:"status" json:"status"`
	Retries         int        `bson:"retries" json:"retries"`
	MaxRetries      int        `bson:"max_retries" json:"max_retries"`
	HeartbeatTimeout int       `bson:"heartbeat_timeout" json:"heartbeat_timeout"`
	TaskTimeout     *int       `bson:"task_timeout,omitempty" json:"task_timeout,omitempty"`
	CreatedAt       time.Time  `bson:"created_at" json:"created_at"`
	StartTime       *time.Time `bson:"start_time,omitempty" json:"start_time,omitempty"`
	LastHeartbeat   *time.Time `bson:"last_heartbeat,omitempty" json:"last_heartbeat,omitempty"`
	LastModified    time.Time  `bson:"last_modified" json:"last_modified"`
	Summary         Value      `bson:"summary" json:"summary"`
	WorkerID        *string    `bson:"worker_id,omitempty" json:"worker_id,omitempty"`
}

// Worker executes tasks on behalf of a client process.
type Worker struct {
	WorkerID     string       `bson:"_id" json:"worker_id"`
	QueueID      string       `bson:"queue_id" json:"queue_id"`
	WorkerName   string       `bson:"worker_name,omitempty" json:"worker_name,omitempty"`
	Metadata     Value        `bson:"metadata" json:"metadata"`
	Status       WorkerStatus `bson:"status" json:"status"`
	Retries      int          `bson:"retries" json:"retries"`
	MaxRetries   int          `bson:"max_retries" json:"max_retries"`
	CreatedAt    time.Time    `bson:"created_at" json:"created_at"`
	LastModified time.Time    `bson:"last_modified" json:"last_modified"`
}

// ProtectedFields are field names that user map updates may never
// target directly.
var ProtectedFields = map[string]bool{
	"_id":           true,
	"queue_id":      true,
	"created_at":    true,
	"last_modified": true,
}
