package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetricsRegistration(t *testing.T) {
	assert.NotNil(t, TasksSubmitted)
	assert.NotNil(t, TasksCompleted)
	assert.NotNil(t, TaskDuration)
	assert.NotNil(t, TaskRetries)

	assert.NotNil(t, QueueDepth)
	assert.NotNil(t, QueueLatency)

	assert.NotNil(t, ActiveWorkers)
	assert.NotNil(t, WorkerCrashes)

	assert.NotNil(t, SweepTimeouts)
	assert.NotNil(t, SweepDuration)

	assert.NotNil(t, HTTPRequestDuration)
	assert.NotNil(t, HTTPRequestsTotal)

	assert.NotNil(t, StoreOperationDuration)
	assert.NotNil(t, StoreErrors)

	assert.NotNil(t, SSEConnections)
	assert.NotNil(t, SSEEventsSent)
}

func TestRecordTaskSubmission(t *testing.T) {
	TasksSubmitted.Reset()

	RecordTaskSubmission("q1", "high")
	RecordTaskSubmission("q1", "high")
	RecordTaskSubmission("q2", "low")
}

func TestRecordTaskCompletion(t *testing.T) {
	TasksCompleted.Reset()
	TaskDuration.Reset()

	RecordTaskCompletion("q1", "success", 1.5)
	RecordTaskCompletion("q1", "failed", 0.5)
}

func TestRecordTaskRetry(t *testing.T) {
	TaskRetries.Reset()

	RecordTaskRetry("q1")
	RecordTaskRetry("q1")
}

func TestUpdateQueueDepth(t *testing.T) {
	QueueDepth.Reset()

	UpdateQueueDepth("q1", "high", 100)
	UpdateQueueDepth("q1", "low", 50)
}

func TestRecordQueueLatency(t *testing.T) {
	QueueLatency.Reset()

	RecordQueueLatency("q1", "high", 0.001)
	RecordQueueLatency("q1", "low", 0.5)
}

func TestSetActiveWorkers(t *testing.T) {
	SetActiveWorkers("q1", 5)
	SetActiveWorkers("q1", 0)
}

func TestRecordWorkerCrash(t *testing.T) {
	WorkerCrashes.Reset()

	RecordWorkerCrash("q1")
}

func TestRecordSweepTimeout(t *testing.T) {
	SweepTimeouts.Reset()

	RecordSweepTimeout("q1")
	RecordSweepTimeout("q1")
}

func TestRecordSweepDuration(t *testing.T) {
	RecordSweepDuration(0.05)
}

func TestRecordHTTPRequest(t *testing.T) {
	HTTPRequestDuration.Reset()
	HTTPRequestsTotal.Reset()

	RecordHTTPRequest("GET", "/api/v1/queues/me/tasks", "200", 0.05)
	RecordHTTPRequest("POST", "/api/v1/queues/me/tasks", "201", 0.1)
	RecordHTTPRequest("GET", "/api/v1/queues/me/tasks/123", "404", 0.01)
}

func TestRecordStoreOperation(t *testing.T) {
	StoreOperationDuration.Reset()

	RecordStoreOperation("fetch_task", 0.001)
	RecordStoreOperation("create_task", 0.005)
}

func TestRecordStoreError(t *testing.T) {
	StoreErrors.Reset()

	RecordStoreError("fetch_task")
}

func TestSetSSEConnections(t *testing.T) {
	SetSSEConnections(0)
	SetSSEConnections(10)
}

func TestRecordSSEEventSent(t *testing.T) {
	SSEEventsSent.Reset()

	RecordSSEEventSent("q1")
}
