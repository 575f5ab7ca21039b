//go:build integration
// +build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luocfprime/labtasker/internal/config"
	"github.com/luocfprime/labtasker/internal/model"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	s, err := New(ctx, &config.MongoConfig{
		URI:            "mongodb://localhost:27017",
		Database:       "labtasker_test",
		ConnectTimeout: 5 * time.Second,
	}, config.SecurityConfig{
		Pepper:            "test-pepper",
		BcryptCost:        4,
		MinPasswordLength: 1,
	}, true)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = s.db.Drop(context.Background())
		_ = s.Close(context.Background())
	})
	return s
}

// TestS1_SubmitFetchComplete mirrors S1: create a queue, submit a task,
// fetch it without a worker id, report success, and list it back.
func TestS1_SubmitFetchComplete(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	q, err := s.CreateQueue(ctx, "test_queue", "test_password", model.Null())
	require.NoError(t, err)

	args := model.Map(map[string]model.Value{"param1": model.Int(1)})
	task, err := s.CreateTask(ctx, q.QueueID, CreateTaskInput{Args: args, MaxRetries: 3, HeartbeatTimeout: 60})
	require.NoError(t, err)

	fetched, err := s.FetchTask(ctx, q.QueueID, FetchTaskInput{TrackHeartbeat: true})
	require.NoError(t, err)
	require.NotNil(t, fetched)
	assert.Equal(t, task.TaskID, fetched.TaskID)
	assert.Equal(t, model.TaskRunning, fetched.Status)

	summary := model.Map(map[string]model.Value{"result": model.String("ok")})
	reported, err := s.ReportTaskStatus(ctx, q.QueueID, task.TaskID, model.TaskSuccess, summary)
	require.NoError(t, err)
	assert.Equal(t, model.TaskSuccess, reported.Status)

	list, err := s.ListTasks(ctx, q.QueueID, 0, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, model.TaskSuccess, list[0].Status)
	v, ok := model.GetPath(list[0].Summary, "result")
	require.True(t, ok)
	assert.Equal(t, "ok", v.S)
}

// TestS3_WorkerCrashesAfterRetryBudget mirrors S3.
func TestS3_WorkerCrashesAfterRetryBudget(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	q, err := s.CreateQueue(ctx, "s3_queue", "password", model.Null())
	require.NoError(t, err)

	w, err := s.CreateWorker(ctx, q.QueueID, CreateWorkerInput{MaxRetries: 3})
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := s.CreateTask(ctx, q.QueueID, CreateTaskInput{HeartbeatTimeout: 60, MaxRetries: 0})
		require.NoError(t, err)
	}

	for i := 0; i < 3; i++ {
		fetched, err := s.FetchTask(ctx, q.QueueID, FetchTaskInput{WorkerID: &w.WorkerID})
		require.NoError(t, err)
		require.NotNil(t, fetched)
		_, err = s.ReportTaskStatus(ctx, q.QueueID, fetched.TaskID, model.TaskFailed, model.Null())
		require.NoError(t, err)
	}

	_, err = s.FetchTask(ctx, q.QueueID, FetchTaskInput{WorkerID: &w.WorkerID})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = s.ReportWorkerStatus(ctx, q.QueueID, w.WorkerID, model.WorkerActive)
	require.NoError(t, err)

	fetched, err := s.FetchTask(ctx, q.QueueID, FetchTaskInput{WorkerID: &w.WorkerID})
	require.NoError(t, err)
	assert.NotNil(t, fetched)
}

// TestS4_DispatchOrdering mirrors S4: priority DESC, created_at ASC.
func TestS4_DispatchOrdering(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	q, err := s.CreateQueue(ctx, "s4_queue", "password", model.Null())
	require.NoError(t, err)

	a, err := s.CreateTask(ctx, q.QueueID, CreateTaskInput{TaskName: "a", Priority: model.PriorityHigh, MaxRetries: 1, HeartbeatTimeout: 60})
	require.NoError(t, err)
	b1, err := s.CreateTask(ctx, q.QueueID, CreateTaskInput{TaskName: "b1", Priority: model.PriorityMedium, MaxRetries: 1, HeartbeatTimeout: 60})
	require.NoError(t, err)
	b2, err := s.CreateTask(ctx, q.QueueID, CreateTaskInput{TaskName: "b2", Priority: model.PriorityMedium, MaxRetries: 1, HeartbeatTimeout: 60})
	require.NoError(t, err)
	c, err := s.CreateTask(ctx, q.QueueID, CreateTaskInput{TaskName: "c", Priority: model.PriorityLow, MaxRetries: 1, HeartbeatTimeout: 60})
	require.NoError(t, err)

	expected := []string{a.TaskID, b1.TaskID, b2.TaskID, c.TaskID}
	for _, want := range expected {
		got, err := s.FetchTask(ctx, q.QueueID, FetchTaskInput{})
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, want, got.TaskID)
	}
}

// TestS5_SweepForcesTimeout mirrors S5.
func TestS5_SweepForcesTimeout(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	q, err := s.CreateQueue(ctx, "s5_queue", "password", model.Null())
	require.NoError(t, err)

	task, err := s.CreateTask(ctx, q.QueueID, CreateTaskInput{HeartbeatTimeout: 120, MaxRetries: 1})
	require.NoError(t, err)

	fetched, err := s.FetchTask(ctx, q.QueueID, FetchTaskInput{TrackHeartbeat: true})
	require.NoError(t, err)
	require.Equal(t, task.TaskID, fetched.TaskID)

	stale := time.Now().UTC().Add(-121 * time.Second)
	fetched.LastHeartbeat = &stale
	require.NoError(t, s.failTaskForTimeout(ctx, fetched))

	reloaded, err := s.GetTask(ctx, q.QueueID, task.TaskID)
	require.NoError(t, err)
	assert.Equal(t, model.TaskFailed, reloaded.Status)
	assert.Equal(t, 1, reloaded.Retries)
	v, ok := model.GetPath(reloaded.Summary, "labtasker_error")
	require.True(t, ok)
	assert.Contains(t, v.S, "timeout")
}

// TestQueueScoping mirrors §8 property 3: queue B can neither load
// queue A's task by id nor fetch it for dispatch.
func TestQueueScoping(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	qa, err := s.CreateQueue(ctx, "scope_a", "password", model.Null())
	require.NoError(t, err)
	qb, err := s.CreateQueue(ctx, "scope_b", "password", model.Null())
	require.NoError(t, err)

	task, err := s.CreateTask(ctx, qa.QueueID, CreateTaskInput{MaxRetries: 1, HeartbeatTimeout: 60})
	require.NoError(t, err)

	_, err = s.GetTask(ctx, qb.QueueID, task.TaskID)
	assert.ErrorIs(t, err, ErrNotFound)

	fetched, err := s.FetchTask(ctx, qb.QueueID, FetchTaskInput{})
	require.NoError(t, err)
	assert.Nil(t, fetched)
}
