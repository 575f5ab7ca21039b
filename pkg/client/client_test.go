package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_CreateTask(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "my-queue", user)
		assert.Equal(t, "my-password", pass)
		assert.Equal(t, "/api/v1/queues/me/tasks", r.URL.Path)

		var body createTaskRequestShape
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "train", body.TaskName)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(CreateTaskResponse{TaskID: "t1"})
	}))
	defer srv.Close()

	c := New(srv.URL, "my-queue", "my-password")
	resp, err := c.CreateTask(context.Background(), CreateTaskRequest{TaskName: "train"})
	require.NoError(t, err)
	assert.Equal(t, "t1", resp.TaskID)
}

type createTaskRequestShape struct {
	TaskName string `json:"task_name"`
}

func TestClient_DoMapsErrorResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(ErrorResponse{Error: "Not Found", Message: "task not found"})
	}))
	defer srv.Close()

	c := New(srv.URL, "my-queue", "my-password")
	_, err := c.GetTask(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "task not found")
}

func TestClient_DeleteMe_CascadeQuery(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := New(srv.URL, "my-queue", "my-password")
	require.NoError(t, c.DeleteMe(context.Background(), true))
	assert.Equal(t, "cascade_delete=true", gotQuery)
}

func TestCreateQueue_Unauthenticated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _, ok := r.BasicAuth()
		assert.False(t, ok)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(CreateQueueResponse{QueueID: "q1"})
	}))
	defer srv.Close()

	resp, err := CreateQueue(context.Background(), srv.URL, CreateQueueRequest{QueueName: "q", Password: "p"})
	require.NoError(t, err)
	assert.Equal(t, "q1", resp.QueueID)
}
