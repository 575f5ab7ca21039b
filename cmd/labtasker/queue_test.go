package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luocfprime/labtasker/internal/model"
	"github.com/luocfprime/labtasker/pkg/client"
)

func TestRunQueueCreate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(client.CreateQueueResponse{QueueID: "q1"})
	}))
	defer srv.Close()

	var buf bytes.Buffer
	err := runQueueCreate(context.Background(), srv.URL, "my-queue", "secret", &buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "q1")
}

func TestRunQueueGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "my-queue", user)
		assert.Equal(t, "secret", pass)
		_ = json.NewEncoder(w).Encode(model.Queue{QueueID: "q1", QueueName: "my-queue"})
	}))
	defer srv.Close()

	sdk := client.New(srv.URL, "my-queue", "secret")
	var buf bytes.Buffer
	err := runQueueGet(context.Background(), sdk, &buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "my-queue")
}

func TestRunQueueDelete_Cascade(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sdk := client.New(srv.URL, "my-queue", "secret")
	err := runQueueDelete(context.Background(), sdk, true)
	require.NoError(t, err)
	assert.Contains(t, gotQuery, "cascade_delete=true")
}
