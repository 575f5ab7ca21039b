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

func TestRunWorkerCreate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(client.CreateWorkerResponse{WorkerID: "w1"})
	}))
	defer srv.Close()

	sdk := client.New(srv.URL, "q", "p")
	var buf bytes.Buffer
	err := runWorkerCreate(context.Background(), sdk, client.CreateWorkerRequest{WorkerName: "gpu-0"}, &buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "w1")
}

func TestRunWorkerReport(t *testing.T) {
	var gotStatus string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Status string `json:"status"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotStatus = body.Status
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sdk := client.New(srv.URL, "q", "p")
	err := runWorkerReport(context.Background(), sdk, "w1", model.WorkerCrashed)
	require.NoError(t, err)
	assert.Equal(t, "crashed", gotStatus)
}
