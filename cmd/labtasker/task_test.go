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

func TestParseValueFlag_Empty(t *testing.T) {
	v, err := parseValueFlag("")
	require.NoError(t, err)
	assert.True(t, v.IsNull())
}

func TestParseValueFlag_Object(t *testing.T) {
	v, err := parseValueFlag(`{"lr": 0.1}`)
	require.NoError(t, err)
	leaf, ok := model.GetPath(v, "lr")
	require.True(t, ok)
	assert.Equal(t, 0.1, leaf.F)
}

func TestParseValueFlag_InvalidJSON(t *testing.T) {
	_, err := parseValueFlag("{not json")
	assert.Error(t, err)
}

func TestRunTaskSubmit(t *testing.T) {
	var gotName string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			TaskName string `json:"task_name"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotName = body.TaskName
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(client.CreateTaskResponse{TaskID: "t1"})
	}))
	defer srv.Close()

	sdk := client.New(srv.URL, "q", "p")
	var buf bytes.Buffer
	err := runTaskSubmit(context.Background(), sdk, client.CreateTaskRequest{TaskName: "train"}, &buf)
	require.NoError(t, err)
	assert.Equal(t, "train", gotName)
	assert.Contains(t, buf.String(), "t1")
}

func TestRunTaskReport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/status")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sdk := client.New(srv.URL, "q", "p")
	err := runTaskReport(context.Background(), sdk, "t1", model.TaskSuccess, model.Null())
	require.NoError(t, err)
}
