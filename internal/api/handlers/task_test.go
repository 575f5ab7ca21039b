package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskHandler_Create_InvalidJSON(t *testing.T) {
	h := &TaskHandler{}

	req := invalidJSONRequest(http.MethodPost, "/api/v1/queues/me/tasks")
	w := httptest.NewRecorder()

	h.Create(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp ErrorResponse
	require.NoError(t, decodeBody(w, &resp))
	assert.Equal(t, "invalid request body", resp.Message)
}

func TestTaskHandler_Next_InvalidJSON(t *testing.T) {
	h := &TaskHandler{}

	req := invalidJSONRequest(http.MethodPost, "/api/v1/queues/me/tasks/next")
	w := httptest.NewRecorder()

	h.Next(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTaskHandler_ReportStatus_InvalidJSON(t *testing.T) {
	h := &TaskHandler{}

	req := invalidJSONRequest(http.MethodPost, "/api/v1/queues/me/tasks/t1/status")
	w := httptest.NewRecorder()

	h.ReportStatus(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateTaskRequest_CmdAcceptsBareString(t *testing.T) {
	var req createTaskRequest
	require.NoError(t, json.Unmarshal([]byte(`{"cmd": "python script.py"}`), &req))
	assert.Equal(t, []string{"python script.py"}, []string(req.Cmd))
}

func TestCreateTaskRequest_CmdAcceptsList(t *testing.T) {
	var req createTaskRequest
	require.NoError(t, json.Unmarshal([]byte(`{"cmd": ["python", "script.py"]}`), &req))
	assert.Equal(t, []string{"python", "script.py"}, []string(req.Cmd))
}

func TestTaskHandler_Next_RejectsInvalidEtaMax(t *testing.T) {
	h := &TaskHandler{}

	body, _ := json.Marshal(map[string]string{"eta_max": "not-a-duration"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/queues/me/tasks/next", bytes.NewReader(body))
	w := httptest.NewRecorder()

	h.Next(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestTaskHandler_Next_RejectsNonPositiveEtaMax(t *testing.T) {
	h := &TaskHandler{}

	body, _ := json.Marshal(map[string]string{"eta_max": "0s"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/queues/me/tasks/next", bytes.NewReader(body))
	w := httptest.NewRecorder()

	h.Next(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestPaginationParams_Defaults(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/queues/me/tasks", nil)
	offset, limit := paginationParams(req)
	assert.Equal(t, int64(0), offset)
	assert.Equal(t, int64(100), limit)
}

func TestPaginationParams_Explicit(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/queues/me/tasks?offset=5&limit=20", nil)
	offset, limit := paginationParams(req)
	assert.Equal(t, int64(5), offset)
	assert.Equal(t, int64(20), limit)
}
