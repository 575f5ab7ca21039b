package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWorkerHandler_Create_InvalidJSON(t *testing.T) {
	h := &WorkerHandler{}

	req := invalidJSONRequest(http.MethodPost, "/api/v1/queues/me/workers")
	w := httptest.NewRecorder()

	h.Create(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWorkerHandler_ReportStatus_InvalidJSON(t *testing.T) {
	h := &WorkerHandler{}

	req := invalidJSONRequest(http.MethodPost, "/api/v1/queues/me/workers/w1/status")
	w := httptest.NewRecorder()

	h.ReportStatus(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
