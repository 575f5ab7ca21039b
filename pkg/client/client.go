package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/luocfprime/labtasker/internal/model"
)

// Client is a thin HTTP wrapper around the coordinator API (spec §6.1),
// scoped to one authenticated queue.
type Client struct {
	baseURL   string
	queueName string
	password  string
	opts      *options
}

// New constructs a Client bound to queueName/password against baseURL.
// Credentials are sent as HTTP Basic auth on every call except queue
// creation and the health check, which are unauthenticated.
func New(baseURL, queueName, password string, opts ...Option) *Client {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return &Client{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		queueName: queueName,
		password:  password,
		opts:      o,
	}
}

// CreateQueue registers a new queue. It is unauthenticated: there is no
// queue to authenticate against yet.
func CreateQueue(ctx context.Context, baseURL string, req CreateQueueRequest, opts ...Option) (*CreateQueueResponse, error) {
	c := New(baseURL, "", "", opts...)
	var out CreateQueueResponse
	if err := c.do(ctx, http.MethodPost, false, "/api/v1/queues", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health checks the coordinator's liveness and database connectivity.
// It is unauthenticated.
func Health(ctx context.Context, baseURL string, opts ...Option) (*HealthResponse, error) {
	c := New(baseURL, "", "", opts...)
	var out HealthResponse
	if err := c.do(ctx, http.MethodGet, false, "/health", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetMe fetches the authenticated queue's own document.
func (c *Client) GetMe(ctx context.Context) (*model.Queue, error) {
	var out model.Queue
	if err := c.do(ctx, http.MethodGet, true, "/api/v1/queues/me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateMe renames the queue, rotates its password, and/or merges
// metadata.
func (c *Client) UpdateMe(ctx context.Context, req UpdateQueueRequest) (*model.Queue, error) {
	var out model.Queue
	if err := c.do(ctx, http.MethodPut, true, "/api/v1/queues/me", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteMe deletes the queue. When cascade is true, all of its tasks
// and workers are deleted too.
func (c *Client) DeleteMe(ctx context.Context, cascade bool) error {
	path := "/api/v1/queues/me"
	if cascade {
		path += "?cascade_delete=true"
	}
	return c.do(ctx, http.MethodDelete, true, path, nil, nil)
}

// CreateTask submits a new task to the queue.
func (c *Client) CreateTask(ctx context.Context, req CreateTaskRequest) (*CreateTaskResponse, error) {
	var out CreateTaskResponse
	if err := c.do(ctx, http.MethodPost, true, "/api/v1/queues/me/tasks", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetTask fetches a single task by id.
func (c *Client) GetTask(ctx context.Context, taskID string) (*model.Task, error) {
	var out model.Task
	path := "/api/v1/queues/me/tasks/" + url.PathEscape(taskID)
	if err := c.do(ctx, http.MethodGet, true, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListTasks lists tasks in the queue with offset/limit pagination.
func (c *Client) ListTasks(ctx context.Context, offset, limit int64) (*ListTasksResponse, error) {
	var out ListTasksResponse
	path := fmt.Sprintf("/api/v1/queues/me/tasks?offset=%d&limit=%d", offset, limit)
	if err := c.do(ctx, http.MethodGet, true, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// NextTask fetches and claims the next matching PENDING task.
func (c *Client) NextTask(ctx context.Context, req FetchTaskRequest) (*FetchTaskResponse, error) {
	var out FetchTaskResponse
	if err := c.do(ctx, http.MethodPost, true, "/api/v1/queues/me/tasks/next", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ReportTaskStatus reports a task's terminal (or retried) status.
func (c *Client) ReportTaskStatus(ctx context.Context, taskID string, req ReportStatusRequest) error {
	path := "/api/v1/queues/me/tasks/" + url.PathEscape(taskID) + "/status"
	return c.do(ctx, http.MethodPost, true, path, req, nil)
}

// Heartbeat refreshes a RUNNING task's last_heartbeat timestamp.
func (c *Client) Heartbeat(ctx context.Context, taskID string) error {
	path := "/api/v1/queues/me/tasks/" + url.PathEscape(taskID) + "/heartbeat"
	return c.do(ctx, http.MethodPost, true, path, nil, nil)
}

// DeleteTask deletes a task by id.
func (c *Client) DeleteTask(ctx context.Context, taskID string) error {
	path := "/api/v1/queues/me/tasks/" + url.PathEscape(taskID)
	return c.do(ctx, http.MethodDelete, true, path, nil, nil)
}

// CreateWorker registers a new worker under the queue.
func (c *Client) CreateWorker(ctx context.Context, req CreateWorkerRequest) (*CreateWorkerResponse, error) {
	var out CreateWorkerResponse
	if err := c.do(ctx, http.MethodPost, true, "/api/v1/queues/me/workers", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListWorkers lists the queue's workers.
func (c *Client) ListWorkers(ctx context.Context) (*ListWorkersResponse, error) {
	var out ListWorkersResponse
	if err := c.do(ctx, http.MethodGet, true, "/api/v1/queues/me/workers", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ReportWorkerStatus transitions a worker's status.
func (c *Client) ReportWorkerStatus(ctx context.Context, workerID string, req ReportWorkerStatusRequest) error {
	path := "/api/v1/queues/me/workers/" + url.PathEscape(workerID) + "/status"
	return c.do(ctx, http.MethodPost, true, path, req, nil)
}

// do executes one HTTP call against the coordinator, optionally
// attaching Basic auth, and decodes a JSON response into out (if out
// is non-nil and the body is non-empty).
func (c *Client) do(ctx context.Context, method string, authenticated bool, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("client: encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("client: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authenticated {
		req.SetBasicAuth(c.queueName, c.password)
	}
	c.opts.applyHeaders(req)

	resp, err := c.opts.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("client: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("client: read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp ErrorResponse
		if jsonErr := json.Unmarshal(respBody, &errResp); jsonErr == nil && errResp.Message != "" {
			return fmt.Errorf("client: %s %s: %s: %s", method, path, errResp.Error, errResp.Message)
		}
		return fmt.Errorf("client: %s %s: unexpected status %d", method, path, resp.StatusCode)
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("client: decode response: %w", err)
	}
	return nil
}
