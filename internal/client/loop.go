package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"runtime/debug"
	"time"

	"github.com/luocfprime/labtasker/internal/config"
	"github.com/luocfprime/labtasker/internal/logger"
	"github.com/luocfprime/labtasker/internal/model"
	"github.com/luocfprime/labtasker/pkg/client"
)

// errNoMoreTasks signals that no task matched the loop's filter; Loop
// treats this as a normal, successful exit rather than an error.
var errNoMoreTasks = errors.New("client: no more matching tasks")

// LoopOptions configures one call to Loop (§4.6's "Configuration
// enumerated" list).
type LoopOptions struct {
	// RequiredFields is unioned with the paths required by the Param
	// list's RequiredParams before being sent as the fetch's structural
	// template.
	RequiredFields model.Value
	// ExtraFilter is an optional query-expression source, transpiled
	// server-side.
	ExtraFilter string
	// WorkerID binds the loop to an existing worker; if empty, a new
	// worker is created and used for the remainder of the loop.
	WorkerID string
	// CreateWorker configures the worker created when WorkerID is empty.
	CreateWorker client.CreateWorkerRequest
	// EtaMax bounds how long a claimed task may run before the sweeper
	// forces a timeout, as a duration string ("1h30m", "30m").
	EtaMax *string
	// HeartbeatInterval is how often the heartbeat sender ticks.
	// Defaults to 30s.
	HeartbeatInterval time.Duration
	// HeartbeatTimeout is a heartbeat timeout window in seconds. Loop
	// does not send it to the coordinator: fetch requests carry no
	// heartbeat timeout, and the sweeper uses each task's own
	// heartbeat_timeout. Defaults to 3x HeartbeatInterval.
	HeartbeatTimeout int
	// LogRoot is the root per-task log directories are written under.
	// Defaults to $LABTASKER_ROOT/logs.
	LogRoot string
	// OnError handles loop-internal errors (database unreachable,
	// coordinator 5xx): logged and the loop continues by default.
	OnError func(error)
}

func (o *LoopOptions) setDefaults() {
	if o.HeartbeatInterval <= 0 {
		o.HeartbeatInterval = 30 * time.Second
	}
	if o.HeartbeatTimeout <= 0 {
		o.HeartbeatTimeout = int(o.HeartbeatInterval.Seconds()) * 3
	}
	if o.LogRoot == "" {
		o.LogRoot = config.LogRoot(config.DefaultRoot())
	}
	if o.OnError == nil {
		o.OnError = func(err error) {
			logger.WithComponent("client").Error().Err(err).Msg("error in task loop")
		}
	}
}

// Loop runs fn repeatedly against sdk's queue: fetch, heartbeat,
// resolve+call, report, repeat, until no task matches (§4.6 run loop).
// fn must be a func; params supplies one entry per fn parameter,
// positionally, via Literal or Require.
func Loop(ctx context.Context, sdk *client.Client, fn interface{}, params []Param, opts LoopOptions) error {
	fnVal := reflect.ValueOf(fn)
	if fnVal.Kind() != reflect.Func {
		return fmt.Errorf("client: Loop fn must be a func, got %s", fnVal.Kind())
	}
	opts.setDefaults()

	workerID := opts.WorkerID
	if workerID == "" {
		wk, err := sdk.CreateWorker(ctx, opts.CreateWorker)
		if err != nil {
			return fmt.Errorf("client: create worker: %w", err)
		}
		workerID = wk.WorkerID
	}

	required := mergeRequiredFields(opts.RequiredFields, requiredPaths(params))
	log := logger.WithComponent("client")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := runOnce(ctx, sdk, fnVal, params, workerID, required, opts)
		if err == nil {
			continue
		}
		if errors.Is(err, errNoMoreTasks) {
			log.Info().Msg("all matching tasks done")
			return nil
		}
		opts.OnError(err)
	}
}

func runOnce(ctx context.Context, sdk *client.Client, fnVal reflect.Value, params []Param, workerID string, required model.Value, opts LoopOptions) error {
	resp, err := sdk.NextTask(ctx, client.FetchTaskRequest{
		WorkerID:       &workerID,
		EtaMax:         opts.EtaMax,
		RequiredFields: required,
		ExtraFilter:    opts.ExtraFilter,
	})
	if err != nil {
		return fmt.Errorf("client: fetch task: %w", err)
	}
	if !resp.Found {
		return errNoMoreTasks
	}
	task := resp.Task

	logDir := filepath.Join(opts.LogRoot, "run", fmt.Sprintf("run-%s_%s", task.TaskID, time.Now().UTC().Format("2006-01-02-15-04-05")))
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return fmt.Errorf("client: create log dir: %w", err)
	}

	info := &TaskInfo{TaskID: task.TaskID, Args: task.Args, LogDir: logDir}
	taskCtx := WithTaskInfo(ctx, info)

	hb := NewHeartbeat(sdk, task.TaskID, opts.HeartbeatInterval)
	hb.Start(taskCtx)
	defer hb.Stop()

	status, summary := runUserFunc(taskCtx, fnVal, params, task.Args)

	if err := finish(taskCtx, sdk, info, status, summary); err != nil {
		return fmt.Errorf("client: finish task %s: %w", task.TaskID, err)
	}
	if status == model.TaskFailed {
		if err := sdk.ReportWorkerStatus(ctx, workerID, client.ReportWorkerStatusRequest{Status: model.WorkerCrashed}); err != nil {
			logger.WithTask(task.TaskID).Warn().Err(err).Msg("failed to report worker failure")
		}
	}
	return nil
}

// runUserFunc resolves params against args and calls fn, capturing a
// panic as a failed status+summary (§4.6 step 6) instead of propagating
// it, since a single bad task must not bring down the loop.
func runUserFunc(ctx context.Context, fnVal reflect.Value, params []Param, args model.Value) (status model.TaskStatus, summary model.Value) {
	status = model.TaskSuccess
	summary = model.Map(map[string]model.Value{})

	defer func() {
		if r := recover(); r != nil {
			status = model.TaskFailed
			summary = model.Map(map[string]model.Value{
				"labtasker_exception": model.Map(map[string]model.Value{
					"type":      model.String(fmt.Sprintf("%T", r)),
					"message":   model.String(fmt.Sprint(r)),
					"traceback": model.String(string(debug.Stack())),
				}),
			})
		}
	}()

	callArgs, err := resolveArgs(fnVal.Type(), params, args, ctx)
	if err != nil {
		return model.TaskFailed, model.Map(map[string]model.Value{
			"labtasker_exception": model.Map(map[string]model.Value{
				"type":    model.String("ArgumentResolutionError"),
				"message": model.String(err.Error()),
			}),
		})
	}

	fnVal.Call(callArgs)
	return status, summary
}

// finish writes status+summary to the task's log dir exactly once
// (a missing-then-created summary.json sentinel) and reports the final
// status to the coordinator; subsequent calls for the same task are
// no-ops, so a subprocess wrapper can call it without double reporting.
func finish(ctx context.Context, sdk *client.Client, info *TaskInfo, status model.TaskStatus, summary model.Value) error {
	summaryPath := filepath.Join(info.LogDir, "summary.json")

	f, err := os.OpenFile(summaryPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil
		}
		return fmt.Errorf("create summary sentinel: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary.ToAny()); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}

	statusPath := filepath.Join(info.LogDir, "status.json")
	statusBody, _ := json.MarshalIndent(map[string]string{"status": string(status)}, "", "  ")
	if err := os.WriteFile(statusPath, statusBody, 0o644); err != nil {
		return fmt.Errorf("write status: %w", err)
	}

	if err := sdk.ReportTaskStatus(ctx, info.TaskID, client.ReportStatusRequest{Status: status, Summary: summary}); err != nil {
		return fmt.Errorf("report task status: %w", err)
	}
	return nil
}

// mergeRequiredFields unions a caller-supplied required_fields template
// with the dotted paths named by the Param list's RequiredParams.
func mergeRequiredFields(base model.Value, paths []string) model.Value {
	leaves := map[string]model.Value{}
	if base.Kind == model.KindMap {
		model.Flatten("", base, leaves)
	}
	for _, p := range paths {
		leaves[p] = model.Null()
	}
	if len(leaves) == 0 {
		return model.Null()
	}

	root := map[string]model.Value{}
	for path := range leaves {
		parts := splitPath(path)
		cur := root
		for i, part := range parts {
			if i == len(parts)-1 {
				cur[part] = model.Null()
				continue
			}
			next, ok := cur[part]
			if !ok || next.Kind != model.KindMap {
				next = model.Map(map[string]model.Value{})
				cur[part] = next
			}
			cur = next.M
		}
	}
	return model.Map(root)
}

func splitPath(path string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(path); i++ {
		if path[i] == '.' {
			parts = append(parts, path[start:i])
			start = i + 1
		}
	}
	parts = append(parts, path[start:])
	return parts
}
