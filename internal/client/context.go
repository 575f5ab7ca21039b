package client

import (
	"context"

	"github.com/luocfprime/labtasker/internal/model"
)

type taskInfoKey struct{}

// TaskInfo is the ambient per-task state a running job function can
// read back via TaskInfoFromContext, standing in for the original's
// contextvar-based current_task_id()/task_info().
type TaskInfo struct {
	TaskID string
	Args   model.Value
	LogDir string
}

// WithTaskInfo attaches info to ctx so TaskInfoFromContext can recover it
// later in the call chain. Exported so callers building their own job
// functions (e.g. a --cmd driver) can construct a context for testing
// without going through Loop.
func WithTaskInfo(ctx context.Context, info *TaskInfo) context.Context {
	return context.WithValue(ctx, taskInfoKey{}, info)
}

// TaskInfoFromContext returns the currently-running task's info, or nil
// when called outside of Loop's user-function call.
func TaskInfoFromContext(ctx context.Context) *TaskInfo {
	info, _ := ctx.Value(taskInfoKey{}).(*TaskInfo)
	return info
}
