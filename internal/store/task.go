package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/luocfprime/labtasker/internal/fsm"
	"github.com/luocfprime/labtasker/internal/model"
)

// CreateTaskInput carries the user-supplied fields of create_task.
type CreateTaskInput struct {
	TaskName         string
	Args             model.Value // must be KindMap or KindNull
	Metadata         model.Value
	Cmd              model.StringOrList
	Priority         model.Priority
	MaxRetries       int
	HeartbeatTimeout int
	TaskTimeout      *int
}

// CreateTask inserts a PENDING task scoped to queueID.
func (s *Store) CreateTask(ctx context.Context, queueID string, in CreateTaskInput) (*model.Task, error) {
	if in.Args.Kind != model.KindMap && in.Args.Kind != model.KindNull {
		return nil, fmt.Errorf("%w: args must be a map or null", ErrBadInput)
	}
	if err := model.Sanitize(in.Args, model.ProtectedFields); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrBadInput, err)
	}
	if err := model.Sanitize(in.Metadata, model.ProtectedFields); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrBadInput, err)
	}
	if in.MaxRetries < 0 {
		return nil, fmt.Errorf("%w: max_retries must be >= 0", ErrBadInput)
	}

	metadata := in.Metadata
	if metadata.IsNull() {
		metadata = model.Map(map[string]model.Value{})
	}
	args := in.Args
	if args.IsNull() {
		args = model.Map(map[string]model.Value{})
	}

	now := time.Now().UTC()
	t := &model.Task{
		TaskID:           uuid.NewString(),
		QueueID:          queueID,
		TaskName:         in.TaskName,
		Args:             args,
		Metadata:         metadata,
		Cmd:              in.Cmd,
		Priority:         in.Priority,
		Status:           model.TaskPending,
		Retries:          0,
		MaxRetries:       in.MaxRetries,
		HeartbeatTimeout: in.HeartbeatTimeout,
		TaskTimeout:      in.TaskTimeout,
		CreatedAt:        now,
		LastModified:     now,
		Summary:          model.Map(map[string]model.Value{}),
	}

	if _, err := s.tasks.InsertOne(ctx, t); err != nil {
		return nil, fmt.Errorf("store: failed to insert task: %w", err)
	}
	return t, nil
}

// GetTask loads a task scoped to queueID; queue mismatch is treated as
// not-found, enforcing the queue-scoping invariant (§8 property 3).
func (s *Store) GetTask(ctx context.Context, queueID, taskID string) (*model.Task, error) {
	var t model.Task
	err := s.tasks.FindOne(ctx, bson.M{"_id": taskID, "queue_id": queueID}).Decode(&t)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("%w: task %q", ErrNotFound, taskID)
	}
	if err != nil {
		return nil, fmt.Errorf("store: failed to load task: %w", err)
	}
	return &t, nil
}

// ListTasks returns tasks scoped to queueID in submission order
// (created_at ascending), paginated by offset/limit (§6.1, S2).
func (s *Store) ListTasks(ctx context.Context, queueID string, offset, limit int64) ([]*model.Task, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}).SetSkip(offset).SetLimit(limit)
	cur, err := s.tasks.Find(ctx, bson.M{"queue_id": queueID}, opts)
	if err != nil {
		return nil, fmt.Errorf("store: failed to list tasks: %w", err)
	}
	defer cur.Close(ctx)

	var out []*model.Task
	for cur.Next(ctx) {
		var t model.Task
		if err := cur.Decode(&t); err != nil {
			return nil, fmt.Errorf("store: failed to decode task: %w", err)
		}
		out = append(out, &t)
	}
	return out, cur.Err()
}

// DeleteTask removes a task scoped to queueID.
func (s *Store) DeleteTask(ctx context.Context, queueID, taskID string) error {
	res, err := s.tasks.DeleteOne(ctx, bson.M{"_id": taskID, "queue_id": queueID})
	if err != nil {
		return fmt.Errorf("store: failed to delete task: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%w: task %q", ErrNotFound, taskID)
	}
	return nil
}

// ReportTaskStatus applies success/failed/cancelled via the FSM and,
// on failure, charges the owning worker's retry budget (§4.3).
func (s *Store) ReportTaskStatus(ctx context.Context, queueID, taskID string, status model.TaskStatus, summary model.Value) (*model.Task, error) {
	if err := model.Sanitize(summary, model.ProtectedFields); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrBadInput, err)
	}

	result, err := s.WithTransaction(ctx, false, func(sessCtx context.Context) (interface{}, error) {
		t, err := s.getTaskTx(sessCtx, queueID, taskID)
		if err != nil {
			return nil, err
		}

		mergedSummary := model.Map(model.DeepMerge(t.Summary.M, summary.M))
		update := bson.M{
			"summary":       mergedSummary,
			"last_modified": time.Now().UTC(),
		}

		switch status {
		case model.TaskSuccess:
			newStatus, err := fsm.Complete(t.Status)
			if err != nil {
				return nil, fmt.Errorf("%w: %s", ErrBadInput, err)
			}
			update["status"] = newStatus
		case model.TaskFailed:
			transition, err := fsm.Fail(t.Status, t.Retries, t.MaxRetries)
			if err != nil {
				return nil, fmt.Errorf("%w: %s", ErrBadInput, err)
			}
			update["status"] = transition.Status
			update["retries"] = transition.Retries
			if t.WorkerID != nil {
				if _, err := s.reportWorkerFailureTx(sessCtx, queueID, *t.WorkerID); err != nil {
					return nil, err
				}
			}
		case model.TaskCancelled:
			newStatus, err := fsm.Cancel(t.Status)
			if err != nil {
				return nil, fmt.Errorf("%w: %s", ErrBadInput, err)
			}
			update["status"] = newStatus
		default:
			return nil, fmt.Errorf("%w: unknown report status %q", ErrBadInput, status)
		}

		res, err := s.tasks.UpdateOne(sessCtx, bson.M{"_id": taskID, "queue_id": queueID}, bson.M{"$set": update})
		if err != nil {
			return nil, fmt.Errorf("store: failed to update task: %w", err)
		}
		if res.ModifiedCount == 0 {
			return nil, fmt.Errorf("store: task %q was not modified", taskID)
		}
		return s.getTaskTx(sessCtx, queueID, taskID)
	})
	if err != nil {
		return nil, err
	}
	return result.(*model.Task), nil
}

func (s *Store) getTaskTx(ctx context.Context, queueID, taskID string) (*model.Task, error) {
	var t model.Task
	err := s.tasks.FindOne(ctx, bson.M{"_id": taskID, "queue_id": queueID}).Decode(&t)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("%w: task %q", ErrNotFound, taskID)
	}
	if err != nil {
		return nil, fmt.Errorf("store: failed to load task: %w", err)
	}
	return &t, nil
}

// RefreshTaskHeartbeat sets last_heartbeat = now. It performs no FSM
// transition and is idempotent (§4.5).
func (s *Store) RefreshTaskHeartbeat(ctx context.Context, queueID, taskID string) error {
	now := time.Now().UTC()
	res, err := s.tasks.UpdateOne(ctx,
		bson.M{"_id": taskID, "queue_id": queueID},
		bson.M{"$set": bson.M{"last_heartbeat": now, "last_modified": now}},
	)
	if err != nil {
		return fmt.Errorf("store: failed to refresh heartbeat: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: task %q", ErrNotFound, taskID)
	}
	return nil
}

// ResetTask moves a task back to PENDING with retries zeroed, from any
// state (§4.1 reset()).
func (s *Store) ResetTask(ctx context.Context, queueID, taskID string) (*model.Task, error) {
	t, err := s.GetTask(ctx, queueID, taskID)
	if err != nil {
		return nil, err
	}
	if _, err := fsm.Reset(t.Status); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrBadInput, err)
	}
	now := time.Now().UTC()
	_, err = s.tasks.UpdateOne(ctx,
		bson.M{"_id": taskID, "queue_id": queueID},
		bson.M{"$set": bson.M{
			"status":        model.TaskPending,
			"retries":       0,
			"last_modified": now,
		}},
	)
	if err != nil {
		return nil, fmt.Errorf("store: failed to reset task: %w", err)
	}
	return s.GetTask(ctx, queueID, taskID)
}

// CancelTask moves a non-terminal task to CANCELLED.
func (s *Store) CancelTask(ctx context.Context, queueID, taskID string) (*model.Task, error) {
	t, err := s.GetTask(ctx, queueID, taskID)
	if err != nil {
		return nil, err
	}
	newStatus, err := fsm.Cancel(t.Status)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrBadInput, err)
	}
	now := time.Now().UTC()
	_, err = s.tasks.UpdateOne(ctx,
		bson.M{"_id": taskID, "queue_id": queueID},
		bson.M{"$set": bson.M{"status": newStatus, "last_modified": now}},
	)
	if err != nil {
		return nil, fmt.Errorf("store: failed to cancel task: %w", err)
	}
	return s.GetTask(ctx, queueID, taskID)
}
