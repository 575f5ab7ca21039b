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

// CreateWorkerInput carries the user-supplied fields of create_worker.
type CreateWorkerInput struct {
	WorkerName string
	Metadata   model.Value
	MaxRetries int
}

// CreateWorker inserts an ACTIVE worker scoped to queueID.
func (s *Store) CreateWorker(ctx context.Context, queueID string, in CreateWorkerInput) (*model.Worker, error) {
	if err := model.Sanitize(in.Metadata, model.ProtectedFields); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrBadInput, err)
	}
	metadata := in.Metadata
	if metadata.IsNull() {
		metadata = model.Map(map[string]model.Value{})
	}

	now := time.Now().UTC()
	w := &model.Worker{
		WorkerID:     uuid.NewString(),
		QueueID:      queueID,
		WorkerName:   in.WorkerName,
		Metadata:     metadata,
		Status:       model.WorkerActive,
		Retries:      0,
		MaxRetries:   in.MaxRetries,
		CreatedAt:    now,
		LastModified: now,
	}
	if _, err := s.workers.InsertOne(ctx, w); err != nil {
		return nil, fmt.Errorf("store: failed to insert worker: %w", err)
	}
	return w, nil
}

// GetWorker loads a worker scoped to queueID.
func (s *Store) GetWorker(ctx context.Context, queueID, workerID string) (*model.Worker, error) {
	return s.getWorkerTx(ctx, queueID, workerID)
}

func (s *Store) getWorkerTx(ctx context.Context, queueID, workerID string) (*model.Worker, error) {
	var w model.Worker
	err := s.workers.FindOne(ctx, bson.M{"_id": workerID, "queue_id": queueID}).Decode(&w)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("%w: worker %q", ErrNotFound, workerID)
	}
	if err != nil {
		return nil, fmt.Errorf("store: failed to load worker: %w", err)
	}
	return &w, nil
}

// ListWorkers returns every worker scoped to queueID.
func (s *Store) ListWorkers(ctx context.Context, queueID string) ([]*model.Worker, error) {
	cur, err := s.workers.Find(ctx, bson.M{"queue_id": queueID}, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("store: failed to list workers: %w", err)
	}
	defer cur.Close(ctx)

	var out []*model.Worker
	for cur.Next(ctx) {
		var w model.Worker
		if err := cur.Decode(&w); err != nil {
			return nil, fmt.Errorf("store: failed to decode worker: %w", err)
		}
		out = append(out, &w)
	}
	return out, cur.Err()
}

// ReportWorkerStatus applies active/suspended/failed via the FSM.
// Reaching max_retries on a "failed" report promotes the worker to
// CRASHED (§4.1).
func (s *Store) ReportWorkerStatus(ctx context.Context, queueID, workerID string, status model.WorkerStatus) (*model.Worker, error) {
	switch status {
	case model.WorkerActive:
		return s.activateWorker(ctx, queueID, workerID)
	case model.WorkerSuspended:
		return s.suspendWorker(ctx, queueID, workerID)
	case "failed":
		return s.reportWorkerFailureTx(ctx, queueID, workerID)
	default:
		return nil, fmt.Errorf("%w: unknown report status %q", ErrBadInput, status)
	}
}

func (s *Store) activateWorker(ctx context.Context, queueID, workerID string) (*model.Worker, error) {
	w, err := s.getWorkerTx(ctx, queueID, workerID)
	if err != nil {
		return nil, err
	}
	newStatus, err := fsm.Activate(w.Status)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrBadInput, err)
	}
	_, err = s.workers.UpdateOne(ctx,
		bson.M{"_id": workerID, "queue_id": queueID},
		bson.M{"$set": bson.M{"status": newStatus, "retries": 0, "last_modified": time.Now().UTC()}},
	)
	if err != nil {
		return nil, fmt.Errorf("store: failed to activate worker: %w", err)
	}
	return s.getWorkerTx(ctx, queueID, workerID)
}

func (s *Store) suspendWorker(ctx context.Context, queueID, workerID string) (*model.Worker, error) {
	w, err := s.getWorkerTx(ctx, queueID, workerID)
	if err != nil {
		return nil, err
	}
	newStatus, err := fsm.Suspend(w.Status)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrBadInput, err)
	}
	_, err = s.workers.UpdateOne(ctx,
		bson.M{"_id": workerID, "queue_id": queueID},
		bson.M{"$set": bson.M{"status": newStatus, "last_modified": time.Now().UTC()}},
	)
	if err != nil {
		return nil, fmt.Errorf("store: failed to suspend worker: %w", err)
	}
	return s.getWorkerTx(ctx, queueID, workerID)
}

// reportWorkerFailureTx increments a worker's retry counter, promoting
// it to CRASHED when the budget is exhausted. Used both by the public
// "failed" report_worker_status path and internally when a task report
// or sweep sweep charges the owning worker.
func (s *Store) reportWorkerFailureTx(ctx context.Context, queueID, workerID string) (*model.Worker, error) {
	w, err := s.getWorkerTx(ctx, queueID, workerID)
	if err != nil {
		return nil, err
	}
	transition, err := fsm.ReportFailure(w.Status, w.Retries, w.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrBadInput, err)
	}
	_, err = s.workers.UpdateOne(ctx,
		bson.M{"_id": workerID, "queue_id": queueID},
		bson.M{"$set": bson.M{
			"status":        transition.Status,
			"retries":       transition.Retries,
			"last_modified": time.Now().UTC(),
		}},
	)
	if err != nil {
		return nil, fmt.Errorf("store: failed to report worker failure: %w", err)
	}
	return s.getWorkerTx(ctx, queueID, workerID)
}

// DeleteWorker removes a worker, optionally clearing worker_id on its
// tasks (cascade_update, §4.3).
func (s *Store) DeleteWorker(ctx context.Context, queueID, workerID string, cascadeUpdate bool) error {
	_, err := s.WithTransaction(ctx, false, func(sessCtx context.Context) (interface{}, error) {
		res, err := s.workers.DeleteOne(sessCtx, bson.M{"_id": workerID, "queue_id": queueID})
		if err != nil {
			return nil, fmt.Errorf("store: failed to delete worker: %w", err)
		}
		if res.DeletedCount == 0 {
			return nil, fmt.Errorf("%w: worker %q", ErrNotFound, workerID)
		}
		if cascadeUpdate {
			_, err := s.tasks.UpdateMany(sessCtx,
				bson.M{"queue_id": queueID, "worker_id": workerID},
				bson.M{"$set": bson.M{"worker_id": nil}},
			)
			if err != nil {
				return nil, fmt.Errorf("store: failed to clear worker_id on cascade: %w", err)
			}
		}
		return nil, nil
	})
	return err
}
