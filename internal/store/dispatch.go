package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/luocfprime/labtasker/internal/fsm"
	"github.com/luocfprime/labtasker/internal/model"
)

// FetchTaskInput carries fetch_task's parameters (§4.4).
type FetchTaskInput struct {
	WorkerID *string
	// EtaMaxSeconds is the task_timeout to assign, already parsed from
	// the request's duration string and validated > 0 by the handler.
	EtaMaxSeconds  *int
	RequiredFields model.Value // nested template, KindMap or KindNull
	ExtraFilter    bson.M      // already-lowered transpiler output, or nil
	TrackHeartbeat bool
}

// FetchTask implements the dispatch algorithm: priority-ordered,
// FIFO-tiebroken scan for a PENDING task matching required_fields and
// extra_filter, atomically promoted to RUNNING. Returns (nil, nil) when
// no candidate matches — this is a normal "not found", not an error.
func (s *Store) FetchTask(ctx context.Context, queueID string, in FetchTaskInput) (*model.Task, error) {
	if in.WorkerID != nil {
		w, err := s.getWorkerTx(ctx, queueID, *in.WorkerID)
		if err != nil {
			return nil, err
		}
		if w.Status != model.WorkerActive {
			return nil, fmt.Errorf("%w: worker %q is %s", ErrForbidden, *in.WorkerID, w.Status)
		}
	}

	filter := bson.M{
		"queue_id": queueID,
		"status":   model.TaskPending,
	}
	existence := requiredFieldsExistence(in.RequiredFields)
	for field, exists := range existence {
		filter[field] = bson.M{"$exists": exists}
	}
	if in.ExtraFilter != nil {
		filter["$and"] = []interface{}{in.ExtraFilter}
	}

	opts := options.Find().SetSort(bson.D{{Key: "priority", Value: -1}, {Key: "created_at", Value: 1}})
	cur, err := s.tasks.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("store: failed to scan candidates: %w", err)
	}
	defer cur.Close(ctx)

	needsShapeCheck := in.RequiredFields.Kind == model.KindMap && len(in.RequiredFields.M) > 0

	for cur.Next(ctx) {
		var candidate model.Task
		if err := cur.Decode(&candidate); err != nil {
			return nil, fmt.Errorf("store: failed to decode candidate: %w", err)
		}
		if needsShapeCheck && !model.MatchShape(in.RequiredFields, candidate.Args) {
			continue
		}

		now := time.Now().UTC()
		update := bson.M{
			"status":        model.TaskRunning,
			"start_time":    now,
			"last_modified": now,
		}
		if in.TrackHeartbeat {
			update["last_heartbeat"] = now
		}
		if in.WorkerID != nil {
			update["worker_id"] = *in.WorkerID
		}
		if in.EtaMaxSeconds != nil {
			update["task_timeout"] = *in.EtaMaxSeconds
		}

		res := s.tasks.FindOneAndUpdate(ctx,
			bson.M{"_id": candidate.TaskID, "status": model.TaskPending},
			bson.M{"$set": update},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		)
		var promoted model.Task
		if err := res.Decode(&promoted); err != nil {
			if err == mongo.ErrNoDocuments {
				// Lost the race to another fetcher; try the next candidate.
				continue
			}
			return nil, fmt.Errorf("store: failed to promote candidate: %w", err)
		}
		return &promoted, nil
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("store: cursor error while scanning candidates: %w", err)
	}
	return nil, nil
}

// requiredFieldsExistence flattens a required_fields template into
// "args.<path>" -> true existence guards (§4.4 step 2).
func requiredFieldsExistence(template model.Value) map[string]bool {
	if template.Kind != model.KindMap || len(template.M) == 0 {
		return nil
	}
	leaves := map[string]model.Value{}
	model.Flatten("args", template, leaves)
	out := make(map[string]bool, len(leaves))
	for path := range leaves {
		out[path] = true
	}
	return out
}

// failTaskForTimeout applies the sweeper's forced-failure path to one
// task (§4.5): runs fail(), writes the timeout summary, and charges the
// owning worker if any.
func (s *Store) failTaskForTimeout(ctx context.Context, t *model.Task) error {
	_, err := s.WithTransaction(ctx, false, func(sessCtx context.Context) (interface{}, error) {
		fresh, err := s.getTaskTx(sessCtx, t.QueueID, t.TaskID)
		if err != nil {
			return nil, err
		}
		if fresh.Status != model.TaskRunning {
			return nil, nil // already moved on; nothing to do
		}

		transition, err := fsm.Fail(fresh.Status, fresh.Retries, fresh.MaxRetries)
		if err != nil {
			return nil, err
		}
		summary := model.Map(model.DeepMerge(fresh.Summary.M, map[string]model.Value{
			"labtasker_error": model.String("heartbeat or execution timeout"),
		}))
		update := bson.M{
			"status":        transition.Status,
			"retries":       transition.Retries,
			"summary":       summary,
			"last_modified": time.Now().UTC(),
		}
		if _, err := s.tasks.UpdateOne(sessCtx, bson.M{"_id": fresh.TaskID}, bson.M{"$set": update}); err != nil {
			return nil, fmt.Errorf("store: failed to update timed-out task: %w", err)
		}
		if fresh.WorkerID != nil {
			if _, err := s.reportWorkerFailureTx(sessCtx, fresh.QueueID, *fresh.WorkerID); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	return err
}
