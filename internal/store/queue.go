package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/luocfprime/labtasker/internal/model"
)

// CreateQueue inserts a new Queue with a hashed password. Name
// uniqueness is enforced by the unique index on queue_name.
func (s *Store) CreateQueue(ctx context.Context, name, password string, metadata model.Value) (*model.Queue, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: queue name is required", ErrBadInput)
	}
	if err := model.Sanitize(metadata, model.ProtectedFields); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrBadInput, err)
	}
	passwordHash, err := s.hashPassword(password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	q := &model.Queue{
		QueueID:      uuid.NewString(),
		QueueName:    name,
		PasswordHash: passwordHash,
		Metadata:     metadata,
		CreatedAt:    now,
		LastModified: now,
	}

	_, err = s.queues.InsertOne(ctx, q)
	if mongo.IsDuplicateKeyError(err) {
		return nil, fmt.Errorf("%w: queue name %q already exists", ErrConflict, name)
	}
	if err != nil {
		return nil, fmt.Errorf("store: failed to insert queue: %w", err)
	}
	return q, nil
}

// GetQueueByID loads a queue by its id.
func (s *Store) GetQueueByID(ctx context.Context, queueID string) (*model.Queue, error) {
	var q model.Queue
	err := s.queues.FindOne(ctx, bson.M{"_id": queueID}).Decode(&q)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("%w: queue %q", ErrNotFound, queueID)
	}
	if err != nil {
		return nil, fmt.Errorf("store: failed to load queue: %w", err)
	}
	return &q, nil
}

// GetQueueByName loads a queue by its unique name.
func (s *Store) GetQueueByName(ctx context.Context, name string) (*model.Queue, error) {
	var q model.Queue
	err := s.queues.FindOne(ctx, bson.M{"queue_name": name}).Decode(&q)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("%w: queue %q", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("store: failed to load queue: %w", err)
	}
	return &q, nil
}

// Authenticate resolves a queue by name, falling back to queue id, and
// verifies the password, backing HTTP Basic Auth at the API boundary
// (§6.1).
func (s *Store) Authenticate(ctx context.Context, name, password string) (*model.Queue, error) {
	q, err := s.GetQueueByName(ctx, name)
	if err != nil {
		q, err = s.GetQueueByID(ctx, name)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: unknown queue or bad password", ErrUnauthenticated)
	}
	if !s.checkPassword(q.PasswordHash, password) {
		return nil, fmt.Errorf("%w: unknown queue or bad password", ErrUnauthenticated)
	}
	return q, nil
}

// UpdateQueueInput carries the optional fields of an update_queue call.
type UpdateQueueInput struct {
	NewName     *string
	NewPassword *string
	Metadata    model.Value // KindMap or KindNull; merged leaf-by-leaf
}

// UpdateQueue renames, rehashes, and/or deep-merges metadata on a
// queue. Rename is rejected if the target name is already taken.
func (s *Store) UpdateQueue(ctx context.Context, queueID string, in UpdateQueueInput) (*model.Queue, error) {
	q, err := s.GetQueueByID(ctx, queueID)
	if err != nil {
		return nil, err
	}

	update := bson.M{}
	if in.NewName != nil && *in.NewName != q.QueueName {
		existing, err := s.GetQueueByName(ctx, *in.NewName)
		if err == nil && existing.QueueID != queueID {
			return nil, fmt.Errorf("%w: queue name %q already exists", ErrConflict, *in.NewName)
		}
		update["queue_name"] = *in.NewName
	}
	if in.NewPassword != nil {
		hash, err := s.hashPassword(*in.NewPassword)
		if err != nil {
			return nil, err
		}
		update["password_hash"] = hash
	}
	if !in.Metadata.IsNull() {
		if err := model.Sanitize(in.Metadata, model.ProtectedFields); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrBadInput, err)
		}
		merged := model.DeepMerge(q.Metadata.M, in.Metadata.M)
		update["metadata"] = model.Map(merged)
	}
	if len(update) == 0 {
		return q, nil
	}
	update["last_modified"] = time.Now().UTC()

	_, err = s.queues.UpdateOne(ctx, bson.M{"_id": queueID}, bson.M{"$set": update})
	if err != nil {
		return nil, fmt.Errorf("store: failed to update queue: %w", err)
	}
	return s.GetQueueByID(ctx, queueID)
}

// DeleteQueue removes a queue, optionally cascading to its tasks and
// workers.
func (s *Store) DeleteQueue(ctx context.Context, queueID string, cascade bool) error {
	_, err := s.WithTransaction(ctx, false, func(sessCtx context.Context) (interface{}, error) {
		res, err := s.queues.DeleteOne(sessCtx, bson.M{"_id": queueID})
		if err != nil {
			return nil, fmt.Errorf("store: failed to delete queue: %w", err)
		}
		if res.DeletedCount == 0 {
			return nil, fmt.Errorf("%w: queue %q", ErrNotFound, queueID)
		}
		if cascade {
			if _, err := s.tasks.DeleteMany(sessCtx, bson.M{"queue_id": queueID}); err != nil {
				return nil, fmt.Errorf("store: failed to cascade-delete tasks: %w", err)
			}
			if _, err := s.workers.DeleteMany(sessCtx, bson.M{"queue_id": queueID}); err != nil {
				return nil, fmt.Errorf("store: failed to cascade-delete workers: %w", err)
			}
		}
		return nil, nil
	})
	return err
}
