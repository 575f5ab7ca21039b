package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// QueryCollection runs an arbitrary caller-supplied filter against one
// collection, always scoped to the caller's queue_id. Gated by
// AllowUnsafeBehavior since the filter document is otherwise
// injection-prone (§9 open question).
func (s *Store) QueryCollection(ctx context.Context, collection, queueID string, filter bson.M) ([]bson.M, error) {
	coll, err := s.namedCollection(collection)
	if err != nil {
		return nil, err
	}
	if !s.AllowUnsafeBehavior {
		return nil, fmt.Errorf("%w: query_collection", ErrUnsafeDenied)
	}

	scoped := bson.M{"$and": []interface{}{bson.M{"queue_id": queueID}, filter}}
	cur, err := coll.Find(ctx, scoped)
	if err != nil {
		return nil, fmt.Errorf("store: query_collection failed: %w", err)
	}
	defer cur.Close(ctx)

	var out []bson.M
	for cur.Next(ctx) {
		var doc bson.M
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("store: failed to decode document: %w", err)
		}
		out = append(out, doc)
	}
	return out, cur.Err()
}

// UpdateCollection runs an arbitrary caller-supplied update against
// documents matching filter, scoped to queue_id. Same gating as
// QueryCollection.
func (s *Store) UpdateCollection(ctx context.Context, collection, queueID string, filter, update bson.M) (int64, error) {
	coll, err := s.namedCollection(collection)
	if err != nil {
		return 0, err
	}
	if !s.AllowUnsafeBehavior {
		return 0, fmt.Errorf("%w: update_collection", ErrUnsafeDenied)
	}

	scoped := bson.M{"$and": []interface{}{bson.M{"queue_id": queueID}, filter}}
	res, err := coll.UpdateMany(ctx, scoped, update)
	if err != nil {
		return 0, fmt.Errorf("store: update_collection failed: %w", err)
	}
	return res.ModifiedCount, nil
}

func (s *Store) namedCollection(name string) (*mongo.Collection, error) {
	switch name {
	case "tasks":
		return s.tasks, nil
	case "workers":
		return s.workers, nil
	default:
		return nil, fmt.Errorf("%w: unknown collection %q", ErrBadInput, name)
	}
}
