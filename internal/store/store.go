// Package store implements the transactional storage engine (C3): the
// MongoDB-backed Queue/Task/Worker collections, dispatch (C4.4), and
// the timeout sweeper body (C4.5).
package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/luocfprime/labtasker/internal/config"
	"github.com/luocfprime/labtasker/internal/logger"
)

// Store wraps a MongoDB database and the three entity collections.
type Store struct {
	client  *mongo.Client
	db      *mongo.Database
	queues  *mongo.Collection
	tasks   *mongo.Collection
	workers *mongo.Collection

	security config.SecurityConfig

	// AllowUnsafeBehavior gates query_collection/update_collection.
	AllowUnsafeBehavior bool
}

// New connects to MongoDB, verifies the connection, and ensures indexes.
func New(ctx context.Context, mongoCfg *config.MongoConfig, security config.SecurityConfig, allowUnsafe bool) (*Store, error) {
	connectCtx, cancel := context.WithTimeout(ctx, mongoCfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(options.Client().ApplyURI(mongoCfg.URI))
	if err != nil {
		return nil, fmt.Errorf("store: failed to connect to mongo: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		return nil, fmt.Errorf("store: failed to ping mongo: %w", err)
	}

	db := client.Database(mongoCfg.Database)
	s := &Store{
		client:              client,
		db:                  db,
		queues:              db.Collection("queues"),
		tasks:               db.Collection("tasks"),
		workers:             db.Collection("workers"),
		security:            security,
		AllowUnsafeBehavior: allowUnsafe,
	}

	if err := s.ensureIndexes(ctx); err != nil {
		return nil, err
	}

	logger.WithComponent("store").Info().Str("database", mongoCfg.Database).Msg("connected to mongo")
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.queues.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "queue_name", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("store: failed to create queue index: %w", err)
	}

	taskIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "queue_id", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "priority", Value: -1}}},
		{Keys: bson.D{{Key: "created_at", Value: 1}}},
	}
	if _, err := s.tasks.Indexes().CreateMany(ctx, taskIndexes); err != nil {
		return fmt.Errorf("store: failed to create task indexes: %w", err)
	}

	workerIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "queue_id", Value: 1}}},
		{Keys: bson.D{{Key: "worker_name", Value: 1}}},
	}
	if _, err := s.workers.Indexes().CreateMany(ctx, workerIndexes); err != nil {
		return fmt.Errorf("store: failed to create worker indexes: %w", err)
	}
	return nil
}

// Close disconnects the underlying client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Ping reports whether the database is reachable, for /health.
func (s *Store) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.client.Ping(pingCtx, nil)
}

type txnKey struct{}

// WithTransaction opens a transaction and runs fn inside it, committing
// on success and aborting on error. Transactions are non-reentrant by
// default: a nested WithTransaction call fails unless allowNesting is
// true, enforced via a context-local flag (§4.3, §5).
func (s *Store) WithTransaction(ctx context.Context, allowNesting bool, fn func(sessCtx context.Context) (interface{}, error)) (interface{}, error) {
	if ctx.Value(txnKey{}) != nil && !allowNesting {
		return nil, fmt.Errorf("store: nested transaction not permitted")
	}

	sess, err := s.client.StartSession()
	if err != nil {
		return nil, fmt.Errorf("store: failed to start session: %w", err)
	}
	defer sess.EndSession(ctx)

	markedCtx := context.WithValue(ctx, txnKey{}, true)

	result, err := sess.WithTransaction(markedCtx, func(sessCtx context.Context) (interface{}, error) {
		return fn(sessCtx)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
