package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/luocfprime/labtasker/internal/logger"
	"github.com/luocfprime/labtasker/internal/metrics"
	"github.com/luocfprime/labtasker/internal/model"
)

// Sweeper periodically forces timeouts on abandoned RUNNING tasks
// (§4.5). One instance runs per coordinator process.
type Sweeper struct {
	store    *Store
	interval time.Duration
	stop     chan struct{}
	done     chan struct{}
}

// NewSweeper constructs a sweeper bound to store, waking every interval.
func NewSweeper(store *Store, interval time.Duration) *Sweeper {
	return &Sweeper{
		store:    store,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Run blocks, sweeping on a ticker until Stop is called.
func (sw *Sweeper) Run(ctx context.Context) {
	defer close(sw.done)
	ticker := time.NewTicker(sw.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-sw.stop:
			return
		case <-ticker.C:
			sw.sweepOnce(ctx)
		}
	}
}

// Stop signals the sweeper to exit and blocks until it has.
func (sw *Sweeper) Stop() {
	close(sw.stop)
	<-sw.done
}

func (sw *Sweeper) sweepOnce(ctx context.Context) {
	start := time.Now()
	defer func() { metrics.RecordSweepDuration(time.Since(start).Seconds()) }()

	log := logger.WithComponent("sweeper")
	candidates, err := sw.store.runningTasksWithWatchdogs(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to scan running tasks")
		return
	}

	now := time.Now().UTC()
	for _, t := range candidates {
		if !isTimedOut(t, now) {
			continue
		}
		// Each task is processed in isolation: one failure here must
		// not abort the sweep of the others.
		if err := sw.store.failTaskForTimeout(ctx, t); err != nil {
			log.Error().Err(err).Str("task_id", t.TaskID).Msg("failed to apply timeout")
			continue
		}
		metrics.RecordSweepTimeout(t.QueueID)
	}
}

func isTimedOut(t *model.Task, now time.Time) bool {
	if t.LastHeartbeat != nil && t.HeartbeatTimeout > 0 {
		if now.Sub(*t.LastHeartbeat) > time.Duration(t.HeartbeatTimeout)*time.Second {
			return true
		}
	}
	if t.StartTime != nil && t.TaskTimeout != nil {
		if now.Sub(*t.StartTime) > time.Duration(*t.TaskTimeout)*time.Second {
			return true
		}
	}
	return false
}

// runningTasksWithWatchdogs loads every RUNNING task that has either a
// heartbeat or a task_timeout watchdog set, across all queues.
func (s *Store) runningTasksWithWatchdogs(ctx context.Context) ([]*model.Task, error) {
	filter := bson.M{
		"status": model.TaskRunning,
		"$or": []bson.M{
			{"last_heartbeat": bson.M{"$exists": true, "$ne": nil}},
			{"start_time": bson.M{"$exists": true, "$ne": nil}, "task_timeout": bson.M{"$exists": true, "$ne": nil}},
		},
	}
	cur, err := s.tasks.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []*model.Task
	for cur.Next(ctx) {
		var t model.Task
		if err := cur.Decode(&t); err != nil {
			return nil, err
		}
		out = append(out, &t)
	}
	return out, cur.Err()
}
