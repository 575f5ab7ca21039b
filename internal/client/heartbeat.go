// Package client implements the client-side job loop (C6): fetch,
// heartbeat, argument resolution, user-function dispatch, and
// per-worker retry accounting (§4.6).
package client

import (
	"context"
	"sync"
	"time"

	"github.com/luocfprime/labtasker/internal/logger"
	"github.com/luocfprime/labtasker/pkg/client"
)

// Heartbeat sends periodic refreshes for one claimed task, tolerating
// transient network errors rather than aborting (adapted from the
// ticker/stop-channel shape of a Redis-backed worker heartbeat, pinging
// the coordinator's refresh_task_heartbeat endpoint instead).
type Heartbeat struct {
	sdk      *client.Client
	taskID   string
	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewHeartbeat constructs a Heartbeat for taskID, ticking every interval.
func NewHeartbeat(sdk *client.Client, taskID string, interval time.Duration) *Heartbeat {
	return &Heartbeat{
		sdk:      sdk,
		taskID:   taskID,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins sending heartbeats on a background goroutine.
func (h *Heartbeat) Start(ctx context.Context) {
	h.wg.Add(1)
	go h.loop(ctx)
}

// Stop signals the heartbeat loop to exit and waits for it.
func (h *Heartbeat) Stop() {
	close(h.stopCh)
	h.wg.Wait()
}

func (h *Heartbeat) loop(ctx context.Context) {
	defer h.wg.Done()

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	log := logger.WithTask(h.taskID)

	for {
		select {
		case <-ctx.Done():
			return
		case <-h.stopCh:
			return
		case <-ticker.C:
			if err := h.sdk.Heartbeat(ctx, h.taskID); err != nil {
				// Transient network errors don't stop the loop: a missed
				// heartbeat or two is recovered by the next tick, and the
				// sweeper only fails the task once heartbeat_timeout has
				// genuinely elapsed.
				log.Warn().Err(err).Msg("heartbeat failed, will retry")
			}
		}
	}
}
