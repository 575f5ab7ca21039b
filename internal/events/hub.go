package events

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/luocfprime/labtasker/internal/logger"
	"github.com/luocfprime/labtasker/internal/metrics"
)

const subscriberBufferSize = 64

// Hub fans transition events out to per-queue subscribers. Delivery is
// best-effort: a disconnected subscriber simply misses events raised
// while it was gone (§4.7). There is no durable event log.
type Hub struct {
	mu          sync.Mutex
	queues      map[string]*queueState
	connections int64 // total subscribers across all queues, for the SSEConnections gauge
}

type queueState struct {
	mu          sync.Mutex
	seq         uint64
	current     *Event
	subscribers map[string]chan *Event
}

// NewHub constructs an empty, ready-to-use Hub.
func NewHub() *Hub {
	return &Hub{queues: make(map[string]*queueState)}
}

func (h *Hub) queue(queueID string) *queueState {
	h.mu.Lock()
	defer h.mu.Unlock()
	qs, ok := h.queues[queueID]
	if !ok {
		qs = &queueState{subscribers: make(map[string]chan *Event)}
		h.queues[queueID] = qs
	}
	return qs
}

// Publish raises a new event for queueID, assigning it the next
// sequence number and delivering it to every currently-subscribed
// client. Subscribers whose buffer is full are skipped rather than
// blocked, matching the "best-effort" contract.
func (h *Hub) Publish(queueID string, eventType EventType, data map[string]interface{}) {
	qs := h.queue(queueID)

	qs.mu.Lock()
	qs.seq++
	evt := &Event{
		Seq:     qs.seq,
		Type:    eventType,
		QueueID: queueID,
		Data:    data,
	}
	qs.current = evt
	recipients := make([]chan *Event, 0, len(qs.subscribers))
	for _, ch := range qs.subscribers {
		recipients = append(recipients, ch)
	}
	qs.mu.Unlock()

	for _, ch := range recipients {
		select {
		case ch <- evt:
			metrics.RecordSSEEventSent(queueID)
		default:
			logger.WithComponent("events").Warn().Str("queue_id", queueID).Msg("subscriber buffer full, dropping event")
		}
	}
}

// Subscribe registers a new client on queueID and returns its assigned
// id, its event channel, and an unsubscribe func the caller must defer.
func (h *Hub) Subscribe(queueID string) (clientID string, ch <-chan *Event, unsubscribe func()) {
	qs := h.queue(queueID)
	id := uuid.NewString()[:8]
	eventCh := make(chan *Event, subscriberBufferSize)

	qs.mu.Lock()
	qs.subscribers[id] = eventCh
	qs.mu.Unlock()
	metrics.SetSSEConnections(float64(atomic.AddInt64(&h.connections, 1)))

	return id, eventCh, func() {
		qs.mu.Lock()
		_, stillSubscribed := qs.subscribers[id]
		if stillSubscribed {
			delete(qs.subscribers, id)
			close(eventCh)
		}
		qs.mu.Unlock()
		if stillSubscribed {
			metrics.SetSSEConnections(float64(atomic.AddInt64(&h.connections, -1)))
		}
	}
}

// Current returns the latest event recorded for queueID, if any.
func (h *Hub) Current(queueID string) *Event {
	qs := h.queue(queueID)
	qs.mu.Lock()
	defer qs.mu.Unlock()
	return qs.current
}
