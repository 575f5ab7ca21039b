package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishDeliversToSubscriber(t *testing.T) {
	hub := NewHub()
	_, ch, unsubscribe := hub.Subscribe("queue-1")
	defer unsubscribe()

	hub.Publish("queue-1", EventTaskSubmitted, TaskEventData("t1", "pending", nil))

	select {
	case evt := <-ch:
		assert.Equal(t, EventTaskSubmitted, evt.Type)
		assert.Equal(t, uint64(1), evt.Seq)
		assert.Equal(t, "t1", evt.Data["task_id"])
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestSequenceIsMonotonicPerQueue(t *testing.T) {
	hub := NewHub()
	_, ch, unsubscribe := hub.Subscribe("queue-1")
	defer unsubscribe()

	hub.Publish("queue-1", EventTaskSubmitted, nil)
	hub.Publish("queue-1", EventTaskStarted, nil)

	first := <-ch
	second := <-ch
	assert.Equal(t, uint64(1), first.Seq)
	assert.Equal(t, uint64(2), second.Seq)
}

func TestQueuesAreIsolated(t *testing.T) {
	hub := NewHub()
	_, chA, unsubA := hub.Subscribe("queue-a")
	defer unsubA()
	_, chB, unsubB := hub.Subscribe("queue-b")
	defer unsubB()

	hub.Publish("queue-a", EventTaskSubmitted, nil)

	select {
	case <-chA:
	case <-time.After(time.Second):
		t.Fatal("queue-a should have received the event")
	}

	select {
	case <-chB:
		t.Fatal("queue-b should not have received queue-a's event")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	hub := NewHub()
	_, ch, unsubscribe := hub.Subscribe("queue-1")
	unsubscribe()

	_, ok := <-ch
	assert.False(t, ok)
}

func TestCurrentReturnsLatestEvent(t *testing.T) {
	hub := NewHub()
	require.Nil(t, hub.Current("queue-1"))

	hub.Publish("queue-1", EventTaskSubmitted, nil)
	hub.Publish("queue-1", EventTaskCompleted, nil)

	current := hub.Current("queue-1")
	require.NotNil(t, current)
	assert.Equal(t, EventTaskCompleted, current.Type)
	assert.Equal(t, uint64(2), current.Seq)
}
