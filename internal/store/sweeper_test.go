package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/luocfprime/labtasker/internal/model"
)

func TestIsTimedOut_Heartbeat(t *testing.T) {
	now := time.Now().UTC()
	stale := now.Add(-200 * time.Second)

	task := &model.Task{
		Status:           model.TaskRunning,
		HeartbeatTimeout: 60,
		LastHeartbeat:    &stale,
	}
	assert.True(t, isTimedOut(task, now))
}

func TestIsTimedOut_FreshHeartbeat(t *testing.T) {
	now := time.Now().UTC()
	recent := now.Add(-10 * time.Second)

	task := &model.Task{
		Status:           model.TaskRunning,
		HeartbeatTimeout: 60,
		LastHeartbeat:    &recent,
	}
	assert.False(t, isTimedOut(task, now))
}

func TestIsTimedOut_TaskTimeout(t *testing.T) {
	now := time.Now().UTC()
	started := now.Add(-200 * time.Second)
	limit := 120

	task := &model.Task{
		Status:      model.TaskRunning,
		StartTime:   &started,
		TaskTimeout: &limit,
	}
	assert.True(t, isTimedOut(task, now))
}

func TestIsTimedOut_NoWatchdogsSet(t *testing.T) {
	now := time.Now().UTC()
	task := &model.Task{Status: model.TaskRunning}
	assert.False(t, isTimedOut(task, now))
}

func TestNewSweeper(t *testing.T) {
	sw := NewSweeper(nil, 30*time.Second)
	assert.NotNil(t, sw)
	assert.Equal(t, 30*time.Second, sw.interval)
	assert.NotNil(t, sw.stop)
	assert.NotNil(t, sw.done)
}
