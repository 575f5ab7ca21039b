// Package fsm implements the pure, in-memory Task and Worker state
// machines. No I/O, no clock reads — callers supply timestamps and
// persist the result themselves, typically inside a storage transaction.
package fsm

import (
	"errors"
	"fmt"

	"github.com/luocfprime/labtasker/internal/model"
)

// ErrInvalidTransition is returned when an event is not permitted from
// the current state.
var ErrInvalidTransition = errors.New("fsm: invalid transition")

// taskTransitions enumerates, for each state, which states it may move
// to and under what event name. Mirrors the table in the task lifecycle
// design: PENDING <-> RUNNING <-> {SUCCESS, FAILED, CANCELLED}, plus the
// universal reset() back to PENDING from any state.
var taskTransitions = map[model.TaskStatus]map[model.TaskStatus]bool{
	model.TaskPending: {
		model.TaskPending:   true, // reset
		model.TaskRunning:   true, // fetch
		model.TaskCancelled: true, // cancel
	},
	model.TaskRunning: {
		model.TaskPending:   true, // retry (fail with budget remaining)
		model.TaskSuccess:   true, // complete
		model.TaskFailed:    true, // fail (budget exhausted)
		model.TaskCancelled: true, // cancel
	},
	model.TaskSuccess: {
		model.TaskPending: true, // reset
	},
	model.TaskFailed: {
		model.TaskPending:   true, // reset
		model.TaskCancelled: true, // cancel
	},
	model.TaskCancelled: {
		model.TaskPending: true, // reset
	},
}

// CanTransition reports whether from -> to is a legal task transition.
func CanTransition(from, to model.TaskStatus) bool {
	targets, ok := taskTransitions[from]
	if !ok {
		return false
	}
	return targets[to]
}

// TaskTransition is the outcome of applying an event to a Task: the new
// status plus the retry counter to persist.
type TaskTransition struct {
	Status  model.TaskStatus
	Retries int
}

// Fetch moves PENDING -> RUNNING.
func Fetch(status model.TaskStatus) (model.TaskStatus, error) {
	if status != model.TaskPending {
		return "", fmt.Errorf("%w: fetch from %s", ErrInvalidTransition, status)
	}
	return model.TaskRunning, nil
}

// Complete moves RUNNING -> SUCCESS.
func Complete(status model.TaskStatus) (model.TaskStatus, error) {
	if status != model.TaskRunning {
		return "", fmt.Errorf("%w: complete from %s", ErrInvalidTransition, status)
	}
	return model.TaskSuccess, nil
}

// Fail increments retries and moves RUNNING -> PENDING (retry budget
// remains) or RUNNING -> FAILED (budget exhausted). Mirrors §4.1's
// fail(): retries < max_retries -> PENDING, else -> FAILED.
func Fail(status model.TaskStatus, retries, maxRetries int) (TaskTransition, error) {
	if status != model.TaskRunning {
		return TaskTransition{}, fmt.Errorf("%w: fail from %s", ErrInvalidTransition, status)
	}
	retries++
	if retries < maxRetries {
		return TaskTransition{Status: model.TaskPending, Retries: retries}, nil
	}
	return TaskTransition{Status: model.TaskFailed, Retries: retries}, nil
}

// Cancel moves PENDING/RUNNING/FAILED -> CANCELLED.
func Cancel(status model.TaskStatus) (model.TaskStatus, error) {
	switch status {
	case model.TaskPending, model.TaskRunning, model.TaskFailed:
		return model.TaskCancelled, nil
	default:
		return "", fmt.Errorf("%w: cancel from %s", ErrInvalidTransition, status)
	}
}

// Reset moves any state -> PENDING with retries zeroed.
func Reset(status model.TaskStatus) (model.TaskStatus, error) {
	if !CanTransition(status, model.TaskPending) {
		return "", fmt.Errorf("%w: reset from %s", ErrInvalidTransition, status)
	}
	return model.TaskPending, nil
}
