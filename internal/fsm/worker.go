package fsm

import (
	"fmt"

	"github.com/luocfprime/labtasker/internal/model"
)

var workerTransitions = map[model.WorkerStatus]map[model.WorkerStatus]bool{
	model.WorkerActive: {
		model.WorkerSuspended: true, // manual
		model.WorkerCrashed:   true, // automatic, retries >= max_retries
	},
	model.WorkerSuspended: {
		model.WorkerActive: true, // manual reactivation
	},
	model.WorkerCrashed: {
		model.WorkerActive: true, // manual reactivation only
	},
}

// CanTransitionWorker reports whether from -> to is a legal worker
// transition.
func CanTransitionWorker(from, to model.WorkerStatus) bool {
	targets, ok := workerTransitions[from]
	if !ok {
		return false
	}
	return targets[to]
}

// WorkerTransition is the outcome of reporting a worker failure.
type WorkerTransition struct {
	Status  model.WorkerStatus
	Retries int
}

// Suspend moves ACTIVE -> SUSPENDED.
func Suspend(status model.WorkerStatus) (model.WorkerStatus, error) {
	if status != model.WorkerActive {
		return "", fmt.Errorf("%w: suspend from %s", ErrInvalidTransition, status)
	}
	return model.WorkerSuspended, nil
}

// Activate moves SUSPENDED/CRASHED -> ACTIVE, manually.
func Activate(status model.WorkerStatus) (model.WorkerStatus, error) {
	if !CanTransitionWorker(status, model.WorkerActive) {
		return "", fmt.Errorf("%w: activate from %s", ErrInvalidTransition, status)
	}
	return model.WorkerActive, nil
}

// ReportFailure increments the worker's retry counter; reaching
// max_retries promotes ACTIVE -> CRASHED. Only meaningful from ACTIVE.
func ReportFailure(status model.WorkerStatus, retries, maxRetries int) (WorkerTransition, error) {
	if status != model.WorkerActive {
		return WorkerTransition{}, fmt.Errorf("%w: report failure from %s", ErrInvalidTransition, status)
	}
	retries++
	if retries >= maxRetries {
		return WorkerTransition{Status: model.WorkerCrashed, Retries: retries}, nil
	}
	return WorkerTransition{Status: model.WorkerActive, Retries: retries}, nil
}
