// Package models defines the core domain models for the automation engine.
package models

import (
	"sync"
	"time"
)

// WorkflowStatus represents the lifecycle state of a workflow.
type WorkflowStatus string

const (
	WorkflowStatusActive    WorkflowStatus = "active"
	WorkflowStatusPaused    WorkflowStatus = "paused"
	WorkflowStatusInactive  WorkflowStatus = "inactive"
	WorkflowStatusCompleted WorkflowStatus = "completed" // Terminal
	WorkflowStatusFailed    WorkflowStatus = "failed"    // Terminal
)

// Workflow combines one trigger with an ordered action list and run
// statistics. It owns its trigger and actions exclusively; the engine owns
// the workflow. Statistics are serialized through an internal mutex so that
// concurrent executions of the same workflow keep
// RunCount == SuccessCount + FailureCount.
type Workflow struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"        validate:"required"`
	Description string    `json:"description"`
	Trigger     *Trigger  `json:"trigger"     validate:"required"`
	Actions     []*Action `json:"actions"     validate:"required,min=1,dive"`

	Status       WorkflowStatus `json:"status"`
	CreatedAt    time.Time      `json:"created_at"`
	LastRun      *time.Time     `json:"last_run,omitempty"`
	RunCount     int64          `json:"run_count"`
	SuccessCount int64          `json:"success_count"`
	FailureCount int64          `json:"failure_count"`

	mu sync.Mutex
}

// CurrentStatus reads the lifecycle status under the workflow lock.
func (w *Workflow) CurrentStatus() WorkflowStatus {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.Status
}

// SetStatus flips the lifecycle status.
func (w *Workflow) SetStatus(status WorkflowStatus) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.Status = status
}

// LastRunTime returns a copy of the last run timestamp, or nil if the
// workflow has never executed.
func (w *Workflow) LastRunTime() *time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.LastRun == nil {
		return nil
	}

	t := *w.LastRun

	return &t
}

// RecordRun updates LastRun and the run counters for one completed
// (non-skipped) execution.
func (w *Workflow) RecordRun(success bool, at time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.LastRun = &at
	w.RunCount++

	if success {
		w.SuccessCount++
	} else {
		w.FailureCount++
	}
}

// Stats returns the run counters as a consistent snapshot.
func (w *Workflow) Stats() (run, success, failure int64) {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.RunCount, w.SuccessCount, w.FailureCount
}

// Clone returns a deep copy with fresh lock state, suitable for handing to
// callers or a store without sharing mutable internals.
func (w *Workflow) Clone() *Workflow {
	w.mu.Lock()
	defer w.mu.Unlock()

	clone := &Workflow{
		ID:           w.ID,
		Name:         w.Name,
		Description:  w.Description,
		Status:       w.Status,
		CreatedAt:    w.CreatedAt,
		RunCount:     w.RunCount,
		SuccessCount: w.SuccessCount,
		FailureCount: w.FailureCount,
	}

	if w.LastRun != nil {
		t := *w.LastRun
		clone.LastRun = &t
	}

	if w.Trigger != nil {
		trigger := *w.Trigger
		trigger.Config = cloneMap(w.Trigger.Config)
		trigger.Conditions = append([]Condition(nil), w.Trigger.Conditions...)
		clone.Trigger = &trigger
	}

	clone.Actions = make([]*Action, 0, len(w.Actions))
	for _, action := range w.Actions {
		clone.Actions = append(clone.Actions, action.Clone())
	}

	return clone
}
