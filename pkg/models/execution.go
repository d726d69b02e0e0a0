package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ActionResult is the structured outcome of executing one action.
type ActionResult struct {
	ActionID         string         `json:"action_id,omitempty"`
	Kind             ActionKind     `json:"kind"`
	Success          bool           `json:"success"`
	Output           map[string]any `json:"output,omitempty"`
	Error            string         `json:"error,omitempty"`
	RetriesExhausted bool           `json:"retries_exhausted,omitempty"`
	Attempts         int            `json:"attempts"`
}

// ExecutionResult is returned from every workflow execution attempt.
// Skipped means the trigger did not fire; Message is set when the workflow
// was not active. Neither of those outcomes mutates statistics or history.
type ExecutionResult struct {
	ExecutionID     string         `json:"execution_id"`
	WorkflowID      string         `json:"workflow_id"`
	Success         bool           `json:"success"`
	Skipped         bool           `json:"skipped,omitempty"`
	Message         string         `json:"message,omitempty"`
	Error           string         `json:"error,omitempty"`
	ActionResults   []ActionResult `json:"action_results,omitempty"`
	DurationSeconds float64        `json:"execution_time_seconds"`
}

// Recorded reports whether this result corresponds to a real execution,
// one that mutated statistics and belongs in history.
func (r ExecutionResult) Recorded() bool {
	return !r.Skipped && r.Message == ""
}

// ExecutionRecord is the immutable history entry for one completed
// (non-skipped) execution. Records are append-only and never mutated.
type ExecutionRecord struct {
	ExecutionID     string         `json:"execution_id"`
	WorkflowID      string         `json:"workflow_id"`
	ExecutedAt      time.Time      `json:"execution_time"`
	Success         bool           `json:"success"`
	ActionResults   []ActionResult `json:"action_results,omitempty"`
	DurationSeconds float64        `json:"execution_time_seconds"`
}

// NewExecutionID generates a unique execution identifier.
func NewExecutionID() string {
	return fmt.Sprintf("exec-%s", uuid.New().String()[:8])
}
