// Package events defines the lifecycle notifications the engine publishes.
package events

import (
	"time"
)

type EventType string

const Topic = "estateflow.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	WorkflowCreatedEvent EventType = "workflow.created"
	WorkflowDeletedEvent EventType = "workflow.deleted"
	WorkflowPausedEvent  EventType = "workflow.paused"
	WorkflowResumedEvent EventType = "workflow.resumed"

	ExecutionCompletedEvent EventType = "execution.completed"
	ExecutionFailedEvent    EventType = "execution.failed"

	EngineStartedEvent EventType = "engine.started"
	EngineStoppedEvent EventType = "engine.stopped"
)

// Event is implemented by every published payload.
type Event interface {
	GetType() EventType
}

type BaseEvent struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
	WorkflowID string    `json:"workflow_id,omitempty"`
}

type WorkflowCreated struct {
	BaseEvent

	Name        string `json:"name"`
	TriggerKind string `json:"trigger_kind"`
	ActionCount int    `json:"action_count"`
}

func (e WorkflowCreated) GetType() EventType { return WorkflowCreatedEvent }

type WorkflowDeleted struct {
	BaseEvent
}

func (e WorkflowDeleted) GetType() EventType { return WorkflowDeletedEvent }

type WorkflowPaused struct {
	BaseEvent
}

func (e WorkflowPaused) GetType() EventType { return WorkflowPausedEvent }

type WorkflowResumed struct {
	BaseEvent
}

func (e WorkflowResumed) GetType() EventType { return WorkflowResumedEvent }

type ExecutionCompleted struct {
	BaseEvent

	ExecutionID     string  `json:"execution_id"`
	ActionCount     int     `json:"action_count"`
	DurationSeconds float64 `json:"duration_seconds"`
}

func (e ExecutionCompleted) GetType() EventType { return ExecutionCompletedEvent }

type ExecutionFailed struct {
	BaseEvent

	ExecutionID     string  `json:"execution_id"`
	Error           string  `json:"error,omitempty"`
	DurationSeconds float64 `json:"duration_seconds"`
}

func (e ExecutionFailed) GetType() EventType { return ExecutionFailedEvent }

type EngineStarted struct {
	BaseEvent

	WorkflowCount int `json:"workflow_count"`
}

func (e EngineStarted) GetType() EventType { return EngineStartedEvent }

type EngineStopped struct {
	BaseEvent
}

func (e EngineStopped) GetType() EventType { return EngineStoppedEvent }
