// Package persistence provides the storage abstraction for workflow
// definitions and execution history.
package persistence

import (
	"context"

	"github.com/estateflow/estateflow/pkg/models"
)

// WorkflowStore is the durability collaborator the engine depends on. The
// engine loads its registry from the store at startup and writes every
// mutation back; execution records are append-only.
type WorkflowStore interface {
	Workflows(ctx context.Context) ([]*models.Workflow, error)
	WorkflowByID(ctx context.Context, id string) (*models.Workflow, error)
	SaveWorkflow(ctx context.Context, workflow *models.Workflow) error
	DeleteWorkflow(ctx context.Context, id string) error

	SaveExecution(ctx context.Context, record *models.ExecutionRecord) error
	// Executions returns records most-recent-first, capped at limit.
	// limit <= 0 means no cap.
	Executions(ctx context.Context, limit int) ([]*models.ExecutionRecord, error)

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
