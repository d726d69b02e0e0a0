// Package memory provides an in-process WorkflowStore, used as the default
// backend and as the reference implementation for tests.
package memory

import (
	"context"
	"sync"

	"github.com/estateflow/estateflow/pkg/models"
	"github.com/estateflow/estateflow/pkg/persistence"
)

// Store keeps cloned copies of everything it is handed, so callers and the
// store never share mutable state.
type Store struct {
	mu         sync.RWMutex
	workflows  map[string]*models.Workflow
	executions []*models.ExecutionRecord
}

func NewStore() *Store {
	return &Store{
		workflows: make(map[string]*models.Workflow),
	}
}

func (s *Store) Workflows(ctx context.Context) ([]*models.Workflow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	workflows := make([]*models.Workflow, 0, len(s.workflows))
	for _, workflow := range s.workflows {
		workflows = append(workflows, workflow.Clone())
	}

	return workflows, nil
}

func (s *Store) WorkflowByID(ctx context.Context, id string) (*models.Workflow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	workflow, ok := s.workflows[id]
	if !ok {
		return nil, persistence.NewWorkflowError("GetByID", id, persistence.ErrWorkflowNotFound)
	}

	return workflow.Clone(), nil
}

func (s *Store) SaveWorkflow(ctx context.Context, workflow *models.Workflow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.workflows[workflow.ID] = workflow.Clone()

	return nil
}

func (s *Store) DeleteWorkflow(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.workflows, id)

	return nil
}

func (s *Store) SaveExecution(ctx context.Context, record *models.ExecutionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *record
	clone.ActionResults = append([]models.ActionResult(nil), record.ActionResults...)
	s.executions = append(s.executions, &clone)

	return nil
}

func (s *Store) Executions(ctx context.Context, limit int) ([]*models.ExecutionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := len(s.executions)
	if limit > 0 && limit < count {
		count = limit
	}

	records := make([]*models.ExecutionRecord, 0, count)
	for i := len(s.executions) - 1; i >= 0 && len(records) < count; i-- {
		clone := *s.executions[i]
		records = append(records, &clone)
	}

	return records, nil
}

func (s *Store) HealthCheck(ctx context.Context) error {
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	return nil
}
