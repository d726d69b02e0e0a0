// Package postgresql provides a PostgreSQL-backed WorkflowStore.
package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/estateflow/estateflow/pkg/models"
	"github.com/estateflow/estateflow/pkg/persistence"
	_ "github.com/lib/pq" // postgres driver
)

// Store persists workflows and execution history in PostgreSQL. Workflow
// bodies are stored as JSONB next to the columns queries filter on.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewStore connects to the database and runs migrations.
func NewStore(ctx context.Context, logger *slog.Logger, databaseURL string) (*Store, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	if err := database.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &Store{
		db:     database,
		logger: logger.With("module", "postgres_store"),
	}

	if err := store.migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

func (s *Store) migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS workflows (
			id         TEXT PRIMARY KEY,
			status     TEXT NOT NULL,
			data       JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS executions (
			execution_id TEXT PRIMARY KEY,
			workflow_id  TEXT NOT NULL,
			executed_at  TIMESTAMPTZ NOT NULL,
			success      BOOLEAN NOT NULL,
			data         JSONB NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS executions_executed_at_idx
			ON executions (executed_at DESC)`,
	}

	for _, statement := range statements {
		if _, err := s.db.ExecContext(ctx, statement); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}

func (s *Store) Workflows(ctx context.Context) ([]*models.Workflow, error) {
	query := `
		SELECT data
		FROM workflows
		ORDER BY created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query workflows: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			s.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	workflows := make([]*models.Workflow, 0)

	for rows.Next() {
		var payload []byte

		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan workflow: %w", err)
		}

		var workflow models.Workflow

		if err := json.Unmarshal(payload, &workflow); err != nil {
			return nil, fmt.Errorf("failed to decode workflow: %w", err)
		}

		workflows = append(workflows, &workflow)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating workflows: %w", err)
	}

	return workflows, nil
}

func (s *Store) WorkflowByID(ctx context.Context, id string) (*models.Workflow, error) {
	query := `SELECT data FROM workflows WHERE id = $1`

	var payload []byte

	err := s.db.QueryRowContext(ctx, query, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.NewWorkflowError("GetByID", id, persistence.ErrWorkflowNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query workflow %s: %w", id, err)
	}

	var workflow models.Workflow

	if err := json.Unmarshal(payload, &workflow); err != nil {
		return nil, fmt.Errorf("failed to decode workflow %s: %w", id, err)
	}

	return &workflow, nil
}

func (s *Store) SaveWorkflow(ctx context.Context, workflow *models.Workflow) error {
	clone := workflow.Clone()

	payload, err := json.Marshal(clone)
	if err != nil {
		return fmt.Errorf("failed to encode workflow %s: %w", workflow.ID, err)
	}

	query := `
		INSERT INTO workflows (id, status, data, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET status = EXCLUDED.status, data = EXCLUDED.data, updated_at = now()
	`

	if _, err := s.db.ExecContext(ctx, query, clone.ID, string(clone.Status), payload, clone.CreatedAt); err != nil {
		return persistence.NewWorkflowError("Save", workflow.ID, err)
	}

	return nil
}

func (s *Store) DeleteWorkflow(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM workflows WHERE id = $1`, id); err != nil {
		return persistence.NewWorkflowError("Delete", id, err)
	}

	return nil
}

func (s *Store) SaveExecution(ctx context.Context, record *models.ExecutionRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode execution %s: %w", record.ExecutionID, err)
	}

	query := `
		INSERT INTO executions (execution_id, workflow_id, executed_at, success, data)
		VALUES ($1, $2, $3, $4, $5)
	`

	if _, err := s.db.ExecContext(ctx, query,
		record.ExecutionID, record.WorkflowID, record.ExecutedAt, record.Success, payload); err != nil {
		return fmt.Errorf("failed to insert execution %s: %w", record.ExecutionID, err)
	}

	return nil
}

func (s *Store) Executions(ctx context.Context, limit int) ([]*models.ExecutionRecord, error) {
	query := `
		SELECT data
		FROM executions
		ORDER BY executed_at DESC
	`

	args := make([]any, 0, 1)

	if limit > 0 {
		query += ` LIMIT $1`

		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query executions: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			s.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	records := make([]*models.ExecutionRecord, 0)

	for rows.Next() {
		var payload []byte

		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan execution: %w", err)
		}

		var record models.ExecutionRecord

		if err := json.Unmarshal(payload, &record); err != nil {
			return nil, fmt.Errorf("failed to decode execution record: %w", err)
		}

		records = append(records, &record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating executions: %w", err)
	}

	return records, nil
}

func (s *Store) HealthCheck(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

func (s *Store) Close(ctx context.Context) error {
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}
