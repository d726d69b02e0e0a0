// Package redisstore provides a Redis-backed WorkflowStore. Workflow
// definitions live in a hash keyed by id; execution records are pushed onto
// a list so most-recent-first reads are a single LRANGE.
package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/estateflow/estateflow/pkg/models"
	"github.com/estateflow/estateflow/pkg/persistence"
	"github.com/redis/go-redis/v9"
)

const (
	workflowsKey  = "estateflow:workflows"
	executionsKey = "estateflow:executions"
)

// maxRetainedExecutions bounds the history list so the key cannot grow
// without limit.
const maxRetainedExecutions = 10_000

type Store struct {
	client *redis.Client
	logger *slog.Logger
}

// NewStore connects to the Redis instance described by url
// (redis://host:port/db).
func NewStore(ctx context.Context, logger *slog.Logger, url string) (*Store, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &Store{
		client: client,
		logger: logger.With("module", "redis_store"),
	}, nil
}

// NewStoreWithClient wraps an existing client, used by tests.
func NewStoreWithClient(logger *slog.Logger, client *redis.Client) *Store {
	return &Store{
		client: client,
		logger: logger.With("module", "redis_store"),
	}
}

func (s *Store) Workflows(ctx context.Context) ([]*models.Workflow, error) {
	raw, err := s.client.HGetAll(ctx, workflowsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load workflows: %w", err)
	}

	workflows := make([]*models.Workflow, 0, len(raw))

	for id, payload := range raw {
		var workflow models.Workflow

		if err := json.Unmarshal([]byte(payload), &workflow); err != nil {
			return nil, fmt.Errorf("failed to decode workflow %s: %w", id, err)
		}

		workflows = append(workflows, &workflow)
	}

	return workflows, nil
}

func (s *Store) WorkflowByID(ctx context.Context, id string) (*models.Workflow, error) {
	payload, err := s.client.HGet(ctx, workflowsKey, id).Result()
	if err == redis.Nil {
		return nil, persistence.NewWorkflowError("GetByID", id, persistence.ErrWorkflowNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to load workflow %s: %w", id, err)
	}

	var workflow models.Workflow

	if err := json.Unmarshal([]byte(payload), &workflow); err != nil {
		return nil, fmt.Errorf("failed to decode workflow %s: %w", id, err)
	}

	return &workflow, nil
}

func (s *Store) SaveWorkflow(ctx context.Context, workflow *models.Workflow) error {
	payload, err := json.Marshal(workflow.Clone())
	if err != nil {
		return fmt.Errorf("failed to encode workflow %s: %w", workflow.ID, err)
	}

	if err := s.client.HSet(ctx, workflowsKey, workflow.ID, payload).Err(); err != nil {
		return persistence.NewWorkflowError("Save", workflow.ID, err)
	}

	return nil
}

func (s *Store) DeleteWorkflow(ctx context.Context, id string) error {
	if err := s.client.HDel(ctx, workflowsKey, id).Err(); err != nil {
		return persistence.NewWorkflowError("Delete", id, err)
	}

	return nil
}

func (s *Store) SaveExecution(ctx context.Context, record *models.ExecutionRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode execution %s: %w", record.ExecutionID, err)
	}

	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, executionsKey, payload)
	pipe.LTrim(ctx, executionsKey, 0, maxRetainedExecutions-1)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append execution %s: %w", record.ExecutionID, err)
	}

	return nil
}

func (s *Store) Executions(ctx context.Context, limit int) ([]*models.ExecutionRecord, error) {
	end := int64(-1)
	if limit > 0 {
		end = int64(limit) - 1
	}

	payloads, err := s.client.LRange(ctx, executionsKey, 0, end).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load executions: %w", err)
	}

	records := make([]*models.ExecutionRecord, 0, len(payloads))

	for _, payload := range payloads {
		var record models.ExecutionRecord

		if err := json.Unmarshal([]byte(payload), &record); err != nil {
			return nil, fmt.Errorf("failed to decode execution record: %w", err)
		}

		records = append(records, &record)
	}

	return records, nil
}

func (s *Store) HealthCheck(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}

	return nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Close()
}
