package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/estateflow/estateflow/pkg/actions"
	"github.com/estateflow/estateflow/pkg/eventbus"
	"github.com/estateflow/estateflow/pkg/events"
	"github.com/estateflow/estateflow/pkg/metrics"
	"github.com/estateflow/estateflow/pkg/models"
	"github.com/estateflow/estateflow/pkg/persistence"
	"github.com/estateflow/estateflow/pkg/trigger"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var (
	// ErrWorkflowNotFound indicates an unknown workflow id.
	ErrWorkflowNotFound = errors.New("workflow not found")

	// ErrInvalidTemplate indicates an unknown template name.
	ErrInvalidTemplate = errors.New("unknown workflow template")

	// ErrInvalidSpec indicates a malformed custom workflow specification.
	ErrInvalidSpec = errors.New("invalid workflow specification")

	// ErrEngineAlreadyRunning is returned by Start when the scheduler loop
	// is already up.
	ErrEngineAlreadyRunning = errors.New("engine already running")
)

const (
	defaultPollInterval  = 60 * time.Second
	defaultHistoryLimit  = 1000
	defaultShutdownGrace = 10 * time.Second
)

// Config tunes the engine. Zero values fall back to production defaults.
type Config struct {
	// PollInterval is the scheduler tick for time-based triggers.
	PollInterval time.Duration
	// HistoryLimit caps the in-memory execution history ring.
	HistoryLimit int
	// ActionTimeout bounds each action attempt.
	ActionTimeout time.Duration
	// ExecutionTimeout bounds a whole workflow execution.
	ExecutionTimeout time.Duration
	// ShutdownGrace is how long Stop waits for in-flight executions.
	ShutdownGrace time.Duration
	// SeedTemplates seeds the default template workflows on Start when the
	// registry is empty.
	SeedTemplates bool
}

func DefaultConfig() Config {
	return Config{
		PollInterval:  defaultPollInterval,
		HistoryLimit:  defaultHistoryLimit,
		ShutdownGrace: defaultShutdownGrace,
		SeedTemplates: true,
	}
}

// Engine owns the workflow registry and the append-only execution history,
// dispatches event- and time-triggered executions, and runs the background
// scheduler loop. Registry and history access is serialized through one
// mutex; per-workflow statistics are serialized by each workflow's own lock
// so concurrent executions of the same workflow stay consistent.
type Engine struct {
	cfg      Config
	logger   *slog.Logger
	store    persistence.WorkflowStore
	registry *actions.Registry
	runner   *Runner
	bus      eventbus.EventBus
	metrics  *metrics.Metrics
	validate *validator.Validate

	mu         sync.RWMutex
	workflows  map[string]*models.Workflow
	history    []*models.ExecutionRecord
	executions int

	runMu   sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewEngine builds an engine over the given store and collaborators. Pass
// a nil bus or metrics to disable event publication or instrumentation.
func NewEngine(
	logger *slog.Logger,
	store persistence.WorkflowStore,
	collaborators actions.Collaborators,
	cfg Config,
) *Engine {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}

	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = defaultHistoryLimit
	}

	if cfg.ShutdownGrace <= 0 {
		cfg.ShutdownGrace = defaultShutdownGrace
	}

	logger = logger.With("module", "automation_engine")

	registry := actions.DefaultRegistry(collaborators)
	executor := actions.NewExecutor(registry, logger).
		WithAttemptTimeout(cfg.ActionTimeout)
	evaluator := trigger.NewEvaluator(logger)
	runner := NewRunner(evaluator, executor, logger).
		WithExecutionTimeout(cfg.ExecutionTimeout)

	return &Engine{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		registry:  registry,
		runner:    runner,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		workflows: make(map[string]*models.Workflow),
	}
}

// WithEventBus attaches a lifecycle event bus.
func (e *Engine) WithEventBus(bus eventbus.EventBus) *Engine {
	e.bus = bus

	return e
}

// WithMetrics attaches Prometheus instruments.
func (e *Engine) WithMetrics(m *metrics.Metrics) *Engine {
	e.metrics = m
	e.runner.executor.WithMetrics(m)

	return e
}

// WithBackoff overrides the action retry wait strategy, used by tests to
// retry without delay.
func (e *Engine) WithBackoff(factory actions.BackoffFactory) *Engine {
	e.runner.executor.WithBackoff(factory)

	return e
}

// WithClock overrides the time source for the runner and evaluator.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.runner.WithClock(now)
	e.runner.evaluator = e.runner.evaluator.WithClock(now)

	return e
}

// WorkflowSpec is the raw specification accepted by CreateCustomWorkflow.
type WorkflowSpec struct {
	Name        string          `json:"name"        validate:"required"`
	Description string          `json:"description"`
	Trigger     *models.Trigger `json:"trigger"     validate:"required"`
	Actions     []ActionSpec    `json:"actions"     validate:"required,min=1,dive"`
}

// ActionSpec describes one action in a WorkflowSpec.
type ActionSpec struct {
	Kind       models.ActionKind `json:"kind" validate:"required,oneof=send_email send_sms create_task update_record call_api send_notification generate_report escalate_issue"`
	Config     map[string]any    `json:"config,omitempty"`
	MaxRetries *int              `json:"max_retries,omitempty"`
}

// CreateCustomWorkflow builds a workflow from a raw specification. The spec
// is validated structurally and each action config is checked against its
// handler's schema; any violation fails with ErrInvalidSpec.
func (e *Engine) CreateCustomWorkflow(ctx context.Context, spec WorkflowSpec) (string, error) {
	if err := e.validate.Struct(spec); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidSpec, err)
	}

	if err := e.validate.Struct(spec.Trigger); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidSpec, err)
	}

	if spec.Trigger.Kind == models.TriggerKindTime {
		if _, err := models.ParseTimeSpec(spec.Trigger.Config); err != nil {
			return "", fmt.Errorf("%w: %w", ErrInvalidSpec, err)
		}
	}

	workflowActions := make([]*models.Action, 0, len(spec.Actions))

	for _, actionSpec := range spec.Actions {
		if err := e.registry.ValidateConfig(actionSpec.Kind, actionSpec.Config); err != nil {
			return "", fmt.Errorf("%w: %w", ErrInvalidSpec, err)
		}

		action := models.NewAction(actionSpec.Kind, actionSpec.Config)
		action.ID = uuid.New().String()

		if actionSpec.MaxRetries != nil && *actionSpec.MaxRetries >= 0 {
			action.MaxRetries = *actionSpec.MaxRetries
		}

		workflowActions = append(workflowActions, action)
	}

	workflow := &models.Workflow{
		ID:          uuid.New().String(),
		Name:        spec.Name,
		Description: spec.Description,
		Trigger:     spec.Trigger,
		Actions:     workflowActions,
		Status:      models.WorkflowStatusActive,
		CreatedAt:   time.Now().UTC(),
	}

	if err := e.register(ctx, workflow); err != nil {
		return "", err
	}

	return workflow.ID, nil
}

// register adds a workflow to the registry and persists it.
func (e *Engine) register(ctx context.Context, workflow *models.Workflow) error {
	e.mu.Lock()
	e.workflows[workflow.ID] = workflow
	e.mu.Unlock()

	if err := e.store.SaveWorkflow(ctx, workflow); err != nil {
		return fmt.Errorf("failed to persist workflow %s: %w", workflow.ID, err)
	}

	e.metrics.SetActiveWorkflows(e.countActive())
	e.publish(ctx, events.WorkflowCreated{
		BaseEvent:   e.baseEvent(events.WorkflowCreatedEvent, workflow.ID),
		Name:        workflow.Name,
		TriggerKind: string(workflow.Trigger.Kind),
		ActionCount: len(workflow.Actions),
	})

	e.logger.Info("Registered workflow",
		"workflow_id", workflow.ID,
		"name", workflow.Name,
		"trigger_kind", workflow.Trigger.Kind)

	return nil
}

// ExecuteWorkflow runs one workflow by id. Webhook and manual triggers
// bypass evaluation here; every other kind is still evaluated, so a
// condition workflow only fires when its conditions hold.
func (e *Engine) ExecuteWorkflow(ctx context.Context, workflowID string, execCtx map[string]any) (models.ExecutionResult, error) {
	workflow, err := e.workflowByID(workflowID)
	if err != nil {
		return models.ExecutionResult{}, err
	}

	bypass := workflow.Trigger.Kind == models.TriggerKindWebhook ||
		workflow.Trigger.Kind == models.TriggerKindManual

	result := e.runner.Run(ctx, workflow, execCtx, bypass)
	e.recordExecution(ctx, workflow, result)

	return result, nil
}

// TriggerEvent fans one event out to every active event-triggered workflow
// subscribed to it. Matching workflows execute concurrently; only their
// results are returned. Workflows that do not match are untouched.
func (e *Engine) TriggerEvent(ctx context.Context, eventType string, execCtx map[string]any) []models.ExecutionResult {
	candidates := e.snapshot(func(w *models.Workflow) bool {
		return w.CurrentStatus() == models.WorkflowStatusActive &&
			w.Trigger.Kind == models.TriggerKindEvent
	})

	merged := make(map[string]any, len(execCtx)+1)
	for k, v := range execCtx {
		merged[k] = v
	}

	merged[trigger.EventTypeKey] = eventType

	e.logger.Debug("Dispatching event",
		"event_type", eventType,
		"candidates", len(candidates))

	var (
		resultMu sync.Mutex
		results  []models.ExecutionResult
		wg       sync.WaitGroup
	)

	for _, candidate := range candidates {
		wg.Add(1)

		go func(workflow *models.Workflow) {
			defer wg.Done()

			result := e.runner.Run(ctx, workflow, merged, false)
			if result.Skipped {
				return
			}

			e.recordExecution(ctx, workflow, result)

			resultMu.Lock()
			results = append(results, result)
			resultMu.Unlock()
		}(candidate)
	}

	wg.Wait()

	return results
}

// RunScheduledWorkflows evaluates every active time-triggered workflow and
// executes the due ones. Executions run on independent goroutines so one
// slow action cannot stall the scheduler loop.
func (e *Engine) RunScheduledWorkflows(ctx context.Context) {
	candidates := e.snapshot(func(w *models.Workflow) bool {
		return w.CurrentStatus() == models.WorkflowStatusActive &&
			w.Trigger.Kind == models.TriggerKindTime
	})

	for _, candidate := range candidates {
		e.wg.Add(1)

		go func(workflow *models.Workflow) {
			defer e.wg.Done()

			execCtx := map[string]any{"scheduled": true}

			result := e.runner.Run(ctx, workflow, execCtx, false)
			if result.Skipped {
				return
			}

			e.recordExecution(ctx, workflow, result)
		}(candidate)
	}
}

// PauseWorkflow flips an active workflow to paused.
func (e *Engine) PauseWorkflow(ctx context.Context, workflowID string) error {
	return e.setStatus(ctx, workflowID, models.WorkflowStatusPaused, events.WorkflowPausedEvent)
}

// ResumeWorkflow flips a paused workflow back to active.
func (e *Engine) ResumeWorkflow(ctx context.Context, workflowID string) error {
	return e.setStatus(ctx, workflowID, models.WorkflowStatusActive, events.WorkflowResumedEvent)
}

// CompleteWorkflow moves an active workflow to its terminal completed
// state. Execution outcomes never do this on their own.
func (e *Engine) CompleteWorkflow(ctx context.Context, workflowID string) error {
	return e.setStatus(ctx, workflowID, models.WorkflowStatusCompleted, "")
}

// FailWorkflow moves an active workflow to its terminal failed state.
func (e *Engine) FailWorkflow(ctx context.Context, workflowID string) error {
	return e.setStatus(ctx, workflowID, models.WorkflowStatusFailed, "")
}

func (e *Engine) setStatus(ctx context.Context, workflowID string, status models.WorkflowStatus, eventType events.EventType) error {
	workflow, err := e.workflowByID(workflowID)
	if err != nil {
		return err
	}

	if current := workflow.CurrentStatus(); current == models.WorkflowStatusCompleted ||
		current == models.WorkflowStatusFailed {
		return fmt.Errorf("workflow %s is %s and cannot change status", workflowID, current)
	}

	workflow.SetStatus(status)

	if err := e.store.SaveWorkflow(ctx, workflow); err != nil {
		e.logger.Error("Failed to persist status change",
			"workflow_id", workflowID, "error", err)
	}

	e.metrics.SetActiveWorkflows(e.countActive())

	switch eventType {
	case events.WorkflowPausedEvent:
		e.publish(ctx, events.WorkflowPaused{BaseEvent: e.baseEvent(eventType, workflowID)})
	case events.WorkflowResumedEvent:
		e.publish(ctx, events.WorkflowResumed{BaseEvent: e.baseEvent(eventType, workflowID)})
	}

	return nil
}

// DeleteWorkflow removes a workflow from the registry. Deleting an unknown
// id is a no-op.
func (e *Engine) DeleteWorkflow(ctx context.Context, workflowID string) error {
	e.mu.Lock()
	_, existed := e.workflows[workflowID]
	delete(e.workflows, workflowID)
	e.mu.Unlock()

	if !existed {
		return nil
	}

	if err := e.store.DeleteWorkflow(ctx, workflowID); err != nil {
		return fmt.Errorf("failed to delete workflow %s: %w", workflowID, err)
	}

	e.metrics.SetActiveWorkflows(e.countActive())
	e.publish(ctx, events.WorkflowDeleted{BaseEvent: e.baseEvent(events.WorkflowDeletedEvent, workflowID)})

	return nil
}

// WorkflowSnapshot is a read-only view of one workflow's state.
type WorkflowSnapshot struct {
	ID           string                `json:"id"`
	Name         string                `json:"name"`
	Description  string                `json:"description,omitempty"`
	Status       models.WorkflowStatus `json:"status"`
	TriggerKind  models.TriggerKind    `json:"trigger_kind"`
	ActionCount  int                   `json:"action_count"`
	CreatedAt    time.Time             `json:"created_at"`
	LastRun      *time.Time            `json:"last_run,omitempty"`
	RunCount     int64                 `json:"run_count"`
	SuccessCount int64                 `json:"success_count"`
	FailureCount int64                 `json:"failure_count"`
}

// GetWorkflowStatus returns a snapshot of one workflow.
func (e *Engine) GetWorkflowStatus(workflowID string) (WorkflowSnapshot, error) {
	workflow, err := e.workflowByID(workflowID)
	if err != nil {
		return WorkflowSnapshot{}, err
	}

	run, success, failure := workflow.Stats()

	return WorkflowSnapshot{
		ID:           workflow.ID,
		Name:         workflow.Name,
		Description:  workflow.Description,
		Status:       workflow.CurrentStatus(),
		TriggerKind:  workflow.Trigger.Kind,
		ActionCount:  len(workflow.Actions),
		CreatedAt:    workflow.CreatedAt,
		LastRun:      workflow.LastRunTime(),
		RunCount:     run,
		SuccessCount: success,
		FailureCount: failure,
	}, nil
}

// GetExecutionHistory returns execution records most-recent-first, capped
// at limit (limit <= 0 returns everything retained).
func (e *Engine) GetExecutionHistory(limit int) []*models.ExecutionRecord {
	e.mu.RLock()
	defer e.mu.RUnlock()

	count := len(e.history)
	if limit > 0 && limit < count {
		count = limit
	}

	records := make([]*models.ExecutionRecord, 0, count)
	for i := len(e.history) - 1; i >= 0 && len(records) < count; i-- {
		records = append(records, e.history[i])
	}

	return records
}

// EngineStatus is the read-only operational summary. TotalExecutions
// counts every recorded execution since the engine was built, not just the
// ones still retained in the bounded history ring.
type EngineStatus struct {
	IsRunning       bool `json:"is_running"`
	TotalWorkflows  int  `json:"total_workflows"`
	ActiveWorkflows int  `json:"active_workflows"`
	TotalExecutions int  `json:"total_executions"`
}

// Status reports engine-level counters.
func (e *Engine) Status() EngineStatus {
	e.runMu.Lock()
	running := e.running
	e.runMu.Unlock()

	e.mu.RLock()
	defer e.mu.RUnlock()

	active := 0

	for _, workflow := range e.workflows {
		if workflow.CurrentStatus() == models.WorkflowStatusActive {
			active++
		}
	}

	return EngineStatus{
		IsRunning:       running,
		TotalWorkflows:  len(e.workflows),
		ActiveWorkflows: active,
		TotalExecutions: e.executions,
	}
}

// Start loads persisted workflows, optionally seeds the default template
// workflows, and launches the background scheduler loop.
func (e *Engine) Start(ctx context.Context) error {
	e.runMu.Lock()
	defer e.runMu.Unlock()

	if e.running {
		return ErrEngineAlreadyRunning
	}

	if err := e.loadWorkflows(ctx); err != nil {
		return err
	}

	if e.cfg.SeedTemplates {
		e.seedDefaultWorkflows(ctx)
	}

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	e.cancel = cancel
	e.running = true

	e.wg.Add(1)

	go e.schedulerLoop(loopCtx)

	e.mu.RLock()
	count := len(e.workflows)
	e.mu.RUnlock()

	e.publish(ctx, events.EngineStarted{
		BaseEvent:     e.baseEvent(events.EngineStartedEvent, ""),
		WorkflowCount: count,
	})

	e.logger.Info("Engine started",
		"workflows", count,
		"poll_interval", e.cfg.PollInterval)

	return nil
}

// Stop cancels the scheduler loop and waits up to the shutdown grace for
// in-flight executions to finish.
func (e *Engine) Stop(ctx context.Context) error {
	e.runMu.Lock()
	defer e.runMu.Unlock()

	if !e.running {
		return nil
	}

	e.cancel()
	e.running = false

	done := make(chan struct{})

	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		e.logger.Info("Engine stopped")
	case <-time.After(e.cfg.ShutdownGrace):
		e.logger.Warn("Engine stopped with executions still in flight",
			"grace", e.cfg.ShutdownGrace)
	}

	e.publish(ctx, events.EngineStopped{BaseEvent: e.baseEvent(events.EngineStoppedEvent, "")})

	return nil
}

func (e *Engine) schedulerLoop(ctx context.Context) {
	defer e.wg.Done()

	ticker := time.NewTicker(e.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.metrics.IncSchedulerTick()
			e.RunScheduledWorkflows(ctx)
		}
	}
}

func (e *Engine) loadWorkflows(ctx context.Context) error {
	stored, err := e.store.Workflows(ctx)
	if err != nil {
		return fmt.Errorf("failed to load workflows: %w", err)
	}

	e.mu.Lock()
	for _, workflow := range stored {
		e.workflows[workflow.ID] = workflow
	}
	count := len(e.workflows)
	e.mu.Unlock()

	e.metrics.SetActiveWorkflows(e.countActive())

	if count > 0 {
		e.logger.Info("Loaded persisted workflows", "count", count)
	}

	return nil
}

// recordExecution appends the history entry for a real execution and
// persists the workflow's updated statistics. Skipped and rejected results
// leave no trace.
func (e *Engine) recordExecution(ctx context.Context, workflow *models.Workflow, result models.ExecutionResult) {
	if !result.Recorded() {
		return
	}

	record := &models.ExecutionRecord{
		ExecutionID:     result.ExecutionID,
		WorkflowID:      result.WorkflowID,
		ExecutedAt:      time.Now().UTC(),
		Success:         result.Success,
		ActionResults:   result.ActionResults,
		DurationSeconds: result.DurationSeconds,
	}

	e.mu.Lock()
	e.executions++
	e.history = append(e.history, record)
	if len(e.history) > e.cfg.HistoryLimit {
		e.history = e.history[len(e.history)-e.cfg.HistoryLimit:]
	}
	e.mu.Unlock()

	if err := e.store.SaveExecution(ctx, record); err != nil {
		e.logger.Error("Failed to persist execution record",
			"execution_id", record.ExecutionID, "error", err)
	}

	if err := e.store.SaveWorkflow(ctx, workflow); err != nil {
		e.logger.Error("Failed to persist workflow statistics",
			"workflow_id", workflow.ID, "error", err)
	}

	e.metrics.IncExecution(result.Success)

	if result.Success {
		e.publish(ctx, events.ExecutionCompleted{
			BaseEvent:       e.baseEvent(events.ExecutionCompletedEvent, workflow.ID),
			ExecutionID:     result.ExecutionID,
			ActionCount:     len(result.ActionResults),
			DurationSeconds: result.DurationSeconds,
		})
	} else {
		e.publish(ctx, events.ExecutionFailed{
			BaseEvent:       e.baseEvent(events.ExecutionFailedEvent, workflow.ID),
			ExecutionID:     result.ExecutionID,
			Error:           result.Error,
			DurationSeconds: result.DurationSeconds,
		})
	}
}

func (e *Engine) workflowByID(workflowID string) (*models.Workflow, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	workflow, ok := e.workflows[workflowID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrWorkflowNotFound, workflowID)
	}

	return workflow, nil
}

// snapshot returns the workflows matching the filter without holding the
// registry lock during execution.
func (e *Engine) snapshot(match func(*models.Workflow) bool) []*models.Workflow {
	e.mu.RLock()
	defer e.mu.RUnlock()

	matched := make([]*models.Workflow, 0)

	for _, workflow := range e.workflows {
		if match(workflow) {
			matched = append(matched, workflow)
		}
	}

	return matched
}

func (e *Engine) countActive() int {
	e.mu.RLock()
	defer e.mu.RUnlock()

	active := 0

	for _, workflow := range e.workflows {
		if workflow.CurrentStatus() == models.WorkflowStatusActive {
			active++
		}
	}

	return active
}

func (e *Engine) baseEvent(eventType events.EventType, workflowID string) events.BaseEvent {
	return events.BaseEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		WorkflowID: workflowID,
	}
}

func (e *Engine) publish(ctx context.Context, event events.Event) {
	if e.bus == nil {
		return
	}

	key := events.Topic

	if err := e.bus.Publish(ctx, key, event); err != nil {
		e.logger.Warn("Failed to publish event", "event_type", event.GetType(), "error", err)
	}
}
