// Package workflow orchestrates workflow execution: the runner drives a
// single execution, the engine owns the registry, the scheduler loop and
// execution history.
package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/estateflow/estateflow/pkg/actions"
	"github.com/estateflow/estateflow/pkg/models"
	"github.com/estateflow/estateflow/pkg/otelhelper"
	"github.com/estateflow/estateflow/pkg/trigger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const defaultExecutionTimeout = 5 * time.Minute

// Runner executes one workflow end to end: status gate, trigger
// evaluation, then the ordered fail-fast action loop. Statistics are only
// touched for executions that get past the trigger.
type Runner struct {
	evaluator        *trigger.Evaluator
	executor         *actions.Executor
	logger           *slog.Logger
	tracer           trace.Tracer
	now              func() time.Time
	executionTimeout time.Duration
}

func NewRunner(evaluator *trigger.Evaluator, executor *actions.Executor, logger *slog.Logger) *Runner {
	return &Runner{
		evaluator:        evaluator,
		executor:         executor,
		logger:           logger.With("module", "workflow_runner"),
		tracer:           otel.Tracer("estateflow/workflow"),
		now:              time.Now,
		executionTimeout: defaultExecutionTimeout,
	}
}

// WithClock overrides the time source, for tests.
func (r *Runner) WithClock(now func() time.Time) *Runner {
	r.now = now

	return r
}

// WithExecutionTimeout bounds a whole workflow execution.
func (r *Runner) WithExecutionTimeout(d time.Duration) *Runner {
	if d > 0 {
		r.executionTimeout = d
	}

	return r
}

// Run executes the workflow against the given context. bypassTrigger skips
// evaluation, which is how webhook and manual workflows run at all.
//
// Outcomes that do not count as executions: a non-active workflow returns
// success=false with a status message; a trigger that does not fire returns
// skipped=true. Neither mutates statistics. Everything else increments
// RunCount and exactly one of SuccessCount or FailureCount, including the
// case where an action handler panics past the executor.
func (r *Runner) Run(ctx context.Context, workflow *models.Workflow, execCtx map[string]any, bypassTrigger bool) models.ExecutionResult {
	started := r.now()
	result := models.ExecutionResult{
		ExecutionID: models.NewExecutionID(),
		WorkflowID:  workflow.ID,
	}

	logger := r.logger.With(
		"workflow_id", workflow.ID,
		"execution_id", result.ExecutionID,
	)

	if status := workflow.CurrentStatus(); status != models.WorkflowStatusActive {
		result.Message = fmt.Sprintf("workflow is %s", status)

		return result
	}

	if !bypassTrigger {
		fired, err := r.evaluator.Evaluate(workflow.Trigger, execCtx, workflow.LastRunTime())
		if err != nil {
			// Evaluation errors must never take down a scheduler tick; the
			// trigger is treated as not fired.
			logger.Warn("Trigger evaluation failed", "error", err)

			result.Skipped = true
			result.Error = err.Error()

			return result
		}

		if !fired {
			result.Skipped = true

			return result
		}
	}

	ctx, cancel := context.WithTimeout(ctx, r.executionTimeout)
	defer cancel()

	ctx, span := r.tracer.Start(ctx, "workflow.execute",
		trace.WithAttributes(
			attribute.String(otelhelper.WorkflowIDKey, workflow.ID),
			attribute.String(otelhelper.WorkflowNameKey, workflow.Name),
			attribute.String(otelhelper.ExecutionIDKey, result.ExecutionID),
		))
	defer span.End()

	logger.Info("Starting workflow execution", "actions", len(workflow.Actions))

	actionResults, panicErr := r.runActions(ctx, workflow, execCtx)
	result.ActionResults = actionResults

	if panicErr != nil {
		otelhelper.SetError(span, panicErr)
		logger.Error("Workflow execution panicked", "error", panicErr)

		workflow.RecordRun(false, r.now())
		result.Error = panicErr.Error()
		result.DurationSeconds = r.now().Sub(started).Seconds()

		return result
	}

	// All actions that executed succeeded. Because of fail-fast this covers
	// the executed prefix, not every configured action.
	allSuccessful := true
	for _, actionResult := range actionResults {
		allSuccessful = allSuccessful && actionResult.Success
	}

	workflow.RecordRun(allSuccessful, r.now())

	result.Success = allSuccessful
	result.DurationSeconds = r.now().Sub(started).Seconds()

	logger.Info("Completed workflow execution",
		"success", result.Success,
		"actions_executed", len(actionResults),
		"duration_seconds", result.DurationSeconds)

	return result
}

// runActions executes the action list strictly in order, stopping at the
// first failing result. A panic escaping the executor is captured so a
// single rogue handler cannot crash the engine.
func (r *Runner) runActions(ctx context.Context, workflow *models.Workflow, execCtx map[string]any) (results []models.ActionResult, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("workflow execution panicked: %v", p)
		}
	}()

	for _, action := range workflow.Actions {
		actionResult := r.executor.Execute(ctx, action, execCtx)
		results = append(results, actionResult)

		if !actionResult.Success {
			break
		}
	}

	return results, nil
}
