package actions

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/estateflow/estateflow/pkg/metrics"
	"github.com/estateflow/estateflow/pkg/models"
	"github.com/estateflow/estateflow/pkg/otelhelper"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const defaultAttemptTimeout = 30 * time.Second

// BackoffFactory builds the wait strategy used between retry attempts.
// Tests inject zero backoff; production uses exponential with jitter.
type BackoffFactory func() backoff.BackOff

func DefaultBackoff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second

	return b
}

// Executor runs one action with the retry contract: a handler error is
// retried until the attempt budget of MaxRetries+1 is spent, so an
// always-failing handler is invoked exactly MaxRetries+1 times. A clean
// failure result and an unknown action kind are never retried. The attempt
// counter lives on the result, never on the shared action, so concurrent
// executions of one workflow each get the full budget.
type Executor struct {
	registry       *Registry
	logger         *slog.Logger
	metrics        *metrics.Metrics
	tracer         trace.Tracer
	attemptTimeout time.Duration
	newBackoff     BackoffFactory
}

func NewExecutor(registry *Registry, logger *slog.Logger) *Executor {
	return &Executor{
		registry:       registry,
		logger:         logger.With("module", "action_executor"),
		tracer:         otel.Tracer("estateflow/actions"),
		attemptTimeout: defaultAttemptTimeout,
		newBackoff:     DefaultBackoff,
	}
}

// WithMetrics attaches engine metrics. Nil is allowed.
func (e *Executor) WithMetrics(m *metrics.Metrics) *Executor {
	e.metrics = m

	return e
}

// WithAttemptTimeout bounds every single handler invocation.
func (e *Executor) WithAttemptTimeout(d time.Duration) *Executor {
	if d > 0 {
		e.attemptTimeout = d
	}

	return e
}

// WithBackoff overrides the retry wait strategy.
func (e *Executor) WithBackoff(factory BackoffFactory) *Executor {
	if factory != nil {
		e.newBackoff = factory
	}

	return e
}

// Execute runs the action against the execution context and returns a
// structured result. It never returns an error: every failure mode is
// captured in the result so the caller can fail-fast without exceptions.
func (e *Executor) Execute(ctx context.Context, action *models.Action, execCtx map[string]any) models.ActionResult {
	result := models.ActionResult{
		ActionID: action.ID,
		Kind:     action.Kind,
	}

	handler, ok := e.registry.Handler(action.Kind)
	if !ok {
		result.Error = fmt.Sprintf("unknown action type: %s", action.Kind)

		return result
	}

	logger := e.logger.With("action_kind", action.Kind, "action_id", action.ID)
	wait := e.newBackoff()

	for {
		result.Attempts++

		output, err := e.attempt(ctx, handler, action, execCtx)
		if err == nil {
			result.Output = output
			result.Success = outputSuccess(output)
			result.Error = ""

			if !result.Success {
				logger.Warn("Action reported failure", "attempts", result.Attempts)
			}

			return result
		}

		logger.Warn("Action attempt failed",
			"error", err,
			"attempt", result.Attempts,
			"max_retries", action.MaxRetries)

		result.Error = err.Error()

		if result.Attempts > action.MaxRetries {
			result.RetriesExhausted = true

			return result
		}

		// A cancelled caller must not burn the remaining budget; the select
		// below cannot guarantee that on a zero backoff.
		if err := ctx.Err(); err != nil {
			result.Error = err.Error()

			return result
		}

		e.metrics.IncActionRetry()

		delay := wait.NextBackOff()
		if delay == backoff.Stop {
			delay = 0
		}

		select {
		case <-ctx.Done():
			result.Error = ctx.Err().Error()

			return result
		case <-time.After(delay):
		}
	}
}

func (e *Executor) attempt(ctx context.Context, handler Handler, action *models.Action, execCtx map[string]any) (output map[string]any, err error) {
	attemptCtx, cancel := context.WithTimeout(ctx, e.attemptTimeout)
	defer cancel()

	attemptCtx, span := e.tracer.Start(attemptCtx, "action.execute",
		trace.WithAttributes(
			attribute.String(otelhelper.ActionKindKey, string(action.Kind)),
			attribute.String(otelhelper.ActionIDKey, action.ID),
		))
	defer span.End()

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("action handler panicked: %v", p)
		}

		if err != nil {
			otelhelper.SetError(span, err)
		}
	}()

	return handler.Execute(attemptCtx, action, execCtx)
}

// outputSuccess reads the handler's success flag; an output without one is
// treated as successful.
func outputSuccess(output map[string]any) bool {
	if output == nil {
		return true
	}

	if success, ok := output["success"].(bool); ok {
		return success
	}

	return true
}
