package actions

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/cenkalti/backoff/v4"
	"github.com/estateflow/estateflow/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmailSender struct {
	calls    int
	sentTo   string
	subject  string
	body     string
	failWith error
	clean    bool
}

func (f *fakeEmailSender) Send(_ context.Context, to, subject, body string) (Result, error) {
	f.calls++
	f.sentTo = to
	f.subject = subject
	f.body = body

	if f.failWith != nil {
		return Result{}, f.failWith
	}

	if f.clean {
		return Result{Success: false, Details: map[string]any{"reason": "bounced"}}, nil
	}

	return Result{Success: true}, nil
}

type panicSender struct{ calls int }

func (p *panicSender) Send(context.Context, string, string, string) (Result, error) {
	p.calls++
	panic("smtp client gone")
}

func zeroBackoff() backoff.BackOff {
	return &backoff.ZeroBackOff{}
}

func newTestExecutor(sender EmailSender) *Executor {
	registry := NewRegistry()
	registry.Register(NewEmailHandler(sender))

	return NewExecutor(registry, slog.Default()).WithBackoff(zeroBackoff)
}

func TestExecute_RendersTemplatedConfig(t *testing.T) {
	sender := &fakeEmailSender{}
	executor := newTestExecutor(sender)

	action := models.NewAction(models.ActionKindSendEmail, map[string]any{
		"to":      "{tenant_email}",
		"subject": "Rent due",
		"body":    "Hello {tenant_name}, rent is {amount}",
	})

	result := executor.Execute(context.Background(), action, map[string]any{
		"tenant_email": "bob@example.com",
		"tenant_name":  "Bob",
		"amount":       500,
	})

	assert.True(t, result.Success)
	assert.Equal(t, 1, result.Attempts)
	assert.Equal(t, "bob@example.com", sender.sentTo)
	assert.Equal(t, "Hello Bob, rent is 500", sender.body)
	assert.Equal(t, "bob@example.com", result.Output["recipient"])
}

func TestExecute_RetriesUntilExhausted(t *testing.T) {
	sender := &fakeEmailSender{failWith: errors.New("smtp unavailable")}
	executor := newTestExecutor(sender)

	action := models.NewAction(models.ActionKindSendEmail, map[string]any{
		"to": "bob@example.com", "subject": "x",
	})
	action.MaxRetries = 2

	result := executor.Execute(context.Background(), action, nil)

	// Initial attempt plus two retries.
	assert.Equal(t, 3, sender.calls)
	assert.Equal(t, 3, result.Attempts)
	assert.False(t, result.Success)
	assert.True(t, result.RetriesExhausted)
	assert.Contains(t, result.Error, "smtp unavailable")

	// The budget is per execution: running the same action again gets the
	// full three attempts, not a drained counter.
	result = executor.Execute(context.Background(), action, nil)
	assert.Equal(t, 6, sender.calls)
	assert.Equal(t, 3, result.Attempts)
	assert.True(t, result.RetriesExhausted)
}

func TestExecute_ConcurrentExecutionsEachGetFullBudget(t *testing.T) {
	var calls atomic.Int64

	sender := failingCounter{calls: &calls}
	executor := newTestExecutor(sender)

	action := models.NewAction(models.ActionKindSendEmail, map[string]any{
		"to": "bob@example.com", "subject": "x",
	})
	action.MaxRetries = 2

	const workers = 8

	results := make([]models.ActionResult, workers)

	var wg sync.WaitGroup

	for i := range workers {
		wg.Add(1)

		go func(slot int) {
			defer wg.Done()
			results[slot] = executor.Execute(context.Background(), action, nil)
		}(i)
	}

	wg.Wait()

	for _, result := range results {
		assert.Equal(t, 3, result.Attempts)
		assert.True(t, result.RetriesExhausted)
	}

	assert.Equal(t, int64(workers*3), calls.Load())
}

type failingCounter struct{ calls *atomic.Int64 }

func (f failingCounter) Send(context.Context, string, string, string) (Result, error) {
	f.calls.Add(1)

	return Result{}, errors.New("smtp unavailable")
}

func TestExecute_SucceedsAfterTransientFailure(t *testing.T) {
	// Fail once, then recover.
	sender := &recoveringSender{failures: 1}
	executor := newTestExecutor(sender)

	action := models.NewAction(models.ActionKindSendEmail, map[string]any{
		"to": "bob@example.com", "subject": "x",
	})

	result := executor.Execute(context.Background(), action, nil)

	assert.True(t, result.Success)
	assert.Equal(t, 2, result.Attempts)
	assert.False(t, result.RetriesExhausted)
	// The transient failure's error string does not stick to a result that
	// ultimately succeeded.
	assert.Empty(t, result.Error)
}

type recoveringSender struct {
	failures int
	calls    int
}

func (r *recoveringSender) Send(context.Context, string, string, string) (Result, error) {
	r.calls++
	if r.calls <= r.failures {
		return Result{}, errors.New("transient failure")
	}

	return Result{Success: true}, nil
}

func TestExecute_CleanFailureIsNotRetried(t *testing.T) {
	sender := &fakeEmailSender{clean: true}
	executor := newTestExecutor(sender)

	action := models.NewAction(models.ActionKindSendEmail, map[string]any{
		"to": "bob@example.com", "subject": "x",
	})

	result := executor.Execute(context.Background(), action, nil)

	assert.Equal(t, 1, sender.calls)
	assert.Equal(t, 1, result.Attempts)
	assert.False(t, result.Success)
	assert.False(t, result.RetriesExhausted)
	assert.Equal(t, "bounced", result.Output["reason"])
}

func TestExecute_UnknownKindIsNotRetried(t *testing.T) {
	executor := newTestExecutor(&fakeEmailSender{})

	action := models.NewAction(models.ActionKind("teleport_tenant"), nil)

	result := executor.Execute(context.Background(), action, nil)

	assert.False(t, result.Success)
	assert.Equal(t, 0, result.Attempts)
	assert.Equal(t, "unknown action type: teleport_tenant", result.Error)
}

func TestExecute_PanicIsRetriedAsError(t *testing.T) {
	sender := &panicSender{}
	registry := NewRegistry()
	registry.Register(NewEmailHandler(sender))
	executor := NewExecutor(registry, slog.Default()).WithBackoff(zeroBackoff)

	action := models.NewAction(models.ActionKindSendEmail, map[string]any{
		"to": "bob@example.com", "subject": "x",
	})
	action.MaxRetries = 1

	result := executor.Execute(context.Background(), action, nil)

	assert.Equal(t, 2, sender.calls)
	assert.False(t, result.Success)
	assert.True(t, result.RetriesExhausted)
	assert.Contains(t, result.Error, "panicked")
}

func TestExecute_CancelledContextStopsRetryLoop(t *testing.T) {
	sender := &fakeEmailSender{failWith: errors.New("down")}
	executor := newTestExecutor(sender)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	action := models.NewAction(models.ActionKindSendEmail, map[string]any{
		"to": "bob@example.com", "subject": "x",
	})

	result := executor.Execute(ctx, action, nil)

	assert.False(t, result.Success)
	assert.Equal(t, 1, sender.calls)
	assert.Contains(t, result.Error, "context canceled")
}

func TestValidateConfig(t *testing.T) {
	registry := NewRegistry()
	registry.Register(NewEmailHandler(&fakeEmailSender{}))
	registry.Register(NewEscalationHandler(nopEscalator{}))

	err := registry.ValidateConfig(models.ActionKindSendEmail, map[string]any{
		"to": "{tenant_email}", "subject": "Rent due",
	})
	require.NoError(t, err)

	err = registry.ValidateConfig(models.ActionKindSendEmail, map[string]any{"to": "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "subject")

	err = registry.ValidateConfig(models.ActionKindEscalateIssue, map[string]any{
		"issue_id": "i-1", "level": 0,
	})
	require.Error(t, err)

	err = registry.ValidateConfig(models.ActionKind("nope"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not registered")
}

type nopEscalator struct{}

func (nopEscalator) Escalate(context.Context, string, int, string) (Result, error) {
	return Result{Success: true}, nil
}
