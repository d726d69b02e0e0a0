package trigger

import (
	"log/slog"
	"testing"
	"time"

	"github.com/estateflow/estateflow/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEvaluator(now time.Time) *Evaluator {
	return NewEvaluator(slog.Default()).WithClock(func() time.Time { return now })
}

func TestEvaluate_ConditionConjunction(t *testing.T) {
	evaluator := newTestEvaluator(time.Now())

	trigger := &models.Trigger{
		Kind: models.TriggerKindCondition,
		Conditions: []models.Condition{
			{Field: "priority", Operator: models.OperatorEquals, Value: "urgent"},
			{Field: "days_overdue", Operator: models.OperatorGreaterThan, Value: 2},
		},
	}

	fired, err := evaluator.Evaluate(trigger, map[string]any{
		"priority":     "urgent",
		"days_overdue": 5,
	}, nil)
	require.NoError(t, err)
	assert.True(t, fired)

	fired, err = evaluator.Evaluate(trigger, map[string]any{
		"priority":     "normal",
		"days_overdue": 5,
	}, nil)
	require.NoError(t, err)
	assert.False(t, fired)

	fired, err = evaluator.Evaluate(trigger, map[string]any{
		"priority":     "urgent",
		"days_overdue": 1,
	}, nil)
	require.NoError(t, err)
	assert.False(t, fired)
}

func TestEvaluate_EmptyConditionListIsVacuouslyTrue(t *testing.T) {
	evaluator := newTestEvaluator(time.Now())

	trigger := &models.Trigger{Kind: models.TriggerKindCondition}

	fired, err := evaluator.Evaluate(trigger, map[string]any{}, nil)
	require.NoError(t, err)
	assert.True(t, fired)
}

func TestEvaluate_ConditionOperators(t *testing.T) {
	evaluator := newTestEvaluator(time.Now())
	ctx := map[string]any{
		"status": "overdue_payment",
		"amount": 1250.0,
	}

	cases := []struct {
		name      string
		condition models.Condition
		expect    bool
	}{
		{"equals", models.Condition{Field: "status", Operator: models.OperatorEquals, Value: "overdue_payment"}, true},
		{"not_equals", models.Condition{Field: "status", Operator: models.OperatorNotEquals, Value: "paid"}, true},
		{"greater_than", models.Condition{Field: "amount", Operator: models.OperatorGreaterThan, Value: 1000}, true},
		{"less_than", models.Condition{Field: "amount", Operator: models.OperatorLessThan, Value: 1000}, false},
		{"contains", models.Condition{Field: "status", Operator: models.OperatorContains, Value: "overdue"}, true},
		{"regex_from_start", models.Condition{Field: "status", Operator: models.OperatorRegex, Value: "overdue_"}, true},
		{"regex_not_anchored_mid_string", models.Condition{Field: "status", Operator: models.OperatorRegex, Value: "payment"}, false},
		{"missing_field_equals", models.Condition{Field: "absent", Operator: models.OperatorEquals, Value: "x"}, false},
		{"missing_field_not_equals", models.Condition{Field: "absent", Operator: models.OperatorNotEquals, Value: "x"}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			trigger := &models.Trigger{
				Kind:       models.TriggerKindCondition,
				Conditions: []models.Condition{tc.condition},
			}

			fired, err := evaluator.Evaluate(trigger, ctx, nil)
			require.NoError(t, err)
			assert.Equal(t, tc.expect, fired)
		})
	}
}

func TestEvaluate_InvalidRegexReportsError(t *testing.T) {
	evaluator := newTestEvaluator(time.Now())

	trigger := &models.Trigger{
		Kind: models.TriggerKindCondition,
		Conditions: []models.Condition{
			{Field: "status", Operator: models.OperatorRegex, Value: "("},
		},
	}

	fired, err := evaluator.Evaluate(trigger, map[string]any{"status": "x"}, nil)
	require.Error(t, err)
	assert.False(t, fired)
}

func TestEvaluate_EventMembership(t *testing.T) {
	evaluator := newTestEvaluator(time.Now())

	trigger := &models.Trigger{
		Kind:   models.TriggerKindEvent,
		Config: map[string]any{"events": []string{"payment_received", "lease_signed"}},
	}

	fired, err := evaluator.Evaluate(trigger, map[string]any{EventTypeKey: "payment_received"}, nil)
	require.NoError(t, err)
	assert.True(t, fired)

	fired, err = evaluator.Evaluate(trigger, map[string]any{EventTypeKey: "tenant_moved_out"}, nil)
	require.NoError(t, err)
	assert.False(t, fired)

	fired, err = evaluator.Evaluate(trigger, map[string]any{}, nil)
	require.NoError(t, err)
	assert.False(t, fired)
}

func TestEvaluate_IntervalTrigger(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	evaluator := newTestEvaluator(now)

	trigger := &models.Trigger{
		Kind:   models.TriggerKindTime,
		Config: map[string]any{"interval_seconds": 3600},
	}

	// Never run: fires immediately.
	fired, err := evaluator.Evaluate(trigger, nil, nil)
	require.NoError(t, err)
	assert.True(t, fired)

	recent := now.Add(-30 * time.Minute)

	fired, err = evaluator.Evaluate(trigger, nil, &recent)
	require.NoError(t, err)
	assert.False(t, fired)

	stale := now.Add(-2 * time.Hour)

	fired, err = evaluator.Evaluate(trigger, nil, &stale)
	require.NoError(t, err)
	assert.True(t, fired)
}

func TestEvaluate_CronTrigger(t *testing.T) {
	// Daily at 09:00; last run yesterday morning means 09:00 today is due
	// by 10:00.
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	evaluator := newTestEvaluator(now)

	trigger := &models.Trigger{
		Kind:   models.TriggerKindTime,
		Config: map[string]any{"cron": "0 9 * * *"},
	}

	yesterday := time.Date(2026, 3, 1, 9, 0, 5, 0, time.UTC)

	fired, err := evaluator.Evaluate(trigger, nil, &yesterday)
	require.NoError(t, err)
	assert.True(t, fired)

	today := time.Date(2026, 3, 2, 9, 0, 5, 0, time.UTC)

	fired, err = evaluator.Evaluate(trigger, nil, &today)
	require.NoError(t, err)
	assert.False(t, fired)
}

func TestEvaluate_TimeTriggerBadConfig(t *testing.T) {
	evaluator := newTestEvaluator(time.Now())

	trigger := &models.Trigger{Kind: models.TriggerKindTime, Config: map[string]any{}}

	fired, err := evaluator.Evaluate(trigger, nil, nil)
	require.Error(t, err)
	assert.False(t, fired)
}

func TestEvaluate_WebhookAndManualNeverAutoFire(t *testing.T) {
	evaluator := newTestEvaluator(time.Now())

	for _, kind := range []models.TriggerKind{models.TriggerKindWebhook, models.TriggerKindManual} {
		fired, err := evaluator.Evaluate(&models.Trigger{Kind: kind}, map[string]any{"anything": true}, nil)
		require.NoError(t, err)
		assert.False(t, fired)
	}
}
