package models

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordRun_ConcurrentStatsStayConsistent(t *testing.T) {
	workflow := &Workflow{ID: "wf-1", Status: WorkflowStatusActive}

	var wg sync.WaitGroup

	const rounds = 100

	for i := range rounds {
		wg.Add(1)

		go func(success bool) {
			defer wg.Done()
			workflow.RecordRun(success, time.Now())
		}(i%3 != 0)
	}

	wg.Wait()

	run, success, failure := workflow.Stats()
	assert.Equal(t, int64(rounds), run)
	assert.Equal(t, run, success+failure)
	assert.NotNil(t, workflow.LastRunTime())
}

func TestWorkflowClone_IsDeep(t *testing.T) {
	lastRun := time.Now().UTC()
	workflow := &Workflow{
		ID:   "wf-1",
		Name: "original",
		Trigger: &Trigger{
			Kind:       TriggerKindCondition,
			Config:     map[string]any{"nested": map[string]any{"k": "v"}},
			Conditions: []Condition{{Field: "severity", Operator: OperatorEquals, Value: "critical"}},
		},
		Actions: []*Action{
			NewAction(ActionKindSendEmail, map[string]any{"to": "a@b.c", "subject": "s"}),
		},
		Status:   WorkflowStatusActive,
		LastRun:  &lastRun,
		RunCount: 4,
	}

	clone := workflow.Clone()

	clone.Name = "changed"
	clone.Trigger.Config["extra"] = true
	clone.Trigger.Conditions[0].Value = "low"
	clone.Actions[0].Config["to"] = "x@y.z"
	*clone.LastRun = clone.LastRun.Add(time.Hour)

	assert.Equal(t, "original", workflow.Name)
	assert.NotContains(t, workflow.Trigger.Config, "extra")
	assert.Equal(t, "critical", workflow.Trigger.Conditions[0].Value)
	assert.Equal(t, "a@b.c", workflow.Actions[0].Config["to"])
	assert.Equal(t, lastRun, *workflow.LastRun)
}

func TestTrigger_EventNames(t *testing.T) {
	trigger := &Trigger{
		Kind:   TriggerKindEvent,
		Config: map[string]any{"events": []string{"payment_received"}},
	}
	assert.Equal(t, []string{"payment_received"}, trigger.EventNames())
	assert.True(t, trigger.SubscribesTo("payment_received"))
	assert.False(t, trigger.SubscribesTo("lease_signed"))

	// Configs loaded from JSON carry []any.
	trigger.Config = map[string]any{"events": []any{"lease_signed", 42}}
	assert.Equal(t, []string{"lease_signed"}, trigger.EventNames())

	trigger.Config = nil
	assert.Nil(t, trigger.EventNames())
}

func TestNewExecutionID(t *testing.T) {
	id := NewExecutionID()
	require.True(t, strings.HasPrefix(id, "exec-"))
	assert.Len(t, id, len("exec-")+8)
	assert.NotEqual(t, id, NewExecutionID())
}

func TestExecutionResult_Recorded(t *testing.T) {
	assert.True(t, ExecutionResult{Success: true}.Recorded())
	assert.True(t, ExecutionResult{Success: false}.Recorded())
	assert.False(t, ExecutionResult{Skipped: true}.Recorded())
	assert.False(t, ExecutionResult{Message: "workflow is paused"}.Recorded())
}
