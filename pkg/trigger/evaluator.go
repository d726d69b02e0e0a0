// Package trigger decides whether a workflow should fire for a given
// execution context.
package trigger

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/estateflow/estateflow/pkg/models"
	"github.com/estateflow/estateflow/pkg/template"
)

// EventTypeKey is the context key carrying the dispatched event name.
const EventTypeKey = "event_type"

// Evaluator evaluates trigger specifications. Evaluation never mutates the
// trigger or the context; an evaluation error means "did not fire" to the
// caller, and the scheduler loop must never crash on one.
type Evaluator struct {
	logger *slog.Logger
	now    func() time.Time
}

func NewEvaluator(logger *slog.Logger) *Evaluator {
	return &Evaluator{
		logger: logger.With("module", "trigger_evaluator"),
		now:    time.Now,
	}
}

// WithClock overrides the time source, for tests and replay.
func (e *Evaluator) WithClock(now func() time.Time) *Evaluator {
	clone := *e
	clone.now = now

	return &clone
}

// Evaluate reports whether the trigger fires for the given context.
// Webhook and manual triggers never auto-fire; they run only through an
// explicit execute call, which bypasses evaluation entirely.
func (e *Evaluator) Evaluate(t *models.Trigger, ctx map[string]any, lastRun *time.Time) (bool, error) {
	if t == nil {
		return false, fmt.Errorf("trigger is nil")
	}

	switch t.Kind {
	case models.TriggerKindTime:
		return e.evaluateTime(t, lastRun)
	case models.TriggerKindEvent:
		return e.evaluateEvent(t, ctx), nil
	case models.TriggerKindCondition:
		return e.evaluateConditions(t.Conditions, ctx)
	case models.TriggerKindWebhook, models.TriggerKindManual:
		return false, nil
	default:
		return false, fmt.Errorf("unknown trigger kind %q", t.Kind)
	}
}

func (e *Evaluator) evaluateTime(t *models.Trigger, lastRun *time.Time) (bool, error) {
	spec, err := models.ParseTimeSpec(t.Config)
	if err != nil {
		return false, err
	}

	return spec.Due(lastRun, e.now()), nil
}

func (e *Evaluator) evaluateEvent(t *models.Trigger, ctx map[string]any) bool {
	eventType, _ := ctx[EventTypeKey].(string)
	if eventType == "" {
		return false
	}

	return t.SubscribesTo(eventType)
}

// evaluateConditions is a short-circuit conjunction over the ordered
// condition list. An empty list is vacuously true: a condition trigger with
// no conditions always fires.
func (e *Evaluator) evaluateConditions(conditions []models.Condition, ctx map[string]any) (bool, error) {
	for _, condition := range conditions {
		ok, err := evaluateCondition(condition, ctx)
		if err != nil {
			return false, fmt.Errorf("condition on field %q: %w", condition.Field, err)
		}

		if !ok {
			e.logger.Debug("Condition evaluated false, short-circuiting",
				"field", condition.Field,
				"operator", condition.Operator)

			return false, nil
		}
	}

	return true, nil
}

func evaluateCondition(c models.Condition, ctx map[string]any) (bool, error) {
	actual, present := ctx[c.Field]

	switch c.Operator {
	case models.OperatorEquals:
		return present && valuesEqual(actual, c.Value), nil
	case models.OperatorNotEquals:
		return !present || !valuesEqual(actual, c.Value), nil
	case models.OperatorGreaterThan:
		return compareNumeric(actual, c.Value, func(a, b float64) bool { return a > b })
	case models.OperatorLessThan:
		return compareNumeric(actual, c.Value, func(a, b float64) bool { return a < b })
	case models.OperatorContains:
		return strings.Contains(template.Stringify(actual), template.Stringify(c.Value)), nil
	case models.OperatorRegex:
		return matchRegex(actual, c.Value)
	default:
		return false, fmt.Errorf("unknown operator %q", c.Operator)
	}
}

// valuesEqual compares via stringified forms so 500 and 500.0 and "500"
// compare equal, matching how context values round-trip through JSON.
func valuesEqual(a, b any) bool {
	return template.Stringify(a) == template.Stringify(b)
}

func compareNumeric(actual, expected any, cmp func(a, b float64) bool) (bool, error) {
	a, ok := toFloat(actual)
	if !ok {
		return false, nil
	}

	b, ok := toFloat(expected)
	if !ok {
		return false, fmt.Errorf("value %v is not numeric", expected)
	}

	return cmp(a, b), nil
}

// matchRegex anchor-matches the pattern from the start of the stringified
// field value.
func matchRegex(actual, pattern any) (bool, error) {
	expr := template.Stringify(pattern)

	re, err := regexp.Compile(expr)
	if err != nil {
		return false, fmt.Errorf("invalid regex %q: %w", expr, err)
	}

	loc := re.FindStringIndex(template.Stringify(actual))

	return loc != nil && loc[0] == 0, nil
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	case string:
		f, err := strconv.ParseFloat(v, 64)

		return f, err == nil
	default:
		return 0, false
	}
}
