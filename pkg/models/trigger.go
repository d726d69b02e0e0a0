package models

// TriggerKind identifies how a workflow decides it should run.
type TriggerKind string

const (
	TriggerKindTime      TriggerKind = "time"
	TriggerKindEvent     TriggerKind = "event"
	TriggerKindCondition TriggerKind = "condition"
	TriggerKindWebhook   TriggerKind = "webhook"
	TriggerKindManual    TriggerKind = "manual"
)

// Operator is a comparison operator used by condition triggers.
type Operator string

const (
	OperatorEquals      Operator = "equals"
	OperatorNotEquals   Operator = "not_equals"
	OperatorGreaterThan Operator = "greater_than"
	OperatorLessThan    Operator = "less_than"
	OperatorContains    Operator = "contains"
	OperatorRegex       Operator = "regex"
)

// Condition compares a single context field against a fixed value.
type Condition struct {
	Field    string   `json:"field"    validate:"required"`
	Operator Operator `json:"operator" validate:"required,oneof=equals not_equals greater_than less_than contains regex"`
	Value    any      `json:"value"`
}

// Trigger describes when a workflow should fire. Config carries
// kind-specific settings: "interval_seconds" or "cron" for time triggers,
// "events" (a list of event names) for event triggers. Condition triggers
// fire only when every condition holds; there is no OR support.
type Trigger struct {
	Kind       TriggerKind    `json:"kind"                 validate:"required,oneof=time event condition webhook manual"`
	Config     map[string]any `json:"config,omitempty"`
	Conditions []Condition    `json:"conditions,omitempty" validate:"dive"`
}

// EventNames returns the event names an event trigger subscribes to.
func (t *Trigger) EventNames() []string {
	raw, ok := t.Config["events"]
	if !ok {
		return nil
	}

	switch v := raw.(type) {
	case []string:
		return v
	case []any:
		names := make([]string, 0, len(v))

		for _, item := range v {
			if s, ok := item.(string); ok {
				names = append(names, s)
			}
		}

		return names
	default:
		return nil
	}
}

// SubscribesTo reports whether an event trigger listens for eventType.
func (t *Trigger) SubscribesTo(eventType string) bool {
	for _, name := range t.EventNames() {
		if name == eventType {
			return true
		}
	}

	return false
}
