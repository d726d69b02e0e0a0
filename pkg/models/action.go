package models

// ActionKind identifies one of the built-in side-effecting action types.
type ActionKind string

const (
	ActionKindSendEmail        ActionKind = "send_email"
	ActionKindSendSMS          ActionKind = "send_sms"
	ActionKindCreateTask       ActionKind = "create_task"
	ActionKindUpdateRecord     ActionKind = "update_record"
	ActionKindCallAPI          ActionKind = "call_api"
	ActionKindSendNotification ActionKind = "send_notification"
	ActionKindGenerateReport   ActionKind = "generate_report"
	ActionKindEscalateIssue    ActionKind = "escalate_issue"
)

// DefaultMaxRetries bounds how many times a failing action handler is
// re-invoked beyond its first attempt.
const DefaultMaxRetries = 3

// Action is one step in a workflow's ordered action list. Config values may
// contain {placeholder} template tokens that are rendered against the
// execution context. Actions hold only configuration; per-execution state
// such as the attempt count belongs to the ActionResult, so one action can
// be executed concurrently.
type Action struct {
	ID         string         `json:"id"`
	Kind       ActionKind     `json:"kind"   validate:"required,oneof=send_email send_sms create_task update_record call_api send_notification generate_report escalate_issue"`
	Config     map[string]any `json:"config,omitempty"`
	MaxRetries int            `json:"max_retries"`
}

// NewAction builds an action with the default retry budget.
func NewAction(kind ActionKind, config map[string]any) *Action {
	if config == nil {
		config = map[string]any{}
	}

	return &Action{
		Kind:       kind,
		Config:     config,
		MaxRetries: DefaultMaxRetries,
	}
}

// Clone returns a deep copy so workflows never share action state.
func (a *Action) Clone() *Action {
	clone := *a
	clone.Config = cloneMap(a.Config)

	return &clone
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}

	out := make(map[string]any, len(m))

	for k, v := range m {
		if nested, ok := v.(map[string]any); ok {
			out[k] = cloneMap(nested)

			continue
		}

		out[k] = v
	}

	return out
}
