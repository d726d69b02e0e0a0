package actions

import (
	"context"
	"strconv"

	"github.com/estateflow/estateflow/pkg/models"
)

type escalationHandler struct {
	escalator Escalator
}

func NewEscalationHandler(escalator Escalator) Handler {
	return &escalationHandler{escalator: escalator}
}

func (*escalationHandler) Kind() models.ActionKind {
	return models.ActionKindEscalateIssue
}

func (h *escalationHandler) Execute(ctx context.Context, action *models.Action, execCtx map[string]any) (map[string]any, error) {
	issueID := renderField(action.Config, "issue_id", execCtx)
	reason := renderField(action.Config, "reason", execCtx)
	level := escalationLevel(action.Config)

	res, err := h.escalator.Escalate(ctx, issueID, level, reason)
	if err != nil {
		return nil, err
	}

	return resultOutput(res, map[string]any{
		"issue_id": issueID,
		"level":    level,
	}), nil
}

func escalationLevel(config map[string]any) int {
	switch v := config["level"].(type) {
	case int:
		return v
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}

	return 1
}

func (*escalationHandler) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"issue_id": map[string]any{"type": "string"},
			"level": map[string]any{
				"type":    "integer",
				"minimum": 1,
			},
			"reason": map[string]any{"type": "string"},
		},
		"required": []string{"issue_id"},
	}
}
