package actions

import (
	"context"

	"github.com/estateflow/estateflow/pkg/models"
)

type taskHandler struct {
	creator TaskCreator
}

func NewTaskHandler(creator TaskCreator) Handler {
	return &taskHandler{creator: creator}
}

func (*taskHandler) Kind() models.ActionKind {
	return models.ActionKindCreateTask
}

func (h *taskHandler) Execute(ctx context.Context, action *models.Action, execCtx map[string]any) (map[string]any, error) {
	task := Task{
		Title:       renderField(action.Config, "title", execCtx),
		Description: renderField(action.Config, "description", execCtx),
		AssignedTo:  renderField(action.Config, "assigned_to", execCtx),
		Priority:    renderFieldDefault(action.Config, "priority", "normal", execCtx),
		DueDate:     renderField(action.Config, "due_date", execCtx),
	}

	res, err := h.creator.Create(ctx, task)
	if err != nil {
		return nil, err
	}

	return resultOutput(res, map[string]any{
		"title":    task.Title,
		"priority": task.Priority,
	}), nil
}

func (*taskHandler) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title":       map[string]any{"type": "string"},
			"description": map[string]any{"type": "string"},
			"assigned_to": map[string]any{"type": "string"},
			"priority": map[string]any{
				"type": "string",
				"enum": []string{"low", "normal", "high", "urgent"},
			},
			"due_date": map[string]any{"type": "string"},
		},
		"required": []string{"title"},
	}
}
