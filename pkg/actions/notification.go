package actions

import (
	"context"

	"github.com/estateflow/estateflow/pkg/models"
)

type notificationHandler struct {
	notifier Notifier
}

func NewNotificationHandler(notifier Notifier) Handler {
	return &notificationHandler{notifier: notifier}
}

func (*notificationHandler) Kind() models.ActionKind {
	return models.ActionKindSendNotification
}

func (h *notificationHandler) Execute(ctx context.Context, action *models.Action, execCtx map[string]any) (map[string]any, error) {
	userID := renderField(action.Config, "user_id", execCtx)
	title := renderField(action.Config, "title", execCtx)
	message := renderField(action.Config, "message", execCtx)

	res, err := h.notifier.Notify(ctx, userID, title, message)
	if err != nil {
		return nil, err
	}

	return resultOutput(res, map[string]any{
		"user_id": userID,
		"title":   title,
	}), nil
}

func (*notificationHandler) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"user_id": map[string]any{"type": "string"},
			"title":   map[string]any{"type": "string"},
			"message": map[string]any{"type": "string"},
		},
		"required": []string{"user_id", "title"},
	}
}
