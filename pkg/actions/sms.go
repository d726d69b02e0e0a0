package actions

import (
	"context"

	"github.com/estateflow/estateflow/pkg/models"
)

type smsHandler struct {
	sender SmsSender
}

func NewSmsHandler(sender SmsSender) Handler {
	return &smsHandler{sender: sender}
}

func (*smsHandler) Kind() models.ActionKind {
	return models.ActionKindSendSMS
}

func (h *smsHandler) Execute(ctx context.Context, action *models.Action, execCtx map[string]any) (map[string]any, error) {
	phone := renderField(action.Config, "phone", execCtx)
	message := renderField(action.Config, "message", execCtx)

	res, err := h.sender.Send(ctx, phone, message)
	if err != nil {
		return nil, err
	}

	return resultOutput(res, map[string]any{"phone": phone}), nil
}

func (*smsHandler) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"phone": map[string]any{
				"type": "string",
			},
			"message": map[string]any{
				"type":        "string",
				"description": "Message text. Supports {placeholder} templating.",
			},
		},
		"required": []string{"phone", "message"},
	}
}
