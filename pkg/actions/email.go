package actions

import (
	"context"

	"github.com/estateflow/estateflow/pkg/models"
)

type emailHandler struct {
	sender EmailSender
}

func NewEmailHandler(sender EmailSender) Handler {
	return &emailHandler{sender: sender}
}

func (*emailHandler) Kind() models.ActionKind {
	return models.ActionKindSendEmail
}

func (h *emailHandler) Execute(ctx context.Context, action *models.Action, execCtx map[string]any) (map[string]any, error) {
	to := renderField(action.Config, "to", execCtx)
	subject := renderField(action.Config, "subject", execCtx)
	body := renderField(action.Config, "body", execCtx)

	res, err := h.sender.Send(ctx, to, subject, body)
	if err != nil {
		return nil, err
	}

	return resultOutput(res, map[string]any{
		"recipient": to,
		"subject":   subject,
	}), nil
}

func (*emailHandler) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"to": map[string]any{
				"type":        "string",
				"description": "Recipient address. Supports {placeholder} templating.",
			},
			"subject": map[string]any{
				"type": "string",
			},
			"body": map[string]any{
				"type": "string",
			},
		},
		"required": []string{"to", "subject"},
	}
}
