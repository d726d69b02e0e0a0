package actions

import (
	"context"
	"net/http"
	"strings"

	"github.com/estateflow/estateflow/pkg/models"
)

type apiHandler struct {
	caller ApiCaller
}

func NewApiHandler(caller ApiCaller) Handler {
	return &apiHandler{caller: caller}
}

func (*apiHandler) Kind() models.ActionKind {
	return models.ActionKindCallAPI
}

func (h *apiHandler) Execute(ctx context.Context, action *models.Action, execCtx map[string]any) (map[string]any, error) {
	url := renderField(action.Config, "url", execCtx)
	method := strings.ToUpper(renderFieldDefault(action.Config, "method", http.MethodGet, execCtx))
	body := renderField(action.Config, "body", execCtx)

	headers := make(map[string]string)
	for k, v := range renderMapField(action.Config, "headers", execCtx) {
		if s, ok := v.(string); ok {
			headers[k] = s
		}
	}

	res, err := h.caller.Call(ctx, url, method, headers, body)
	if err != nil {
		return nil, err
	}

	return resultOutput(res, map[string]any{
		"url":    url,
		"method": method,
	}), nil
}

func (*apiHandler) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"url": map[string]any{"type": "string"},
			"method": map[string]any{
				"type": "string",
				"enum": []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
			},
			"headers": map[string]any{"type": "object"},
			"body":    map[string]any{"type": "string"},
		},
		"required": []string{"url"},
	}
}
