package actions

import (
	"context"

	"github.com/estateflow/estateflow/pkg/models"
	"github.com/estateflow/estateflow/pkg/template"
)

// Handler executes one action kind. Execute renders the action's templated
// config against the execution context, performs the side effect through a
// collaborator and returns a structured output map. A returned error is
// retryable; a clean failure is reported as output["success"] == false.
type Handler interface {
	Kind() models.ActionKind
	Execute(ctx context.Context, action *models.Action, execCtx map[string]any) (map[string]any, error)
	Schema() map[string]any
}

func renderField(config map[string]any, key string, execCtx map[string]any) string {
	raw, _ := config[key].(string)

	return template.Render(raw, execCtx)
}

func renderFieldDefault(config map[string]any, key, fallback string, execCtx map[string]any) string {
	raw, ok := config[key].(string)
	if !ok || raw == "" {
		raw = fallback
	}

	return template.Render(raw, execCtx)
}

func renderMapField(config map[string]any, key string, execCtx map[string]any) map[string]any {
	raw, _ := config[key].(map[string]any)

	return template.RenderConfig(raw, execCtx)
}

func resultOutput(res Result, fields map[string]any) map[string]any {
	out := map[string]any{"success": res.Success}

	for k, v := range res.Details {
		out[k] = v
	}

	for k, v := range fields {
		out[k] = v
	}

	return out
}
