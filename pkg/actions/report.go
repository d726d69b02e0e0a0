package actions

import (
	"context"

	"github.com/estateflow/estateflow/pkg/models"
)

type reportHandler struct {
	generator ReportGenerator
}

func NewReportHandler(generator ReportGenerator) Handler {
	return &reportHandler{generator: generator}
}

func (*reportHandler) Kind() models.ActionKind {
	return models.ActionKindGenerateReport
}

func (h *reportHandler) Execute(ctx context.Context, action *models.Action, execCtx map[string]any) (map[string]any, error) {
	reportType := renderField(action.Config, "report_type", execCtx)
	format := renderFieldDefault(action.Config, "format", "pdf", execCtx)
	filters := renderMapField(action.Config, "filters", execCtx)

	res, err := h.generator.Generate(ctx, reportType, filters, format)
	if err != nil {
		return nil, err
	}

	return resultOutput(res, map[string]any{
		"report_type": reportType,
		"format":      format,
	}), nil
}

func (*reportHandler) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"report_type": map[string]any{"type": "string"},
			"filters":     map[string]any{"type": "object"},
			"format": map[string]any{
				"type": "string",
				"enum": []string{"pdf", "csv", "xlsx"},
			},
		},
		"required": []string{"report_type"},
	}
}
