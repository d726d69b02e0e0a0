package actions

import (
	"context"

	"github.com/estateflow/estateflow/pkg/models"
)

type recordHandler struct {
	updater RecordUpdater
}

func NewRecordHandler(updater RecordUpdater) Handler {
	return &recordHandler{updater: updater}
}

func (*recordHandler) Kind() models.ActionKind {
	return models.ActionKindUpdateRecord
}

func (h *recordHandler) Execute(ctx context.Context, action *models.Action, execCtx map[string]any) (map[string]any, error) {
	table := renderField(action.Config, "table", execCtx)
	recordID := renderField(action.Config, "record_id", execCtx)
	fields := renderMapField(action.Config, "fields", execCtx)

	res, err := h.updater.Update(ctx, table, recordID, fields)
	if err != nil {
		return nil, err
	}

	return resultOutput(res, map[string]any{
		"table":     table,
		"record_id": recordID,
	}), nil
}

func (*recordHandler) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"table":     map[string]any{"type": "string"},
			"record_id": map[string]any{"type": "string"},
			"fields": map[string]any{
				"type":        "object",
				"description": "Column/value pairs to apply. String values support templating.",
			},
		},
		"required": []string{"table", "record_id"},
	}
}
