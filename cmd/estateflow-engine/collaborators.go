package main

import (
	"context"
	"log/slog"

	"github.com/estateflow/estateflow/pkg/actions"
)

// The daemon has no real delivery integrations; these stand-ins log what
// would be sent and report success. Deployments embed the engine and inject
// their own collaborator implementations.
func newCollaborators(logger *slog.Logger) actions.Collaborators {
	logger = logger.With("module", "collaborators")

	return actions.Collaborators{
		Email:         logEmail{logger},
		SMS:           logSMS{logger},
		Tasks:         logTasks{logger},
		Records:       logRecords{logger},
		API:           logAPI{logger},
		Notifications: logNotifications{logger},
		Reports:       logReports{logger},
		Escalations:   logEscalations{logger},
	}
}

func ok() (actions.Result, error) {
	return actions.Result{Success: true}, nil
}

type logEmail struct{ logger *slog.Logger }

func (c logEmail) Send(ctx context.Context, to, subject, body string) (actions.Result, error) {
	c.logger.InfoContext(ctx, "Would send email", "to", to, "subject", subject)

	return ok()
}

type logSMS struct{ logger *slog.Logger }

func (c logSMS) Send(ctx context.Context, phone, message string) (actions.Result, error) {
	c.logger.InfoContext(ctx, "Would send SMS", "phone", phone)

	return ok()
}

type logTasks struct{ logger *slog.Logger }

func (c logTasks) Create(ctx context.Context, task actions.Task) (actions.Result, error) {
	c.logger.InfoContext(ctx, "Would create task", "title", task.Title, "priority", task.Priority)

	return ok()
}

type logRecords struct{ logger *slog.Logger }

func (c logRecords) Update(ctx context.Context, table, recordID string, fields map[string]any) (actions.Result, error) {
	c.logger.InfoContext(ctx, "Would update record", "table", table, "record_id", recordID)

	return ok()
}

type logAPI struct{ logger *slog.Logger }

func (c logAPI) Call(ctx context.Context, url, method string, headers map[string]string, body string) (actions.Result, error) {
	c.logger.InfoContext(ctx, "Would call API", "url", url, "method", method)

	return ok()
}

type logNotifications struct{ logger *slog.Logger }

func (c logNotifications) Notify(ctx context.Context, userID, title, message string) (actions.Result, error) {
	c.logger.InfoContext(ctx, "Would send notification", "user_id", userID, "title", title)

	return ok()
}

type logReports struct{ logger *slog.Logger }

func (c logReports) Generate(ctx context.Context, reportType string, filters map[string]any, format string) (actions.Result, error) {
	c.logger.InfoContext(ctx, "Would generate report", "report_type", reportType, "format", format)

	return ok()
}

type logEscalations struct{ logger *slog.Logger }

func (c logEscalations) Escalate(ctx context.Context, issueID string, level int, reason string) (actions.Result, error) {
	c.logger.InfoContext(ctx, "Would escalate issue", "issue_id", issueID, "level", level)

	return ok()
}
