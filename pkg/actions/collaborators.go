// Package actions executes configured workflow actions against injected
// collaborator interfaces, with bounded retry on unexpected failure.
package actions

import "context"

// Result is the outcome a collaborator reports for one side effect.
// Success false is a clean, non-retryable failure; a returned error is
// treated as an unexpected fault and retried.
type Result struct {
	Success bool
	Details map[string]any
}

// Task is the payload handed to a TaskCreator.
type Task struct {
	Title       string
	Description string
	AssignedTo  string
	Priority    string
	DueDate     string
}

// Collaborator interfaces for the eight action kinds. The engine consumes
// these but never implements them; email delivery, Slack, the database and
// so on live outside this module.
type (
	EmailSender interface {
		Send(ctx context.Context, to, subject, body string) (Result, error)
	}

	SmsSender interface {
		Send(ctx context.Context, phone, message string) (Result, error)
	}

	TaskCreator interface {
		Create(ctx context.Context, task Task) (Result, error)
	}

	RecordUpdater interface {
		Update(ctx context.Context, table, recordID string, fields map[string]any) (Result, error)
	}

	ApiCaller interface {
		Call(ctx context.Context, url, method string, headers map[string]string, body string) (Result, error)
	}

	Notifier interface {
		Notify(ctx context.Context, userID, title, message string) (Result, error)
	}

	ReportGenerator interface {
		Generate(ctx context.Context, reportType string, filters map[string]any, format string) (Result, error)
	}

	Escalator interface {
		Escalate(ctx context.Context, issueID string, level int, reason string) (Result, error)
	}
)

// Collaborators bundles every side-effect dependency the handlers need.
type Collaborators struct {
	Email         EmailSender
	SMS           SmsSender
	Tasks         TaskCreator
	Records       RecordUpdater
	API           ApiCaller
	Notifications Notifier
	Reports       ReportGenerator
	Escalations   Escalator
}
