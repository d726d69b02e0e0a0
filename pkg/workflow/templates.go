package workflow

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/estateflow/estateflow/pkg/models"
	"github.com/google/uuid"
)

// TemplateInfo is the read-only catalog entry exposed to callers.
type TemplateInfo struct {
	Name        string             `json:"name"`
	DisplayName string             `json:"display_name"`
	TriggerType models.TriggerKind `json:"trigger_type"`
	ActionCount int                `json:"action_count"`
}

type workflowTemplate struct {
	displayName string
	description string
	trigger     models.Trigger
	actions     []models.Action
}

// templateCatalog is the fixed set of predefined property-management
// workflows. Action configs are merged with caller overrides at
// instantiation; templates themselves are never mutated.
var templateCatalog = map[string]workflowTemplate{
	"rent_reminder": {
		displayName: "Rent Payment Reminder",
		description: "Reminds tenants by email and SMS when rent is coming due.",
		trigger: models.Trigger{
			Kind:   models.TriggerKindTime,
			Config: map[string]any{"cron": "0 9 * * *"},
		},
		actions: []models.Action{
			{
				Kind: models.ActionKindSendEmail,
				Config: map[string]any{
					"to":      "{tenant_email}",
					"subject": "Rent payment reminder",
					"body":    "Hello {tenant_name}, your rent of {amount} is due on {due_date}.",
				},
			},
			{
				Kind: models.ActionKindSendSMS,
				Config: map[string]any{
					"phone":   "{tenant_phone}",
					"message": "Reminder: rent of {amount} is due on {due_date}.",
				},
			},
		},
	},
	"maintenance_escalation": {
		displayName: "Maintenance Request Escalation",
		description: "Escalates maintenance requests that stay open too long.",
		trigger: models.Trigger{
			Kind:   models.TriggerKindEvent,
			Config: map[string]any{"events": []string{"maintenance_request_overdue"}},
		},
		actions: []models.Action{
			{
				Kind: models.ActionKindEscalateIssue,
				Config: map[string]any{
					"issue_id": "{request_id}",
					"level":    2,
					"reason":   "Maintenance request open for {days_open} days",
				},
			},
			{
				Kind: models.ActionKindSendNotification,
				Config: map[string]any{
					"user_id": "{property_manager_id}",
					"title":   "Maintenance request escalated",
					"message": "Request {request_id} at {property_name} was escalated.",
				},
			},
		},
	},
	"lease_renewal": {
		displayName: "Lease Renewal Outreach",
		description: "Contacts tenants and opens a task when a lease nears expiry.",
		trigger: models.Trigger{
			Kind:   models.TriggerKindEvent,
			Config: map[string]any{"events": []string{"lease_expiring"}},
		},
		actions: []models.Action{
			{
				Kind: models.ActionKindSendEmail,
				Config: map[string]any{
					"to":      "{tenant_email}",
					"subject": "Your lease is expiring soon",
					"body":    "Hello {tenant_name}, your lease ends on {lease_end_date}. Reply to discuss renewal.",
				},
			},
			{
				Kind: models.ActionKindCreateTask,
				Config: map[string]any{
					"title":       "Prepare renewal offer for {tenant_name}",
					"description": "Lease for unit {unit_number} expires {lease_end_date}.",
					"assigned_to": "{property_manager_id}",
					"priority":    "high",
				},
			},
		},
	},
	"payment_processing": {
		displayName: "Payment Received Processing",
		description: "Updates the ledger and confirms received payments.",
		trigger: models.Trigger{
			Kind:   models.TriggerKindEvent,
			Config: map[string]any{"events": []string{"payment_received"}},
		},
		actions: []models.Action{
			{
				Kind: models.ActionKindUpdateRecord,
				Config: map[string]any{
					"table":     "payments",
					"record_id": "{payment_id}",
					"fields": map[string]any{
						"status":       "processed",
						"processed_at": "{received_at}",
					},
				},
			},
			{
				Kind: models.ActionKindSendNotification,
				Config: map[string]any{
					"user_id": "{tenant_id}",
					"title":   "Payment received",
					"message": "We received your payment of {amount}. Thank you!",
				},
			},
		},
	},
	"security_alert": {
		displayName: "Security Incident Alert",
		description: "Notifies and escalates when a severe security incident is reported.",
		trigger: models.Trigger{
			Kind: models.TriggerKindCondition,
			Conditions: []models.Condition{
				{Field: "severity", Operator: models.OperatorEquals, Value: "critical"},
			},
		},
		actions: []models.Action{
			{
				Kind: models.ActionKindSendNotification,
				Config: map[string]any{
					"user_id": "{property_manager_id}",
					"title":   "Security alert at {property_name}",
					"message": "{incident_description}",
				},
			},
			{
				Kind: models.ActionKindEscalateIssue,
				Config: map[string]any{
					"issue_id": "{incident_id}",
					"level":    3,
					"reason":   "Critical security incident",
				},
			},
		},
	},
}

// defaultSeedTemplates are instantiated on Start when seeding is enabled.
var defaultSeedTemplates = []string{
	"rent_reminder",
	"maintenance_escalation",
	"lease_renewal",
}

// Templates returns the catalog sorted by name.
func (e *Engine) Templates() []TemplateInfo {
	infos := make([]TemplateInfo, 0, len(templateCatalog))

	for name, tmpl := range templateCatalog {
		infos = append(infos, TemplateInfo{
			Name:        name,
			DisplayName: tmpl.displayName,
			TriggerType: tmpl.trigger.Kind,
			ActionCount: len(tmpl.actions),
		})
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })

	return infos
}

// CreateWorkflowFromTemplate instantiates a catalog template. Overrides are
// merged into every action's config, so callers can redirect recipients or
// adjust thresholds without redefining the workflow.
func (e *Engine) CreateWorkflowFromTemplate(ctx context.Context, templateName string, overrides map[string]any) (string, error) {
	tmpl, ok := templateCatalog[templateName]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrInvalidTemplate, templateName)
	}

	trigger := tmpl.trigger
	trigger.Conditions = append([]models.Condition(nil), tmpl.trigger.Conditions...)
	trigger.Config = mergeConfig(tmpl.trigger.Config, nil)

	workflowActions := make([]*models.Action, 0, len(tmpl.actions))

	for _, templateAction := range tmpl.actions {
		action := models.NewAction(templateAction.Kind, mergeConfig(templateAction.Config, overrides))
		action.ID = uuid.New().String()
		workflowActions = append(workflowActions, action)
	}

	workflow := &models.Workflow{
		ID:          uuid.New().String(),
		Name:        tmpl.displayName,
		Description: tmpl.description,
		Trigger:     &trigger,
		Actions:     workflowActions,
		Status:      models.WorkflowStatusActive,
		CreatedAt:   time.Now().UTC(),
	}

	if err := e.register(ctx, workflow); err != nil {
		return "", err
	}

	return workflow.ID, nil
}

func (e *Engine) seedDefaultWorkflows(ctx context.Context) {
	e.mu.RLock()
	empty := len(e.workflows) == 0
	e.mu.RUnlock()

	if !empty {
		return
	}

	for _, name := range defaultSeedTemplates {
		if _, err := e.CreateWorkflowFromTemplate(ctx, name, nil); err != nil {
			e.logger.Error("Failed to seed template workflow",
				"template", name, "error", err)
		}
	}
}

// mergeConfig copies base and lays overrides on top. Only keys the caller
// supplies are replaced.
func mergeConfig(base, overrides map[string]any) map[string]any {
	merged := make(map[string]any, len(base)+len(overrides))

	for k, v := range base {
		merged[k] = v
	}

	for k, v := range overrides {
		merged[k] = v
	}

	return merged
}
