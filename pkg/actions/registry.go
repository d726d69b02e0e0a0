package actions

import (
	"fmt"

	"github.com/estateflow/estateflow/pkg/models"
	"github.com/xeipuuv/gojsonschema"
)

// Registry maps action kinds to their handlers.
type Registry struct {
	handlers map[models.ActionKind]Handler
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[models.ActionKind]Handler)}
}

func (r *Registry) Register(handler Handler) {
	r.handlers[handler.Kind()] = handler
}

func (r *Registry) Handler(kind models.ActionKind) (Handler, bool) {
	handler, ok := r.handlers[kind]

	return handler, ok
}

// Kinds returns the registered action kinds.
func (r *Registry) Kinds() []models.ActionKind {
	kinds := make([]models.ActionKind, 0, len(r.handlers))
	for kind := range r.handlers {
		kinds = append(kinds, kind)
	}

	return kinds
}

// ValidateConfig checks an action config against the handler's JSON schema.
// Used at workflow creation time; execution never re-validates.
func (r *Registry) ValidateConfig(kind models.ActionKind, config map[string]any) error {
	handler, ok := r.handlers[kind]
	if !ok {
		return fmt.Errorf("action type '%s' not registered", kind)
	}

	if config == nil {
		config = map[string]any{}
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(handler.Schema()),
		gojsonschema.NewGoLoader(config),
	)
	if err != nil {
		return fmt.Errorf("failed to validate %s config: %w", kind, err)
	}

	if !result.Valid() {
		return fmt.Errorf("invalid %s config: %s", kind, result.Errors()[0].String())
	}

	return nil
}

// DefaultRegistry wires all eight built-in handlers against the given
// collaborators.
func DefaultRegistry(c Collaborators) *Registry {
	registry := NewRegistry()

	registry.Register(NewEmailHandler(c.Email))
	registry.Register(NewSmsHandler(c.SMS))
	registry.Register(NewTaskHandler(c.Tasks))
	registry.Register(NewRecordHandler(c.Records))
	registry.Register(NewApiHandler(c.API))
	registry.Register(NewNotificationHandler(c.Notifications))
	registry.Register(NewReportHandler(c.Reports))
	registry.Register(NewEscalationHandler(c.Escalations))

	return registry
}
