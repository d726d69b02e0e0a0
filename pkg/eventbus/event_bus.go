// Package eventbus publishes engine lifecycle events to interested
// subscribers over a watermill publisher/subscriber pair.
package eventbus

import (
	"context"

	"github.com/estateflow/estateflow/pkg/events"
)

type EventHandler func(ctx context.Context, event events.Event) error

type EventBus interface {
	Publish(ctx context.Context, key string, event events.Event) error
	Subscribe(ctx context.Context) error
	Handle(eventType events.EventType, handler EventHandler)
	GenerateID() string
	Close() error
}
