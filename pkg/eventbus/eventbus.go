package eventbus

import (
	"context"

	"github.com/amirasaad/stealthmoney/pkg/domain/events"
)

// HandlerFunc processes one event. A returned error is logged by the bus
// and, for durable buses, routes the message to the dead-letter stream.
type HandlerFunc func(ctx context.Context, e events.Event) error

// Bus publishes events and dispatches them to registered handlers.
type Bus interface {
	Emit(ctx context.Context, event events.Event) error
	Register(eventType events.EventType, handler HandlerFunc)
}
