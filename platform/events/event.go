// Package events is the in-process publish/subscribe layer. Importers publish
// when a run finishes; notification handlers subscribe by event name.
package events

import (
	"context"
	"time"
)

// Event is anything published on a Bus.
type Event interface {
	// EventName is the subscription key, e.g. "addresses.import_completed".
	EventName() string
	OccurredAt() time.Time
}

// BaseEvent carries the publish time. Embed it in concrete events.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// NewBaseEvent stamps an event with the current time.
func NewBaseEvent() BaseEvent {
	return BaseEvent{Timestamp: time.Now()}
}

// Handler reacts to one published event. A returned error is logged by the
// bus and never reaches the publisher.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus fans events out to subscribers. Publish does not wait for handlers,
// so a slow mail send never holds up an import response.
type Bus interface {
	Publish(ctx context.Context, event Event)
	Subscribe(eventName string, handler Handler)
}
