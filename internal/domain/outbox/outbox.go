package outbox

import "context"

// Event is a fact published after a state change has been committed.
type Event interface {
	EventName() string
}

// Keyed events belong to one aggregate. The bus tags its logs with the key.
type Keyed interface {
	Event
	AggregateID() string
}

// KeyOf returns e's aggregate id, or "" for events that are not Keyed.
func KeyOf(e Event) string {
	if k, ok := e.(Keyed); ok {
		return k.AggregateID()
	}
	return ""
}

type Handler func(ctx context.Context, e Event) error

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

type Subscriber interface {
	Subscribe(eventName string, h Handler)
}

// Bus carries events from the use cases that commit changes to the workers that react to them.
type Bus interface {
	Publisher
	Subscriber
}
