// Package ports define the EventBus interface for event-driven communication.
// The event bus replaces UI callbacks and enables loose coupling between components.
package ports

import (
	"github.com/tejashwikalptaru/tunedeck/internal/domain"
)

// EventBus is the interface for publishing and subscribing to events.
//
// Producers (the deck, the playback engine) do not know their consumers (a UI
// presenter, the CLI, logging). Implementations must be safe for concurrent use.
//
// Example usage:
//
//	subID := bus.Subscribe(domain.EventPlaylistUpdated, func(event domain.Event) {
//	    e := event.(domain.PlaylistUpdatedEvent)
//	    view.Render(e.Playlist, e.Tracks)
//	})
//	defer bus.Unsubscribe(subID)
type EventBus interface {
	// Publish delivers an event to all subscribers of its type.
	// Handlers must return quickly; long work belongs on a separate goroutine.
	Publish(event domain.Event)

	// Subscribe registers a handler for events of the specified type.
	// Each call yields a distinct SubscriptionID.
	Subscribe(eventType domain.EventType, handler domain.EventHandler) domain.SubscriptionID

	// Unsubscribe removes a handler. Unknown IDs are a no-op.
	Unsubscribe(id domain.SubscriptionID)

	// SubscribeAll registers a handler that receives every event.
	SubscribeAll(handler domain.EventHandler) domain.SubscriptionID

	// HasSubscribers reports whether anyone listens for eventType.
	HasSubscribers(eventType domain.EventType) bool

	// Close shuts down the bus. Publishing afterwards is a no-op.
	Close() error
}

// EventFilter decides whether an event is delivered to a filtered subscriber.
type EventFilter func(event domain.Event) bool

// FilteringEventBus extends EventBus with filtered subscriptions.
type FilteringEventBus interface {
	EventBus

	// SubscribeFiltered registers a handler that only sees events passing filter.
	//
	// Example: only react to the handle currently loaded
	//	bus.SubscribeFiltered(domain.EventEngineEnded, func(e domain.Event) bool {
	//	    return e.(domain.EngineEndedEvent).Handle == loaded
	//	}, onEnded)
	SubscribeFiltered(eventType domain.EventType, filter EventFilter, handler domain.EventHandler) domain.SubscriptionID
}
