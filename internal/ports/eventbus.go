// Package ports define the EventBus interface for event-driven communication.
// The event bus replaces polling and enables loose coupling between components.
package ports

import (
	"github.com/echoverse/echoverse/internal/domain"
)

// EventBus is the interface for publishing and subscribing to events.
//
// The event bus decouples event producers (services) from event consumers
// (the HTTP shell, the websocket stream, logging). Multiple subscribers can
// listen to the same event, and subscribers don't know about publishers.
//
// Thread-safety: Implementations must be thread-safe as events may be published and
// subscribed from multiple goroutines simultaneously.
//
// Example usage:
//
//	subID := bus.Subscribe(domain.EventAccrualTick, func(event domain.Event) {
//	    e := event.(domain.AccrualTickEvent)
//	    fmt.Println(e.Total)
//	})
//	defer bus.Unsubscribe(subID)
type EventBus interface {
	// Publish publishes an event to all subscribers of that event type.
	// Handlers must not block for long periods.
	Publish(event domain.Event)

	// Subscribe registers a handler for events of the specified type.
	// Returns a SubscriptionID that can be used to unsubscribe later.
	Subscribe(eventType domain.EventType, handler domain.EventHandler) domain.SubscriptionID

	// Unsubscribe removes a previously registered event handler.
	// If the subscription ID is invalid or already unsubscribed, this is a no-op.
	Unsubscribe(id domain.SubscriptionID)

	// SubscribeAll registers a handler that receives all events regardless of type.
	SubscribeAll(handler domain.EventHandler) domain.SubscriptionID

	// HasSubscribers returns true if there are any active subscriptions for the given event type.
	HasSubscribers(eventType domain.EventType) bool

	// Close shuts down the event bus and cleans up resources.
	Close() error
}

// EventFilter is a function that determines if an event should be delivered to a subscriber.
type EventFilter func(event domain.Event) bool

// FilteringEventBus extends EventBus with filtered subscriptions.
type FilteringEventBus interface {
	EventBus

	// SubscribeFiltered registers a handler for all events that pass the filter.
	//
	// Example: only forward playlist events of one user to a websocket client
	//	bus.SubscribeFiltered(func(e domain.Event) bool {
	//	    pe, ok := e.(domain.PlaylistChangedEvent)
	//	    return ok && pe.Playlist.UserID == userID
	//	}, forward)
	SubscribeFiltered(filter EventFilter, handler domain.EventHandler) domain.SubscriptionID
}
