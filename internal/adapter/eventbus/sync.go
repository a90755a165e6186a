// Package eventbus provides implementations of the EventBus interface.
package eventbus

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/echoverse/echoverse/internal/domain"
	"github.com/echoverse/echoverse/internal/ports"
)

// ErrClosed is returned by Close on an already closed bus.
var ErrClosed = errors.New("event bus already closed")

// SyncEventBus delivers events to handlers synchronously, on the publisher's
// goroutine, in subscription order. Type-specific handlers run before filtered
// and wildcard handlers.
//
// Handlers must return quickly; a handler that needs to do slow work should
// hand the event off to its own goroutine.
type SyncEventBus struct {
	logger *slog.Logger

	mu       sync.RWMutex
	byType   map[domain.EventType][]subscription
	filtered []subscription
	closed   bool

	idCounter atomic.Uint64
}

type subscription struct {
	id      domain.SubscriptionID
	filter  ports.EventFilter
	handler domain.EventHandler
}

// NewSyncEventBus creates a new synchronous event bus. logger may be nil.
func NewSyncEventBus(logger *slog.Logger) *SyncEventBus {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SyncEventBus{
		logger: logger.With(slog.String("component", "eventbus")),
		byType: make(map[domain.EventType][]subscription),
	}
}

// Publish delivers event to every matching subscriber.
// Publishing on a closed bus is a no-op. Panics in handlers are recovered and logged.
func (bus *SyncEventBus) Publish(event domain.Event) {
	if event == nil {
		return
	}

	bus.mu.RLock()
	if bus.closed {
		bus.mu.RUnlock()
		return
	}
	typed := append([]subscription(nil), bus.byType[event.Type()]...)
	filtered := append([]subscription(nil), bus.filtered...)
	bus.mu.RUnlock()

	for _, sub := range typed {
		bus.deliver(sub, event)
	}
	for _, sub := range filtered {
		if sub.filter != nil && !sub.filter(event) {
			continue
		}
		bus.deliver(sub, event)
	}
}

func (bus *SyncEventBus) deliver(sub subscription, event domain.Event) {
	defer func() {
		if r := recover(); r != nil {
			bus.logger.Error("event handler panicked",
				slog.Any("panic", r),
				slog.String("event_type", string(event.Type())),
				slog.String("subscription", string(sub.id)))
		}
	}()
	sub.handler(event)
}

// Subscribe registers a handler for events of the specified type.
func (bus *SyncEventBus) Subscribe(eventType domain.EventType, handler domain.EventHandler) domain.SubscriptionID {
	if handler == nil {
		panic("event handler cannot be nil")
	}

	bus.mu.Lock()
	defer bus.mu.Unlock()
	if bus.closed {
		panic("cannot subscribe to closed event bus")
	}

	sub := subscription{id: bus.nextID("sub"), handler: handler}
	bus.byType[eventType] = append(bus.byType[eventType], sub)
	return sub.id
}

// SubscribeAll registers a handler that receives all events regardless of type.
func (bus *SyncEventBus) SubscribeAll(handler domain.EventHandler) domain.SubscriptionID {
	return bus.subscribeFiltered("sub-all", nil, handler)
}

// SubscribeFiltered registers a handler for every event accepted by filter.
func (bus *SyncEventBus) SubscribeFiltered(filter ports.EventFilter, handler domain.EventHandler) domain.SubscriptionID {
	if filter == nil {
		panic("event filter cannot be nil")
	}
	return bus.subscribeFiltered("sub-filtered", filter, handler)
}

func (bus *SyncEventBus) subscribeFiltered(prefix string, filter ports.EventFilter, handler domain.EventHandler) domain.SubscriptionID {
	if handler == nil {
		panic("event handler cannot be nil")
	}

	bus.mu.Lock()
	defer bus.mu.Unlock()
	if bus.closed {
		panic("cannot subscribe to closed event bus")
	}

	sub := subscription{id: bus.nextID(prefix), filter: filter, handler: handler}
	bus.filtered = append(bus.filtered, sub)
	return sub.id
}

func (bus *SyncEventBus) nextID(prefix string) domain.SubscriptionID {
	return domain.SubscriptionID(fmt.Sprintf("%s-%d", prefix, bus.idCounter.Add(1)))
}

// Unsubscribe removes a previously registered handler. Unknown ids are ignored.
// Delivery order of the remaining subscribers is preserved.
func (bus *SyncEventBus) Unsubscribe(id domain.SubscriptionID) {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	for eventType, subs := range bus.byType {
		if i := indexOf(subs, id); i >= 0 {
			bus.byType[eventType] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
	if i := indexOf(bus.filtered, id); i >= 0 {
		bus.filtered = append(bus.filtered[:i:i], bus.filtered[i+1:]...)
	}
}

func indexOf(subs []subscription, id domain.SubscriptionID) int {
	for i, sub := range subs {
		if sub.id == id {
			return i
		}
	}
	return -1
}

// HasSubscribers reports whether any subscriber could receive an event of eventType.
func (bus *SyncEventBus) HasSubscribers(eventType domain.EventType) bool {
	bus.mu.RLock()
	defer bus.mu.RUnlock()
	return len(bus.byType[eventType]) > 0 || len(bus.filtered) > 0
}

// SubscriberCount returns the number of active subscriptions.
func (bus *SyncEventBus) SubscriberCount() int {
	bus.mu.RLock()
	defer bus.mu.RUnlock()

	count := len(bus.filtered)
	for _, subs := range bus.byType {
		count += len(subs)
	}
	return count
}

// Close drops all subscriptions. Later publishes are ignored.
func (bus *SyncEventBus) Close() error {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	if bus.closed {
		return ErrClosed
	}
	bus.closed = true
	bus.byType = make(map[domain.EventType][]subscription)
	bus.filtered = nil
	return nil
}

var _ ports.FilteringEventBus = (*SyncEventBus)(nil)
