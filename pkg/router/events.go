package router

import (
	"log/slog"
	"runtime/debug"
	"sync"
)

// EventPrefix scopes every router event name.
const EventPrefix = "router:"

// Event names emitted by the router. Subscribe with the short name; the bus
// adds EventPrefix.
const (
	EventRouteChanged = "route:changed"
	EventRouteError   = "route:error"
)

// ChangeEvent is the payload of EventRouteChanged.
type ChangeEvent struct {
	To    *ResolvedRoute
	From  *ResolvedRoute
	State any
}

// ErrorEvent is the payload of EventRouteError.
type ErrorEvent struct {
	Err   error
	Path  string
	State any
}

// Listener receives an event payload.
type Listener func(payload any)

type subscription struct {
	id int
	fn Listener
}

// Bus is the router's observer registry. Listeners run synchronously, in
// registration order, on the goroutine that emits.
type Bus struct {
	mu        sync.Mutex
	listeners map[string][]subscription
	nextID    int
	logger    *slog.Logger
}

func newBus(logger *slog.Logger) *Bus {
	return &Bus{
		listeners: make(map[string][]subscription),
		logger:    logger,
	}
}

// On subscribes fn to the named event and returns a function that removes
// this subscription. Calling the returned function more than once is safe.
func (b *Bus) On(name string, fn Listener) (off func()) {
	key := EventPrefix + name

	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.listeners[key] = append(b.listeners[key], subscription{id: id, fn: fn})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.listeners[key]
		for i, s := range subs {
			if s.id == id {
				b.listeners[key] = append(subs[:i:i], subs[i+1:]...)
				return
			}
		}
	}
}

// Off removes every listener of the named event.
func (b *Bus) Off(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.listeners, EventPrefix+name)
}

// Emit delivers payload to the listeners of the named event. A panicking
// listener is recovered and logged; the remaining listeners still run.
func (b *Bus) Emit(name string, payload any) {
	key := EventPrefix + name

	b.mu.Lock()
	subs := append([]subscription(nil), b.listeners[key]...)
	b.mu.Unlock()

	for _, s := range subs {
		b.deliver(key, s.fn, payload)
	}
}

// Count returns the number of listeners for the named event.
func (b *Bus) Count(name string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listeners[EventPrefix+name])
}

func (b *Bus) clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = make(map[string][]subscription)
}

func (b *Bus) deliver(key string, fn Listener, payload any) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event listener panic",
				"event", key,
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()
	fn(payload)
}
