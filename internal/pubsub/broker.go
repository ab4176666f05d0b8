// Package pubsub provides a small typed subscription broker.
// Components own a broker instance rather than inheriting emitter behavior,
// which keeps every published message an explicit, enumerable type.
package pubsub

import (
	"log/slog"
	"sync"
)

// Broker fans events out synchronously to registered listeners.
// Delivery order across listeners is unspecified. A panicking listener is
// recovered and logged so it cannot poison the publishing component.
type Broker[T any] struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]func(T)
	logger *slog.Logger
}

// NewBroker creates an empty broker.
func NewBroker[T any](logger *slog.Logger) *Broker[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broker[T]{
		subs:   make(map[int]func(T)),
		logger: logger,
	}
}

// Subscribe registers a listener and returns its unsubscribe handle.
// The handle is idempotent.
func (b *Broker[T]) Subscribe(fn func(T)) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// Publish delivers the event to every current listener.
func (b *Broker[T]) Publish(event T) {
	b.mu.RLock()
	listeners := make([]func(T), 0, len(b.subs))
	for _, fn := range b.subs {
		listeners = append(listeners, fn)
	}
	b.mu.RUnlock()

	for _, fn := range listeners {
		b.deliver(fn, event)
	}
}

// Len returns the number of active listeners.
func (b *Broker[T]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

func (b *Broker[T]) deliver(fn func(T), event T) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event listener panicked", "panic", r)
		}
	}()
	fn(event)
}
