package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Listener observes one kind of session event.
type Listener func(context.Context, Event) error

// Dispatcher fans session events out to their listeners.
type Dispatcher interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType EventType, listener Listener)
}

// SessionBus delivers session events synchronously, on the publisher's
// goroutine, in subscription order.
type SessionBus struct {
	mu        sync.RWMutex
	listeners map[EventType][]Listener
}

var _ Dispatcher = (*SessionBus)(nil)

func NewSessionBus() *SessionBus {
	return &SessionBus{listeners: make(map[EventType][]Listener)}
}

// Publish hands event to every listener of its type. A failing or panicking
// listener does not stop the others; failures come back joined and tagged
// with the event type.
func (b *SessionBus) Publish(ctx context.Context, event Event) error {
	b.mu.RLock()
	listeners := append([]Listener(nil), b.listeners[event.Type]...)
	b.mu.RUnlock()

	var errs []error
	for i, listener := range listeners {
		if err := deliver(ctx, listener, event); err != nil {
			errs = append(errs, fmt.Errorf("%s listener %d: %w", event.Type, i, err))
		}
	}
	return errors.Join(errs...)
}

func (b *SessionBus) Subscribe(eventType EventType, listener Listener) {
	if listener == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners[eventType] = append(b.listeners[eventType], listener)
}

func deliver(ctx context.Context, listener Listener, event Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return listener(ctx, event)
}
