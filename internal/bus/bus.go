// Package bus implements the typed publish/subscribe channel between
// systems. Events are identity-less payloads delivered by exact type match:
// no supertype or interface matching, no relation to entities.
//
// Handler failures are isolated. A handler that returns an error or panics
// never stops its siblings and never propagates to the publisher; the
// failure is reported to the bus's sink instead (slog by default), so it
// cannot silently vanish.
package bus

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"runtime/debug"
	"sync"
)

// Sink receives handler failures for observability. Implementations must be
// safe for concurrent use: Publish invokes the sink from handler goroutines.
type Sink func(eventType reflect.Type, err error)

// slogSink is the default sink. Failures land in the structured log.
func slogSink(eventType reflect.Type, err error) {
	slog.Error("event handler failed",
		"event_type", eventType.String(),
		"error", err,
	)
}

// Subscription is the handle returned by Subscribe. Go functions are not
// comparable, so unsubscription works through this handle rather than
// through the handler value itself.
type Subscription struct {
	id        uint64
	eventType reflect.Type
	handle    func(ctx context.Context, event any) error
}

// EventType returns the exact event type this subscription matches.
func (s *Subscription) EventType() reflect.Type {
	return s.eventType
}

// Bus is a typed publish/subscribe fan-out.
//
// Thread-safety model:
//   - Subscribe/Unsubscribe/Clear: safe from any goroutine
//   - Publish: safe from any goroutine; runs handlers concurrently and
//     waits for all of them before returning
type Bus struct {
	mu       sync.RWMutex
	handlers map[reflect.Type][]*Subscription
	nextID   uint64
	sink     Sink
}

// Option configures a Bus.
type Option func(*Bus)

// WithSink routes handler failures to a custom observability sink.
func WithSink(sink Sink) Option {
	return func(b *Bus) {
		if sink != nil {
			b.sink = sink
		}
	}
}

// New creates an empty bus.
func New(opts ...Option) *Bus {
	b := &Bus{
		handlers: make(map[reflect.Type][]*Subscription),
		sink:     slogSink,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers handler for events of exactly type T and returns the
// handle needed to unsubscribe it. The same function may be subscribed more
// than once; each call yields an independent subscription.
func Subscribe[T any](b *Bus, handler func(ctx context.Context, event T) error) *Subscription {
	t := reflect.TypeOf((*T)(nil)).Elem()
	sub := &Subscription{
		eventType: t,
		handle: func(ctx context.Context, event any) error {
			return handler(ctx, event.(T))
		},
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	sub.id = b.nextID
	b.handlers[t] = append(b.handlers[t], sub)
	return sub
}

// Unsubscribe removes a subscription. Unknown or already-removed
// subscriptions are a no-op.
func (b *Bus) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.handlers[sub.eventType]
	for i, s := range subs {
		if s.id == sub.id {
			b.handlers[sub.eventType] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(b.handlers[sub.eventType]) == 0 {
		delete(b.handlers, sub.eventType)
	}
}

// Clear drops every subscription for every event type.
func (b *Bus) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = make(map[reflect.Type][]*Subscription)
}

// SubscriberCount returns the number of live subscriptions for type T.
func SubscriberCount[T any](b *Bus) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[reflect.TypeOf((*T)(nil)).Elem()])
}

// Publish delivers event to every handler subscribed to its exact type,
// concurrently, and waits for all of them to finish. Publishing to a type
// with zero subscribers returns immediately.
//
// Publish never returns an error: handler failures go to the sink.
func (b *Bus) Publish(ctx context.Context, event any) {
	t := reflect.TypeOf(event)

	b.mu.RLock()
	subs := b.handlers[t]
	snapshot := make([]*Subscription, len(subs))
	copy(snapshot, subs)
	b.mu.RUnlock()

	if len(snapshot) == 0 {
		return
	}

	var wg sync.WaitGroup
	wg.Add(len(snapshot))
	for _, sub := range snapshot {
		go func(sub *Subscription) {
			defer wg.Done()
			if err := b.runHandler(ctx, sub, event); err != nil {
				b.sink(t, err)
			}
		}(sub)
	}
	wg.Wait()
}

// runHandler invokes one handler with panic recovery. A panicking handler
// surfaces as an error carrying the recovered value and stack.
func (b *Bus) runHandler(ctx context.Context, sub *Subscription, event any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v\n%s", r, debug.Stack())
		}
	}()
	return sub.handle(ctx, event)
}
