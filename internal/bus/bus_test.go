package bus

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ping struct {
	N int
}

type pong struct {
	N int
}

// recordingSink collects handler failures for assertions.
type recordingSink struct {
	mu       sync.Mutex
	failures []error
}

func (s *recordingSink) sink(_ reflect.Type, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, err)
}

func (s *recordingSink) errors() []error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]error(nil), s.failures...)
}

func TestPublishDeliversToAllSubscribers(t *testing.T) {
	b := New()

	var count atomic.Int32
	Subscribe(b, func(ctx context.Context, e ping) error {
		count.Add(1)
		return nil
	})
	Subscribe(b, func(ctx context.Context, e ping) error {
		count.Add(1)
		return nil
	})

	b.Publish(context.Background(), ping{N: 1})
	assert.Equal(t, int32(2), count.Load())
}

func TestPublishExactTypeMatch(t *testing.T) {
	b := New()

	var got atomic.Int32
	Subscribe(b, func(ctx context.Context, e ping) error {
		got.Add(1)
		return nil
	})

	b.Publish(context.Background(), pong{N: 1})
	assert.Zero(t, got.Load(), "pong must not reach a ping handler")
}

func TestPublishZeroSubscribers(t *testing.T) {
	b := New()
	// Must return without blocking or failing.
	b.Publish(context.Background(), ping{})
}

func TestHandlerErrorDoesNotStopSiblings(t *testing.T) {
	sink := &recordingSink{}
	b := New(WithSink(sink.sink))

	var delivered atomic.Int32
	Subscribe(b, func(ctx context.Context, e ping) error {
		return errors.New("boom")
	})
	Subscribe(b, func(ctx context.Context, e ping) error {
		delivered.Add(1)
		return nil
	})

	b.Publish(context.Background(), ping{})

	assert.Equal(t, int32(1), delivered.Load(), "sibling still runs")
	require.Len(t, sink.errors(), 1)
	assert.Contains(t, sink.errors()[0].Error(), "boom")
}

func TestHandlerPanicIsCaptured(t *testing.T) {
	sink := &recordingSink{}
	b := New(WithSink(sink.sink))

	var delivered atomic.Int32
	Subscribe(b, func(ctx context.Context, e ping) error {
		panic("handler exploded")
	})
	Subscribe(b, func(ctx context.Context, e ping) error {
		delivered.Add(1)
		return nil
	})

	b.Publish(context.Background(), ping{})

	assert.Equal(t, int32(1), delivered.Load())
	require.Len(t, sink.errors(), 1)
	assert.Contains(t, sink.errors()[0].Error(), "handler exploded")
}

func TestUnsubscribe(t *testing.T) {
	b := New()

	var count atomic.Int32
	sub := Subscribe(b, func(ctx context.Context, e ping) error {
		count.Add(1)
		return nil
	})
	require.Equal(t, 1, SubscriberCount[ping](b))

	b.Unsubscribe(sub)
	assert.Zero(t, SubscriberCount[ping](b))

	b.Publish(context.Background(), ping{})
	assert.Zero(t, count.Load())

	// Double unsubscribe and nil are no-ops.
	b.Unsubscribe(sub)
	b.Unsubscribe(nil)
}

func TestUnsubscribeOneOfTwo(t *testing.T) {
	b := New()

	var first, second atomic.Int32
	sub1 := Subscribe(b, func(ctx context.Context, e ping) error {
		first.Add(1)
		return nil
	})
	Subscribe(b, func(ctx context.Context, e ping) error {
		second.Add(1)
		return nil
	})

	b.Unsubscribe(sub1)
	b.Publish(context.Background(), ping{})

	assert.Zero(t, first.Load())
	assert.Equal(t, int32(1), second.Load())
}

func TestSameHandlerSubscribedTwice(t *testing.T) {
	b := New()

	var count atomic.Int32
	handler := func(ctx context.Context, e ping) error {
		count.Add(1)
		return nil
	}
	Subscribe(b, handler)
	Subscribe(b, handler)

	b.Publish(context.Background(), ping{})
	assert.Equal(t, int32(2), count.Load(), "each subscription delivers independently")
}

func TestClear(t *testing.T) {
	b := New()
	Subscribe(b, func(ctx context.Context, e ping) error { return nil })
	Subscribe(b, func(ctx context.Context, e pong) error { return nil })

	b.Clear()
	assert.Zero(t, SubscriberCount[ping](b))
	assert.Zero(t, SubscriberCount[pong](b))
}

func TestPublishWaitsForHandlers(t *testing.T) {
	b := New()

	done := make(chan struct{})
	Subscribe(b, func(ctx context.Context, e ping) error {
		close(done)
		return nil
	})

	b.Publish(context.Background(), ping{})
	select {
	case <-done:
	default:
		t.Fatal("Publish returned before the handler ran")
	}
}

func TestSubscriptionEventType(t *testing.T) {
	b := New()
	sub := Subscribe(b, func(ctx context.Context, e ping) error { return nil })
	assert.Equal(t, reflect.TypeOf((*ping)(nil)).Elem(), sub.EventType())
}
