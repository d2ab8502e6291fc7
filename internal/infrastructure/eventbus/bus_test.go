package eventbus

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zhima-Mochi/candyshop/internal/domain/event"
)

type testEvent struct {
	name string
}

func (e testEvent) EventName() string { return e.name }

func startedBus(t *testing.T) *Bus {
	t.Helper()
	bus := NewBus(nil)
	bus.Start(context.Background())
	t.Cleanup(func() { bus.Stop(context.Background()) })
	return bus
}

func TestBus_DeliversToAllSubscribers(t *testing.T) {
	bus := startedBus(t)

	var (
		mu    sync.Mutex
		seen  []string
		done  = make(chan struct{}, 2)
		track = func(tag string) event.Handler {
			return func(_ context.Context, e event.Event) error {
				mu.Lock()
				seen = append(seen, tag+":"+e.EventName())
				mu.Unlock()
				done <- struct{}{}
				return nil
			}
		}
	)

	bus.Subscribe("order.paid", track("a"))
	bus.Subscribe("order.paid", track("b"))

	require.NoError(t, bus.Publish(context.Background(), testEvent{name: "order.paid"}))

	for i := 0; i < 2; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("handler was not invoked")
		}
	}

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []string{"a:order.paid", "b:order.paid"}, seen)
}

func TestBus_IgnoresUnsubscribedEvents(t *testing.T) {
	bus := startedBus(t)

	invoked := make(chan struct{}, 1)
	bus.Subscribe("order.paid", func(context.Context, event.Event) error {
		invoked <- struct{}{}
		return nil
	})

	require.NoError(t, bus.Publish(context.Background(), testEvent{name: "order.shipped"}))

	select {
	case <-invoked:
		t.Fatal("handler for a different event must not fire")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestBus_SurvivesPanickingHandler(t *testing.T) {
	bus := startedBus(t)

	delivered := make(chan struct{}, 1)
	bus.Subscribe("order.paid", func(context.Context, event.Event) error {
		panic("boom")
	})
	bus.Subscribe("order.paid", func(context.Context, event.Event) error {
		delivered <- struct{}{}
		return nil
	})

	require.NoError(t, bus.Publish(context.Background(), testEvent{name: "order.paid"}))

	select {
	case <-delivered:
	case <-time.After(2 * time.Second):
		t.Fatal("panic in one handler must not block the others")
	}

	// The dispatch loop keeps running after a panic.
	require.NoError(t, bus.Publish(context.Background(), testEvent{name: "order.paid"}))
	select {
	case <-delivered:
	case <-time.After(2 * time.Second):
		t.Fatal("bus stopped dispatching after a handler panic")
	}
}

func TestBus_HandlerErrorsDoNotPropagate(t *testing.T) {
	bus := startedBus(t)

	delivered := make(chan struct{}, 1)
	bus.Subscribe("order.paid", func(context.Context, event.Event) error {
		defer func() { delivered <- struct{}{} }()
		return errors.New("handler failed")
	})

	require.NoError(t, bus.Publish(context.Background(), testEvent{name: "order.paid"}))

	select {
	case <-delivered:
	case <-time.After(2 * time.Second):
		t.Fatal("handler was not invoked")
	}
}

func TestBus_PublishAfterStopReturnsError(t *testing.T) {
	bus := NewBus(nil)
	bus.Start(context.Background())
	bus.Stop(context.Background())

	assert.NotPanics(t, func() {
		err := bus.Publish(context.Background(), testEvent{name: "order.paid"})
		assert.ErrorIs(t, err, ErrBusStopped)
	})
}

func TestBus_ConcurrentPublishDuringStopDoesNotPanic(t *testing.T) {
	bus := NewBus(nil)
	bus.Start(context.Background())

	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				_ = bus.Publish(context.Background(), testEvent{name: "order.paid"})
			}
		}()
	}
	bus.Stop(context.Background())
	wg.Wait()
}

func TestBus_PublishNilEventIsNoop(t *testing.T) {
	bus := startedBus(t)
	assert.NoError(t, bus.Publish(context.Background(), nil))
}
