package outbox

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	domoutbox "github.com/Zhima-Mochi/shophub/internal/domain/outbox"
	obsinfra "github.com/Zhima-Mochi/shophub/internal/infrastructure/observability"
	"github.com/Zhima-Mochi/shophub/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/shophub/internal/infrastructure/observability/zaplogger"
	"github.com/Zhima-Mochi/shophub/internal/observability"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type testEvent struct{ name string }

func (e testEvent) EventName() string { return e.name }

type keyedEvent struct{ id string }

func (keyedEvent) EventName() string     { return "order.cancelled" }
func (e keyedEvent) AggregateID() string { return e.id }

func stop(t *testing.T, b *Bus) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	b.Stop(ctx)
}

func TestBusFansOutToEverySubscriber(t *testing.T) {
	b := NewBus(nil)
	var got sync.Map
	var wg sync.WaitGroup
	wg.Add(2)
	for _, id := range []string{"a", "b"} {
		b.Subscribe("order.created", func(_ context.Context, e domoutbox.Event) error {
			got.Store(id, e.EventName())
			wg.Done()
			return nil
		})
	}
	b.Start(context.Background())

	require.NoError(t, b.Publish(context.Background(), testEvent{name: "order.created"}))
	require.NoError(t, b.Publish(context.Background(), testEvent{name: "nobody.listens"}))
	wg.Wait()
	stop(t, b)

	for _, id := range []string{"a", "b"} {
		v, ok := got.Load(id)
		require.True(t, ok)
		assert.Equal(t, "order.created", v)
	}
}

func TestBusStopDrainsQueue(t *testing.T) {
	b := NewBus(nil, WithQueueSize(16), WithConcurrency(1))
	var handled atomic.Int32
	b.Subscribe("tick", func(context.Context, domoutbox.Event) error {
		time.Sleep(time.Millisecond)
		handled.Add(1)
		return nil
	})
	b.Start(context.Background())
	for range 10 {
		require.NoError(t, b.Publish(context.Background(), testEvent{name: "tick"}))
	}
	stop(t, b)

	assert.EqualValues(t, 10, handled.Load())
	assert.ErrorIs(t, b.Publish(context.Background(), testEvent{name: "tick"}), ErrClosed)
}

func TestBusSurvivesFailingHandlers(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	tel := obsinfra.New(nil, zaplogger.New(zap.New(core)), nil, nil)
	b := NewBus(tel, WithHandlerTimeout(time.Second))

	done := make(chan struct{})
	b.Subscribe("boom", func(context.Context, domoutbox.Event) error { panic("kaboom") })
	b.Subscribe("boom", func(context.Context, domoutbox.Event) error { return errors.New("nope") })
	b.Subscribe("after", func(context.Context, domoutbox.Event) error { close(done); return nil })
	b.Start(context.Background())

	require.NoError(t, b.Publish(context.Background(), testEvent{name: "boom"}))
	require.NoError(t, b.Publish(context.Background(), testEvent{name: "after"}))
	<-done
	stop(t, b)

	assert.Equal(t, 1, logs.FilterMessage("event_handler_panic").Len())
	assert.Equal(t, 1, logs.FilterMessage("event_handler_error").Len())
	entry := logs.FilterMessage("event_handler_panic").All()[0]
	assert.Equal(t, "boom", entry.ContextMap()["event"])
	assert.Equal(t, "outbox", entry.ContextMap()["component"])
}

func TestStopWithoutStart(t *testing.T) {
	b := NewBus(nil)
	stop(t, b)
	assert.ErrorIs(t, b.Publish(context.Background(), testEvent{name: "x"}), ErrClosed)
}

func TestPublishRespectsContextWhenFull(t *testing.T) {
	b := NewBus(nil, WithQueueSize(1))
	require.NoError(t, b.Publish(context.Background(), testEvent{name: "x"}))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, b.Publish(ctx, testEvent{name: "x"}), context.DeadlineExceeded)
	stop(t, b)
}

func TestBusCountsHandlerOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	counters, histograms := prometrics.Standard(prometrics.New(reg, "", ""))
	core, logs := observer.New(zap.DebugLevel)
	b := NewBus(obsinfra.New(nil, zaplogger.New(zap.New(core)), counters, histograms))

	var wg sync.WaitGroup
	wg.Add(2)
	b.Subscribe("order.cancelled", func(context.Context, domoutbox.Event) error { wg.Done(); return nil })
	b.Subscribe("order.cancelled", func(context.Context, domoutbox.Event) error { wg.Done(); return errors.New("nope") })
	b.Start(context.Background())

	require.NoError(t, b.Publish(context.Background(), keyedEvent{id: "order-7"}))
	wg.Wait()
	stop(t, b)

	assert.Equal(t, 1.0, counterValue(t, reg, string(observability.MEventsHandled), "success"))
	assert.Equal(t, 1.0, counterValue(t, reg, string(observability.MEventsHandled), "error"))

	failed := logs.FilterMessage("event_handler_error").All()
	require.Len(t, failed, 1)
	assert.Equal(t, "order-7", failed[0].ContextMap()["aggregate_id"])
}

func counterValue(t *testing.T, reg *prometheus.Registry, name, outcome string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, m := range f.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "outcome" && lp.GetValue() == outcome {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}
