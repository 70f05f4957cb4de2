package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	apppayment "github.com/Zhima-Mochi/shophub/internal/application/payment"
	domorder "github.com/Zhima-Mochi/shophub/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/shophub/internal/domain/outbox"
	obsinfra "github.com/Zhima-Mochi/shophub/internal/infrastructure/observability"
	"github.com/Zhima-Mochi/shophub/internal/infrastructure/observability/zaplogger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type captureSubscriber map[string]domoutbox.Handler

func (c captureSubscriber) Subscribe(name string, h domoutbox.Handler) { c[name] = h }

type saleFunc func(context.Context, domorder.PaidEvent) (struct{}, error)

func (f saleFunc) Execute(ctx context.Context, e domorder.PaidEvent) (struct{}, error) { return f(ctx, e) }

type reconcileFunc func(context.Context, apppayment.ReconcileInput) (*apppayment.ReconcileResult, error)

func (f reconcileFunc) Execute(ctx context.Context, in apppayment.ReconcileInput) (*apppayment.ReconcileResult, error) {
	return f(ctx, in)
}

func TestWorkerRecordsSales(t *testing.T) {
	subs := captureSubscriber{}
	var sources []string
	New(subs, saleFunc(func(_ context.Context, e domorder.PaidEvent) (struct{}, error) {
		sources = append(sources, e.Source)
		return struct{}{}, nil
	}), nil).Start()

	h := subs[domorder.PaidEvent{}.EventName()]
	require.NotNil(t, h)
	require.NoError(t, h(context.Background(), domorder.PaidEvent{OrderID: "o1", Source: "webhook"}))
	require.NoError(t, h(context.Background(), domorder.CancelledEvent{OrderID: "o2"}))
	assert.Equal(t, []string{"webhook"}, sources)
}

func TestReconcilerRunOnce(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	tel := obsinfra.New(nil, zaplogger.New(zap.New(core)), nil, nil)

	var grace time.Duration
	r := NewReconciler(reconcileFunc(func(_ context.Context, in apppayment.ReconcileInput) (*apppayment.ReconcileResult, error) {
		grace = in.Grace
		return &apppayment.ReconcileResult{Checked: 2, Paid: 1, Failed: 1}, nil
	}), time.Minute, 3*time.Minute, tel)
	r.RunOnce(context.Background())

	assert.Equal(t, 3*time.Minute, grace)
	done := logs.FilterMessage("reconcile_pass_done").All()
	require.Len(t, done, 1)
	assert.EqualValues(t, 1, done[0].ContextMap()["paid"])
	assert.Equal(t, "payment_reconciler", done[0].ContextMap()["component"])

	failing := NewReconciler(reconcileFunc(func(context.Context, apppayment.ReconcileInput) (*apppayment.ReconcileResult, error) {
		return nil, errors.New("db down")
	}), 0, 0, tel)
	failing.RunOnce(context.Background())
	assert.Equal(t, 1, logs.FilterMessage("reconcile_pass_failed").Len())
}

func TestReconcilerRunStopsWithContext(t *testing.T) {
	defer goleak.VerifyNone(t)

	var passes atomic.Int32
	r := NewReconciler(reconcileFunc(func(context.Context, apppayment.ReconcileInput) (*apppayment.ReconcileResult, error) {
		passes.Add(1)
		return &apppayment.ReconcileResult{}, nil
	}), 5*time.Millisecond, 0, nil)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- r.Run(ctx) }()

	require.Eventually(t, func() bool { return passes.Load() >= 2 }, time.Second, time.Millisecond)
	cancel()
	assert.NoError(t, <-errc)
}
