package worker

import (
	"context"
	"errors"
	"testing"

	appinventory "github.com/Zhima-Mochi/shophub/internal/application/inventory"
	domcatalog "github.com/Zhima-Mochi/shophub/internal/domain/catalog"
	domorder "github.com/Zhima-Mochi/shophub/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/shophub/internal/domain/outbox"
	obsinfra "github.com/Zhima-Mochi/shophub/internal/infrastructure/observability"
	"github.com/Zhima-Mochi/shophub/internal/infrastructure/observability/zaplogger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type captureSubscriber map[string]domoutbox.Handler

func (c captureSubscriber) Subscribe(name string, h domoutbox.Handler) { c[name] = h }

type releaseFunc func(context.Context, appinventory.ReleaseStockInput) (*appinventory.ReleaseStockResult, error)

func (f releaseFunc) Execute(ctx context.Context, in appinventory.ReleaseStockInput) (*appinventory.ReleaseStockResult, error) {
	return f(ctx, in)
}

func TestWorkerReleasesCancelledOrders(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	tel := obsinfra.New(nil, zaplogger.New(zap.New(core)), nil, nil)
	subs := captureSubscriber{}

	var calls []string
	New(subs, releaseFunc(func(_ context.Context, in appinventory.ReleaseStockInput) (*appinventory.ReleaseStockResult, error) {
		calls = append(calls, in.OrderID)
		if in.OrderID == "bad" {
			return nil, errors.New("db down")
		}
		return &appinventory.ReleaseStockResult{Released: true, Lines: []domcatalog.StockLine{{ProductID: "p", Quantity: 2}}}, nil
	}), tel).Start()

	h, ok := subs[domorder.CancelledEvent{}.EventName()]
	require.True(t, ok)

	require.NoError(t, h(context.Background(), domorder.CancelledEvent{OrderID: "o1"}))
	require.Error(t, h(context.Background(), domorder.CancelledEvent{OrderID: "bad"}))
	require.NoError(t, h(context.Background(), domorder.PaidEvent{OrderID: "ignored"}))

	assert.Equal(t, []string{"o1", "bad"}, calls)
	handled := logs.FilterMessage("stock_release_handled").All()
	require.Len(t, handled, 1)
	assert.Equal(t, "inventory_worker", handled[0].ContextMap()["component"])
	assert.Equal(t, true, handled[0].ContextMap()["released"])
	assert.Equal(t, 1, logs.FilterMessage("stock_release_failed").Len())
}
