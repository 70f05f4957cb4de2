package worker

import (
	"context"

	"github.com/Zhima-Mochi/shophub/internal/application"
	appinventory "github.com/Zhima-Mochi/shophub/internal/application/inventory"
	domorder "github.com/Zhima-Mochi/shophub/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/shophub/internal/domain/outbox"
	"github.com/Zhima-Mochi/shophub/internal/observability"
	"github.com/Zhima-Mochi/shophub/internal/observability/logctx"
	workerpresentation "github.com/Zhima-Mochi/shophub/internal/presentation/worker"
)

const componentInventoryWorker = "inventory_worker"

// Worker puts a cancelled order's stock back on the shelf.
type Worker struct {
	subscriber domoutbox.Subscriber
	release    application.UseCase[appinventory.ReleaseStockInput, *appinventory.ReleaseStockResult]
	tel        observability.Observability
}

func New(
	subscriber domoutbox.Subscriber,
	release application.UseCase[appinventory.ReleaseStockInput, *appinventory.ReleaseStockResult],
	tel observability.Observability,
) *Worker {
	return &Worker{
		subscriber: subscriber,
		release:    release,
		tel:        observability.Resolve(tel),
	}
}

func (w *Worker) Start() {
	w.subscriber.Subscribe(domorder.CancelledEvent{}.EventName(), w.handleOrderCancelled)
}

func (w *Worker) handleOrderCancelled(ctx context.Context, e domoutbox.Event) error {
	evt, ok := e.(domorder.CancelledEvent)
	if !ok {
		return nil
	}

	ctx = workerpresentation.WithEventContext(ctx, logctx.FromOr(ctx, w.tel.Logger()), map[string]string{
		"component": componentInventoryWorker,
	})
	logger := logctx.FromOr(ctx, w.tel.Logger())

	res, err := w.release.Execute(ctx, appinventory.ReleaseStockInput{OrderID: evt.OrderID})
	if err != nil {
		logger.Warn("stock_release_failed",
			observability.F("order_id", evt.OrderID),
			observability.F("error", err.Error()),
		)
		return err
	}

	logger.Info("stock_release_handled",
		observability.F("order_id", evt.OrderID),
		observability.F("released", res.Released),
		observability.F("lines", len(res.Lines)),
	)
	return nil
}
