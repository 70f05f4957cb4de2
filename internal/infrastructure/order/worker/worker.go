package worker

import (
	"context"

	domcatalog "github.com/Zhima-Mochi/shophub/internal/domain/catalog"
	domorder "github.com/Zhima-Mochi/shophub/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/shophub/internal/domain/outbox"
	"github.com/Zhima-Mochi/shophub/internal/observability"
	"github.com/Zhima-Mochi/shophub/internal/observability/logctx"
)

// Worker writes one structured log line per order lifecycle event.
type Worker struct {
	subscriber domoutbox.Subscriber
	log        observability.Logger
}

func New(subscriber domoutbox.Subscriber, tel observability.Observability) *Worker {
	return &Worker{
		subscriber: subscriber,
		log:        observability.Resolve(tel).Logger().With(observability.F("component", "order_worker")),
	}
}

func (w *Worker) Start() {
	for _, name := range []string{
		domorder.CreatedEvent{}.EventName(),
		domorder.PaymentFailedEvent{}.EventName(),
		domorder.StatusChangedEvent{}.EventName(),
		domcatalog.StockReleasedEvent{}.EventName(),
	} {
		w.subscriber.Subscribe(name, w.handleLifecycle)
	}
}

func (w *Worker) handleLifecycle(ctx context.Context, e domoutbox.Event) error {
	logger := logctx.FromOr(ctx, w.log)

	switch evt := e.(type) {
	case domorder.CreatedEvent:
		logger.Info("order_created",
			observability.F("order_id", evt.OrderID),
			observability.F("order_number", evt.Number),
			observability.F("total", evt.Total.StringFixed(2)),
			observability.F("items", len(evt.Items)),
			observability.F("guest", evt.UserID == ""),
		)
	case domorder.PaymentFailedEvent:
		logger.Warn("order_payment_failed",
			observability.F("order_id", evt.OrderID),
			observability.F("payment_ref", evt.PaymentRef),
		)
	case domorder.StatusChangedEvent:
		logger.Info("order_status_changed",
			observability.F("order_id", evt.OrderID),
			observability.F("from", string(evt.From)),
			observability.F("to", string(evt.To)),
		)
	case domcatalog.StockReleasedEvent:
		logger.Info("order_stock_released",
			observability.F("order_id", evt.OrderID),
			observability.F("lines", len(evt.Lines)),
		)
	}
	return nil
}
