package worker

import (
	"context"

	"github.com/Zhima-Mochi/shophub/internal/application"
	domorder "github.com/Zhima-Mochi/shophub/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/shophub/internal/domain/outbox"
	"github.com/Zhima-Mochi/shophub/internal/observability"
	"github.com/Zhima-Mochi/shophub/internal/observability/logctx"
	workerpresentation "github.com/Zhima-Mochi/shophub/internal/presentation/worker"
)

const componentPaymentWorker = "payment_worker"

// Worker records sales for every confirmed payment.
type Worker struct {
	subscriber domoutbox.Subscriber
	recordSale application.UseCase[domorder.PaidEvent, struct{}]
	tel        observability.Observability
}

func New(
	subscriber domoutbox.Subscriber,
	recordSale application.UseCase[domorder.PaidEvent, struct{}],
	tel observability.Observability,
) *Worker {
	return &Worker{
		subscriber: subscriber,
		recordSale: recordSale,
		tel:        observability.Resolve(tel),
	}
}

func (w *Worker) Start() {
	w.subscriber.Subscribe(domorder.PaidEvent{}.EventName(), w.handleOrderPaid)
}

func (w *Worker) handleOrderPaid(ctx context.Context, e domoutbox.Event) error {
	evt, ok := e.(domorder.PaidEvent)
	if !ok {
		return nil
	}

	ctx = workerpresentation.WithEventContext(ctx, logctx.FromOr(ctx, w.tel.Logger()), map[string]string{
		"component": componentPaymentWorker,
		"source":    evt.Source,
	})

	if _, err := w.recordSale.Execute(ctx, evt); err != nil {
		logctx.FromOr(ctx, w.tel.Logger()).Warn("sale_record_failed",
			observability.F("order_id", evt.OrderID),
			observability.F("error", err.Error()),
		)
		return err
	}
	return nil
}
