package payment

import (
	"context"

	"github.com/Zhima-Mochi/shophub/internal/application"
	domorder "github.com/Zhima-Mochi/shophub/internal/domain/order"
	"github.com/Zhima-Mochi/shophub/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const useCaseRecordSale = "payment.record_sale"

// RecordSaleUseCase turns order.paid events into business counters.
type RecordSaleUseCase struct {
	paidCounter    observability.Counter // orders_paid_total{source}
	revenueCounter observability.Counter // revenue_paid_total{source}
	in             application.Instruments
}

func NewRecordSaleUseCase(tel observability.Observability) *RecordSaleUseCase {
	metrics := observability.Resolve(tel).Metrics()
	return &RecordSaleUseCase{
		paidCounter:    metrics.Counter(observability.MOrdersPaid),
		revenueCounter: metrics.Counter(observability.MRevenuePaid),
		in:             application.NewInstruments(tel, paymentService),
	}
}

func (uc *RecordSaleUseCase) Execute(ctx context.Context, evt domorder.PaidEvent) (_ struct{}, err error) {
	_, run := uc.in.Start(ctx, useCaseRecordSale, "RecordSale",
		attribute.String("order.id", evt.OrderID),
		attribute.String("payment.source", evt.Source),
	)
	defer func() { run.End(err) }()

	revenue, _ := evt.Total.Float64()
	uc.paidCounter.Add(1, observability.L("source", evt.Source))
	uc.revenueCounter.Add(revenue, observability.L("source", evt.Source))
	run.Field("order_id", evt.OrderID)
	run.Field("total", evt.Total.StringFixed(2))
	return struct{}{}, nil
}
