package payment

import (
	"context"
	"time"

	"github.com/Zhima-Mochi/shophub/internal/application"
	domorder "github.com/Zhima-Mochi/shophub/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/shophub/internal/domain/outbox"
	dompayment "github.com/Zhima-Mochi/shophub/internal/domain/payment"
	"github.com/Zhima-Mochi/shophub/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const (
	useCaseReconcile = "payment.reconcile"
	sourceReconcile  = "reconcile"

	DefaultReconcileGrace = 15 * time.Minute
	DefaultReconcileBatch = 50
)

type ReconcileInput struct {
	// Grace skips orders younger than this; their webhook may still be in flight.
	Grace time.Duration
	Batch int
}

type ReconcileResult struct {
	Checked int
	Paid    int
	Failed  int
	Errors  int
}

// ReconcileUseCase settles pending orders whose webhook never arrived by asking the provider directly.
type ReconcileUseCase struct {
	gateway dompayment.Gateway
	settle  settler
	now     application.Clock
	in      application.Instruments

	results observability.Counter // payment_reconcile_results_total{outcome}
}

func NewReconcileUseCase(
	orders domorder.Repository,
	gateway dompayment.Gateway,
	publisher domoutbox.Publisher,
	tel observability.Observability,
) *ReconcileUseCase {
	in := application.NewInstruments(tel, paymentService)
	return &ReconcileUseCase{
		gateway: gateway,
		settle:  settler{orders: orders, publisher: publisher, in: in},
		now:     time.Now,
		in:      in,
		results: observability.Resolve(tel).Metrics().Counter(observability.MReconcileResults),
	}
}

func (uc *ReconcileUseCase) Execute(ctx context.Context, cmd ReconcileInput) (_ *ReconcileResult, err error) {
	ctx, run := uc.in.Start(ctx, useCaseReconcile, "ReconcilePayments")
	defer func() { run.End(err) }()

	if cmd.Grace <= 0 {
		cmd.Grace = DefaultReconcileGrace
	}
	if cmd.Batch <= 0 {
		cmd.Batch = DefaultReconcileBatch
	}

	pending, err := uc.settle.orders.List(ctx, domorder.Filter{
		PaymentStatus: domorder.PaymentPending,
		HasPaymentRef: true,
		CreatedUntil:  uc.now().Add(-cmd.Grace),
	}, domorder.Page{Limit: cmd.Batch})
	if err != nil {
		run.Fail("PENDING_LOAD_FAILED")
		return nil, wrapRepositoryError(err)
	}

	res := &ReconcileResult{}
	for _, o := range pending {
		if err := ctx.Err(); err != nil {
			run.Fail("CONTEXT_CANCELED")
			return res, err
		}
		res.Checked++

		start := time.Now()
		intent, gerr := uc.gateway.RetrieveIntent(ctx, o.PaymentRef)
		uc.in.ObserveExternal(gatewayPeer, "retrieve_intent", application.Outcome(gerr), start)
		if gerr != nil {
			res.Errors++
			uc.count("error")
			run.Logger().Warn("reconcile_lookup_failed",
				observability.F("order_id", o.ID),
				observability.F("payment_ref", o.PaymentRef),
				observability.F("error", gerr.Error()),
			)
			continue
		}

		var sr settleResult
		var serr error
		switch intent.Status {
		case dompayment.IntentSucceeded:
			sr, serr = uc.settle.paid(ctx, o, intent.ID, sourceReconcile)
		case dompayment.IntentCanceled:
			sr, serr = uc.settle.failed(ctx, o)
		default:
			uc.count("pending")
			continue
		}
		switch {
		case serr != nil:
			res.Errors++
			uc.count("error")
			run.Logger().Warn("reconcile_settle_failed",
				observability.F("order_id", o.ID),
				observability.F("status", sr.status),
				observability.F("error", serr.Error()),
			)
		case sr.outcome == settledPaid:
			res.Paid++
			uc.count("paid")
		case sr.outcome == settledFailed:
			res.Failed++
			uc.count("failed")
		default:
			uc.count("unchanged")
		}
	}

	// Individual settle failures are retried on the next tick.
	run.Field("checked", res.Checked)
	run.Field("paid", res.Paid)
	run.Field("failed", res.Failed)
	run.Field("errors", res.Errors)
	run.Span().SetAttributes(
		attribute.Int("reconcile.checked", res.Checked),
		attribute.Int("reconcile.paid", res.Paid),
	)
	return res, nil
}

func (uc *ReconcileUseCase) count(outcome string) {
	uc.results.Add(1, observability.L("outcome", outcome))
}
