package worker

import (
	"context"
	"time"

	"github.com/Zhima-Mochi/shophub/internal/application"
	apppayment "github.com/Zhima-Mochi/shophub/internal/application/payment"
	"github.com/Zhima-Mochi/shophub/internal/observability"
	"github.com/Zhima-Mochi/shophub/internal/observability/logctx"
	workerpresentation "github.com/Zhima-Mochi/shophub/internal/presentation/worker"
)

const DefaultReconcileInterval = 5 * time.Minute

// Reconciler periodically settles pending orders whose webhook never arrived.
type Reconciler struct {
	reconcile application.UseCase[apppayment.ReconcileInput, *apppayment.ReconcileResult]
	interval  time.Duration
	grace     time.Duration
	log       observability.Logger
}

func NewReconciler(
	reconcile application.UseCase[apppayment.ReconcileInput, *apppayment.ReconcileResult],
	interval, grace time.Duration,
	tel observability.Observability,
) *Reconciler {
	if interval <= 0 {
		interval = DefaultReconcileInterval
	}
	return &Reconciler{
		reconcile: reconcile,
		interval:  interval,
		grace:     grace,
		log:       observability.Resolve(tel).Logger().With(observability.F("component", "payment_reconciler")),
	}
}

// Run ticks until ctx is done. A failed pass is logged and retried on the next tick.
func (r *Reconciler) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.log.Info("reconciler_started", observability.F("interval", r.interval.String()))
	for {
		select {
		case <-ctx.Done():
			r.log.Info("reconciler_stopped")
			return nil
		case <-ticker.C:
			r.RunOnce(ctx)
		}
	}
}

func (r *Reconciler) RunOnce(ctx context.Context) {
	ctx = workerpresentation.WithEventContext(ctx, r.log, nil)
	logger := logctx.FromOr(ctx, r.log)

	res, err := r.reconcile.Execute(ctx, apppayment.ReconcileInput{Grace: r.grace})
	if err != nil {
		if ctx.Err() == nil {
			logger.Warn("reconcile_pass_failed", observability.F("error", err.Error()))
		}
		return
	}
	if res.Checked > 0 {
		logger.Info("reconcile_pass_done",
			observability.F("checked", res.Checked),
			observability.F("paid", res.Paid),
			observability.F("failed", res.Failed),
			observability.F("errors", res.Errors),
		)
	}
}
