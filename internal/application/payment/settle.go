package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/Zhima-Mochi/shophub/internal/application"
	domorder "github.com/Zhima-Mochi/shophub/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/shophub/internal/domain/outbox"
	"github.com/Zhima-Mochi/shophub/internal/observability"
	"github.com/Zhima-Mochi/shophub/internal/observability/logctx"
)

// settler applies a provider verdict to an order and announces the change.
type settler struct {
	orders    domorder.Repository
	publisher domoutbox.Publisher
	in        application.Instruments
}

type settlement int

const (
	settledNone settlement = iota
	settledPaid
	settledFailed
)

// settleResult carries the status text for the caller's use_case_done line.
type settleResult struct {
	outcome settlement
	status  string
}

// paid marks o as paid. Only the payment columns are written, so a concurrent fulfilment update
// is kept, and repeated confirmations change nothing.
func (s settler) paid(ctx context.Context, o *domorder.Order, ref, source string) (settleResult, error) {
	if o.PaymentStatus == domorder.PaymentPaid {
		return settleResult{status: "ALREADY_PAID"}, nil
	}
	changed, err := s.orders.MarkPaid(ctx, o.ID, ref)
	if err != nil {
		return settleResult{status: "ORDER_UPDATE_FAILED"}, wrapRepositoryError(err)
	}
	if !changed {
		return settleResult{status: "ALREADY_PAID"}, nil
	}
	o.MarkPaid(ref)
	return settleResult{outcome: settledPaid, status: s.announce(ctx, domorder.NewPaidEvent(o, source))}, nil
}

// failed records a declined payment. A paid order is left untouched, even one paid after o was read.
func (s settler) failed(ctx context.Context, o *domorder.Order) (settleResult, error) {
	if o.PaymentStatus == domorder.PaymentPaid {
		return settleResult{status: "ALREADY_PAID"}, nil
	}
	changed, err := s.orders.MarkPaymentFailed(ctx, o.ID)
	switch {
	case errors.Is(err, domorder.ErrAlreadyPaid):
		return settleResult{status: "ALREADY_PAID"}, nil
	case err != nil:
		return settleResult{status: "ORDER_UPDATE_FAILED"}, wrapRepositoryError(err)
	case !changed:
		return settleResult{status: "ALREADY_FAILED"}, nil
	}
	if _, err := o.MarkPaymentFailed(); err != nil {
		return settleResult{status: "STATE_TRANSITION_FAILED"}, fmt.Errorf("payment: mark failed: %w", err)
	}
	return settleResult{outcome: settledFailed, status: s.announce(ctx, domorder.NewPaymentFailedEvent(o))}, nil
}

func (s settler) announce(ctx context.Context, e domoutbox.Event) string {
	if err := s.in.Publish(ctx, s.publisher, e); err != nil {
		logctx.FromOr(ctx, s.in.Logger()).Warn("event_publish_failed",
			observability.F("event", e.EventName()),
			observability.F("error", err.Error()),
		)
		return "EVENT_PUBLISH_FAILED"
	}
	return "OK"
}
