package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/Zhima-Mochi/shophub/internal/application"
	domorder "github.com/Zhima-Mochi/shophub/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/shophub/internal/domain/outbox"
	dompayment "github.com/Zhima-Mochi/shophub/internal/domain/payment"
	"github.com/Zhima-Mochi/shophub/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const (
	useCaseHandleWebhook = "payment.webhook"
	sourceWebhook        = "webhook"
)

type HandleWebhookInput struct {
	Payload   []byte
	Signature string
}

type HandleWebhookResult struct {
	EventID   string
	EventType string
	OrderID   string
	// Duplicate is set when the event id was already processed.
	Duplicate bool
	// Ignored is set for event types or orders this service does not track.
	Ignored bool
}

// HandleWebhookUseCase reconciles provider callbacks with order payment state.
type HandleWebhookUseCase struct {
	verifier dompayment.WebhookVerifier
	dedup    dompayment.DedupStore
	settle   settler
	in       application.Instruments

	deliveries observability.Counter // payment_webhook_events_total{type,outcome}
}

func NewHandleWebhookUseCase(
	orders domorder.Repository,
	verifier dompayment.WebhookVerifier,
	dedup dompayment.DedupStore,
	publisher domoutbox.Publisher,
	tel observability.Observability,
) *HandleWebhookUseCase {
	in := application.NewInstruments(tel, paymentService)
	return &HandleWebhookUseCase{
		verifier:   verifier,
		dedup:      dedup,
		settle:     settler{orders: orders, publisher: publisher, in: in},
		in:         in,
		deliveries: observability.Resolve(tel).Metrics().Counter(observability.MWebhookEvents),
	}
}

func (uc *HandleWebhookUseCase) Execute(ctx context.Context, cmd HandleWebhookInput) (_ *HandleWebhookResult, err error) {
	ctx, run := uc.in.Start(ctx, useCaseHandleWebhook, "HandleWebhook")
	defer func() { run.End(err) }()
	span := run.Span()

	evtType, duplicate := "unverified", false
	defer func() {
		outcome := run.Outcome(err)
		if duplicate {
			outcome = "duplicate"
		}
		uc.deliveries.Add(1, observability.L("type", evtType), observability.L("outcome", outcome))
	}()

	evt, err := uc.verifier.ParseEvent(cmd.Payload, cmd.Signature)
	if err != nil {
		run.Fail("SIGNATURE_INVALID")
		if errors.Is(err, ErrInvalidSignature) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}
	res := &HandleWebhookResult{EventID: evt.ID, EventType: evt.Type, OrderID: evt.OrderID}
	evtType = eventTypeLabel(evt.Type)
	run.Field("event_id", evt.ID)
	run.Field("event_type", evt.Type)
	span.SetAttributes(
		attribute.String("payment.event_id", evt.ID),
		attribute.String("payment.event_type", evt.Type),
		attribute.String("payment.intent_id", evt.IntentID),
	)

	if evt.Type != dompayment.EventIntentSucceeded && evt.Type != dompayment.EventIntentFailed {
		run.Ignore("EVENT_TYPE_IGNORED")
		res.Ignored = true
		return res, nil
	}

	if uc.dedup != nil && evt.ID != "" {
		claimed, cerr := uc.dedup.Claim(ctx, evt.ID)
		if cerr != nil {
			run.Fail("DEDUP_CLAIM_FAILED")
			return nil, fmt.Errorf("payment: dedup claim: %w", cerr)
		}
		if !claimed {
			run.Ignore("DUPLICATE_EVENT")
			res.Duplicate, duplicate = true, true
			return res, nil
		}
		// A failure after the claim releases it so the provider's retry is applied.
		defer func() {
			if err == nil {
				return
			}
			if rerr := uc.dedup.Release(context.WithoutCancel(ctx), evt.ID); rerr != nil {
				run.Logger().Warn("dedup_release_failed",
					observability.F("event_id", evt.ID),
					observability.F("error", rerr.Error()),
				)
			}
		}()
	}

	order, err := uc.resolveOrder(ctx, evt)
	if errors.Is(err, domorder.ErrNotFound) {
		run.Ignore("ORDER_NOT_FOUND")
		run.Logger().Warn("webhook_order_not_found",
			observability.F("order_id", evt.OrderID),
			observability.F("payment_intent_id", evt.IntentID),
		)
		res.Ignored = true
		return res, nil
	}
	if err != nil {
		run.Fail("ORDER_LOAD_FAILED")
		return nil, wrapRepositoryError(err)
	}
	res.OrderID = order.ID
	run.Field("order_id", order.ID)

	var sr settleResult
	switch evt.Type {
	case dompayment.EventIntentSucceeded:
		sr, err = uc.settle.paid(ctx, order, evt.IntentID, sourceWebhook)
	case dompayment.EventIntentFailed:
		sr, err = uc.settle.failed(ctx, order)
	}
	if err != nil {
		run.Fail(sr.status)
		return nil, err
	}
	run.Status(sr.status)
	span.SetAttributes(attribute.String("order.payment_status", string(order.PaymentStatus)))
	return res, nil
}

// resolveOrder prefers the order id the intent was created with and falls back to the stored reference.
func (uc *HandleWebhookUseCase) resolveOrder(ctx context.Context, evt dompayment.Event) (*domorder.Order, error) {
	if evt.OrderID != "" {
		o, err := uc.settle.orders.Get(ctx, evt.OrderID)
		if err == nil || !errors.Is(err, domorder.ErrNotFound) {
			return o, err
		}
	}
	if evt.IntentID == "" {
		return nil, domorder.ErrNotFound
	}
	return uc.settle.orders.FindByPaymentRef(ctx, evt.IntentID)
}

// eventTypeLabel keeps the metric label set bounded to the types this service acts on.
func eventTypeLabel(t string) string {
	switch t {
	case dompayment.EventIntentSucceeded, dompayment.EventIntentFailed:
		return t
	}
	return "other"
}
