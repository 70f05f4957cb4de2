package order

import (
	"context"
	"errors"

	"github.com/Zhima-Mochi/shophub/internal/application"
	domcatalog "github.com/Zhima-Mochi/shophub/internal/domain/catalog"
	domain "github.com/Zhima-Mochi/shophub/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/shophub/internal/domain/outbox"
	"github.com/Zhima-Mochi/shophub/internal/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	useCaseUpdateStatus = "order.update_status"

	// statusAttempts bounds re-reads when another writer moves the order between read and write.
	statusAttempts = 3
)

type UpdateStatusInput struct {
	OrderID string
	Status  string
}

// UpdateStatusUseCase sets an order's fulfilment status from the back-office. Any known status is
// accepted; reopening a cancelled order reserves its released stock again.
type UpdateStatusUseCase struct {
	repo      domain.Repository
	publisher domoutbox.Publisher
	in        application.Instruments
}

func NewUpdateStatusUseCase(repo domain.Repository, publisher domoutbox.Publisher, tel observability.Observability) *UpdateStatusUseCase {
	return &UpdateStatusUseCase{repo: repo, publisher: publisher, in: application.NewInstruments(tel, orderService)}
}

func (uc *UpdateStatusUseCase) Execute(ctx context.Context, cmd UpdateStatusInput) (_ *domain.Order, err error) {
	ctx, run := uc.in.Start(ctx, useCaseUpdateStatus, "UpdateOrderStatus",
		attribute.String("order.id", cmd.OrderID),
		attribute.String("order.target_status", cmd.Status),
	)
	defer func() { run.End(err) }()

	target, perr := domain.ParseStatus(cmd.Status)
	if perr != nil {
		run.Fail("STATUS_INVALID")
		return nil, application.NewValidation("Invalid status",
			application.FieldError{Field: "status", Message: "must be one of PENDING, PROCESSING, SHIPPED, DELIVERED, CANCELLED"},
		)
	}

	var (
		o    *domain.Order
		from domain.Status
	)
	for attempt := 1; ; attempt++ {
		o, err = uc.repo.Get(ctx, cmd.OrderID)
		if err != nil {
			run.Fail("ORDER_LOAD_FAILED")
			return nil, wrapRepositoryError(err)
		}
		from = o.Status
		changed, terr := o.TransitionTo(target)
		if terr != nil {
			run.Fail("STATUS_INVALID")
			return nil, terr
		}
		if !changed {
			run.Status("UNCHANGED")
			return o, nil
		}

		err = uc.repo.SetStatus(ctx, o.ID, from, target)
		if err == nil {
			break
		}
		if !errors.Is(err, domain.ErrConflict) || attempt >= statusAttempts {
			run.Fail(statusFailure(err))
			run.Field("from", string(from))
			return nil, wrapRepositoryError(err)
		}
		run.Span().AddEvent("order.status_conflict", trace.WithAttributes(attribute.Int("attempt", attempt)))
	}
	if domain.Reopens(from, target) {
		// A reopened order holds its stock again.
		o.StockReleased = false
		run.Field("reopened", true)
	}
	run.Field("from", string(from))
	run.Field("to", string(target))

	events := []domoutbox.Event{domain.NewStatusChangedEvent(o, from)}
	if target == domain.StatusCancelled {
		events = append(events, domain.NewCancelledEvent(o))
	}
	var pubErr error
	for _, e := range events {
		pubErr = errors.Join(pubErr, uc.in.Publish(ctx, uc.publisher, e))
	}
	if pubErr != nil {
		run.Status("EVENT_PUBLISH_FAILED")
		run.Field("event_publish_error", pubErr.Error())
	}
	return o, nil
}

func statusFailure(err error) string {
	switch {
	case errors.Is(err, domain.ErrConflict):
		return "STATUS_CONFLICT"
	case errors.Is(err, domcatalog.ErrInsufficientStock):
		return "INSUFFICIENT_STOCK"
	default:
		return "ORDER_UPDATE_FAILED"
	}
}
