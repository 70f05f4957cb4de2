package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/Zhima-Mochi/shophub/internal/application"
	domcatalog "github.com/Zhima-Mochi/shophub/internal/domain/catalog"
	domorder "github.com/Zhima-Mochi/shophub/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/shophub/internal/domain/outbox"
	"github.com/Zhima-Mochi/shophub/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const (
	inventoryService     = "inventory-service"
	useCaseReleaseStock  = "inventory.release"
	releaseStockSpanName = "ReleaseStock"
)

var ErrRepository = application.ErrRepository

type ReleaseStockInput struct {
	OrderID string
}

type ReleaseStockResult struct {
	Released bool
	Lines    []domcatalog.StockLine
}

// ReleaseStockUseCase returns a cancelled order's quantities to the shelf exactly once.
type ReleaseStockUseCase struct {
	orders    domorder.Repository
	publisher domoutbox.Publisher
	in        application.Instruments
	releases  observability.Counter // stock_released_total{outcome}
}

func NewReleaseStockUseCase(
	orders domorder.Repository,
	publisher domoutbox.Publisher,
	tel observability.Observability,
) *ReleaseStockUseCase {
	return &ReleaseStockUseCase{
		orders:    orders,
		publisher: publisher,
		in:        application.NewInstruments(tel, inventoryService),
		releases:  observability.Resolve(tel).Metrics().Counter(observability.MStockReleased),
	}
}

func (uc *ReleaseStockUseCase) Execute(ctx context.Context, cmd ReleaseStockInput) (_ *ReleaseStockResult, err error) {
	ctx, run := uc.in.Start(ctx, useCaseReleaseStock, releaseStockSpanName,
		attribute.String("order.id", cmd.OrderID),
	)
	defer func() {
		run.End(err)
		uc.releases.Add(1, observability.L("outcome", run.Outcome(err)))
	}()
	run.Field("order_id", cmd.OrderID)

	o, err := uc.orders.Get(ctx, cmd.OrderID)
	if err != nil {
		run.Fail("ORDER_LOAD_FAILED")
		if errors.Is(err, domorder.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrRepository, err)
	}
	if o.Status != domorder.StatusCancelled {
		run.Ignore("ORDER_NOT_CANCELLED")
		return &ReleaseStockResult{}, nil
	}

	if o.StockReleased {
		run.Ignore("ALREADY_RELEASED")
		return &ReleaseStockResult{}, nil
	}

	released, err := uc.orders.ReleaseStock(ctx, o.ID)
	if err != nil {
		run.Fail("STOCK_RELEASE_FAILED")
		return nil, fmt.Errorf("%w: %w", ErrRepository, err)
	}
	if !released {
		run.Ignore("ALREADY_RELEASED")
		return &ReleaseStockResult{}, nil
	}

	lines := make([]domcatalog.StockLine, 0, len(o.Items))
	for _, it := range o.Items {
		lines = append(lines, domcatalog.StockLine{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	lines = domcatalog.MergeLines(lines)

	if pubErr := uc.in.Publish(ctx, uc.publisher, domcatalog.NewStockReleasedEvent(o.ID, lines)); pubErr != nil {
		run.Status("EVENT_PUBLISH_FAILED")
		run.Field("event_publish_error", pubErr.Error())
	}
	run.Field("lines", len(lines))
	return &ReleaseStockResult{Released: true, Lines: lines}, nil
}
