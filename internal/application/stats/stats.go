package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/Zhima-Mochi/shophub/internal/application"
	domcatalog "github.com/Zhima-Mochi/shophub/internal/domain/catalog"
	domorder "github.com/Zhima-Mochi/shophub/internal/domain/order"
	"github.com/Zhima-Mochi/shophub/internal/observability"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const (
	statsService   = "stats-service"
	useCaseSummary = "stats.summary"
	recentOrders   = 5
)

type Summary struct {
	Products struct {
		Total  int
		Active int
	}
	Orders struct {
		Total     int
		Today     int
		ThisMonth int
		Pending   int
	}
	Categories struct {
		Total int
	}
	Revenue struct {
		Total     decimal.Decimal
		ThisMonth decimal.Decimal
	}
	RecentOrders []*domorder.Order
}

// SummaryUseCase gathers the back-office dashboard figures concurrently.
type SummaryUseCase struct {
	orders  domorder.Repository
	catalog domcatalog.Repository
	now     application.Clock
	loc     *time.Location
	in      application.Instruments
}

// NewSummaryUseCase computes "today" and "this month" in loc (UTC when nil).
func NewSummaryUseCase(orders domorder.Repository, catalog domcatalog.Repository, loc *time.Location, tel observability.Observability) *SummaryUseCase {
	if loc == nil {
		loc = time.UTC
	}
	return &SummaryUseCase{
		orders:  orders,
		catalog: catalog,
		now:     time.Now,
		loc:     loc,
		in:      application.NewInstruments(tel, statsService),
	}
}

func (uc *SummaryUseCase) Execute(ctx context.Context, _ struct{}) (_ *Summary, err error) {
	ctx, run := uc.in.Start(ctx, useCaseSummary, "StatsSummary")
	defer func() { run.End(err) }()

	now := uc.now().In(uc.loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, uc.loc)
	month := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, uc.loc)

	var s Summary
	g, gctx := errgroup.WithContext(ctx)

	count := func(dst *int, f domorder.Filter) {
		g.Go(func() error {
			n, err := uc.orders.Count(gctx, f)
			*dst = n
			return err
		})
	}
	sum := func(dst *decimal.Decimal, f domorder.Filter) {
		g.Go(func() error {
			v, err := uc.orders.SumTotal(gctx, f)
			*dst = v
			return err
		})
	}

	g.Go(func() error {
		n, err := uc.catalog.CountProducts(gctx, "")
		s.Products.Total = n
		return err
	})
	g.Go(func() error {
		n, err := uc.catalog.CountProducts(gctx, domcatalog.ProductActive)
		s.Products.Active = n
		return err
	})
	g.Go(func() error {
		n, err := uc.catalog.CountCategories(gctx)
		s.Categories.Total = n
		return err
	})
	count(&s.Orders.Total, domorder.Filter{})
	count(&s.Orders.Today, domorder.Filter{CreatedFrom: today})
	count(&s.Orders.ThisMonth, domorder.Filter{CreatedFrom: month})
	count(&s.Orders.Pending, domorder.Filter{Status: domorder.StatusPending})
	sum(&s.Revenue.Total, domorder.Filter{PaymentStatus: domorder.PaymentPaid})
	sum(&s.Revenue.ThisMonth, domorder.Filter{PaymentStatus: domorder.PaymentPaid, CreatedFrom: month})
	g.Go(func() error {
		recent, err := uc.orders.List(gctx, domorder.Filter{}, domorder.Page{Limit: recentOrders})
		s.RecentOrders = recent
		return err
	})

	if err := g.Wait(); err != nil {
		run.Fail("AGGREGATE_FAILED")
		return nil, fmt.Errorf("%w: %w", application.ErrRepository, err)
	}
	run.Field("orders_total", s.Orders.Total)
	return &s, nil
}
