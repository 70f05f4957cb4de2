package order

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Zhima-Mochi/shophub/internal/application"
	domain "github.com/Zhima-Mochi/shophub/internal/domain/order"
	"github.com/Zhima-Mochi/shophub/internal/observability"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

const (
	useCaseGetOrder   = "order.get"
	useCaseListOrders = "order.list"

	DefaultUserPageLimit  = 10
	DefaultAdminPageLimit = 20
)

type GetOrderInput struct {
	OrderID string
	// OwnerID, when set, hides orders placed by anyone else behind ErrNotFound.
	OwnerID string
}

type GetOrderUseCase struct {
	repo domain.Repository
	in   application.Instruments
}

func NewGetOrderUseCase(repo domain.Repository, tel observability.Observability) *GetOrderUseCase {
	return &GetOrderUseCase{repo: repo, in: application.NewInstruments(tel, orderService)}
}

func (uc *GetOrderUseCase) Execute(ctx context.Context, cmd GetOrderInput) (_ *domain.Order, err error) {
	ctx, run := uc.in.Start(ctx, useCaseGetOrder, "GetOrder", attribute.String("order.id", cmd.OrderID))
	defer func() { run.End(err) }()

	if _, perr := uuid.Parse(cmd.OrderID); perr != nil {
		run.Fail("ORDER_NOT_FOUND")
		return nil, ErrNotFound
	}
	o, err := uc.repo.Get(ctx, cmd.OrderID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			run.Fail("ORDER_NOT_FOUND")
		} else {
			run.Fail("ORDER_LOAD_FAILED")
		}
		return nil, wrapRepositoryError(err)
	}
	if cmd.OwnerID != "" && !o.OwnedBy(cmd.OwnerID) {
		run.Fail("ORDER_NOT_OWNED")
		return nil, ErrNotFound
	}
	return o, nil
}

type ListOrdersInput struct {
	// UserID restricts the listing to one shopper's orders.
	UserID        string
	Status        string
	PaymentStatus string
	Search        string
	Page          application.PageRequest
}

type ListOrdersResult struct {
	Orders     []*domain.Order
	Pagination application.Pagination
}

type ListOrdersUseCase struct {
	repo         domain.Repository
	defaultLimit int
	in           application.Instruments
}

// NewListOrdersUseCase builds a newest-first listing. defaultLimit applies when the caller sends none.
func NewListOrdersUseCase(repo domain.Repository, defaultLimit int, tel observability.Observability) *ListOrdersUseCase {
	if defaultLimit <= 0 {
		defaultLimit = DefaultAdminPageLimit
	}
	return &ListOrdersUseCase{repo: repo, defaultLimit: defaultLimit, in: application.NewInstruments(tel, orderService)}
}

func (uc *ListOrdersUseCase) Execute(ctx context.Context, cmd ListOrdersInput) (_ *ListOrdersResult, err error) {
	ctx, run := uc.in.Start(ctx, useCaseListOrders, "ListOrders")
	defer func() { run.End(err) }()

	filter := domain.Filter{
		UserID: cmd.UserID,
		Search: strings.TrimSpace(cmd.Search),
	}
	var v application.Validator
	if cmd.Status != "" {
		st, perr := domain.ParseStatus(cmd.Status)
		v.Check(perr == nil, "status", "unknown status")
		filter.Status = st
	}
	if cmd.PaymentStatus != "" {
		ps, perr := domain.ParsePaymentStatus(cmd.PaymentStatus)
		v.Check(perr == nil, "paymentStatus", "unknown payment status")
		filter.PaymentStatus = ps
	}
	if verr := v.Err(); verr != nil {
		run.Fail("VALIDATION_FAILED")
		return nil, verr
	}

	page := cmd.Page.Normalize(uc.defaultLimit)
	total, err := uc.repo.Count(ctx, filter)
	if err != nil {
		run.Fail("ORDER_COUNT_FAILED")
		return nil, wrapRepositoryError(err)
	}
	orders, err := uc.repo.List(ctx, filter, domain.Page{Offset: page.Offset(), Limit: page.Limit})
	if err != nil {
		run.Fail("ORDER_LIST_FAILED")
		return nil, fmt.Errorf("order: list: %w", wrapRepositoryError(err))
	}
	run.Field("total", total)

	return &ListOrdersResult{
		Orders:     orders,
		Pagination: application.NewPagination(page, total),
	}, nil
}
