package order

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/Zhima-Mochi/shophub/internal/application"
	domcatalog "github.com/Zhima-Mochi/shophub/internal/domain/catalog"
	domain "github.com/Zhima-Mochi/shophub/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/shophub/internal/domain/outbox"
	"github.com/Zhima-Mochi/shophub/internal/observability"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	orderService      = "order-service"
	useCasePlaceOrder = "order.place"
	paymentPeer       = "payment_gateway"

	// numberAttempts bounds regeneration after an order number collision.
	numberAttempts = 3
)

type LineInput struct {
	ProductID string
	Quantity  int
}

type PlaceOrderInput struct {
	IdempotencyKey string
	// UserID is empty for guest checkout.
	UserID     string
	Customer   domain.Customer
	Items      []LineInput
	PaymentRef string
}

// PlaceOrderUseCase validates a checkout, prices it from the catalog and records the order
// together with its stock reservation.
type PlaceOrderUseCase struct {
	repo      domain.Repository
	products  ProductReader
	payments  PaymentLookup
	ids       application.IDGenerator
	publisher domoutbox.Publisher
	policy    domain.ShippingPolicy
	now       application.Clock

	in     application.Instruments
	placed observability.Counter // orders_placed_total{customer}
}

func NewPlaceOrderUseCase(
	repo domain.Repository,
	products ProductReader,
	payments PaymentLookup,
	ids application.IDGenerator,
	publisher domoutbox.Publisher,
	policy domain.ShippingPolicy,
	tel observability.Observability,
) *PlaceOrderUseCase {
	return &PlaceOrderUseCase{
		repo:      repo,
		products:  products,
		payments:  payments,
		ids:       ids,
		publisher: publisher,
		policy:    policy,
		now:       time.Now,
		in:        application.NewInstruments(tel, orderService),
		placed:    observability.Resolve(tel).Metrics().Counter(observability.MOrdersPlaced),
	}
}

// Execute performs the checkout flow.
func (uc *PlaceOrderUseCase) Execute(ctx context.Context, cmd PlaceOrderInput) (_ *domain.Order, err error) {
	ctx, run := uc.in.Start(ctx, useCasePlaceOrder, "PlaceOrder",
		attribute.Int("order.lines", len(cmd.Items)),
		attribute.Bool("order.guest", cmd.UserID == ""),
	)
	defer func() { run.End(err) }()
	span := run.Span()

	if verr := validatePlaceOrder(cmd); verr != nil {
		run.Fail("VALIDATION_FAILED")
		return nil, verr
	}
	if err := ctx.Err(); err != nil {
		run.Fail("CONTEXT_CANCELED")
		return nil, err
	}

	lines := make([]domcatalog.StockLine, 0, len(cmd.Items))
	for _, it := range cmd.Items {
		lines = append(lines, domcatalog.StockLine{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	lines = domcatalog.MergeLines(lines)
	hash := requestHash(cmd, lines)

	if cmd.IdempotencyKey != "" {
		existing, repoErr := uc.repo.FindByIdempotency(ctx, domain.IdempotencyScope(cmd.UserID, cmd.Customer.Email), cmd.IdempotencyKey)
		switch {
		case repoErr == nil:
			return uc.replay(run, existing, hash)
		case errors.Is(repoErr, domain.ErrNotFound):
		default:
			run.Fail("IDEMPOTENCY_LOOKUP_FAILED")
			return nil, wrapRepositoryError(repoErr)
		}
	}

	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ProductID)
	}
	products, err := uc.products.GetByIDs(ctx, ids)
	if err != nil {
		run.Fail("PRODUCT_LOAD_FAILED")
		return nil, fmt.Errorf("%w: %w", ErrRepository, err)
	}
	byID := make(map[string]domcatalog.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	items := make([]domain.Item, 0, len(lines))
	for _, l := range lines {
		p, ok := byID[l.ProductID]
		if !ok {
			run.Fail("PRODUCT_NOT_FOUND")
			run.Field("product_id", l.ProductID)
			return nil, ErrProductNotFound
		}
		items = append(items, domain.Item{
			ID:          uc.ids.NewID(),
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    l.Quantity,
			Price:       p.Price,
		})
	}

	paid := uc.confirmPayment(ctx, run, cmd.PaymentRef)

	var entity *domain.Order
	for attempt := 1; ; attempt++ {
		entity, err = uc.build(cmd, items, hash)
		if err != nil {
			run.Fail("DOMAIN_CONSTRUCTION_FAILED")
			return nil, fmt.Errorf("order: construct: %w", err)
		}
		entity.PaymentRef = cmd.PaymentRef
		if paid {
			entity.MarkPaid(cmd.PaymentRef)
		}

		err = uc.repo.Place(ctx, entity)
		if err == nil {
			break
		}
		if !errors.Is(err, domain.ErrConflict) {
			run.Fail(placeFailureStatus(err))
			return nil, wrapRepositoryError(err)
		}
		if cmd.IdempotencyKey != "" {
			existing, lookupErr := uc.repo.FindByIdempotency(ctx, entity.IdempotencyScope(), cmd.IdempotencyKey)
			if lookupErr == nil {
				return uc.replay(run, existing, hash)
			}
		}
		if attempt >= numberAttempts {
			run.Fail("ORDER_NUMBER_EXHAUSTED")
			return nil, ErrConflict
		}
		span.AddEvent("order.number_collision", trace.WithAttributes(attribute.Int("attempt", attempt)))
	}

	run.Field("order_id", entity.ID)
	run.Field("order_number", entity.Number)
	uc.placed.Add(1, observability.L("customer", customerLabel(cmd.UserID)))
	span.SetAttributes(
		attribute.String("order.id", entity.ID),
		attribute.String("order.total", entity.Total.StringFixed(2)),
		attribute.String("order.payment_status", string(entity.PaymentStatus)),
	)

	if pubErr := uc.in.Publish(ctx, uc.publisher, domain.NewCreatedEvent(entity)); pubErr != nil {
		run.Status("EVENT_PUBLISH_FAILED")
		run.Field("event_publish_error", pubErr.Error())
	}
	span.AddEvent("order.created", trace.WithAttributes(attribute.String("order.id", entity.ID)))

	return entity, nil
}

// replay answers a repeated idempotency key with the order it created, provided the request is
// the same one.
func (uc *PlaceOrderUseCase) replay(run *application.Run, existing *domain.Order, hash string) (*domain.Order, error) {
	run.Field("order_id", existing.ID)
	if existing.RequestHash != hash {
		run.Fail("IDEMPOTENCY_KEY_REUSED")
		return nil, ErrIdempotencyKeyReused
	}
	run.Status("IDEMPOTENT_REPLAY")
	run.Span().AddEvent("order.idempotent_replay",
		trace.WithAttributes(attribute.String("order.id", existing.ID)),
	)
	return existing, nil
}

func (uc *PlaceOrderUseCase) build(cmd PlaceOrderInput, items []domain.Item, hash string) (*domain.Order, error) {
	now := uc.now()
	entity, err := domain.New(uc.ids.NewID(), domain.NewNumber(now, uuid.New()), cmd.Customer, items, uc.policy, now)
	if err != nil {
		return nil, err
	}
	entity.UserID = cmd.UserID
	entity.IdempotencyKey = cmd.IdempotencyKey
	entity.RequestHash = hash
	return entity, nil
}

// confirmPayment reports whether the provider says the intent succeeded.
// Lookup failures leave the order pending with the reference kept so reconciliation can settle it.
func (uc *PlaceOrderUseCase) confirmPayment(ctx context.Context, run *application.Run, ref string) bool {
	if ref == "" || uc.payments == nil {
		return false
	}
	start := time.Now()
	intent, err := uc.payments.RetrieveIntent(ctx, ref)
	uc.in.ObserveExternal(paymentPeer, "retrieve_intent", application.Outcome(err), start)
	if err != nil {
		run.Logger().Warn("payment_lookup_failed",
			observability.F("payment_ref", ref),
			observability.F("error", err.Error()),
		)
		return false
	}
	return intent.Succeeded()
}

// requestHash fingerprints what a checkout asks for: the customer details, the merged lines in
// product order and the payment reference.
func requestHash(cmd PlaceOrderInput, lines []domcatalog.StockLine) string {
	sorted := slices.Clone(lines)
	slices.SortFunc(sorted, func(a, b domcatalog.StockLine) int { return strings.Compare(a.ProductID, b.ProductID) })

	c := cmd.Customer
	h := sha256.New()
	for _, part := range []string{
		cmd.UserID, c.Email, c.Name, c.Phone, c.ShippingAddress, c.ShippingCity, c.ShippingZip, c.ShippingCountry, cmd.PaymentRef,
	} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	for _, l := range sorted {
		fmt.Fprintf(h, "%s:%d\x00", l.ProductID, l.Quantity)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func placeFailureStatus(err error) string {
	switch {
	case errors.Is(err, domain.ErrPaymentRefTaken):
		return "PAYMENT_REF_TAKEN"
	case errors.Is(err, domcatalog.ErrInsufficientStock):
		return "INSUFFICIENT_STOCK"
	case errors.Is(err, domcatalog.ErrNotFound):
		return "PRODUCT_NOT_FOUND"
	default:
		return "REPO_PLACE_FAILED"
	}
}

func validatePlaceOrder(cmd PlaceOrderInput) error {
	var v application.Validator
	c := cmd.Customer
	v.Email(c.Email, "customerEmail")
	v.Required(c.Name, "customerName")
	v.Required(c.Phone, "customerPhone")
	v.Required(c.ShippingAddress, "shippingAddress")
	v.Required(c.ShippingCity, "shippingCity")
	v.Required(c.ShippingZip, "shippingZip")
	v.Required(c.ShippingCountry, "shippingCountry")
	v.Check(len(cmd.Items) > 0, "items", "at least one item is required")
	for i, it := range cmd.Items {
		field := "items." + strconv.Itoa(i)
		v.UUID(it.ProductID, field+".productId")
		v.Check(it.Quantity > 0, field+".quantity", "must be a positive integer")
	}
	return v.Err()
}

func customerLabel(userID string) string {
	if userID == "" {
		return "guest"
	}
	return "user"
}
