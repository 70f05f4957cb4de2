package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Filter narrows order listings. Zero values mean "any".
type Filter struct {
	UserID        string
	Status        Status
	PaymentStatus PaymentStatus
	// Search matches order number, customer email or customer name, case-insensitively.
	Search       string
	CreatedFrom  time.Time
	CreatedUntil time.Time
	// HasPaymentRef restricts to orders linked to a provider payment intent.
	HasPaymentRef bool
}

// Page selects a window of a newest-first listing.
type Page struct {
	Offset int
	Limit  int
}

// Repository persists orders. Writes after placement are scoped to the fields they own and
// conditional on the state they were decided from, so a payment callback and a back-office
// update racing on the same order never overwrite each other.
type Repository interface {
	// Place persists the order with its items and reserves stock for every line in one atomic step.
	// It returns catalog.ErrInsufficientStock or catalog.ErrNotFound without persisting anything,
	// ErrPaymentRefTaken when another order holds the payment reference, and ErrConflict when the
	// order number or the scoped idempotency key already exists.
	Place(ctx context.Context, order *Order) error
	Get(ctx context.Context, id string) (*Order, error)
	// FindByIdempotency looks key up within one caller's scope (see IdempotencyScope).
	FindByIdempotency(ctx context.Context, scope, key string) (*Order, error)
	FindByPaymentRef(ctx context.Context, ref string) (*Order, error)
	// SetStatus moves the order from → to and returns ErrConflict when it is no longer in from.
	// Leaving CANCELLED after the stock was released reserves it again in the same atomic step,
	// failing with catalog.ErrInsufficientStock when a line can no longer be covered.
	SetStatus(ctx context.Context, id string, from, to Status) error
	// MarkPaid sets the payment PAID and, when ref is not empty, the payment reference. It reports
	// changed=false for an order that is already paid.
	MarkPaid(ctx context.Context, id, ref string) (changed bool, err error)
	// MarkPaymentFailed moves a PENDING payment to FAILED. It returns ErrAlreadyPaid for a paid
	// order and changed=false for one that already failed.
	MarkPaymentFailed(ctx context.Context, id string) (changed bool, err error)
	// AttachPaymentRef links a payment intent to an unpaid order, or returns ErrAlreadyPaid.
	AttachPaymentRef(ctx context.Context, id, ref string) error
	List(ctx context.Context, filter Filter, page Page) ([]*Order, error)
	Count(ctx context.Context, filter Filter) (int, error)
	// SumTotal adds up Total over matching orders.
	SumTotal(ctx context.Context, filter Filter) (decimal.Decimal, error)
	// ReleaseStock flips StockReleased from false to true on a cancelled order and returns every
	// item's quantity to its product in the same atomic step. It reports whether this call did the
	// release; orders that are not cancelled are left alone.
	ReleaseStock(ctx context.Context, id string) (bool, error)
}
