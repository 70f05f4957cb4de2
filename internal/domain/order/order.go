package order

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound        = errors.New("order: not found")
	ErrConflict        = errors.New("order: conflict")
	ErrInvalidQuantity = errors.New("order: quantity must be greater than zero")
	ErrInvalidPrice    = errors.New("order: price must be zero or greater")
	ErrNoItems         = errors.New("order: at least one item is required")
	ErrInvalidStatus   = errors.New("order: unknown status")
	ErrAlreadyPaid     = errors.New("order: already paid")
	ErrPaymentRefTaken = errors.New("order: payment reference belongs to another order")
)

// Status is the fulfilment state of an order.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusShipped    Status = "SHIPPED"
	StatusDelivered  Status = "DELIVERED"
	StatusCancelled  Status = "CANCELLED"
)

// ParseStatus validates s against the known fulfilment statuses.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return st, nil
	}
	return "", ErrInvalidStatus
}

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentPaid    PaymentStatus = "PAID"
	PaymentFailed  PaymentStatus = "FAILED"
)

func ParsePaymentStatus(s string) (PaymentStatus, error) {
	switch ps := PaymentStatus(s); ps {
	case PaymentPending, PaymentPaid, PaymentFailed:
		return ps, nil
	}
	return "", ErrInvalidStatus
}

// Customer holds the contact and shipping details captured at checkout.
type Customer struct {
	Email           string
	Name            string
	Phone           string
	ShippingAddress string
	ShippingCity    string
	ShippingZip     string
	ShippingCountry string
}

// Item is an order line. Name and price are snapshots taken at placement.
type Item struct {
	ID          string
	ProductID   string
	ProductName string
	Quantity    int
	Price       decimal.Decimal
}

type Order struct {
	ID             string
	Number         string
	Customer       Customer
	Items          []Item
	Subtotal       decimal.Decimal
	ShippingCost   decimal.Decimal
	Total          decimal.Decimal
	Status         Status
	PaymentStatus  PaymentStatus
	PaymentRef     string
	UserID         string
	IdempotencyKey string
	// RequestHash fingerprints the checkout request that created the order; a replay of the
	// idempotency key must carry the same fingerprint.
	RequestHash    string
	StockReleased  bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// New builds a pending order. Totals are computed from items with the given shipping policy.
func New(id, number string, customer Customer, items []Item, policy ShippingPolicy, now time.Time) (*Order, error) {
	if len(items) == 0 {
		return nil, ErrNoItems
	}
	for _, it := range items {
		if it.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		if it.Price.IsNegative() {
			return nil, ErrInvalidPrice
		}
	}

	totals := ComputeTotals(items, policy)
	now = now.UTC()
	return &Order{
		ID:            id,
		Number:        number,
		Customer:      customer,
		Items:         append([]Item(nil), items...),
		Subtotal:      totals.Subtotal,
		ShippingCost:  totals.Shipping,
		Total:         totals.Total,
		Status:        StatusPending,
		PaymentStatus: PaymentPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// Clone returns a deep copy so repositories never share item slices with callers.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	c := *o
	c.Items = append([]Item(nil), o.Items...)
	return &c
}

// IdempotencyScope namespaces idempotency keys per caller: the signed-in user, or the guest's
// email when there is none.
func IdempotencyScope(userID, email string) string {
	if userID != "" {
		return "user:" + userID
	}
	return "guest:" + strings.ToLower(strings.TrimSpace(email))
}

func (o *Order) IdempotencyScope() string {
	return IdempotencyScope(o.UserID, o.Customer.Email)
}

// OwnedBy reports whether the order was placed by the given signed-in user.
func (o *Order) OwnedBy(userID string) bool {
	return userID != "" && o.UserID == userID
}

func (o *Order) touch() {
	o.UpdatedAt = time.Now().UTC()
}
