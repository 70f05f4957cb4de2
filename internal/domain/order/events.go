package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreatedEvent is emitted after an order and its stock reservation are committed.
type CreatedEvent struct {
	OrderID    string
	Number     string
	UserID     string
	Total      decimal.Decimal
	Items      []Item
	OccurredAt time.Time
}

func (CreatedEvent) EventName() string { return "order.created" }
func (e CreatedEvent) AggregateID() string { return e.OrderID }

func NewCreatedEvent(o *Order) CreatedEvent {
	return CreatedEvent{
		OrderID:    o.ID,
		Number:     o.Number,
		UserID:     o.UserID,
		Total:      o.Total,
		Items:      append([]Item(nil), o.Items...),
		OccurredAt: time.Now().UTC(),
	}
}

// PaidEvent is emitted when the payment provider confirms an order's payment.
type PaidEvent struct {
	OrderID    string
	PaymentRef string
	Total      decimal.Decimal
	Source     string
	OccurredAt time.Time
}

func (PaidEvent) EventName() string { return "order.paid" }
func (e PaidEvent) AggregateID() string { return e.OrderID }

func NewPaidEvent(o *Order, source string) PaidEvent {
	return PaidEvent{
		OrderID:    o.ID,
		PaymentRef: o.PaymentRef,
		Total:      o.Total,
		Source:     source,
		OccurredAt: time.Now().UTC(),
	}
}

// PaymentFailedEvent is emitted when the provider reports a declined payment.
type PaymentFailedEvent struct {
	OrderID    string
	PaymentRef string
	OccurredAt time.Time
}

func (PaymentFailedEvent) EventName() string { return "order.payment_failed" }
func (e PaymentFailedEvent) AggregateID() string { return e.OrderID }

func NewPaymentFailedEvent(o *Order) PaymentFailedEvent {
	return PaymentFailedEvent{
		OrderID:    o.ID,
		PaymentRef: o.PaymentRef,
		OccurredAt: time.Now().UTC(),
	}
}

type StatusChangedEvent struct {
	OrderID    string
	From       Status
	To         Status
	OccurredAt time.Time
}

func (StatusChangedEvent) EventName() string { return "order.status_changed" }
func (e StatusChangedEvent) AggregateID() string { return e.OrderID }

func NewStatusChangedEvent(o *Order, from Status) StatusChangedEvent {
	return StatusChangedEvent{
		OrderID:    o.ID,
		From:       from,
		To:         o.Status,
		OccurredAt: time.Now().UTC(),
	}
}

// CancelledEvent asks inventory to return the order's reserved stock.
type CancelledEvent struct {
	OrderID    string
	OccurredAt time.Time
}

func (CancelledEvent) EventName() string { return "order.cancelled" }
func (e CancelledEvent) AggregateID() string { return e.OrderID }

func NewCancelledEvent(o *Order) CancelledEvent {
	return CancelledEvent{
		OrderID:    o.ID,
		OccurredAt: time.Now().UTC(),
	}
}
