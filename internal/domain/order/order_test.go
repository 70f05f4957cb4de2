package order

import (
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func item(price string, qty int) Item {
	return Item{ProductID: uuid.NewString(), ProductName: "p", Quantity: qty, Price: decimal.RequireFromString(price)}
}

func TestComputeTotals(t *testing.T) {
	policy := DefaultShippingPolicy()

	tests := []struct {
		name     string
		items    []Item
		subtotal string
		shipping string
		total    string
	}{
		{name: "below threshold pays the flat fee", items: []Item{item("45.50", 2)}, subtotal: "91", shipping: "10", total: "101"},
		{name: "exactly at threshold ships free", items: []Item{item("50", 2)}, subtotal: "100", shipping: "0", total: "100"},
		{name: "above threshold ships free", items: []Item{item("19.99", 3), item("60", 1)}, subtotal: "119.97", shipping: "0", total: "119.97"},
		{name: "cents stay exact", items: []Item{item("0.10", 3)}, subtotal: "0.3", shipping: "10", total: "10.3"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ComputeTotals(tc.items, policy)
			assert.True(t, got.Subtotal.Equal(decimal.RequireFromString(tc.subtotal)), "subtotal %s", got.Subtotal)
			assert.True(t, got.Shipping.Equal(decimal.RequireFromString(tc.shipping)), "shipping %s", got.Shipping)
			assert.True(t, got.Total.Equal(decimal.RequireFromString(tc.total)), "total %s", got.Total)
		})
	}
}

func TestComputeTotalsProperties(t *testing.T) {
	policy := DefaultShippingPolicy()
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 8).Draw(t, "lines")
		items := make([]Item, n)
		sum := decimal.Zero
		for i := range items {
			cents := rapid.Int64Range(0, 100_000).Draw(t, "cents")
			qty := rapid.IntRange(1, 20).Draw(t, "qty")
			price := decimal.New(cents, -2)
			items[i] = Item{Quantity: qty, Price: price}
			sum = sum.Add(price.Mul(decimal.NewFromInt(int64(qty))))
		}

		got := ComputeTotals(items, policy)
		if !got.Subtotal.Equal(sum) {
			t.Fatalf("subtotal %s, want %s", got.Subtotal, sum)
		}
		if !got.Total.Equal(got.Subtotal.Add(got.Shipping)) {
			t.Fatalf("total %s != subtotal %s + shipping %s", got.Total, got.Subtotal, got.Shipping)
		}
		free := got.Subtotal.GreaterThanOrEqual(policy.FreeThreshold)
		if free != got.Shipping.IsZero() {
			t.Fatalf("subtotal %s charged shipping %s", got.Subtotal, got.Shipping)
		}
	})
}

func TestNew(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("x", 3600))

	o, err := New("id", "ORD-1", Customer{Email: "a@b.c"}, []Item{item("20", 1)}, DefaultShippingPolicy(), now)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, PaymentPending, o.PaymentStatus)
	assert.Equal(t, time.UTC, o.CreatedAt.Location())
	assert.True(t, o.Total.Equal(decimal.NewFromInt(30)))

	_, err = New("id", "n", Customer{}, nil, DefaultShippingPolicy(), now)
	assert.ErrorIs(t, err, ErrNoItems)
	_, err = New("id", "n", Customer{}, []Item{item("1", 0)}, DefaultShippingPolicy(), now)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	_, err = New("id", "n", Customer{}, []Item{item("-1", 1)}, DefaultShippingPolicy(), now)
	assert.ErrorIs(t, err, ErrInvalidPrice)
}

func TestTransitionTo(t *testing.T) {
	tests := []struct {
		from    Status
		to      Status
		changed bool
		err     error
	}{
		{from: StatusPending, to: StatusProcessing, changed: true},
		{from: StatusPending, to: StatusDelivered, changed: true},
		{from: StatusShipped, to: StatusCancelled, changed: true},
		{from: StatusShipped, to: StatusProcessing, changed: true},
		{from: StatusDelivered, to: StatusShipped, changed: true},
		{from: StatusCancelled, to: StatusPending, changed: true},
		{from: StatusShipped, to: StatusShipped},
		{from: StatusPending, to: Status("LOST"), err: ErrInvalidStatus},
	}
	for _, tc := range tests {
		t.Run(string(tc.from)+"->"+string(tc.to), func(t *testing.T) {
			o := &Order{Status: tc.from}
			changed, err := o.TransitionTo(tc.to)
			if tc.err != nil {
				require.ErrorIs(t, err, tc.err)
				assert.Equal(t, tc.from, o.Status)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.changed, changed)
			assert.Equal(t, tc.to, o.Status)
		})
	}
}

func TestReopens(t *testing.T) {
	assert.True(t, Reopens(StatusCancelled, StatusPending))
	assert.True(t, Reopens(StatusCancelled, StatusDelivered))
	assert.False(t, Reopens(StatusCancelled, StatusCancelled))
	assert.False(t, Reopens(StatusShipped, StatusPending))
}

func TestIdempotencyScope(t *testing.T) {
	guest := &Order{Customer: Customer{Email: " Jane@Example.com"}}
	assert.Equal(t, "guest:jane@example.com", guest.IdempotencyScope())

	user := &Order{UserID: "u1", Customer: Customer{Email: "jane@example.com"}}
	assert.Equal(t, "user:u1", user.IdempotencyScope())
	assert.NotEqual(t, guest.IdempotencyScope(), user.IdempotencyScope())
}

func TestPaymentTransitions(t *testing.T) {
	o := &Order{PaymentStatus: PaymentPending}

	changed, err := o.MarkPaymentFailed()
	require.NoError(t, err)
	assert.True(t, changed)

	assert.True(t, o.MarkPaid("pi_1"))
	assert.Equal(t, "pi_1", o.PaymentRef)
	assert.False(t, o.MarkPaid("pi_1"))

	changed, err = o.MarkPaymentFailed()
	assert.ErrorIs(t, err, ErrAlreadyPaid)
	assert.False(t, changed)
	assert.Equal(t, PaymentPaid, o.PaymentStatus)
}

func TestNewNumber(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	n := NewNumber(now, uuid.MustParse("abcdef12-3456-7890-abcd-ef1234567890"))
	assert.Regexp(t, regexp.MustCompile(`^ORD-[0-9A-Z]+-ABCD$`), n)
	assert.NotEqual(t, n, NewNumber(now, uuid.MustParse("12345678-3456-7890-abcd-ef1234567890")))
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("SHIPPED")
	require.NoError(t, err)
	assert.Equal(t, StatusShipped, s)

	_, err = ParseStatus("shipped")
	assert.ErrorIs(t, err, ErrInvalidStatus)
	_, err = ParsePaymentStatus("REFUNDED")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}
