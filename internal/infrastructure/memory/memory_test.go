package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	domcatalog "github.com/Zhima-Mochi/shophub/internal/domain/catalog"
	domfavorite "github.com/Zhima-Mochi/shophub/internal/domain/favorite"
	domorder "github.com/Zhima-Mochi/shophub/internal/domain/order"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOrder(t *testing.T, productID string, qty int) *domorder.Order {
	t.Helper()
	o, err := domorder.New(uuid.NewString(), domorder.NewNumber(time.Now(), uuid.New()), domorder.Customer{Email: "a@b.c"},
		[]domorder.Item{{ID: uuid.NewString(), ProductID: productID, ProductName: "x", Quantity: qty, Price: decimal.NewFromInt(5)}},
		domorder.DefaultShippingPolicy(), time.Now())
	require.NoError(t, err)
	return o
}

func TestPlaceReservesAtomically(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	a, b := uuid.NewString(), uuid.NewString()
	require.NoError(t, s.Catalog().UpsertProduct(ctx, domcatalog.Product{ID: a, Stock: 5}))
	require.NoError(t, s.Catalog().UpsertProduct(ctx, domcatalog.Product{ID: b, Stock: 1}))

	o := newOrder(t, a, 2)
	o.Items = append(o.Items, domorder.Item{ID: uuid.NewString(), ProductID: b, Quantity: 2, Price: decimal.NewFromInt(1)})
	require.ErrorIs(t, s.Orders().Place(ctx, o), domcatalog.ErrInsufficientStock)

	pa, err := s.Catalog().Get(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, 5, pa.Stock, "no partial reservation")

	missing := newOrder(t, uuid.NewString(), 1)
	assert.ErrorIs(t, s.Orders().Place(ctx, missing), domcatalog.ErrNotFound)

	ok := newOrder(t, a, 2)
	ok.IdempotencyKey = "k"
	require.NoError(t, s.Orders().Place(ctx, ok))
	dup := newOrder(t, a, 1)
	dup.IdempotencyKey = "k"
	assert.ErrorIs(t, s.Orders().Place(ctx, dup), domorder.ErrConflict)

	other := newOrder(t, a, 1)
	other.IdempotencyKey = "k"
	other.UserID = "u1"
	require.NoError(t, s.Orders().Place(ctx, other), "keys are scoped per caller")

	found, err := s.Orders().FindByIdempotency(ctx, ok.IdempotencyScope(), "k")
	require.NoError(t, err)
	assert.Equal(t, ok.ID, found.ID)
	found, err = s.Orders().FindByIdempotency(ctx, other.IdempotencyScope(), "k")
	require.NoError(t, err)
	assert.Equal(t, other.ID, found.ID)
}

func TestPaymentRefsAreUnique(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	p := uuid.NewString()
	require.NoError(t, s.Catalog().UpsertProduct(ctx, domcatalog.Product{ID: p, Stock: 5}))

	first := newOrder(t, p, 1)
	first.PaymentRef = "pi_1"
	require.NoError(t, s.Orders().Place(ctx, first))

	second := newOrder(t, p, 1)
	second.PaymentRef = "pi_1"
	require.ErrorIs(t, s.Orders().Place(ctx, second), domorder.ErrPaymentRefTaken)
	prod, err := s.Catalog().Get(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, 4, prod.Stock)

	second.PaymentRef = ""
	require.NoError(t, s.Orders().Place(ctx, second))
	assert.ErrorIs(t, s.Orders().AttachPaymentRef(ctx, second.ID, "pi_1"), domorder.ErrPaymentRefTaken)
	_, err = s.Orders().MarkPaid(ctx, second.ID, "pi_1")
	assert.ErrorIs(t, err, domorder.ErrPaymentRefTaken)

	require.NoError(t, s.Orders().AttachPaymentRef(ctx, first.ID, "pi_2"))
	require.NoError(t, s.Orders().AttachPaymentRef(ctx, second.ID, "pi_1"), "the old reference is freed")
	found, err := s.Orders().FindByPaymentRef(ctx, "pi_1")
	require.NoError(t, err)
	assert.Equal(t, second.ID, found.ID)
}

func TestConditionalWrites(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	p := uuid.NewString()
	require.NoError(t, s.Catalog().UpsertProduct(ctx, domcatalog.Product{ID: p, Stock: 3}))
	o := newOrder(t, p, 2)
	require.NoError(t, s.Orders().Place(ctx, o))
	orders := s.Orders()

	changed, err := orders.MarkPaid(ctx, o.ID, "pi_9")
	require.NoError(t, err)
	assert.True(t, changed)
	changed, err = orders.MarkPaid(ctx, o.ID, "pi_other")
	require.NoError(t, err)
	assert.False(t, changed)
	_, err = orders.MarkPaymentFailed(ctx, o.ID)
	assert.ErrorIs(t, err, domorder.ErrAlreadyPaid)
	assert.ErrorIs(t, orders.AttachPaymentRef(ctx, o.ID, "pi_other"), domorder.ErrAlreadyPaid)

	assert.ErrorIs(t, orders.SetStatus(ctx, o.ID, domorder.StatusShipped, domorder.StatusDelivered), domorder.ErrConflict)
	require.NoError(t, orders.SetStatus(ctx, o.ID, domorder.StatusPending, domorder.StatusCancelled))

	got, err := orders.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domorder.StatusCancelled, got.Status)
	assert.Equal(t, domorder.PaymentPaid, got.PaymentStatus, "status writes leave payment alone")
	assert.Equal(t, "pi_9", got.PaymentRef)

	released, err := orders.ReleaseStock(ctx, o.ID)
	require.NoError(t, err)
	require.True(t, released)

	// Someone else buys while the order is cancelled; reopening cannot be covered.
	other := newOrder(t, p, 2)
	require.NoError(t, orders.Place(ctx, other))
	assert.ErrorIs(t, orders.SetStatus(ctx, o.ID, domorder.StatusCancelled, domorder.StatusPending), domcatalog.ErrInsufficientStock)

	require.NoError(t, orders.SetStatus(ctx, other.ID, domorder.StatusPending, domorder.StatusCancelled))
	_, err = orders.ReleaseStock(ctx, other.ID)
	require.NoError(t, err)
	require.NoError(t, orders.SetStatus(ctx, o.ID, domorder.StatusCancelled, domorder.StatusPending))

	prod, err := s.Catalog().Get(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, 1, prod.Stock, "reopening reserves the stock again")
	got, err = orders.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.False(t, got.StockReleased)
}

func TestOrdersAreCopied(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	p := uuid.NewString()
	require.NoError(t, s.Catalog().UpsertProduct(ctx, domcatalog.Product{ID: p, Stock: 5}))
	o := newOrder(t, p, 1)
	require.NoError(t, s.Orders().Place(ctx, o))

	got, err := s.Orders().Get(ctx, o.ID)
	require.NoError(t, err)
	got.Items[0].Quantity = 99
	got.Status = domorder.StatusShipped

	again, err := s.Orders().Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, again.Items[0].Quantity)
	assert.Equal(t, domorder.StatusPending, again.Status)
}

func TestReleaseStockOnce(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	p := uuid.NewString()
	require.NoError(t, s.Catalog().UpsertProduct(ctx, domcatalog.Product{ID: p, Stock: 3}))
	o := newOrder(t, p, 3)
	require.NoError(t, s.Orders().Place(ctx, o))

	released, err := s.Orders().ReleaseStock(ctx, o.ID)
	require.NoError(t, err)
	assert.False(t, released, "pending orders keep their stock")
	require.NoError(t, s.Orders().SetStatus(ctx, o.ID, domorder.StatusPending, domorder.StatusCancelled))

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := s.Orders().ReleaseStock(ctx, o.ID)
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)

	prod, err := s.Catalog().Get(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, 3, prod.Stock)
}

func TestFavoritesAndDedup(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	favs := s.Favorites()

	created, err := favs.Add(ctx, domfavorite.Favorite{UserID: "u", ProductID: "p1", CreatedAt: time.Now()})
	require.NoError(t, err)
	assert.True(t, created)
	created, err = favs.Add(ctx, domfavorite.Favorite{UserID: "u", ProductID: "p1", CreatedAt: time.Now()})
	require.NoError(t, err)
	assert.False(t, created)

	d := NewDedupStore(time.Minute)
	now := time.Now()
	d.now = func() time.Time { return now }
	first, _ := d.Claim(ctx, "evt")
	second, _ := d.Claim(ctx, "evt")
	assert.True(t, first)
	assert.False(t, second)

	now = now.Add(2 * time.Minute)
	expired, _ := d.Claim(ctx, "evt")
	assert.True(t, expired)

	require.NoError(t, d.Release(ctx, "evt"))
	reclaimed, _ := d.Claim(ctx, "evt")
	assert.True(t, reclaimed)
}
