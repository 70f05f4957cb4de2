package inventory_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	appinventory "github.com/Zhima-Mochi/shophub/internal/application/inventory"
	domcatalog "github.com/Zhima-Mochi/shophub/internal/domain/catalog"
	domorder "github.com/Zhima-Mochi/shophub/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/shophub/internal/domain/outbox"
	"github.com/Zhima-Mochi/shophub/internal/infrastructure/memory"
	"github.com/Zhima-Mochi/shophub/internal/observability"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingPublisher struct{ n atomic.Int32 }

func (p *countingPublisher) Publish(context.Context, domoutbox.Event) error {
	p.n.Add(1)
	return nil
}

func setup(t *testing.T) (*memory.Store, *domorder.Order, string) {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	productID := uuid.NewString()
	require.NoError(t, store.Catalog().UpsertProduct(ctx, domcatalog.Product{
		ID: productID, Name: "Mug", Price: decimal.NewFromInt(8), Stock: 10, Status: domcatalog.ProductActive,
	}))
	o, err := domorder.New(uuid.NewString(), domorder.NewNumber(time.Now(), uuid.New()), domorder.Customer{},
		[]domorder.Item{{ID: uuid.NewString(), ProductID: productID, ProductName: "Mug", Quantity: 4, Price: decimal.NewFromInt(8)}},
		domorder.DefaultShippingPolicy(), time.Now())
	require.NoError(t, err)
	require.NoError(t, store.Orders().Place(ctx, o))
	return store, o, productID
}

func stock(t *testing.T, store *memory.Store, productID string) int {
	t.Helper()
	p, err := store.Catalog().Get(context.Background(), productID)
	require.NoError(t, err)
	return p.Stock
}

func TestReleaseStock(t *testing.T) {
	ctx := context.Background()
	store, o, productID := setup(t)
	pub := &countingPublisher{}
	uc := appinventory.NewReleaseStockUseCase(store.Orders(), pub, observability.Nop())
	require.Equal(t, 6, stock(t, store, productID))

	res, err := uc.Execute(ctx, appinventory.ReleaseStockInput{OrderID: o.ID})
	require.NoError(t, err)
	assert.False(t, res.Released, "only cancelled orders give stock back")
	assert.Equal(t, 6, stock(t, store, productID))

	require.NoError(t, store.Orders().SetStatus(ctx, o.ID, domorder.StatusPending, domorder.StatusCancelled))

	res, err = uc.Execute(ctx, appinventory.ReleaseStockInput{OrderID: o.ID})
	require.NoError(t, err)
	assert.True(t, res.Released)
	assert.Equal(t, []domcatalog.StockLine{{ProductID: productID, Quantity: 4}}, res.Lines)
	assert.Equal(t, 10, stock(t, store, productID))

	res, err = uc.Execute(ctx, appinventory.ReleaseStockInput{OrderID: o.ID})
	require.NoError(t, err)
	assert.False(t, res.Released)
	assert.Equal(t, 10, stock(t, store, productID))
	assert.EqualValues(t, 1, pub.n.Load())

	_, err = uc.Execute(ctx, appinventory.ReleaseStockInput{OrderID: uuid.NewString()})
	assert.ErrorIs(t, err, domorder.ErrNotFound)
}

func TestReleaseStockConcurrentDeliveries(t *testing.T) {
	ctx := context.Background()
	store, o, productID := setup(t)
	require.NoError(t, store.Orders().SetStatus(ctx, o.ID, domorder.StatusPending, domorder.StatusCancelled))

	uc := appinventory.NewReleaseStockUseCase(store.Orders(), nil, observability.Nop())
	var (
		wg       sync.WaitGroup
		released atomic.Int32
	)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := uc.Execute(ctx, appinventory.ReleaseStockInput{OrderID: o.ID})
			if assert.NoError(t, err) && res.Released {
				released.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, released.Load())
	assert.Equal(t, 10, stock(t, store, productID))
}
