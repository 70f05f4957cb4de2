package favorite_test

import (
	"context"
	"testing"

	appfavorite "github.com/Zhima-Mochi/shophub/internal/application/favorite"
	domcatalog "github.com/Zhima-Mochi/shophub/internal/domain/catalog"
	"github.com/Zhima-Mochi/shophub/internal/infrastructure/memory"
	"github.com/Zhima-Mochi/shophub/internal/observability"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFavorites(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	first, second := uuid.NewString(), uuid.NewString()
	for _, id := range []string{first, second} {
		require.NoError(t, store.Catalog().UpsertProduct(ctx, domcatalog.Product{
			ID: id, Name: "p-" + id[:4], Price: decimal.NewFromInt(3), Status: domcatalog.ProductActive,
		}))
	}
	svc := appfavorite.NewService(store.Favorites(), store.Catalog(), observability.Nop())
	user := uuid.NewString()

	created, err := svc.Add(ctx, user, first)
	require.NoError(t, err)
	assert.True(t, created)
	created, err = svc.Add(ctx, user, first)
	require.NoError(t, err)
	assert.False(t, created)

	_, err = svc.Add(ctx, user, uuid.NewString())
	assert.ErrorIs(t, err, appfavorite.ErrProductNotFound)

	_, err = svc.Add(ctx, user, second)
	require.NoError(t, err)

	products, err := svc.List(ctx, user)
	require.NoError(t, err)
	require.Len(t, products, 2)

	ok, err := svc.Check(ctx, user, first)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = svc.Check(ctx, uuid.NewString(), first)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, svc.Remove(ctx, user, first))
	require.NoError(t, svc.Remove(ctx, user, first))
	products, err = svc.List(ctx, user)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, second, products[0].ID)
}
