package seed

import (
	"context"
	"testing"

	"github.com/Zhima-Mochi/shophub/internal/infrastructure/auth"
	"github.com/Zhima-Mochi/shophub/internal/infrastructure/memory"
	"github.com/Zhima-Mochi/shophub/internal/infrastructure/observability/zaplogger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/crypto/bcrypt"
)

func TestRunIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	hasher := auth.NewBcryptHasher(bcrypt.MinCost)
	core, logs := observer.New(zapcore.InfoLevel)
	logger := zaplogger.New(zap.New(core))
	admin := Admin{Email: "admin@shop-hub.com", Password: "admin123"}

	first, err := Run(ctx, store.Catalog(), store.Admins(), hasher, admin, logger)
	require.NoError(t, err)
	assert.Equal(t, Result{Categories: len(categories), ProductsCreated: len(products), AdminCreated: true}, first)

	p, err := store.Catalog().Get(ctx, ProductID(products[0].slug))
	require.NoError(t, err)
	assert.Equal(t, products[0].name, p.Name)
	assert.Equal(t, CategoryID(products[0].category), p.CategoryID)

	p.Stock = 1
	require.NoError(t, store.Catalog().UpsertProduct(ctx, p))

	second, err := Run(ctx, store.Catalog(), store.Admins(), hasher, admin, logger)
	require.NoError(t, err)
	assert.Equal(t, Result{Categories: len(categories)}, second)

	p, err = store.Catalog().Get(ctx, ProductID(products[0].slug))
	require.NoError(t, err)
	assert.Equal(t, 1, p.Stock, "reseeding keeps stock")

	a, err := store.Admins().GetByEmail(ctx, admin.Email)
	require.NoError(t, err)
	assert.Equal(t, "Admin", a.Name)
	require.NoError(t, hasher.Compare(a.PasswordHash, "admin123"))

	assert.Equal(t, 2, logs.FilterMessage("seed_completed").Len())
}

func TestRunWithoutAdmin(t *testing.T) {
	store := memory.NewStore()

	res, err := Run(context.Background(), store.Catalog(), store.Admins(), auth.NewBcryptHasher(bcrypt.MinCost), Admin{}, nil)
	require.NoError(t, err)
	assert.False(t, res.AdminCreated)
	assert.Equal(t, ProductID("x"), ProductID("x"))
	assert.NotEqual(t, ProductID("x"), CategoryID("x"))
}
