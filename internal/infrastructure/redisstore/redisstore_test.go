package redisstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, ttl time.Duration) (*DedupStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := New(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return NewDedupStore(client, ttl), mr
}

func TestDedupStore_ClaimOnce(t *testing.T) {
	store, _ := newTestStore(t, time.Hour)
	ctx := context.Background()

	first, err := store.Claim(ctx, "evt_1")
	require.NoError(t, err)
	assert.True(t, first)

	second, err := store.Claim(ctx, "evt_1")
	require.NoError(t, err)
	assert.False(t, second)

	other, err := store.Claim(ctx, "evt_2")
	require.NoError(t, err)
	assert.True(t, other)
}

func TestDedupStore_ReleaseAllowsReclaim(t *testing.T) {
	store, _ := newTestStore(t, time.Hour)
	ctx := context.Background()

	_, err := store.Claim(ctx, "evt_1")
	require.NoError(t, err)
	require.NoError(t, store.Release(ctx, "evt_1"))

	again, err := store.Claim(ctx, "evt_1")
	require.NoError(t, err)
	assert.True(t, again)
}

func TestDedupStore_ClaimExpires(t *testing.T) {
	store, mr := newTestStore(t, time.Minute)
	ctx := context.Background()

	_, err := store.Claim(ctx, "evt_1")
	require.NoError(t, err)
	assert.Equal(t, time.Minute, mr.TTL(keyPrefix+"evt_1"))

	mr.FastForward(2 * time.Minute)

	again, err := store.Claim(ctx, "evt_1")
	require.NoError(t, err)
	assert.True(t, again)
}

func TestNew_RejectsBadURL(t *testing.T) {
	_, err := New(context.Background(), "not-a-url://")
	assert.Error(t, err)
}
