package redisadapter

import (
	"context"
	"testing"
	"time"

	"vitrine/contexts/merchant-onboarding/onboarding-status/domain/entities"
	domainerrors "vitrine/contexts/merchant-onboarding/onboarding-status/domain/errors"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCache(t *testing.T, opts ...Option) (*Cache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, opts...), mr
}

func TestCacheStoreAndStatusRoundTrip(t *testing.T) {
	cache, mr := setupCache(t)
	ctx := context.Background()

	_, found, err := cache.GetStoreID(ctx, "user_1")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, cache.SetStoreID(ctx, "user_1", "store_1", time.Minute))
	require.NoError(t, cache.SetStatus(ctx, "store_1", entities.StatusSkipped, time.Minute))

	storeID, found, err := cache.GetStoreID(ctx, "user_1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "store_1", storeID)

	status, found, err := cache.GetStatus(ctx, "store_1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, entities.StatusSkipped, status)

	assert.True(t, mr.Exists("vitrine:onboarding:user:user_1"))
	assert.True(t, mr.Exists("vitrine:onboarding:store:store_1"))
}

func TestCacheEntriesExpire(t *testing.T) {
	cache, mr := setupCache(t, WithPrefix("test:"))
	ctx := context.Background()

	require.NoError(t, cache.SetStatus(ctx, "store_1", entities.StatusCompleted, 30*time.Second))
	assert.True(t, mr.Exists("test:store:store_1"))

	mr.FastForward(31 * time.Second)
	_, found, err := cache.GetStatus(ctx, "store_1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCacheReserveEvent(t *testing.T) {
	cache, mr := setupCache(t)
	ctx := context.Background()
	expires := time.Now().Add(time.Hour)

	processed, err := cache.ReserveEvent(ctx, "evt_1", "hash-a", expires)
	require.NoError(t, err)
	assert.False(t, processed)

	processed, err = cache.ReserveEvent(ctx, "evt_1", "hash-a", expires)
	require.NoError(t, err)
	assert.True(t, processed)

	_, err = cache.ReserveEvent(ctx, "evt_1", "hash-b", expires)
	assert.ErrorIs(t, err, domainerrors.ErrIdempotencyConflict)

	mr.FastForward(2 * time.Hour)
	processed, err = cache.ReserveEvent(ctx, "evt_1", "hash-b", time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, processed)
}

func TestCacheSurfacesConnectionErrors(t *testing.T) {
	cache, mr := setupCache(t)
	mr.Close()

	_, _, err := cache.GetStoreID(context.Background(), "user_1")
	require.Error(t, err)
}
