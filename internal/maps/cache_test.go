package maps

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	cache := NewRedisCache(client, "geocode:")
	ctx := context.Background()

	_, ok, err := cache.Get(ctx, "kirkegata 5")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Set(ctx, "kirkegata 5", &Place{Lat: "59.9", Lon: "10.7"}, time.Hour))
	require.NoError(t, cache.Set(ctx, "ukjent", nil, time.Hour))

	place, ok, err := cache.Get(ctx, "kirkegata 5")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "59.9", place.Lat)

	place, ok, err = cache.Get(ctx, "ukjent")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Nil(t, place)

	assert.True(t, mr.Exists("geocode:kirkegata 5"))
	mr.FastForward(2 * time.Hour)
	_, ok, err = cache.Get(ctx, "kirkegata 5")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryCacheExpires(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	cache := NewMemoryCache()
	cache.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "storgata 1", &Place{Lat: "1"}, time.Minute))

	_, ok, _ := cache.Get(ctx, "storgata 1")
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok, _ = cache.Get(ctx, "storgata 1")
	assert.False(t, ok)
}
