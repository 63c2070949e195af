package ledger

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute), mr
}

func TestCacheVersionInitialises(t *testing.T) {
	cache, _ := newTestCache(t)

	ver, err := cache.Version(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(1), ver)
}

func TestCacheBumpChangesKeys(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	before, err := cache.BuildKey(ctx, "ledger:summaries")
	require.NoError(t, err)
	require.NoError(t, cache.Bump(ctx))
	after, err := cache.BuildKey(ctx, "ledger:summaries")
	require.NoError(t, err)
	require.NotEqual(t, before, after)
}

func TestCacheFetchJSONPopulatesOnce(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	loads := 0
	loader := func(context.Context) (any, error) {
		loads++
		return map[string]float64{"total": 42.5}, nil
	}

	var out map[string]float64
	require.NoError(t, cache.FetchJSON(ctx, "k", &out, loader))
	require.NoError(t, cache.FetchJSON(ctx, "k", &out, loader))
	require.Equal(t, 1, loads)
	require.Equal(t, 42.5, out["total"])
}

func TestCacheFetchJSONRecoversFromCorruptBlob(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, mr.Set("k", "{not json"))

	var out map[string]float64
	err := cache.FetchJSON(ctx, "k", &out, func(context.Context) (any, error) {
		return map[string]float64{"total": 7}, nil
	})
	require.NoError(t, err)
	require.Equal(t, 7.0, out["total"])
}

func TestNilCacheDegradesToLoader(t *testing.T) {
	var cache *Cache
	ctx := context.Background()

	var out map[string]float64
	err := cache.FetchJSON(ctx, "k", &out, func(context.Context) (any, error) {
		return map[string]float64{"total": 3}, nil
	})
	require.NoError(t, err)
	require.Equal(t, 3.0, out["total"])
	require.NoError(t, cache.Bump(ctx))
	require.NoError(t, cache.StoreJSON(ctx, "k", out))
}
