package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, payload []byte) error
	Delete(ctx context.Context, keys ...string) error
	DeletePrefix(ctx context.Context, prefix string) error
}

func newRedis(t *testing.T, ttl time.Duration) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewRedis(rdb, ttl), mr
}

func TestCacheBackends(t *testing.T) {
	redisCache, _ := newRedis(t, 0)
	backends := map[string]store{
		"memory": NewMemory(0),
		"redis":  redisCache,
	}

	for name, c := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, ok, err := c.Get(ctx, "index:2024-01-01:2024-01-31")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, c.Set(ctx, "index:2024-01-01:2024-01-31", []byte(`[]`)))
			require.NoError(t, c.Set(ctx, "index:2024-02-01:2024-02-28", []byte(`[{"date":"2024-02-01"}]`)))
			require.NoError(t, c.Set(ctx, "composition:2024-01-02", []byte(`[]`)))

			payload, ok, err := c.Get(ctx, "index:2024-01-01:2024-01-31")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, `[]`, string(payload))

			require.NoError(t, c.DeletePrefix(ctx, "index:"))
			_, ok, _ = c.Get(ctx, "index:2024-02-01:2024-02-28")
			assert.False(t, ok)
			_, ok, _ = c.Get(ctx, "composition:2024-01-02")
			assert.True(t, ok)

			require.NoError(t, c.Delete(ctx, "composition:2024-01-02"))
			_, ok, _ = c.Get(ctx, "composition:2024-01-02")
			assert.False(t, ok)

			require.NoError(t, c.Delete(ctx))
		})
	}
}

func TestRedisTTL(t *testing.T) {
	ctx := context.Background()

	persistent, mr := newRedis(t, 0)
	require.NoError(t, persistent.Set(ctx, "changes:a:b", []byte(`[]`)))
	assert.Equal(t, time.Duration(0), mr.TTL("changes:a:b"))

	expiring, mr2 := newRedis(t, time.Minute)
	require.NoError(t, expiring.Set(ctx, "changes:a:b", []byte(`[]`)))
	assert.Equal(t, time.Minute, mr2.TTL("changes:a:b"))

	mr2.FastForward(2 * time.Minute)
	_, ok, err := expiring.Get(ctx, "changes:a:b")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisUnavailable(t *testing.T) {
	c, mr := newRedis(t, 0)
	mr.Close()

	_, _, err := c.Get(context.Background(), "index:a:b")
	assert.Error(t, err)
	assert.Error(t, c.Set(context.Background(), "index:a:b", []byte(`[]`)))
}

func TestMemoryExpiryAndStats(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	c := NewMemory(time.Minute)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "composition:2024-01-02", []byte(`[1]`)))

	_, ok, _ := c.Get(ctx, "composition:2024-01-02")
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok, _ = c.Get(ctx, "composition:2024-01-02")
	assert.False(t, ok)

	stats := c.Stats()
	assert.Equal(t, int64(1), stats["hit_count"])
	assert.Equal(t, int64(1), stats["miss_count"])
	assert.Equal(t, 0.5, stats["hit_ratio"])
	assert.Equal(t, 0, stats["entries"])
}

func TestMemoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(0)

	payload := []byte(`[1]`)
	require.NoError(t, c.Set(ctx, "k", payload))
	payload[1] = '9'

	got, ok, _ := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, `[1]`, string(got))
}
