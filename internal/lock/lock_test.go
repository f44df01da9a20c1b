package lock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockers(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	lockers := map[string]Locker{
		"redis": NewRedisLocker(rdb),
		"local": NewLocalLocker(),
	}

	for name, locker := range lockers {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			lease, err := locker.Acquire(ctx, "lock:build", time.Minute)
			require.NoError(t, err)

			_, err = locker.Acquire(ctx, "lock:build", time.Minute)
			assert.ErrorIs(t, err, ErrHeld)

			other, err := locker.Acquire(ctx, "lock:other", time.Minute)
			require.NoError(t, err)
			require.NoError(t, other.Release(ctx))

			require.NoError(t, lease.Release(ctx))

			again, err := locker.Acquire(ctx, "lock:build", time.Minute)
			require.NoError(t, err)
			require.NoError(t, again.Release(ctx))
		})
	}
}

func TestRedisLeaseDoesNotReleaseForeignToken(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	ctx := context.Background()
	locker := NewRedisLocker(rdb)

	lease, err := locker.Acquire(ctx, "lock:build", time.Second)
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)
	newer, err := locker.Acquire(ctx, "lock:build", time.Minute)
	require.NoError(t, err)

	require.NoError(t, lease.Release(ctx))
	assert.True(t, mr.Exists("lock:build"), "expired lease must not release the new holder")

	require.NoError(t, newer.Release(ctx))
	assert.False(t, mr.Exists("lock:build"))
}

func TestRedisLeaseExtend(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	ctx := context.Background()
	locker := NewRedisLocker(rdb)

	lease, err := locker.Acquire(ctx, "lock:build", 10*time.Second)
	require.NoError(t, err)

	mr.FastForward(8 * time.Second)
	require.NoError(t, lease.Extend(ctx, 10*time.Second))
	assert.Equal(t, 10*time.Second, mr.TTL("lock:build"))

	// still held past the original expiry
	mr.FastForward(8 * time.Second)
	_, err = locker.Acquire(ctx, "lock:build", time.Minute)
	assert.ErrorIs(t, err, ErrHeld)

	mr.FastForward(3 * time.Second)
	newer, err := locker.Acquire(ctx, "lock:build", time.Minute)
	require.NoError(t, err)

	assert.ErrorIs(t, lease.Extend(ctx, time.Minute), ErrLost)
	assert.Equal(t, time.Minute, mr.TTL("lock:build"))
	require.NoError(t, newer.Release(ctx))
}

func TestLocalLeaseExtend(t *testing.T) {
	lease, err := NewLocalLocker().Acquire(context.Background(), "lock:build", time.Second)
	require.NoError(t, err)
	assert.NoError(t, lease.Extend(context.Background(), time.Second))
	require.NoError(t, lease.Release(context.Background()))
}
