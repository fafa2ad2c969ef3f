package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/flashorder/internal/domain/kv"
	"github.com/xiebiao/flashorder/internal/domain/lock"
	"github.com/xiebiao/flashorder/pkg/circuitbreaker"
)

func newMiniRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestKVStore_GetSetDel(t *testing.T) {
	ctx := context.Background()
	mr, client := newMiniRedis(t)
	s := NewKVStore(client, nil)

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, kv.ErrNotFound)

	require.NoError(t, s.Set(ctx, "k", "v", time.Minute))
	v, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)
	assert.Equal(t, time.Minute, mr.TTL("k"))

	require.NoError(t, s.Del(ctx, "k"))
	assert.False(t, mr.Exists("k"))
}

func TestKVStore_SetNX(t *testing.T) {
	ctx := context.Background()
	mr, client := newMiniRedis(t)
	s := NewKVStore(client, nil)

	ok, err := s.SetNX(ctx, "claim", "PROCESSING", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.SetNX(ctx, "claim", "PROCESSING", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	mr.FastForward(2 * time.Minute)
	ok, err = s.SetNX(ctx, "claim", "PROCESSING", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestKVStore_IncrBySetsTTLOnce(t *testing.T) {
	ctx := context.Background()
	mr, client := newMiniRedis(t)
	s := NewKVStore(client, nil)

	n, err := s.IncrBy(ctx, "order:seq:1", 1, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	mr.FastForward(30 * time.Second)
	n, err = s.IncrBy(ctx, "order:seq:1", 1, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, 30*time.Second, mr.TTL("order:seq:1"))
}

func TestKVStore_BreakerFailsFastWhenRedisDown(t *testing.T) {
	ctx := context.Background()
	mr, client := newMiniRedis(t)
	breaker := NewBreaker("redis-test", circuitbreaker.Config{
		Timeout:     time.Minute,
		ReadyToTrip: func(c circuitbreaker.Counts) bool { return c.ConsecutiveFailures >= 2 },
	})
	s := NewKVStore(client, breaker)

	// 未命中不计入失败
	for i := 0; i < 3; i++ {
		_, err := s.Get(ctx, "missing")
		assert.ErrorIs(t, err, kv.ErrNotFound)
	}
	assert.Equal(t, circuitbreaker.StateClosed, breaker.State())

	mr.Close()
	for i := 0; i < 2; i++ {
		_, err := s.Get(ctx, "k")
		assert.Error(t, err)
	}
	assert.Equal(t, circuitbreaker.StateOpen, breaker.State())

	_, err := s.Get(ctx, "k")
	assert.ErrorIs(t, err, circuitbreaker.ErrOpenState)
}

func TestLocker_AcquireRelease(t *testing.T) {
	ctx := context.Background()
	mr, client := newMiniRedis(t)
	l := NewLocker(client, 10*time.Millisecond)

	lease, err := l.Acquire(ctx, "inventory-lock:SKU-1", time.Second, 30*time.Second)
	require.NoError(t, err)
	assert.True(t, mr.Exists("inventory-lock:SKU-1"))
	assert.Equal(t, 30*time.Second, mr.TTL("inventory-lock:SKU-1"))

	require.NoError(t, lease.Release(ctx))
	assert.False(t, mr.Exists("inventory-lock:SKU-1"))
}

func TestLocker_AcquireTimeout(t *testing.T) {
	ctx := context.Background()
	_, client := newMiniRedis(t)
	l := NewLocker(client, 10*time.Millisecond)

	_, err := l.Acquire(ctx, "k", time.Second, time.Minute)
	require.NoError(t, err)

	start := time.Now()
	_, err = l.Acquire(ctx, "k", 50*time.Millisecond, time.Minute)
	assert.ErrorIs(t, err, lock.ErrTimeout)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestLocker_WaitsForRelease(t *testing.T) {
	ctx := context.Background()
	_, client := newMiniRedis(t)
	l := NewLocker(client, 5*time.Millisecond)

	first, err := l.Acquire(ctx, "k", time.Second, time.Minute)
	require.NoError(t, err)

	go func() {
		time.Sleep(30 * time.Millisecond)
		_ = first.Release(ctx)
	}()

	second, err := l.Acquire(ctx, "k", time.Second, time.Minute)
	require.NoError(t, err)
	assert.NoError(t, second.Release(ctx))
}

func TestLocker_ExpiredHolderCannotDeleteSuccessor(t *testing.T) {
	ctx := context.Background()
	mr, client := newMiniRedis(t)
	l := NewLocker(client, 5*time.Millisecond)

	stale, err := l.Acquire(ctx, "k", time.Second, time.Second)
	require.NoError(t, err)
	mr.FastForward(2 * time.Second)

	successor, ok, err := l.TryAcquire(ctx, "k", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	assert.ErrorIs(t, stale.Release(ctx), lock.ErrNotHeld)
	assert.True(t, mr.Exists("k"))
	assert.NoError(t, successor.Release(ctx))
}

func TestLocker_TryAcquireBusy(t *testing.T) {
	ctx := context.Background()
	_, client := newMiniRedis(t)
	l := NewLocker(client, 0)

	_, ok, err := l.TryAcquire(ctx, "order-callback-lock:O1", 15*time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = l.TryAcquire(ctx, "order-callback-lock:O1", 15*time.Second)
	require.NoError(t, err)
	assert.False(t, ok)
}
