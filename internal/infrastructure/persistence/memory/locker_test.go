package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/flashorder/internal/domain/lock"
)

func TestLocker_MutualExclusion(t *testing.T) {
	ctx := context.Background()
	l := NewLocker()

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lease, err := l.Acquire(ctx, "k", 5*time.Second, 5*time.Second)
			if !assert.NoError(t, err) {
				return
			}

			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)

			assert.NoError(t, lease.Release(ctx))
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxInside)
}

func TestLocker_AcquireTimeout(t *testing.T) {
	ctx := context.Background()
	l := NewLocker()

	held, err := l.Acquire(ctx, "k", time.Second, time.Minute)
	require.NoError(t, err)
	defer held.Release(ctx)

	start := time.Now()
	_, err = l.Acquire(ctx, "k", 30*time.Millisecond, time.Minute)
	assert.ErrorIs(t, err, lock.ErrTimeout)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestLocker_TryAcquire(t *testing.T) {
	ctx := context.Background()
	l := NewLocker()

	lease, ok, err := l.TryAcquire(ctx, "cb", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = l.TryAcquire(ctx, "cb", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, lease.Release(ctx))
	_, ok, err = l.TryAcquire(ctx, "cb", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLocker_ExpiredLeaseCannotReleaseSuccessor(t *testing.T) {
	ctx := context.Background()
	l := NewLocker()

	stale, err := l.Acquire(ctx, "k", time.Second, 20*time.Millisecond)
	require.NoError(t, err)
	time.Sleep(40 * time.Millisecond)

	successor, err := l.Acquire(ctx, "k", time.Second, time.Minute)
	require.NoError(t, err)

	assert.ErrorIs(t, stale.Release(ctx), lock.ErrNotHeld)

	// 后继者的锁仍然有效
	_, ok, err := l.TryAcquire(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, successor.Release(ctx))
}

func TestLocker_ContextCancelled(t *testing.T) {
	l := NewLocker()
	held, err := l.Acquire(context.Background(), "k", time.Second, time.Minute)
	require.NoError(t, err)
	defer held.Release(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Acquire(ctx, "k", time.Minute, time.Minute)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
