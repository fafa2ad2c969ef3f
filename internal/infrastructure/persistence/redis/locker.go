package redis

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/xiebiao/flashorder/internal/domain/lock"
)

//go:embed lua/release_lock.lua
var releaseLockLua string

var releaseLockScript = redis.NewScript(releaseLockLua)

// Locker 基于 SET key token NX PX lease 的分布式锁
//
// 获取：轮询SET NX直到成功或等待超时
// 释放：Lua脚本比较token后删除，租约过期的持有者不会删掉后继者的锁
type Locker struct {
	client       redis.UniversalClient
	pollInterval time.Duration
}

// NewLocker 创建Redis锁，pollInterval<=0时使用50ms
func NewLocker(client redis.UniversalClient, pollInterval time.Duration) *Locker {
	if pollInterval <= 0 {
		pollInterval = 50 * time.Millisecond
	}
	return &Locker{client: client, pollInterval: pollInterval}
}

// TryAcquire 只尝试一次
func (l *Locker) TryAcquire(ctx context.Context, key string, lease time.Duration) (lock.Lease, bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, lease).Result()
	if err != nil {
		return nil, false, fmt.Errorf("获取锁失败: %w", err)
	}
	if !ok {
		return nil, false, nil
	}
	return &redisLease{client: l.client, key: key, token: token}, true, nil
}

// Acquire 最多等待wait
func (l *Locker) Acquire(ctx context.Context, key string, wait, lease time.Duration) (lock.Lease, error) {
	deadline := time.Now().Add(wait)
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}

		held, ok, err := l.TryAcquire(ctx, key, lease)
		if err != nil {
			return nil, err
		}
		if ok {
			return held, nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, lock.ErrTimeout
		}
		timer.Reset(min(l.pollInterval, remaining))
	}
}

type redisLease struct {
	client redis.UniversalClient
	key    string
	token  string
}

func (r *redisLease) Key() string { return r.key }

func (r *redisLease) Release(ctx context.Context) error {
	n, err := releaseLockScript.Run(ctx, r.client, []string{r.key}, r.token).Int64()
	if err != nil {
		return fmt.Errorf("释放锁失败: %w", err)
	}
	if n == 0 {
		return lock.ErrNotHeld
	}
	return nil
}

var _ lock.Locker = (*Locker)(nil)
