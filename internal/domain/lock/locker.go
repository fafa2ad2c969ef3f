// Package lock 分布式锁端口
package lock

import (
	"context"
	"errors"
	"time"
)

// ErrTimeout 在等待时间内没有获取到锁
var ErrTimeout = errors.New("lock: acquire timeout")

// ErrNotHeld 释放时锁已不属于当前持有者（租约过期后被他人获取）
var ErrNotHeld = errors.New("lock: not held")

// Lease 一次成功获取的锁
type Lease interface {
	Key() string
	// Release 只删除自己持有的锁，租约过期后返回ErrNotHeld
	Release(ctx context.Context) error
}

// Locker 基于租约的互斥锁
// 持有者崩溃时锁在lease到期后自动释放
type Locker interface {
	// Acquire 阻塞等待最多wait，超时返回ErrTimeout，其余错误表示锁服务不可用
	Acquire(ctx context.Context, key string, wait, lease time.Duration) (Lease, error)
	// TryAcquire 不等待，锁被占用时返回ok=false
	TryAcquire(ctx context.Context, key string, lease time.Duration) (Lease, bool, error)
}
