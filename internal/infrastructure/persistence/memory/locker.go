package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/xiebiao/flashorder/internal/domain/lock"
)

type lockEntry struct {
	token    string
	expireAt time.Time
}

// Locker 进程内租约锁，语义与Redis实现一致：
// 租约到期后锁自动失效，过期持有者的Release返回lock.ErrNotHeld
type Locker struct {
	mu           sync.Mutex
	locks        map[string]lockEntry
	pollInterval time.Duration
	now          func() time.Time
}

// NewLocker 创建内存锁
func NewLocker() *Locker {
	return &Locker{
		locks:        make(map[string]lockEntry),
		pollInterval: 5 * time.Millisecond,
		now:          time.Now,
	}
}

func (l *Locker) tryLock(key string, lease time.Duration) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if e, ok := l.locks[key]; ok && now.Before(e.expireAt) {
		return "", false
	}
	token := uuid.NewString()
	l.locks[key] = lockEntry{token: token, expireAt: now.Add(lease)}
	return token, true
}

// TryAcquire 不等待
func (l *Locker) TryAcquire(ctx context.Context, key string, lease time.Duration) (lock.Lease, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	token, ok := l.tryLock(key, lease)
	if !ok {
		return nil, false, nil
	}
	return &memoryLease{locker: l, key: key, token: token}, true, nil
}

// Acquire 轮询等待最多wait
func (l *Locker) Acquire(ctx context.Context, key string, wait, lease time.Duration) (lock.Lease, error) {
	deadline := time.Now().Add(wait)
	ticker := time.NewTicker(l.pollInterval)
	defer ticker.Stop()

	for {
		if token, ok := l.tryLock(key, lease); ok {
			return &memoryLease{locker: l, key: key, token: token}, nil
		}
		if !time.Now().Before(deadline) {
			return nil, lock.ErrTimeout
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

type memoryLease struct {
	locker *Locker
	key    string
	token  string
}

func (m *memoryLease) Key() string { return m.key }

func (m *memoryLease) Release(ctx context.Context) error {
	m.locker.mu.Lock()
	defer m.locker.mu.Unlock()

	e, ok := m.locker.locks[m.key]
	if !ok || e.token != m.token {
		return lock.ErrNotHeld
	}
	delete(m.locker.locks, m.key)
	if !m.locker.now().Before(e.expireAt) {
		return lock.ErrNotHeld
	}
	return nil
}

var _ lock.Locker = (*Locker)(nil)
