// Package memory 进程内的存储实现，用于本地开发（database.driver/cache.driver=memory）和测试
// 只适用于单实例部署
package memory

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/xiebiao/flashorder/internal/domain/kv"
)

type kvEntry struct {
	value    string
	expireAt time.Time // 零值表示不过期
}

func (e kvEntry) expired(now time.Time) bool {
	return !e.expireAt.IsZero() && !now.Before(e.expireAt)
}

// KVStore 带TTL的内存键值存储
// 过期key在读取时惰性删除，SweepExpired主动清理
type KVStore struct {
	mu    sync.Mutex
	items map[string]kvEntry
	now   func() time.Time
}

// NewKVStore 创建内存KV存储
func NewKVStore() *KVStore {
	return &KVStore{items: make(map[string]kvEntry), now: time.Now}
}

func (s *KVStore) expireAt(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return s.now().Add(ttl)
}

// lookup 调用方必须持有锁
func (s *KVStore) lookup(key string) (kvEntry, bool) {
	e, ok := s.items[key]
	if !ok {
		return kvEntry{}, false
	}
	if e.expired(s.now()) {
		delete(s.items, key)
		return kvEntry{}, false
	}
	return e, true
}

func (s *KVStore) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.lookup(key)
	if !ok {
		return "", kv.ErrNotFound
	}
	return e.value, nil
}

func (s *KVStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[key] = kvEntry{value: value, expireAt: s.expireAt(ttl)}
	return nil
}

func (s *KVStore) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.lookup(key); ok {
		return false, nil
	}
	s.items[key] = kvEntry{value: value, expireAt: s.expireAt(ttl)}
	return true, nil
}

func (s *KVStore) Del(ctx context.Context, keys ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range keys {
		delete(s.items, key)
	}
	return nil
}

func (s *KVStore) IncrBy(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.lookup(key)
	if !ok {
		e = kvEntry{value: "0", expireAt: s.expireAt(ttl)}
	}
	current, err := strconv.ParseInt(e.value, 10, 64)
	if err != nil {
		return 0, err
	}
	current += delta
	e.value = strconv.FormatInt(current, 10)
	s.items[key] = e
	return current, nil
}

// SweepExpired 删除所有已过期的key，返回删除数量
func (s *KVStore) SweepExpired(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for key, e := range s.items {
		if e.expired(now) {
			delete(s.items, key)
			removed++
		}
	}
	return removed, nil
}

// Len 当前key数量（含未清理的过期key）
func (s *KVStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

var (
	_ kv.Store   = (*KVStore)(nil)
	_ kv.Sweeper = (*KVStore)(nil)
)
