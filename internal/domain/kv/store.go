// Package kv 共享缓存端口
//
// 同一个Store既是读缓存（库存、订单状态镜像），也是幂等Token/记录的存储。
// 实现：persistence/redis.KVStore（生产）、persistence/memory.KVStore（开发/测试）。
package kv

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound key不存在或已过期
var ErrNotFound = errors.New("kv: key not found")

// Store 带TTL的键值存储
// ttl<=0表示不过期；除ErrNotFound外的错误都表示存储不可用
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// SetNX 仅当key不存在时写入，返回是否写入成功
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	// IncrBy 原子自增并返回新值；key首次创建时设置ttl
	IncrBy(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error)
}

// Sweeper 没有原生TTL的存储实现它，用于主动清理过期key
type Sweeper interface {
	SweepExpired(ctx context.Context) (int, error)
}

const (
	// Tombstone 失效标记，读到它按未命中处理
	Tombstone = "__invalidated__"
	// TombstoneTTL 失效标记的保留时间，期间读穿透不回填
	TombstoneTTL = 2 * time.Second
)

// Invalidate 写后失效：用短期墓碑代替删除
// 写入前读到旧行的读者随后用Fill回填时会被墓碑挡住
func Invalidate(ctx context.Context, s Store, key string) error {
	return s.Set(ctx, key, Tombstone, TombstoneTTL)
}

// Fill 读穿透回填，key上已有值或墓碑时放弃
func Fill(ctx context.Context, s Store, key, value string, ttl time.Duration) error {
	_, err := s.SetNX(ctx, key, value, ttl)
	return err
}
