package redis

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/xiebiao/flashorder/internal/domain/kv"
	"github.com/xiebiao/flashorder/pkg/circuitbreaker"
)

//go:embed lua/incr_expire.lua
var incrExpireLua string

var incrExpireScript = redis.NewScript(incrExpireLua)

// KVStore 基于Redis的kv.Store实现
// 所有命令经过熔断器：Redis持续失败时快速返回错误，由上层按"存储不可用"处理
type KVStore struct {
	client  redis.UniversalClient
	breaker *circuitbreaker.CircuitBreaker
}

// NewKVStore 创建Redis KV存储，breaker为nil时不熔断
func NewKVStore(client redis.UniversalClient, breaker *circuitbreaker.CircuitBreaker) *KVStore {
	return &KVStore{client: client, breaker: breaker}
}

// NewBreaker 为Redis创建熔断器，key未命中不算失败
func NewBreaker(name string, cfg circuitbreaker.Config) *circuitbreaker.CircuitBreaker {
	cfg.IsSuccessful = func(err error) bool {
		return err == nil || errors.Is(err, redis.Nil) || errors.Is(err, kv.ErrNotFound)
	}
	return circuitbreaker.NewCircuitBreaker(name, cfg)
}

func (s *KVStore) do(fn func() error) error {
	if s.breaker == nil {
		return fn()
	}
	return s.breaker.Execute(fn)
}

func (s *KVStore) Get(ctx context.Context, key string) (string, error) {
	var val string
	err := s.do(func() error {
		var err error
		val, err = s.client.Get(ctx, key).Result()
		return err
	})
	if errors.Is(err, redis.Nil) {
		return "", kv.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("读取缓存失败: %w", err)
	}
	return val, nil
}

func (s *KVStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	err := s.do(func() error {
		return s.client.Set(ctx, key, value, positive(ttl)).Err()
	})
	if err != nil {
		return fmt.Errorf("写入缓存失败: %w", err)
	}
	return nil
}

func (s *KVStore) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	var ok bool
	err := s.do(func() error {
		var err error
		ok, err = s.client.SetNX(ctx, key, value, positive(ttl)).Result()
		return err
	})
	if err != nil {
		return false, fmt.Errorf("SETNX失败: %w", err)
	}
	return ok, nil
}

func (s *KVStore) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	err := s.do(func() error {
		return s.client.Del(ctx, keys...).Err()
	})
	if err != nil {
		return fmt.Errorf("删除缓存失败: %w", err)
	}
	return nil
}

func (s *KVStore) IncrBy(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error) {
	var n int64
	err := s.do(func() error {
		var err error
		n, err = incrExpireScript.Run(ctx, s.client, []string{key}, delta, positive(ttl).Milliseconds()).Int64()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("自增失败: %w", err)
	}
	return n, nil
}

// positive go-redis中0表示不过期
func positive(ttl time.Duration) time.Duration {
	if ttl < 0 {
		return 0
	}
	return ttl
}

var _ kv.Store = (*KVStore)(nil)
