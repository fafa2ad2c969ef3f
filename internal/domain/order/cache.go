package order

import (
	"context"
	"encoding/json"
	"time"

	"github.com/xiebiao/flashorder/internal/domain/kv"
)

const statusCacheKeyPrefix = "order:status:"

// statusCache 订单在共享缓存中的镜像，只用于读加速，写后失效
type statusCache struct {
	store kv.Store
	ttl   time.Duration
}

func statusCacheKey(orderNo string) string {
	return statusCacheKeyPrefix + orderNo
}

// get 未命中返回kv.ErrNotFound
func (c *statusCache) get(ctx context.Context, orderNo string) (*Order, error) {
	raw, err := c.store.Get(ctx, statusCacheKey(orderNo))
	if err != nil {
		return nil, err
	}
	if raw == kv.Tombstone {
		return nil, kv.ErrNotFound
	}
	var o Order
	if err := json.Unmarshal([]byte(raw), &o); err != nil {
		// 损坏的镜像按未命中处理
		_ = c.store.Del(ctx, statusCacheKey(orderNo))
		return nil, kv.ErrNotFound
	}
	return &o, nil
}

func (c *statusCache) put(ctx context.Context, o *Order) error {
	raw, err := json.Marshal(o)
	if err != nil {
		return err
	}
	return kv.Fill(ctx, c.store, statusCacheKey(o.OrderNo), string(raw), c.ttl)
}

func (c *statusCache) invalidate(ctx context.Context, orderNo string) error {
	return kv.Invalidate(ctx, c.store, statusCacheKey(orderNo))
}
