package order

import (
	"context"
	"fmt"
	"time"

	"github.com/xiebiao/flashorder/internal/domain/kv"
	apperrors "github.com/xiebiao/flashorder/pkg/errors"
)

const (
	orderNoPrefix    = "ORD"
	orderNoTimeStamp = "20060102150405"
	orderSeqKeyFmt   = "order:seq:%s"
	orderSeqTTL      = time.Minute
)

// NoGenerator 订单号生成器
// 格式：ORD + yyyyMMddHHmmss + 6位秒内序号
// 序号来自共享缓存的原子自增，多实例之间不会重复；数据库唯一索引兜底
type NoGenerator struct {
	store kv.Store
	now   func() time.Time
}

// NewNoGenerator 创建订单号生成器
func NewNoGenerator(store kv.Store) *NoGenerator {
	return &NoGenerator{store: store, now: time.Now}
}

// Next 生成下一个订单号
func (g *NoGenerator) Next(ctx context.Context) (string, error) {
	ts := g.now().Format(orderNoTimeStamp)
	seq, err := g.store.IncrBy(ctx, fmt.Sprintf(orderSeqKeyFmt, ts), 1, orderSeqTTL)
	if err != nil {
		return "", apperrors.WithCause(ErrOrderNoGenerate, err)
	}
	return fmt.Sprintf("%s%s%06d", orderNoPrefix, ts, seq), nil
}
