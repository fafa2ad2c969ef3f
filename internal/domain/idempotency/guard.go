// Package idempotency 下单幂等保护
//
// 客户端先申请一次性Token，再携带Token下单。
// 幂等键由 (userID, productID, amount, token) 四元组哈希得到，
// 同一Token误用于不同参数的请求不会被错误地判为重复。
// Token在处理期间被认领到唯一的幂等键上，一个Token最多支撑一次成功下单。
package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xiebiao/flashorder/internal/domain/kv"
	apperrors "github.com/xiebiao/flashorder/pkg/errors"
	"github.com/xiebiao/flashorder/pkg/metrics"
)

const (
	tokenKeyFmt      = "idempotency:token:%d:%s"
	claimKeyFmt      = "idempotency:token-claim:%d:%s"
	recordKeyPrefix  = "idempotency:record:"
	processingMarker = "PROCESSING"
)

var (
	// ErrInvalidToken Token不存在、已过期或已被使用
	ErrInvalidToken = apperrors.ErrInvalidToken
	// ErrDuplicateRequest 相同请求正在处理中
	ErrDuplicateRequest = apperrors.ErrDuplicateRequest
	// ErrStoreUnavailable 缓存不可用，无法证明不重复，拒绝请求
	ErrStoreUnavailable = apperrors.ErrStoreUnavailable
)

// Config 幂等配置
type Config struct {
	TokenTTL      time.Duration // Token有效期
	RecordTTL     time.Duration // 幂等记录保留时间
	ProcessingTTL time.Duration // 处理中标记的有效期，进程崩溃后自动解除
}

// Token 一次性下单凭证
type Token struct {
	Value     string
	ExpiresIn time.Duration
}

// ExpiresInMinutes 有效期（分钟）
func (t Token) ExpiresInMinutes() int {
	return int(t.ExpiresIn / time.Minute)
}

// Request 一次下单请求的幂等要素
type Request struct {
	UserID    uint
	ProductID string
	Amount    int
	Token     string
}

// Key 四元组的确定性哈希
func (r Request) Key() string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%d|%s|%d|%s", r.UserID, r.ProductID, r.Amount, r.Token)))
	return recordKeyPrefix + hex.EncodeToString(sum[:])
}

func (r Request) tokenKey() string {
	return fmt.Sprintf(tokenKeyFmt, r.UserID, r.Token)
}

// claimKey 记录Token当前被哪个幂等键占用
func (r Request) claimKey() string {
	return fmt.Sprintf(claimKeyFmt, r.UserID, r.Token)
}

// Check CheckAndReserve的结果
// Duplicate=false时调用方持有该幂等键，必须以MarkCreated或Abandon结束
type Check struct {
	Duplicate       bool
	ExistingOrderNo string
}

// Guard 幂等守卫，Token和幂等记录的唯一修改入口
// 缓存出错一律按失败处理（fail closed），宁可拒绝也不放过重复单
type Guard struct {
	store  kv.Store
	cfg    Config
	logger *zap.Logger
}

// NewGuard 创建幂等守卫
func NewGuard(store kv.Store, cfg Config, logger *zap.Logger) *Guard {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 10 * time.Minute
	}
	if cfg.RecordTTL <= 0 {
		cfg.RecordTTL = 30 * time.Minute
	}
	if cfg.ProcessingTTL <= 0 {
		cfg.ProcessingTTL = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Guard{store: store, cfg: cfg, logger: logger.Named("idempotency_guard")}
}

// IssueToken 为用户签发一次性Token
func (g *Guard) IssueToken(ctx context.Context, userID uint) (*Token, error) {
	if userID == 0 {
		return nil, apperrors.ErrUnauthorized
	}
	value := strings.ReplaceAll(uuid.NewString(), "-", "")
	req := Request{UserID: userID, Token: value}
	if err := g.store.Set(ctx, req.tokenKey(), "1", g.cfg.TokenTTL); err != nil {
		return nil, unavailable(err)
	}
	return &Token{Value: value, ExpiresIn: g.cfg.TokenTTL}, nil
}

// CheckAndReserve 判断请求是否重复，不重复时原子地占用幂等键
//
//  1. 幂等记录已有订单号：重复请求，返回原订单号（Token此时已被消费，所以先查记录）
//  2. 幂等记录为处理中：相同请求正在进行，返回ErrDuplicateRequest
//  3. Token不存在或已过期：再查一次记录，仍没有则ErrInvalidToken
//  4. 认领Token：已被参数不同的请求占用时返回ErrDuplicateRequest
//  5. SetNX占用幂等键，失败说明被并发的相同请求抢先，按1/2处理
func (g *Guard) CheckAndReserve(ctx context.Context, req Request) (*Check, error) {
	if req.Token == "" || req.UserID == 0 {
		metrics.IncIdempotencyCheck("invalid_token")
		return nil, ErrInvalidToken
	}
	key := req.Key()

	if check, err := g.existing(ctx, key); err != nil || check != nil {
		return check, err
	}

	if _, err := g.store.Get(ctx, req.tokenKey()); err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			// 并发的相同请求可能刚刚完成并消费了Token
			if check, err := g.existing(ctx, key); err != nil || check != nil {
				return check, err
			}
			metrics.IncIdempotencyCheck("invalid_token")
			return nil, ErrInvalidToken
		}
		metrics.IncIdempotencyCheck("error")
		return nil, unavailable(err)
	}

	if err := g.claimToken(ctx, req, key); err != nil {
		return nil, err
	}

	claimed, err := g.store.SetNX(ctx, key, processingMarker, g.cfg.ProcessingTTL)
	if err != nil {
		g.releaseClaim(ctx, req, key)
		metrics.IncIdempotencyCheck("error")
		return nil, unavailable(err)
	}
	if !claimed {
		check, err := g.existing(ctx, key)
		if err != nil || check != nil {
			return check, err
		}
		// 抢占者的标记刚好过期，仍视为并发重复
		metrics.IncIdempotencyCheck("processing")
		return nil, ErrDuplicateRequest
	}

	metrics.IncIdempotencyCheck("new")
	return &Check{}, nil
}

// claimToken 把Token认领到key上
// 相同四元组的并发请求共享同一个认领，由幂等键的SetNX决出胜者
func (g *Guard) claimToken(ctx context.Context, req Request, key string) error {
	for attempt := 0; attempt < 2; attempt++ {
		ok, err := g.store.SetNX(ctx, req.claimKey(), key, g.cfg.ProcessingTTL)
		if err != nil {
			metrics.IncIdempotencyCheck("error")
			return unavailable(err)
		}
		if ok {
			return nil
		}
		holder, err := g.store.Get(ctx, req.claimKey())
		switch {
		case errors.Is(err, kv.ErrNotFound):
			// 持有者刚好放弃，再抢一次
			continue
		case err != nil:
			metrics.IncIdempotencyCheck("error")
			return unavailable(err)
		case holder == key:
			return nil
		}
		break
	}
	metrics.IncIdempotencyCheck("token_in_use")
	return apperrors.WithCause(ErrDuplicateRequest,
		fmt.Errorf("token is held by another request of user %d", req.UserID))
}

// releaseClaim 尽力释放本请求持有的认领，失败时等待ProcessingTTL自然过期
func (g *Guard) releaseClaim(ctx context.Context, req Request, key string) {
	holder, err := g.store.Get(ctx, req.claimKey())
	if err != nil || holder != key {
		return
	}
	if err := g.store.Del(ctx, req.claimKey()); err != nil {
		g.logger.Warn("release token claim failed", zap.Uint("user_id", req.UserID), zap.Error(err))
	}
}

// existing 读取已有幂等记录，不存在返回(nil, nil)
func (g *Guard) existing(ctx context.Context, key string) (*Check, error) {
	value, err := g.store.Get(ctx, key)
	switch {
	case errors.Is(err, kv.ErrNotFound):
		return nil, nil
	case err != nil:
		metrics.IncIdempotencyCheck("error")
		return nil, unavailable(err)
	case value == processingMarker:
		metrics.IncIdempotencyCheck("processing")
		return nil, ErrDuplicateRequest
	default:
		metrics.IncIdempotencyCheck("duplicate")
		return &Check{Duplicate: true, ExistingOrderNo: value}, nil
	}
}

// MarkCreated 写入幂等记录并作废Token
// 返回错误时记录可能已经写入，调用方回滚后须以同一orderNo调用Abandon
func (g *Guard) MarkCreated(ctx context.Context, req Request, orderNo string) error {
	if err := g.store.Set(ctx, req.Key(), orderNo, g.cfg.RecordTTL); err != nil {
		return unavailable(err)
	}
	// Token和认领一次删除
	if err := g.store.Del(ctx, req.tokenKey(), req.claimKey()); err != nil {
		return unavailable(err)
	}
	g.logger.Debug("idempotency record stored", zap.Uint("user_id", req.UserID), zap.String("order_no", orderNo))
	return nil
}

// Abandon 解除处理中标记和Token认领，Token保持可用
//
// orderNo为本次被回滚的订单号（可为空）。
// 只删除处理中标记或指向orderNo的记录，其他请求已完成的记录不受影响。
func (g *Guard) Abandon(ctx context.Context, req Request, orderNo string) error {
	key := req.Key()
	value, err := g.store.Get(ctx, key)
	switch {
	case errors.Is(err, kv.ErrNotFound):
	case err != nil:
		return unavailable(err)
	case value == processingMarker, orderNo != "" && value == orderNo:
		if err := g.store.Del(ctx, key); err != nil {
			return unavailable(err)
		}
	default:
		return nil
	}
	g.releaseClaim(ctx, req, key)
	return nil
}

// CleanExpired 清理过期的Token和记录
// Redis依赖原生TTL，这里返回0；没有原生TTL的存储通过kv.Sweeper主动清理
func (g *Guard) CleanExpired(ctx context.Context) (int, error) {
	sweeper, ok := g.store.(kv.Sweeper)
	if !ok {
		return 0, nil
	}
	n, err := sweeper.SweepExpired(ctx)
	if err != nil {
		return 0, unavailable(err)
	}
	return n, nil
}

func unavailable(err error) error {
	return apperrors.WithCause(ErrStoreUnavailable, err)
}
