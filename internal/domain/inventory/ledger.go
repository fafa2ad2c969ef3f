package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/flashorder/internal/domain/kv"
	"github.com/xiebiao/flashorder/internal/domain/lock"
	apperrors "github.com/xiebiao/flashorder/pkg/errors"
	"github.com/xiebiao/flashorder/pkg/metrics"
)

const (
	lockKeyPrefix  = "inventory-lock:"
	cacheKeyPrefix = "inventory:"
)

// LedgerConfig 库存账本配置
type LedgerConfig struct {
	LockWait  time.Duration // 等锁上限
	LockLease time.Duration // 锁租约
	CacheTTL  time.Duration // 库存镜像TTL
}

// Ledger 库存账本，库存计数器的唯一修改入口
//
// 每个修改操作：
//  1. 获取按商品的分布式锁（等待上限LockWait，超时返回ErrLockTimeout且无副作用）
//  2. 在锁内从仓储重新读取记录（不信任缓存）并校验业务条件
//  3. 以读到的version做条件更新，影响0行返回ErrConcurrentModification
//  4. 以墓碑使缓存镜像失效
//
// 锁保证同一商品的修改在整个集群内串行；version条件防止租约过期后的迟到写覆盖新数据。
type Ledger struct {
	repo   Repository
	store  kv.Store
	locker lock.Locker
	cfg    LedgerConfig
	logger *zap.Logger
	now    func() time.Time
}

// NewLedger 创建库存账本
func NewLedger(repo Repository, store kv.Store, locker lock.Locker, cfg LedgerConfig, logger *zap.Logger) *Ledger {
	if cfg.LockWait <= 0 {
		cfg.LockWait = 10 * time.Second
	}
	if cfg.LockLease <= 0 {
		cfg.LockLease = 30 * time.Second
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{
		repo:   repo,
		store:  store,
		locker: locker,
		cfg:    cfg,
		logger: logger.Named("inventory_ledger"),
		now:    time.Now,
	}
}

// Initialize 创建库存记录：available=total，version=1
func (l *Ledger) Initialize(ctx context.Context, productID, productName string, totalStock int) (*Record, error) {
	if productID == "" {
		return nil, ErrInvalidProductID
	}
	if totalStock < 0 {
		return nil, ErrInvalidTotalStock
	}

	lease, err := l.acquire(ctx, productID)
	if err != nil {
		metrics.IncInventoryOp("init", resultOf(err))
		return nil, err
	}
	defer l.release(ctx, lease)

	if _, err := l.repo.FindByProductID(ctx, productID); err == nil {
		metrics.IncInventoryOp("init", "exists")
		return nil, ErrInventoryExists
	} else if !errors.Is(err, ErrInventoryNotFound) {
		metrics.IncInventoryOp("init", "error")
		return nil, err
	}

	rec := NewRecord(productID, productName, totalStock)
	if err := l.repo.Create(ctx, rec, NewLog(ChangeTypeInit, totalStock, nil, rec, "")); err != nil {
		metrics.IncInventoryOp("init", resultOf(err))
		return nil, err
	}

	l.invalidate(ctx, productID)
	metrics.IncInventoryOp("init", "ok")
	l.logger.Info("inventory initialized", zap.String("product_id", productID), zap.Int("total", totalStock))
	return rec, nil
}

// Reserve 可售 → 预留（下单）
func (l *Ledger) Reserve(ctx context.Context, productID string, qty int, ref string) (*Record, error) {
	return l.mutate(ctx, ChangeTypeReserve, productID, qty, ref, func(r *Record) (Delta, error) {
		if r.AvailableStock < qty {
			return Delta{}, ErrInsufficientStock
		}
		return Delta{Available: -qty, Reserved: qty}, nil
	})
}

// Confirm 预留 → 已售（支付成功）
func (l *Ledger) Confirm(ctx context.Context, productID string, qty int, ref string) (*Record, error) {
	return l.mutate(ctx, ChangeTypeConfirm, productID, qty, ref, func(r *Record) (Delta, error) {
		if r.ReservedStock < qty {
			return Delta{}, ErrInsufficientReserved
		}
		return Delta{Reserved: -qty, Sold: qty}, nil
	})
}

// Release 预留 → 可售（取消或支付失败）
func (l *Ledger) Release(ctx context.Context, productID string, qty int, ref string) (*Record, error) {
	return l.mutate(ctx, ChangeTypeRelease, productID, qty, ref, func(r *Record) (Delta, error) {
		if r.ReservedStock < qty {
			return Delta{}, ErrInsufficientReserved
		}
		return Delta{Available: qty, Reserved: -qty}, nil
	})
}

// Refund 已售 → 可售（已支付订单取消）
func (l *Ledger) Refund(ctx context.Context, productID string, qty int, ref string) (*Record, error) {
	return l.mutate(ctx, ChangeTypeRefund, productID, qty, ref, func(r *Record) (Delta, error) {
		if r.SoldStock < qty {
			return Delta{}, ErrInsufficientSold
		}
		return Delta{Available: qty, Sold: -qty}, nil
	})
}

// Get 缓存优先读取，不加锁
func (l *Ledger) Get(ctx context.Context, productID string) (*Record, error) {
	key := cacheKeyPrefix + productID

	raw, err := l.store.Get(ctx, key)
	switch {
	case err == nil && raw == kv.Tombstone:
	case err == nil:
		var rec Record
		if jsonErr := json.Unmarshal([]byte(raw), &rec); jsonErr == nil {
			return &rec, nil
		}
		_ = l.store.Del(ctx, key)
	case !errors.Is(err, kv.ErrNotFound):
		l.logger.Warn("inventory cache read failed", zap.String("product_id", productID), zap.Error(err))
	}

	rec, err := l.repo.FindByProductID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(rec); err == nil {
		if err := kv.Fill(ctx, l.store, key, string(b), l.cfg.CacheTTL); err != nil {
			l.logger.Warn("inventory cache fill failed", zap.String("product_id", productID), zap.Error(err))
		}
	}
	return rec, nil
}

// Logs 分页查询库存流水
func (l *Ledger) Logs(ctx context.Context, productID string, page, pageSize int) ([]*Log, int64, error) {
	return l.repo.ListLogs(ctx, productID, page, pageSize)
}

func (l *Ledger) mutate(ctx context.Context, op ChangeType, productID string, qty int, ref string, plan func(*Record) (Delta, error)) (*Record, error) {
	opLabel := strings.ToLower(string(op))
	if qty <= 0 {
		metrics.IncInventoryOp(opLabel, "invalid")
		return nil, ErrInvalidQuantity
	}

	lease, err := l.acquire(ctx, productID)
	if err != nil {
		metrics.IncInventoryOp(opLabel, resultOf(err))
		return nil, err
	}
	defer l.release(ctx, lease)

	current, err := l.repo.FindByProductID(ctx, productID)
	if err != nil {
		metrics.IncInventoryOp(opLabel, resultOf(err))
		return nil, err
	}

	delta, err := plan(current)
	if err != nil {
		metrics.IncInventoryOp(opLabel, resultOf(err))
		return nil, err
	}

	next := current.Applied(delta, l.now())
	if err := next.Validate(); err != nil {
		metrics.IncInventoryOp(opLabel, "error")
		return nil, err
	}

	rows, err := l.repo.CompareAndSwap(ctx, productID, current.Version, delta, NewLog(op, qty, current, next, ref))
	if err != nil {
		metrics.IncInventoryOp(opLabel, "error")
		return nil, err
	}
	if rows == 0 {
		metrics.IncInventoryOp(opLabel, "conflict")
		l.logger.Error("inventory version conflict under lock",
			zap.String("product_id", productID),
			zap.Int64("expected_version", current.Version),
		)
		return nil, apperrors.WithCause(apperrors.ErrConcurrentModification,
			fmt.Errorf("inventory %s version %d is stale", productID, current.Version))
	}

	l.invalidate(ctx, productID)
	metrics.IncInventoryOp(opLabel, "ok")
	l.logger.Debug("inventory changed",
		zap.String("product_id", productID),
		zap.String("op", opLabel),
		zap.Int("qty", qty),
		zap.Int64("version", next.Version),
	)
	return next, nil
}

func (l *Ledger) acquire(ctx context.Context, productID string) (lock.Lease, error) {
	start := time.Now()
	lease, err := l.locker.Acquire(ctx, lockKeyPrefix+productID, l.cfg.LockWait, l.cfg.LockLease)
	switch {
	case err == nil:
		metrics.ObserveLockAcquire("inventory", "acquired", time.Since(start))
		return lease, nil
	case errors.Is(err, lock.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		metrics.ObserveLockAcquire("inventory", "timeout", time.Since(start))
		return nil, apperrors.WithCause(apperrors.ErrLockTimeout, err)
	default:
		metrics.ObserveLockAcquire("inventory", "error", time.Since(start))
		return nil, apperrors.WithCause(apperrors.ErrStoreUnavailable, err)
	}
}

func (l *Ledger) release(ctx context.Context, lease lock.Lease) {
	if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
		// 租约已过期，version条件已经挡住了迟到的写
		l.logger.Warn("release inventory lock failed", zap.String("key", lease.Key()), zap.Error(err))
	}
}

func (l *Ledger) invalidate(ctx context.Context, productID string) {
	if err := kv.Invalidate(context.WithoutCancel(ctx), l.store, cacheKeyPrefix+productID); err != nil {
		l.logger.Warn("inventory cache invalidate failed", zap.String("product_id", productID), zap.Error(err))
	}
}

func resultOf(err error) string {
	switch {
	case errors.Is(err, ErrInsufficientStock), errors.Is(err, ErrInsufficientReserved), errors.Is(err, ErrInsufficientSold):
		return "insufficient_stock"
	case errors.Is(err, ErrInventoryNotFound):
		return "not_found"
	case errors.Is(err, ErrInventoryExists):
		return "exists"
	case errors.Is(err, apperrors.ErrLockTimeout):
		return "lock_timeout"
	default:
		return "error"
	}
}
