package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/flashorder/internal/domain/kv"
	"github.com/xiebiao/flashorder/internal/domain/lock"
	apperrors "github.com/xiebiao/flashorder/pkg/errors"
	"github.com/xiebiao/flashorder/pkg/metrics"
)

const (
	callbackLockPrefix = "order-callback-lock:"

	// PaymentSuccess 支付渠道回调的成功结果，其他任何值都视为支付失败
	PaymentSuccess = "SUCCESS"
)

// CallbackKind 支付回调的处理结果
type CallbackKind string

const (
	CallbackApplied CallbackKind = "APPLIED" // 已推进状态
	CallbackIgnored CallbackKind = "IGNORED" // 同一订单的回调正在处理中
	CallbackAnomaly CallbackKind = "ANOMALY" // 订单不是PENDING，未做任何修改
)

// CallbackOutcome 支付回调结果
type CallbackOutcome struct {
	Kind    CallbackKind
	Message string
	From    Status
	Order   *Order // Applied时为迁移后的订单，Anomaly时为当前订单
}

// StateMachineConfig 状态机配置
type StateMachineConfig struct {
	CacheTTL      time.Duration // 订单镜像TTL
	CallbackLease time.Duration // 支付回调锁租约
}

// StateMachine 订单状态机，订单状态的唯一修改入口
//
// 所有迁移都走ChangeStatus：从仓储读取当前状态 → 查迁移表 → 条件更新 → 删除缓存镜像。
// 直接调用的Pay/Ship/Complete/Cancel只依赖条件更新，并发时输家得到ErrConcurrentModification；
// 支付回调额外加一把按订单号的短租约锁，把重复投递合并为一次生效。
type StateMachine struct {
	repo   Repository
	cache  *statusCache
	locker lock.Locker
	cfg    StateMachineConfig
	logger *zap.Logger
	now    func() time.Time
}

// NewStateMachine 创建状态机
func NewStateMachine(repo Repository, store kv.Store, locker lock.Locker, cfg StateMachineConfig, logger *zap.Logger) *StateMachine {
	if cfg.CallbackLease <= 0 {
		cfg.CallbackLease = 15 * time.Second
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StateMachine{
		repo:   repo,
		cache:  &statusCache{store: store, ttl: cfg.CacheTTL},
		locker: locker,
		cfg:    cfg,
		logger: logger.Named("order_state_machine"),
		now:    time.Now,
	}
}

// Create 保存新订单，状态强制为PENDING
func (sm *StateMachine) Create(ctx context.Context, o *Order) error {
	if err := o.Validate(); err != nil {
		return err
	}
	now := sm.now()
	o.Status = StatusPending
	o.CreatedAt = now
	o.UpdatedAt = now

	if err := sm.repo.Create(ctx, o); err != nil {
		return err
	}
	sm.logger.Debug("order created", zap.String("order_no", o.OrderNo), zap.Uint("user_id", o.UserID))
	return nil
}

// ChangeStatus 把订单迁移到target
// 返回迁移后的订单和迁移前的状态
func (sm *StateMachine) ChangeStatus(ctx context.Context, orderNo string, target Status, change Change) (*Order, Status, error) {
	// 写决策只看仓储，不看缓存
	o, err := sm.repo.FindByOrderNo(ctx, orderNo)
	if err != nil {
		return nil, 0, err
	}
	return sm.changeStatus(ctx, o, target, change)
}

// changeStatus 以o.Status为条件迁移，o必须是刚从仓储读出的
func (sm *StateMachine) changeStatus(ctx context.Context, o *Order, target Status, change Change) (*Order, Status, error) {
	from := o.Status
	if !from.CanTransitionTo(target) {
		metrics.IncTransition(from.String(), target.String(), "illegal")
		return nil, from, &TransitionError{OrderNo: o.OrderNo, From: from, To: target}
	}

	rows, err := sm.repo.UpdateStatus(ctx, o.OrderNo, from, target, change)
	if err != nil {
		metrics.IncTransition(from.String(), target.String(), "error")
		return nil, from, err
	}
	if rows == 0 {
		metrics.IncTransition(from.String(), target.String(), "conflict")
		return nil, from, apperrors.WithCause(apperrors.ErrConcurrentModification,
			fmt.Errorf("order %s is no longer %s", o.OrderNo, from))
	}

	o.apply(target, change, sm.now())
	sm.invalidate(ctx, o.OrderNo)
	metrics.IncTransition(from.String(), target.String(), "ok")

	sm.logger.Info("order status changed",
		zap.String("order_no", o.OrderNo),
		zap.Stringer("from", from),
		zap.Stringer("to", target),
	)
	return o, from, nil
}

// Pay PENDING → PAID
func (sm *StateMachine) Pay(ctx context.Context, orderNo string) (*Order, error) {
	o, _, err := sm.ChangeStatus(ctx, orderNo, StatusPaid, Change{})
	return o, err
}

// Ship PAID → SHIPPED
func (sm *StateMachine) Ship(ctx context.Context, orderNo, trackingNumber string) (*Order, error) {
	o, _, err := sm.ChangeStatus(ctx, orderNo, StatusShipped, Change{TrackingNumber: trackingNumber})
	return o, err
}

// Complete SHIPPED → COMPLETED
func (sm *StateMachine) Complete(ctx context.Context, orderNo string) (*Order, error) {
	o, _, err := sm.ChangeStatus(ctx, orderNo, StatusCompleted, Change{})
	return o, err
}

// Cancel PENDING/PAID → CANCELLED，同时返回取消前的状态
func (sm *StateMachine) Cancel(ctx context.Context, orderNo, reason string) (*Order, Status, error) {
	return sm.ChangeStatus(ctx, orderNo, StatusCancelled, Change{CancelReason: reason})
}

// HandlePaymentCallback 处理支付渠道回调
func (sm *StateMachine) HandlePaymentCallback(ctx context.Context, orderNo, result string) (*CallbackOutcome, error) {
	lease, ok, err := sm.locker.TryAcquire(ctx, callbackLockPrefix+orderNo, sm.cfg.CallbackLease)
	if err != nil {
		metrics.IncPaymentCallback("error")
		return nil, apperrors.WithCause(apperrors.ErrStoreUnavailable, err)
	}
	if !ok {
		metrics.IncPaymentCallback("ignored")
		return &CallbackOutcome{Kind: CallbackIgnored, Message: "processing, ignore"}, nil
	}
	defer sm.release(ctx, lease)

	current, err := sm.repo.FindByOrderNo(ctx, orderNo)
	if err != nil {
		metrics.IncPaymentCallback("error")
		return nil, err
	}
	// 回调只推进PENDING订单，PAID订单收到失败回调也不能被取消
	if current.Status != StatusPending {
		sm.logger.Warn("payment callback anomaly",
			zap.String("order_no", orderNo),
			zap.String("result", result),
			zap.Stringer("current_status", current.Status),
		)
		metrics.IncPaymentCallback("anomaly")
		return &CallbackOutcome{
			Kind:    CallbackAnomaly,
			Message: fmt.Sprintf("anomaly: order is %s, callback %s not applied", current.Status, result),
			From:    current.Status,
			Order:   current,
		}, nil
	}

	target := StatusCancelled
	change := Change{CancelReason: "payment failed: " + result}
	if result == PaymentSuccess {
		target = StatusPaid
		change = Change{}
	}

	o, from, err := sm.changeStatus(ctx, current, target, change)
	if err != nil {
		metrics.IncPaymentCallback("error")
		return nil, err
	}

	metrics.IncPaymentCallback("applied")
	return &CallbackOutcome{
		Kind:    CallbackApplied,
		Message: fmt.Sprintf("order %s -> %s", from, target),
		From:    from,
		Order:   o,
	}, nil
}

// Get 缓存优先读取订单，只用于展示，不用于写决策
func (sm *StateMachine) Get(ctx context.Context, orderNo string) (*Order, error) {
	o, err := sm.cache.get(ctx, orderNo)
	if err == nil {
		return o, nil
	}
	if !errors.Is(err, kv.ErrNotFound) {
		sm.logger.Warn("order cache read failed", zap.String("order_no", orderNo), zap.Error(err))
	}

	o, err = sm.repo.FindByOrderNo(ctx, orderNo)
	if err != nil {
		return nil, err
	}
	if err := sm.cache.put(ctx, o); err != nil {
		sm.logger.Warn("order cache fill failed", zap.String("order_no", orderNo), zap.Error(err))
	}
	return o, nil
}

// NextPossibleStatuses 当前状态可迁移到的状态
func (sm *StateMachine) NextPossibleStatuses(ctx context.Context, orderNo string) ([]Status, error) {
	o, err := sm.Get(ctx, orderNo)
	if err != nil {
		return nil, err
	}
	return o.Status.NextStatuses(), nil
}

// ListByUser 分页查询用户订单
func (sm *StateMachine) ListByUser(ctx context.Context, userID uint, page, pageSize int) ([]*Order, int64, error) {
	return sm.repo.ListByUserID(ctx, userID, page, pageSize)
}

// invalidate 失效镜像失败只记录日志：数据库已提交，镜像会在TTL后过期
func (sm *StateMachine) invalidate(ctx context.Context, orderNo string) {
	if err := sm.cache.invalidate(context.WithoutCancel(ctx), orderNo); err != nil {
		sm.logger.Warn("order cache invalidate failed", zap.String("order_no", orderNo), zap.Error(err))
	}
}

func (sm *StateMachine) release(ctx context.Context, lease lock.Lease) {
	if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
		sm.logger.Warn("release callback lock failed", zap.String("key", lease.Key()), zap.Error(err))
	}
}
