package order

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/xiebiao/flashorder/internal/domain/inventory"
	"github.com/xiebiao/flashorder/internal/domain/order"
)

// TransitionUseCase 接口触发的状态迁移
// 并发的相同迁移只依赖条件更新裁决，输家收到ErrConcurrentModification
type TransitionUseCase struct {
	orders *order.StateMachine
	ledger *inventory.Ledger
	events order.EventPublisher
	logger *zap.Logger
}

func NewTransitionUseCase(orders *order.StateMachine, ledger *inventory.Ledger, events order.EventPublisher, logger *zap.Logger) *TransitionUseCase {
	return &TransitionUseCase{
		orders: orders,
		ledger: ledger,
		events: events,
		logger: logger.Named("order_transition"),
	}
}

// Pay PENDING → PAID，随后把预留库存确认为已售
func (uc *TransitionUseCase) Pay(ctx context.Context, orderNo string) (o *order.Order, err error) {
	ctx, span := startSpan(ctx, "Pay", attribute.String("order_no", orderNo))
	defer func() { endSpan(span, err) }()

	o, err = uc.orders.Pay(ctx, orderNo)
	if err != nil {
		return nil, err
	}
	return o, uc.afterTransition(ctx, o, order.StatusPending)
}

// Ship PAID → SHIPPED
func (uc *TransitionUseCase) Ship(ctx context.Context, orderNo, trackingNumber string) (o *order.Order, err error) {
	ctx, span := startSpan(ctx, "Ship", attribute.String("order_no", orderNo))
	defer func() { endSpan(span, err) }()

	o, err = uc.orders.Ship(ctx, orderNo, trackingNumber)
	if err != nil {
		return nil, err
	}
	return o, uc.afterTransition(ctx, o, order.StatusPaid)
}

// Complete SHIPPED → COMPLETED
func (uc *TransitionUseCase) Complete(ctx context.Context, orderNo string) (o *order.Order, err error) {
	ctx, span := startSpan(ctx, "Complete", attribute.String("order_no", orderNo))
	defer func() { endSpan(span, err) }()

	o, err = uc.orders.Complete(ctx, orderNo)
	if err != nil {
		return nil, err
	}
	return o, uc.afterTransition(ctx, o, order.StatusShipped)
}

// Cancel PENDING/PAID → CANCELLED，退回预留或已售库存
func (uc *TransitionUseCase) Cancel(ctx context.Context, orderNo, reason string) (o *order.Order, err error) {
	ctx, span := startSpan(ctx, "Cancel", attribute.String("order_no", orderNo))
	defer func() { endSpan(span, err) }()

	o, from, err := uc.orders.Cancel(ctx, orderNo, reason)
	if err != nil {
		return nil, err
	}
	return o, uc.afterTransition(ctx, o, from)
}

// afterTransition 状态已提交，库存同步失败时返回ErrSettlementPending但不回退状态
// 调用方同时拿到迁移后的订单，据此对账
func (uc *TransitionUseCase) afterTransition(ctx context.Context, o *order.Order, from order.Status) error {
	publishStatusChanged(ctx, uc.events, uc.logger, o, from)

	if err := settleStock(ctx, uc.ledger, o, from); err != nil {
		uc.logger.Error("settle stock after transition failed",
			zap.String("order_no", o.OrderNo),
			zap.Stringer("from", from),
			zap.Stringer("to", o.Status),
			zap.Error(err),
		)
		return err
	}
	return nil
}
