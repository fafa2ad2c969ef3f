package order

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xiebiao/flashorder/internal/domain/inventory"
	"github.com/xiebiao/flashorder/internal/domain/order"
	apperrors "github.com/xiebiao/flashorder/pkg/errors"
	"github.com/xiebiao/flashorder/pkg/tracing"
)

const tracerName = "flashorder/application/order"

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracing.StartSpan(ctx, tracerName, name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	tracing.EndSpan(span, err)
}

// settleStock 状态迁移成功后同步库存
//
//	→ PAID                 Confirm  预留转已售
//	PENDING → CANCELLED    Release  预留退回可售
//	PAID → CANCELLED       Refund   已售退回可售
//
// 失败返回ErrSettlementPending，此时状态已经提交，不能靠重放迁移补做
func settleStock(ctx context.Context, ledger *inventory.Ledger, o *order.Order, from order.Status) error {
	var err error
	switch {
	case o.Status == order.StatusPaid:
		_, err = ledger.Confirm(ctx, o.ProductID, o.Quantity, o.OrderNo)
	case o.Status == order.StatusCancelled && from == order.StatusPending:
		_, err = ledger.Release(ctx, o.ProductID, o.Quantity, o.OrderNo)
	case o.Status == order.StatusCancelled && from == order.StatusPaid:
		_, err = ledger.Refund(ctx, o.ProductID, o.Quantity, o.OrderNo)
	}
	if err != nil {
		return apperrors.WithCause(apperrors.ErrSettlementPending, err)
	}
	return nil
}

// publishStatusChanged 事件发布失败只记日志
func publishStatusChanged(ctx context.Context, events order.EventPublisher, logger *zap.Logger, o *order.Order, from order.Status) {
	event := order.StatusChangedEvent{
		OrderNo:    o.OrderNo,
		From:       from,
		To:         o.Status,
		Reason:     o.CancelReason,
		OccurredAt: time.Now(),
	}
	if err := events.Publish(ctx, order.RoutingKeyStatusChanged, event); err != nil {
		logger.Warn("publish status changed event failed", zap.String("order_no", o.OrderNo), zap.Error(err))
	}
}
