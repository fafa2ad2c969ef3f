package order

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/xiebiao/flashorder/internal/domain/inventory"
	"github.com/xiebiao/flashorder/internal/domain/order"
)

// PaymentCallbackUseCase 支付渠道回调
type PaymentCallbackUseCase struct {
	orders *order.StateMachine
	ledger *inventory.Ledger
	events order.EventPublisher
	logger *zap.Logger
}

func NewPaymentCallbackUseCase(orders *order.StateMachine, ledger *inventory.Ledger, events order.EventPublisher, logger *zap.Logger) *PaymentCallbackUseCase {
	return &PaymentCallbackUseCase{
		orders: orders,
		ledger: ledger,
		events: events,
		logger: logger.Named("payment_callback"),
	}
}

// PaymentCallbackResponse 回调处理结果
type PaymentCallbackResponse struct {
	OrderNo string `json:"order_no"`
	Result  string `json:"result"` // APPLIED | IGNORED | ANOMALY
	Message string `json:"message"`
	Status  string `json:"status,omitempty"`
}

// Execute 处理一次回调投递
// 重复投递合并为一次生效；订单不是PENDING时返回ANOMALY且不做任何修改
func (uc *PaymentCallbackUseCase) Execute(ctx context.Context, orderNo, result string) (resp *PaymentCallbackResponse, err error) {
	ctx, span := startSpan(ctx, "PaymentCallback",
		attribute.String("order_no", orderNo),
		attribute.String("result", result),
	)
	defer func() { endSpan(span, err) }()

	outcome, err := uc.orders.HandlePaymentCallback(ctx, orderNo, result)
	if err != nil {
		return nil, err
	}

	resp = &PaymentCallbackResponse{
		OrderNo: orderNo,
		Result:  string(outcome.Kind),
		Message: outcome.Message,
	}
	if outcome.Order != nil {
		resp.Status = outcome.Order.Status.String()
	}
	if outcome.Kind != order.CallbackApplied {
		return resp, nil
	}

	publishStatusChanged(ctx, uc.events, uc.logger, outcome.Order, outcome.From)
	if err := settleStock(ctx, uc.ledger, outcome.Order, outcome.From); err != nil {
		uc.logger.Error("settle stock after payment callback failed",
			zap.String("order_no", orderNo),
			zap.String("result", result),
			zap.Error(err),
		)
		return nil, err
	}
	return resp, nil
}
