package order

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/xiebiao/flashorder/internal/domain/idempotency"
	"github.com/xiebiao/flashorder/internal/domain/inventory"
	"github.com/xiebiao/flashorder/internal/domain/order"
	apperrors "github.com/xiebiao/flashorder/pkg/errors"
	"github.com/xiebiao/flashorder/pkg/metrics"
	"github.com/xiebiao/flashorder/pkg/saga"
)

// CreateOrderConfig 下单用例配置
type CreateOrderConfig struct {
	Timeout time.Duration // 整个下单流程的超时，补偿不受其限制
}

// CreateOrderUseCase 下单用例
//
// 幂等检查 → 预留库存 → 写入PENDING订单 → 标记完成
// 任一步失败都逆序补偿：作废订单、退回预留、解除幂等键占用（Token仍可用于重试）
type CreateOrderUseCase struct {
	guard   *idempotency.Guard
	ledger  *inventory.Ledger
	orders  *order.StateMachine
	orderNo *order.NoGenerator
	events  order.EventPublisher
	cfg     CreateOrderConfig
	logger  *zap.Logger
}

func NewCreateOrderUseCase(
	guard *idempotency.Guard,
	ledger *inventory.Ledger,
	orders *order.StateMachine,
	orderNo *order.NoGenerator,
	events order.EventPublisher,
	cfg CreateOrderConfig,
	logger *zap.Logger,
) *CreateOrderUseCase {
	return &CreateOrderUseCase{
		guard:   guard,
		ledger:  ledger,
		orders:  orders,
		orderNo: orderNo,
		events:  events,
		cfg:     cfg,
		logger:  logger.Named("create_order"),
	}
}

// CreateOrderRequest 下单请求
type CreateOrderRequest struct {
	UserID          uint
	ProductID       string
	Amount          int // 购买数量
	Token           string
	TotalAmount     int64
	PaymentAmount   int64
	PaymentType     string
	ShippingAddress string
}

// CreateOrderResponse 下单结果
// Duplicate=true表示这是一次重复提交，OrderNo是首次提交创建的订单
type CreateOrderResponse struct {
	OrderNo   string `json:"order_no"`
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

func (req CreateOrderRequest) validate() error {
	switch {
	case req.UserID == 0:
		return apperrors.ErrUnauthorized
	case req.Token == "":
		return idempotency.ErrInvalidToken
	case req.ProductID == "":
		return order.ErrInvalidOrder
	case req.Amount <= 0:
		return order.ErrInvalidQuantity
	case req.TotalAmount < 0, req.PaymentAmount < 0:
		return order.ErrInvalidAmount
	}
	return nil
}

func (uc *CreateOrderUseCase) Execute(ctx context.Context, req CreateOrderRequest) (*CreateOrderResponse, error) {
	ctx, span := startSpan(ctx, "CreateOrder",
		attribute.Int("user_id", int(req.UserID)),
		attribute.String("product_id", req.ProductID),
		attribute.Int("amount", req.Amount),
	)
	start := time.Now()

	resp, err := uc.execute(ctx, req)

	endSpan(span, err)
	metrics.ObserveOrderCreation(time.Since(start))
	metrics.IncOrderCreated(creationResult(resp, err))
	return resp, err
}

func (uc *CreateOrderUseCase) execute(ctx context.Context, req CreateOrderRequest) (*CreateOrderResponse, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	key := idempotency.Request{
		UserID:    req.UserID,
		ProductID: req.ProductID,
		Amount:    req.Amount,
		Token:     req.Token,
	}
	check, err := uc.guard.CheckAndReserve(ctx, key)
	if err != nil {
		return nil, err
	}
	if check.Duplicate {
		uc.logger.Info("duplicate order request",
			zap.Uint("user_id", req.UserID),
			zap.String("order_no", check.ExistingOrderNo),
		)
		return &CreateOrderResponse{OrderNo: check.ExistingOrderNo, Duplicate: true}, nil
	}

	var (
		orderNo string
		created *order.Order
	)
	s := saga.NewSaga(uc.cfg.Timeout, saga.WithName("create_order"), saga.WithLogger(uc.logger))

	// 幂等键已在上面占用，这里只登记补偿
	s.AddStep("claim_idempotency_key", nil, func(ctx context.Context) error {
		return uc.guard.Abandon(ctx, key, orderNo)
	})
	s.AddStep("generate_order_no", func(ctx context.Context) error {
		no, err := uc.orderNo.Next(ctx)
		orderNo = no
		return err
	}, nil)
	s.AddStep("reserve_stock", func(ctx context.Context) error {
		_, err := uc.ledger.Reserve(ctx, req.ProductID, req.Amount, orderNo)
		return err
	}, func(ctx context.Context) error {
		_, err := uc.ledger.Release(ctx, req.ProductID, req.Amount, orderNo)
		return err
	})
	s.AddStep("persist_order", func(ctx context.Context) error {
		created = order.NewOrder(orderNo, req.UserID, req.ProductID, req.Amount, order.Payload{
			TotalAmount:     req.TotalAmount,
			PaymentAmount:   req.PaymentAmount,
			PaymentType:     req.PaymentType,
			ShippingAddress: req.ShippingAddress,
		})
		return uc.orders.Create(ctx, created)
	}, func(ctx context.Context) error {
		_, _, err := uc.orders.Cancel(ctx, orderNo, "create rollback")
		return err
	})
	s.AddStep("mark_created", func(ctx context.Context) error {
		return uc.guard.MarkCreated(ctx, key, orderNo)
	}, nil)

	if err := s.Execute(ctx); err != nil {
		uc.logger.Warn("create order rolled back",
			zap.Uint("user_id", req.UserID),
			zap.String("product_id", req.ProductID),
			zap.String("order_no", orderNo),
			zap.Error(err),
		)
		return nil, err
	}

	event := order.CreatedEvent{
		OrderNo:    created.OrderNo,
		UserID:     created.UserID,
		ProductID:  created.ProductID,
		Quantity:   created.Quantity,
		OccurredAt: created.CreatedAt,
	}
	if err := uc.events.Publish(ctx, order.RoutingKeyCreated, event); err != nil {
		uc.logger.Warn("publish order created event failed", zap.String("order_no", orderNo), zap.Error(err))
	}

	uc.logger.Info("order created",
		zap.String("order_no", orderNo),
		zap.Uint("user_id", req.UserID),
		zap.String("product_id", req.ProductID),
		zap.Int("amount", req.Amount),
	)
	return &CreateOrderResponse{OrderNo: orderNo, Status: created.Status.String()}, nil
}

func creationResult(resp *CreateOrderResponse, err error) string {
	switch {
	case err == nil && resp.Duplicate:
		return "duplicate"
	case err == nil:
		return "created"
	case errors.Is(err, idempotency.ErrDuplicateRequest):
		return "duplicate"
	case errors.Is(err, idempotency.ErrInvalidToken):
		return "invalid_token"
	case errors.Is(err, inventory.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, apperrors.ErrLockTimeout):
		return "lock_timeout"
	default:
		return "failed"
	}
}
