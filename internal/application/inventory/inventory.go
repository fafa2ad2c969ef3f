// Package inventory 库存管理用例
package inventory

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xiebiao/flashorder/internal/domain/inventory"
	"github.com/xiebiao/flashorder/pkg/tracing"
)

const tracerName = "flashorder/application/inventory"

// UseCase 库存初始化与查询
type UseCase struct {
	ledger *inventory.Ledger
	logger *zap.Logger
}

func NewUseCase(ledger *inventory.Ledger, logger *zap.Logger) *UseCase {
	return &UseCase{ledger: ledger, logger: logger.Named("inventory_usecase")}
}

// InitializeRequest 初始化库存请求
type InitializeRequest struct {
	ProductID   string
	ProductName string
	TotalStock  int
}

// InitializeInventory 创建商品库存，商品已存在返回ErrInventoryExists
func (uc *UseCase) InitializeInventory(ctx context.Context, req InitializeRequest) (rec *inventory.Record, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "InitializeInventory",
		trace.WithAttributes(attribute.String("product_id", req.ProductID)))
	defer func() { tracing.EndSpan(span, err) }()

	return uc.ledger.Initialize(ctx, req.ProductID, req.ProductName, req.TotalStock)
}

// GetInventory 查询库存（可能来自缓存镜像）
func (uc *UseCase) GetInventory(ctx context.Context, productID string) (*inventory.Record, error) {
	return uc.ledger.Get(ctx, productID)
}

// ListInventoryLogs 分页查询库存流水
func (uc *UseCase) ListInventoryLogs(ctx context.Context, productID string, page, pageSize int) ([]*inventory.Log, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return uc.ledger.Logs(ctx, productID, page, pageSize)
}
