package order

import (
	"context"

	"github.com/xiebiao/flashorder/internal/domain/order"
)

// QueryUseCase 订单查询，读缓存镜像，不参与写决策
type QueryUseCase struct {
	orders *order.StateMachine
}

func NewQueryUseCase(orders *order.StateMachine) *QueryUseCase {
	return &QueryUseCase{orders: orders}
}

// GetOrder 查询订单详情，非本人订单按不存在处理
func (uc *QueryUseCase) GetOrder(ctx context.Context, userID uint, orderNo string) (*order.Order, error) {
	o, err := uc.orders.Get(ctx, orderNo)
	if err != nil {
		return nil, err
	}
	if !o.IsOwnedBy(userID) {
		return nil, order.ErrOrderNotFound
	}
	return o, nil
}

// GetNextPossibleStatuses 订单当前状态可迁移到的状态
func (uc *QueryUseCase) GetNextPossibleStatuses(ctx context.Context, orderNo string) ([]order.Status, error) {
	return uc.orders.NextPossibleStatuses(ctx, orderNo)
}

// ListOrders 分页查询用户订单
func (uc *QueryUseCase) ListOrders(ctx context.Context, userID uint, page, pageSize int) ([]*order.Order, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}
	return uc.orders.ListByUser(ctx, userID, page, pageSize)
}
