package order

import (
	"context"
)

// Repository 订单仓储接口
// UpdateStatus是唯一修改状态的写操作，必须实现为条件更新：
//
//	UPDATE orders SET status=to, ... WHERE order_no=? AND status=from
//
// 返回受影响行数，0表示状态已被他人修改
type Repository interface {
	// Create 保存新订单，订单号重复返回ErrOrderExists
	Create(ctx context.Context, order *Order) error

	// FindByOrderNo 不存在返回ErrOrderNotFound
	FindByOrderNo(ctx context.Context, orderNo string) (*Order, error)

	UpdateStatus(ctx context.Context, orderNo string, from, to Status, change Change) (int64, error)

	// ListByUserID 按创建时间倒序分页
	ListByUserID(ctx context.Context, userID uint, page, pageSize int) ([]*Order, int64, error)
}
