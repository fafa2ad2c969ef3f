package inventory

import "context"

// Repository 库存仓储接口
type Repository interface {
	// Create 写入新记录和INIT流水，商品已存在返回ErrInventoryExists
	Create(ctx context.Context, record *Record, log *Log) error

	// FindByProductID 从存储读取（不经缓存），不存在返回ErrInventoryNotFound
	FindByProductID(ctx context.Context, productID string) (*Record, error)

	// CompareAndSwap 条件更新并在同一事务写入流水：
	//
	//	UPDATE inventory SET available=available+?, reserved=reserved+?, sold=sold+?, version=version+1
	//	WHERE product_id=? AND version=?
	//
	// 返回受影响行数，0表示版本已变化，此时不写流水
	CompareAndSwap(ctx context.Context, productID string, expectedVersion int64, delta Delta, log *Log) (int64, error)

	// ListLogs 按时间倒序分页
	ListLogs(ctx context.Context, productID string, page, pageSize int) ([]*Log, int64, error)
}
