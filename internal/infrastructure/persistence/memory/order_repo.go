package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/xiebiao/flashorder/internal/domain/order"
)

// OrderRepository 内存订单仓储
// UpdateStatus在互斥锁内比较旧状态，语义等同于带WHERE status=?的条件更新
type OrderRepository struct {
	mu     sync.RWMutex
	orders map[string]*order.Order
	nextID uint
}

// NewOrderRepository 创建内存订单仓储
func NewOrderRepository() *OrderRepository {
	return &OrderRepository{orders: make(map[string]*order.Order)}
}

func cloneOrder(o *order.Order) *order.Order {
	c := *o
	return &c
}

func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.orders[o.OrderNo]; exists {
		return order.ErrOrderExists
	}
	r.nextID++
	o.ID = r.nextID
	r.orders[o.OrderNo] = cloneOrder(o)
	return nil
}

func (r *OrderRepository) FindByOrderNo(ctx context.Context, orderNo string) (*order.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.orders[orderNo]
	if !ok {
		return nil, order.ErrOrderNotFound
	}
	return cloneOrder(o), nil
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, orderNo string, from, to order.Status, change order.Change) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[orderNo]
	if !ok || o.Status != from {
		return 0, nil
	}
	o.Status = to
	if change.TrackingNumber != "" {
		o.TrackingNumber = change.TrackingNumber
	}
	if change.CancelReason != "" {
		o.CancelReason = change.CancelReason
	}
	o.UpdatedAt = time.Now()
	return 1, nil
}

func (r *OrderRepository) ListByUserID(ctx context.Context, userID uint, page, pageSize int) ([]*order.Order, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	r.mu.RLock()
	matched := make([]*order.Order, 0)
	for _, o := range r.orders {
		if o.UserID == userID {
			matched = append(matched, cloneOrder(o))
		}
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })
	return paginate(matched, page, pageSize), int64(len(matched)), nil
}

func paginate[T any](items []T, page, pageSize int) []T {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	start := (page - 1) * pageSize
	if start >= len(items) {
		return []T{}
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

var _ order.Repository = (*OrderRepository)(nil)
