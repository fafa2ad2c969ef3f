package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/xiebiao/flashorder/internal/domain/inventory"
)

// InventoryRepository 内存库存仓储
type InventoryRepository struct {
	mu      sync.RWMutex
	records map[string]*inventory.Record
	logs    map[string][]*inventory.Log
	nextID  uint
	logID   uint
}

// NewInventoryRepository 创建内存库存仓储
func NewInventoryRepository() *InventoryRepository {
	return &InventoryRepository{
		records: make(map[string]*inventory.Record),
		logs:    make(map[string][]*inventory.Log),
	}
}

func (r *InventoryRepository) Create(ctx context.Context, rec *inventory.Record, log *inventory.Log) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.records[rec.ProductID]; exists {
		return inventory.ErrInventoryExists
	}
	r.nextID++
	rec.ID = r.nextID
	c := *rec
	r.records[rec.ProductID] = &c
	r.appendLog(log)
	return nil
}

func (r *InventoryRepository) FindByProductID(ctx context.Context, productID string) (*inventory.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[productID]
	if !ok {
		return nil, inventory.ErrInventoryNotFound
	}
	c := *rec
	return &c, nil
}

func (r *InventoryRepository) CompareAndSwap(ctx context.Context, productID string, expectedVersion int64, delta inventory.Delta, log *inventory.Log) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[productID]
	if !ok || rec.Version != expectedVersion {
		return 0, nil
	}
	rec.AvailableStock += delta.Available
	rec.ReservedStock += delta.Reserved
	rec.SoldStock += delta.Sold
	rec.Version++
	if log != nil {
		rec.UpdatedAt = log.CreatedAt
	}
	r.appendLog(log)
	return 1, nil
}

func (r *InventoryRepository) ListLogs(ctx context.Context, productID string, page, pageSize int) ([]*inventory.Log, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	r.mu.RLock()
	src := r.logs[productID]
	logs := make([]*inventory.Log, 0, len(src))
	for _, l := range src {
		c := *l
		logs = append(logs, &c)
	}
	r.mu.RUnlock()

	sort.Slice(logs, func(i, j int) bool { return logs[i].ID > logs[j].ID })
	return paginate(logs, page, pageSize), int64(len(logs)), nil
}

// appendLog 调用方必须持有写锁
func (r *InventoryRepository) appendLog(log *inventory.Log) {
	if log == nil {
		return
	}
	r.logID++
	c := *log
	c.ID = r.logID
	r.logs[log.ProductID] = append(r.logs[log.ProductID], &c)
}

var _ inventory.Repository = (*InventoryRepository)(nil)
