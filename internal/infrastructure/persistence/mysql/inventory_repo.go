package mysql

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/xiebiao/flashorder/internal/domain/inventory"
)

type inventoryRepository struct {
	db *gorm.DB
	tx *TxManager
}

// NewInventoryRepository 创建库存仓储
// 计数器更新和流水写入共用TxManager开启的事务
func NewInventoryRepository(db *gorm.DB, tx *TxManager) inventory.Repository {
	return &inventoryRepository{db: db, tx: tx}
}

func (r *inventoryRepository) Create(ctx context.Context, rec *inventory.Record, log *inventory.Log) error {
	model := toInventoryModel(rec)
	return r.tx.Transaction(ctx, func(ctx context.Context) error {
		if err := dbFrom(ctx, r.db).Create(model).Error; err != nil {
			if isDuplicateError(err) {
				return inventory.ErrInventoryExists
			}
			return storeError(err)
		}
		rec.ID = model.ID
		return r.appendLog(ctx, log)
	})
}

func (r *inventoryRepository) FindByProductID(ctx context.Context, productID string) (*inventory.Record, error) {
	var model InventoryModel
	err := dbFrom(ctx, r.db).Where("product_id = ?", productID).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, inventory.ErrInventoryNotFound
		}
		return nil, storeError(err)
	}
	return toInventoryRecord(&model), nil
}

// CompareAndSwap 以version为条件的增量更新
// 版本不匹配时不写流水，事务整体回滚
func (r *inventoryRepository) CompareAndSwap(ctx context.Context, productID string, expectedVersion int64, delta inventory.Delta, log *inventory.Log) (int64, error) {
	var rows int64
	err := r.tx.Transaction(ctx, func(ctx context.Context) error {
		result := dbFrom(ctx, r.db).Model(&InventoryModel{}).
			Where("product_id = ? AND version = ?", productID, expectedVersion).
			Updates(map[string]any{
				"available_stock": gorm.Expr("available_stock + ?", delta.Available),
				"reserved_stock":  gorm.Expr("reserved_stock + ?", delta.Reserved),
				"sold_stock":      gorm.Expr("sold_stock + ?", delta.Sold),
				"version":         gorm.Expr("version + 1"),
				"updated_at":      time.Now(),
			})
		if result.Error != nil {
			return storeError(result.Error)
		}
		rows = result.RowsAffected
		if rows == 0 {
			return nil
		}
		return r.appendLog(ctx, log)
	})
	if err != nil {
		return 0, err
	}
	return rows, nil
}

func (r *inventoryRepository) ListLogs(ctx context.Context, productID string, page, pageSize int) ([]*inventory.Log, int64, error) {
	var (
		models []InventoryLogModel
		total  int64
	)
	query := dbFrom(ctx, r.db).Model(&InventoryLogModel{}).Where("product_id = ?", productID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, storeError(err)
	}

	offset, limit := pageOffset(page, pageSize)
	if err := query.Order("id DESC").Limit(limit).Offset(offset).Find(&models).Error; err != nil {
		return nil, 0, storeError(err)
	}

	logs := make([]*inventory.Log, len(models))
	for i := range models {
		logs[i] = toInventoryLog(&models[i])
	}
	return logs, total, nil
}

func (r *inventoryRepository) appendLog(ctx context.Context, log *inventory.Log) error {
	if log == nil {
		return nil
	}
	model := toInventoryLogModel(log)
	if err := dbFrom(ctx, r.db).Create(model).Error; err != nil {
		return storeError(err)
	}
	log.ID = model.ID
	return nil
}

func toInventoryModel(rec *inventory.Record) *InventoryModel {
	return &InventoryModel{
		ID:             rec.ID,
		ProductID:      rec.ProductID,
		ProductName:    rec.ProductName,
		TotalStock:     rec.TotalStock,
		AvailableStock: rec.AvailableStock,
		ReservedStock:  rec.ReservedStock,
		SoldStock:      rec.SoldStock,
		Version:        rec.Version,
		Status:         rec.Status,
		CreatedAt:      rec.CreatedAt,
		UpdatedAt:      rec.UpdatedAt,
	}
}

func toInventoryRecord(m *InventoryModel) *inventory.Record {
	return &inventory.Record{
		ID:             m.ID,
		ProductID:      m.ProductID,
		ProductName:    m.ProductName,
		TotalStock:     m.TotalStock,
		AvailableStock: m.AvailableStock,
		ReservedStock:  m.ReservedStock,
		SoldStock:      m.SoldStock,
		Version:        m.Version,
		Status:         m.Status,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func toInventoryLogModel(l *inventory.Log) *InventoryLogModel {
	return &InventoryLogModel{
		ProductID:       l.ProductID,
		ChangeType:      string(l.ChangeType),
		Quantity:        l.Quantity,
		BeforeAvailable: l.BeforeAvailable,
		AfterAvailable:  l.AfterAvailable,
		Version:         l.Version,
		Remark:          l.Remark,
		CreatedAt:       l.CreatedAt,
	}
}

func toInventoryLog(m *InventoryLogModel) *inventory.Log {
	return &inventory.Log{
		ID:              m.ID,
		ProductID:       m.ProductID,
		ChangeType:      inventory.ChangeType(m.ChangeType),
		Quantity:        m.Quantity,
		BeforeAvailable: m.BeforeAvailable,
		AfterAvailable:  m.AfterAvailable,
		Version:         m.Version,
		Remark:          m.Remark,
		CreatedAt:       m.CreatedAt,
	}
}
