package mysql

import (
	"context"

	"gorm.io/gorm"
)

type txKey struct{}

// TxManager 事务管理器
// fn内通过ctx拿到的仓储操作都在同一事务中，fn返回error时回滚
type TxManager struct {
	db *gorm.DB
}

func NewTxManager(db *gorm.DB) *TxManager {
	return &TxManager{db: db}
}

// Transaction 执行事务，已在事务中时复用外层事务（GORM使用SavePoint）
// BEGIN/COMMIT失败返回ErrStoreUnavailable
func (m *TxManager) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	err := dbFrom(ctx, m.db).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
	return storeError(err)
}

// dbFrom 优先返回ctx中的事务DB
func dbFrom(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}
