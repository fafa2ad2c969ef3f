package mysql

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "github.com/xiebiao/flashorder/pkg/errors"
)

// storeError 关系库故障统一为可重试的存储不可用
// 已经是业务错误的（如事务内返回的ErrInventoryExists）原样返回
func storeError(err error) error {
	if err == nil || apperrors.IsAppError(err) {
		return err
	}
	return apperrors.WithCause(apperrors.ErrStoreUnavailable, err)
}

// isDuplicateError 唯一索引冲突（MySQL 1062: Duplicate entry）
func isDuplicateError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "Duplicate entry")
}

// pageOffset 页码从1开始
func pageOffset(page, pageSize int) (offset, limit int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	return (page - 1) * pageSize, pageSize
}
