package inventory

import (
	apperrors "github.com/xiebiao/flashorder/pkg/errors"
)

var (
	ErrInventoryNotFound = apperrors.New(apperrors.ErrCodeInventoryNotFound, "库存记录不存在")
	ErrInventoryExists   = apperrors.New(apperrors.ErrCodeAlreadyExists, "库存记录已存在")
	ErrInvalidProductID  = apperrors.New(apperrors.ErrCodeInvalidParams, "无效的商品ID")
	ErrInvalidQuantity   = apperrors.New(apperrors.ErrCodeInvalidParams, "数量必须大于0")
	ErrInvalidTotalStock = apperrors.New(apperrors.ErrCodeInvalidParams, "总库存不能为负数")

	// ErrInsufficientStock 可售库存不足
	ErrInsufficientStock = apperrors.ErrInsufficientStock
	// ErrInsufficientReserved 预留库存不足（确认/释放的数量超过已预留）
	ErrInsufficientReserved = apperrors.New(apperrors.ErrCodeInsufficientStock, "预留库存不足")
	// ErrInsufficientSold 已售库存不足（退回的数量超过已售）
	ErrInsufficientSold = apperrors.New(apperrors.ErrCodeInsufficientStock, "已售库存不足")

	ErrNegativeStock     = apperrors.New(apperrors.ErrCodeInternal, "库存不能为负数")
	ErrInconsistentStock = apperrors.New(apperrors.ErrCodeInternal, "总库存不一致")
)
