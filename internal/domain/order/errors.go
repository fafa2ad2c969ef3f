package order

import (
	"fmt"

	apperrors "github.com/xiebiao/flashorder/pkg/errors"
)

var (
	// ErrOrderNotFound 订单不存在
	ErrOrderNotFound = apperrors.New(apperrors.ErrCodeOrderNotFound, "订单不存在")

	// ErrOrderExists 订单号冲突
	ErrOrderExists = apperrors.New(apperrors.ErrCodeAlreadyExists, "订单已存在")

	// ErrInvalidOrder 订单字段不完整
	ErrInvalidOrder = apperrors.New(apperrors.ErrCodeInvalidParams, "订单信息不完整")

	// ErrInvalidQuantity 购买数量必须大于0
	ErrInvalidQuantity = apperrors.New(apperrors.ErrCodeInvalidParams, "购买数量必须大于0")

	// ErrInvalidAmount 金额不能为负
	ErrInvalidAmount = apperrors.New(apperrors.ErrCodeInvalidParams, "订单金额不能为负数")

	// ErrOrderNoGenerate 订单号生成失败
	ErrOrderNoGenerate = apperrors.New(apperrors.ErrCodeStoreUnavailable, "订单号生成失败")
)

// TransitionError 非法状态迁移，携带起止状态
// errors.Is(err, apperrors.ErrIllegalTransition) 成立
type TransitionError struct {
	OrderNo string
	From    Status
	To      Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("order %s: illegal transition %s -> %s", e.OrderNo, e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return apperrors.ErrIllegalTransition
}
