package errors

import (
	"errors"
	"fmt"
)

// AppError 自定义应用错误
// 设计说明：
// 1. Code用于客户端判断错误类型（不要直接暴露HTTP状态码）
// 2. Message是用户友好的提示信息
// 3. Err是内部错误，仅记录到日志，不返回给客户端
type AppError struct {
	Code    int    `json:"code"`    // 业务错误码
	Message string `json:"message"` // 用户友好的错误提示
	Err     error  `json:"-"`       // 内部错误（不序列化）
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 支持errors.Is和errors.As
func (e *AppError) Unwrap() error {
	return e.Err
}

// New 创建新的AppError
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap 包装系统错误（如数据库错误、网络错误）
func Wrap(err error, message string) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: message,
		Err:     err,
	}
}

// WithCause 以sentinel的错误码和提示包装底层原因
// errors.Is(result, sentinel) 仍然成立
func WithCause(sentinel *AppError, cause error) *AppError {
	return &AppError{
		Code:    sentinel.Code,
		Message: sentinel.Message,
		Err:     &causeChain{sentinel: sentinel, cause: cause},
	}
}

// causeChain 同时保留sentinel和底层原因
type causeChain struct {
	sentinel *AppError
	cause    error
}

func (c *causeChain) Error() string {
	if c.cause == nil {
		return c.sentinel.Message
	}
	return c.cause.Error()
}

func (c *causeChain) Unwrap() []error {
	if c.cause == nil {
		return []error{c.sentinel}
	}
	return []error{c.sentinel, c.cause}
}

// =========================================
// 错误码定义
// =========================================
// 规范：
// - 4xxxx: 客户端错误（参数错误、业务规则校验失败）
// - 5xxxx: 服务端错误（存储异常、锁超时）

const (
	// 系统级错误码（50000-50099）
	ErrCodeInternal          = 50000 // 内部错误
	ErrCodeDatabaseError     = 50001 // 数据库错误
	ErrCodeRedisError        = 50002 // Redis错误
	ErrCodeStoreUnavailable  = 50003 // 存储不可用（缓存/数据库）
	ErrCodeSettlementPending = 50004 // 订单状态已提交，库存同步失败待对账

	// 系统繁忙（50300-50399）
	ErrCodeLockTimeout = 50300 // 获取分布式锁超时

	// 身份与幂等（40100-40199）
	ErrCodeUnauthorized = 40100 // 缺少用户身份
	ErrCodeInvalidToken = 40101 // 幂等Token无效或已过期

	// 资源错误（40400-40499）
	ErrCodeNotFound          = 40400 // 资源不存在(通用)
	ErrCodeInventoryNotFound = 40402 // 库存记录不存在
	ErrCodeOrderNotFound     = 40403 // 订单不存在

	// 业务规则错误（40000-40099）
	ErrCodeBusinessError          = 40000 // 业务错误(通用)
	ErrCodeInsufficientStock      = 40001 // 库存不足
	ErrCodeIllegalTransition      = 40002 // 订单状态不允许此操作
	ErrCodeAlreadyExists          = 40009 // 重复记录(通用)
	ErrCodeConcurrentModification = 40010 // 并发修改冲突
	ErrCodeDuplicateRequest       = 40011 // 重复请求（正在处理中）
	ErrCodeTooManyRequests        = 40029 // 请求过于频繁

	// 参数错误（40900-40999）
	ErrCodeInvalidParams = 40900 // 参数错误
	ErrCodeBindError     = 40901 // 参数绑定失败
)

// =========================================
// 预定义错误（避免每次都New）
// =========================================

var (
	// 系统错误
	ErrInternal          = New(ErrCodeInternal, "系统内部错误")
	ErrDatabaseError     = New(ErrCodeDatabaseError, "数据库错误")
	ErrRedisError        = New(ErrCodeRedisError, "缓存服务错误")
	ErrStoreUnavailable  = New(ErrCodeStoreUnavailable, "存储服务不可用，请稍后重试")
	ErrLockTimeout       = New(ErrCodeLockTimeout, "系统繁忙，请稍后重试")
	ErrSettlementPending = New(ErrCodeSettlementPending, "订单状态已更新，库存同步待处理")

	// 身份与幂等
	ErrUnauthorized     = New(ErrCodeUnauthorized, "缺少用户身份")
	ErrInvalidToken     = New(ErrCodeInvalidToken, "幂等Token无效或已过期")
	ErrDuplicateRequest = New(ErrCodeDuplicateRequest, "重复请求，订单正在处理中")

	// 业务规则
	ErrInsufficientStock      = New(ErrCodeInsufficientStock, "库存不足")
	ErrIllegalTransition      = New(ErrCodeIllegalTransition, "订单状态不允许此操作")
	ErrAlreadyExists          = New(ErrCodeAlreadyExists, "记录已存在")
	ErrConcurrentModification = New(ErrCodeConcurrentModification, "数据已被并发修改，请重试")
	ErrTooManyRequests        = New(ErrCodeTooManyRequests, "请求过于频繁")

	// 参数错误
	ErrInvalidParams = New(ErrCodeInvalidParams, "参数错误")
	ErrBindError     = New(ErrCodeBindError, "参数格式错误")
)

// =========================================
// 辅助函数
// =========================================

// IsAppError 判断是否为AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError 提取AppError（如果不是AppError则包装成Internal错误）
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Wrap(err, "系统内部错误")
}

// IsRetryable 调用方是否可以重新读取后再试一次
// 并发冲突、锁超时、存储不可用属于可重试错误，其余业务错误重试无意义
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrentModification) ||
		errors.Is(err, ErrLockTimeout) ||
		errors.Is(err, ErrStoreUnavailable)
}
