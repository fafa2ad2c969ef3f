package dto

import (
	"fmt"
	"time"

	"github.com/xiebiao/flashorder/internal/domain/order"
)

// TimeLayout 响应中的时间格式
const TimeLayout = "2006-01-02 15:04:05"

// IssueTokenResponse 幂等Token
type IssueTokenResponse struct {
	Token            string `json:"token" example:"3f2a9c0d8e7b4a61b5c2d3e4f5a6b7c8"`
	ExpiresInMinutes int    `json:"expires_in_minutes" example:"30"`
}

// CreateOrderRequest HTTP下单请求
// token由 POST /idempotency/tokens 获取，每个Token只能成功下单一次
type CreateOrderRequest struct {
	ProductID       string `json:"product_id" binding:"required,max=64" example:"SKU-1001"`
	Amount          int    `json:"amount" binding:"required,min=1,max=999" example:"2"` // 购买数量
	Token           string `json:"token" binding:"required,max=64" example:"3f2a9c0d8e7b4a61b5c2d3e4f5a6b7c8"`
	TotalAmount     int64  `json:"total_amount" binding:"min=0" example:"11800"`   // 分
	PaymentAmount   int64  `json:"payment_amount" binding:"min=0" example:"11800"` // 分
	PaymentType     string `json:"payment_type" binding:"omitempty,max=32" example:"ALIPAY"`
	ShippingAddress string `json:"shipping_address" binding:"max=255" example:"上海市浦东新区世纪大道100号"`
}

// CreateOrderResponse HTTP下单响应
// duplicate为true表示命中了之前的成功请求，没有新建订单
type CreateOrderResponse struct {
	OrderNo   string `json:"order_no" example:"ORD20241106103000000001"`
	Status    string `json:"status" example:"PENDING"`
	Duplicate bool   `json:"duplicate" example:"false"`
}

// ShipOrderRequest 发货请求
type ShipOrderRequest struct {
	TrackingNumber string `json:"tracking_number" binding:"required,max=64" example:"SF1234567890"`
}

// CancelOrderRequest 取消请求
type CancelOrderRequest struct {
	Reason string `json:"reason" binding:"max=255" example:"不想要了"`
}

// PaymentCallbackRequest 支付渠道回调
// result为SUCCESS时推进到PAID，其他值一律视为支付失败
type PaymentCallbackRequest struct {
	OrderNo string `json:"order_no" binding:"required,max=32" example:"ORD20241106103000000001"`
	Result  string `json:"result" binding:"required,max=32" example:"SUCCESS"`
}

// PaymentCallbackResponse 回调处理结果
type PaymentCallbackResponse struct {
	OrderNo string `json:"order_no" example:"ORD20241106103000000001"`
	Result  string `json:"result" example:"APPLIED"` // APPLIED | IGNORED | ANOMALY
	Message string `json:"message" example:"applied"`
	Status  string `json:"status,omitempty" example:"PAID"`
}

// OrderResponse 订单详情
type OrderResponse struct {
	OrderNo           string `json:"order_no" example:"ORD20241106103000000001"`
	UserID            uint   `json:"user_id" example:"1"`
	ProductID         string `json:"product_id" example:"SKU-1001"`
	Quantity          int    `json:"quantity" example:"2"`
	TotalAmount       int64  `json:"total_amount" example:"11800"`
	TotalAmountYuan   string `json:"total_amount_yuan" example:"118.00"`
	PaymentAmount     int64  `json:"payment_amount" example:"11800"`
	PaymentAmountYuan string `json:"payment_amount_yuan" example:"118.00"`
	PaymentType       string `json:"payment_type,omitempty" example:"ALIPAY"`
	ShippingAddress   string `json:"shipping_address,omitempty" example:"上海市浦东新区世纪大道100号"`
	Status            string `json:"status" example:"PENDING"`
	TrackingNumber    string `json:"tracking_number,omitempty" example:"SF1234567890"`
	CancelReason      string `json:"cancel_reason,omitempty"`
	CreatedAt         string `json:"created_at" example:"2024-11-06 10:30:00"`
	UpdatedAt         string `json:"updated_at" example:"2024-11-06 10:30:00"`
}

// NextStatusesResponse 当前状态可以迁移到的状态
type NextStatusesResponse struct {
	OrderNo      string   `json:"order_no" example:"ORD20241106103000000001"`
	NextStatuses []string `json:"next_statuses" example:"PAID,CANCELLED"`
}

// ListOrdersRequest 订单列表查询
type ListOrdersRequest struct {
	Page     int `form:"page" binding:"omitempty,min=1" example:"1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100" example:"10"`
}

// NewOrderResponse 领域订单转HTTP响应
func NewOrderResponse(o *order.Order) OrderResponse {
	return OrderResponse{
		OrderNo:           o.OrderNo,
		UserID:            o.UserID,
		ProductID:         o.ProductID,
		Quantity:          o.Quantity,
		TotalAmount:       o.TotalAmount,
		TotalAmountYuan:   FormatYuan(o.TotalAmount),
		PaymentAmount:     o.PaymentAmount,
		PaymentAmountYuan: FormatYuan(o.PaymentAmount),
		PaymentType:       o.PaymentType,
		ShippingAddress:   o.ShippingAddress,
		Status:            o.Status.String(),
		TrackingNumber:    o.TrackingNumber,
		CancelReason:      o.CancelReason,
		CreatedAt:         formatTime(o.CreatedAt),
		UpdatedAt:         formatTime(o.UpdatedAt),
	}
}

// StatusNames 状态列表转字符串，空列表返回[]而不是null
func StatusNames(statuses []order.Status) []string {
	names := make([]string, 0, len(statuses))
	for _, s := range statuses {
		names = append(names, s.String())
	}
	return names
}

// FormatYuan 分转元，例如 5900 → "59.00"
func FormatYuan(fen int64) string {
	sign := ""
	if fen < 0 {
		sign, fen = "-", -fen
	}
	return fmt.Sprintf("%s%d.%02d", sign, fen/100, fen%100)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(TimeLayout)
}
