package order

import (
	"context"
	"time"
)

// 领域事件路由键
const (
	RoutingKeyCreated       = "order.created"
	RoutingKeyStatusChanged = "order.status_changed"
)

// CreatedEvent 订单创建成功
type CreatedEvent struct {
	OrderNo    string    `json:"order_no"`
	UserID     uint      `json:"user_id"`
	ProductID  string    `json:"product_id"`
	Quantity   int       `json:"quantity"`
	OccurredAt time.Time `json:"occurred_at"`
}

// StatusChangedEvent 订单状态迁移成功
type StatusChangedEvent struct {
	OrderNo    string    `json:"order_no"`
	From       Status    `json:"from"`
	To         Status    `json:"to"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// EventPublisher 领域事件发布端口
// 发布失败不影响业务结果，调用方只记录日志
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
}
