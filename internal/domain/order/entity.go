package order

import (
	"fmt"
	"strings"
	"time"
)

// Status 订单状态
// 状态流转规则：
//
//	PENDING → PAID → SHIPPED → COMPLETED
//	   ↓        ↓
//	CANCELLED CANCELLED
type Status int

const (
	StatusPending   Status = 1 // 待支付
	StatusPaid      Status = 2 // 已支付
	StatusShipped   Status = 3 // 已发货
	StatusCompleted Status = 4 // 已完成（终态）
	StatusCancelled Status = 5 // 已取消（终态）
)

// transitions 合法的状态迁移表，唯一的规则来源
var transitions = map[Status][]Status{
	StatusPending:   {StatusPaid, StatusCancelled},
	StatusPaid:      {StatusShipped, StatusCancelled},
	StatusShipped:   {StatusCompleted},
	StatusCompleted: {},
	StatusCancelled: {},
}

var statusNames = map[Status]string{
	StatusPending:   "PENDING",
	StatusPaid:      "PAID",
	StatusShipped:   "SHIPPED",
	StatusCompleted: "COMPLETED",
	StatusCancelled: "CANCELLED",
}

// AllStatuses 按生命周期顺序返回全部状态
func AllStatuses() []Status {
	return []Status{StatusPending, StatusPaid, StatusShipped, StatusCompleted, StatusCancelled}
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", int(s))
}

// ParseStatus 解析状态名（大小写不敏感）
func ParseStatus(name string) (Status, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	for s, n := range statusNames {
		if n == upper {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown order status %q", name)
}

// IsValid 是否为已定义的状态
func (s Status) IsValid() bool {
	_, ok := statusNames[s]
	return ok
}

// IsTerminal 终态不再有后续状态
func (s Status) IsTerminal() bool {
	return s.IsValid() && len(transitions[s]) == 0
}

// CanTransitionTo 检查是否允许从s迁移到target
func (s Status) CanTransitionTo(target Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// NextStatuses 当前状态可迁移到的状态（返回副本）
func (s Status) NextStatuses() []Status {
	next := transitions[s]
	out := make([]Status, len(next))
	copy(out, next)
	return out
}

// MarshalText JSON中以状态名表示
func (s Status) MarshalText() ([]byte, error) {
	if !s.IsValid() {
		return nil, fmt.Errorf("invalid order status %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText 从状态名解析
func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Order 订单聚合根
// Status只能由StateMachine修改
type Order struct {
	ID              uint      `json:"id"`
	OrderNo         string    `json:"order_no"` // 业务主键，全局唯一，创建后不可变
	UserID          uint      `json:"user_id"`
	ProductID       string    `json:"product_id"`
	Quantity        int       `json:"quantity"`       // 预留的库存数量
	TotalAmount     int64     `json:"total_amount"`   // 订单总金额（分）
	PaymentAmount   int64     `json:"payment_amount"` // 应付金额（分）
	PaymentType     string    `json:"payment_type"`
	ShippingAddress string    `json:"shipping_address"`
	Status          Status    `json:"status"`
	TrackingNumber  string    `json:"tracking_number,omitempty"`
	CancelReason    string    `json:"cancel_reason,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Payload 下单时由调用方提供的业务字段
type Payload struct {
	TotalAmount     int64
	PaymentAmount   int64
	PaymentType     string
	ShippingAddress string
}

// NewOrder 创建待支付订单
func NewOrder(orderNo string, userID uint, productID string, quantity int, payload Payload) *Order {
	now := time.Now()
	return &Order{
		OrderNo:         orderNo,
		UserID:          userID,
		ProductID:       productID,
		Quantity:        quantity,
		TotalAmount:     payload.TotalAmount,
		PaymentAmount:   payload.PaymentAmount,
		PaymentType:     payload.PaymentType,
		ShippingAddress: payload.ShippingAddress,
		Status:          StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// Validate 校验新订单
func (o *Order) Validate() error {
	switch {
	case o.OrderNo == "":
		return ErrInvalidOrder
	case o.UserID == 0:
		return ErrInvalidOrder
	case o.ProductID == "":
		return ErrInvalidOrder
	case o.Quantity <= 0:
		return ErrInvalidQuantity
	case o.TotalAmount < 0, o.PaymentAmount < 0:
		return ErrInvalidAmount
	}
	return nil
}

// IsOwnedBy 检查订单归属
func (o *Order) IsOwnedBy(userID uint) bool {
	return o.UserID == userID
}

// Change 状态迁移时随之写入的字段
type Change struct {
	TrackingNumber string // Ship时设置
	CancelReason   string // Cancel时设置
}

// apply 把一次成功的迁移反映到内存对象上
func (o *Order) apply(to Status, change Change, at time.Time) {
	o.Status = to
	if change.TrackingNumber != "" {
		o.TrackingNumber = change.TrackingNumber
	}
	if change.CancelReason != "" {
		o.CancelReason = change.CancelReason
	}
	o.UpdatedAt = at
}
