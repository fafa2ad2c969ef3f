package mysql

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/xiebiao/flashorder/internal/domain/order"
)

type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓储
func NewOrderRepository(db *gorm.DB) order.Repository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, o *order.Order) error {
	model := toOrderModel(o)
	if err := dbFrom(ctx, r.db).Create(model).Error; err != nil {
		if isDuplicateError(err) {
			return order.ErrOrderExists
		}
		return storeError(err)
	}
	o.ID = model.ID
	return nil
}

func (r *orderRepository) FindByOrderNo(ctx context.Context, orderNo string) (*order.Order, error) {
	var model OrderModel
	err := dbFrom(ctx, r.db).Where("order_no = ?", orderNo).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, order.ErrOrderNotFound
		}
		return nil, storeError(err)
	}
	return toOrderEntity(&model), nil
}

// UpdateStatus 条件更新：WHERE order_no=? AND status=from
// 并发的两次迁移只有一个能命中这一行
func (r *orderRepository) UpdateStatus(ctx context.Context, orderNo string, from, to order.Status, change order.Change) (int64, error) {
	updates := map[string]any{
		"status":     int(to),
		"updated_at": time.Now(),
	}
	if change.TrackingNumber != "" {
		updates["tracking_number"] = change.TrackingNumber
	}
	if change.CancelReason != "" {
		updates["cancel_reason"] = change.CancelReason
	}

	result := dbFrom(ctx, r.db).Model(&OrderModel{}).
		Where("order_no = ? AND status = ?", orderNo, int(from)).
		Updates(updates)
	if result.Error != nil {
		return 0, storeError(result.Error)
	}
	return result.RowsAffected, nil
}

func (r *orderRepository) ListByUserID(ctx context.Context, userID uint, page, pageSize int) ([]*order.Order, int64, error) {
	var (
		models []OrderModel
		total  int64
	)
	query := dbFrom(ctx, r.db).Model(&OrderModel{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, storeError(err)
	}

	offset, limit := pageOffset(page, pageSize)
	err := query.Order("created_at DESC").Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&models).Error
	if err != nil {
		return nil, 0, storeError(err)
	}

	orders := make([]*order.Order, len(models))
	for i := range models {
		orders[i] = toOrderEntity(&models[i])
	}
	return orders, total, nil
}

func toOrderModel(o *order.Order) *OrderModel {
	return &OrderModel{
		ID:              o.ID,
		OrderNo:         o.OrderNo,
		UserID:          o.UserID,
		ProductID:       o.ProductID,
		Quantity:        o.Quantity,
		TotalAmount:     o.TotalAmount,
		PaymentAmount:   o.PaymentAmount,
		PaymentType:     o.PaymentType,
		ShippingAddress: o.ShippingAddress,
		Status:          int(o.Status),
		TrackingNumber:  o.TrackingNumber,
		CancelReason:    o.CancelReason,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

func toOrderEntity(m *OrderModel) *order.Order {
	return &order.Order{
		ID:              m.ID,
		OrderNo:         m.OrderNo,
		UserID:          m.UserID,
		ProductID:       m.ProductID,
		Quantity:        m.Quantity,
		TotalAmount:     m.TotalAmount,
		PaymentAmount:   m.PaymentAmount,
		PaymentType:     m.PaymentType,
		ShippingAddress: m.ShippingAddress,
		Status:          order.Status(m.Status),
		TrackingNumber:  m.TrackingNumber,
		CancelReason:    m.CancelReason,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}
