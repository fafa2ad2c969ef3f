package inventory

import "time"

// StatusNormal 库存记录的默认管理状态
const StatusNormal = "NORMAL"

// Record 单个商品的库存账本
// 不变式：TotalStock = AvailableStock + ReservedStock + SoldStock，且各项非负
// Version 从1开始，每次成功修改加1
type Record struct {
	ID             uint      `json:"id"`
	ProductID      string    `json:"product_id"`
	ProductName    string    `json:"product_name"`
	TotalStock     int       `json:"total_stock"`
	AvailableStock int       `json:"available_stock"` // 可售
	ReservedStock  int       `json:"reserved_stock"`  // 已下单待支付
	SoldStock      int       `json:"sold_stock"`      // 已支付
	Version        int64     `json:"version"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewRecord 初始化库存：全部可售，version=1
func NewRecord(productID, productName string, totalStock int) *Record {
	now := time.Now()
	return &Record{
		ProductID:      productID,
		ProductName:    productName,
		TotalStock:     totalStock,
		AvailableStock: totalStock,
		Version:        1,
		Status:         StatusNormal,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Validate 校验库存不变式
func (r *Record) Validate() error {
	if r.ProductID == "" {
		return ErrInvalidProductID
	}
	if r.TotalStock < 0 || r.AvailableStock < 0 || r.ReservedStock < 0 || r.SoldStock < 0 {
		return ErrNegativeStock
	}
	if r.TotalStock != r.AvailableStock+r.ReservedStock+r.SoldStock {
		return ErrInconsistentStock
	}
	return nil
}

// Delta 一次修改对三个计数器的增量，总和恒为0
type Delta struct {
	Available int
	Reserved  int
	Sold      int
}

// Applied 返回应用增量后的副本（版本号加1）
func (r *Record) Applied(d Delta, at time.Time) *Record {
	next := *r
	next.AvailableStock += d.Available
	next.ReservedStock += d.Reserved
	next.SoldStock += d.Sold
	next.Version++
	next.UpdatedAt = at
	return &next
}
