package dto

import "github.com/xiebiao/flashorder/internal/domain/inventory"

// InitializeInventoryRequest 初始化库存
type InitializeInventoryRequest struct {
	ProductID   string `json:"product_id" binding:"required,max=64" example:"SKU-1001"`
	ProductName string `json:"product_name" binding:"max=200" example:"Go语言实战"`
	TotalStock  int    `json:"total_stock" binding:"min=0,max=100000000" example:"100"`
}

// InventoryResponse 库存快照
// total_stock = available_stock + reserved_stock + sold_stock
type InventoryResponse struct {
	ProductID      string `json:"product_id" example:"SKU-1001"`
	ProductName    string `json:"product_name" example:"Go语言实战"`
	TotalStock     int    `json:"total_stock" example:"100"`
	AvailableStock int    `json:"available_stock" example:"90"`
	ReservedStock  int    `json:"reserved_stock" example:"6"`
	SoldStock      int    `json:"sold_stock" example:"4"`
	Version        int64  `json:"version" example:"11"`
	Status         string `json:"status" example:"NORMAL"`
	UpdatedAt      string `json:"updated_at" example:"2024-11-06 10:30:00"`
}

// InventoryLogResponse 库存流水
type InventoryLogResponse struct {
	ID              uint   `json:"id" example:"1"`
	ChangeType      string `json:"change_type" example:"RESERVE"`
	Quantity        int    `json:"quantity" example:"2"`
	BeforeAvailable int    `json:"before_available" example:"92"`
	AfterAvailable  int    `json:"after_available" example:"90"`
	Version         int64  `json:"version" example:"11"`
	Remark          string `json:"remark,omitempty" example:"ORD20241106103000000001"`
	CreatedAt       string `json:"created_at" example:"2024-11-06 10:30:00"`
}

// ListInventoryLogsRequest 流水分页
type ListInventoryLogsRequest struct {
	Page     int `form:"page" binding:"omitempty,min=1" example:"1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100" example:"20"`
}

func NewInventoryResponse(rec *inventory.Record) InventoryResponse {
	return InventoryResponse{
		ProductID:      rec.ProductID,
		ProductName:    rec.ProductName,
		TotalStock:     rec.TotalStock,
		AvailableStock: rec.AvailableStock,
		ReservedStock:  rec.ReservedStock,
		SoldStock:      rec.SoldStock,
		Version:        rec.Version,
		Status:         rec.Status,
		UpdatedAt:      formatTime(rec.UpdatedAt),
	}
}

func NewInventoryLogResponse(l *inventory.Log) InventoryLogResponse {
	return InventoryLogResponse{
		ID:              l.ID,
		ChangeType:      string(l.ChangeType),
		Quantity:        l.Quantity,
		BeforeAvailable: l.BeforeAvailable,
		AfterAvailable:  l.AfterAvailable,
		Version:         l.Version,
		Remark:          l.Remark,
		CreatedAt:       formatTime(l.CreatedAt),
	}
}
