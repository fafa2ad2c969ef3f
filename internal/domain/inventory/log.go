package inventory

import "time"

// ChangeType 库存变更类型
type ChangeType string

const (
	ChangeTypeInit    ChangeType = "INIT"    // 初始化
	ChangeTypeReserve ChangeType = "RESERVE" // 可售 → 预留
	ChangeTypeConfirm ChangeType = "CONFIRM" // 预留 → 已售
	ChangeTypeRelease ChangeType = "RELEASE" // 预留 → 可售
	ChangeTypeRefund  ChangeType = "REFUND"  // 已售 → 可售
)

// Log 库存流水，与条件更新在同一事务中写入，只追加
type Log struct {
	ID              uint       `json:"id"`
	ProductID       string     `json:"product_id"`
	ChangeType      ChangeType `json:"change_type"`
	Quantity        int        `json:"quantity"`
	BeforeAvailable int        `json:"before_available"`
	AfterAvailable  int        `json:"after_available"`
	Version         int64      `json:"version"` // 变更后的版本号
	Remark          string     `json:"remark,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// NewLog 根据修改前后的记录生成流水
func NewLog(changeType ChangeType, quantity int, before, after *Record, remark string) *Log {
	beforeAvailable := 0
	if before != nil {
		beforeAvailable = before.AvailableStock
	}
	return &Log{
		ProductID:       after.ProductID,
		ChangeType:      changeType,
		Quantity:        quantity,
		BeforeAvailable: beforeAvailable,
		AfterAvailable:  after.AvailableStock,
		Version:         after.Version,
		Remark:          remark,
		CreatedAt:       after.UpdatedAt,
	}
}
