package mysql

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/xiebiao/flashorder/internal/infrastructure/config"
)

// NewDB 创建数据库连接并配置连接池
// debug模式打印SQL；database.auto_migrate=true时自动建表
func NewDB(cfg *config.Config, logger *zap.Logger) (*gorm.DB, error) {
	logLevel := gormlogger.Silent
	if cfg.Server.Mode == "debug" {
		logLevel = gormlogger.Info
	}

	db, err := gorm.Open(mysql.Open(cfg.Database.DSN()), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(logLevel),
		TranslateError: true, // 唯一索引冲突翻译为gorm.ErrDuplicatedKey
		NowFunc:        time.Now,
	})
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取SQL DB失败: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("数据库连接测试失败: %w", err)
	}
	logger.Info("mysql connected",
		zap.String("host", cfg.Database.Host),
		zap.String("db", cfg.Database.DBName),
	)

	if cfg.Database.AutoMigrate {
		if err := AutoMigrate(db); err != nil {
			return nil, fmt.Errorf("数据库迁移失败: %w", err)
		}
	}
	return db, nil
}

// AutoMigrate 只建表和加字段，生产环境使用版本化迁移脚本
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&OrderModel{},
		&InventoryModel{},
		&InventoryLogModel{},
	)
}

// OrderModel 订单表
// order_no 唯一索引；(user_id, created_at) 服务于用户订单列表
type OrderModel struct {
	ID              uint      `gorm:"primaryKey"`
	OrderNo         string    `gorm:"uniqueIndex;size:32;not null;comment:订单号"`
	UserID          uint      `gorm:"index:idx_user_created;not null;comment:买家用户ID"`
	ProductID       string    `gorm:"size:64;not null;comment:商品ID"`
	Quantity        int       `gorm:"not null;comment:购买数量"`
	TotalAmount     int64     `gorm:"not null;comment:订单总金额(分)"`
	PaymentAmount   int64     `gorm:"not null;comment:应付金额(分)"`
	PaymentType     string    `gorm:"size:32;comment:支付方式"`
	ShippingAddress string    `gorm:"size:255;comment:收货地址"`
	Status          int       `gorm:"index;type:tinyint;default:1;comment:订单状态(1待支付2已支付3已发货4已完成5已取消)"`
	TrackingNumber  string    `gorm:"size:64;comment:物流单号"`
	CancelReason    string    `gorm:"size:255;comment:取消原因"`
	CreatedAt       time.Time `gorm:"index:idx_user_created;comment:创建时间"`
	UpdatedAt       time.Time `gorm:"comment:更新时间"`
}

func (OrderModel) TableName() string {
	return "orders"
}

// InventoryModel 库存表，version为乐观锁版本号
type InventoryModel struct {
	ID             uint      `gorm:"primaryKey"`
	ProductID      string    `gorm:"uniqueIndex;size:64;not null;comment:商品ID"`
	ProductName    string    `gorm:"size:200;comment:商品名称"`
	TotalStock     int       `gorm:"not null;comment:总库存"`
	AvailableStock int       `gorm:"not null;comment:可售库存"`
	ReservedStock  int       `gorm:"not null;default:0;comment:预留库存"`
	SoldStock      int       `gorm:"not null;default:0;comment:已售库存"`
	Version        int64     `gorm:"not null;default:1;comment:版本号"`
	Status         string    `gorm:"size:16;not null;default:NORMAL;comment:状态"`
	CreatedAt      time.Time `gorm:"comment:创建时间"`
	UpdatedAt      time.Time `gorm:"comment:更新时间"`
}

func (InventoryModel) TableName() string {
	return "inventory"
}

// InventoryLogModel 库存流水，只追加
type InventoryLogModel struct {
	ID              uint      `gorm:"primaryKey"`
	ProductID       string    `gorm:"index:idx_product_created;size:64;not null;comment:商品ID"`
	ChangeType      string    `gorm:"size:16;not null;comment:变更类型"`
	Quantity        int       `gorm:"not null;comment:变更数量"`
	BeforeAvailable int       `gorm:"not null;comment:变更前可售"`
	AfterAvailable  int       `gorm:"not null;comment:变更后可售"`
	Version         int64     `gorm:"not null;comment:变更后版本号"`
	Remark          string    `gorm:"size:255;comment:备注(订单号)"`
	CreatedAt       time.Time `gorm:"index:idx_product_created;comment:创建时间"`
}

func (InventoryLogModel) TableName() string {
	return "inventory_logs"
}
