//go:build wireinject
// +build wireinject

// 运行 `wire gen ./cmd/api` 生成 wire_gen.go

package main

import (
	"github.com/google/wire"
	"go.uber.org/zap"

	appinventory "github.com/xiebiao/flashorder/internal/application/inventory"
	apporder "github.com/xiebiao/flashorder/internal/application/order"
	"github.com/xiebiao/flashorder/internal/domain/idempotency"
	"github.com/xiebiao/flashorder/internal/domain/inventory"
	"github.com/xiebiao/flashorder/internal/domain/order"
	"github.com/xiebiao/flashorder/internal/infrastructure/config"
	"github.com/xiebiao/flashorder/internal/infrastructure/messaging"
	"github.com/xiebiao/flashorder/internal/interface/http/handler"
	"github.com/xiebiao/flashorder/internal/interface/http/middleware"
	"github.com/xiebiao/flashorder/internal/interface/http/router"
)

// infrastructureSet 存储、锁、消息
var infrastructureSet = wire.NewSet(
	provideCache,
	provideKVStore,
	provideLocker,
	provideRepositories,
	provideOrderRepository,
	provideInventoryRepository,
	messaging.NewPublisher,
	provideEventPublisher,
)

// domainSet 幂等守卫、库存账本、订单状态机
var domainSet = wire.NewSet(
	provideIdempotencyConfig,
	provideLedgerConfig,
	provideStateMachineConfig,
	idempotency.NewGuard,
	inventory.NewLedger,
	order.NewStateMachine,
	order.NewNoGenerator,
)

var applicationSet = wire.NewSet(
	provideCreateOrderConfig,
	apporder.NewIssueTokenUseCase,
	apporder.NewCreateOrderUseCase,
	apporder.NewTransitionUseCase,
	apporder.NewPaymentCallbackUseCase,
	apporder.NewQueryUseCase,
	appinventory.NewUseCase,
)

var interfaceSet = wire.NewSet(
	handler.NewOrderHandler,
	handler.NewInventoryHandler,
	middleware.NewRateLimiter,
	router.New,
)

// InitializeApp 组装整个应用，cleanup按创建的相反顺序释放资源
func InitializeApp(cfg *config.Config, logger *zap.Logger) (*App, func(), error) {
	wire.Build(
		infrastructureSet,
		domainSet,
		applicationSet,
		interfaceSet,
		newApp,
	)
	return nil, nil, nil
}
