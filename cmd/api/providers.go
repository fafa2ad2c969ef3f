package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apporder "github.com/xiebiao/flashorder/internal/application/order"
	"github.com/xiebiao/flashorder/internal/domain/idempotency"
	"github.com/xiebiao/flashorder/internal/domain/inventory"
	"github.com/xiebiao/flashorder/internal/domain/kv"
	"github.com/xiebiao/flashorder/internal/domain/lock"
	"github.com/xiebiao/flashorder/internal/domain/order"
	"github.com/xiebiao/flashorder/internal/infrastructure/config"
	"github.com/xiebiao/flashorder/internal/infrastructure/messaging"
	"github.com/xiebiao/flashorder/internal/infrastructure/persistence/memory"
	"github.com/xiebiao/flashorder/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/flashorder/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/flashorder/internal/interface/http/middleware"
	"github.com/xiebiao/flashorder/pkg/circuitbreaker"
)

// App 进程级对象
type App struct {
	Engine  *gin.Engine
	Limiter *middleware.RateLimiter
	Guard   *idempotency.Guard
}

func newApp(engine *gin.Engine, limiter *middleware.RateLimiter, guard *idempotency.Guard) *App {
	return &App{Engine: engine, Limiter: limiter, Guard: guard}
}

// cacheBackend 共享KV与分布式锁，按cache.driver选择
type cacheBackend struct {
	store  kv.Store
	locker lock.Locker
}

func provideCache(cfg *config.Config, logger *zap.Logger) (*cacheBackend, func(), error) {
	if cfg.Cache.Driver == config.DriverMemory {
		logger.Warn("使用进程内缓存，仅适用于单实例")
		return &cacheBackend{store: memory.NewKVStore(), locker: memory.NewLocker()}, func() {}, nil
	}

	client, err := redis.NewClient(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	breaker := redis.NewBreaker("redis", circuitbreaker.Config{
		MaxRequests: cfg.CircuitBreaker.MaxRequests,
		Interval:    cfg.CircuitBreaker.Interval,
		Timeout:     cfg.CircuitBreaker.Timeout,
		ReadyToTrip: func(counts circuitbreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.CircuitBreaker.ConsecutiveFailures
		},
	})
	breaker.SetStateChangeCallback(func(name string, from, to circuitbreaker.State) {
		logger.Warn("熔断器状态变化",
			zap.String("name", name),
			zap.String("from", from.String()),
			zap.String("to", to.String()),
		)
	})

	cleanup := func() {
		if err := client.Close(); err != nil {
			logger.Error("关闭Redis失败", zap.Error(err))
		}
	}
	return &cacheBackend{
		store:  redis.NewKVStore(client, breaker),
		locker: redis.NewLocker(client, cfg.Lock.PollInterval),
	}, cleanup, nil
}

func provideKVStore(b *cacheBackend) kv.Store   { return b.store }
func provideLocker(b *cacheBackend) lock.Locker { return b.locker }

// repositories 订单与库存仓储，按database.driver选择
type repositories struct {
	orders    order.Repository
	inventory inventory.Repository
}

func provideRepositories(cfg *config.Config, logger *zap.Logger) (*repositories, func(), error) {
	if cfg.Database.Driver == config.DriverMemory {
		logger.Warn("使用进程内仓储，重启后数据丢失")
		return &repositories{
			orders:    memory.NewOrderRepository(),
			inventory: memory.NewInventoryRepository(),
		}, func() {}, nil
	}

	db, err := mysql.NewDB(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	return &repositories{
		orders:    mysql.NewOrderRepository(db),
		inventory: mysql.NewInventoryRepository(db, mysql.NewTxManager(db)),
	}, cleanup, nil
}

func provideOrderRepository(r *repositories) order.Repository         { return r.orders }
func provideInventoryRepository(r *repositories) inventory.Repository { return r.inventory }

func provideIdempotencyConfig(cfg *config.Config) idempotency.Config {
	return idempotency.Config{
		TokenTTL:      cfg.Idempotency.TokenTTL,
		RecordTTL:     cfg.Idempotency.RecordTTL,
		ProcessingTTL: cfg.Idempotency.ProcessingTTL,
	}
}

func provideLedgerConfig(cfg *config.Config) inventory.LedgerConfig {
	return inventory.LedgerConfig{
		LockWait:  cfg.Lock.InventoryWait,
		LockLease: cfg.Lock.InventoryLease,
		CacheTTL:  cfg.Cache.InventoryTTL,
	}
}

func provideStateMachineConfig(cfg *config.Config) order.StateMachineConfig {
	return order.StateMachineConfig{
		CacheTTL:      cfg.Cache.OrderTTL,
		CallbackLease: cfg.Lock.CallbackLease,
	}
}

func provideCreateOrderConfig(cfg *config.Config) apporder.CreateOrderConfig {
	return apporder.CreateOrderConfig{Timeout: cfg.Order.CreateTimeout}
}

// provideEventPublisher 领域层只依赖order.EventPublisher
func provideEventPublisher(p *messaging.Publisher) order.EventPublisher { return p }

// runSweepers 周期清理进程内过期数据，Redis后端时Guard.CleanExpired什么也不做
func runSweepers(ctx context.Context, app *App, every time.Duration, logger *zap.Logger) {
	go app.Limiter.Run(ctx)

	if every <= 0 {
		every = time.Minute
	}
	go func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := app.Guard.CleanExpired(ctx)
				if err != nil {
					logger.Warn("清理过期幂等数据失败", zap.Error(err))
					continue
				}
				if n > 0 {
					logger.Debug("清理过期幂等数据", zap.Int("keys", n))
				}
			}
		}
	}()
}

func addr(cfg *config.Config) string {
	return fmt.Sprintf(":%d", cfg.Server.Port)
}
