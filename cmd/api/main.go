package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	_ "github.com/xiebiao/flashorder/docs"
	"github.com/xiebiao/flashorder/internal/infrastructure/config"
	"github.com/xiebiao/flashorder/pkg/logger"
	"github.com/xiebiao/flashorder/pkg/tracing"
)

// @title           FlashOrder API
// @version         1.0
// @description     高并发下单：幂等Token、库存预留、订单状态机
// @host            localhost:8080
// @BasePath        /
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	zl, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	shutdownTracer, err := tracing.InitTracer(cfg.Tracing)
	if err != nil {
		zl.Fatal("初始化链路追踪失败", zap.Error(err))
	}

	app, cleanup, err := InitializeApp(cfg, zl)
	if err != nil {
		zl.Fatal("初始化应用失败", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	runSweepers(ctx, app, cfg.Cache.SweepEvery, zl)

	srv := &http.Server{
		Addr:         addr(cfg),
		Handler:      app.Engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		zl.Info("服务启动",
			zap.String("addr", srv.Addr),
			zap.String("mode", cfg.Server.Mode),
			zap.String("database", cfg.Database.Driver),
			zap.String("cache", cfg.Cache.Driver),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Error("HTTP服务异常退出", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	zl.Info("正在关闭服务")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Error("HTTP服务关闭超时", zap.Error(err))
	}
	cleanup()
	if err := shutdownTracer(shutdownCtx); err != nil {
		zl.Warn("关闭链路追踪失败", zap.Error(err))
	}
	zl.Info("服务已关闭")
}
