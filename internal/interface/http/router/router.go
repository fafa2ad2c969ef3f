// Package router 组装HTTP路由与全局中间件
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/xiebiao/flashorder/internal/infrastructure/config"
	"github.com/xiebiao/flashorder/internal/interface/http/handler"
	"github.com/xiebiao/flashorder/internal/interface/http/middleware"
	"github.com/xiebiao/flashorder/pkg/response"
)

// New 创建Gin引擎
// 中间件顺序：Recovery → otelgin → Logger → CORS → Identity
func New(
	cfg *config.Config,
	logger *zap.Logger,
	orders *handler.OrderHandler,
	inventory *handler.InventoryHandler,
	limiter *middleware.RateLimiter,
) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}

	r := gin.New()
	r.Use(
		middleware.Recovery(logger),
		otelgin.Middleware(cfg.Tracing.ServiceName),
		middleware.Logger(logger),
		middleware.CORS(cfg.CORS),
		middleware.Identity(),
	)

	r.GET("/ping", func(c *gin.Context) {
		response.Success(c, gin.H{"message": "pong", "status": "healthy"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	// 生产环境不暴露文档
	if gin.Mode() != gin.ReleaseMode {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	v1 := r.Group("/api/v1")
	{
		v1.POST("/idempotency/tokens", middleware.RequireUser(), orders.IssueToken)

		o := v1.Group("/orders")
		o.Use(middleware.RequireUser())
		{
			o.POST("", limiter.Middleware(), orders.CreateOrder)
			o.GET("", orders.ListOrders)
			o.GET("/:orderNo", orders.GetOrder)
			o.GET("/:orderNo/next-statuses", orders.NextStatuses)
			o.POST("/:orderNo/pay", orders.Pay)
			o.POST("/:orderNo/ship", orders.Ship)
			o.POST("/:orderNo/complete", orders.Complete)
			o.POST("/:orderNo/cancel", orders.Cancel)
		}

		// 支付渠道回调不携带用户身份
		v1.POST("/payments/callback", orders.PaymentCallback)

		inv := v1.Group("/inventory")
		{
			inv.POST("", inventory.Initialize)
			inv.GET("/:productId", inventory.Get)
			inv.GET("/:productId/logs", inventory.ListLogs)
		}
	}

	return r
}
