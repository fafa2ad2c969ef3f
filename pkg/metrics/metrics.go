// Package metrics 基于Prometheus的指标定义
//
// 命名规范：
//   - Counter以_total结尾
//   - Histogram以单位结尾（_seconds）
//   - 标签只使用有限取值（status、op、result），不要用user_id、order_no
//
// 所有指标在包加载时通过promauto注册到默认Registry，/metrics端点由promhttp暴露。
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "flashorder"

var (
	// HTTP请求

	// HTTPRequestsTotal 标签：method、path、status
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP请求总数",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP请求耗时",
		Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
	}, []string{"method", "path"})

	HTTPRequestsInProgress = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "http_requests_in_progress",
		Help:      "正在处理的HTTP请求数",
	})

	// RateLimitedTotal 被限流拒绝的请求数
	RateLimitedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_total",
		Help:      "被限流拒绝的请求数",
	})

	// 下单

	// OrdersCreatedTotal 标签：result（created/duplicate/failed）
	OrdersCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_created_total",
		Help:      "下单请求结果",
	}, []string{"result"})

	OrderCreationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "order_creation_duration_seconds",
		Help:      "下单耗时",
		Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
	})

	// OrderTransitionsTotal 标签：from、to、result（ok/illegal/conflict/error）
	OrderTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_transitions_total",
		Help:      "订单状态迁移结果",
	}, []string{"from", "to", "result"})

	// PaymentCallbacksTotal 标签：result（applied/ignored/anomaly/error）
	PaymentCallbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payment_callbacks_total",
		Help:      "支付回调处理结果",
	}, []string{"result"})

	// 库存

	// InventoryOpsTotal 标签：op（init/reserve/confirm/release/refund）、result
	InventoryOpsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "inventory_ops_total",
		Help:      "库存操作结果",
	}, []string{"op", "result"})

	// 分布式锁

	// LockAcquireDuration 标签：scope（inventory/callback）、result（acquired/timeout/busy/error）
	LockAcquireDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "lock_acquire_duration_seconds",
		Help:      "获取分布式锁的等待耗时",
		Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
	}, []string{"scope", "result"})

	// 幂等

	// IdempotencyChecksTotal 标签：result（new/duplicate/processing/invalid_token/error）
	IdempotencyChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "idempotency_checks_total",
		Help:      "幂等检查结果",
	}, []string{"result"})

	// 熔断器

	// CircuitBreakerState 0=CLOSED, 1=OPEN, 2=HALF_OPEN
	CircuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "circuit_breaker_state",
		Help:      "熔断器状态",
	}, []string{"name"})

	// CircuitBreakerRequests 标签：name、result（success/failure/rejected）
	CircuitBreakerRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "circuit_breaker_requests_total",
		Help:      "经过熔断器的请求数",
	}, []string{"name", "result"})

	// Saga

	// SagaExecutionsTotal 标签：saga、result（committed/compensated/compensation_failed）
	SagaExecutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "saga_executions_total",
		Help:      "Saga执行结果",
	}, []string{"saga", "result"})

	// 消息

	// MessagesPublishedTotal 标签：routing_key、result（success/failure）
	MessagesPublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "messages_published_total",
		Help:      "领域事件发布结果",
	}, []string{"routing_key", "result"})
)

// ObserveHTTP 记录一次HTTP请求
func ObserveHTTP(method, path string, status int, elapsed time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

// IncOrderCreated 记录下单结果
func IncOrderCreated(result string) {
	OrdersCreatedTotal.WithLabelValues(result).Inc()
}

// ObserveOrderCreation 记录下单耗时
func ObserveOrderCreation(elapsed time.Duration) {
	OrderCreationDuration.Observe(elapsed.Seconds())
}

// IncTransition 记录状态迁移结果
func IncTransition(from, to, result string) {
	OrderTransitionsTotal.WithLabelValues(from, to, result).Inc()
}

// IncPaymentCallback 记录支付回调结果
func IncPaymentCallback(result string) {
	PaymentCallbacksTotal.WithLabelValues(result).Inc()
}

// IncInventoryOp 记录库存操作结果
func IncInventoryOp(op, result string) {
	InventoryOpsTotal.WithLabelValues(op, result).Inc()
}

// ObserveLockAcquire 记录锁等待耗时
func ObserveLockAcquire(scope, result string, elapsed time.Duration) {
	LockAcquireDuration.WithLabelValues(scope, result).Observe(elapsed.Seconds())
}

// IncIdempotencyCheck 记录幂等检查结果
func IncIdempotencyCheck(result string) {
	IdempotencyChecksTotal.WithLabelValues(result).Inc()
}

// SetCircuitBreakerState 记录熔断器状态
func SetCircuitBreakerState(name string, state int) {
	CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}

// IncCircuitBreakerRequest 记录熔断器请求结果
func IncCircuitBreakerRequest(name, result string) {
	CircuitBreakerRequests.WithLabelValues(name, result).Inc()
}

// IncSagaOutcome 记录Saga执行结果
func IncSagaOutcome(saga, result string) {
	SagaExecutionsTotal.WithLabelValues(saga, result).Inc()
}

// IncMessagePublished 记录事件发布结果
func IncMessagePublished(routingKey, result string) {
	MessagesPublishedTotal.WithLabelValues(routingKey, result).Inc()
}
