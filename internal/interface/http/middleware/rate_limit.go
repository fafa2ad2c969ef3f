package middleware

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/xiebiao/flashorder/internal/infrastructure/config"
	apperrors "github.com/xiebiao/flashorder/pkg/errors"
	"github.com/xiebiao/flashorder/pkg/metrics"
	"github.com/xiebiao/flashorder/pkg/response"
)

// counter 一个key的固定窗口计数
type counter struct {
	windowStart atomic.Int64 // UnixNano
	hits        atomic.Int64
}

// RateLimiter 进程内按用户的固定窗口限流
// 计数器只增不锁；过期的key由Sweep显式清理
type RateLimiter struct {
	enabled  bool
	limit    int64
	window   time.Duration
	every    time.Duration
	counters sync.Map // key -> *counter
	now      func() time.Time
	logger   *zap.Logger
}

// NewRateLimiter 按rate_limit配置创建，进程内只应有一个实例
func NewRateLimiter(cfg *config.Config, logger *zap.Logger) *RateLimiter {
	rl := cfg.RateLimit
	every := rl.SweepEvery
	if every <= 0 {
		every = time.Minute
	}
	return &RateLimiter{
		enabled: rl.Enabled,
		limit:   rl.Requests,
		window:  rl.Window,
		every:   every,
		now:     time.Now,
		logger:  logger.Named("rate_limiter"),
	}
}

// Allow 记一次请求，超过窗口配额返回false
func (l *RateLimiter) Allow(key string) bool {
	if !l.enabled {
		return true
	}
	now := l.now().UnixNano()
	v, loaded := l.counters.Load(key)
	if !loaded {
		c := &counter{}
		c.windowStart.Store(now)
		v, _ = l.counters.LoadOrStore(key, c)
	}
	c := v.(*counter)

	start := c.windowStart.Load()
	if now-start >= int64(l.window) && c.windowStart.CompareAndSwap(start, now) {
		c.hits.Store(0)
	}
	return c.hits.Add(1) <= l.limit
}

// Sweep 删除窗口已结束的key，返回删除数量
func (l *RateLimiter) Sweep() int {
	now := l.now().UnixNano()
	removed := 0
	l.counters.Range(func(key, v any) bool {
		if now-v.(*counter).windowStart.Load() >= int64(l.window) {
			l.counters.Delete(key)
			removed++
		}
		return true
	})
	return removed
}

// Run 周期清理，直到ctx结束
func (l *RateLimiter) Run(ctx context.Context) {
	if !l.enabled {
		return
	}
	ticker := time.NewTicker(l.every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := l.Sweep(); n > 0 {
				l.logger.Debug("rate limiter swept", zap.Int("keys", n))
			}
		}
	}
}

// Middleware 有用户身份按用户限流，否则按客户端IP
func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()
		if uid := GetUserID(c); uid != 0 {
			key = "user:" + strconv.FormatUint(uint64(uid), 10)
		}
		if !l.Allow(key) {
			metrics.RateLimitedTotal.Inc()
			response.Error(c, apperrors.ErrTooManyRequests)
			c.Abort()
			return
		}
		c.Next()
	}
}
