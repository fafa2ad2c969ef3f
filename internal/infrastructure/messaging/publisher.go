// Package messaging 把订单领域事件发布到RabbitMQ
package messaging

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/flashorder/internal/domain/order"
	"github.com/xiebiao/flashorder/internal/infrastructure/config"
	"github.com/xiebiao/flashorder/pkg/metrics"
	"github.com/xiebiao/flashorder/pkg/mq"
)

const publishTimeout = 3 * time.Second

// sender 由*mq.Publisher实现
type sender interface {
	Publish(ctx context.Context, routingKey string, message interface{}) error
}

// Publisher 领域事件发布器
type Publisher struct {
	sender sender
	logger *zap.Logger
}

var _ order.EventPublisher = (*Publisher)(nil)

// NewPublisher 按配置创建发布器；mq.enabled=false时事件只写日志
// 返回的cleanup负责关闭AMQP连接
func NewPublisher(cfg *config.Config, logger *zap.Logger) (*Publisher, func(), error) {
	logger = logger.Named("event_publisher")
	if !cfg.MQ.Enabled {
		logger.Info("mq disabled, domain events are logged only")
		return &Publisher{sender: logSender{logger: logger}, logger: logger}, func() {}, nil
	}

	p, err := mq.NewPublisher(cfg.MQ.URL, cfg.MQ.Exchange, cfg.MQ.ExchangeType, logger)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := p.Close(); err != nil {
			logger.Warn("close mq publisher failed", zap.Error(err))
		}
	}
	return &Publisher{sender: p, logger: logger}, cleanup, nil
}

// Publish 带超时发布一条事件
func (p *Publisher) Publish(ctx context.Context, routingKey string, event any) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := p.sender.Publish(ctx, routingKey, event); err != nil {
		metrics.IncMessagePublished(routingKey, "error")
		p.logger.Warn("publish event failed", zap.String("routing_key", routingKey), zap.Error(err))
		return err
	}
	metrics.IncMessagePublished(routingKey, "ok")
	return nil
}

type logSender struct {
	logger *zap.Logger
}

func (s logSender) Publish(_ context.Context, routingKey string, message interface{}) error {
	s.logger.Debug("domain event", zap.String("routing_key", routingKey), zap.Any("event", message))
	return nil
}
