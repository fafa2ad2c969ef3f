// Package saga 顺序执行一组本地步骤，失败时逆序补偿已完成的步骤
//
// 下单流程：占用幂等键 → 预留库存 → 写入订单 → 标记完成，
// 任一步失败都按逆序撤销，保证不会留下半完成的预留或被消费的Token。
package saga

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/flashorder/pkg/metrics"
)

// Step 表示Saga中的一个步骤
// Action和Compensate都可以为nil；补偿必须幂等
type Step struct {
	Name       string
	Action     func(ctx context.Context) error
	Compensate func(ctx context.Context) error
}

// Saga 表示一次Saga执行
type Saga struct {
	name     string
	steps    []Step
	executed []Step
	timeout  time.Duration
	logger   *zap.Logger
}

// Option Saga可选项
type Option func(*Saga)

// WithLogger 指定补偿失败时使用的logger
func WithLogger(l *zap.Logger) Option {
	return func(s *Saga) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithName 指定Saga名称（用于日志和指标）
func WithName(name string) Option {
	return func(s *Saga) { s.name = name }
}

// NewSaga 创建一个新的Saga，timeout<=0表示不设整体超时
//
//	s := saga.NewSaga(5*time.Second, saga.WithName("create_order"))
//	s.AddStep("reserve", reserve, release)
//	err := s.Execute(ctx)
func NewSaga(timeout time.Duration, opts ...Option) *Saga {
	s := &Saga{
		name:    "saga",
		steps:   make([]Step, 0, 4),
		timeout: timeout,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddStep 追加一个步骤，按添加顺序执行，按逆序补偿
func (s *Saga) AddStep(name string, action, compensate func(ctx context.Context) error) {
	s.steps = append(s.steps, Step{
		Name:       name,
		Action:     action,
		Compensate: compensate,
	})
}

// Execute 执行Saga
// 返回的错误包装了失败步骤的原始错误，errors.Is可以穿透；
// 补偿失败的错误也会join进返回值
func (s *Saga) Execute(ctx context.Context) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	for i, step := range s.steps {
		if err := ctx.Err(); err != nil {
			failErr := fmt.Errorf("saga[%s]超时: %w", s.name, err)
			return s.rollback(ctx, failErr)
		}

		if step.Action != nil {
			if err := step.Action(ctx); err != nil {
				failErr := fmt.Errorf("步骤[%d:%s]执行失败: %w", i, step.Name, err)
				return s.rollback(ctx, failErr)
			}
		}

		s.executed = append(s.executed, step)
	}

	metrics.IncSagaOutcome(s.name, "committed")
	return nil
}

// rollback 逆序补偿，单个补偿失败不影响后续补偿
// 补偿使用脱离原ctx取消信号的上下文，避免原请求超时导致补偿也被取消
func (s *Saga) rollback(ctx context.Context, cause error) error {
	compCtx := context.WithoutCancel(ctx)
	if s.timeout > 0 {
		var cancel context.CancelFunc
		compCtx, cancel = context.WithTimeout(compCtx, s.timeout)
		defer cancel()
	}

	errs := []error{cause}
	for i := len(s.executed) - 1; i >= 0; i-- {
		step := s.executed[i]
		if step.Compensate == nil {
			continue
		}
		if err := step.Compensate(compCtx); err != nil {
			s.logger.Error("saga compensation failed",
				zap.String("saga", s.name),
				zap.String("step", step.Name),
				zap.Error(err),
			)
			errs = append(errs, fmt.Errorf("补偿[%s]失败: %w", step.Name, err))
		}
	}
	s.executed = nil

	if len(errs) > 1 {
		metrics.IncSagaOutcome(s.name, "compensation_failed")
		return errors.Join(errs...)
	}
	metrics.IncSagaOutcome(s.name, "compensated")
	return cause
}
