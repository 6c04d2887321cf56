// Package notify 发布 sweep 和目标进度通知。通知是尽力而为的：
// broker 不可用时熔断器快速失败，只记日志，不影响 sweep 或重算结果。
package notify

import (
	"context"
	"time"

	contractmq "focusflow/contracts/mq"
	"focusflow/pkg/circuitbreaker"
	"focusflow/pkg/logger"

	"go.uber.org/zap"
)

// Publisher 由 mq.Publisher 实现
type Publisher interface {
	PublishWithContext(ctx context.Context, routingKey string, payload any) error
}

type Notifier struct {
	publisher Publisher
	cb        *circuitbreaker.CircuitBreaker // 熔断器
	logger    *zap.Logger
}

func NewNotifier(publisher Publisher, logger *zap.Logger) *Notifier {
	cbConfig := circuitbreaker.Config{
		FailureThreshold:    3,                // 连续失败3次后打开
		SuccessThreshold:    1,                // 半开状态下成功1次后关闭
		Timeout:             30 * time.Second, // 打开状态持续30秒
		HalfOpenMaxRequests: 1,
		OnStateChange: func(from, to circuitbreaker.State) {
			logger.Warn("Notifier circuit breaker state changed",
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}
	return &Notifier{
		publisher: publisher,
		cb:        circuitbreaker.NewCircuitBreaker(cbConfig),
		logger:    logger,
	}
}

func (n *Notifier) SweepCompleted(ctx context.Context, payload contractmq.SweepCompletedPayload) {
	n.publish(ctx, contractmq.RoutingKeySweepCompleted, payload)
}

func (n *Notifier) GoalProgressUpdated(ctx context.Context, payload contractmq.GoalProgressUpdatedPayload) {
	n.publish(ctx, contractmq.RoutingKeyGoalProgressUpdated, payload)
}

func (n *Notifier) publish(ctx context.Context, routingKey string, payload any) {
	err := n.cb.Execute(func() error {
		return n.publisher.PublishWithContext(ctx, routingKey, payload)
	})
	if err != nil {
		logger.WithTrace(ctx, n.logger).Warn("Failed to publish notification",
			zap.String("routing_key", routingKey),
			zap.Error(err),
		)
		return
	}
	n.logger.Debug("Notification published", zap.String("routing_key", routingKey))
}
