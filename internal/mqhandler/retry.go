package mqhandler

import (
	"context"

	"focusflow/pkg/mq"
	"focusflow/pkg/util"

	"go.uber.org/zap"
)

const maxRetries = 5

// RetryTracker util.RetryCounter 满足；为 nil 时不限制重试次数
type RetryTracker interface {
	IncrementAndGet(ctx context.Context, key string) (int64, error)
	Reset(ctx context.Context, key string) error
}

type retryPolicy struct {
	counter RetryTracker
	logger  *zap.Logger
}

// classify 可重试且未超过次数 → 原样返回（nack 重新入队）；否则 → mq.Permanent（进 DLQ）
func (p retryPolicy) classify(ctx context.Context, op, retryKey string, err error) error {
	isRetryable, errType := util.IsRetryableError(err)

	var retryCount int64
	if isRetryable && p.counter != nil {
		n, cerr := p.counter.IncrementAndGet(ctx, retryKey)
		if cerr != nil {
			p.logger.Warn("Failed to increment retry counter", zap.String("key", retryKey), zap.Error(cerr))
		}
		retryCount = n
	}

	p.logger.Error("Handler error",
		zap.String("op", op),
		zap.String("error_type", errType),
		zap.Bool("retryable", isRetryable),
		zap.Int64("retry", retryCount),
		zap.Error(err),
	)

	if util.ShouldRetry(retryCount, maxRetries, isRetryable) {
		return err // nack → 重试
	}

	if isRetryable {
		p.logger.Warn("Max retries exceeded → DLQ", zap.String("key", retryKey))
	}
	p.reset(ctx, retryKey)
	return mq.Permanent(err)
}

func (p retryPolicy) reset(ctx context.Context, retryKey string) {
	if p.counter == nil {
		return
	}
	if err := p.counter.Reset(ctx, retryKey); err != nil {
		p.logger.Debug("Failed to reset retry counter", zap.String("key", retryKey), zap.Error(err))
	}
}
