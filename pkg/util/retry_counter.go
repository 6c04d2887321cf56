package util

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// retryKeyPrefix 与 check state 共用一个 Redis 库，加前缀避免冲突
const retryKeyPrefix = "focusflow:retry"

// RetryCounter 按 handler + 消息主体统计消费失败次数，计数在 ttl 后过期
type RetryCounter struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRetryCounter(rdb redis.Cmdable, ttl time.Duration) *RetryCounter {
	return &RetryCounter{rdb: rdb, ttl: ttl}
}

// IncrementAndGet 自增并刷新过期时间，INCR 和 EXPIRE 在同一个事务里执行
func (r *RetryCounter) IncrementAndGet(ctx context.Context, key string) (int64, error) {
	pipe := r.rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("increment retry count %s: %w", key, err)
	}
	return incr.Val(), nil
}

// Reset 处理成功或判定为永久失败后清除计数
func (r *RetryCounter) Reset(ctx context.Context, key string) error {
	return r.rdb.Del(ctx, key).Err()
}

// FormatRetryKey 例如 focusflow:retry:task_completed:<project id>
func FormatRetryKey(handler string, subjectID string) string {
	return fmt.Sprintf("%s:%s:%s", retryKeyPrefix, handler, subjectID)
}
