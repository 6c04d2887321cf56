package checkstate

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const DefaultRedisKey = "recurrence:last_check"

// RedisStore 将检查时间存到一个 hash：field=entity_id，value=RFC3339Nano
type RedisStore struct {
	rdb    *redis.Client
	key    string
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisStore ttl 为 0 时不过期；一般设为限流窗口的若干倍
func NewRedisStore(rdb *redis.Client, key string, ttl time.Duration, logger *zap.Logger) *RedisStore {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{rdb: rdb, key: key, ttl: ttl, logger: logger}
}

func (s *RedisStore) Load(ctx context.Context) (map[uuid.UUID]time.Time, error) {
	raw, err := s.rdb.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("load check state: %w", err)
	}

	out := make(map[uuid.UUID]time.Time, len(raw))
	for field, value := range raw {
		id, err := uuid.Parse(field)
		if err != nil {
			s.logger.Warn("Ignoring malformed check state field", zap.String("field", field))
			continue
		}
		ts, err := time.Parse(time.RFC3339Nano, value)
		if err != nil {
			s.logger.Warn("Ignoring malformed check state value",
				zap.String("entity_id", field),
				zap.String("value", value),
			)
			continue
		}
		out[id] = ts
	}
	return out, nil
}

func (s *RedisStore) Save(ctx context.Context, checks map[uuid.UUID]time.Time) error {
	if len(checks) == 0 {
		return nil
	}

	values := make(map[string]interface{}, len(checks))
	for id, ts := range checks {
		values[id.String()] = ts.UTC().Format(time.RFC3339Nano)
	}

	pipe := s.rdb.TxPipeline()
	pipe.HSet(ctx, s.key, values)
	if s.ttl > 0 {
		pipe.Expire(ctx, s.key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save check state: %w", err)
	}

	s.logger.Debug("Saved check state", zap.Int("entities", len(checks)))
	return nil
}
