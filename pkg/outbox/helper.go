package outbox

import (
	"context"
	"encoding/json"
	"fmt"

	"focusflow/pkg/trace"

	"github.com/jackc/pgx/v5"
)

// NewEvent 序列化 payload 并构造一条 pending 事件
func NewEvent(aggregateType, aggregateID, routingKey string, payload any) (*Event, error) {
	if routingKey == "" {
		return nil, fmt.Errorf("outbox event for %s/%s: empty routing key", aggregateType, aggregateID)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", routingKey, err)
	}
	return &Event{
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		RoutingKey:    routingKey,
		Payload:       data,
		Status:        StatusPending,
	}, nil
}

// InsertEventInTx 与业务写入放在同一个事务里，提交后由 Dispatcher 投递
func InsertEventInTx(ctx context.Context, tx pgx.Tx, repo *Repository,
	aggregateType, aggregateID, routingKey string, payload any) error {
	event, err := NewEvent(aggregateType, aggregateID, routingKey, payload)
	if err != nil {
		return err
	}
	return repo.InsertEvent(ctx, tx, event)
}

// contextFromPayload 投递时恢复写入方的 trace_id
func contextFromPayload(ctx context.Context, payload json.RawMessage) context.Context {
	var meta struct {
		TraceID string `json:"trace_id"`
	}
	if err := json.Unmarshal(payload, &meta); err != nil || meta.TraceID == "" {
		return ctx
	}
	return trace.WithContext(ctx, meta.TraceID)
}
