package trace

import (
	"context"
	"strings"

	"github.com/google/uuid"
	oteltrace "go.opentelemetry.io/otel/trace"
)

type contextKey string

// TraceIDKey 同时用作 context key 和 AMQP header 名
const TraceIDKey contextKey = "trace_id"

// HeaderName HTTP 请求/响应中携带 trace ID 的 header
const HeaderName = "X-Trace-ID"

// GenerateTraceID 生成 32 位十六进制 ID，与 OTel trace ID 格式一致
func GenerateTraceID() string {
	id := uuid.New()
	return strings.ReplaceAll(id.String(), "-", "")
}

// FromContext 优先取显式设置的 trace_id，其次取当前 OTel span 的 trace ID
func FromContext(ctx context.Context) string {
	if traceID, ok := ctx.Value(TraceIDKey).(string); ok && traceID != "" {
		return traceID
	}
	if sc := oteltrace.SpanContextFromContext(ctx); sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return ""
}

func WithContext(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// Ensure 如果 context 中没有 trace_id，则生成一个新的
func Ensure(ctx context.Context) context.Context {
	if FromContext(ctx) != "" {
		return ctx
	}
	return WithContext(ctx, GenerateTraceID())
}
