package otel

import (
	"context"

	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

// MQPublishSpan 发布到 exchange 的 producer span
func MQPublishSpan(ctx context.Context, routingKey string, exchange string) (context.Context, trace.Span) {
	return Tracer().Start(ctx, routingKey+" publish",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			semconv.MessagingSystemKey.String("rabbitmq"),
			semconv.MessagingOperationKey.String("publish"),
			semconv.MessagingDestinationNameKey.String(exchange),
			semconv.MessagingRabbitmqDestinationRoutingKeyKey.String(routingKey),
		),
	)
}

// MQConsumeSpan 调用前应先用 MQHeaderCarrier 从消息头提取上游 context
func MQConsumeSpan(ctx context.Context, routingKey string, queue string) (context.Context, trace.Span) {
	return Tracer().Start(ctx, queue+" receive",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			semconv.MessagingSystemKey.String("rabbitmq"),
			semconv.MessagingOperationKey.String("receive"),
			semconv.MessagingDestinationNameKey.String(queue),
			semconv.MessagingRabbitmqDestinationRoutingKeyKey.String(routingKey),
		),
	)
}

// MQHeaderCarrier 把 amqp091.Table 适配成 propagation.TextMapCarrier
type MQHeaderCarrier map[string]interface{}

func NewMQHeaderCarrier(headers map[string]interface{}) MQHeaderCarrier {
	if headers == nil {
		headers = make(map[string]interface{})
	}
	return MQHeaderCarrier(headers)
}

// Get 部分客户端会把 header 写成 []byte
func (c MQHeaderCarrier) Get(key string) string {
	switch v := c[key].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	}
	return ""
}

func (c MQHeaderCarrier) Set(key, value string) {
	c[key] = value
}

func (c MQHeaderCarrier) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	return keys
}
