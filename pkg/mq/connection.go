package mq

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

// ExchangeName 所有领域事件共用的 topic exchange
const ExchangeName = "events"

const (
	dialAttempts     = 5
	dialInitialDelay = 500 * time.Millisecond
	heartbeat        = 10 * time.Second
)

// NewConnection 连接 RabbitMQ；broker 尚未就绪时按指数退避重试几次
func NewConnection(url string) (*amqp091.Connection, error) {
	cfg := amqp091.Config{
		Heartbeat: heartbeat,
		Locale:    "en_US",
		Properties: amqp091.Table{
			"connection_name": connectionName(),
		},
	}

	delay := dialInitialDelay
	var lastErr error
	for attempt := 1; attempt <= dialAttempts; attempt++ {
		conn, err := amqp091.DialConfig(url, cfg)
		if err == nil {
			return conn, nil
		}
		lastErr = err
		if attempt < dialAttempts {
			time.Sleep(delay)
			delay *= 2
		}
	}
	return nil, fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", dialAttempts, lastErr)
}

// connectionName 在管理界面中区分 recurrence-runner 和 recurctl
func connectionName() string {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	return filepath.Base(os.Args[0]) + "@" + host
}

// DeclareExchange 声明 durable topic exchange（幂等）
func DeclareExchange(ch *amqp091.Channel) error {
	return ch.ExchangeDeclare(
		ExchangeName,
		amqp091.ExchangeTopic,
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
}
