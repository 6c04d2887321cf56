package mq

import (
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

// DLQExchangeName 消费队列 nack(requeue=false) 的消息经由此 exchange 进入各自的 .dlq 队列
const DLQExchangeName = "events.dlq"

// dlqRetention 死信保留时长，过期前需要人工排查或重放
const dlqRetention = 7 * 24 * time.Hour

// DLQName 消费队列对应的死信队列名
func DLQName(queueName string) string {
	return queueName + ".dlq"
}

// declareDeadLetter 声明死信 exchange 与 <queue>.dlq，并按原 routing key 绑定
func declareDeadLetter(ch *amqp091.Channel, queueName, routingKey string) error {
	if err := ch.ExchangeDeclare(DLQExchangeName, amqp091.ExchangeTopic, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare dlq exchange: %w", err)
	}

	q, err := ch.QueueDeclare(DLQName(queueName), true, false, false, false, dlqArgs())
	if err != nil {
		return fmt.Errorf("failed to declare DLQ queue: %w", err)
	}
	if err := ch.QueueBind(q.Name, routingKey, DLQExchangeName, false, nil); err != nil {
		return fmt.Errorf("failed to bind DLQ queue: %w", err)
	}
	return nil
}

func dlqArgs() amqp091.Table {
	return amqp091.Table{
		"x-message-ttl": dlqRetention.Milliseconds(),
	}
}

// deadLetterArgs 挂在消费队列上，被拒绝的消息转到死信 exchange
func deadLetterArgs() amqp091.Table {
	return amqp091.Table{
		"x-dead-letter-exchange": DLQExchangeName,
	}
}
