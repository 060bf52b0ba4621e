package mailqueue

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/campus-ops/cmms/backend/internal/domain"
)

const QueueName = "email_queue"

// Declare 声明邮件队列，发送端和消费端都需要调用
func Declare(ch *amqp.Channel) (amqp.Queue, error) {
	return ch.QueueDeclare(
		QueueName,
		true,  // 持久化
		false, // 没有消费者时不自动删除
		false, // 允许多个消费者
		false, // 等待 RabbitMQ 确认
		nil,
	)
}

type Publisher struct {
	ch      *amqp.Channel
	timeout time.Duration
}

func NewPublisher(ch *amqp.Channel, timeout time.Duration) *Publisher {
	return &Publisher{ch: ch, timeout: timeout}
}

func (p *Publisher) Publish(ctx context.Context, msg domain.MailMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	return p.ch.PublishWithContext(
		ctx,
		"",
		QueueName,
		true,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

const (
	RetryQueueName = QueueName + ".retry"
	retryHeader    = "x-retry-count"
)

// DeclareRetry 声明延迟重试队列，消息在其中停留 delay 后经死信转回邮件队列
func DeclareRetry(ch *amqp.Channel, delay time.Duration) (amqp.Queue, error) {
	return ch.QueueDeclare(
		RetryQueueName,
		true,
		false,
		false,
		false,
		amqp.Table{
			"x-message-ttl":             delay.Milliseconds(),
			"x-dead-letter-exchange":    "",
			"x-dead-letter-routing-key": QueueName,
		},
	)
}

// RetryCount 返回消息已经重试的次数
func RetryCount(headers amqp.Table) int {
	switch v := headers[retryHeader].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

// RetryPublishing 构造放入重试队列的消息，重试次数超过 maxRetries 时返回 false
func RetryPublishing(d amqp.Delivery, maxRetries int) (amqp.Publishing, bool) {
	count := RetryCount(d.Headers) + 1
	if count > maxRetries {
		return amqp.Publishing{}, false
	}

	headers := amqp.Table{}
	for k, v := range d.Headers {
		headers[k] = v
	}
	headers[retryHeader] = int32(count)

	return amqp.Publishing{
		Headers:      headers,
		ContentType:  d.ContentType,
		DeliveryMode: amqp.Persistent,
		Body:         d.Body,
	}, true
}

// Retry 将发送失败的消息放入重试队列，超过重试次数时返回 false
func (p *Publisher) Retry(ctx context.Context, d amqp.Delivery, maxRetries int) (bool, error) {
	msg, ok := RetryPublishing(d, maxRetries)
	if !ok {
		return false, nil
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	return true, p.ch.PublishWithContext(ctx, "", RetryQueueName, true, false, msg)
}
