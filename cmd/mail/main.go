package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/wneessen/go-mail"

	"github.com/campus-ops/cmms/backend/internal/config"
	"github.com/campus-ops/cmms/backend/internal/domain"
	"github.com/campus-ops/cmms/backend/internal/mailqueue"
)

const templateDir = "./templates"

func main() {
	/**********************************************
	 * 创建 logger
	 **********************************************/
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	/**********************************************
	 * 读取配置文件
	 **********************************************/
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", slog.String("error", err.Error()))
		return
	}

	/**********************************************
	 * 创建邮件客户端
	 **********************************************/
	client, err := mail.NewClient(cfg.Email.SMTP.Host,
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithSSL(),
		mail.WithPort(cfg.Email.SMTP.Port),
		mail.WithUsername(cfg.Email.SMTP.Username),
		mail.WithPassword(cfg.Email.SMTP.Password),
	)
	if err != nil {
		logger.Error("无法创建邮件客户端", slog.String("error", err.Error()))
		return
	}
	defer client.Close()

	clientDialCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Email.SMTP.DialTimeout)*time.Second)
	defer cancel()
	if err := client.DialWithContext(clientDialCtx); err != nil {
		logger.Error("无法连接到邮件服务器", slog.String("error", err.Error()))
		return
	}

	/**********************************************
	 * 连接 RabbitMQ
	 **********************************************/
	conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
	if err != nil {
		logger.Error("无法连接到 RabbitMQ", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Error("无法创建通道", slog.String("error", err.Error()))
		return
	}
	defer ch.Close()

	q, err := mailqueue.Declare(ch)
	if err != nil {
		logger.Error("无法声明队列", slog.String("error", err.Error()))
		return
	}
	if _, err := mailqueue.DeclareRetry(ch, time.Duration(cfg.RabbitMQ.RetryDelay)*time.Second); err != nil {
		logger.Error("无法声明重试队列", slog.String("error", err.Error()))
		return
	}

	w := &worker{
		logger:     logger,
		client:     client,
		from:       cfg.Email.SMTP.Username,
		retry:      mailqueue.NewPublisher(ch, time.Duration(cfg.RabbitMQ.PublishTimeout)*time.Second),
		maxRetries: cfg.RabbitMQ.MaxRetries,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	msgs, err := ch.Consume(
		q.Name,
		"",    // 由 RabbitMQ 分配消费者标识
		false, // 手动确认
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		logger.Error("无法消费消息", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	wg := sync.WaitGroup{}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					logger.Error("消息通道已关闭")
					return
				}
				w.deliver(ctx, msg)
			}
		}
	}()

	logger.Info("等待消息...（按 CTRL+C 退出）")
	<-sigChan

	slog.Info("正在关闭 mail worker...")
	cancel()
	wg.Wait()
	slog.Info("mail worker 已成功关闭")
}

type worker struct {
	logger     *slog.Logger
	client     *mail.Client
	from       string
	retry      *mailqueue.Publisher
	maxRetries int
}

// deliver 发送一封邮件。消息格式错误时直接丢弃，发送失败时放入延迟重试队列
func (w *worker) deliver(ctx context.Context, msg amqp.Delivery) {
	logger := w.logger

	mailMessage := domain.MailMessage{}
	if err := json.Unmarshal(msg.Body, &mailMessage); err != nil {
		logger.Error("邮件信息反序列化失败", slog.String("error", err.Error()))
		_ = msg.Nack(false, false)
		return
	}
	logger.Info("收到消息", slog.String("type", mailMessage.Type), slog.String("to", mailMessage.To), slog.Int("retry", mailqueue.RetryCount(msg.Headers)))

	m := mail.NewMsg()
	if err := m.From(w.from); err != nil {
		logger.Error("无法设置邮件发件人", slog.String("error", err.Error()))
		_ = msg.Nack(false, false)
		return
	}
	if err := m.To(mailMessage.To); err != nil {
		logger.Error("无法设置邮件收件人", slog.String("error", err.Error()))
		_ = msg.Nack(false, false)
		return
	}

	tmpl, subject, err := loadTemplate(templateDir, mailMessage.Type)
	if err != nil {
		logger.Error("无法解析邮件模板", slog.String("error", err.Error()))
		_ = msg.Nack(false, false)
		return
	}
	if err := m.SetBodyHTMLTemplate(tmpl, mailMessage.Data); err != nil {
		logger.Error("无法设置邮件正文", slog.String("error", err.Error()))
		_ = msg.Nack(false, false)
		return
	}
	m.Subject(subject)

	if err := w.client.DialAndSend(m); err != nil {
		logger.Error("邮件发送失败", slog.String("error", err.Error()))
		retried, retryErr := w.retry.Retry(ctx, msg, w.maxRetries)
		switch {
		case retryErr != nil:
			logger.Error("无法放入重试队列", slog.String("error", retryErr.Error()))
			_ = msg.Nack(false, true)
		case !retried:
			logger.Error("超过最大重试次数，放弃发送", slog.String("to", mailMessage.To))
			_ = msg.Nack(false, false)
		default:
			_ = msg.Ack(false)
		}
		return
	}

	_ = msg.Ack(false)
}
