// Package sender assembles the notification-sender process: it drains
// the notification queues and delivers each message by e-mail.
package sender

import (
	"context"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/caixinha-api/internal/config"
	"github.com/magabrotheeeer/caixinha-api/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/caixinha-api/internal/lib/smtp"
	senderservice "github.com/magabrotheeeer/caixinha-api/internal/services/sender"
)

// App is the assembled notification-sender process.
type App struct {
	conn          *amqp.Connection
	ch            *amqp.Channel
	senderService *senderservice.SenderService
	logger        *slog.Logger
}

// New wires the broker and the SMTP transport into a ready App.
func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	transport := smtp.NewTransport(smtp.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	}, logger)
	senderService := senderservice.NewSenderService(transport, logger)

	return &App{
		conn:          conn,
		ch:            ch,
		senderService: senderService,
		logger:        logger,
	}, nil
}

// Run starts one consumer per notification queue and blocks until the
// context is cancelled.
func (a *App) Run(ctx context.Context) error {
	for _, q := range rabbitmq.GetNotificationQueues() {
		err := rabbitmq.ConsumerMessage(ctx, a.ch, q.QueueName, a.senderService.SendNotification)
		if err != nil {
			a.logger.Error("failed to start consumer", slog.String("queue", q.QueueName), slog.Any("err", err))
			return err
		}
	}

	<-ctx.Done()
	a.logger.Info("notification-sender shutting down gracefully")

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", slog.Any("err", err))
	}

	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", slog.Any("err", err))
	}

	return nil
}
