// Package caixinha assembles the HTTP API: storage, cache, broker,
// receipt store and every service behind the routes.
package caixinha

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/caixinha-api/internal/cache"
	"github.com/magabrotheeeer/caixinha-api/internal/config"
	"github.com/magabrotheeeer/caixinha-api/internal/lib/jwt"
	"github.com/magabrotheeeer/caixinha-api/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/caixinha-api/internal/migrations"
	authservice "github.com/magabrotheeeer/caixinha-api/internal/services/auth"
	loanservice "github.com/magabrotheeeer/caixinha-api/internal/services/loan"
	quotaservice "github.com/magabrotheeeer/caixinha-api/internal/services/quota"
	raffleservice "github.com/magabrotheeeer/caixinha-api/internal/services/raffle"
	reportservice "github.com/magabrotheeeer/caixinha-api/internal/services/report"
	configservice "github.com/magabrotheeeer/caixinha-api/internal/services/sysconfig"
	"github.com/magabrotheeeer/caixinha-api/internal/storage"
	"github.com/magabrotheeeer/caixinha-api/internal/storage/receipts"
)

// App is the assembled API process.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *storage.Storage
	conn   *amqp.Connection
	ch     *amqp.Channel
}

// notificationPublisher adapts the AMQP channel to the Publisher
// interface of the quota service.
type notificationPublisher struct {
	ch *amqp.Channel
}

func (p *notificationPublisher) Publish(routingKey string, message any) error {
	return rabbitmq.PublishMessage(p.ch, "notifications", routingKey, message)
}

// New wires storage, cache, broker and services into a ready App.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := storage.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	receiptStore, err := receipts.NewStore(cfg.ReceiptsDir, cfg.ReceiptsBaseURL)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to init receipt store: %w", err)
	}

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	publisher := &notificationPublisher{ch: ch}

	authSvc := authservice.NewAuthService(db, jwtMaker)
	quotaSvc := quotaservice.NewQuotaService(db, receiptStore, publisher, logger)
	loanSvc := loanservice.NewLoanService(db, logger)
	raffleSvc := raffleservice.NewRaffleService(db, receiptStore, logger)
	configSvc := configservice.NewConfigService(db, logger)
	reportSvc := reportservice.NewReportService(db, cacheRedis, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, jwtMaker, db, &Services{
		Auth:   authSvc,
		Quota:  quotaSvc,
		Loan:   loanSvc,
		Raffle: raffleSvc,
		Config: configSvc,
		Report: reportSvc,
	}, cfg.ReceiptsDir)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		conn:   conn,
		ch:     ch,
	}, nil
}

// Run serves HTTP until the context is cancelled, then shuts down
// gracefully.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		if cerr := a.ch.Close(); cerr != nil {
			a.logger.Error("failed to close channel", slog.Any("err", cerr))
		}
		if cerr := a.conn.Close(); cerr != nil {
			a.logger.Error("failed to close connection", slog.Any("err", cerr))
		}
		_ = a.db.DB.Close()
		return err
	}
}
