// Package reconciler assembles the background job that sweeps overdue
// payments, overdue loans and expired ticket reservations.
package reconciler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/caixinha-api/internal/config"
	"github.com/magabrotheeeer/caixinha-api/internal/lib/rabbitmq"
	reconcilerservice "github.com/magabrotheeeer/caixinha-api/internal/services/reconciler"
	"github.com/magabrotheeeer/caixinha-api/internal/storage"
)

// App is the assembled reconciler process.
type App struct {
	reconcilerService *reconcilerservice.ReconcilerService
	db                *storage.Storage
	conn              *amqp.Connection
	ch                *amqp.Channel
	logger            *slog.Logger
	metricsAddr       string
}

func waitForDB(db *storage.Storage) error {
	for range 10 {
		err := storage.CheckDatabaseReady(db)
		if err == nil {
			return nil
		}
		time.Sleep(3 * time.Second)
	}
	return fmt.Errorf("database not ready after retries")
}

// New wires storage and the broker into a ready App.
func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		closeResources(nil, conn, logger)
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	db, err := storage.New(cfg.StorageConnectionString)
	if err != nil {
		closeResources(ch, conn, logger)
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}

	if err := waitForDB(db); err != nil {
		closeResources(ch, conn, logger)
		return nil, err
	}

	reconcilerService := reconcilerservice.NewReconcilerService(db, logger, cfg.ReconcileInterval)

	return &App{
		reconcilerService: reconcilerService,
		db:                db,
		conn:              conn,
		ch:                ch,
		logger:            logger,
		metricsAddr:       cfg.AddressHTTP,
	}, nil
}

func closeResources(ch *amqp.Channel, conn *amqp.Connection, logger *slog.Logger) {
	if ch != nil {
		if err := ch.Close(); err != nil {
			logger.Error("failed to close channel", "error", err)
		}
	}
	if conn != nil {
		if err := conn.Close(); err != nil {
			logger.Error("failed to close connection", "error", err)
		}
	}
}

// Run starts the sweep loop and the metrics listener, blocking until
// the context is cancelled.
func (a *App) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	metricsSrv := &http.Server{Addr: a.metricsAddr, Handler: mux}
	go func() {
		a.logger.Info("metrics listener starting on", slog.String("address", a.metricsAddr))
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.Error("metrics listener stopped", slog.Any("err", err))
		}
	}()

	go a.reconcilerService.Run(ctx, a.ch)

	<-ctx.Done()

	a.logger.Info("shutting down reconciler service")

	timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = metricsSrv.Shutdown(timeoutCtx)

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", slog.Any("err", err))
	}

	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", slog.Any("err", err))
	}

	_ = a.db.DB.Close()

	return nil
}
