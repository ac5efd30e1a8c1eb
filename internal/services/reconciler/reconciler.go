// Package services implements the background reconciler: overdue
// installments and loans, expired raffle reservations and the monthly
// installment rollout. Every transition is counted and notified.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/caixinha-api/internal/lib/busday"
	"github.com/magabrotheeeer/caixinha-api/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/caixinha-api/internal/lib/sl"
	"github.com/magabrotheeeer/caixinha-api/internal/models"
)

// Installments fall due on the 5th business day of the reference month.
const dueBusinessDay = 5

var (
	overduePaymentsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "caixinha_reconciler_overdue_payments_total",
		Help: "Installments moved to atrasado by the reconciler.",
	})
	overdueLoansTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "caixinha_reconciler_overdue_loans_total",
		Help: "Loans moved to atrasado by the reconciler.",
	})
	releasedTicketsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "caixinha_reconciler_released_tickets_total",
		Help: "Expired raffle reservations released by the reconciler.",
	})
	createdInstallmentsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "caixinha_reconciler_created_installments_total",
		Help: "Monthly installments created for active quotas.",
	})
)

// ReconcilerRepository is the persistence surface of the reconciler.
type ReconcilerRepository interface {
	MarkOverduePayments(ctx context.Context, juroPercent float64) ([]*models.PendingPayment, error)
	MarkOverdueLoans(ctx context.Context) ([]*models.PendingLoan, error)
	ReleaseExpiredTickets(ctx context.Context) ([]*models.ReleasedTicket, error)
	CreateMonthlyInstallments(ctx context.Context, mes, ano int, dueDate string) (int, error)
	GetConfig(ctx context.Context) (*models.SystemConfig, error)
}

// ReconcilerService runs the periodic state transitions.
type ReconcilerService struct {
	repo     ReconcilerRepository
	log      *slog.Logger
	interval time.Duration
	now      func() time.Time
}

// NewReconcilerService creates a ReconcilerService ticking at the given
// interval.
func NewReconcilerService(repo ReconcilerRepository, log *slog.Logger, interval time.Duration) *ReconcilerService {
	return &ReconcilerService{
		repo:     repo,
		log:      log,
		interval: interval,
		now:      time.Now,
	}
}

// Run executes one reconciliation immediately, then one per tick until
// the context is cancelled.
func (s *ReconcilerService) Run(ctx context.Context, channel *amqp.Channel) {
	s.runOnce(ctx, channel)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runOnce(ctx, channel)
		case <-ctx.Done():
			return
		}
	}
}

func (s *ReconcilerService) runOnce(ctx context.Context, channel *amqp.Channel) {
	s.runCreateMonthlyInstallments(ctx)
	s.runMarkOverduePayments(ctx, channel)
	s.runMarkOverdueLoans(ctx, channel)
	s.runReleaseExpiredTickets(ctx, channel)
}

func (s *ReconcilerService) runCreateMonthlyInstallments(ctx context.Context) {
	s.log.Info("starting monthly installment rollout")
	now := s.now()
	due := busday.NthBusinessDay(now.Year(), now.Month(), dueBusinessDay)
	created, err := s.repo.CreateMonthlyInstallments(ctx, int(now.Month()), now.Year(), due.Format("2006-01-02"))
	if err != nil {
		s.log.Error("failed to create monthly installments", sl.Err(err))
		return
	}
	if created == 0 {
		s.log.Info("no installments to create")
		return
	}
	createdInstallmentsTotal.Add(float64(created))
	s.log.Info("monthly installments created", "count", created)
}

func (s *ReconcilerService) runMarkOverduePayments(ctx context.Context, channel *amqp.Channel) {
	s.log.Info("starting overdue installment sweep")
	cfg, err := s.repo.GetConfig(ctx)
	if err != nil {
		s.log.Error("failed to load configuration", sl.Err(err))
		return
	}
	juro, _ := cfg.JuroAtrasoCota.Float64()
	payments, err := s.repo.MarkOverduePayments(ctx, juro)
	if err != nil {
		s.log.Error("failed to mark overdue installments", sl.Err(err))
		return
	}
	if len(payments) == 0 {
		s.log.Info("no overdue installments found")
		return
	}
	overduePaymentsTotal.Add(float64(len(payments)))
	s.log.Info("installments marked overdue", "count", len(payments))
	for _, p := range payments {
		msg := models.Notification{
			Kind:     models.NotifyPaymentOverdue,
			UserUID:  p.UserUID,
			Email:    p.Email,
			FullName: p.FullName,
			Subject:  "Mensalidade em atraso",
			Body: fmt.Sprintf("Sua mensalidade de %02d/%d venceu em %s e está em atraso. "+
				"Juros de %s%% foram aplicados.",
				p.MesReferencia, p.AnoReferencia,
				p.DataVencimento.Format("02/01/2006"), cfg.JuroAtrasoCota.String()),
		}
		if err := rabbitmq.PublishMessage(channel, "notifications", "payment", msg); err != nil {
			s.log.Error("failed to publish message", sl.Err(err))
		}
	}
}

func (s *ReconcilerService) runMarkOverdueLoans(ctx context.Context, channel *amqp.Channel) {
	s.log.Info("starting overdue loan sweep")
	loans, err := s.repo.MarkOverdueLoans(ctx)
	if err != nil {
		s.log.Error("failed to mark overdue loans", sl.Err(err))
		return
	}
	if len(loans) == 0 {
		s.log.Info("no overdue loans found")
		return
	}
	overdueLoansTotal.Add(float64(len(loans)))
	s.log.Info("loans marked overdue", "count", len(loans))
	for _, l := range loans {
		msg := models.Notification{
			Kind:     models.NotifyLoanOverdue,
			UserUID:  l.UserUID,
			Email:    l.Email,
			FullName: l.FullName,
			Subject:  "Empréstimo em atraso",
			Body: fmt.Sprintf("Seu empréstimo de R$ %s venceu em %s e está em atraso. "+
				"O valor total a devolver é R$ %s.",
				l.ValorSolicitado.StringFixed(2),
				l.DataVencimento.Format("02/01/2006"),
				l.ValorTotalDevolver.StringFixed(2)),
		}
		if err := rabbitmq.PublishMessage(channel, "notifications", "payment", msg); err != nil {
			s.log.Error("failed to publish message", sl.Err(err))
		}
	}
}

func (s *ReconcilerService) runReleaseExpiredTickets(ctx context.Context, channel *amqp.Channel) {
	s.log.Info("starting expired reservation sweep")
	tickets, err := s.repo.ReleaseExpiredTickets(ctx)
	if err != nil {
		s.log.Error("failed to release expired reservations", sl.Err(err))
		return
	}
	if len(tickets) == 0 {
		s.log.Info("no expired reservations found")
		return
	}
	releasedTicketsTotal.Add(float64(len(tickets)))
	s.log.Info("reservations released", "count", len(tickets))
	for _, t := range tickets {
		msg := models.Notification{
			Kind:     models.NotifyTicketReleased,
			UserUID:  t.UserUID,
			Email:    t.Email,
			FullName: t.FullName,
			Subject:  "Reserva de número liberada",
			Body: fmt.Sprintf("Sua reserva do número %d no sorteio de %02d/%d expirou sem pagamento "+
				"e o número foi liberado.",
				t.NumeroEscolhido, t.Mes, t.Ano),
		}
		if err := rabbitmq.PublishMessage(channel, "notifications", "raffle", msg); err != nil {
			s.log.Error("failed to publish message", sl.Err(err))
		}
	}
}
