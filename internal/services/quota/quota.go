// Package services implements the quota lifecycle: registration,
// raising the quota count, cancellation and the monthly installment
// payment flow with its admin review.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/caixinha-api/internal/auth"
	"github.com/magabrotheeeer/caixinha-api/internal/lib/busday"
	"github.com/magabrotheeeer/caixinha-api/internal/lib/sl"
	"github.com/magabrotheeeer/caixinha-api/internal/models"
)

// Installment due dates fall on this business day of the month.
const dueBusinessDay = 5

// Sentinel errors mapped to HTTP statuses by the handlers.
var (
	ErrNotMember         = errors.New("only members can manage quotas")
	ErrNotAdmin          = errors.New("admin role required")
	ErrWrongConfirmation = errors.New("confirmation phrase does not match")
	ErrInvalidMethod     = errors.New("unsupported payment method")
)

// QuotaRepository is the persistence surface of the quota lifecycle.
type QuotaRepository interface {
	CreateQuotaWithFirstPayment(ctx context.Context, quota models.Quota, first models.QuotaPayment) (string, error)
	GetActiveQuotaByUser(ctx context.Context, userUID string) (*models.Quota, error)
	AddQuotas(ctx context.Context, quotaID string, newNumCotas int, newObligation decimal.Decimal, next models.QuotaPayment) error
	CancelQuota(ctx context.Context, quotaID, userUID string) error
	ListPaymentsByQuota(ctx context.Context, quotaID string) ([]*models.QuotaPayment, error)
	GetPayment(ctx context.Context, paymentID string) (*models.QuotaPayment, error)
	GetPaymentWithMember(ctx context.Context, paymentID string) (*models.PendingPayment, error)
	SubmitPayment(ctx context.Context, paymentID, quotaID, formaPagamento string, comprovanteURL *string) error
	ConfirmPayment(ctx context.Context, paymentID string) error
	RejectPayment(ctx context.Context, paymentID string) error
	ListPendingPayments(ctx context.Context) ([]*models.PendingPayment, error)
	GetConfig(ctx context.Context) (*models.SystemConfig, error)
	LogAdminAction(ctx context.Context, action models.AdminAction) error
}

// ReceiptStore persists uploaded payment receipts.
type ReceiptStore interface {
	Save(userUID, recordID, filename string, r io.Reader) (string, error)
}

// Publisher delivers notification events to the broker.
type Publisher interface {
	Publish(routingKey string, message any) error
}

// QuotaService implements the quota lifecycle on top of the
// repository.
type QuotaService struct {
	repo      QuotaRepository
	receipts  ReceiptStore
	publisher Publisher
	log       *slog.Logger
	now       func() time.Time
}

// NewQuotaService creates a QuotaService.
func NewQuotaService(repo QuotaRepository, receipts ReceiptStore, publisher Publisher, log *slog.Logger) *QuotaService {
	return &QuotaService{
		repo:      repo,
		receipts:  receipts,
		publisher: publisher,
		log:       log,
		now:       time.Now,
	}
}

// QuotaView is the member's quota with its installment history.
type QuotaView struct {
	Quota    *models.Quota          `json:"quota"`
	Payments []*models.QuotaPayment `json:"payments"`
}

// Register creates the caller's quota with its first installment, due
// the fifth business day of next month. The unit price is the
// configured minimum.
func (s *QuotaService) Register(ctx context.Context, actor auth.Context, req models.DummyRegisterQuota) (*models.Quota, error) {
	if !actor.IsMember() {
		return nil, ErrNotMember
	}

	cfg, err := s.repo.GetConfig(ctx)
	if err != nil {
		return nil, err
	}

	quota := models.Quota{
		UserUID:      actor.UserUID,
		NumCotas:     req.NumCotas,
		ValorPorCota: cfg.ValorMinimoCota,
		Status:       models.QuotaAtiva,
	}

	first := s.nextInstallment(quota.Obligation())
	quotaID, err := s.repo.CreateQuotaWithFirstPayment(ctx, quota, first)
	if err != nil {
		return nil, err
	}
	quota.ID = quotaID
	s.log.Info("registered quota",
		slog.String("quota_id", quotaID),
		slog.Int("num_cotas", quota.NumCotas))
	return &quota, nil
}

// Add raises the caller's quota count. Future open installments are
// resized to the new obligation; when none exist a single next-month
// installment is created.
func (s *QuotaService) Add(ctx context.Context, actor auth.Context, req models.DummyAddQuotas) (*models.Quota, error) {
	if !actor.IsMember() {
		return nil, ErrNotMember
	}

	quota, err := s.repo.GetActiveQuotaByUser(ctx, actor.UserUID)
	if err != nil {
		return nil, err
	}

	quota.NumCotas += req.AdditionalCotas
	newObligation := quota.Obligation()
	next := s.nextInstallment(newObligation)
	if err := s.repo.AddQuotas(ctx, quota.ID, quota.NumCotas, newObligation, next); err != nil {
		return nil, err
	}
	s.log.Info("added quotas",
		slog.String("quota_id", quota.ID),
		slog.Int("num_cotas", quota.NumCotas))
	return quota, nil
}

// Cancel deactivates the caller's quota after the typed confirmation
// phrase. Open installments block the cancellation.
func (s *QuotaService) Cancel(ctx context.Context, actor auth.Context, req models.DummyCancelQuota) error {
	if !actor.IsMember() {
		return ErrNotMember
	}
	if req.Confirmation != models.CancelConfirmationPhrase {
		return ErrWrongConfirmation
	}

	quota, err := s.repo.GetActiveQuotaByUser(ctx, actor.UserUID)
	if err != nil {
		return err
	}
	if err := s.repo.CancelQuota(ctx, quota.ID, actor.UserUID); err != nil {
		return err
	}
	s.log.Info("cancelled quota", slog.String("quota_id", quota.ID))
	return nil
}

// Get returns the caller's quota with its installments, newest first.
func (s *QuotaService) Get(ctx context.Context, actor auth.Context) (*QuotaView, error) {
	if !actor.IsMember() {
		return nil, ErrNotMember
	}

	quota, err := s.repo.GetActiveQuotaByUser(ctx, actor.UserUID)
	if err != nil {
		return nil, err
	}
	payments, err := s.repo.ListPaymentsByQuota(ctx, quota.ID)
	if err != nil {
		return nil, err
	}
	return &QuotaView{Quota: quota, Payments: payments}, nil
}

// SubmitPayment records the member's payment claim on an open
// installment, storing the receipt when one is uploaded. PIX requires
// a receipt.
func (s *QuotaService) SubmitPayment(ctx context.Context, actor auth.Context, paymentID,
	formaPagamento, filename string, receipt io.Reader) error {
	if !actor.IsMember() {
		return ErrNotMember
	}
	if formaPagamento != models.MethodPix && formaPagamento != models.MethodDinheiro {
		return ErrInvalidMethod
	}
	if formaPagamento == models.MethodPix && receipt == nil {
		return ErrInvalidMethod
	}

	quota, err := s.repo.GetActiveQuotaByUser(ctx, actor.UserUID)
	if err != nil {
		return err
	}

	var comprovanteURL *string
	if receipt != nil {
		url, err := s.receipts.Save(actor.UserUID, paymentID, filename, receipt)
		if err != nil {
			return err
		}
		comprovanteURL = &url
	}

	if err := s.repo.SubmitPayment(ctx, paymentID, quota.ID, formaPagamento, comprovanteURL); err != nil {
		return err
	}
	s.log.Info("payment submitted for confirmation",
		slog.String("payment_id", paymentID),
		slog.String("forma_pagamento", formaPagamento))
	return nil
}

// ListPending returns every installment awaiting admin confirmation.
func (s *QuotaService) ListPending(ctx context.Context, actor auth.Context) ([]*models.PendingPayment, error) {
	if !actor.IsAdmin() {
		return nil, ErrNotAdmin
	}
	return s.repo.ListPendingPayments(ctx)
}

// ConfirmPayment marks a submitted installment as paid, logs the admin
// action and publishes the confirmation event.
func (s *QuotaService) ConfirmPayment(ctx context.Context, actor auth.Context, paymentID string) error {
	if !actor.IsAdmin() {
		return ErrNotAdmin
	}

	before, err := s.repo.GetPaymentWithMember(ctx, paymentID)
	if err != nil {
		return err
	}
	if err := s.repo.ConfirmPayment(ctx, paymentID); err != nil {
		return err
	}
	s.audit(ctx, actor, "confirm_payment", paymentID, before)

	note := models.Notification{
		Kind:     models.NotifyPaymentConfirmed,
		UserUID:  before.UserUID,
		Email:    before.Email,
		FullName: before.FullName,
		Subject:  "Pagamento confirmado",
		// The sender composes the greeting; the body is just the news.
		Body: fmt.Sprintf("Seu pagamento da mensalidade %02d/%d foi confirmado.",
			before.MesReferencia, before.AnoReferencia),
	}
	if err := s.publisher.Publish("payment", note); err != nil {
		s.log.Warn("failed to publish confirmation event", sl.Err(err))
	}

	s.log.Info("payment confirmed", slog.String("payment_id", paymentID))
	return nil
}

// RejectPayment sends a submitted installment back to its open state
// and logs the admin action.
func (s *QuotaService) RejectPayment(ctx context.Context, actor auth.Context, paymentID string) error {
	if !actor.IsAdmin() {
		return ErrNotAdmin
	}

	before, err := s.repo.GetPayment(ctx, paymentID)
	if err != nil {
		return err
	}
	if err := s.repo.RejectPayment(ctx, paymentID); err != nil {
		return err
	}
	s.audit(ctx, actor, "reject_payment", paymentID, before)
	s.log.Info("payment rejected", slog.String("payment_id", paymentID))
	return nil
}

// nextInstallment prepares the installment of the month after now, due
// its fifth business day.
func (s *QuotaService) nextInstallment(valor decimal.Decimal) models.QuotaPayment {
	next := busday.NextMonth(s.now())
	return models.QuotaPayment{
		MesReferencia:  int(next.Month()),
		AnoReferencia:  next.Year(),
		ValorPago:      valor,
		DataVencimento: busday.NthBusinessDay(next.Year(), next.Month(), dueBusinessDay),
		Status:         models.PaymentPendente,
	}
}

func (s *QuotaService) audit(ctx context.Context, actor auth.Context, acao, recordID string, before any) {
	snapshot, err := json.Marshal(before)
	if err != nil {
		s.log.Warn("failed to marshal audit snapshot", sl.Err(err))
		return
	}
	action := models.AdminAction{
		AdminUID:        actor.UserUID,
		Acao:            acao,
		TabelaAfetada:   "quota_payments",
		RegistroID:      recordID,
		DadosAnteriores: snapshot,
	}
	if err := s.repo.LogAdminAction(ctx, action); err != nil {
		s.log.Warn("failed to write audit log", sl.Err(err))
	}
}
