// Package services implements the loan lifecycle: member requests
// capped by the monthly obligation and the admin approve, reject and
// settle transitions.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/caixinha-api/internal/auth"
	"github.com/magabrotheeeer/caixinha-api/internal/lib/sl"
	"github.com/magabrotheeeer/caixinha-api/internal/models"
	"github.com/magabrotheeeer/caixinha-api/internal/storage"
)

// Sentinel errors mapped to HTTP statuses by the handlers.
var (
	ErrNotMember   = errors.New("only members can request loans")
	ErrNotAdmin    = errors.New("admin role required")
	ErrNotEligible = errors.New("an active quota with at least one paid installment is required")
	ErrOverLimit   = errors.New("requested amount exceeds the monthly obligation")
	ErrOpenLoan    = errors.New("an open loan already exists")
)

// LoanRepository is the persistence surface of the loan lifecycle.
type LoanRepository interface {
	CreateLoan(ctx context.Context, loan models.Loan) (string, error)
	GetLoan(ctx context.Context, loanID string) (*models.Loan, error)
	ListLoansByUser(ctx context.Context, userUID string) ([]*models.Loan, error)
	ListPendingLoans(ctx context.Context) ([]*models.PendingLoan, error)
	HasOpenLoan(ctx context.Context, userUID string) (bool, error)
	UpdateLoanStatus(ctx context.Context, loanID, fromStatus, toStatus string) error
	SettleLoan(ctx context.Context, loanID string) error
	GetActiveQuotaByUser(ctx context.Context, userUID string) (*models.Quota, error)
	CountPaidInstallments(ctx context.Context, quotaID string) (int, error)
	GetConfig(ctx context.Context) (*models.SystemConfig, error)
	LogAdminAction(ctx context.Context, action models.AdminAction) error
}

// LoanService implements the loan lifecycle on top of the repository.
type LoanService struct {
	repo LoanRepository
	log  *slog.Logger
	now  func() time.Time
}

// NewLoanService creates a LoanService.
func NewLoanService(repo LoanRepository, log *slog.Logger) *LoanService {
	return &LoanService{
		repo: repo,
		log:  log,
		now:  time.Now,
	}
}

// Request registers a loan request. The caller needs an active quota
// with at least one paid installment, the amount is capped by the
// monthly obligation and the total to return is fixed now from the
// configured rate. The due date is the first of November of the
// current year.
func (s *LoanService) Request(ctx context.Context, actor auth.Context, req models.DummyRequestLoan) (*models.Loan, error) {
	if !actor.IsMember() {
		return nil, ErrNotMember
	}

	open, err := s.repo.HasOpenLoan(ctx, actor.UserUID)
	if err != nil {
		return nil, err
	}
	if open {
		return nil, ErrOpenLoan
	}

	quota, err := s.repo.GetActiveQuotaByUser(ctx, actor.UserUID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotEligible
		}
		return nil, err
	}
	paid, err := s.repo.CountPaidInstallments(ctx, quota.ID)
	if err != nil {
		return nil, err
	}
	if paid == 0 {
		return nil, ErrNotEligible
	}

	valor := decimal.NewFromFloat(req.ValorSolicitado)
	if valor.GreaterThan(quota.Obligation()) {
		return nil, ErrOverLimit
	}

	cfg, err := s.repo.GetConfig(ctx)
	if err != nil {
		return nil, err
	}
	tipo := models.LoanCotista
	if actor.Role == models.RoleNaoCotista {
		tipo = models.LoanNaoCotista
	}
	rate := cfg.LoanRate(tipo)
	total := valor.Mul(decimal.NewFromInt(1).Add(rate.Div(decimal.NewFromInt(100)))).Round(2)

	loan := models.Loan{
		UserUID:            actor.UserUID,
		ValorSolicitado:    valor,
		ValorTotalDevolver: total,
		JuroAplicado:       rate,
		Tipo:               tipo,
		Status:             models.LoanPendente,
		DataVencimento:     time.Date(s.now().Year(), time.November, 1, 0, 0, 0, 0, time.UTC),
	}
	loanID, err := s.repo.CreateLoan(ctx, loan)
	if err != nil {
		return nil, err
	}
	loan.ID = loanID

	s.log.Info("loan requested",
		slog.String("loan_id", loanID),
		slog.String("valor", valor.String()),
		slog.String("total", total.String()))
	return &loan, nil
}

// List returns the caller's loans, newest first.
func (s *LoanService) List(ctx context.Context, actor auth.Context) ([]*models.Loan, error) {
	return s.repo.ListLoansByUser(ctx, actor.UserUID)
}

// ListPending returns every loan request awaiting review.
func (s *LoanService) ListPending(ctx context.Context, actor auth.Context) ([]*models.PendingLoan, error) {
	if !actor.IsAdmin() {
		return nil, ErrNotAdmin
	}
	return s.repo.ListPendingLoans(ctx)
}

// Approve moves a pending loan to aprovado.
func (s *LoanService) Approve(ctx context.Context, actor auth.Context, loanID string) error {
	return s.transition(ctx, actor, loanID, "approve_loan", models.LoanPendente, models.LoanAprovado)
}

// Reject moves a pending loan to rejeitado. Rejection is terminal and
// never reuses quitado.
func (s *LoanService) Reject(ctx context.Context, actor auth.Context, loanID string) error {
	return s.transition(ctx, actor, loanID, "reject_loan", models.LoanPendente, models.LoanRejeitado)
}

// Settle marks an approved or late loan as paid off.
func (s *LoanService) Settle(ctx context.Context, actor auth.Context, loanID string) error {
	if !actor.IsAdmin() {
		return ErrNotAdmin
	}
	before, err := s.repo.GetLoan(ctx, loanID)
	if err != nil {
		return err
	}
	if err := s.repo.SettleLoan(ctx, loanID); err != nil {
		return err
	}
	s.audit(ctx, actor, "settle_loan", loanID, before)
	s.log.Info("loan settled", slog.String("loan_id", loanID))
	return nil
}

func (s *LoanService) transition(ctx context.Context, actor auth.Context, loanID, acao, from, to string) error {
	if !actor.IsAdmin() {
		return ErrNotAdmin
	}
	before, err := s.repo.GetLoan(ctx, loanID)
	if err != nil {
		return err
	}
	if err := s.repo.UpdateLoanStatus(ctx, loanID, from, to); err != nil {
		return err
	}
	s.audit(ctx, actor, acao, loanID, before)
	s.log.Info("loan status changed",
		slog.String("loan_id", loanID),
		slog.String("status", to))
	return nil
}

func (s *LoanService) audit(ctx context.Context, actor auth.Context, acao, recordID string, before any) {
	snapshot, err := json.Marshal(before)
	if err != nil {
		s.log.Warn("failed to marshal audit snapshot", sl.Err(err))
		return
	}
	action := models.AdminAction{
		AdminUID:        actor.UserUID,
		Acao:            acao,
		TabelaAfetada:   "loans",
		RegistroID:      recordID,
		DadosAnteriores: snapshot,
	}
	if err := s.repo.LogAdminAction(ctx, action); err != nil {
		s.log.Warn("failed to write audit log", sl.Err(err))
	}
}
