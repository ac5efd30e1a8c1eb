package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/caixinha-api/internal/auth"
	"github.com/magabrotheeeer/caixinha-api/internal/models"
	"github.com/magabrotheeeer/caixinha-api/internal/storage"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) CreateLoan(ctx context.Context, loan models.Loan) (string, error) {
	args := m.Called(ctx, loan)
	return args.String(0), args.Error(1)
}

func (m *RepoMock) GetLoan(ctx context.Context, loanID string) (*models.Loan, error) {
	args := m.Called(ctx, loanID)
	loan, _ := args.Get(0).(*models.Loan)
	return loan, args.Error(1)
}

func (m *RepoMock) ListLoansByUser(ctx context.Context, userUID string) ([]*models.Loan, error) {
	args := m.Called(ctx, userUID)
	loans, _ := args.Get(0).([]*models.Loan)
	return loans, args.Error(1)
}

func (m *RepoMock) ListPendingLoans(ctx context.Context) ([]*models.PendingLoan, error) {
	args := m.Called(ctx)
	loans, _ := args.Get(0).([]*models.PendingLoan)
	return loans, args.Error(1)
}

func (m *RepoMock) HasOpenLoan(ctx context.Context, userUID string) (bool, error) {
	args := m.Called(ctx, userUID)
	return args.Bool(0), args.Error(1)
}

func (m *RepoMock) UpdateLoanStatus(ctx context.Context, loanID, fromStatus, toStatus string) error {
	return m.Called(ctx, loanID, fromStatus, toStatus).Error(0)
}

func (m *RepoMock) SettleLoan(ctx context.Context, loanID string) error {
	return m.Called(ctx, loanID).Error(0)
}

func (m *RepoMock) GetActiveQuotaByUser(ctx context.Context, userUID string) (*models.Quota, error) {
	args := m.Called(ctx, userUID)
	quota, _ := args.Get(0).(*models.Quota)
	return quota, args.Error(1)
}

func (m *RepoMock) CountPaidInstallments(ctx context.Context, quotaID string) (int, error) {
	args := m.Called(ctx, quotaID)
	return args.Int(0), args.Error(1)
}

func (m *RepoMock) GetConfig(ctx context.Context) (*models.SystemConfig, error) {
	args := m.Called(ctx)
	cfg, _ := args.Get(0).(*models.SystemConfig)
	return cfg, args.Error(1)
}

func (m *RepoMock) LogAdminAction(ctx context.Context, action models.AdminAction) error {
	return m.Called(ctx, action).Error(0)
}

func NewNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func newTestService(repo *RepoMock) *LoanService {
	s := NewLoanService(repo, NewNoopLogger())
	s.now = func() time.Time { return time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC) }
	return s
}

func TestLoan_Request(t *testing.T) {
	cotista := auth.Context{UserUID: "uid-1", Role: models.RoleCotista}
	quota := &models.Quota{
		ID:           "quota-1",
		UserUID:      "uid-1",
		NumCotas:     20,
		ValorPorCota: decimal.NewFromInt(50),
		Status:       models.QuotaAtiva,
	}
	cfg := &models.SystemConfig{
		JuroEmprestimoCotista:    decimal.NewFromInt(3),
		JuroEmprestimoNaoCotista: decimal.NewFromInt(5),
	}

	tests := []struct {
		name       string
		actor      auth.Context
		req        models.DummyRequestLoan
		setupMocks func(repo *RepoMock)
		wantTotal  string
		wantErr    error
	}{
		{
			name:  "cotista pays the cotista rate and returns the fixed total",
			actor: cotista,
			req:   models.DummyRequestLoan{ValorSolicitado: 1000},
			setupMocks: func(repo *RepoMock) {
				repo.On("HasOpenLoan", mock.Anything, "uid-1").Return(false, nil).Once()
				repo.On("GetActiveQuotaByUser", mock.Anything, "uid-1").Return(quota, nil).Once()
				repo.On("CountPaidInstallments", mock.Anything, "quota-1").Return(4, nil).Once()
				repo.On("GetConfig", mock.Anything).Return(cfg, nil).Once()
				repo.On("CreateLoan", mock.Anything, mock.MatchedBy(func(l models.Loan) bool {
					return l.Tipo == models.LoanCotista &&
						l.ValorTotalDevolver.Equal(decimal.RequireFromString("1030")) &&
						l.DataVencimento.Equal(time.Date(2025, time.November, 1, 0, 0, 0, 0, time.UTC))
				})).Return("loan-1", nil).Once()
			},
			wantTotal: "1030",
		},
		{
			name:  "amount above the monthly obligation is refused",
			actor: cotista,
			req:   models.DummyRequestLoan{ValorSolicitado: 1000.01},
			setupMocks: func(repo *RepoMock) {
				repo.On("HasOpenLoan", mock.Anything, "uid-1").Return(false, nil).Once()
				repo.On("GetActiveQuotaByUser", mock.Anything, "uid-1").Return(quota, nil).Once()
				repo.On("CountPaidInstallments", mock.Anything, "quota-1").Return(4, nil).Once()
			},
			wantErr: ErrOverLimit,
		},
		{
			name:  "no paid installment yet",
			actor: cotista,
			req:   models.DummyRequestLoan{ValorSolicitado: 100},
			setupMocks: func(repo *RepoMock) {
				repo.On("HasOpenLoan", mock.Anything, "uid-1").Return(false, nil).Once()
				repo.On("GetActiveQuotaByUser", mock.Anything, "uid-1").Return(quota, nil).Once()
				repo.On("CountPaidInstallments", mock.Anything, "quota-1").Return(0, nil).Once()
			},
			wantErr: ErrNotEligible,
		},
		{
			name:  "no active quota",
			actor: cotista,
			req:   models.DummyRequestLoan{ValorSolicitado: 100},
			setupMocks: func(repo *RepoMock) {
				repo.On("HasOpenLoan", mock.Anything, "uid-1").Return(false, nil).Once()
				repo.On("GetActiveQuotaByUser", mock.Anything, "uid-1").
					Return(nil, storage.ErrNotFound).Once()
			},
			wantErr: ErrNotEligible,
		},
		{
			name:  "one open loan at a time",
			actor: cotista,
			req:   models.DummyRequestLoan{ValorSolicitado: 100},
			setupMocks: func(repo *RepoMock) {
				repo.On("HasOpenLoan", mock.Anything, "uid-1").Return(true, nil).Once()
			},
			wantErr: ErrOpenLoan,
		},
		{
			name:       "admins cannot borrow",
			actor:      auth.Context{UserUID: "uid-adm", Role: models.RoleAdmin},
			req:        models.DummyRequestLoan{ValorSolicitado: 100},
			setupMocks: func(repo *RepoMock) {},
			wantErr:    ErrNotMember,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			tt.setupMocks(repo)
			s := newTestService(repo)

			loan, err := s.Request(context.Background(), tt.actor, tt.req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, "loan-1", loan.ID)
				assert.True(t, loan.ValorTotalDevolver.Equal(decimal.RequireFromString(tt.wantTotal)))
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestLoan_Reject(t *testing.T) {
	admin := auth.Context{UserUID: "uid-adm", Role: models.RoleAdmin}

	repo := new(RepoMock)
	repo.On("GetLoan", mock.Anything, "loan-1").
		Return(&models.Loan{ID: "loan-1", Status: models.LoanPendente}, nil).Once()
	repo.On("UpdateLoanStatus", mock.Anything, "loan-1", models.LoanPendente, models.LoanRejeitado).
		Return(nil).Once()
	repo.On("LogAdminAction", mock.Anything, mock.MatchedBy(func(a models.AdminAction) bool {
		return a.Acao == "reject_loan" && a.TabelaAfetada == "loans"
	})).Return(nil).Once()

	s := newTestService(repo)
	assert.NoError(t, s.Reject(context.Background(), admin, "loan-1"))
	repo.AssertExpectations(t)
}

func TestLoan_Settle(t *testing.T) {
	admin := auth.Context{UserUID: "uid-adm", Role: models.RoleAdmin}

	t.Run("members cannot settle", func(t *testing.T) {
		s := newTestService(new(RepoMock))
		member := auth.Context{UserUID: "uid-1", Role: models.RoleCotista}
		assert.ErrorIs(t, s.Settle(context.Background(), member, "loan-1"), ErrNotAdmin)
	})

	t.Run("settle refused outside aprovado or atrasado", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("GetLoan", mock.Anything, "loan-1").
			Return(&models.Loan{ID: "loan-1", Status: models.LoanPendente}, nil).Once()
		repo.On("SettleLoan", mock.Anything, "loan-1").Return(storage.ErrConflict).Once()

		s := newTestService(repo)
		assert.ErrorIs(t, s.Settle(context.Background(), admin, "loan-1"), storage.ErrConflict)
		repo.AssertExpectations(t)
	})
}
