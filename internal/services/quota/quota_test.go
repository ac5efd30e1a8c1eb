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

func (m *RepoMock) CreateQuotaWithFirstPayment(ctx context.Context, quota models.Quota, first models.QuotaPayment) (string, error) {
	args := m.Called(ctx, quota, first)
	return args.String(0), args.Error(1)
}

func (m *RepoMock) GetActiveQuotaByUser(ctx context.Context, userUID string) (*models.Quota, error) {
	args := m.Called(ctx, userUID)
	quota, _ := args.Get(0).(*models.Quota)
	return quota, args.Error(1)
}

func (m *RepoMock) AddQuotas(ctx context.Context, quotaID string, newNumCotas int, newObligation decimal.Decimal, next models.QuotaPayment) error {
	return m.Called(ctx, quotaID, newNumCotas, newObligation, next).Error(0)
}

func (m *RepoMock) CancelQuota(ctx context.Context, quotaID, userUID string) error {
	return m.Called(ctx, quotaID, userUID).Error(0)
}

func (m *RepoMock) ListPaymentsByQuota(ctx context.Context, quotaID string) ([]*models.QuotaPayment, error) {
	args := m.Called(ctx, quotaID)
	payments, _ := args.Get(0).([]*models.QuotaPayment)
	return payments, args.Error(1)
}

func (m *RepoMock) GetPayment(ctx context.Context, paymentID string) (*models.QuotaPayment, error) {
	args := m.Called(ctx, paymentID)
	payment, _ := args.Get(0).(*models.QuotaPayment)
	return payment, args.Error(1)
}

func (m *RepoMock) GetPaymentWithMember(ctx context.Context, paymentID string) (*models.PendingPayment, error) {
	args := m.Called(ctx, paymentID)
	payment, _ := args.Get(0).(*models.PendingPayment)
	return payment, args.Error(1)
}

func (m *RepoMock) SubmitPayment(ctx context.Context, paymentID, quotaID, formaPagamento string, comprovanteURL *string) error {
	return m.Called(ctx, paymentID, quotaID, formaPagamento, comprovanteURL).Error(0)
}

func (m *RepoMock) ConfirmPayment(ctx context.Context, paymentID string) error {
	return m.Called(ctx, paymentID).Error(0)
}

func (m *RepoMock) RejectPayment(ctx context.Context, paymentID string) error {
	return m.Called(ctx, paymentID).Error(0)
}

func (m *RepoMock) ListPendingPayments(ctx context.Context) ([]*models.PendingPayment, error) {
	args := m.Called(ctx)
	payments, _ := args.Get(0).([]*models.PendingPayment)
	return payments, args.Error(1)
}

func (m *RepoMock) GetConfig(ctx context.Context) (*models.SystemConfig, error) {
	args := m.Called(ctx)
	cfg, _ := args.Get(0).(*models.SystemConfig)
	return cfg, args.Error(1)
}

func (m *RepoMock) LogAdminAction(ctx context.Context, action models.AdminAction) error {
	return m.Called(ctx, action).Error(0)
}

type ReceiptsMock struct{ mock.Mock }

func (m *ReceiptsMock) Save(userUID, recordID, filename string, r io.Reader) (string, error) {
	args := m.Called(userUID, recordID, filename, r)
	return args.String(0), args.Error(1)
}

type PublisherMock struct{ mock.Mock }

func (m *PublisherMock) Publish(routingKey string, message any) error {
	return m.Called(routingKey, message).Error(0)
}

func NewNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func newTestService(repo *RepoMock, receipts *ReceiptsMock, publisher *PublisherMock) *QuotaService {
	s := NewQuotaService(repo, receipts, publisher, NewNoopLogger())
	// fixed clock so due dates are stable: next month is February 2025
	s.now = func() time.Time { return time.Date(2025, time.January, 15, 10, 0, 0, 0, time.UTC) }
	return s
}

func TestQuota_Register(t *testing.T) {
	member := auth.Context{UserUID: "uid-1", Email: "a@b.com", Role: models.RoleCotista}
	cfg := &models.SystemConfig{ValorMinimoCota: decimal.NewFromInt(50)}

	tests := []struct {
		name       string
		actor      auth.Context
		req        models.DummyRegisterQuota
		setupMocks func(repo *RepoMock)
		wantErr    error
	}{
		{
			name:  "success with first installment priced at the obligation",
			actor: member,
			req:   models.DummyRegisterQuota{NumCotas: 2},
			setupMocks: func(repo *RepoMock) {
				repo.On("GetConfig", mock.Anything).Return(cfg, nil).Once()
				repo.On("CreateQuotaWithFirstPayment", mock.Anything,
					mock.MatchedBy(func(q models.Quota) bool {
						return q.UserUID == "uid-1" && q.NumCotas == 2 &&
							q.ValorPorCota.Equal(decimal.NewFromInt(50)) &&
							q.Status == models.QuotaAtiva
					}),
					mock.MatchedBy(func(p models.QuotaPayment) bool {
						// 5th business day of February 2025 is the 7th
						return p.MesReferencia == 2 && p.AnoReferencia == 2025 &&
							p.ValorPago.Equal(decimal.NewFromInt(100)) &&
							p.DataVencimento.Equal(time.Date(2025, time.February, 7, 0, 0, 0, 0, time.UTC)) &&
							p.Status == models.PaymentPendente
					}),
				).Return("quota-1", nil).Once()
			},
		},
		{
			name:       "admins cannot register quotas",
			actor:      auth.Context{UserUID: "uid-adm", Role: models.RoleAdmin},
			req:        models.DummyRegisterQuota{NumCotas: 1},
			setupMocks: func(repo *RepoMock) {},
			wantErr:    ErrNotMember,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			tt.setupMocks(repo)
			s := newTestService(repo, new(ReceiptsMock), new(PublisherMock))

			quota, err := s.Register(context.Background(), tt.actor, tt.req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, "quota-1", quota.ID)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestQuota_Add(t *testing.T) {
	member := auth.Context{UserUID: "uid-1", Role: models.RoleCotista}
	repo := new(RepoMock)
	repo.On("GetActiveQuotaByUser", mock.Anything, "uid-1").Return(&models.Quota{
		ID:           "quota-1",
		UserUID:      "uid-1",
		NumCotas:     3,
		ValorPorCota: decimal.NewFromInt(50),
		Status:       models.QuotaAtiva,
	}, nil).Once()
	repo.On("AddQuotas", mock.Anything, "quota-1", 5,
		mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(decimal.NewFromInt(250)) }),
		mock.MatchedBy(func(p models.QuotaPayment) bool {
			return p.ValorPago.Equal(decimal.NewFromInt(250)) && p.MesReferencia == 2
		}),
	).Return(nil).Once()

	s := newTestService(repo, new(ReceiptsMock), new(PublisherMock))
	quota, err := s.Add(context.Background(), member, models.DummyAddQuotas{AdditionalCotas: 2})

	assert.NoError(t, err)
	assert.Equal(t, 5, quota.NumCotas)
	repo.AssertExpectations(t)
}

func TestQuota_Cancel(t *testing.T) {
	member := auth.Context{UserUID: "uid-1", Role: models.RoleCotista}

	tests := []struct {
		name       string
		req        models.DummyCancelQuota
		setupMocks func(repo *RepoMock)
		wantErr    error
	}{
		{
			name:       "wrong confirmation phrase",
			req:        models.DummyCancelQuota{Confirmation: "cancelar"},
			setupMocks: func(repo *RepoMock) {},
			wantErr:    ErrWrongConfirmation,
		},
		{
			name: "open installments block the cancellation",
			req:  models.DummyCancelQuota{Confirmation: models.CancelConfirmationPhrase},
			setupMocks: func(repo *RepoMock) {
				repo.On("GetActiveQuotaByUser", mock.Anything, "uid-1").
					Return(&models.Quota{ID: "quota-1", UserUID: "uid-1"}, nil).Once()
				repo.On("CancelQuota", mock.Anything, "quota-1", "uid-1").
					Return(storage.ErrConflict).Once()
			},
			wantErr: storage.ErrConflict,
		},
		{
			name: "success",
			req:  models.DummyCancelQuota{Confirmation: models.CancelConfirmationPhrase},
			setupMocks: func(repo *RepoMock) {
				repo.On("GetActiveQuotaByUser", mock.Anything, "uid-1").
					Return(&models.Quota{ID: "quota-1", UserUID: "uid-1"}, nil).Once()
				repo.On("CancelQuota", mock.Anything, "quota-1", "uid-1").
					Return(nil).Once()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			tt.setupMocks(repo)
			s := newTestService(repo, new(ReceiptsMock), new(PublisherMock))

			err := s.Cancel(context.Background(), member, tt.req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestQuota_SubmitPayment(t *testing.T) {
	member := auth.Context{UserUID: "uid-1", Role: models.RoleCotista}

	t.Run("pix requires a receipt", func(t *testing.T) {
		s := newTestService(new(RepoMock), new(ReceiptsMock), new(PublisherMock))
		err := s.SubmitPayment(context.Background(), member, "pay-1", models.MethodPix, "", nil)
		assert.ErrorIs(t, err, ErrInvalidMethod)
	})

	t.Run("unknown method is refused", func(t *testing.T) {
		s := newTestService(new(RepoMock), new(ReceiptsMock), new(PublisherMock))
		err := s.SubmitPayment(context.Background(), member, "pay-1", "boleto", "", nil)
		assert.ErrorIs(t, err, ErrInvalidMethod)
	})

	t.Run("cash payment without receipt", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("GetActiveQuotaByUser", mock.Anything, "uid-1").
			Return(&models.Quota{ID: "quota-1", UserUID: "uid-1"}, nil).Once()
		repo.On("SubmitPayment", mock.Anything, "pay-1", "quota-1", models.MethodDinheiro, (*string)(nil)).
			Return(nil).Once()

		s := newTestService(repo, new(ReceiptsMock), new(PublisherMock))
		err := s.SubmitPayment(context.Background(), member, "pay-1", models.MethodDinheiro, "", nil)
		assert.NoError(t, err)
		repo.AssertExpectations(t)
	})
}

func TestQuota_ConfirmPayment(t *testing.T) {
	admin := auth.Context{UserUID: "uid-adm", Role: models.RoleAdmin}
	pending := &models.PendingPayment{
		QuotaPayment: models.QuotaPayment{ID: "pay-1", MesReferencia: 1, AnoReferencia: 2025},
		UserUID:      "uid-1",
		Email:        "member@caixinha.dev",
		FullName:     "Maria Silva",
	}

	repo := new(RepoMock)
	repo.On("GetPaymentWithMember", mock.Anything, "pay-1").Return(pending, nil).Once()
	repo.On("ConfirmPayment", mock.Anything, "pay-1").Return(nil).Once()
	repo.On("LogAdminAction", mock.Anything, mock.MatchedBy(func(a models.AdminAction) bool {
		return a.Acao == "confirm_payment" && a.RegistroID == "pay-1" && a.AdminUID == "uid-adm"
	})).Return(nil).Once()

	publisher := new(PublisherMock)
	publisher.On("Publish", "payment", mock.MatchedBy(func(n models.Notification) bool {
		return n.Kind == models.NotifyPaymentConfirmed &&
			n.Email == "member@caixinha.dev" &&
			n.Body == "Seu pagamento da mensalidade 01/2025 foi confirmado."
	})).Return(nil).Once()

	s := newTestService(repo, new(ReceiptsMock), publisher)
	err := s.ConfirmPayment(context.Background(), admin, "pay-1")

	assert.NoError(t, err)
	repo.AssertExpectations(t)
	publisher.AssertExpectations(t)

	t.Run("members cannot confirm", func(t *testing.T) {
		s := newTestService(new(RepoMock), new(ReceiptsMock), new(PublisherMock))
		member := auth.Context{UserUID: "uid-1", Role: models.RoleCotista}
		assert.ErrorIs(t, s.ConfirmPayment(context.Background(), member, "pay-1"), ErrNotAdmin)
	})
}
