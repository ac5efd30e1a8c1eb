package services

import (
	"context"
	"errors"
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

func (m *RepoMock) GetOrCreateRaffle(ctx context.Context, mes, ano int, premio decimal.Decimal) (*models.MonthlyRaffle, error) {
	args := m.Called(ctx, mes, ano, premio)
	raffle, _ := args.Get(0).(*models.MonthlyRaffle)
	return raffle, args.Error(1)
}

func (m *RepoMock) GetRaffle(ctx context.Context, raffleID string) (*models.MonthlyRaffle, error) {
	args := m.Called(ctx, raffleID)
	raffle, _ := args.Get(0).(*models.MonthlyRaffle)
	return raffle, args.Error(1)
}

func (m *RepoMock) GetTicket(ctx context.Context, ticketID string) (*models.RaffleTicket, error) {
	args := m.Called(ctx, ticketID)
	ticket, _ := args.Get(0).(*models.RaffleTicket)
	return ticket, args.Error(1)
}

func (m *RepoMock) ReserveTickets(ctx context.Context, raffleID, userUID string, numbers []int, valor decimal.Decimal, expiresAt time.Time) ([]*models.RaffleTicket, error) {
	args := m.Called(ctx, raffleID, userUID, numbers, valor, expiresAt)
	tickets, _ := args.Get(0).([]*models.RaffleTicket)
	return tickets, args.Error(1)
}

func (m *RepoMock) ListTicketsByRaffle(ctx context.Context, raffleID string) ([]*models.RaffleTicket, error) {
	args := m.Called(ctx, raffleID)
	tickets, _ := args.Get(0).([]*models.RaffleTicket)
	return tickets, args.Error(1)
}

func (m *RepoMock) ListTicketsByUser(ctx context.Context, raffleID, userUID string) ([]*models.RaffleTicket, error) {
	args := m.Called(ctx, raffleID, userUID)
	tickets, _ := args.Get(0).([]*models.RaffleTicket)
	return tickets, args.Error(1)
}

func (m *RepoMock) SubmitTicketPayment(ctx context.Context, ticketID, userUID, formaPagamento string, comprovanteURL *string) error {
	return m.Called(ctx, ticketID, userUID, formaPagamento, comprovanteURL).Error(0)
}

func (m *RepoMock) ConfirmTickets(ctx context.Context, ticketIDs []string) (int, error) {
	args := m.Called(ctx, ticketIDs)
	return args.Int(0), args.Error(1)
}

func (m *RepoMock) RejectTickets(ctx context.Context, ticketIDs []string) (int, error) {
	args := m.Called(ctx, ticketIDs)
	return args.Int(0), args.Error(1)
}

func (m *RepoMock) DrawRaffle(ctx context.Context, raffleID, resultado string, numero int) error {
	return m.Called(ctx, raffleID, resultado, numero).Error(0)
}

func (m *RepoMock) GetWinningTicket(ctx context.Context, raffleID string, numero int) (*models.RaffleTicket, error) {
	args := m.Called(ctx, raffleID, numero)
	ticket, _ := args.Get(0).(*models.RaffleTicket)
	return ticket, args.Error(1)
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

func NewNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func newTestService(repo *RepoMock) *RaffleService {
	s := NewRaffleService(repo, new(ReceiptsMock), NewNoopLogger())
	s.now = func() time.Time { return time.Date(2025, time.June, 10, 9, 0, 0, 0, time.UTC) }
	return s
}

func TestRaffle_Reserve(t *testing.T) {
	member := auth.Context{UserUID: "uid-1", Role: models.RoleCotista}
	cfg := &models.SystemConfig{
		ValorPremioSorteio:  decimal.NewFromInt(500),
		ValorBilheteSorteio: decimal.NewFromInt(10),
	}
	raffle := &models.MonthlyRaffle{ID: "raffle-1", Mes: 6, Ano: 2025, Status: models.RaffleAberto}

	t.Run("reservation carries the three day payment window", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("GetConfig", mock.Anything).Return(cfg, nil).Once()
		repo.On("GetOrCreateRaffle", mock.Anything, 6, 2025, cfg.ValorPremioSorteio).
			Return(raffle, nil).Once()
		repo.On("ReserveTickets", mock.Anything, "raffle-1", "uid-1", []int{7, 13},
			cfg.ValorBilheteSorteio,
			time.Date(2025, time.June, 13, 9, 0, 0, 0, time.UTC),
		).Return([]*models.RaffleTicket{
			{ID: "t-1", NumeroEscolhido: 7},
			{ID: "t-2", NumeroEscolhido: 13},
		}, nil).Once()

		s := newTestService(repo)
		tickets, err := s.Reserve(context.Background(), member, models.DummyReserveNumbers{Numbers: []int{7, 13}})
		assert.NoError(t, err)
		assert.Len(t, tickets, 2)
		repo.AssertExpectations(t)
	})

	t.Run("taken number fails the whole batch", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("GetConfig", mock.Anything).Return(cfg, nil).Once()
		repo.On("GetOrCreateRaffle", mock.Anything, 6, 2025, cfg.ValorPremioSorteio).
			Return(raffle, nil).Once()
		repo.On("ReserveTickets", mock.Anything, "raffle-1", "uid-1", []int{7},
			cfg.ValorBilheteSorteio, mock.Anything).
			Return(nil, storage.ErrAlreadyExists).Once()

		s := newTestService(repo)
		_, err := s.Reserve(context.Background(), member, models.DummyReserveNumbers{Numbers: []int{7}})
		assert.ErrorIs(t, err, storage.ErrAlreadyExists)
		repo.AssertExpectations(t)
	})

	t.Run("admins cannot play", func(t *testing.T) {
		s := newTestService(new(RepoMock))
		admin := auth.Context{UserUID: "uid-adm", Role: models.RoleAdmin}
		_, err := s.Reserve(context.Background(), admin, models.DummyReserveNumbers{Numbers: []int{7}})
		assert.ErrorIs(t, err, ErrNotMember)
	})
}

func TestRaffle_SubmitPayment(t *testing.T) {
	member := auth.Context{UserUID: "uid-1", Role: models.RoleCotista}

	t.Run("cash claim inside the reservation window", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("GetTicket", mock.Anything, "t-1").Return(&models.RaffleTicket{
			ID:                    "t-1",
			UserUID:               "uid-1",
			Status:                models.TicketReservado,
			PagamentoStatus:       models.PaymentPendente,
			DataVencimentoReserva: time.Date(2025, time.June, 12, 9, 0, 0, 0, time.UTC),
		}, nil).Once()
		repo.On("SubmitTicketPayment", mock.Anything, "t-1", "uid-1",
			models.MethodDinheiro, (*string)(nil)).Return(nil).Once()

		s := newTestService(repo)
		err := s.SubmitPayment(context.Background(), member, "t-1", models.MethodDinheiro, "", nil)
		assert.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("claim after the deadline is refused", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("GetTicket", mock.Anything, "t-1").Return(&models.RaffleTicket{
			ID:                    "t-1",
			UserUID:               "uid-1",
			Status:                models.TicketReservado,
			PagamentoStatus:       models.PaymentPendente,
			DataVencimentoReserva: time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC),
		}, nil).Once()

		s := newTestService(repo)
		err := s.SubmitPayment(context.Background(), member, "t-1", models.MethodDinheiro, "", nil)
		assert.ErrorIs(t, err, ErrReservationExpired)
		repo.AssertNotCalled(t, "SubmitTicketPayment")
	})

	t.Run("another member's ticket looks missing", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("GetTicket", mock.Anything, "t-1").Return(&models.RaffleTicket{
			ID:                    "t-1",
			UserUID:               "uid-2",
			DataVencimentoReserva: time.Date(2025, time.June, 12, 9, 0, 0, 0, time.UTC),
		}, nil).Once()

		s := newTestService(repo)
		err := s.SubmitPayment(context.Background(), member, "t-1", models.MethodDinheiro, "", nil)
		assert.ErrorIs(t, err, storage.ErrNotFound)
		repo.AssertNotCalled(t, "SubmitTicketPayment")
	})

	t.Run("pix without a receipt is refused", func(t *testing.T) {
		s := newTestService(new(RepoMock))
		err := s.SubmitPayment(context.Background(), member, "t-1", models.MethodPix, "", nil)
		assert.ErrorIs(t, err, ErrInvalidMethod)
	})
}

func TestRaffle_WinningNumber(t *testing.T) {
	tests := []struct {
		name      string
		resultado string
		want      int
		wantErr   bool
	}{
		{name: "last two digits", resultado: "1234567890", want: 90},
		{name: "double zero has no winner slot", resultado: "123400", wantErr: true},
		{name: "single digit tail", resultado: "123407", want: 7},
		{name: "too short", resultado: "5", wantErr: true},
		{name: "not numeric", resultado: "12ab", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := winningNumber(tt.resultado)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidResult)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRaffle_Draw(t *testing.T) {
	admin := auth.Context{UserUID: "uid-adm", Role: models.RoleAdmin}

	t.Run("draw with a winner", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("DrawRaffle", mock.Anything, "raffle-1", "1234567890", 90).Return(nil).Once()
		repo.On("LogAdminAction", mock.Anything, mock.MatchedBy(func(a models.AdminAction) bool {
			return a.Acao == "draw_raffle" && a.TabelaAfetada == "monthly_raffles"
		})).Return(nil).Once()
		repo.On("GetRaffle", mock.Anything, "raffle-1").
			Return(&models.MonthlyRaffle{ID: "raffle-1", Status: models.RaffleSorteado}, nil).Once()
		repo.On("GetWinningTicket", mock.Anything, "raffle-1", 90).
			Return(&models.RaffleTicket{ID: "t-1", NumeroEscolhido: 90, UserUID: "uid-1"}, nil).Once()

		s := newTestService(repo)
		result, err := s.Draw(context.Background(), admin, "raffle-1", models.DummyDrawRaffle{ResultadoLoteria: "1234567890"})
		assert.NoError(t, err)
		assert.NotNil(t, result.Winner)
		assert.Equal(t, 90, result.Winner.NumeroEscolhido)
		repo.AssertExpectations(t)
	})

	t.Run("draw with nobody on the number", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("DrawRaffle", mock.Anything, "raffle-1", "1234567890", 90).Return(nil).Once()
		repo.On("LogAdminAction", mock.Anything, mock.Anything).Return(nil).Once()
		repo.On("GetRaffle", mock.Anything, "raffle-1").
			Return(&models.MonthlyRaffle{ID: "raffle-1", Status: models.RaffleSorteado}, nil).Once()
		repo.On("GetWinningTicket", mock.Anything, "raffle-1", 90).
			Return(nil, storage.ErrNotFound).Once()

		s := newTestService(repo)
		result, err := s.Draw(context.Background(), admin, "raffle-1", models.DummyDrawRaffle{ResultadoLoteria: "1234567890"})
		assert.NoError(t, err)
		assert.Nil(t, result.Winner)
		repo.AssertExpectations(t)
	})

	t.Run("invalid result keeps the raffle open", func(t *testing.T) {
		repo := new(RepoMock)
		s := newTestService(repo)
		_, err := s.Draw(context.Background(), admin, "raffle-1", models.DummyDrawRaffle{ResultadoLoteria: "123400"})
		assert.ErrorIs(t, err, ErrInvalidResult)
		repo.AssertNotCalled(t, "DrawRaffle")
	})

	t.Run("winner lookup failure surfaces", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("DrawRaffle", mock.Anything, "raffle-1", "1234567890", 90).Return(nil).Once()
		repo.On("LogAdminAction", mock.Anything, mock.Anything).Return(nil).Once()
		repo.On("GetRaffle", mock.Anything, "raffle-1").
			Return(&models.MonthlyRaffle{ID: "raffle-1", Status: models.RaffleSorteado}, nil).Once()
		lookupErr := errors.New("connection reset")
		repo.On("GetWinningTicket", mock.Anything, "raffle-1", 90).
			Return(nil, lookupErr).Once()

		s := newTestService(repo)
		result, err := s.Draw(context.Background(), admin, "raffle-1", models.DummyDrawRaffle{ResultadoLoteria: "1234567890"})
		assert.ErrorIs(t, err, lookupErr)
		assert.Nil(t, result)
		repo.AssertExpectations(t)
	})

	t.Run("double draw is refused", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("DrawRaffle", mock.Anything, "raffle-1", "1234567890", 90).
			Return(storage.ErrConflict).Once()

		s := newTestService(repo)
		_, err := s.Draw(context.Background(), admin, "raffle-1", models.DummyDrawRaffle{ResultadoLoteria: "1234567890"})
		assert.ErrorIs(t, err, storage.ErrConflict)
		repo.AssertExpectations(t)
	})
}
