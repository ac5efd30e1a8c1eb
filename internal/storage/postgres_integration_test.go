package storage

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/caixinha-api/internal/models"
)

func TestStorage_CreateQuotaWithFirstPayment(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()
	factory := NewTestDataFactory(storage)

	ctx := context.Background()
	userUID := uuid.New().String()
	factory.CreateUser(t, userUID, "member@example.com", "Test Member", models.RoleNaoCotista)

	quota := models.Quota{
		UserUID:      userUID,
		NumCotas:     2,
		ValorPorCota: decimal.NewFromInt(50),
	}
	first := models.QuotaPayment{
		MesReferencia:  7,
		AnoReferencia:  2026,
		ValorPago:      decimal.NewFromInt(100),
		DataVencimento: time.Date(2026, 7, 7, 0, 0, 0, 0, time.UTC),
	}

	quotaID, err := storage.CreateQuotaWithFirstPayment(ctx, quota, first)
	require.NoError(t, err)
	require.NotEmpty(t, quotaID)

	got, err := storage.GetActiveQuotaByUser(ctx, userUID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.NumCotas)
	assert.True(t, got.Obligation().Equal(decimal.NewFromInt(100)))

	payments, err := storage.ListPaymentsByQuota(ctx, quotaID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, models.PaymentPendente, payments[0].Status)

	user, err := storage.GetUser(ctx, userUID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleCotista, user.Role)

	_, err = storage.CreateQuotaWithFirstPayment(ctx, quota, first)
	require.ErrorIs(t, err, ErrAlreadyExists)
}

func TestStorage_AddQuotas(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()
	factory := NewTestDataFactory(storage)

	ctx := context.Background()
	// The resize predicate compares against the database clock, so the
	// fixtures derive their due dates from it too.
	today := time.Now().UTC().Truncate(24 * time.Hour)
	futureDue := today.AddDate(0, 1, 0)
	pastDue := today.AddDate(0, -1, 0)
	next := models.QuotaPayment{
		MesReferencia:  int(futureDue.Month()),
		AnoReferencia:  futureDue.Year(),
		DataVencimento: futureDue,
	}

	t.Run("resizes open installment instead of inserting", func(t *testing.T) {
		_, quotaID := factory.NewTestMember(t, 3, 50)
		factory.CreateInstallment(t, quotaID, int(futureDue.Month()), futureDue.Year(), 150,
			futureDue, models.PaymentPendente)

		err := storage.AddQuotas(ctx, quotaID, 5, decimal.NewFromInt(250), next)
		require.NoError(t, err)

		payments, err := storage.ListPaymentsByQuota(ctx, quotaID)
		require.NoError(t, err)
		require.Len(t, payments, 1)
		assert.True(t, payments[0].ValorPago.Equal(decimal.NewFromInt(250)))
	})

	t.Run("inserts next month installment when nothing is open", func(t *testing.T) {
		_, quotaID := factory.NewTestMember(t, 3, 50)
		factory.CreateInstallment(t, quotaID, int(pastDue.Month()), pastDue.Year(), 150,
			pastDue, models.PaymentPago)

		err := storage.AddQuotas(ctx, quotaID, 5, decimal.NewFromInt(250), next)
		require.NoError(t, err)

		payments, err := storage.ListPaymentsByQuota(ctx, quotaID)
		require.NoError(t, err)
		require.Len(t, payments, 2)
		assert.Equal(t, int(futureDue.Month()), payments[0].MesReferencia)
		assert.True(t, payments[0].ValorPago.Equal(decimal.NewFromInt(250)))
	})

	t.Run("past-due installment keeps its billed amount", func(t *testing.T) {
		_, quotaID := factory.NewTestMember(t, 3, 50)
		overdueID := factory.CreateInstallment(t, quotaID, int(pastDue.Month()), pastDue.Year(), 150,
			pastDue, models.PaymentAguardando)
		factory.CreateInstallment(t, quotaID, int(futureDue.Month()), futureDue.Year(), 150,
			futureDue, models.PaymentPendente)

		err := storage.AddQuotas(ctx, quotaID, 5, decimal.NewFromInt(250), next)
		require.NoError(t, err)

		payments, err := storage.ListPaymentsByQuota(ctx, quotaID)
		require.NoError(t, err)
		require.Len(t, payments, 2)
		for _, p := range payments {
			if p.ID == overdueID {
				assert.True(t, p.ValorPago.Equal(decimal.NewFromInt(150)),
					"past-due installment must keep the amount it was billed at")
			} else {
				assert.True(t, p.ValorPago.Equal(decimal.NewFromInt(250)))
			}
		}
	})
}

func TestStorage_CancelQuota(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()
	factory := NewTestDataFactory(storage)

	ctx := context.Background()

	t.Run("refused while an installment is open", func(t *testing.T) {
		userUID, quotaID := factory.NewTestMember(t, 2, 50)
		factory.CreateInstallment(t, quotaID, 7, 2026, 100,
			time.Date(2026, 7, 7, 0, 0, 0, 0, time.UTC), models.PaymentPendente)

		err := storage.CancelQuota(ctx, quotaID, userUID)
		require.ErrorIs(t, err, ErrConflict)
	})

	t.Run("deactivates quota and demotes the member", func(t *testing.T) {
		userUID, quotaID := factory.NewTestMember(t, 2, 50)
		factory.CreateInstallment(t, quotaID, 7, 2026, 100,
			time.Date(2026, 7, 7, 0, 0, 0, 0, time.UTC), models.PaymentPago)

		err := storage.CancelQuota(ctx, quotaID, userUID)
		require.NoError(t, err)

		_, err = storage.GetActiveQuotaByUser(ctx, userUID)
		require.ErrorIs(t, err, ErrNotFound)

		user, err := storage.GetUser(ctx, userUID)
		require.NoError(t, err)
		assert.Equal(t, models.RoleNaoCotista, user.Role)
	})
}

func TestStorage_MarkOverduePayments(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()
	factory := NewTestDataFactory(storage)

	ctx := context.Background()
	_, quotaID := factory.NewTestMember(t, 2, 50)
	overdueID := factory.CreateInstallment(t, quotaID, 5, 2026, 100,
		time.Now().AddDate(0, 0, -10), models.PaymentPendente)
	factory.CreateInstallment(t, quotaID, 12, 2030, 100,
		time.Now().AddDate(0, 0, 10), models.PaymentPendente)

	touched, err := storage.MarkOverduePayments(ctx, 2.0)
	require.NoError(t, err)
	require.Len(t, touched, 1)
	assert.Equal(t, overdueID, touched[0].ID)
	assert.Equal(t, models.PaymentAtrasado, touched[0].Status)
	assert.True(t, touched[0].JuroAplicado.Equal(decimal.NewFromInt(2)),
		"juro should be 2%% of 100, got %s", touched[0].JuroAplicado)

	// Second run finds nothing new.
	touched, err = storage.MarkOverduePayments(ctx, 2.0)
	require.NoError(t, err)
	assert.Empty(t, touched)
}

func TestStorage_ReserveTickets(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()
	factory := NewTestDataFactory(storage)

	ctx := context.Background()
	raffleID := factory.CreateRaffle(t, 7, 2026, 1000, models.RaffleAberto)
	userA, _ := factory.NewTestMember(t, 1, 50)
	userB, _ := factory.NewTestMember(t, 1, 50)
	expiresAt := time.Now().Add(models.ReservationTTL)

	tickets, err := storage.ReserveTickets(ctx, raffleID, userA, []int{7, 13, 42},
		decimal.NewFromInt(10), expiresAt)
	require.NoError(t, err)
	require.Len(t, tickets, 3)

	// A number held by a live ticket aborts the whole batch.
	_, err = storage.ReserveTickets(ctx, raffleID, userB, []int{55, 13},
		decimal.NewFromInt(10), expiresAt)
	require.ErrorIs(t, err, ErrAlreadyExists)

	got, err := storage.ListTicketsByUser(ctx, raffleID, userB)
	require.NoError(t, err)
	assert.Empty(t, got)

	// A released number can be taken again.
	_, err = storage.DB.Exec(`UPDATE raffle_tickets SET status = $1 WHERE numero_escolhido = 13`,
		models.TicketLiberado)
	require.NoError(t, err)
	_, err = storage.ReserveTickets(ctx, raffleID, userB, []int{13},
		decimal.NewFromInt(10), expiresAt)
	require.NoError(t, err)
}

func TestStorage_DrawRaffle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()
	factory := NewTestDataFactory(storage)

	ctx := context.Background()
	raffleID := factory.CreateRaffle(t, 7, 2026, 1000, models.RaffleAberto)
	userUID, _ := factory.NewTestMember(t, 1, 50)
	factory.CreateTicket(t, raffleID, userUID, 90, 10,
		models.TicketConfirmado, models.PaymentPago, time.Now().Add(time.Hour))

	err := storage.DrawRaffle(ctx, raffleID, "1234567890", 90)
	require.NoError(t, err)

	raffle, err := storage.GetRaffle(ctx, raffleID)
	require.NoError(t, err)
	assert.Equal(t, models.RaffleSorteado, raffle.Status)
	require.NotNil(t, raffle.NumeroSorteado)
	assert.Equal(t, 90, *raffle.NumeroSorteado)

	winner, err := storage.GetWinningTicket(ctx, raffleID, 90)
	require.NoError(t, err)
	assert.Equal(t, userUID, winner.UserUID)

	// Drawing twice is refused.
	err = storage.DrawRaffle(ctx, raffleID, "0000000007", 7)
	require.ErrorIs(t, err, ErrConflict)
}
