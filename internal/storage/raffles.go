package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/caixinha-api/internal/models"
)

// GetOrCreateRaffle returns the raffle of (mes, ano), creating it with
// the given prize when it does not exist yet. The unique index on
// (mes, ano) makes concurrent creations converge on one row.
func (s *Storage) GetOrCreateRaffle(ctx context.Context, mes, ano int, premio decimal.Decimal) (*models.MonthlyRaffle, error) {
	const op = "storage.GetOrCreateRaffle"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO monthly_raffles (mes, ano, premio_valor, status)
			  VALUES ($1, $2, $3, $4)
			  ON CONFLICT (mes, ano) DO NOTHING`
	if _, err := s.DB.ExecContext(ctx, query, mes, ano, premio, models.RaffleAberto); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.getRaffleByPeriod(ctx, op, mes, ano)
}

func (s *Storage) getRaffleByPeriod(ctx context.Context, op string, mes, ano int) (*models.MonthlyRaffle, error) {
	query := `SELECT id, mes, ano, premio_valor, status, resultado_loteria,
				  numero_sorteado, data_sorteio
			  FROM monthly_raffles
			  WHERE mes = $1 AND ano = $2`
	var r models.MonthlyRaffle
	var dataSorteio sql.NullTime
	row := s.DB.QueryRowContext(ctx, query, mes, ano)
	if err := row.Scan(&r.ID, &r.Mes, &r.Ano, &r.PremioValor, &r.Status,
		&r.ResultadoLoteria, &r.NumeroSorteado, &dataSorteio); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if dataSorteio.Valid {
		r.DataSorteio = &dataSorteio.Time
	}
	return &r, nil
}

// GetRaffle returns one raffle by its ID.
func (s *Storage) GetRaffle(ctx context.Context, raffleID string) (*models.MonthlyRaffle, error) {
	const op = "storage.GetRaffle"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, mes, ano, premio_valor, status, resultado_loteria,
				  numero_sorteado, data_sorteio
			  FROM monthly_raffles
			  WHERE id = $1`
	var r models.MonthlyRaffle
	var dataSorteio sql.NullTime
	row := s.DB.QueryRowContext(ctx, query, raffleID)
	if err := row.Scan(&r.ID, &r.Mes, &r.Ano, &r.PremioValor, &r.Status,
		&r.ResultadoLoteria, &r.NumeroSorteado, &dataSorteio); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if dataSorteio.Valid {
		r.DataSorteio = &dataSorteio.Time
	}
	return &r, nil
}

// ReserveTickets inserts one reservation per chosen number in a single
// transaction. A number already held by a live ticket aborts the whole
// batch.
func (s *Storage) ReserveTickets(ctx context.Context, raffleID, userUID string, numbers []int,
	valor decimal.Decimal, expiresAt time.Time) ([]*models.RaffleTicket, error) {
	const op = "storage.ReserveTickets"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var status string
	query := `SELECT status FROM monthly_raffles WHERE id = $1 FOR UPDATE`
	if err := tx.QueryRowContext(ctx, query, raffleID).Scan(&status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if status != models.RaffleAberto {
		return nil, fmt.Errorf("%s: %w", op, ErrConflict)
	}

	query = `INSERT INTO raffle_tickets (raffle_id, user_uid, numero_escolhido, valor_pago,
				  status, pagamento_status, data_vencimento_reserva)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  RETURNING id, data_reserva`
	result := make([]*models.RaffleTicket, 0, len(numbers))
	for _, n := range numbers {
		t := &models.RaffleTicket{
			RaffleID:              raffleID,
			UserUID:               userUID,
			NumeroEscolhido:       n,
			ValorPago:             valor,
			Status:                models.TicketReservado,
			PagamentoStatus:       models.PaymentPendente,
			DataVencimentoReserva: expiresAt,
		}
		if err := tx.QueryRowContext(ctx, query,
			raffleID, userUID, n, valor, models.TicketReservado, models.PaymentPendente,
			expiresAt).Scan(&t.ID, &t.DataReserva); err != nil {
			if isUniqueViolation(err) {
				return nil, fmt.Errorf("%s: number %d: %w", op, n, ErrAlreadyExists)
			}
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, t)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListTicketsByRaffle returns every live ticket of the raffle.
func (s *Storage) ListTicketsByRaffle(ctx context.Context, raffleID string) ([]*models.RaffleTicket, error) {
	const op = "storage.ListTicketsByRaffle"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, raffle_id, user_uid, numero_escolhido, valor_pago, status,
				  pagamento_status, forma_pagamento, comprovante_url, data_reserva,
				  data_vencimento_reserva, data_pagamento
			  FROM raffle_tickets
			  WHERE raffle_id = $1 AND status <> $2
			  ORDER BY numero_escolhido`
	rows, err := s.DB.QueryContext(ctx, query, raffleID, models.TicketLiberado)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.RaffleTicket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// GetTicket returns one ticket by ID.
func (s *Storage) GetTicket(ctx context.Context, ticketID string) (*models.RaffleTicket, error) {
	const op = "storage.GetTicket"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, raffle_id, user_uid, numero_escolhido, valor_pago, status,
				  pagamento_status, forma_pagamento, comprovante_url, data_reserva,
				  data_vencimento_reserva, data_pagamento
			  FROM raffle_tickets
			  WHERE id = $1`
	rows, err := s.DB.QueryContext(ctx, query, ticketID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	if !rows.Next() {
		if err = rows.Err(); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	t, err := scanTicket(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return t, nil
}

// ListTicketsByUser returns the member's tickets in one raffle.
func (s *Storage) ListTicketsByUser(ctx context.Context, raffleID, userUID string) ([]*models.RaffleTicket, error) {
	const op = "storage.ListTicketsByUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, raffle_id, user_uid, numero_escolhido, valor_pago, status,
				  pagamento_status, forma_pagamento, comprovante_url, data_reserva,
				  data_vencimento_reserva, data_pagamento
			  FROM raffle_tickets
			  WHERE raffle_id = $1 AND user_uid = $2
			  ORDER BY numero_escolhido`
	rows, err := s.DB.QueryContext(ctx, query, raffleID, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.RaffleTicket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

func scanTicket(rows *sql.Rows) (*models.RaffleTicket, error) {
	var t models.RaffleTicket
	var dataPagamento sql.NullTime
	if err := rows.Scan(&t.ID, &t.RaffleID, &t.UserUID, &t.NumeroEscolhido, &t.ValorPago,
		&t.Status, &t.PagamentoStatus, &t.FormaPagamento, &t.ComprovanteURL, &t.DataReserva,
		&t.DataVencimentoReserva, &dataPagamento); err != nil {
		return nil, err
	}
	if dataPagamento.Valid {
		t.DataPagamento = &dataPagamento.Time
	}
	return &t, nil
}

// SubmitTicketPayment records the member's payment claim on a reserved
// ticket, moving its payment to aguardando_confirmacao. Claims on
// tickets past their reservation deadline are refused so the release
// sweep can free the number.
func (s *Storage) SubmitTicketPayment(ctx context.Context, ticketID, userUID, formaPagamento string, comprovanteURL *string) error {
	const op = "storage.SubmitTicketPayment"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE raffle_tickets
			  SET pagamento_status = $1, forma_pagamento = $2, comprovante_url = $3
			  WHERE id = $4 AND user_uid = $5 AND status = $6 AND pagamento_status = $7
				  AND data_vencimento_reserva > NOW()`
	res, err := s.DB.ExecContext(ctx, query,
		models.PaymentAguardando, formaPagamento, comprovanteURL,
		ticketID, userUID, models.TicketReservado, models.PaymentPendente)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, ErrConflict)
	}
	return nil
}

// ConfirmTickets confirms a batch of submitted tickets in one
// transaction, returning how many were confirmed. The payment method
// defaults to dinheiro when the member never declared one.
func (s *Storage) ConfirmTickets(ctx context.Context, ticketIDs []string) (int, error) {
	const op = "storage.ConfirmTickets"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `UPDATE raffle_tickets
			  SET status = $1, pagamento_status = $2, data_pagamento = NOW(),
				  forma_pagamento = COALESCE(forma_pagamento, $3)
			  WHERE id = $4 AND pagamento_status = $5`
	var confirmed int
	for _, id := range ticketIDs {
		res, err := tx.ExecContext(ctx, query,
			models.TicketConfirmado, models.PaymentPago, models.MethodDinheiro,
			id, models.PaymentAguardando)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", op, err)
		}
		rowsAffected, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("%s: %w", op, err)
		}
		confirmed += int(rowsAffected)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return confirmed, nil
}

// RejectTickets sends a batch of submitted tickets back to pendente in
// one transaction, clearing their receipts.
func (s *Storage) RejectTickets(ctx context.Context, ticketIDs []string) (int, error) {
	const op = "storage.RejectTickets"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `UPDATE raffle_tickets
			  SET pagamento_status = $1, forma_pagamento = NULL, comprovante_url = NULL
			  WHERE id = $2 AND pagamento_status = $3`
	var rejected int
	for _, id := range ticketIDs {
		res, err := tx.ExecContext(ctx, query,
			models.PaymentPendente, id, models.PaymentAguardando)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", op, err)
		}
		rowsAffected, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("%s: %w", op, err)
		}
		rejected += int(rowsAffected)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return rejected, nil
}

// ReleaseExpiredTickets frees every reservation whose payment window
// has passed without a claim, returning the freed tickets joined with
// their owners.
func (s *Storage) ReleaseExpiredTickets(ctx context.Context) ([]*models.ReleasedTicket, error) {
	const op = "storage.ReleaseExpiredTickets"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE raffle_tickets t
			  SET status = $1
			  FROM users u, monthly_raffles r
			  WHERE t.user_uid = u.uid
				AND t.raffle_id = r.id
				AND t.status = $2
				AND t.pagamento_status = $3
				AND t.data_vencimento_reserva < NOW()
			  RETURNING t.id, t.numero_escolhido, r.mes, r.ano, u.uid, u.email, u.full_name`
	rows, err := s.DB.QueryContext(ctx, query,
		models.TicketLiberado, models.TicketReservado, models.PaymentPendente)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.ReleasedTicket
	for rows.Next() {
		var rt models.ReleasedTicket
		if err := rows.Scan(&rt.TicketID, &rt.NumeroEscolhido, &rt.Mes, &rt.Ano,
			&rt.UserUID, &rt.Email, &rt.FullName); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &rt)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// DrawRaffle records the lottery result and the winning number, closing
// the raffle for good. Drawing twice is refused.
func (s *Storage) DrawRaffle(ctx context.Context, raffleID, resultado string, numero int) error {
	const op = "storage.DrawRaffle"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE monthly_raffles
			  SET status = $1, resultado_loteria = $2, numero_sorteado = $3, data_sorteio = NOW()
			  WHERE id = $4 AND status <> $1`
	res, err := s.DB.ExecContext(ctx, query,
		models.RaffleSorteado, resultado, numero, raffleID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, ErrConflict)
	}
	return nil
}

// GetWinningTicket returns the confirmed ticket holding the drawn
// number, or ErrNotFound when nobody bought it.
func (s *Storage) GetWinningTicket(ctx context.Context, raffleID string, numero int) (*models.RaffleTicket, error) {
	const op = "storage.GetWinningTicket"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, raffle_id, user_uid, numero_escolhido, valor_pago, status,
				  pagamento_status, forma_pagamento, comprovante_url, data_reserva,
				  data_vencimento_reserva, data_pagamento
			  FROM raffle_tickets
			  WHERE raffle_id = $1 AND numero_escolhido = $2 AND status = $3`
	rows, err := s.DB.QueryContext(ctx, query, raffleID, numero, models.TicketConfirmado)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	if !rows.Next() {
		if err = rows.Err(); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	t, err := scanTicket(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return t, nil
}
