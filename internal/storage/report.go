package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/caixinha-api/internal/models"
)

// GetDashboard computes the admin overview aggregate in SQL. The month
// figures use the reference period, the most recent (ano, mes) seen
// across paid installments, loans and raffles.
func (s *Storage) GetDashboard(ctx context.Context) (*models.Dashboard, error) {
	const op = "storage.GetDashboard"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT
				  (SELECT COUNT(*) FROM users WHERE role <> $1),
				  (SELECT COUNT(*) FROM users WHERE role = $2),
				  (SELECT COUNT(*) FROM quotas WHERE status = $3),
				  (SELECT COALESCE(SUM(num_cotas * valor_por_cota), 0) FROM quotas WHERE status = $3),
				  (SELECT COUNT(*) FROM quota_payments WHERE status = $4),
				  (SELECT COUNT(*) FROM quota_payments WHERE status = $5),
				  (SELECT COUNT(*) FROM loans WHERE status = $6),
				  (SELECT COALESCE(SUM(valor_total_devolver), 0) FROM loans WHERE status IN ($7, $8)),
				  (SELECT COALESCE(SUM(valor_pago + juro_aplicado), 0) FROM quota_payments WHERE status = $9)
					  + (SELECT COALESCE(SUM(valor_pago), 0) FROM raffle_tickets WHERE status = $10)
					  + (SELECT COALESCE(SUM(valor_total_devolver), 0) FROM loans WHERE status = $11),
				  (SELECT COALESCE(SUM(valor_solicitado), 0) FROM loans WHERE status IN ($7, $8, $11))`
	var d models.Dashboard
	row := s.DB.QueryRowContext(ctx, query,
		models.RoleAdmin, models.RoleCotista, models.QuotaAtiva,
		models.PaymentAguardando, models.PaymentAtrasado,
		models.LoanPendente, models.LoanAprovado, models.LoanAtrasado,
		models.PaymentPago, models.TicketConfirmado, models.LoanQuitado)
	if err := row.Scan(&d.TotalMembros, &d.TotalCotistas, &d.CotasAtivas,
		&d.ValorMensalEsperado, &d.PagamentosAguardando, &d.PagamentosAtrasados,
		&d.EmprestimosPendentes, &d.EmprestimosAbertos,
		&d.TotalArrecadado, &d.TotalEmprestado); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	query = `SELECT ano, mes FROM (
				  SELECT ano_referencia AS ano, mes_referencia AS mes
				  FROM quota_payments WHERE status = $1
				  UNION ALL
				  SELECT EXTRACT(YEAR FROM data_solicitacao)::int,
					  EXTRACT(MONTH FROM data_solicitacao)::int
				  FROM loans
				  UNION ALL
				  SELECT ano, mes FROM monthly_raffles
			  ) AS periods
			  ORDER BY ano DESC, mes DESC
			  LIMIT 1`
	err := s.DB.QueryRowContext(ctx, query, models.PaymentPago).Scan(&d.ReferenciaAno, &d.ReferenciaMes)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if d.ReferenciaAno != 0 {
		query = `SELECT
					  (SELECT COALESCE(SUM(valor_pago + juro_aplicado), 0) FROM quota_payments
						  WHERE status = $1 AND ano_referencia = $2 AND mes_referencia = $3)
						  + (SELECT COALESCE(SUM(t.valor_pago), 0) FROM raffle_tickets t
							  JOIN monthly_raffles r ON t.raffle_id = r.id
							  WHERE t.status = $4 AND r.ano = $2 AND r.mes = $3),
					  (SELECT COALESCE(SUM(valor_solicitado), 0) FROM loans
						  WHERE status IN ($5, $6, $7)
							AND EXTRACT(YEAR FROM data_solicitacao)::int = $2
							AND EXTRACT(MONTH FROM data_solicitacao)::int = $3)`
		if err := s.DB.QueryRowContext(ctx, query,
			models.PaymentPago, d.ReferenciaAno, d.ReferenciaMes,
			models.TicketConfirmado,
			models.LoanAprovado, models.LoanAtrasado, models.LoanQuitado,
		).Scan(&d.ArrecadadoMes, &d.EmprestadoMes); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	latest, err := s.latestRaffle(ctx)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	d.UltimoSorteio = latest

	return &d, nil
}

func (s *Storage) latestRaffle(ctx context.Context) (*models.MonthlyRaffle, error) {
	const op = "storage.latestRaffle"

	query := `SELECT id, mes, ano, premio_valor, status, resultado_loteria,
				  numero_sorteado, data_sorteio
			  FROM monthly_raffles
			  ORDER BY ano DESC, mes DESC
			  LIMIT 1`
	var r models.MonthlyRaffle
	var dataSorteio sql.NullTime
	row := s.DB.QueryRowContext(ctx, query)
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

// GetRevenueHistory buckets the year's collected money per member and
// month: paid installments with late interest by reference month,
// confirmed tickets by raffle month and interest of settled loans by
// due-date month.
func (s *Storage) GetRevenueHistory(ctx context.Context, ano int) ([]*models.RevenueEntry, error) {
	const op = "storage.GetRevenueHistory"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `WITH buckets AS (
				  SELECT q.user_uid, p.mes_referencia AS mes,
					  p.valor_pago + p.juro_aplicado AS cotas,
					  0::numeric AS sorteios, 0::numeric AS emprestimos
				  FROM quota_payments p
				  JOIN quotas q ON p.quota_id = q.id
				  WHERE p.status = $1 AND p.ano_referencia = $2
				  UNION ALL
				  SELECT t.user_uid, r.mes, 0, t.valor_pago, 0
				  FROM raffle_tickets t
				  JOIN monthly_raffles r ON t.raffle_id = r.id
				  WHERE t.status = $3 AND r.ano = $2
				  UNION ALL
				  SELECT l.user_uid, EXTRACT(MONTH FROM l.data_vencimento)::int,
					  0, 0, l.valor_total_devolver - l.valor_solicitado
				  FROM loans l
				  WHERE l.status = $4 AND EXTRACT(YEAR FROM l.data_vencimento)::int = $2
			  )
			  SELECT b.user_uid, u.email, u.full_name, b.mes,
				  SUM(b.cotas), SUM(b.sorteios), SUM(b.emprestimos),
				  SUM(b.cotas + b.sorteios + b.emprestimos)
			  FROM buckets b
			  JOIN users u ON b.user_uid = u.uid
			  GROUP BY b.user_uid, u.email, u.full_name, b.mes
			  ORDER BY u.full_name, b.mes`
	rows, err := s.DB.QueryContext(ctx, query,
		models.PaymentPago, ano, models.TicketConfirmado, models.LoanQuitado)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.RevenueEntry
	for rows.Next() {
		var e models.RevenueEntry
		if err := rows.Scan(&e.UserUID, &e.Email, &e.FullName, &e.Mes,
			&e.Cotas, &e.Sorteios, &e.Emprestimos, &e.Total); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// GetPaymentWithMember returns one installment joined with the owning
// member, for notifications and audit snapshots.
func (s *Storage) GetPaymentWithMember(ctx context.Context, paymentID string) (*models.PendingPayment, error) {
	const op = "storage.GetPaymentWithMember"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT p.id, p.quota_id, p.mes_referencia, p.ano_referencia, p.valor_pago,
				  p.data_vencimento, p.data_pagamento, p.juro_aplicado, p.status,
				  p.forma_pagamento, p.comprovante_url,
				  u.uid, u.email, u.full_name
			  FROM quota_payments p
			  JOIN quotas q ON p.quota_id = q.id
			  JOIN users u ON q.user_uid = u.uid
			  WHERE p.id = $1`
	var p models.PendingPayment
	var dataPagamento sql.NullTime
	var formaPagamento sql.NullString
	row := s.DB.QueryRowContext(ctx, query, paymentID)
	if err := row.Scan(&p.ID, &p.QuotaID, &p.MesReferencia, &p.AnoReferencia, &p.ValorPago,
		&p.DataVencimento, &dataPagamento, &p.JuroAplicado, &p.Status,
		&formaPagamento, &p.ComprovanteURL,
		&p.UserUID, &p.Email, &p.FullName); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if dataPagamento.Valid {
		p.DataPagamento = &dataPagamento.Time
	}
	if formaPagamento.Valid {
		p.FormaPagamento = formaPagamento.String
	}
	return &p, nil
}
