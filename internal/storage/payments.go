package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/caixinha-api/internal/models"
)

// GetPayment returns one installment by its ID.
func (s *Storage) GetPayment(ctx context.Context, paymentID string) (*models.QuotaPayment, error) {
	const op = "storage.GetPayment"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, quota_id, mes_referencia, ano_referencia, valor_pago,
				  data_vencimento, data_pagamento, juro_aplicado, status,
				  forma_pagamento, comprovante_url
			  FROM quota_payments
			  WHERE id = $1`
	var p models.QuotaPayment
	var dataPagamento sql.NullTime
	var formaPagamento sql.NullString
	row := s.DB.QueryRowContext(ctx, query, paymentID)
	if err := row.Scan(&p.ID, &p.QuotaID, &p.MesReferencia, &p.AnoReferencia, &p.ValorPago,
		&p.DataVencimento, &dataPagamento, &p.JuroAplicado, &p.Status,
		&formaPagamento, &p.ComprovanteURL); err != nil {
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

// ListPaymentsByQuota returns the installments of one quota, newest
// reference month first.
func (s *Storage) ListPaymentsByQuota(ctx context.Context, quotaID string) ([]*models.QuotaPayment, error) {
	const op = "storage.ListPaymentsByQuota"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, quota_id, mes_referencia, ano_referencia, valor_pago,
				  data_vencimento, data_pagamento, juro_aplicado, status,
				  forma_pagamento, comprovante_url
			  FROM quota_payments
			  WHERE quota_id = $1
			  ORDER BY ano_referencia DESC, mes_referencia DESC`
	rows, err := s.DB.QueryContext(ctx, query, quotaID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.QuotaPayment
	for rows.Next() {
		var p models.QuotaPayment
		var dataPagamento sql.NullTime
		var formaPagamento sql.NullString
		if err := rows.Scan(&p.ID, &p.QuotaID, &p.MesReferencia, &p.AnoReferencia, &p.ValorPago,
			&p.DataVencimento, &dataPagamento, &p.JuroAplicado, &p.Status,
			&formaPagamento, &p.ComprovanteURL); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if dataPagamento.Valid {
			p.DataPagamento = &dataPagamento.Time
		}
		if formaPagamento.Valid {
			p.FormaPagamento = formaPagamento.String
		}
		result = append(result, &p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// SubmitPayment moves an open installment to aguardando_confirmacao,
// recording the payment method and the receipt. Late installments can
// be submitted too; the stored juro stays on the row.
func (s *Storage) SubmitPayment(ctx context.Context, paymentID, quotaID, formaPagamento string, comprovanteURL *string) error {
	const op = "storage.SubmitPayment"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE quota_payments
			  SET status = $1, forma_pagamento = $2, comprovante_url = $3
			  WHERE id = $4 AND quota_id = $5 AND status IN ($6, $7)`
	res, err := s.DB.ExecContext(ctx, query,
		models.PaymentAguardando, formaPagamento, comprovanteURL,
		paymentID, quotaID, models.PaymentPendente, models.PaymentAtrasado)
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

// ConfirmPayment marks a submitted installment as paid. The payment
// method defaults to dinheiro when the member never declared one.
func (s *Storage) ConfirmPayment(ctx context.Context, paymentID string) error {
	const op = "storage.ConfirmPayment"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE quota_payments
			  SET status = $1, data_pagamento = NOW(),
				  forma_pagamento = COALESCE(forma_pagamento, $2)
			  WHERE id = $3 AND status = $4`
	res, err := s.DB.ExecContext(ctx, query,
		models.PaymentPago, models.MethodDinheiro, paymentID, models.PaymentAguardando)
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

// RejectPayment sends a submitted installment back to its previous open
// state, clearing the receipt. Past-due installments return to atrasado
// so the stored juro keeps applying.
func (s *Storage) RejectPayment(ctx context.Context, paymentID string) error {
	const op = "storage.RejectPayment"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE quota_payments
			  SET status = CASE WHEN data_vencimento < CURRENT_DATE THEN $1 ELSE $2 END,
				  forma_pagamento = NULL, comprovante_url = NULL
			  WHERE id = $3 AND status = $4`
	res, err := s.DB.ExecContext(ctx, query,
		models.PaymentAtrasado, models.PaymentPendente, paymentID, models.PaymentAguardando)
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

// ListPendingPayments returns every installment awaiting confirmation,
// joined with the owning member.
func (s *Storage) ListPendingPayments(ctx context.Context) ([]*models.PendingPayment, error) {
	const op = "storage.ListPendingPayments"
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
			  WHERE p.status = $1
			  ORDER BY p.data_vencimento`
	rows, err := s.DB.QueryContext(ctx, query, models.PaymentAguardando)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.PendingPayment
	for rows.Next() {
		var p models.PendingPayment
		var dataPagamento sql.NullTime
		var formaPagamento sql.NullString
		if err := rows.Scan(&p.ID, &p.QuotaID, &p.MesReferencia, &p.AnoReferencia, &p.ValorPago,
			&p.DataVencimento, &dataPagamento, &p.JuroAplicado, &p.Status,
			&formaPagamento, &p.ComprovanteURL,
			&p.UserUID, &p.Email, &p.FullName); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if dataPagamento.Valid {
			p.DataPagamento = &dataPagamento.Time
		}
		if formaPagamento.Valid {
			p.FormaPagamento = formaPagamento.String
		}
		result = append(result, &p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// MarkOverduePayments flags every pendente installment past its due
// date as atrasado, pricing the late interest from the given percent.
// The touched rows come back joined with their members so the caller
// can notify them.
func (s *Storage) MarkOverduePayments(ctx context.Context, juroPercent float64) ([]*models.PendingPayment, error) {
	const op = "storage.MarkOverduePayments"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE quota_payments p
			  SET status = $1,
				  juro_aplicado = ROUND(p.valor_pago * $2 / 100, 2)
			  FROM quotas q
			  JOIN users u ON q.user_uid = u.uid
			  WHERE p.quota_id = q.id
				AND p.status = $3
				AND p.data_vencimento < CURRENT_DATE
			  RETURNING p.id, p.quota_id, p.mes_referencia, p.ano_referencia, p.valor_pago,
				  p.data_vencimento, p.juro_aplicado, p.status,
				  u.uid, u.email, u.full_name`
	rows, err := s.DB.QueryContext(ctx, query,
		models.PaymentAtrasado, juroPercent, models.PaymentPendente)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.PendingPayment
	for rows.Next() {
		var p models.PendingPayment
		if err := rows.Scan(&p.ID, &p.QuotaID, &p.MesReferencia, &p.AnoReferencia, &p.ValorPago,
			&p.DataVencimento, &p.JuroAplicado, &p.Status,
			&p.UserUID, &p.Email, &p.FullName); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// CountPaidInstallments returns how many installments of the quota have
// been paid.
func (s *Storage) CountPaidInstallments(ctx context.Context, quotaID string) (int, error) {
	const op = "storage.CountPaidInstallments"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT COUNT(*) FROM quota_payments WHERE quota_id = $1 AND status = $2`
	var count int
	if err := s.DB.QueryRowContext(ctx, query, quotaID, models.PaymentPago).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}

// CreateMonthlyInstallments inserts the current month installment for
// every active quota that does not have one yet, returning how many
// rows were created.
func (s *Storage) CreateMonthlyInstallments(ctx context.Context, mes, ano int, dueDate string) (int, error) {
	const op = "storage.CreateMonthlyInstallments"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO quota_payments (quota_id, mes_referencia, ano_referencia, valor_pago,
				  data_vencimento, status)
			  SELECT q.id, $1, $2, q.num_cotas * q.valor_por_cota, $3::date, $4
			  FROM quotas q
			  WHERE q.status = $5
				AND date_trunc('month', q.data_cadastro) < make_date($2, $1, 1)
			  ON CONFLICT (quota_id, mes_referencia, ano_referencia) DO NOTHING`
	res, err := s.DB.ExecContext(ctx, query,
		mes, ano, dueDate, models.PaymentPendente, models.QuotaAtiva)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}
