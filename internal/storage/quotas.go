package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/caixinha-api/internal/models"
)

// CreateQuotaWithFirstPayment inserts the quota and its first monthly
// installment in one transaction, promoting the owner to cotista. The
// partial unique index on active quotas rejects a second registration.
func (s *Storage) CreateQuotaWithFirstPayment(ctx context.Context, quota models.Quota, first models.QuotaPayment) (string, error) {
	const op = "storage.CreateQuotaWithFirstPayment"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var quotaID string
	query := `INSERT INTO quotas (user_uid, num_cotas, valor_por_cota, status)
			  VALUES ($1, $2, $3, $4)
			  RETURNING id`
	if err := tx.QueryRowContext(ctx, query,
		quota.UserUID, quota.NumCotas, quota.ValorPorCota, models.QuotaAtiva).Scan(&quotaID); err != nil {
		if isUniqueViolation(err) {
			return "", fmt.Errorf("%s: %w", op, ErrAlreadyExists)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}

	query = `INSERT INTO quota_payments (quota_id, mes_referencia, ano_referencia, valor_pago,
				  data_vencimento, status)
			  VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := tx.ExecContext(ctx, query,
		quotaID, first.MesReferencia, first.AnoReferencia, first.ValorPago,
		first.DataVencimento, models.PaymentPendente); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	query = `UPDATE users SET role = $1 WHERE uid = $2 AND role = $3`
	if _, err := tx.ExecContext(ctx, query,
		models.RoleCotista, quota.UserUID, models.RoleNaoCotista); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return quotaID, nil
}

// GetActiveQuotaByUser returns the user's active quota.
func (s *Storage) GetActiveQuotaByUser(ctx context.Context, userUID string) (*models.Quota, error) {
	const op = "storage.GetActiveQuotaByUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, num_cotas, valor_por_cota, status, data_cadastro
			  FROM quotas
			  WHERE user_uid = $1 AND status = $2`
	var q models.Quota
	row := s.DB.QueryRowContext(ctx, query, userUID, models.QuotaAtiva)
	if err := row.Scan(&q.ID, &q.UserUID, &q.NumCotas, &q.ValorPorCota,
		&q.Status, &q.DataCadastro); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &q, nil
}

// AddQuotas raises the quota count and resizes every open installment
// due today or later to the new monthly obligation. Past-due rows keep
// the amount they were billed at. When no future open installment
// exists the prepared next-month installment is inserted instead.
func (s *Storage) AddQuotas(ctx context.Context, quotaID string, newNumCotas int,
	newObligation decimal.Decimal, next models.QuotaPayment) error {
	const op = "storage.AddQuotas"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	res, err := tx.ExecContext(ctx,
		`UPDATE quotas SET num_cotas = $1 WHERE id = $2 AND status = $3`,
		newNumCotas, quotaID, models.QuotaAtiva)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	query := `UPDATE quota_payments
			  SET valor_pago = $1
			  WHERE quota_id = $2 AND status IN ($3, $4)
				  AND data_vencimento >= CURRENT_DATE`
	res, err = tx.ExecContext(ctx, query,
		newObligation, quotaID, models.PaymentPendente, models.PaymentAguardando)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	resized, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if resized == 0 {
		query = `INSERT INTO quota_payments (quota_id, mes_referencia, ano_referencia, valor_pago,
					  data_vencimento, status)
				  VALUES ($1, $2, $3, $4, $5, $6)
				  ON CONFLICT (quota_id, mes_referencia, ano_referencia) DO NOTHING`
		if _, err := tx.ExecContext(ctx, query,
			quotaID, next.MesReferencia, next.AnoReferencia, newObligation,
			next.DataVencimento, models.PaymentPendente); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// CancelQuota deactivates the quota and demotes the owner back to
// não cotista. The cancellation is refused while any installment is
// still open (pendente, aguardando_confirmacao or atrasado).
func (s *Storage) CancelQuota(ctx context.Context, quotaID, userUID string) error {
	const op = "storage.CancelQuota"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var open int
	query := `SELECT COUNT(*) FROM quota_payments
			  WHERE quota_id = $1 AND status IN ($2, $3, $4)`
	if err := tx.QueryRowContext(ctx, query, quotaID,
		models.PaymentPendente, models.PaymentAguardando, models.PaymentAtrasado).Scan(&open); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if open > 0 {
		return fmt.Errorf("%s: %w", op, ErrConflict)
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE quotas SET status = $1 WHERE id = $2 AND user_uid = $3 AND status = $4`,
		models.QuotaInativa, quotaID, userUID, models.QuotaAtiva)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET role = $1 WHERE uid = $2 AND role = $3`,
		models.RoleNaoCotista, userUID, models.RoleCotista); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
