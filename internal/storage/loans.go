package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/caixinha-api/internal/models"
)

// CreateLoan saves a new loan request and returns its ID.
func (s *Storage) CreateLoan(ctx context.Context, loan models.Loan) (string, error) {
	const op = "storage.CreateLoan"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newID string
	query := `INSERT INTO loans (user_uid, valor_solicitado, valor_total_devolver, juro_aplicado,
				  tipo, status, data_vencimento)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  RETURNING id`
	if err := s.DB.QueryRowContext(ctx, query,
		loan.UserUID, loan.ValorSolicitado, loan.ValorTotalDevolver, loan.JuroAplicado,
		loan.Tipo, models.LoanPendente, loan.DataVencimento).Scan(&newID); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetLoan returns one loan by its ID.
func (s *Storage) GetLoan(ctx context.Context, loanID string) (*models.Loan, error) {
	const op = "storage.GetLoan"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, valor_solicitado, valor_total_devolver, juro_aplicado,
				  tipo, status, data_solicitacao, data_vencimento
			  FROM loans
			  WHERE id = $1`
	var l models.Loan
	row := s.DB.QueryRowContext(ctx, query, loanID)
	if err := row.Scan(&l.ID, &l.UserUID, &l.ValorSolicitado, &l.ValorTotalDevolver,
		&l.JuroAplicado, &l.Tipo, &l.Status, &l.DataSolicitacao, &l.DataVencimento); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &l, nil
}

// ListLoansByUser returns the user's loans, newest first.
func (s *Storage) ListLoansByUser(ctx context.Context, userUID string) ([]*models.Loan, error) {
	const op = "storage.ListLoansByUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, valor_solicitado, valor_total_devolver, juro_aplicado,
				  tipo, status, data_solicitacao, data_vencimento
			  FROM loans
			  WHERE user_uid = $1
			  ORDER BY data_solicitacao DESC`
	rows, err := s.DB.QueryContext(ctx, query, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Loan
	for rows.Next() {
		var l models.Loan
		if err := rows.Scan(&l.ID, &l.UserUID, &l.ValorSolicitado, &l.ValorTotalDevolver,
			&l.JuroAplicado, &l.Tipo, &l.Status, &l.DataSolicitacao, &l.DataVencimento); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &l)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// HasOpenLoan reports whether the user already has a pendente, aprovado
// or atrasado loan.
func (s *Storage) HasOpenLoan(ctx context.Context, userUID string) (bool, error) {
	const op = "storage.HasOpenLoan"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT EXISTS (
				  SELECT 1 FROM loans
				  WHERE user_uid = $1 AND status IN ($2, $3, $4)
			  )`
	var exists bool
	if err := s.DB.QueryRowContext(ctx, query, userUID,
		models.LoanPendente, models.LoanAprovado, models.LoanAtrasado).Scan(&exists); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}

// ListPendingLoans returns every loan request awaiting review, joined
// with the requester.
func (s *Storage) ListPendingLoans(ctx context.Context) ([]*models.PendingLoan, error) {
	const op = "storage.ListPendingLoans"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT l.id, l.user_uid, l.valor_solicitado, l.valor_total_devolver, l.juro_aplicado,
				  l.tipo, l.status, l.data_solicitacao, l.data_vencimento,
				  u.email, u.full_name
			  FROM loans l
			  JOIN users u ON l.user_uid = u.uid
			  WHERE l.status = $1
			  ORDER BY l.data_solicitacao`
	rows, err := s.DB.QueryContext(ctx, query, models.LoanPendente)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.PendingLoan
	for rows.Next() {
		var l models.PendingLoan
		if err := rows.Scan(&l.ID, &l.UserUID, &l.ValorSolicitado, &l.ValorTotalDevolver,
			&l.JuroAplicado, &l.Tipo, &l.Status, &l.DataSolicitacao, &l.DataVencimento,
			&l.Email, &l.FullName); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &l)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdateLoanStatus moves a loan from one status to another, refusing
// any other transition.
func (s *Storage) UpdateLoanStatus(ctx context.Context, loanID, fromStatus, toStatus string) error {
	const op = "storage.UpdateLoanStatus"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE loans SET status = $1 WHERE id = $2 AND status = $3`
	res, err := s.DB.ExecContext(ctx, query, toStatus, loanID, fromStatus)
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

// SettleLoan marks an aprovado or atrasado loan as quitado.
func (s *Storage) SettleLoan(ctx context.Context, loanID string) error {
	const op = "storage.SettleLoan"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE loans SET status = $1 WHERE id = $2 AND status IN ($3, $4)`
	res, err := s.DB.ExecContext(ctx, query,
		models.LoanQuitado, loanID, models.LoanAprovado, models.LoanAtrasado)
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

// MarkOverdueLoans flags every aprovado loan past its due date as
// atrasado, returning the touched rows joined with their borrowers.
func (s *Storage) MarkOverdueLoans(ctx context.Context) ([]*models.PendingLoan, error) {
	const op = "storage.MarkOverdueLoans"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE loans l
			  SET status = $1
			  FROM users u
			  WHERE l.user_uid = u.uid
				AND l.status = $2
				AND l.data_vencimento < CURRENT_DATE
			  RETURNING l.id, l.user_uid, l.valor_solicitado, l.valor_total_devolver,
				  l.juro_aplicado, l.tipo, l.status, l.data_solicitacao, l.data_vencimento,
				  u.email, u.full_name`
	rows, err := s.DB.QueryContext(ctx, query, models.LoanAtrasado, models.LoanAprovado)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.PendingLoan
	for rows.Next() {
		var l models.PendingLoan
		if err := rows.Scan(&l.ID, &l.UserUID, &l.ValorSolicitado, &l.ValorTotalDevolver,
			&l.JuroAplicado, &l.Tipo, &l.Status, &l.DataSolicitacao, &l.DataVencimento,
			&l.Email, &l.FullName); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &l)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
