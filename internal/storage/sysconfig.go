package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/caixinha-api/internal/models"
)

// GetConfig returns the singleton configuration row.
func (s *Storage) GetConfig(ctx context.Context) (*models.SystemConfig, error) {
	const op = "storage.GetConfig"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, juro_atraso_cota, juro_emprestimo_cotista, juro_emprestimo_nao_cotista,
				  valor_premio_sorteio, valor_minimo_cota, valor_bilhete_sorteio,
				  max_admins, updated_at
			  FROM system_config
			  WHERE id = 1`
	var c models.SystemConfig
	row := s.DB.QueryRowContext(ctx, query)
	if err := row.Scan(&c.ID, &c.JuroAtrasoCota, &c.JuroEmprestimoCotista,
		&c.JuroEmprestimoNaoCotista, &c.ValorPremioSorteio, &c.ValorMinimoCota,
		&c.ValorBilheteSorteio, &c.MaxAdmins, &c.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &c, nil
}

// UpdateConfig rewrites the singleton configuration row as a whole.
func (s *Storage) UpdateConfig(ctx context.Context, c models.SystemConfig) error {
	const op = "storage.UpdateConfig"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE system_config
			  SET juro_atraso_cota = $1, juro_emprestimo_cotista = $2,
				  juro_emprestimo_nao_cotista = $3, valor_premio_sorteio = $4,
				  valor_minimo_cota = $5, valor_bilhete_sorteio = $6,
				  max_admins = $7, updated_at = NOW()
			  WHERE id = 1`
	res, err := s.DB.ExecContext(ctx, query,
		c.JuroAtrasoCota, c.JuroEmprestimoCotista, c.JuroEmprestimoNaoCotista,
		c.ValorPremioSorteio, c.ValorMinimoCota, c.ValorBilheteSorteio, c.MaxAdmins)
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
	return nil
}
