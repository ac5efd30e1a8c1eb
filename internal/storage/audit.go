package storage

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/caixinha-api/internal/models"
)

// LogAdminAction appends one row to the admin audit trail.
func (s *Storage) LogAdminAction(ctx context.Context, action models.AdminAction) error {
	const op = "storage.LogAdminAction"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO admin_actions_log (admin_uid, acao, tabela_afetada, registro_id,
				  dados_anteriores, dados_novos)
			  VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := s.DB.ExecContext(ctx, query,
		action.AdminUID, action.Acao, action.TabelaAfetada, action.RegistroID,
		action.DadosAnteriores, action.DadosNovos); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
