// Package services implements administration of the singleton system
// configuration and of user roles.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/caixinha-api/internal/auth"
	"github.com/magabrotheeeer/caixinha-api/internal/lib/sl"
	"github.com/magabrotheeeer/caixinha-api/internal/models"
)

// ErrNotAdmin is returned when a non-admin calls an admin operation.
var ErrNotAdmin = errors.New("admin role required")

// ConfigRepository is the persistence surface of the configuration and
// user administration.
type ConfigRepository interface {
	GetConfig(ctx context.Context) (*models.SystemConfig, error)
	UpdateConfig(ctx context.Context, c models.SystemConfig) error
	ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error)
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	UpdateUserRole(ctx context.Context, userUID, role string, maxAdmins int) error
	LogAdminAction(ctx context.Context, action models.AdminAction) error
}

// ConfigService implements configuration and user administration.
type ConfigService struct {
	repo ConfigRepository
	log  *slog.Logger
}

// NewConfigService creates a ConfigService.
func NewConfigService(repo ConfigRepository, log *slog.Logger) *ConfigService {
	return &ConfigService{
		repo: repo,
		log:  log,
	}
}

// Get returns the singleton configuration row.
func (s *ConfigService) Get(ctx context.Context, actor auth.Context) (*models.SystemConfig, error) {
	if !actor.IsAdmin() {
		return nil, ErrNotAdmin
	}
	return s.repo.GetConfig(ctx)
}

// Update rewrites the configuration row as a whole and logs the admin
// action with before and after snapshots. Changes apply to subsequent
// calculations only, never retroactively.
func (s *ConfigService) Update(ctx context.Context, actor auth.Context, req models.DummyUpdateConfig) (*models.SystemConfig, error) {
	if !actor.IsAdmin() {
		return nil, ErrNotAdmin
	}

	before, err := s.repo.GetConfig(ctx)
	if err != nil {
		return nil, err
	}

	next := models.SystemConfig{
		JuroAtrasoCota:           decimal.NewFromFloat(req.JuroAtrasoCota),
		JuroEmprestimoCotista:    decimal.NewFromFloat(req.JuroEmprestimoCotista),
		JuroEmprestimoNaoCotista: decimal.NewFromFloat(req.JuroEmprestimoNaoCotista),
		ValorPremioSorteio:       decimal.NewFromFloat(req.ValorPremioSorteio),
		ValorMinimoCota:          decimal.NewFromFloat(req.ValorMinimoCota),
		ValorBilheteSorteio:      decimal.NewFromFloat(req.ValorBilheteSorteio),
		MaxAdmins:                req.MaxAdmins,
	}
	if err := s.repo.UpdateConfig(ctx, next); err != nil {
		return nil, err
	}
	s.audit(ctx, actor, "update_config", "system_config", "1", before, next)

	s.log.Info("system configuration updated", slog.String("admin", actor.UserUID))
	return s.repo.GetConfig(ctx)
}

// ListUsers returns every registered user.
func (s *ConfigService) ListUsers(ctx context.Context, actor auth.Context, limit, offset int) ([]*models.User, error) {
	if !actor.IsAdmin() {
		return nil, ErrNotAdmin
	}
	return s.repo.ListUsers(ctx, limit, offset)
}

// UpdateRole changes a user's role. Promotion to admin is bounded by
// the configured ceiling.
func (s *ConfigService) UpdateRole(ctx context.Context, actor auth.Context, userUID string, req models.DummyUpdateRole) error {
	if !actor.IsAdmin() {
		return ErrNotAdmin
	}

	before, err := s.repo.GetUser(ctx, userUID)
	if err != nil {
		return err
	}
	cfg, err := s.repo.GetConfig(ctx)
	if err != nil {
		return err
	}
	if err := s.repo.UpdateUserRole(ctx, userUID, req.Role, cfg.MaxAdmins); err != nil {
		return err
	}
	s.audit(ctx, actor, "update_role", "users", userUID, before, req)

	s.log.Info("user role updated",
		slog.String("user_uid", userUID),
		slog.String("role", req.Role))
	return nil
}

func (s *ConfigService) audit(ctx context.Context, actor auth.Context, acao, tabela, recordID string, before, after any) {
	beforeJSON, err := json.Marshal(before)
	if err != nil {
		s.log.Warn("failed to marshal audit snapshot", sl.Err(err))
		return
	}
	afterJSON, err := json.Marshal(after)
	if err != nil {
		s.log.Warn("failed to marshal audit snapshot", sl.Err(err))
		return
	}
	action := models.AdminAction{
		AdminUID:        actor.UserUID,
		Acao:            acao,
		TabelaAfetada:   tabela,
		RegistroID:      recordID,
		DadosAnteriores: beforeJSON,
		DadosNovos:      afterJSON,
	}
	if err := s.repo.LogAdminAction(ctx, action); err != nil {
		s.log.Warn("failed to write audit log", sl.Err(err))
	}
}
