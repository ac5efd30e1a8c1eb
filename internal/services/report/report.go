// Package services implements the cached admin aggregation views:
// dashboard overview and per-member revenue history.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/caixinha-api/internal/auth"
	"github.com/magabrotheeeer/caixinha-api/internal/lib/sl"
	"github.com/magabrotheeeer/caixinha-api/internal/models"
)

// ErrNotAdmin is returned when a non-admin calls an admin view.
var ErrNotAdmin = errors.New("admin role required")

// Aggregates stay cached this long; they feed review screens, not
// money movements.
const cacheTTL = 5 * time.Minute

// ReportRepository computes the aggregates in SQL.
type ReportRepository interface {
	GetDashboard(ctx context.Context) (*models.Dashboard, error)
	GetRevenueHistory(ctx context.Context, ano int) ([]*models.RevenueEntry, error)
}

// Cache is the read-model cache surface.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// ReportService serves the cached admin aggregation views.
type ReportService struct {
	repo  ReportRepository
	cache Cache
	log   *slog.Logger
}

// NewReportService creates a ReportService.
func NewReportService(repo ReportRepository, cache Cache, log *slog.Logger) *ReportService {
	return &ReportService{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

// Dashboard returns the admin overview, cached.
func (s *ReportService) Dashboard(ctx context.Context, actor auth.Context) (*models.Dashboard, error) {
	if !actor.IsAdmin() {
		return nil, ErrNotAdmin
	}

	const cacheKey = "report:dashboard"
	var cached *models.Dashboard
	found, err := s.cache.Get(cacheKey, &cached)
	if err != nil {
		s.log.Warn("failed to read dashboard cache", sl.Err(err))
	}
	if found {
		return cached, nil
	}

	dashboard, err := s.repo.GetDashboard(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(cacheKey, dashboard, cacheTTL); err != nil {
		s.log.Warn("failed to cache dashboard", sl.Err(err))
	}
	return dashboard, nil
}

// Revenue returns the per-member revenue history of one year, cached.
func (s *ReportService) Revenue(ctx context.Context, actor auth.Context, ano int) ([]*models.RevenueEntry, error) {
	if !actor.IsAdmin() {
		return nil, ErrNotAdmin
	}

	cacheKey := fmt.Sprintf("report:revenue:%d", ano)
	var cached []*models.RevenueEntry
	found, err := s.cache.Get(cacheKey, &cached)
	if err != nil {
		s.log.Warn("failed to read revenue cache", sl.Err(err))
	}
	if found {
		return cached, nil
	}

	entries, err := s.repo.GetRevenueHistory(ctx, ano)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(cacheKey, entries, cacheTTL); err != nil {
		s.log.Warn("failed to cache revenue history", sl.Err(err))
	}
	return entries, nil
}
