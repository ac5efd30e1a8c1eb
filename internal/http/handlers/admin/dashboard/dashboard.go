// Package dashboard implements the admin HTTP handler that returns the
// cached financial overview.
package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/caixinha-api/internal/auth"
	"github.com/magabrotheeeer/caixinha-api/internal/http/middlewarectx"
	"github.com/magabrotheeeer/caixinha-api/internal/http/response"
	"github.com/magabrotheeeer/caixinha-api/internal/lib/sl"
	"github.com/magabrotheeeer/caixinha-api/internal/models"
	reportservice "github.com/magabrotheeeer/caixinha-api/internal/services/report"
)

// Handler handles dashboard reads.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service is the dashboard surface of the report service.
type Service interface {
	Dashboard(ctx context.Context, actor auth.Context) (*models.Dashboard, error)
}

// New creates a Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Read the admin dashboard
// @Description Returns totals of quotas, loans and raffles plus the figures of the most recent month with activity. The result is cached.
// @Tags Admin
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} map[string]any "Dashboard"
// @Failure 401 {object} response.ErrorResponse "Unauthorized"
// @Failure 403 {object} response.ErrorResponse "Admin role required"
// @Failure 500 {object} response.ErrorResponse "Server error"
// @Router /admin/dashboard [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.dashboard"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	actor, ok := middlewarectx.Actor(r.Context())
	if !ok {
		log.Error("user identification missing")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	dashboard, err := h.service.Dashboard(r.Context(), actor)
	if err != nil {
		if errors.Is(err, reportservice.ErrNotAdmin) {
			log.Error("admin role required", sl.Err(err))
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error("admin role required"))
			return
		}
		log.Error("failed to read dashboard", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not read dashboard"))
		return
	}

	log.Info("dashboard read")
	render.JSON(w, r, response.StatusOKWithData(dashboard))
}
