// Package revenue implements the admin HTTP handler that returns the
// per-member revenue history of one year.
package revenue

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/caixinha-api/internal/auth"
	"github.com/magabrotheeeer/caixinha-api/internal/http/middlewarectx"
	"github.com/magabrotheeeer/caixinha-api/internal/http/response"
	"github.com/magabrotheeeer/caixinha-api/internal/lib/sl"
	"github.com/magabrotheeeer/caixinha-api/internal/models"
	reportservice "github.com/magabrotheeeer/caixinha-api/internal/services/report"
)

// Handler handles revenue history reads.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service is the revenue surface of the report service.
type Service interface {
	Revenue(ctx context.Context, actor auth.Context, ano int) ([]*models.RevenueEntry, error)
}

// New creates a Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Read the revenue history
// @Description Returns what every member paid in, month by month, for the given year. The result is cached.
// @Tags Admin
// @Produce  json
// @Security BearerAuth
// @Param ano query int true "Year, e.g. 2025"
// @Success 200 {object} map[string]any "Revenue entries"
// @Failure 400 {object} response.ErrorResponse "Missing or invalid year"
// @Failure 401 {object} response.ErrorResponse "Unauthorized"
// @Failure 403 {object} response.ErrorResponse "Admin role required"
// @Failure 500 {object} response.ErrorResponse "Server error"
// @Router /admin/revenue [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.revenue"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	ano, err := strconv.Atoi(r.URL.Query().Get("ano"))
	if err != nil || ano < 2000 || ano > 9999 {
		log.Error("missing or invalid year")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("query parameter ano must be a four digit year"))
		return
	}

	actor, ok := middlewarectx.Actor(r.Context())
	if !ok {
		log.Error("user identification missing")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	entries, err := h.service.Revenue(r.Context(), actor, ano)
	if err != nil {
		if errors.Is(err, reportservice.ErrNotAdmin) {
			log.Error("admin role required", sl.Err(err))
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error("admin role required"))
			return
		}
		log.Error("failed to read revenue history", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not read revenue history"))
		return
	}

	log.Info("revenue history read", slog.Int("ano", ano), slog.Int("count", len(entries)))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"ano":     ano,
		"entries": entries,
	}))
}
