// Package configget implements the admin HTTP handler that returns the
// singleton system configuration.
package configget

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
	configservice "github.com/magabrotheeeer/caixinha-api/internal/services/sysconfig"
)

// Handler handles configuration reads.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service is the read surface of the config service.
type Service interface {
	Get(ctx context.Context, actor auth.Context) (*models.SystemConfig, error)
}

// New creates a Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Read the system configuration
// @Description Returns the current rates, prices and the admin ceiling.
// @Tags Admin
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} map[string]any "Configuration"
// @Failure 401 {object} response.ErrorResponse "Unauthorized"
// @Failure 403 {object} response.ErrorResponse "Admin role required"
// @Failure 500 {object} response.ErrorResponse "Server error"
// @Router /admin/config [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.configget"

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

	cfg, err := h.service.Get(r.Context(), actor)
	if err != nil {
		if errors.Is(err, configservice.ErrNotAdmin) {
			log.Error("admin role required", sl.Err(err))
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error("admin role required"))
			return
		}
		log.Error("failed to read configuration", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not read configuration"))
		return
	}

	log.Info("configuration read")
	render.JSON(w, r, response.StatusOKWithData(cfg))
}
