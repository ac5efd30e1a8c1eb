// Package configupdate implements the admin HTTP handler that rewrites
// the singleton system configuration.
package configupdate

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/caixinha-api/internal/auth"
	"github.com/magabrotheeeer/caixinha-api/internal/http/middlewarectx"
	"github.com/magabrotheeeer/caixinha-api/internal/http/response"
	"github.com/magabrotheeeer/caixinha-api/internal/lib/sl"
	"github.com/magabrotheeeer/caixinha-api/internal/models"
	configservice "github.com/magabrotheeeer/caixinha-api/internal/services/sysconfig"
)

// Handler handles configuration updates.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service is the update surface of the config service.
type Service interface {
	Update(ctx context.Context, actor auth.Context, req models.DummyUpdateConfig) (*models.SystemConfig, error)
}

// New creates a Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Update the system configuration
// @Description Rewrites the configuration row as a whole and writes the audit entry. Changes never apply retroactively.
// @Tags Admin
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.DummyUpdateConfig true "New configuration"
// @Success 200 {object} map[string]any "Configuration updated"
// @Failure 400 {object} response.ErrorResponse "Invalid JSON"
// @Failure 401 {object} response.ErrorResponse "Unauthorized"
// @Failure 403 {object} response.ErrorResponse "Admin role required"
// @Failure 422 {object} response.ErrorResponse "Validation error"
// @Failure 500 {object} response.ErrorResponse "Server error"
// @Router /admin/config [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.configupdate"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyUpdateConfig
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}
	log.Info("all fields are validated")

	actor, ok := middlewarectx.Actor(r.Context())
	if !ok {
		log.Error("user identification missing")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	cfg, err := h.service.Update(r.Context(), actor, req)
	if err != nil {
		if errors.Is(err, configservice.ErrNotAdmin) {
			log.Error("admin role required", sl.Err(err))
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error("admin role required"))
			return
		}
		log.Error("failed to update configuration", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not update configuration"))
		return
	}

	log.Info("configuration updated")
	render.JSON(w, r, response.StatusOKWithData(cfg))
}
