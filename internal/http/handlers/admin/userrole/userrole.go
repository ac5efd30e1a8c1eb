// Package userrole implements the admin HTTP handler that changes a
// user's role. Promotion to admin is bounded by the configured ceiling.
package userrole

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/caixinha-api/internal/auth"
	"github.com/magabrotheeeer/caixinha-api/internal/http/middlewarectx"
	"github.com/magabrotheeeer/caixinha-api/internal/http/response"
	"github.com/magabrotheeeer/caixinha-api/internal/lib/sl"
	"github.com/magabrotheeeer/caixinha-api/internal/models"
	configservice "github.com/magabrotheeeer/caixinha-api/internal/services/sysconfig"
	"github.com/magabrotheeeer/caixinha-api/internal/storage"
)

// Handler handles role changes.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service is the role administration surface of the config service.
type Service interface {
	UpdateRole(ctx context.Context, actor auth.Context, userUID string, req models.DummyUpdateRole) error
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
// @Summary Change a user's role
// @Description Sets the user to admin, cotista or nao_cotista. The number of admins is capped by the configuration.
// @Tags Admin
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path string true "User UID"
// @Param request body models.DummyUpdateRole true "New role"
// @Success 200 {object} response.Response "Role updated"
// @Failure 400 {object} response.ErrorResponse "Invalid JSON"
// @Failure 401 {object} response.ErrorResponse "Unauthorized"
// @Failure 403 {object} response.ErrorResponse "Admin role required"
// @Failure 404 {object} response.ErrorResponse "User not found"
// @Failure 409 {object} response.ErrorResponse "Admin ceiling reached"
// @Failure 422 {object} response.ErrorResponse "Validation error"
// @Failure 500 {object} response.ErrorResponse "Server error"
// @Router /admin/users/{id}/role [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.userrole"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID := chi.URLParam(r, "id")

	var req models.DummyUpdateRole
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

	actor, ok := middlewarectx.Actor(r.Context())
	if !ok {
		log.Error("user identification missing")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	if err := h.service.UpdateRole(r.Context(), actor, userUID, req); err != nil {
		switch {
		case errors.Is(err, configservice.ErrNotAdmin):
			log.Error("admin role required", sl.Err(err))
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error("admin role required"))
		case errors.Is(err, storage.ErrNotFound):
			log.Error("user not found", sl.Err(err))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("user not found"))
		case errors.Is(err, storage.ErrConflict):
			log.Error("admin ceiling reached", sl.Err(err))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("the configured number of admins is already reached"))
		default:
			log.Error("failed to update role", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not update role"))
		}
		return
	}

	log.Info("role updated", slog.String("user_uid", userUID), slog.String("role", req.Role))
	render.JSON(w, r, response.StatusOKWithData(nil))
}
