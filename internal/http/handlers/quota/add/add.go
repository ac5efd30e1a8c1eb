// Package add implements the HTTP handler that raises the caller's
// quota count.
package add

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
	quotaservice "github.com/magabrotheeeer/caixinha-api/internal/services/quota"
	"github.com/magabrotheeeer/caixinha-api/internal/storage"
)

// Handler handles quota increase requests.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service is the increase surface of the quota service.
type Service interface {
	Add(ctx context.Context, actor auth.Context, req models.DummyAddQuotas) (*models.Quota, error)
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
// @Summary Add quotas
// @Description Raises the caller's quota count. Open installments are resized to the new monthly obligation.
// @Tags Quotas
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.DummyAddQuotas true "Additional quotas"
// @Success 200 {object} map[string]any "Quota updated"
// @Failure 400 {object} response.ErrorResponse "Invalid JSON"
// @Failure 401 {object} response.ErrorResponse "Unauthorized"
// @Failure 403 {object} response.ErrorResponse "Admins cannot hold quotas"
// @Failure 404 {object} response.ErrorResponse "No active quota"
// @Failure 422 {object} response.ErrorResponse "Validation error"
// @Failure 500 {object} response.ErrorResponse "Server error"
// @Router /quotas/add [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.quota.add"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyAddQuotas
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

	quota, err := h.service.Add(r.Context(), actor, req)
	if err != nil {
		switch {
		case errors.Is(err, quotaservice.ErrNotMember):
			log.Error("admins cannot hold quotas", sl.Err(err))
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error("admins cannot hold quotas"))
		case errors.Is(err, storage.ErrNotFound):
			log.Error("no active quota", sl.Err(err))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("no active quota"))
		default:
			log.Error("failed to add quotas", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not add quotas"))
		}
		return
	}

	log.Info("quotas added", slog.String("quota_id", quota.ID), slog.Int("num_cotas", quota.NumCotas))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"quota": quota,
	}))
}
