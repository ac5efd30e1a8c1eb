// Package cancel implements the HTTP handler that deactivates the
// caller's quota after the typed confirmation phrase.
package cancel

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

// Handler handles quota cancellation requests.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service is the cancellation surface of the quota service.
type Service interface {
	Cancel(ctx context.Context, actor auth.Context, req models.DummyCancelQuota) error
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
// @Summary Cancel the quota
// @Description Deactivates the caller's quota. Requires the typed confirmation phrase; open installments block the cancellation.
// @Tags Quotas
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.DummyCancelQuota true "Confirmation phrase"
// @Success 200 {object} response.Response "Quota cancelled"
// @Failure 400 {object} response.ErrorResponse "Wrong confirmation phrase"
// @Failure 401 {object} response.ErrorResponse "Unauthorized"
// @Failure 403 {object} response.ErrorResponse "Admins cannot hold quotas"
// @Failure 404 {object} response.ErrorResponse "No active quota"
// @Failure 409 {object} response.ErrorResponse "Open installments block the cancellation"
// @Failure 422 {object} response.ErrorResponse "Validation error"
// @Failure 500 {object} response.ErrorResponse "Server error"
// @Router /quotas/cancel [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.quota.cancel"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyCancelQuota
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

	if err := h.service.Cancel(r.Context(), actor, req); err != nil {
		switch {
		case errors.Is(err, quotaservice.ErrWrongConfirmation):
			log.Error("wrong confirmation phrase", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("confirmation phrase does not match"))
		case errors.Is(err, quotaservice.ErrNotMember):
			log.Error("admins cannot hold quotas", sl.Err(err))
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error("admins cannot hold quotas"))
		case errors.Is(err, storage.ErrNotFound):
			log.Error("no active quota", sl.Err(err))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("no active quota"))
		case errors.Is(err, storage.ErrConflict):
			log.Error("open installments block the cancellation", sl.Err(err))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("open installments block the cancellation"))
		default:
			log.Error("failed to cancel quota", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not cancel quota"))
		}
		return
	}

	log.Info("quota cancelled")
	render.JSON(w, r, response.StatusOKWithData(nil))
}
