// Package get implements the HTTP handler that returns the caller's
// quota with its installment history.
package get

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
	quotaservice "github.com/magabrotheeeer/caixinha-api/internal/services/quota"
	"github.com/magabrotheeeer/caixinha-api/internal/storage"
)

// Handler handles quota read requests.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service is the read surface of the quota service.
type Service interface {
	Get(ctx context.Context, actor auth.Context) (*quotaservice.QuotaView, error)
}

// New creates a Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Read my quota
// @Description Returns the caller's active quota and its installments, newest first.
// @Tags Quotas
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} map[string]any "Quota with installments"
// @Failure 401 {object} response.ErrorResponse "Unauthorized"
// @Failure 403 {object} response.ErrorResponse "Admins cannot hold quotas"
// @Failure 404 {object} response.ErrorResponse "No active quota"
// @Failure 500 {object} response.ErrorResponse "Server error"
// @Router /quotas [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.quota.get"

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

	view, err := h.service.Get(r.Context(), actor)
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
			log.Error("failed to read quota", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not read quota"))
		}
		return
	}

	log.Info("quota read", slog.String("quota_id", view.Quota.ID))
	render.JSON(w, r, response.StatusOKWithData(view))
}
