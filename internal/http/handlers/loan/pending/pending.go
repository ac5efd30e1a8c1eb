// Package pending implements the admin HTTP handler that lists the
// loan requests awaiting review.
package pending

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
	loanservice "github.com/magabrotheeeer/caixinha-api/internal/services/loan"
)

// Handler handles the pending loan review list.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service is the review surface of the loan service.
type Service interface {
	ListPending(ctx context.Context, actor auth.Context) ([]*models.PendingLoan, error)
}

// New creates a Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary List loan requests awaiting review
// @Description Returns every pending loan with its requester, for the admin review screen.
// @Tags Admin
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} map[string]any "Pending loans"
// @Failure 401 {object} response.ErrorResponse "Unauthorized"
// @Failure 403 {object} response.ErrorResponse "Admin role required"
// @Failure 500 {object} response.ErrorResponse "Server error"
// @Router /admin/loans/pending [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.loan.pending"

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

	loans, err := h.service.ListPending(r.Context(), actor)
	if err != nil {
		if errors.Is(err, loanservice.ErrNotAdmin) {
			log.Error("admin role required", sl.Err(err))
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error("admin role required"))
			return
		}
		log.Error("failed to list pending loans", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list pending loans"))
		return
	}

	log.Info("pending loans listed", slog.Int("count", len(loans)))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"loans": loans,
	}))
}
