// Package settle implements the admin HTTP handler that marks an
// approved or late loan as paid off.
package settle

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/caixinha-api/internal/auth"
	"github.com/magabrotheeeer/caixinha-api/internal/http/middlewarectx"
	"github.com/magabrotheeeer/caixinha-api/internal/http/response"
	"github.com/magabrotheeeer/caixinha-api/internal/lib/sl"
	loanservice "github.com/magabrotheeeer/caixinha-api/internal/services/loan"
	"github.com/magabrotheeeer/caixinha-api/internal/storage"
)

// Handler handles loan settlements.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service is the settlement surface of the loan service.
type Service interface {
	Settle(ctx context.Context, actor auth.Context, loanID string) error
}

// New creates a Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Settle a loan
// @Description Moves an approved or late loan to quitado and writes the audit entry.
// @Tags Admin
// @Produce  json
// @Security BearerAuth
// @Param id path string true "Loan ID"
// @Success 200 {object} response.Response "Loan settled"
// @Failure 401 {object} response.ErrorResponse "Unauthorized"
// @Failure 403 {object} response.ErrorResponse "Admin role required"
// @Failure 404 {object} response.ErrorResponse "Loan not found"
// @Failure 409 {object} response.ErrorResponse "Loan is not open"
// @Failure 500 {object} response.ErrorResponse "Server error"
// @Router /admin/loans/{id}/settle [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.loan.settle"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	loanID := chi.URLParam(r, "id")

	actor, ok := middlewarectx.Actor(r.Context())
	if !ok {
		log.Error("user identification missing")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	if err := h.service.Settle(r.Context(), actor, loanID); err != nil {
		switch {
		case errors.Is(err, loanservice.ErrNotAdmin):
			log.Error("admin role required", sl.Err(err))
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error("admin role required"))
		case errors.Is(err, storage.ErrNotFound):
			log.Error("loan not found", sl.Err(err))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("loan not found"))
		case errors.Is(err, storage.ErrConflict):
			log.Error("loan not open", sl.Err(err))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("loan is not open"))
		default:
			log.Error("failed to settle loan", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not settle loan"))
		}
		return
	}

	log.Info("loan settled", slog.String("loan_id", loanID))
	render.JSON(w, r, response.StatusOKWithData(nil))
}
