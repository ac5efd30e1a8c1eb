// Package list implements the HTTP handler that returns the caller's
// loans, newest first.
package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/caixinha-api/internal/auth"
	"github.com/magabrotheeeer/caixinha-api/internal/http/middlewarectx"
	"github.com/magabrotheeeer/caixinha-api/internal/http/response"
	"github.com/magabrotheeeer/caixinha-api/internal/lib/sl"
	"github.com/magabrotheeeer/caixinha-api/internal/models"
)

// Handler handles loan list requests.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service is the list surface of the loan service.
type Service interface {
	List(ctx context.Context, actor auth.Context) ([]*models.Loan, error)
}

// New creates a Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary List my loans
// @Description Returns every loan of the caller, newest first.
// @Tags Loans
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} map[string]any "Loans"
// @Failure 401 {object} response.ErrorResponse "Unauthorized"
// @Failure 500 {object} response.ErrorResponse "Server error"
// @Router /loans [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.loan.list"

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

	loans, err := h.service.List(r.Context(), actor)
	if err != nil {
		log.Error("failed to list loans", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list loans"))
		return
	}

	log.Info("loans listed", slog.Int("count", len(loans)))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"loans": loans,
	}))
}
