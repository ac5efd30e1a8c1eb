// Package current implements the HTTP handler that returns this
// month's raffle with the taken numbers and the caller's tickets.
package current

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
	raffleservice "github.com/magabrotheeeer/caixinha-api/internal/services/raffle"
)

// Handler handles current raffle reads.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service is the read surface of the raffle service.
type Service interface {
	Current(ctx context.Context, actor auth.Context) (*raffleservice.RaffleView, error)
}

// New creates a Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Read the current raffle
// @Description Returns this month's raffle, the numbers already taken and the caller's own tickets. The raffle is created on first access.
// @Tags Raffles
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} map[string]any "Current raffle"
// @Failure 401 {object} response.ErrorResponse "Unauthorized"
// @Failure 500 {object} response.ErrorResponse "Server error"
// @Router /raffles/current [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.raffle.current"

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

	view, err := h.service.Current(r.Context(), actor)
	if err != nil {
		log.Error("failed to read current raffle", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not read current raffle"))
		return
	}

	log.Info("current raffle read", slog.String("raffle_id", view.Raffle.ID))
	render.JSON(w, r, response.StatusOKWithData(view))
}
