// Package draw implements the admin HTTP handler that closes a raffle
// with the federal lottery result.
package draw

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
	raffleservice "github.com/magabrotheeeer/caixinha-api/internal/services/raffle"
	"github.com/magabrotheeeer/caixinha-api/internal/storage"
)

// Handler handles raffle draws.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service is the draw surface of the raffle service.
type Service interface {
	Draw(ctx context.Context, actor auth.Context, raffleID string, req models.DummyDrawRaffle) (*raffleservice.DrawResult, error)
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
// @Summary Draw a raffle
// @Description Closes the raffle with the winning number taken from the last two digits of the lottery result. 00 is rejected and the raffle stays open.
// @Tags Admin
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path string true "Raffle ID"
// @Param request body models.DummyDrawRaffle true "Federal lottery result"
// @Success 200 {object} map[string]any "Raffle drawn"
// @Failure 400 {object} response.ErrorResponse "Result does not yield a number between 1 and 100"
// @Failure 401 {object} response.ErrorResponse "Unauthorized"
// @Failure 403 {object} response.ErrorResponse "Admin role required"
// @Failure 404 {object} response.ErrorResponse "Raffle not found"
// @Failure 409 {object} response.ErrorResponse "Raffle already drawn"
// @Failure 422 {object} response.ErrorResponse "Validation error"
// @Failure 500 {object} response.ErrorResponse "Server error"
// @Router /admin/raffles/{id}/draw [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.raffle.draw"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	raffleID := chi.URLParam(r, "id")

	var req models.DummyDrawRaffle
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

	result, err := h.service.Draw(r.Context(), actor, raffleID, req)
	if err != nil {
		switch {
		case errors.Is(err, raffleservice.ErrNotAdmin):
			log.Error("admin role required", sl.Err(err))
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error("admin role required"))
		case errors.Is(err, raffleservice.ErrInvalidResult):
			log.Error("invalid lottery result", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("lottery result does not yield a number between 1 and 100"))
		case errors.Is(err, storage.ErrNotFound):
			log.Error("raffle not found", sl.Err(err))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("raffle not found"))
		case errors.Is(err, storage.ErrConflict):
			log.Error("raffle already drawn", sl.Err(err))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("raffle already drawn"))
		default:
			log.Error("failed to draw raffle", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not draw raffle"))
		}
		return
	}

	log.Info("raffle drawn",
		slog.String("raffle_id", raffleID),
		slog.Bool("has_winner", result.Winner != nil))
	render.JSON(w, r, response.StatusOKWithData(result))
}
