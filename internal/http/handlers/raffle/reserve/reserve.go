// Package reserve implements the HTTP handler that books raffle
// numbers for the caller, all or nothing.
package reserve

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
	raffleservice "github.com/magabrotheeeer/caixinha-api/internal/services/raffle"
	"github.com/magabrotheeeer/caixinha-api/internal/storage"
)

// Handler handles number reservations.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service is the reservation surface of the raffle service.
type Service interface {
	Reserve(ctx context.Context, actor auth.Context, req models.DummyReserveNumbers) ([]*models.RaffleTicket, error)
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
// @Summary Reserve raffle numbers
// @Description Books the chosen numbers in the current raffle, all or nothing. Each reservation waits three days for payment.
// @Tags Raffles
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.DummyReserveNumbers true "Numbers between 1 and 100"
// @Success 200 {object} map[string]any "Tickets reserved"
// @Failure 400 {object} response.ErrorResponse "Invalid JSON"
// @Failure 401 {object} response.ErrorResponse "Unauthorized"
// @Failure 403 {object} response.ErrorResponse "Admins cannot play"
// @Failure 409 {object} response.ErrorResponse "A number is already taken or the raffle is closed"
// @Failure 422 {object} response.ErrorResponse "Validation error"
// @Failure 500 {object} response.ErrorResponse "Server error"
// @Router /raffles/current/reserve [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.raffle.reserve"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyReserveNumbers
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

	tickets, err := h.service.Reserve(r.Context(), actor, req)
	if err != nil {
		switch {
		case errors.Is(err, raffleservice.ErrNotMember):
			log.Error("admins cannot play", sl.Err(err))
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error("admins cannot play the raffle"))
		case errors.Is(err, storage.ErrAlreadyExists):
			log.Error("number already taken", sl.Err(err))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("a chosen number is already taken"))
		case errors.Is(err, storage.ErrConflict):
			log.Error("raffle closed", sl.Err(err))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("the raffle is not open"))
		default:
			log.Error("failed to reserve numbers", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not reserve numbers"))
		}
		return
	}

	log.Info("numbers reserved", slog.Int("count", len(tickets)))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"tickets": tickets,
	}))
}
