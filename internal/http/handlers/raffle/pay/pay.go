// Package pay implements the HTTP handler that records the member's
// payment claim on a reserved raffle ticket. The request is multipart:
// a forma_pagamento field plus an optional comprovante file, which is
// mandatory for PIX.
package pay

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/caixinha-api/internal/auth"
	"github.com/magabrotheeeer/caixinha-api/internal/http/middlewarectx"
	"github.com/magabrotheeeer/caixinha-api/internal/http/response"
	"github.com/magabrotheeeer/caixinha-api/internal/lib/sl"
	raffleservice "github.com/magabrotheeeer/caixinha-api/internal/services/raffle"
	"github.com/magabrotheeeer/caixinha-api/internal/storage"
)

// Receipt uploads are capped at 10 MiB.
const maxReceiptSize = 10 << 20

// Handler handles ticket payment submissions.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service is the payment surface of the raffle service.
type Service interface {
	SubmitPayment(ctx context.Context, actor auth.Context, ticketID,
		formaPagamento, filename string, receipt io.Reader) error
}

// New creates a Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Submit a ticket payment
// @Description Marks a reserved ticket as awaiting admin confirmation. PIX requires an uploaded receipt; cash does not.
// @Tags Raffles
// @Accept  mpfd
// @Produce  json
// @Security BearerAuth
// @Param id path string true "Ticket ID"
// @Param forma_pagamento formData string true "PIX or dinheiro"
// @Param comprovante formData file false "Payment receipt (jpg, png or pdf)"
// @Success 200 {object} response.Response "Payment submitted"
// @Failure 400 {object} response.ErrorResponse "Invalid method or missing receipt"
// @Failure 401 {object} response.ErrorResponse "Unauthorized"
// @Failure 403 {object} response.ErrorResponse "Admins cannot play"
// @Failure 404 {object} response.ErrorResponse "Ticket not found"
// @Failure 409 {object} response.ErrorResponse "Ticket is not open for payment"
// @Failure 500 {object} response.ErrorResponse "Server error"
// @Router /raffles/tickets/{id}/pay [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.raffle.pay"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	ticketID := chi.URLParam(r, "id")

	if err := r.ParseMultipartForm(maxReceiptSize); err != nil {
		log.Error("failed to parse multipart form", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid multipart form"))
		return
	}
	formaPagamento := r.FormValue("forma_pagamento")

	var (
		receipt  io.Reader
		filename string
	)
	file, header, err := r.FormFile("comprovante")
	if err == nil {
		defer func() { _ = file.Close() }()
		receipt = file
		filename = header.Filename
	}

	actor, ok := middlewarectx.Actor(r.Context())
	if !ok {
		log.Error("user identification missing")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	if err := h.service.SubmitPayment(r.Context(), actor, ticketID, formaPagamento, filename, receipt); err != nil {
		switch {
		case errors.Is(err, raffleservice.ErrInvalidMethod):
			log.Error("invalid payment method", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("unsupported payment method or missing receipt"))
		case errors.Is(err, raffleservice.ErrNotMember):
			log.Error("admins cannot play", sl.Err(err))
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error("admins cannot play the raffle"))
		case errors.Is(err, storage.ErrNotFound):
			log.Error("ticket not found", sl.Err(err))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("ticket not found"))
		case errors.Is(err, raffleservice.ErrReservationExpired):
			log.Error("reservation expired", sl.Err(err))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("the reservation has expired"))
		case errors.Is(err, storage.ErrConflict):
			log.Error("ticket not open for payment", sl.Err(err))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("ticket is not open for payment"))
		default:
			log.Error("failed to submit ticket payment", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not submit ticket payment"))
		}
		return
	}

	log.Info("ticket payment submitted", slog.String("ticket_id", ticketID))
	render.JSON(w, r, response.StatusOKWithData(nil))
}
