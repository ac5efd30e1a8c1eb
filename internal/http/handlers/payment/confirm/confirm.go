// Package confirm implements the admin HTTP handler that confirms a
// submitted installment payment.
package confirm

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
	quotaservice "github.com/magabrotheeeer/caixinha-api/internal/services/quota"
	"github.com/magabrotheeeer/caixinha-api/internal/storage"
)

// Handler handles payment confirmations.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service is the confirmation surface of the quota service.
type Service interface {
	ConfirmPayment(ctx context.Context, actor auth.Context, paymentID string) error
}

// New creates a Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Confirm an installment payment
// @Description Marks a submitted installment as paid, writes the audit entry and notifies the member by e-mail.
// @Tags Admin
// @Produce  json
// @Security BearerAuth
// @Param id path string true "Installment ID"
// @Success 200 {object} response.Response "Payment confirmed"
// @Failure 401 {object} response.ErrorResponse "Unauthorized"
// @Failure 403 {object} response.ErrorResponse "Admin role required"
// @Failure 404 {object} response.ErrorResponse "Installment not found"
// @Failure 409 {object} response.ErrorResponse "Installment is not awaiting confirmation"
// @Failure 500 {object} response.ErrorResponse "Server error"
// @Router /admin/payments/{id}/confirm [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.confirm"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	paymentID := chi.URLParam(r, "id")

	actor, ok := middlewarectx.Actor(r.Context())
	if !ok {
		log.Error("user identification missing")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	if err := h.service.ConfirmPayment(r.Context(), actor, paymentID); err != nil {
		switch {
		case errors.Is(err, quotaservice.ErrNotAdmin):
			log.Error("admin role required", sl.Err(err))
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error("admin role required"))
		case errors.Is(err, storage.ErrNotFound):
			log.Error("installment not found", sl.Err(err))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("installment not found"))
		case errors.Is(err, storage.ErrConflict):
			log.Error("installment not awaiting confirmation", sl.Err(err))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("installment is not awaiting confirmation"))
		default:
			log.Error("failed to confirm payment", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not confirm payment"))
		}
		return
	}

	log.Info("payment confirmed", slog.String("payment_id", paymentID))
	render.JSON(w, r, response.StatusOKWithData(nil))
}
