// Package reject implements the admin HTTP handler that sends a
// submitted installment payment back to its open state.
package reject

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

// Handler handles payment rejections.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service is the rejection surface of the quota service.
type Service interface {
	RejectPayment(ctx context.Context, actor auth.Context, paymentID string) error
}

// New creates a Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Reject an installment payment
// @Description Clears the payment claim and reopens the installment, as pendente or atrasado depending on its due date.
// @Tags Admin
// @Produce  json
// @Security BearerAuth
// @Param id path string true "Installment ID"
// @Success 200 {object} response.Response "Payment rejected"
// @Failure 401 {object} response.ErrorResponse "Unauthorized"
// @Failure 403 {object} response.ErrorResponse "Admin role required"
// @Failure 404 {object} response.ErrorResponse "Installment not found"
// @Failure 409 {object} response.ErrorResponse "Installment is not awaiting confirmation"
// @Failure 500 {object} response.ErrorResponse "Server error"
// @Router /admin/payments/{id}/reject [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.reject"

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

	if err := h.service.RejectPayment(r.Context(), actor, paymentID); err != nil {
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
			log.Error("failed to reject payment", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not reject payment"))
		}
		return
	}

	log.Info("payment rejected", slog.String("payment_id", paymentID))
	render.JSON(w, r, response.StatusOKWithData(nil))
}
