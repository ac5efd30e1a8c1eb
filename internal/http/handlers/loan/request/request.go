// Package request implements the HTTP handler that registers a loan
// request against the caller's paid quotas.
package request

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
	loanservice "github.com/magabrotheeeer/caixinha-api/internal/services/loan"
)

// Handler handles loan requests.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service is the request surface of the loan service.
type Service interface {
	Request(ctx context.Context, actor auth.Context, req models.DummyRequestLoan) (*models.Loan, error)
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
// @Summary Request a loan
// @Description Registers a loan capped by the monthly obligation. The total to return is fixed now from the configured rate, due the 1st of November.
// @Tags Loans
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.DummyRequestLoan true "Requested amount"
// @Success 200 {object} map[string]any "Loan requested"
// @Failure 400 {object} response.ErrorResponse "Invalid JSON or over the limit"
// @Failure 401 {object} response.ErrorResponse "Unauthorized"
// @Failure 403 {object} response.ErrorResponse "Admins cannot borrow"
// @Failure 409 {object} response.ErrorResponse "Not eligible or open loan exists"
// @Failure 422 {object} response.ErrorResponse "Validation error"
// @Failure 500 {object} response.ErrorResponse "Server error"
// @Router /loans [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.loan.request"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyRequestLoan
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

	loan, err := h.service.Request(r.Context(), actor, req)
	if err != nil {
		switch {
		case errors.Is(err, loanservice.ErrNotMember):
			log.Error("admins cannot borrow", sl.Err(err))
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error("admins cannot borrow"))
		case errors.Is(err, loanservice.ErrOverLimit):
			log.Error("amount over the monthly obligation", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("requested amount exceeds the monthly obligation"))
		case errors.Is(err, loanservice.ErrNotEligible):
			log.Error("caller not eligible", sl.Err(err))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("an active quota with at least one paid installment is required"))
		case errors.Is(err, loanservice.ErrOpenLoan):
			log.Error("open loan exists", sl.Err(err))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("an open loan already exists"))
		default:
			log.Error("failed to request loan", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not request loan"))
		}
		return
	}

	log.Info("loan requested", slog.String("loan_id", loan.ID))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"loan": loan,
	}))
}
