package caixinha

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/caixinha-api/internal/http/handlers/admin/configget"
	"github.com/magabrotheeeer/caixinha-api/internal/http/handlers/admin/configupdate"
	"github.com/magabrotheeeer/caixinha-api/internal/http/handlers/admin/dashboard"
	"github.com/magabrotheeeer/caixinha-api/internal/http/handlers/admin/revenue"
	"github.com/magabrotheeeer/caixinha-api/internal/http/handlers/admin/userrole"
	adminusers "github.com/magabrotheeeer/caixinha-api/internal/http/handlers/admin/users"
	"github.com/magabrotheeeer/caixinha-api/internal/http/handlers/auth/login"
	authregister "github.com/magabrotheeeer/caixinha-api/internal/http/handlers/auth/register"
	loanapprove "github.com/magabrotheeeer/caixinha-api/internal/http/handlers/loan/approve"
	loanlist "github.com/magabrotheeeer/caixinha-api/internal/http/handlers/loan/list"
	loanpending "github.com/magabrotheeeer/caixinha-api/internal/http/handlers/loan/pending"
	loanreject "github.com/magabrotheeeer/caixinha-api/internal/http/handlers/loan/reject"
	loanrequest "github.com/magabrotheeeer/caixinha-api/internal/http/handlers/loan/request"
	loansettle "github.com/magabrotheeeer/caixinha-api/internal/http/handlers/loan/settle"
	paymentconfirm "github.com/magabrotheeeer/caixinha-api/internal/http/handlers/payment/confirm"
	paymentpending "github.com/magabrotheeeer/caixinha-api/internal/http/handlers/payment/pending"
	paymentreject "github.com/magabrotheeeer/caixinha-api/internal/http/handlers/payment/reject"
	quotaadd "github.com/magabrotheeeer/caixinha-api/internal/http/handlers/quota/add"
	quotacancel "github.com/magabrotheeeer/caixinha-api/internal/http/handlers/quota/cancel"
	quotaget "github.com/magabrotheeeer/caixinha-api/internal/http/handlers/quota/get"
	quotapay "github.com/magabrotheeeer/caixinha-api/internal/http/handlers/quota/pay"
	quotaregister "github.com/magabrotheeeer/caixinha-api/internal/http/handlers/quota/register"
	"github.com/magabrotheeeer/caixinha-api/internal/http/handlers/raffle/confirmtickets"
	rafflecurrent "github.com/magabrotheeeer/caixinha-api/internal/http/handlers/raffle/current"
	raffledraw "github.com/magabrotheeeer/caixinha-api/internal/http/handlers/raffle/draw"
	rafflepay "github.com/magabrotheeeer/caixinha-api/internal/http/handlers/raffle/pay"
	"github.com/magabrotheeeer/caixinha-api/internal/http/handlers/raffle/rejecttickets"
	rafflereserve "github.com/magabrotheeeer/caixinha-api/internal/http/handlers/raffle/reserve"
	"github.com/magabrotheeeer/caixinha-api/internal/http/middlewarectx"
	"github.com/magabrotheeeer/caixinha-api/internal/lib/jwt"
	authservice "github.com/magabrotheeeer/caixinha-api/internal/services/auth"
	loanservice "github.com/magabrotheeeer/caixinha-api/internal/services/loan"
	quotaservice "github.com/magabrotheeeer/caixinha-api/internal/services/quota"
	raffleservice "github.com/magabrotheeeer/caixinha-api/internal/services/raffle"
	reportservice "github.com/magabrotheeeer/caixinha-api/internal/services/report"
	configservice "github.com/magabrotheeeer/caixinha-api/internal/services/sysconfig"
)

// Services groups everything the routes depend on.
type Services struct {
	Auth   *authservice.AuthService
	Quota  *quotaservice.QuotaService
	Loan   *loanservice.LoanService
	Raffle *raffleservice.RaffleService
	Config *configservice.ConfigService
	Report *reportservice.ReportService
}

// RegisterRoutes mounts every route of the API. The user source backs
// the per-request role lookup of the JWT middleware.
func RegisterRoutes(r chi.Router, logger *slog.Logger, jwtMaker jwt.Maker, users middlewarectx.UserSource, svcs *Services, receiptsDir string) {
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/register", authregister.New(logger, svcs.Auth).ServeHTTP)
		r.Post("/login", login.New(logger, svcs.Auth).ServeHTTP)

		// Member endpoints behind JWT.
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(jwtMaker, users, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger))

			r.Post("/quotas", quotaregister.New(logger, svcs.Quota).ServeHTTP)
			r.Get("/quotas", quotaget.New(logger, svcs.Quota).ServeHTTP)
			r.Post("/quotas/add", quotaadd.New(logger, svcs.Quota).ServeHTTP)
			r.Post("/quotas/cancel", quotacancel.New(logger, svcs.Quota).ServeHTTP)
			r.Post("/quotas/payments/{id}/pay", quotapay.New(logger, svcs.Quota).ServeHTTP)

			r.Post("/loans", loanrequest.New(logger, svcs.Loan).ServeHTTP)
			r.Get("/loans", loanlist.New(logger, svcs.Loan).ServeHTTP)

			r.Get("/raffles/current", rafflecurrent.New(logger, svcs.Raffle).ServeHTTP)
			r.Post("/raffles/current/reserve", rafflereserve.New(logger, svcs.Raffle).ServeHTTP)
			r.Post("/raffles/tickets/{id}/pay", rafflepay.New(logger, svcs.Raffle).ServeHTTP)

			// Administration endpoints.
			r.Route("/admin", func(r chi.Router) {
				r.Use(middlewarectx.RequireAdmin(logger))

				r.Get("/payments", paymentpending.New(logger, svcs.Quota).ServeHTTP)
				r.Post("/payments/{id}/confirm", paymentconfirm.New(logger, svcs.Quota).ServeHTTP)
				r.Post("/payments/{id}/reject", paymentreject.New(logger, svcs.Quota).ServeHTTP)

				r.Get("/loans/pending", loanpending.New(logger, svcs.Loan).ServeHTTP)
				r.Post("/loans/{id}/approve", loanapprove.New(logger, svcs.Loan).ServeHTTP)
				r.Post("/loans/{id}/reject", loanreject.New(logger, svcs.Loan).ServeHTTP)
				r.Post("/loans/{id}/settle", loansettle.New(logger, svcs.Loan).ServeHTTP)

				r.Post("/raffles/tickets/confirm", confirmtickets.New(logger, svcs.Raffle).ServeHTTP)
				r.Post("/raffles/tickets/reject", rejecttickets.New(logger, svcs.Raffle).ServeHTTP)
				r.Post("/raffles/{id}/draw", raffledraw.New(logger, svcs.Raffle).ServeHTTP)

				r.Get("/dashboard", dashboard.New(logger, svcs.Report).ServeHTTP)
				r.Get("/revenue", revenue.New(logger, svcs.Report).ServeHTTP)
				r.Get("/users", adminusers.New(logger, svcs.Config).ServeHTTP)
				r.Post("/users/{id}/role", userrole.New(logger, svcs.Config).ServeHTTP)
				r.Get("/config", configget.New(logger, svcs.Config).ServeHTTP)
				r.Put("/config", configupdate.New(logger, svcs.Config).ServeHTTP)
			})
		})
	})

	fileServer := http.StripPrefix("/comprovantes/", http.FileServer(http.Dir(receiptsDir)))
	r.Handle("/comprovantes/*", fileServer)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
