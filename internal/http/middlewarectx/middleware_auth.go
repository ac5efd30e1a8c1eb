// Package middlewarectx holds the HTTP middleware of the API: JWT
// validation, role enforcement and rate limiting. The validated caller
// identity travels in the request context.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/caixinha-api/internal/auth"
	"github.com/magabrotheeeer/caixinha-api/internal/http/response"
	"github.com/magabrotheeeer/caixinha-api/internal/lib/jwt"
	"github.com/magabrotheeeer/caixinha-api/internal/lib/sl"
	"github.com/magabrotheeeer/caixinha-api/internal/models"
)

// UserSource resolves the caller's current database record. The role
// changes with quota registration and cancellation, so the token claim
// alone is stale the moment either happens.
type UserSource interface {
	GetUser(ctx context.Context, userUID string) (*models.User, error)
}

// Key is the type of the request context keys.
type Key string

const (
	// UserUID is the context key of the caller's user UID.
	UserUID Key = "user_uid"
	// Email is the context key of the caller's e-mail.
	Email Key = "email"
	// Role is the context key of the caller's role.
	Role Key = "role"
)

// JWTMiddleware validates the Bearer token of the Authorization header
// and stores the caller identity in the request context. The role comes
// from the users table on every request, not from the login-time claim.
// An invalid or missing token answers 401.
func JWTMiddleware(maker jwt.Maker, users UserSource, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.JWTMiddleware"

			log = log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				log.Error("missing or invalid authorization header")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("missing or invalid authorization header"))
				return
			}
			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

			claims, err := maker.ParseToken(tokenStr)
			if err != nil {
				log.Error("invalid or expired token", sl.Err(err))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid or expired token"))
				return
			}
			user, err := users.GetUser(r.Context(), claims.UserUID)
			if err != nil {
				log.Error("failed to resolve token user", sl.Err(err))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid or expired token"))
				return
			}

			ctx := context.WithValue(r.Context(), UserUID, user.UID)
			ctx = context.WithValue(ctx, Email, user.Email)
			ctx = context.WithValue(ctx, Role, user.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Actor rebuilds the caller identity stored by JWTMiddleware. The bool
// is false when the request skipped the middleware.
func Actor(ctx context.Context) (auth.Context, bool) {
	uid, ok := ctx.Value(UserUID).(string)
	if !ok || uid == "" {
		return auth.Context{}, false
	}
	email, _ := ctx.Value(Email).(string)
	role, _ := ctx.Value(Role).(string)
	return auth.Context{UserUID: uid, Email: email, Role: role}, true
}
