package middlewarectx

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/caixinha-api/internal/auth"
	"github.com/magabrotheeeer/caixinha-api/internal/lib/jwt"
	"github.com/magabrotheeeer/caixinha-api/internal/models"
)

type UserSourceMock struct{ mock.Mock }

func (m *UserSourceMock) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	args := m.Called(ctx, userUID)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func TestJWTMiddleware(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
	maker := jwt.NewJWTMaker("test-secret", time.Hour)

	tests := []struct {
		name           string
		authHeader     func() string
		setupMock      func(*UserSourceMock)
		expectedStatus int
		expectedRole   string
	}{
		{
			name: "role comes from storage, not from the login-time claim",
			authHeader: func() string {
				token, err := maker.GenerateToken("uid-1", "maria@caixinha.dev", models.RoleNaoCotista)
				assert.NoError(t, err)
				return "Bearer " + token
			},
			setupMock: func(m *UserSourceMock) {
				m.On("GetUser", mock.Anything, "uid-1").Return(&models.User{
					UID:   "uid-1",
					Email: "maria@caixinha.dev",
					Role:  models.RoleCotista,
				}, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedRole:   models.RoleCotista,
		},
		{
			name:           "missing authorization header",
			authHeader:     func() string { return "" },
			setupMock:      func(_ *UserSourceMock) {},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "malformed token",
			authHeader:     func() string { return "Bearer not-a-token" },
			setupMock:      func(_ *UserSourceMock) {},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name: "token for a user that no longer resolves",
			authHeader: func() string {
				token, err := maker.GenerateToken("uid-gone", "gone@caixinha.dev", models.RoleCotista)
				assert.NoError(t, err)
				return "Bearer " + token
			},
			setupMock: func(m *UserSourceMock) {
				m.On("GetUser", mock.Anything, "uid-gone").
					Return(nil, errors.New("record not found")).Once()
			},
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := new(UserSourceMock)
			tt.setupMock(users)

			var seen auth.Context
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen, _ = Actor(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/quotas", nil)
			if header := tt.authHeader(); header != "" {
				req.Header.Set("Authorization", header)
			}
			w := httptest.NewRecorder()

			JWTMiddleware(maker, users, logger)(next).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedRole != "" {
				assert.Equal(t, tt.expectedRole, seen.Role)
			}
			users.AssertExpectations(t)
		})
	}
}
