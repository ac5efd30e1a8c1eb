package confirm

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/caixinha-api/internal/auth"
	"github.com/magabrotheeeer/caixinha-api/internal/http/middlewarectx"
	"github.com/magabrotheeeer/caixinha-api/internal/models"
	quotaservice "github.com/magabrotheeeer/caixinha-api/internal/services/quota"
	"github.com/magabrotheeeer/caixinha-api/internal/storage"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) ConfirmPayment(ctx context.Context, actor auth.Context, paymentID string) error {
	args := m.Called(ctx, actor, paymentID)
	return args.Error(0)
}

func TestConfirmHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))

	tests := []struct {
		name           string
		paymentID      string
		userUID        string
		role           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:      "successful confirmation",
			paymentID: "payment-1",
			userUID:   "admin-1",
			role:      models.RoleAdmin,
			setupMock: func(m *MockService) {
				m.On("ConfirmPayment", mock.Anything, mock.AnythingOfType("auth.Context"), "payment-1").
					Return(nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"status":"OK"}`,
		},
		{
			name:           "missing identity",
			paymentID:      "payment-1",
			userUID:        "",
			role:           "",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"status":"Error","error":"unauthorized"}`,
		},
		{
			name:      "caller is not an admin",
			paymentID: "payment-1",
			userUID:   "uid-1",
			role:      models.RoleCotista,
			setupMock: func(m *MockService) {
				m.On("ConfirmPayment", mock.Anything, mock.AnythingOfType("auth.Context"), "payment-1").
					Return(quotaservice.ErrNotAdmin).Once()
			},
			expectedStatus: http.StatusForbidden,
			expectedBody:   `admin role required`,
		},
		{
			name:      "installment not found",
			paymentID: "missing",
			userUID:   "admin-1",
			role:      models.RoleAdmin,
			setupMock: func(m *MockService) {
				m.On("ConfirmPayment", mock.Anything, mock.AnythingOfType("auth.Context"), "missing").
					Return(storage.ErrNotFound).Once()
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `installment not found`,
		},
		{
			name:      "installment in the wrong status",
			paymentID: "payment-2",
			userUID:   "admin-1",
			role:      models.RoleAdmin,
			setupMock: func(m *MockService) {
				m.On("ConfirmPayment", mock.Anything, mock.AnythingOfType("auth.Context"), "payment-2").
					Return(storage.ErrConflict).Once()
			},
			expectedStatus: http.StatusConflict,
			expectedBody:   `installment is not awaiting confirmation`,
		},
		{
			name:      "service error",
			paymentID: "payment-1",
			userUID:   "admin-1",
			role:      models.RoleAdmin,
			setupMock: func(m *MockService) {
				m.On("ConfirmPayment", mock.Anything, mock.AnythingOfType("auth.Context"), "payment-1").
					Return(errors.New("db error")).Once()
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `could not confirm payment`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(logger, mockService)

			req := httptest.NewRequest(http.MethodPost, "/admin/payments/"+tt.paymentID+"/confirm", nil)

			ctx := context.WithValue(req.Context(), middlewarectx.UserUID, tt.userUID)
			ctx = context.WithValue(ctx, middlewarectx.Role, tt.role)
			ctx = context.WithValue(ctx, middleware.RequestIDKey, "req-id")

			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", tt.paymentID)
			ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
			req = req.WithContext(ctx)

			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)

			mockService.AssertExpectations(t)
		})
	}
}
