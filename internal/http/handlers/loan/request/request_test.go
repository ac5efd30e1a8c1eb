package request

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/caixinha-api/internal/auth"
	"github.com/magabrotheeeer/caixinha-api/internal/http/middlewarectx"
	"github.com/magabrotheeeer/caixinha-api/internal/models"
	loanservice "github.com/magabrotheeeer/caixinha-api/internal/services/loan"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Request(ctx context.Context, actor auth.Context, req models.DummyRequestLoan) (*models.Loan, error) {
	args := m.Called(ctx, actor, req)
	loan, _ := args.Get(0).(*models.Loan)
	return loan, args.Error(1)
}

func TestRequestHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))

	tests := []struct {
		name           string
		requestBody    any
		userUID        string
		role           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:        "successful loan request",
			requestBody: models.DummyRequestLoan{ValorSolicitado: 1000},
			userUID:     "uid-1",
			role:        models.RoleCotista,
			setupMock: func(m *MockService) {
				m.On("Request", mock.Anything, mock.AnythingOfType("auth.Context"),
					models.DummyRequestLoan{ValorSolicitado: 1000}).
					Return(&models.Loan{ID: "loan-1", UserUID: "uid-1"}, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"loan"`,
		},
		{
			name:           "invalid JSON",
			requestBody:    "not a json",
			userUID:        "uid-1",
			role:           models.RoleCotista,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"status":"Error","error":"invalid request body"}`,
		},
		{
			name:           "validation error",
			requestBody:    models.DummyRequestLoan{ValorSolicitado: 0},
			userUID:        "uid-1",
			role:           models.RoleCotista,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `field ValorSolicitado is a required field`,
		},
		{
			name:           "missing identity",
			requestBody:    models.DummyRequestLoan{ValorSolicitado: 1000},
			userUID:        "",
			role:           "",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"status":"Error","error":"unauthorized"}`,
		},
		{
			name:        "over the obligation limit",
			requestBody: models.DummyRequestLoan{ValorSolicitado: 9000},
			userUID:     "uid-1",
			role:        models.RoleCotista,
			setupMock: func(m *MockService) {
				m.On("Request", mock.Anything, mock.AnythingOfType("auth.Context"),
					models.DummyRequestLoan{ValorSolicitado: 9000}).
					Return(nil, loanservice.ErrOverLimit).Once()
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `requested amount exceeds the monthly obligation`,
		},
		{
			name:        "open loan already exists",
			requestBody: models.DummyRequestLoan{ValorSolicitado: 100},
			userUID:     "uid-1",
			role:        models.RoleCotista,
			setupMock: func(m *MockService) {
				m.On("Request", mock.Anything, mock.AnythingOfType("auth.Context"),
					models.DummyRequestLoan{ValorSolicitado: 100}).
					Return(nil, loanservice.ErrOpenLoan).Once()
			},
			expectedStatus: http.StatusConflict,
			expectedBody:   `an open loan already exists`,
		},
		{
			name:        "service error",
			requestBody: models.DummyRequestLoan{ValorSolicitado: 100},
			userUID:     "uid-1",
			role:        models.RoleCotista,
			setupMock: func(m *MockService) {
				m.On("Request", mock.Anything, mock.AnythingOfType("auth.Context"),
					models.DummyRequestLoan{ValorSolicitado: 100}).
					Return(nil, errors.New("db error")).Once()
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `could not request loan`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(logger, mockService)

			var body []byte
			var err error
			if str, ok := tt.requestBody.(string); ok {
				body = []byte(str)
			} else {
				body, err = json.Marshal(tt.requestBody)
				assert.NoError(t, err)
			}

			req := httptest.NewRequest(http.MethodPost, "/loans", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")

			ctx := context.WithValue(req.Context(), middlewarectx.UserUID, tt.userUID)
			ctx = context.WithValue(ctx, middlewarectx.Role, tt.role)
			ctx = context.WithValue(ctx, middleware.RequestIDKey, "req-id")
			req = req.WithContext(ctx)

			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)

			mockService.AssertExpectations(t)
		})
	}
}
