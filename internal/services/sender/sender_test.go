package services

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/caixinha-api/internal/models"
)

type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) Send(to, subject, body string) error {
	args := m.Called(to, subject, body)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestSenderService_SendNotification(t *testing.T) {
	notification := models.Notification{
		Kind:     models.NotifyPaymentOverdue,
		UserUID:  "uid-1",
		Email:    "member@caixinha.dev",
		FullName: "Maria Silva",
		Subject:  "Mensalidade em atraso",
		Body:     "Sua mensalidade de 01/2025 está em atraso.",
	}
	body, _ := json.Marshal(notification)

	tests := []struct {
		name          string
		body          []byte
		setupMocks    func(*MockTransport)
		expectedError bool
		errorMessage  string
	}{
		{
			name: "success",
			body: body,
			setupMocks: func(tr *MockTransport) {
				tr.On("Send", "member@caixinha.dev", "Mensalidade em atraso",
					"Olá, Maria Silva!\n\nSua mensalidade de 01/2025 está em atraso.").
					Return(nil).Once()
			},
		},
		{
			name:          "invalid JSON",
			body:          []byte(`invalid json`),
			setupMocks:    func(_ *MockTransport) {},
			expectedError: true,
			errorMessage:  "error unmarshalling message",
		},
		{
			name: "missing recipient is dropped without error",
			body: func() []byte {
				n := notification
				n.Email = ""
				b, _ := json.Marshal(n)
				return b
			}(),
			setupMocks: func(_ *MockTransport) {},
		},
		{
			name: "transport error bubbles up for requeue",
			body: body,
			setupMocks: func(tr *MockTransport) {
				tr.On("Send", mock.Anything, mock.Anything, mock.Anything).
					Return(errors.New("connection error")).Once()
			},
			expectedError: true,
			errorMessage:  "connection error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := new(MockTransport)
			tt.setupMocks(transport)
			service := NewSenderService(transport, newNoopLogger())

			err := service.SendNotification(tt.body)

			if tt.expectedError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMessage)
			} else {
				assert.NoError(t, err)
			}
			transport.AssertExpectations(t)
		})
	}
}
