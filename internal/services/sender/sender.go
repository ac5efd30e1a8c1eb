// Package services implements the notification sender: queue bodies
// are decoded and delivered by e-mail.
package services

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/caixinha-api/internal/lib/sl"
	"github.com/magabrotheeeer/caixinha-api/internal/models"
)

// Transport delivers one plain-text message.
type Transport interface {
	Send(to, subject, body string) error
}

// SenderService turns queued notifications into e-mails.
type SenderService struct {
	transport Transport
	log       *slog.Logger
}

// NewSenderService creates a SenderService.
func NewSenderService(transport Transport, log *slog.Logger) *SenderService {
	return &SenderService{
		transport: transport,
		log:       log,
	}
}

// SendNotification decodes a queued notification and delivers it. It is
// the handler wired to both notification queues.
func (s *SenderService) SendNotification(body []byte) error {
	var message models.Notification
	if err := json.Unmarshal(body, &message); err != nil {
		s.log.Error("failed to unmarshal message body", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}
	if message.Email == "" {
		s.log.Warn("notification without recipient, dropping",
			slog.String("kind", message.Kind),
			slog.String("user_uid", message.UserUID))
		return nil
	}

	bodyText := fmt.Sprintf("Olá, %s!\n\n%s", message.FullName, message.Body)
	if err := s.transport.Send(message.Email, message.Subject, bodyText); err != nil {
		s.log.Error("failed to send email", sl.Err(err))
		return err
	}
	s.log.Info("email sent successfully",
		slog.String("to", message.Email),
		slog.String("kind", message.Kind))
	return nil
}
