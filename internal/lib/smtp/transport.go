// Package smtp delivers notification e-mails over SMTP with STARTTLS.
package smtp

import (
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strings"

	"github.com/magabrotheeeer/caixinha-api/internal/lib/sl"
)

// Config holds the SMTP endpoint and sender credentials.
type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// Transport sends mail through one SMTP server.
type Transport struct {
	cfg Config
	log *slog.Logger
}

// NewTransport builds a Transport.
func NewTransport(cfg Config, log *slog.Logger) *Transport {
	return &Transport{cfg: cfg, log: log}
}

// Send delivers one plain-text message. A fresh connection is opened
// per message; delivery volume here is a handful of notifications a
// day.
func (t *Transport) Send(to, subject, body string) error {
	const op = "smtp.Send"

	addr := t.cfg.Host + ":" + t.cfg.Port
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("%s: failed to dial SMTP server: %w", op, err)
	}

	client, err := smtp.NewClient(conn, t.cfg.Host)
	if err != nil {
		if closeErr := conn.Close(); closeErr != nil {
			t.log.Error("failed to close connection", sl.Err(closeErr))
		}
		return fmt.Errorf("%s: failed to create SMTP client: %w", op, err)
	}
	defer func() {
		if quitErr := client.Quit(); quitErr != nil {
			t.log.Warn("failed to quit SMTP session", sl.Err(quitErr))
		}
	}()

	if ok, _ := client.Extension("STARTTLS"); !ok {
		return fmt.Errorf("%s: smtp server does not support STARTTLS", op)
	}
	tlsConfig := &tls.Config{
		ServerName: t.cfg.Host,
		MinVersion: tls.VersionTLS12,
	}
	if err := client.StartTLS(tlsConfig); err != nil {
		return fmt.Errorf("%s: failed to start TLS: %w", op, err)
	}

	auth := smtp.PlainAuth("", t.cfg.Username, t.cfg.Password, t.cfg.Host)
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("%s: failed to authenticate: %w", op, err)
	}

	if err := client.Mail(t.cfg.From); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	msg := strings.Join([]string{
		"From: " + t.cfg.From,
		"To: " + to,
		"Subject: " + subject,
		"",
		body,
	}, "\r\n")
	if _, err := w.Write([]byte(msg)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
