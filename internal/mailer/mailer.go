// Package mailer delivers account emails. The service layer depends only on
// the Mailer interface; tests inject a recording fake.
package mailer

import (
	"fmt"
	"net/smtp"

	"dompet/internal/config"
	"dompet/internal/logger"
)

// Mailer sends account lifecycle emails.
type Mailer interface {
	SendVerificationEmail(to, name, token string) error
	SendPasswordResetEmail(to, name, token string) error
}

// SMTPMailer sends mail through a plain SMTP relay.
type SMTPMailer struct {
	host        string
	port        string
	username    string
	password    string
	from        string
	frontendURL string
}

// New builds a Mailer from configuration. When no SMTP host is configured it
// returns a no-op mailer that only logs, so development setups work without
// a relay.
func New(cfg *config.Config) Mailer {
	if cfg.SMTPHost == "" {
		return &logMailer{}
	}
	return &SMTPMailer{
		host:        cfg.SMTPHost,
		port:        cfg.SMTPPort,
		username:    cfg.SMTPUser,
		password:    cfg.SMTPPass,
		from:        cfg.MailFrom,
		frontendURL: cfg.FrontendURL,
	}
}

func (m *SMTPMailer) send(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n", m.from, to, subject, body)

	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	addr := m.host + ":" + m.port
	if err := smtp.SendMail(addr, auth, m.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", to, err)
	}
	return nil
}

// SendVerificationEmail mails the account verification link.
func (m *SMTPMailer) SendVerificationEmail(to, name, token string) error {
	body := fmt.Sprintf(
		"Hi %s,\n\nWelcome to Dompet! Verify your email address by opening:\n\n%s/verify?token=%s\n",
		name, m.frontendURL, token)
	return m.send(to, "Verify your Dompet account", body)
}

// SendPasswordResetEmail mails the password reset link.
func (m *SMTPMailer) SendPasswordResetEmail(to, name, token string) error {
	body := fmt.Sprintf(
		"Hi %s,\n\nA password reset was requested for your account. Open:\n\n%s/reset-password?token=%s\n\nIf this wasn't you, ignore this email.\n",
		name, m.frontendURL, token)
	return m.send(to, "Reset your Dompet password", body)
}

// logMailer logs instead of sending. Used when SMTP is not configured.
type logMailer struct{}

func (l *logMailer) SendVerificationEmail(to, _, token string) error {
	logger.Get().Infow("verification email suppressed (no SMTP host configured)", "to", to, "token", token)
	return nil
}

func (l *logMailer) SendPasswordResetEmail(to, _, token string) error {
	logger.Get().Infow("password reset email suppressed (no SMTP host configured)", "to", to, "token", token)
	return nil
}
