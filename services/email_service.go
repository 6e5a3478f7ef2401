package services

import (
	"errors"
	"fmt"
	"html"

	"github.com/mindbridge/counsel-api/model"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

var ErrEmailNotConfigured = errors.New("smtp credentials not configured (set SMTP_USER and SMTP_PASS)")

// CodeSender delivers verification codes to an email address
type CodeSender interface {
	SendVerificationCode(to, code string, purpose model.CodePurpose, realm model.Realm) error
}

// EmailConfig holds SMTP settings
type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// EmailService handles sending emails via SMTP
type EmailService struct {
	config EmailConfig
	logger *zap.Logger
}

// NewEmailService creates a new email service instance
func NewEmailService(config EmailConfig, logger *zap.Logger) *EmailService {
	if config.Host == "" {
		config.Host = "smtp.gmail.com"
	}
	if config.Port == 0 {
		config.Port = 587
	}
	if config.From == "" {
		config.From = config.Username
	}
	return &EmailService{config: config, logger: logger}
}

// IsConfigured checks if SMTP is properly configured
func (e *EmailService) IsConfigured() bool {
	return e.config.Username != "" && e.config.Password != ""
}

// SendVerificationCode emails a one-time code
func (e *EmailService) SendVerificationCode(to, code string, purpose model.CodePurpose, realm model.Realm) error {
	subject := verificationSubject(purpose, realm)
	body := fmt.Sprintf(`<p>Your verification code is <strong>%s</strong>.</p>
<p>It is valid for %d minutes. If you did not request it, ignore this email.</p>`,
		html.EscapeString(code), int(model.VerificationCodeTTL.Minutes()))
	return e.send(to, subject, body)
}

func verificationSubject(purpose model.CodePurpose, realm model.Realm) string {
	who := "Counselor"
	if realm == model.RealmAdmin {
		who = "Administrator"
	}
	switch purpose {
	case model.PurposeRegister:
		return fmt.Sprintf("[%s registration] verification code", who)
	case model.PurposeReset:
		return fmt.Sprintf("[%s password reset] verification code", who)
	default:
		return fmt.Sprintf("[%s login] verification code", who)
	}
}

func (e *EmailService) send(to, subject, body string) error {
	if !e.IsConfigured() {
		e.logger.Warn("SMTP not configured, email dropped", zap.String("to", to), zap.String("subject", subject))
		return ErrEmailNotConfigured
	}

	m := gomail.NewMessage()
	m.SetHeader("From", e.config.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	d := gomail.NewDialer(e.config.Host, e.config.Port, e.config.Username, e.config.Password)
	// port 465 is implicit TLS
	d.SSL = e.config.Port == 465

	if err := d.DialAndSend(m); err != nil {
		e.logger.Error("failed to send email", zap.String("to", to), zap.Error(err))
		return fmt.Errorf("failed to send email: %w", err)
	}

	e.logger.Info("email sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}
