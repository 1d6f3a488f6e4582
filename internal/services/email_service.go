package services

import (
	"fmt"

	"gopkg.in/gomail.v2"

	"taskflow/internal/config"
)

type EmailService interface {
	SendTaskNotification(to, subject, htmlBody string) error
}

type emailService struct {
	dialer *gomail.Dialer
	from   string
}

func NewEmailService(cfg config.EmailConfig) EmailService {
	dialer := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword)
	return &emailService{
		dialer: dialer,
		from:   cfg.FromEmail,
	}
}

func (s *emailService) SendTaskNotification(to, subject, htmlBody string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send task notification: %w", err)
	}
	return nil
}
