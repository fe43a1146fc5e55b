package email

import (
	"fmt"
	"time"

	"gopkg.in/gomail.v2"
)

// Service sends appointment notifications. Delivery is best-effort; the
// booking flow never fails because mail could not be sent.
type Service interface {
	SendBookingConfirmation(to, patientName, doctorName string, when time.Time) error
	SendCancellation(to, patientName, doctorName string, when time.Time) error
}

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type smtpService struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPService(cfg Config) Service {
	return &smtpService{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (s *smtpService) SendBookingConfirmation(to, patientName, doctorName string, when time.Time) error {
	subject := "Appointment confirmed"
	body := fmt.Sprintf(
		"Hello %s,\n\nYour appointment with Dr. %s on %s is confirmed.\n",
		patientName, doctorName, when.Format("Monday, 2 January 2006 at 15:04"),
	)
	return s.send(to, subject, body)
}

func (s *smtpService) SendCancellation(to, patientName, doctorName string, when time.Time) error {
	subject := "Appointment cancelled"
	body := fmt.Sprintf(
		"Hello %s,\n\nYour appointment with Dr. %s on %s has been cancelled.\n",
		patientName, doctorName, when.Format("Monday, 2 January 2006 at 15:04"),
	)
	return s.send(to, subject, body)
}

func (s *smtpService) send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// NoopService discards all mail; used when SMTP is not configured and in
// tests.
type NoopService struct{}

func (NoopService) SendBookingConfirmation(string, string, string, time.Time) error { return nil }
func (NoopService) SendCancellation(string, string, string, time.Time) error        { return nil }
