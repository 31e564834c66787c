// Package notify delivers guest notifications: booking confirmations and
// organiser broadcasts.
package notify

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/eventify/ticketing/internal/config"
	"github.com/eventify/ticketing/internal/logging"
)

// Message is one notification addressed to a single guest.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msgs ...Message) error
}

// New picks the delivery path: MailerSend when an API key is set, SMTP
// when a host is set, the log otherwise.
func New(cfg config.MailConfig, log logrus.FieldLogger) Sender {
	switch {
	case cfg.MailerSendKey != "":
		return NewMailerSendSender(cfg)
	case cfg.Host != "":
		return NewSMTPSender(cfg)
	}
	return LogSender{Log: log}
}

// LogSender writes messages to the log instead of delivering them.
type LogSender struct {
	Log logrus.FieldLogger
}

func (s LogSender) Send(ctx context.Context, msgs ...Message) error {
	l := s.Log
	if l == nil {
		l = logging.FromContext(ctx)
	}
	for _, m := range msgs {
		l.WithFields(logrus.Fields{"to": m.To, "subject": m.Subject}).Info("notification")
	}
	return nil
}

// SMTPSender sends plain text mail through an SMTP relay, one message per
// recipient so guests never see each other's addresses.
type SMTPSender struct {
	addr     string
	from     string
	auth     smtp.Auth
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPSender(cfg config.MailConfig) *SMTPSender {
	s := &SMTPSender{
		addr:     net.JoinHostPort(cfg.Host, cfg.Port),
		from:     cfg.From,
		sendMail: smtp.SendMail,
	}
	if cfg.Username != "" {
		s.auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return s
}

// Send stops at context cancellation and reports every failed recipient.
func (s *SMTPSender) Send(ctx context.Context, msgs ...Message) error {
	var errs []error
	for _, m := range msgs {
		if err := ctx.Err(); err != nil {
			return errors.Join(append(errs, err)...)
		}
		if err := s.sendMail(s.addr, s.auth, s.from, []string{m.To}, s.render(m)); err != nil {
			errs = append(errs, fmt.Errorf("send to %s: %w", m.To, err))
		}
	}
	return errors.Join(errs...)
}

func (s *SMTPSender) render(m Message) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.from)
	fmt.Fprintf(&b, "To: %s\r\n", m.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", strings.NewReplacer("\r", " ", "\n", " ").Replace(m.Subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n\r\n")
	b.WriteString(strings.ReplaceAll(m.Body, "\n", "\r\n"))
	return []byte(b.String())
}
