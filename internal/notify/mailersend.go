package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/mailersend/mailersend-go"

	"github.com/eventify/ticketing/internal/config"
	"github.com/eventify/ticketing/internal/logging"
)

// MailerSendSender delivers through the MailerSend HTTP API, one email per
// guest.
type MailerSendSender struct {
	client *mailersend.Mailersend
	from   mailersend.From
}

func NewMailerSendSender(cfg config.MailConfig) *MailerSendSender {
	return &MailerSendSender{
		client: mailersend.NewMailersend(cfg.MailerSendKey),
		from:   mailersend.From{Name: cfg.FromName, Email: cfg.From},
	}
}

func (s *MailerSendSender) Send(ctx context.Context, msgs ...Message) error {
	var errs []error
	for _, m := range msgs {
		if err := ctx.Err(); err != nil {
			return errors.Join(append(errs, err)...)
		}
		msg := s.client.Email.NewMessage()
		msg.SetFrom(s.from)
		msg.SetRecipients([]mailersend.Recipient{{Email: m.To}})
		msg.SetSubject(m.Subject)
		msg.SetText(m.Body)

		res, err := s.client.Email.Send(ctx, msg)
		if err != nil {
			errs = append(errs, fmt.Errorf("send to %s: %w", m.To, err))
			continue
		}
		logging.FromContext(ctx).WithField("message_id", res.Header.Get("X-Message-Id")).Debug("email accepted")
	}
	return errors.Join(errs...)
}
