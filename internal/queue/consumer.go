package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/eventify/ticketing/internal/logging"
	"github.com/eventify/ticketing/internal/notify"
)

// Handler processes one message body taken from a named queue.
type Handler interface {
	Handle(ctx context.Context, queue string, body []byte) error
}

// Processor appends every message to the booking log and forwards it to
// guests through a notify.Sender.
type Processor struct {
	LogPath string
	Sender  notify.Sender

	mu sync.Mutex
}

// Handle decodes body according to queue and delivers it.
func (p *Processor) Handle(ctx context.Context, queue string, body []byte) error {
	switch queue {
	case BookingConfirmedQueue:
		var ev BookingConfirmedEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return fmt.Errorf("unmarshal: %w", err)
		}
		line := fmt.Sprintf("[%s] Booking confirmed | booking_id=%d | ticket=%s | user_id=%d | event_id=%d | event=%q | amount=%.2f",
			ev.ConfirmedAt.UTC().Format(time.RFC3339), ev.BookingID, ev.TicketCode, ev.UserID, ev.EventID, ev.EventTitle, ev.AmountPaid)
		if err := p.appendLine(line); err != nil {
			return err
		}
		return p.Sender.Send(ctx, notify.Message{
			To:      ev.CustomerEmail,
			Subject: "Your ticket for " + ev.EventTitle,
			Body: fmt.Sprintf("Hi %s,\n\nYour booking is confirmed. Show this code at the entrance:\n\n    %s\n\nSee you there!",
				ev.CustomerName, ev.TicketCode),
		})
	case BroadcastRequestedQueue:
		var ev BroadcastRequestedEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return fmt.Errorf("unmarshal: %w", err)
		}
		line := fmt.Sprintf("[%s] Broadcast | event_id=%d | event=%q | subject=%q | recipients=%d",
			ev.RequestedAt.UTC().Format(time.RFC3339), ev.EventID, ev.EventTitle, ev.Subject, len(ev.Recipients))
		if err := p.appendLine(line); err != nil {
			return err
		}
		msgs := lo.Map(ev.Recipients, func(to string, _ int) notify.Message {
			return notify.Message{To: to, Subject: ev.Subject, Body: ev.Message}
		})
		return p.Sender.Send(ctx, msgs...)
	default:
		return fmt.Errorf("unknown queue %q", queue)
	}
}

func (p *Processor) appendLine(line string) error {
	if p.LogPath == "" {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(p.LogPath), 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(p.LogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// Consumer reads both queues from RabbitMQ and hands deliveries to a
// Handler. It reconnects with exponential backoff until ctx is done.
type Consumer struct {
	URL     string
	Handler Handler
	Log     logrus.FieldLogger
}

// Run blocks until ctx is cancelled. Broker failures are logged and
// retried; they never stop the server.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.DialConfig(c.URL, amqp.Config{Properties: amqp.Table{"connection_name": "eventify-notifier"}})
		if err == nil {
			backoff = time.Second
			err = c.consume(ctx, conn)
			_ = conn.Close()
			if ctx.Err() != nil {
				return nil
			}
		}
		c.Log.WithError(err).Warnf("booking consumer: broker unavailable, retrying in %s", backoff)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}

	type source struct {
		queue string
		msgs  <-chan amqp.Delivery
	}
	var sources []source
	for _, q := range []string{BookingConfirmedQueue, BroadcastRequestedQueue} {
		if _, err := ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
			return fmt.Errorf("queue declare %s: %w", q, err)
		}
		msgs, err := ch.ConsumeWithContext(ctx, q, "", false, false, false, false, nil)
		if err != nil {
			return fmt.Errorf("queue consume %s: %w", q, err)
		}
		sources = append(sources, source{queue: q, msgs: msgs})
	}

	closed := conn.NotifyClose(make(chan *amqp.Error, 1))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-closed:
			return fmt.Errorf("connection closed: %v", err)
		case d, ok := <-sources[0].msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			c.deliver(ctx, sources[0].queue, d)
		case d, ok := <-sources[1].msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			c.deliver(ctx, sources[1].queue, d)
		}
	}
}

func (c *Consumer) deliver(ctx context.Context, queue string, d amqp.Delivery) {
	id, _ := d.Headers["correlation_id"].(string)
	if id == "" {
		id = logging.NewCorrelationID()
	}
	l := c.Log.WithFields(logrus.Fields{"correlation_id": id, "queue": queue})
	ctx = logging.ToContext(logging.ContextWithCorrelationID(ctx, id), l)

	if err := c.Handler.Handle(ctx, queue, d.Body); err != nil {
		l.WithError(err).Error("handle message failed")
		_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
		return
	}
	_ = d.Ack(false)
}
