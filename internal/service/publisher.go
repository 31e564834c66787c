// Package service publishes domain events raised by the HTTP handlers.
// Failures are returned so callers can log them; a lost notification never
// fails the request that raised it.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/eventify/ticketing/internal/logging"
	"github.com/eventify/ticketing/internal/queue"
)

// Publisher raises booking and broadcast events.
type Publisher interface {
	PublishBookingConfirmed(ctx context.Context, ev queue.BookingConfirmedEvent) error
	PublishBroadcast(ctx context.Context, ev queue.BroadcastRequestedEvent) error
}

// AMQPPublisher publishes persistent JSON messages to RabbitMQ through the
// default exchange. The connection is opened on first use and reopened
// after the broker drops it.
type AMQPPublisher struct {
	url string

	mu   sync.Mutex
	conn *amqp.Connection
}

func NewAMQPPublisher(url string) *AMQPPublisher { return &AMQPPublisher{url: url} }

func (p *AMQPPublisher) PublishBookingConfirmed(ctx context.Context, ev queue.BookingConfirmedEvent) error {
	return p.publish(ctx, queue.BookingConfirmedQueue, ev)
}

func (p *AMQPPublisher) PublishBroadcast(ctx context.Context, ev queue.BroadcastRequestedEvent) error {
	return p.publish(ctx, queue.BroadcastRequestedQueue, ev)
}

func (p *AMQPPublisher) channel() (*amqp.Channel, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil || p.conn.IsClosed() {
		conn, err := amqp.Dial(p.url)
		if err != nil {
			return nil, fmt.Errorf("rabbitmq dial: %w", err)
		}
		p.conn = conn
	}
	return p.conn.Channel()
}

func (p *AMQPPublisher) publish(ctx context.Context, queueName string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	ch, err := p.channel()
	if err != nil {
		return err
	}
	defer func() { _ = ch.Close() }()

	// Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	return ch.PublishWithContext(ctx, "", queueName, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Headers:      amqp.Table{"correlation_id": logging.CorrelationIDFromContext(ctx)},
		Body:         body,
	})
}

// Close releases the broker connection.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil || p.conn.IsClosed() {
		return nil
	}
	return p.conn.Close()
}

// InlinePublisher hands events straight to a queue.Handler in the calling
// goroutine. It serves deployments without a broker and tests.
type InlinePublisher struct {
	Handler queue.Handler
}

func (p InlinePublisher) PublishBookingConfirmed(ctx context.Context, ev queue.BookingConfirmedEvent) error {
	return p.handle(ctx, queue.BookingConfirmedQueue, ev)
}

func (p InlinePublisher) PublishBroadcast(ctx context.Context, ev queue.BroadcastRequestedEvent) error {
	return p.handle(ctx, queue.BroadcastRequestedQueue, ev)
}

func (p InlinePublisher) handle(ctx context.Context, queueName string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return p.Handler.Handle(ctx, queueName, body)
}
