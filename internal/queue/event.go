// Package queue defines the messages exchanged over RabbitMQ and the
// consumer that turns them into guest notifications.
package queue

import "time"

// Queue names. Both queues are durable.
const (
	BookingConfirmedQueue   = "booking.confirmed"
	BroadcastRequestedQueue = "event.broadcast"
)

// BookingConfirmedEvent is published when a booking is created. It carries
// enough for the consumer to log and notify without querying the database.
type BookingConfirmedEvent struct {
	BookingID     uint64    `json:"booking_id"`
	UserID        uint64    `json:"user_id"`
	EventID       uint64    `json:"event_id"`
	EventTitle    string    `json:"event_title"`
	TicketCode    string    `json:"ticket_code"`
	CustomerName  string    `json:"customer_name"`
	CustomerEmail string    `json:"customer_email"`
	AmountPaid    float64   `json:"amount_paid"`
	ConfirmedAt   time.Time `json:"confirmed_at"`
}

// BroadcastRequestedEvent is published when an admin messages the guests
// of an event. Recipients are already de-duplicated.
type BroadcastRequestedEvent struct {
	EventID     uint64    `json:"event_id"`
	EventTitle  string    `json:"event_title"`
	Subject     string    `json:"subject"`
	Message     string    `json:"message"`
	Recipients  []string  `json:"recipients"`
	RequestedAt time.Time `json:"requested_at"`
}
