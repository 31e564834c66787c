package client

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/eventify/ticketing/internal/model"
)

// CreateEvent adds an event. Admin only.
func (c *Client) CreateEvent(ctx context.Context, sess *Session, in model.EventInput) (model.Event, error) {
	if err := authorized(sess); err != nil {
		return model.Event{}, err
	}
	if err := validateEventInput(in); err != nil {
		return model.Event{}, err
	}
	e, err := getItem[model.Event](ctx, c, request{method: http.MethodPost, path: "/events", sess: sess, body: in})
	if err != nil {
		return model.Event{}, err
	}
	return normalizeEvent(e)
}

// UpdateEvent replaces the editable fields of an event. Admin only.
func (c *Client) UpdateEvent(ctx context.Context, sess *Session, id uint64, in model.EventInput) (model.Event, error) {
	if err := authorized(sess); err != nil {
		return model.Event{}, err
	}
	if err := validateEventInput(in); err != nil {
		return model.Event{}, err
	}
	e, err := getItem[model.Event](ctx, c, request{method: http.MethodPut, path: idPath("/events/%d", id), sess: sess, body: in})
	if err != nil {
		return model.Event{}, err
	}
	return normalizeEvent(e)
}

// DeleteEvent removes an event. An event with bookings is ErrConflict.
func (c *Client) DeleteEvent(ctx context.Context, sess *Session, id uint64) error {
	if err := authorized(sess); err != nil {
		return err
	}
	_, err := getMessage(ctx, c, request{method: http.MethodDelete, path: idPath("/events/%d", id), sess: sess})
	return err
}

type broadcastBody struct {
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// Broadcast emails every distinct guest of an event. An event without
// bookings is ErrValidation.
func (c *Client) Broadcast(ctx context.Context, sess *Session, eventID uint64, subject, message string) (model.BroadcastResult, error) {
	if err := authorized(sess); err != nil {
		return model.BroadcastResult{}, err
	}
	if strings.TrimSpace(subject) == "" || strings.TrimSpace(message) == "" {
		return model.BroadcastResult{}, fmt.Errorf("%w: subject and message are required", ErrValidation)
	}
	return getItem[model.BroadcastResult](ctx, c, request{
		method: http.MethodPost,
		path:   idPath("/bookings/admin/broadcast/%d", eventID),
		sess:   sess,
		body:   broadcastBody{Subject: subject, Message: message},
	})
}

// Stats returns the admin dashboard totals.
func (c *Client) Stats(ctx context.Context, sess *Session) (model.Stats, error) {
	if err := authorized(sess); err != nil {
		return model.Stats{}, err
	}
	return getItem[model.Stats](ctx, c, request{method: http.MethodGet, path: "/bookings/admin/stats", sess: sess})
}

type chatBody struct {
	Message string `json:"message"`
}

// Chat asks the help desk assistant. No session is needed.
func (c *Client) Chat(ctx context.Context, message string) (string, error) {
	return getMessage(ctx, c, request{method: http.MethodPost, path: "/chat", body: chatBody{Message: message}})
}
