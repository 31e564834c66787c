package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/eventify/ticketing/internal/model"
)

// FindBooking looks a ticket up by booking id, ticket code or the guest's
// email.
func (c *Client) FindBooking(ctx context.Context, sess *Session, query string) (model.Booking, error) {
	if err := authorized(sess); err != nil {
		return model.Booking{}, err
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return model.Booking{}, fmt.Errorf("%w: query is required", ErrValidation)
	}
	q := url.Values{}
	q.Set("query", query)
	return getItem[model.Booking](ctx, c, request{method: http.MethodGet, path: "/bookings/verify", query: q, sess: sess})
}

// CheckIn marks a booking as used. When it already was, the unchanged
// booking is returned together with ErrAlreadyProcessed.
func (c *Client) CheckIn(ctx context.Context, sess *Session, bookingID uint64) (model.Booking, error) {
	if err := authorized(sess); err != nil {
		return model.Booking{}, err
	}
	b, err := getItem[model.Booking](ctx, c, request{method: http.MethodPost, path: idPath("/bookings/%d/check-in", bookingID), sess: sess})
	if err == nil || !errors.Is(err, ErrAlreadyProcessed) {
		return b, err
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && len(apiErr.Item) > 0 {
		if jerr := json.Unmarshal(apiErr.Item, &b); jerr != nil {
			return model.Booking{}, malformed("already checked in: %v", jerr)
		}
	}
	return b, err
}

// ListAttendees returns the guest list of an event. Admin only.
func (c *Client) ListAttendees(ctx context.Context, sess *Session, eventID uint64) ([]model.Attendee, error) {
	if err := authorized(sess); err != nil {
		return nil, err
	}
	return getItems[model.Attendee](ctx, c, request{method: http.MethodGet, path: idPath("/bookings/event/%d", eventID), sess: sess})
}
