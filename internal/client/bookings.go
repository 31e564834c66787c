package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/eventify/ticketing/internal/model"
)

// CreateBooking books one seat of eventID for userID. Capacity is decided
// by the server: a full event is ErrSoldOut, which is also an
// ErrValidation. Without a valid session nothing is sent.
func (c *Client) CreateBooking(ctx context.Context, sess *Session, userID, eventID uint64) (model.Booking, error) {
	if err := authorized(sess); err != nil {
		return model.Booking{}, err
	}
	q := url.Values{}
	q.Set("userId", strconv.FormatUint(userID, 10))
	q.Set("eventId", strconv.FormatUint(eventID, 10))
	return getItem[model.Booking](ctx, c, request{method: http.MethodPost, path: "/bookings/book", query: q, sess: sess})
}

// ListUserBookings returns a user's tickets, newest first.
func (c *Client) ListUserBookings(ctx context.Context, sess *Session, userID uint64) ([]model.Booking, error) {
	if err := authorized(sess); err != nil {
		return nil, err
	}
	return getItems[model.Booking](ctx, c, request{method: http.MethodGet, path: idPath("/bookings/user/%d", userID), sess: sess})
}

// ListAllBookings returns every booking. Admin only.
func (c *Client) ListAllBookings(ctx context.Context, sess *Session) ([]model.Booking, error) {
	if err := authorized(sess); err != nil {
		return nil, err
	}
	return getItems[model.Booking](ctx, c, request{method: http.MethodGet, path: "/bookings/all", sess: sess})
}
