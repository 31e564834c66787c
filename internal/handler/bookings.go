package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/samber/lo"

	"github.com/eventify/ticketing/internal/logging"
	"github.com/eventify/ticketing/internal/metrics"
	"github.com/eventify/ticketing/internal/model"
	"github.com/eventify/ticketing/internal/queue"
	"github.com/eventify/ticketing/internal/repository"
	"github.com/eventify/ticketing/internal/service"
)

// BookingHandler serves ticket purchase, dashboards, the scanner and the
// admin booking views.
type BookingHandler struct {
	Bookings  BookingStore
	Events    EventStore
	Publisher service.Publisher
	Cache     CacheInvalidator
}

func NewBookingHandler(bookings BookingStore, events EventStore, pub service.Publisher, cache CacheInvalidator) *BookingHandler {
	return &BookingHandler{Bookings: bookings, Events: events, Publisher: pub, Cache: cache}
}

// Book issues one ticket: POST /bookings/book?userId=&eventId=. Users may
// only book for themselves; admins may book for anyone.
func (h *BookingHandler) Book(c echo.Context) error {
	userID, ok := parseQueryID(c, "userId")
	if !ok {
		return badRequest(c, "userId is required")
	}
	eventID, ok := parseQueryID(c, "eventId")
	if !ok {
		return badRequest(c, "eventId is required")
	}
	if !actingFor(c, userID) {
		return writeError(c, http.StatusForbidden, model.CodeForbidden, "you can only book tickets for yourself")
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	b, err := h.Bookings.Book(ctx, userID, eventID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrSoldOut):
			metrics.BookingsRejected.WithLabelValues("sold_out").Inc()
		case errors.Is(err, repository.ErrEventNotFound), errors.Is(err, repository.ErrUserNotFound):
			metrics.BookingsRejected.WithLabelValues("not_found").Inc()
		}
		return fail(c, err)
	}
	metrics.BookingsCreated.Inc()
	invalidate(c, h.Cache)

	err = h.Publisher.PublishBookingConfirmed(c.Request().Context(), queue.BookingConfirmedEvent{
		BookingID:     b.ID,
		UserID:        b.UserID,
		EventID:       b.EventID,
		EventTitle:    b.EventTitle,
		TicketCode:    b.TicketCode,
		CustomerName:  b.CustomerName,
		CustomerEmail: b.CustomerEmail,
		AmountPaid:    b.AmountPaid,
		ConfirmedAt:   b.BookingDate,
	})
	if err != nil {
		metrics.NotificationsFailed.WithLabelValues("booking").Inc()
		logging.FromContext(c.Request().Context()).WithError(err).WithField("booking_id", b.ID).Warn("publish booking confirmation failed")
	}
	return item(c, http.StatusCreated, b)
}

// ListByUser returns a user's tickets, newest first.
func (h *BookingHandler) ListByUser(c echo.Context) error {
	userID, ok := parseID(c, "userId")
	if !ok {
		return badRequest(c, "invalid user id")
	}
	if !actingFor(c, userID) {
		return writeError(c, http.StatusForbidden, model.CodeForbidden, "you can only view your own bookings")
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	list, err := h.Bookings.ListByUser(ctx, userID)
	if err != nil {
		return fail(c, err)
	}
	return items(c, list)
}

// ListAll returns the full booking history for admins.
func (h *BookingHandler) ListAll(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	list, err := h.Bookings.ListAll(ctx)
	if err != nil {
		return fail(c, err)
	}
	return items(c, list)
}

// Attendees returns the guest list of an event.
func (h *BookingHandler) Attendees(c echo.Context) error {
	eventID, ok := parseID(c, "eventId")
	if !ok {
		return badRequest(c, "invalid event id")
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	if _, err := h.Events.GetByID(ctx, eventID); err != nil {
		return fail(c, err)
	}
	list, err := h.Bookings.ListByEvent(ctx, eventID)
	if err != nil {
		return fail(c, err)
	}
	return items(c, lo.Map(list, func(b model.Booking, _ int) model.Attendee { return model.AttendeeFrom(b) }))
}

// Verify looks a booking up by id, ticket code or email for the scanner.
func (h *BookingHandler) Verify(c echo.Context) error {
	q := c.QueryParam("query")
	if q == "" {
		return badRequest(c, "query is required")
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	b, err := h.Bookings.Find(ctx, q)
	if err != nil {
		return fail(c, err)
	}
	return item(c, http.StatusOK, b)
}

// CheckIn marks a ticket as used. A second scan answers 409
// already_checked_in with the unchanged booking as item.
func (h *BookingHandler) CheckIn(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid booking id")
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	b, err := h.Bookings.CheckIn(ctx, id)
	if errors.Is(err, repository.ErrAlreadyCheckedIn) {
		metrics.CheckIns.WithLabelValues("already_checked_in").Inc()
		return c.JSON(http.StatusConflict, echo.Map{
			"error": "Ticket already scanned",
			"code":  model.CodeAlreadyCheckedIn,
			"item":  b,
		})
	}
	if err != nil {
		return fail(c, err)
	}
	metrics.CheckIns.WithLabelValues("ok").Inc()
	return item(c, http.StatusOK, b)
}

type broadcastReq struct {
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// Broadcast messages every distinct guest of an event.
func (h *BookingHandler) Broadcast(c echo.Context) error {
	eventID, ok := parseID(c, "eventId")
	if !ok {
		return badRequest(c, "invalid event id")
	}
	var req broadcastReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if req.Subject == "" || req.Message == "" {
		return badRequest(c, "subject and message are required")
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	ev, err := h.Events.GetByID(ctx, eventID)
	if err != nil {
		return fail(c, err)
	}
	list, err := h.Bookings.ListByEvent(ctx, eventID)
	if err != nil {
		return fail(c, err)
	}
	emails := lo.Uniq(lo.FilterMap(list, func(b model.Booking, _ int) (string, bool) {
		return b.CustomerEmail, b.CustomerEmail != ""
	}))
	if len(emails) == 0 {
		return badRequest(c, "No guests to notify.")
	}

	err = h.Publisher.PublishBroadcast(c.Request().Context(), queue.BroadcastRequestedEvent{
		EventID:     ev.ID,
		EventTitle:  ev.Title,
		Subject:     req.Subject,
		Message:     req.Message,
		Recipients:  emails,
		RequestedAt: time.Now().UTC(),
	})
	if err != nil {
		metrics.NotificationsFailed.WithLabelValues("broadcast").Inc()
		return fail(c, err)
	}
	return item(c, http.StatusOK, model.BroadcastResult{
		Notified: len(emails),
		Message:  broadcastMessage(len(emails)),
	})
}

func broadcastMessage(n int) string {
	return fmt.Sprintf("Successfully notified %d guests.", n)
}

// Stats returns totals for the admin dashboard.
func (h *BookingHandler) Stats(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	s, err := h.Bookings.Stats(ctx)
	if err != nil {
		return fail(c, err)
	}
	if s.RecentBookings == nil {
		s.RecentBookings = []model.Booking{}
	}
	return item(c, http.StatusOK, s)
}
