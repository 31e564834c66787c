package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/eventify/ticketing/internal/model"
)

// EventHandler serves the public catalog and the admin event editor.
type EventHandler struct {
	Events EventStore
	Cache  CacheInvalidator
}

func NewEventHandler(events EventStore, cache CacheInvalidator) *EventHandler {
	return &EventHandler{Events: events, Cache: cache}
}

// List returns events, optionally filtered by ?q= and ?category=.
func (h *EventHandler) List(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	list, err := h.Events.List(ctx, model.EventFilter{
		Query:    strings.TrimSpace(c.QueryParam("q")),
		Category: strings.TrimSpace(c.QueryParam("category")),
	})
	if err != nil {
		return fail(c, err)
	}
	return items(c, list)
}

// Get returns one event.
func (h *EventHandler) Get(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid event id")
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	e, err := h.Events.GetByID(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	return item(c, http.StatusOK, e)
}

// Create adds an event. Available seats default to the capacity.
func (h *EventHandler) Create(c echo.Context) error {
	var in model.EventInput
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	e, err := h.Events.Create(ctx, in)
	if err != nil {
		return fail(c, err)
	}
	invalidate(c, h.Cache)
	return item(c, http.StatusCreated, e)
}

// Update replaces an event's editable fields.
func (h *EventHandler) Update(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid event id")
	}
	var in model.EventInput
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	e, err := h.Events.Update(ctx, id, in)
	if err != nil {
		return fail(c, err)
	}
	invalidate(c, h.Cache)
	return item(c, http.StatusOK, e)
}

// Delete removes an event that has no bookings.
func (h *EventHandler) Delete(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid event id")
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	if err := h.Events.Delete(ctx, id); err != nil {
		return fail(c, err)
	}
	invalidate(c, h.Cache)
	return message(c, http.StatusOK, "Event deleted successfully")
}
