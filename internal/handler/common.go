package handler // handler defines http handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eventify/ticketing/internal/logging"
	"github.com/eventify/ticketing/internal/middleware"
	"github.com/eventify/ticketing/internal/model"
	"github.com/eventify/ticketing/internal/repository"
)

// EventStore is implemented by repository.EventRepo and the memory store.
type EventStore interface {
	List(ctx context.Context, f model.EventFilter) ([]model.Event, error)
	GetByID(ctx context.Context, id uint64) (model.Event, error)
	Create(ctx context.Context, in model.EventInput) (model.Event, error)
	Update(ctx context.Context, id uint64, in model.EventInput) (model.Event, error)
	Delete(ctx context.Context, id uint64) error
}

// UserStore is implemented by repository.UserRepo and the memory store.
type UserStore interface {
	Create(ctx context.Context, name, email, password, role string, cost int) (uint64, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// BookingStore is implemented by repository.BookingRepo and the memory store.
type BookingStore interface {
	Book(ctx context.Context, userID, eventID uint64) (model.Booking, error)
	GetByID(ctx context.Context, id uint64) (model.Booking, error)
	Find(ctx context.Context, query string) (model.Booking, error)
	CheckIn(ctx context.Context, id uint64) (model.Booking, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.Booking, error)
	ListByEvent(ctx context.Context, eventID uint64) ([]model.Booking, error)
	ListAll(ctx context.Context) ([]model.Booking, error)
	Stats(ctx context.Context) (model.Stats, error)
}

// CacheInvalidator drops cached public responses after a write.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// dbTimeout bounds every store call made by a handler.
const dbTimeout = 5 * time.Second

func withTimeout(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

func item(c echo.Context, status int, v any) error {
	return c.JSON(status, echo.Map{"item": v})
}

func items[T any](c echo.Context, list []T) error {
	if list == nil {
		list = []T{}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": list, "count": len(list)})
}

func message(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"message": msg})
}

func writeError(c echo.Context, status int, code, msg string) error {
	return c.JSON(status, model.ErrorBody{Error: msg, Code: code})
}

func badRequest(c echo.Context, msg string) error {
	return writeError(c, http.StatusBadRequest, model.CodeValidation, msg)
}

// fail maps store errors onto the API error body. Unknown errors are
// logged and reported as 500 without leaking details.
func fail(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrEventNotFound):
		return writeError(c, http.StatusNotFound, model.CodeNotFound, "Event not found")
	case errors.Is(err, repository.ErrBookingNotFound):
		return writeError(c, http.StatusNotFound, model.CodeNotFound, "Booking not found")
	case errors.Is(err, repository.ErrUserNotFound):
		return writeError(c, http.StatusNotFound, model.CodeNotFound, "User not found")
	case errors.Is(err, repository.ErrSoldOut):
		return writeError(c, http.StatusConflict, model.CodeSoldOut, "This event is sold out!")
	case errors.Is(err, repository.ErrInvalidEvent):
		return badRequest(c, err.Error())
	case errors.Is(err, repository.ErrEmailExists):
		return writeError(c, http.StatusConflict, model.CodeConflict, "Email is already in use")
	case errors.Is(err, repository.ErrConflict):
		return writeError(c, http.StatusConflict, model.CodeConflict, "Event still has bookings")
	case errors.Is(err, context.DeadlineExceeded):
		return writeError(c, http.StatusGatewayTimeout, model.CodeInternal, "request timed out")
	}
	logging.FromContext(c.Request().Context()).WithError(err).Error("request failed")
	return writeError(c, http.StatusInternalServerError, model.CodeInternal, "internal server error")
}

// parseID reads a positive integer path parameter.
func parseID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(c.Param(name)), 10, 64)
	return id, err == nil && id > 0
}

// parseQueryID reads a positive integer query parameter.
func parseQueryID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(c.QueryParam(name)), 10, 64)
	return id, err == nil && id > 0
}

// actingFor reports whether the caller may act on behalf of userID: the
// user themself or any admin.
func actingFor(c echo.Context, userID uint64) bool {
	if middleware.Role(c) == model.RoleAdmin {
		return true
	}
	uid, ok := middleware.UserID(c)
	return ok && uid == userID
}

// invalidate drops cached event responses; failures only cost freshness.
func invalidate(c echo.Context, cache CacheInvalidator) {
	if cache == nil {
		return
	}
	if err := cache.Invalidate(c.Request().Context()); err != nil {
		logging.FromContext(c.Request().Context()).WithError(err).Warn("cache invalidation failed")
	}
}
