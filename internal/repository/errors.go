// Package repository defines the persistence layer for events, users and
// bookings together with the sentinel errors shared by every store
// implementation. Handlers use errors.Is against these values to pick the
// HTTP status of a failed operation.
package repository

import "errors"

// ErrEventNotFound is returned when no event has the requested id.
var ErrEventNotFound = errors.New("event not found")

// ErrBookingNotFound is returned when a booking lookup matches nothing.
var ErrBookingNotFound = errors.New("booking not found")

// ErrUserNotFound is returned when no user matches an id or email.
var ErrUserNotFound = errors.New("user not found")

// ErrEmailExists is returned by user creation on a duplicate email.
var ErrEmailExists = errors.New("email already exists")

// ErrSoldOut is returned when a booking is attempted on an event with no
// available seats. Handlers translate this into an HTTP 409 response.
var ErrSoldOut = errors.New("this event is sold out")

// ErrAlreadyCheckedIn is returned by CheckIn when the ticket was already
// scanned. The booking is returned alongside it unchanged.
var ErrAlreadyCheckedIn = errors.New("ticket already scanned")

// ErrConflict is returned when a delete or update cannot be performed
// because of dependent records, such as deleting an event that still has
// bookings. Handlers translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrInvalidEvent is returned when event input breaks an invariant:
// negative price, non-positive capacity or available seats above total.
var ErrInvalidEvent = errors.New("invalid event")
