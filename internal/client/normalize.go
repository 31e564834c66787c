package client

import (
	"fmt"
	"strings"

	"github.com/eventify/ticketing/internal/model"
)

const defaultCategory = "General"

// fallbackImage is shown for events without a cover image.
func fallbackImage(id uint64) string {
	return fmt.Sprintf("https://picsum.photos/seed/%d/1200/800", id)
}

// normalizeEvent fills display defaults and rejects events that break
// the seat or price invariants. Applying it twice changes nothing.
func normalizeEvent(e model.Event) (model.Event, error) {
	if e.Price < 0 {
		return e, malformed("event %d has negative price", e.ID)
	}
	if e.AvailableSeats < 0 || e.AvailableSeats > e.TotalSeats {
		return e, malformed("event %d has %d of %d seats available", e.ID, e.AvailableSeats, e.TotalSeats)
	}
	if strings.TrimSpace(e.Category) == "" {
		e.Category = defaultCategory
	}
	if strings.TrimSpace(e.ImageURL) == "" {
		e.ImageURL = fallbackImage(e.ID)
	}
	return e, nil
}

// validateEventInput catches obvious mistakes before a round trip. The
// server still validates everything.
func validateEventInput(in model.EventInput) error {
	switch {
	case strings.TrimSpace(in.Title) == "":
		return fmt.Errorf("%w: title is required", ErrValidation)
	case in.Price < 0:
		return fmt.Errorf("%w: price must not be negative", ErrValidation)
	case in.TotalSeats <= 0:
		return fmt.Errorf("%w: total seats must be positive", ErrValidation)
	case in.AvailableSeats != nil && (*in.AvailableSeats < 0 || *in.AvailableSeats > in.TotalSeats):
		return fmt.Errorf("%w: available seats must be between 0 and total seats", ErrValidation)
	case in.EndDate != nil && in.EndDate.Before(in.StartDate):
		return fmt.Errorf("%w: end date is before start date", ErrValidation)
	}
	return nil
}
