package repository

import (
	"fmt"
	"strings"

	"github.com/eventify/ticketing/internal/model"
)

// DefaultCategory is stored when an event is created without one.
const DefaultCategory = "General"

// newEventFromInput validates in and builds the row to insert. Available
// seats default to the capacity only when absent; an explicit 0 is kept.
func newEventFromInput(in model.EventInput) (model.Event, error) {
	if err := validateEventInput(in); err != nil {
		return model.Event{}, err
	}
	e := model.Event{
		Title:          strings.TrimSpace(in.Title),
		Description:    in.Description,
		Category:       strings.TrimSpace(in.Category),
		Location:       strings.TrimSpace(in.Location),
		ImageURL:       strings.TrimSpace(in.ImageURL),
		StartDate:      in.StartDate.UTC(),
		Price:          in.Price,
		TotalSeats:     in.TotalSeats,
		AvailableSeats: in.TotalSeats,
	}
	if e.Category == "" {
		e.Category = DefaultCategory
	}
	if in.EndDate != nil {
		end := in.EndDate.UTC()
		e.EndDate = &end
	}
	if in.AvailableSeats != nil {
		e.AvailableSeats = *in.AvailableSeats
	}
	return e, nil
}

// applyEventUpdate merges in onto cur. A capacity change shifts available
// seats by the same delta, clamped to [0, total], unless the caller set
// AvailableSeats explicitly.
func applyEventUpdate(cur model.Event, in model.EventInput) (model.Event, error) {
	if err := validateEventInput(in); err != nil {
		return model.Event{}, err
	}
	next, _ := newEventFromInput(in)
	next.ID = cur.ID
	if in.AvailableSeats != nil {
		next.AvailableSeats = *in.AvailableSeats
		return next, nil
	}
	avail := cur.AvailableSeats + (in.TotalSeats - cur.TotalSeats)
	if avail < 0 {
		avail = 0
	}
	if avail > in.TotalSeats {
		avail = in.TotalSeats
	}
	next.AvailableSeats = avail
	return next, nil
}

func validateEventInput(in model.EventInput) error {
	switch {
	case strings.TrimSpace(in.Title) == "":
		return fmt.Errorf("%w: title is required", ErrInvalidEvent)
	case len(in.Description) > 1000:
		return fmt.Errorf("%w: description exceeds 1000 characters", ErrInvalidEvent)
	case in.StartDate.IsZero():
		return fmt.Errorf("%w: startDate is required", ErrInvalidEvent)
	case in.EndDate != nil && in.EndDate.Before(in.StartDate):
		return fmt.Errorf("%w: endDate is before startDate", ErrInvalidEvent)
	case in.Price < 0:
		return fmt.Errorf("%w: price must not be negative", ErrInvalidEvent)
	case in.TotalSeats <= 0:
		return fmt.Errorf("%w: totalSeats must be positive", ErrInvalidEvent)
	case in.AvailableSeats != nil && (*in.AvailableSeats < 0 || *in.AvailableSeats > in.TotalSeats):
		return fmt.Errorf("%w: availableSeats must be between 0 and totalSeats", ErrInvalidEvent)
	}
	return nil
}

// matchesFilter applies an EventFilter in memory with the same semantics
// as the SQL search: case-insensitive substring on title, description and
// location for Query, exact case-insensitive match for Category.
func matchesFilter(e model.Event, f model.EventFilter) bool {
	if c := strings.TrimSpace(f.Category); c != "" && !strings.EqualFold(e.Category, c) {
		return false
	}
	q := strings.ToLower(strings.TrimSpace(f.Query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(e.Title), q) ||
		strings.Contains(strings.ToLower(e.Description), q) ||
		strings.Contains(strings.ToLower(e.Location), q)
}
