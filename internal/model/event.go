package model

import "time"

// Event represents a ticketable occurrence as stored in the `events`
// table and exchanged over the API.
//
// Fields:
//  ID             – primary key identifier.
//  Title          – display title.
//  Description    – free text, up to 1000 characters.
//  Category       – grouping label (e.g. Music, Tech).
//  Location       – venue.
//  ImageURL       – cover image URL.
//  StartDate      – when the event begins.
//  EndDate        – when the event ends (optional).
//  Price          – ticket price, never negative.
//  TotalSeats     – capacity.
//  AvailableSeats – seats not yet booked, never above TotalSeats.
type Event struct {
	ID             uint64     `json:"id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Category       string     `json:"category"`
	Location       string     `json:"location"`
	ImageURL       string     `json:"imageUrl"`
	StartDate      time.Time  `json:"startDate"`
	EndDate        *time.Time `json:"endDate,omitempty"`
	Price          float64    `json:"price"`
	TotalSeats     int        `json:"totalSeats"`
	AvailableSeats int        `json:"availableSeats"`
}

// SoldOut reports whether no seats remain.
func (e Event) SoldOut() bool { return e.AvailableSeats <= 0 }

// EventInput carries the admin-editable fields of an event. Pointer
// fields are optional: AvailableSeats defaults to TotalSeats on create.
type EventInput struct {
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Category       string     `json:"category"`
	Location       string     `json:"location"`
	ImageURL       string     `json:"imageUrl"`
	StartDate      time.Time  `json:"startDate"`
	EndDate        *time.Time `json:"endDate,omitempty"`
	Price          float64    `json:"price"`
	TotalSeats     int        `json:"totalSeats"`
	AvailableSeats *int       `json:"availableSeats,omitempty"`
}

// EventFilter narrows an event listing. Empty fields match everything.
type EventFilter struct {
	Query    string
	Category string
}
