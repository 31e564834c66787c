package model

import "time"

// Booking statuses. A booking moves from CONFIRMED to CHECKED_IN exactly
// once and never back.
const (
	StatusConfirmed = "CONFIRMED"
	StatusCheckedIn = "CHECKED_IN"
)

// Booking is a user's claim on one seat of an event, identified by a
// unique ticket code. CustomerName, CustomerEmail and EventTitle are
// joined in for display and are not stored on the booking row.
type Booking struct {
	ID            uint64    `json:"id"`
	UserID        uint64    `json:"userId"`
	EventID       uint64    `json:"eventId"`
	TicketCode    string    `json:"ticketCode"`
	Status        string    `json:"status"`
	BookingDate   time.Time `json:"bookingDate"`
	AmountPaid    float64   `json:"amountPaid"`
	CustomerName  string    `json:"customerName"`
	CustomerEmail string    `json:"customerEmail"`
	EventTitle    string    `json:"eventTitle"`
}

// CheckedIn reports whether the ticket has already been used.
func (b Booking) CheckedIn() bool { return b.Status == StatusCheckedIn }

// Attendee is one row of an event's guest list.
type Attendee struct {
	ID            uint64 `json:"id"`
	TicketCode    string `json:"ticketCode"`
	CustomerName  string `json:"customerName"`
	CustomerEmail string `json:"customerEmail"`
	Status        string `json:"status"`
	CheckedIn     bool   `json:"checkedIn"`
}

// AttendeeFrom projects a booking onto the guest list shape.
func AttendeeFrom(b Booking) Attendee {
	return Attendee{
		ID:            b.ID,
		TicketCode:    b.TicketCode,
		CustomerName:  b.CustomerName,
		CustomerEmail: b.CustomerEmail,
		Status:        b.Status,
		CheckedIn:     b.CheckedIn(),
	}
}

// Stats summarises bookings for the admin dashboard.
type Stats struct {
	TotalBookings  int       `json:"totalBookings"`
	TotalRevenue   float64   `json:"totalRevenue"`
	CheckedIn      int       `json:"checkedIn"`
	RecentBookings []Booking `json:"recentBookings"`
}

// BroadcastResult reports how many distinct guests a broadcast reached.
type BroadcastResult struct {
	Notified int    `json:"notified"`
	Message  string `json:"message"`
}
