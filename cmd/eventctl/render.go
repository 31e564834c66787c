package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"github.com/eventify/ticketing/internal/model"
)

var (
	ok    = color.New(color.FgGreen, color.Bold).SprintFunc()
	warn  = color.New(color.FgYellow, color.Bold).SprintFunc()
	bad   = color.New(color.FgRed, color.Bold).SprintFunc()
	faint = color.New(color.Faint).SprintFunc()
)

const dateLayout = "Mon 02 Jan 2006 15:04"

func table(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func seats(e model.Event) string {
	if e.SoldOut() {
		return bad("SOLD OUT")
	}
	return fmt.Sprintf("%d/%d", e.AvailableSeats, e.TotalSeats)
}

func status(b model.Booking) string {
	if b.CheckedIn() {
		return warn(b.Status)
	}
	return ok(b.Status)
}

func printEvents(w io.Writer, list []model.Event) {
	if len(list) == 0 {
		fmt.Fprintln(w, faint("no events"))
		return
	}
	tw := table(w)
	fmt.Fprintln(tw, "ID\tTITLE\tCATEGORY\tWHEN\tWHERE\tPRICE\tSEATS")
	for _, e := range list {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%.2f\t%s\n",
			e.ID, e.Title, e.Category, e.StartDate.Local().Format(dateLayout), e.Location, e.Price, seats(e))
	}
	tw.Flush()
}

func printEvent(w io.Writer, e model.Event) {
	fmt.Fprintf(w, "%s  %s\n", color.New(color.Bold).Sprint(e.Title), faint("#", e.ID))
	fmt.Fprintf(w, "Category: %s\n", e.Category)
	fmt.Fprintf(w, "When:     %s", e.StartDate.Local().Format(dateLayout))
	if e.EndDate != nil {
		fmt.Fprintf(w, " - %s", e.EndDate.Local().Format(dateLayout))
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Where:    %s\n", e.Location)
	fmt.Fprintf(w, "Price:    %.2f\n", e.Price)
	fmt.Fprintf(w, "Seats:    %s\n", seats(e))
	fmt.Fprintf(w, "Image:    %s\n", e.ImageURL)
	if e.Description != "" {
		fmt.Fprintf(w, "\n%s\n", e.Description)
	}
}

func printBookings(w io.Writer, list []model.Booking) {
	if len(list) == 0 {
		fmt.Fprintln(w, faint("no bookings"))
		return
	}
	tw := table(w)
	fmt.Fprintln(tw, "ID\tTICKET\tEVENT\tGUEST\tBOOKED\tPAID\tSTATUS")
	for _, b := range list {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%.2f\t%s\n",
			b.ID, b.TicketCode, b.EventTitle, b.CustomerEmail, b.BookingDate.Local().Format(dateLayout), b.AmountPaid, status(b))
	}
	tw.Flush()
}

// printTicket is the terminal version of the printable pass.
func printTicket(w io.Writer, b model.Booking) {
	fmt.Fprintf(w, "Ticket  %s\n", color.New(color.Bold).Sprint(b.TicketCode))
	fmt.Fprintf(w, "Event   %s\n", b.EventTitle)
	fmt.Fprintf(w, "Guest   %s <%s>\n", b.CustomerName, b.CustomerEmail)
	fmt.Fprintf(w, "Booked  %s\n", b.BookingDate.Local().Format(dateLayout))
	fmt.Fprintf(w, "Status  %s\n", status(b))
}

func printAttendees(w io.Writer, list []model.Attendee) {
	if len(list) == 0 {
		fmt.Fprintln(w, faint("no guests yet"))
		return
	}
	tw := table(w)
	fmt.Fprintln(tw, "ID\tTICKET\tNAME\tEMAIL\tCHECKED IN")
	for _, a := range list {
		in := faint("no")
		if a.CheckedIn {
			in = ok("yes")
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", a.ID, a.TicketCode, a.CustomerName, a.CustomerEmail, in)
	}
	tw.Flush()
}

func printStats(w io.Writer, s model.Stats) {
	fmt.Fprintf(w, "Bookings:   %d\n", s.TotalBookings)
	fmt.Fprintf(w, "Revenue:    %.2f\n", s.TotalRevenue)
	fmt.Fprintf(w, "Checked in: %d\n", s.CheckedIn)
	if len(s.RecentBookings) > 0 {
		fmt.Fprintln(w, "\nRecent bookings")
		printBookings(w, s.RecentBookings)
	}
}

// parseDate accepts RFC 3339 or the short "2006-01-02 15:04" form in
// local time.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.ParseInLocation("2006-01-02 15:04", s, time.Local)
}
