package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/eventify/ticketing/internal/model"
	"github.com/eventify/ticketing/internal/utils"
)

// BookingRepo persists bookings. Seat allocation and check-in run inside
// transactions that lock the affected row, so concurrent requests on the
// same event or ticket are serialized by MySQL.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// ticketAttempts bounds retries when a generated ticket code collides with
// an existing one.
const ticketAttempts = 3

// bookingSelect joins the owning user and event so every read returns the
// display fields alongside the booking row.
const bookingSelect = `SELECT b.id, b.user_id, b.event_id, b.ticket_code, b.status, b.booking_date,
	b.amount_paid, u.name, u.email, e.title
	FROM bookings b
	JOIN users u  ON u.id = b.user_id
	JOIN events e ON e.id = b.event_id`

func scanBooking(s rowScanner) (model.Booking, error) {
	var b model.Booking
	err := s.Scan(&b.ID, &b.UserID, &b.EventID, &b.TicketCode, &b.Status, &b.BookingDate,
		&b.AmountPaid, &b.CustomerName, &b.CustomerEmail, &b.EventTitle)
	b.BookingDate = b.BookingDate.UTC()
	return b, err
}

// Book allocates one seat of eventID to userID. The event row is locked
// with SELECT ... FOR UPDATE; the booking is rejected with ErrSoldOut when
// no seat remains, otherwise the counter is decremented and a booking with
// a fresh ticket code is inserted in the same transaction.
func (r *BookingRepo) Book(ctx context.Context, userID, eventID uint64) (model.Booking, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Booking{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var name, email string
	err = tx.QueryRowContext(ctx, `SELECT name, email FROM users WHERE id = ?`, userID).Scan(&name, &email)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Booking{}, ErrUserNotFound
	}
	if err != nil {
		return model.Booking{}, err
	}

	var (
		title     string
		price     float64
		available int
	)
	err = tx.QueryRowContext(ctx,
		`SELECT title, price, available_seats FROM events WHERE id = ? FOR UPDATE`, eventID).
		Scan(&title, &price, &available)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Booking{}, ErrEventNotFound
	}
	if err != nil {
		return model.Booking{}, err
	}
	if available <= 0 {
		return model.Booking{}, ErrSoldOut
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE events SET available_seats = available_seats - 1 WHERE id = ?`, eventID); err != nil {
		return model.Booking{}, fmt.Errorf("decrement seats: %w", err)
	}

	b := model.Booking{
		UserID:        userID,
		EventID:       eventID,
		Status:        model.StatusConfirmed,
		BookingDate:   time.Now().UTC().Truncate(time.Second),
		AmountPaid:    price,
		CustomerName:  name,
		CustomerEmail: email,
		EventTitle:    title,
	}
	for attempt := 1; ; attempt++ {
		b.TicketCode = utils.NewTicketCode()
		res, err := tx.ExecContext(ctx,
			`INSERT INTO bookings (user_id, event_id, ticket_code, status, booking_date, amount_paid) VALUES (?, ?, ?, ?, ?, ?)`,
			b.UserID, b.EventID, b.TicketCode, b.Status, b.BookingDate, b.AmountPaid)
		if err != nil {
			var me *mysql.MySQLError
			if errors.As(err, &me) && me.Number == 1062 && attempt < ticketAttempts {
				continue
			}
			return model.Booking{}, fmt.Errorf("insert booking: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return model.Booking{}, err
		}
		b.ID = uint64(id)
		break
	}

	if err := tx.Commit(); err != nil {
		return model.Booking{}, err
	}
	committed = true
	return b, nil
}

// GetByID returns a single booking or ErrBookingNotFound.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (model.Booking, error) {
	b, err := scanBooking(r.db.QueryRowContext(ctx, bookingSelect+` WHERE b.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Booking{}, ErrBookingNotFound
	}
	return b, err
}

// Find resolves a scanner query. A numeric query is tried as a booking id
// first, a query containing "@" matches the newest booking of that email,
// anything else is compared case-insensitively against ticket codes.
func (r *BookingRepo) Find(ctx context.Context, query string) (model.Booking, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return model.Booking{}, ErrBookingNotFound
	}
	if id, err := strconv.ParseUint(query, 10, 64); err == nil {
		b, err := r.GetByID(ctx, id)
		if !errors.Is(err, ErrBookingNotFound) {
			return b, err
		}
	}
	var row *sql.Row
	if strings.Contains(query, "@") {
		row = r.db.QueryRowContext(ctx,
			bookingSelect+` WHERE u.email = ? ORDER BY b.booking_date DESC, b.id DESC LIMIT 1`, NormalizeEmail(query))
	} else {
		row = r.db.QueryRowContext(ctx, bookingSelect+` WHERE UPPER(b.ticket_code) = ?`, strings.ToUpper(query))
	}
	b, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Booking{}, ErrBookingNotFound
	}
	return b, err
}

// CheckIn moves a booking from CONFIRMED to CHECKED_IN. When the ticket
// was already used it returns the unchanged booking with
// ErrAlreadyCheckedIn.
func (r *BookingRepo) CheckIn(ctx context.Context, id uint64) (model.Booking, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Booking{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	b, err := scanBooking(tx.QueryRowContext(ctx, bookingSelect+` WHERE b.id = ? FOR UPDATE`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Booking{}, ErrBookingNotFound
	}
	if err != nil {
		return model.Booking{}, err
	}
	if b.CheckedIn() {
		return b, ErrAlreadyCheckedIn
	}
	if _, err := tx.ExecContext(ctx, `UPDATE bookings SET status = ? WHERE id = ?`, model.StatusCheckedIn, id); err != nil {
		return model.Booking{}, fmt.Errorf("check in booking: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return model.Booking{}, err
	}
	committed = true
	b.Status = model.StatusCheckedIn
	return b, nil
}

// ListByUser returns a user's bookings, newest first.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Booking, error) {
	return r.list(ctx, ` WHERE b.user_id = ? ORDER BY b.booking_date DESC, b.id DESC`, userID)
}

// ListByEvent returns the bookings of one event in booking order.
func (r *BookingRepo) ListByEvent(ctx context.Context, eventID uint64) ([]model.Booking, error) {
	return r.list(ctx, ` WHERE b.event_id = ? ORDER BY b.booking_date ASC, b.id ASC`, eventID)
}

// ListAll returns every booking, newest first.
func (r *BookingRepo) ListAll(ctx context.Context) ([]model.Booking, error) {
	return r.list(ctx, ` ORDER BY b.booking_date DESC, b.id DESC`)
}

// Stats aggregates totals over all bookings and attaches the five most
// recent ones.
func (r *BookingRepo) Stats(ctx context.Context) (model.Stats, error) {
	var s model.Stats
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(amount_paid), 0), COALESCE(SUM(status = ?), 0) FROM bookings`,
		model.StatusCheckedIn).Scan(&s.TotalBookings, &s.TotalRevenue, &s.CheckedIn)
	if err != nil {
		return model.Stats{}, err
	}
	s.RecentBookings, err = r.list(ctx, ` ORDER BY b.booking_date DESC, b.id DESC LIMIT 5`)
	if err != nil {
		return model.Stats{}, err
	}
	return s, nil
}

func (r *BookingRepo) list(ctx context.Context, tail string, args ...any) ([]model.Booking, error) {
	rows, err := r.db.QueryContext(ctx, bookingSelect+tail, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
