package repository

import (
	"context"      // context for controlling query lifetime
	"database/sql" // sql provides DB abstraction
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/eventify/ticketing/internal/model"
)

// EventRepo manages persistence for events in MySQL.
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo constructs an EventRepo with the given DB handle.
func NewEventRepo(db *sql.DB) *EventRepo {
	return &EventRepo{db: db}
}

const eventColumns = `id, title, description, category, location, image_url,
	start_date, end_date, price, total_seats, available_seats`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(s rowScanner) (model.Event, error) {
	var (
		e   model.Event
		end sql.NullTime
	)
	err := s.Scan(&e.ID, &e.Title, &e.Description, &e.Category, &e.Location, &e.ImageURL,
		&e.StartDate, &end, &e.Price, &e.TotalSeats, &e.AvailableSeats)
	if err != nil {
		return model.Event{}, err
	}
	if end.Valid {
		t := end.Time.UTC()
		e.EndDate = &t
	}
	e.StartDate = e.StartDate.UTC()
	return e, nil
}

// List returns events matching f ordered by start date. Query matches
// title, description or location; Category is an exact match. An empty
// slice and nil error are returned when nothing matches.
func (r *EventRepo) List(ctx context.Context, f model.EventFilter) ([]model.Event, error) {
	where := []string{}
	args := []any{}
	if q := strings.TrimSpace(f.Query); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		where = append(where, "(LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR LOWER(location) LIKE ?)")
		args = append(args, like, like, like)
	}
	if c := strings.TrimSpace(f.Category); c != "" {
		where = append(where, "LOWER(category) = ?")
		args = append(args, strings.ToLower(c))
	}
	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE `+cond+` ORDER BY start_date ASC, id ASC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// GetByID retrieves an event by its ID. It returns ErrEventNotFound if
// there is no matching row.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (model.Event, error) {
	e, err := scanEvent(r.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Event{}, ErrEventNotFound
	}
	return e, err
}

// Create validates in, inserts the event and returns the stored row.
func (r *EventRepo) Create(ctx context.Context, in model.EventInput) (model.Event, error) {
	e, err := newEventFromInput(in)
	if err != nil {
		return model.Event{}, err
	}
	const q = `INSERT INTO events (title, description, category, location, image_url,
		start_date, end_date, price, total_seats, available_seats)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, e.Title, e.Description, e.Category, e.Location, e.ImageURL,
		e.StartDate, nullTime(e.EndDate), e.Price, e.TotalSeats, e.AvailableSeats)
	if err != nil {
		return model.Event{}, fmt.Errorf("insert event: %w", err)
	}
	id, err := res.LastInsertId() // obtain the auto-incremented ID
	if err != nil {
		return model.Event{}, err
	}
	e.ID = uint64(id)
	return e, nil
}

// Update replaces the editable fields of an event. The row is locked so a
// concurrent booking cannot slip between reading and writing the seat
// counts.
func (r *EventRepo) Update(ctx context.Context, id uint64, in model.EventInput) (model.Event, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Event{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	cur, err := scanEvent(tx.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ? FOR UPDATE`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Event{}, ErrEventNotFound
	}
	if err != nil {
		return model.Event{}, err
	}
	next, err := applyEventUpdate(cur, in)
	if err != nil {
		return model.Event{}, err
	}
	const q = `UPDATE events SET title = ?, description = ?, category = ?, location = ?, image_url = ?,
		start_date = ?, end_date = ?, price = ?, total_seats = ?, available_seats = ? WHERE id = ?`
	if _, err := tx.ExecContext(ctx, q, next.Title, next.Description, next.Category, next.Location, next.ImageURL,
		next.StartDate, nullTime(next.EndDate), next.Price, next.TotalSeats, next.AvailableSeats, id); err != nil {
		return model.Event{}, fmt.Errorf("update event: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return model.Event{}, err
	}
	committed = true
	return next, nil
}

// Delete removes an event. It returns ErrEventNotFound when the event
// does not exist and ErrConflict when bookings still reference it. The
// event row stays locked until the delete commits, so a concurrent Book
// waits and then sees the event gone.
func (r *EventRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var locked uint64
	err = tx.QueryRowContext(ctx, `SELECT id FROM events WHERE id = ? FOR UPDATE`, id).Scan(&locked)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrEventNotFound
	}
	if err != nil {
		return err
	}
	var n int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookings WHERE event_id = ?`, id).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return ErrConflict
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id); err != nil {
		// 1451: a booking row still references the event.
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == 1451 {
			return ErrConflict
		}
		return fmt.Errorf("delete event: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
