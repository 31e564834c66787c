package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventify/ticketing/internal/model"
)

func newSQLMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return db, mock
}

func sqlText(s string) string { return regexp.QuoteMeta(s) }

var bookingColumns = []string{
	"id", "user_id", "event_id", "ticket_code", "status", "booking_date",
	"amount_paid", "name", "email", "title",
}

var bookedAt = time.Date(2026, 11, 2, 18, 30, 0, 0, time.UTC)

func bookingRows(id uint64, code, status string) *sqlmock.Rows {
	return sqlmock.NewRows(bookingColumns).
		AddRow(id, 7, 3, code, status, bookedAt, 30.0, "Ann Lee", "ann@example.com", "Jazz Night")
}

func duplicateKey() error {
	return &mysql.MySQLError{Number: 1062, Message: "Duplicate entry for key 'ticket_code'"}
}

func TestBookingRepoBook(t *testing.T) {
	userQuery := sqlText("SELECT name, email FROM users WHERE id = ?")
	eventQuery := sqlText("SELECT title, price, available_seats FROM events WHERE id = ? FOR UPDATE")
	decrement := sqlText("UPDATE events SET available_seats = available_seats - 1 WHERE id = ?")
	insert := sqlText("INSERT INTO bookings (user_id, event_id, ticket_code, status, booking_date, amount_paid)")

	user := func(m sqlmock.Sqlmock) {
		m.ExpectQuery(userQuery).WithArgs(uint64(7)).
			WillReturnRows(sqlmock.NewRows([]string{"name", "email"}).AddRow("Ann Lee", "ann@example.com"))
	}
	event := func(m sqlmock.Sqlmock, available int) {
		m.ExpectQuery(eventQuery).WithArgs(uint64(3)).
			WillReturnRows(sqlmock.NewRows([]string{"title", "price", "available_seats"}).AddRow("Jazz Night", 30.0, available))
	}
	insertArgs := []driver.Value{uint64(7), uint64(3), sqlmock.AnyArg(), model.StatusConfirmed, sqlmock.AnyArg(), 30.0}

	cases := map[string]struct {
		expect  func(m sqlmock.Sqlmock)
		wantErr error
		wantID  uint64
	}{
		"books the last seat": {
			expect: func(m sqlmock.Sqlmock) {
				m.ExpectBegin()
				user(m)
				event(m, 1)
				m.ExpectExec(decrement).WithArgs(uint64(3)).WillReturnResult(sqlmock.NewResult(0, 1))
				m.ExpectExec(insert).WithArgs(insertArgs...).WillReturnResult(sqlmock.NewResult(11, 1))
				m.ExpectCommit()
			},
			wantID: 11,
		},
		"sold out": {
			expect: func(m sqlmock.Sqlmock) {
				m.ExpectBegin()
				user(m)
				event(m, 0)
				m.ExpectRollback()
			},
			wantErr: ErrSoldOut,
		},
		"unknown user": {
			expect: func(m sqlmock.Sqlmock) {
				m.ExpectBegin()
				m.ExpectQuery(userQuery).WithArgs(uint64(7)).WillReturnRows(sqlmock.NewRows([]string{"name", "email"}))
				m.ExpectRollback()
			},
			wantErr: ErrUserNotFound,
		},
		"unknown event": {
			expect: func(m sqlmock.Sqlmock) {
				m.ExpectBegin()
				user(m)
				m.ExpectQuery(eventQuery).WithArgs(uint64(3)).
					WillReturnRows(sqlmock.NewRows([]string{"title", "price", "available_seats"}))
				m.ExpectRollback()
			},
			wantErr: ErrEventNotFound,
		},
		"retries a colliding ticket code": {
			expect: func(m sqlmock.Sqlmock) {
				m.ExpectBegin()
				user(m)
				event(m, 5)
				m.ExpectExec(decrement).WithArgs(uint64(3)).WillReturnResult(sqlmock.NewResult(0, 1))
				m.ExpectExec(insert).WithArgs(insertArgs...).WillReturnError(duplicateKey())
				m.ExpectExec(insert).WithArgs(insertArgs...).WillReturnResult(sqlmock.NewResult(12, 1))
				m.ExpectCommit()
			},
			wantID: 12,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			db, mock := newSQLMock(t)
			tc.expect(mock)

			b, err := NewBookingRepo(db).Book(context.Background(), 7, 3)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantID, b.ID)
			assert.Equal(t, model.StatusConfirmed, b.Status)
			assert.Equal(t, 30.0, b.AmountPaid)
			assert.Equal(t, "Ann Lee", b.CustomerName)
			assert.Equal(t, "Jazz Night", b.EventTitle)
			assert.NotEmpty(t, b.TicketCode)
		})
	}
}

func TestBookingRepoBookGivesUpAfterRepeatedCollisions(t *testing.T) {
	db, mock := newSQLMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(sqlText("FROM users WHERE id = ?")).
		WillReturnRows(sqlmock.NewRows([]string{"name", "email"}).AddRow("Ann Lee", "ann@example.com"))
	mock.ExpectQuery(sqlText("FROM events WHERE id = ? FOR UPDATE")).
		WillReturnRows(sqlmock.NewRows([]string{"title", "price", "available_seats"}).AddRow("Jazz Night", 30.0, 5))
	mock.ExpectExec(sqlText("UPDATE events SET available_seats")).WillReturnResult(sqlmock.NewResult(0, 1))
	for i := 0; i < ticketAttempts; i++ {
		mock.ExpectExec(sqlText("INSERT INTO bookings")).WillReturnError(duplicateKey())
	}
	mock.ExpectRollback()

	_, err := NewBookingRepo(db).Book(context.Background(), 7, 3)
	var me *mysql.MySQLError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, uint16(1062), me.Number)
}

func TestBookingRepoCheckIn(t *testing.T) {
	lock := sqlText("WHERE b.id = ? FOR UPDATE")
	update := sqlText("UPDATE bookings SET status = ? WHERE id = ?")

	cases := map[string]struct {
		expect     func(m sqlmock.Sqlmock)
		wantErr    error
		wantStatus string
	}{
		"confirmed ticket": {
			expect: func(m sqlmock.Sqlmock) {
				m.ExpectBegin()
				m.ExpectQuery(lock).WithArgs(uint64(5)).WillReturnRows(bookingRows(5, "TK-ONE", model.StatusConfirmed))
				m.ExpectExec(update).WithArgs(model.StatusCheckedIn, uint64(5)).WillReturnResult(sqlmock.NewResult(0, 1))
				m.ExpectCommit()
			},
			wantStatus: model.StatusCheckedIn,
		},
		"already checked in": {
			expect: func(m sqlmock.Sqlmock) {
				m.ExpectBegin()
				m.ExpectQuery(lock).WithArgs(uint64(5)).WillReturnRows(bookingRows(5, "TK-ONE", model.StatusCheckedIn))
				m.ExpectRollback()
			},
			wantErr:    ErrAlreadyCheckedIn,
			wantStatus: model.StatusCheckedIn,
		},
		"unknown booking": {
			expect: func(m sqlmock.Sqlmock) {
				m.ExpectBegin()
				m.ExpectQuery(lock).WithArgs(uint64(5)).WillReturnRows(sqlmock.NewRows(bookingColumns))
				m.ExpectRollback()
			},
			wantErr: ErrBookingNotFound,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			db, mock := newSQLMock(t)
			tc.expect(mock)

			b, err := NewBookingRepo(db).CheckIn(context.Background(), 5)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			} else {
				require.NoError(t, err)
			}
			if tc.wantStatus == "" {
				assert.Zero(t, b.ID)
				return
			}
			assert.Equal(t, uint64(5), b.ID)
			assert.Equal(t, "TK-ONE", b.TicketCode)
			assert.Equal(t, tc.wantStatus, b.Status)
			assert.Equal(t, bookedAt, b.BookingDate)
		})
	}
}

func TestBookingRepoFind(t *testing.T) {
	byID := sqlText("WHERE b.id = ?")
	byEmail := sqlText("WHERE u.email = ? ORDER BY b.booking_date DESC, b.id DESC LIMIT 1")
	byCode := sqlText("WHERE UPPER(b.ticket_code) = ?")

	cases := map[string]struct {
		query   string
		expect  func(m sqlmock.Sqlmock)
		wantErr error
		wantID  uint64
	}{
		"numeric id": {
			query: " 42 ",
			expect: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(byID).WithArgs(uint64(42)).WillReturnRows(bookingRows(42, "TK-42", model.StatusConfirmed))
			},
			wantID: 42,
		},
		"numeric miss falls back to ticket code": {
			query: "123456",
			expect: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(byID).WithArgs(uint64(123456)).WillReturnRows(sqlmock.NewRows(bookingColumns))
				m.ExpectQuery(byCode).WithArgs("123456").WillReturnRows(bookingRows(8, "123456", model.StatusConfirmed))
			},
			wantID: 8,
		},
		"email picks newest": {
			query: "Ann@Example.com",
			expect: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(byEmail).WithArgs("ann@example.com").WillReturnRows(bookingRows(9, "TK-NEW", model.StatusConfirmed))
			},
			wantID: 9,
		},
		"ticket code is case-insensitive": {
			query: "tk-abc",
			expect: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(byCode).WithArgs("TK-ABC").WillReturnRows(bookingRows(3, "TK-ABC", model.StatusCheckedIn))
			},
			wantID: 3,
		},
		"no match": {
			query: "nope",
			expect: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(byCode).WithArgs("NOPE").WillReturnRows(sqlmock.NewRows(bookingColumns))
			},
			wantErr: ErrBookingNotFound,
		},
		"blank query": {
			query:   "   ",
			expect:  func(sqlmock.Sqlmock) {},
			wantErr: ErrBookingNotFound,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			db, mock := newSQLMock(t)
			tc.expect(mock)

			b, err := NewBookingRepo(db).Find(context.Background(), tc.query)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantID, b.ID)
		})
	}
}

func TestBookingRepoStats(t *testing.T) {
	db, mock := newSQLMock(t)
	// MySQL reports SUM over DECIMAL and boolean expressions as decimal text.
	mock.ExpectQuery(sqlText("SELECT COUNT(*), COALESCE(SUM(amount_paid), 0), COALESCE(SUM(status = ?), 0) FROM bookings")).
		WithArgs(model.StatusCheckedIn).
		WillReturnRows(sqlmock.NewRows([]string{"count", "revenue", "checked_in"}).AddRow(int64(3), []byte("90.00"), []byte("2")))
	mock.ExpectQuery(sqlText("ORDER BY b.booking_date DESC, b.id DESC LIMIT 5")).
		WillReturnRows(sqlmock.NewRows(bookingColumns).
			AddRow(3, 7, 3, "TK-C", model.StatusConfirmed, bookedAt, 30.0, "Ann Lee", "ann@example.com", "Jazz Night").
			AddRow(2, 7, 3, "TK-B", model.StatusCheckedIn, bookedAt, 30.0, "Ann Lee", "ann@example.com", "Jazz Night"))

	s, err := NewBookingRepo(db).Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, s.TotalBookings)
	assert.Equal(t, 90.0, s.TotalRevenue)
	assert.Equal(t, 2, s.CheckedIn)
	require.Len(t, s.RecentBookings, 2)
	assert.Equal(t, "TK-C", s.RecentBookings[0].TicketCode)
}

func TestBookingRepoListByUserEmpty(t *testing.T) {
	db, mock := newSQLMock(t)
	mock.ExpectQuery(sqlText("WHERE b.user_id = ?")).WithArgs(uint64(7)).WillReturnRows(sqlmock.NewRows(bookingColumns))

	out, err := NewBookingRepo(db).ListByUser(context.Background(), 7)
	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}
