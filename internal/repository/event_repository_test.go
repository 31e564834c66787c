package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventify/ticketing/internal/model"
)

var eventRowColumns = []string{
	"id", "title", "description", "category", "location", "image_url",
	"start_date", "end_date", "price", "total_seats", "available_seats",
}

var startsAt = time.Date(2026, 12, 1, 20, 0, 0, 0, time.UTC)

func eventRows(total, available int) *sqlmock.Rows {
	return sqlmock.NewRows(eventRowColumns).
		AddRow(1, "Jazz Night", "Live quartet", "Music", "Blue Room", "", startsAt, nil, 30.0, total, available)
}

func jazzInput(total int, available *int) model.EventInput {
	return model.EventInput{
		Title:          "Jazz Night",
		Description:    "Live quartet",
		Category:       "Music",
		Location:       "Blue Room",
		StartDate:      startsAt,
		Price:          30,
		TotalSeats:     total,
		AvailableSeats: available,
	}
}

func TestEventRepoGetByIDNotFound(t *testing.T) {
	db, mock := newSQLMock(t)
	mock.ExpectQuery(sqlText("FROM events WHERE id = ?")).WithArgs(uint64(9)).
		WillReturnRows(sqlmock.NewRows(eventRowColumns))

	_, err := NewEventRepo(db).GetByID(context.Background(), 9)
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestEventRepoCreateStoresExplicitZeroAvailable(t *testing.T) {
	db, mock := newSQLMock(t)
	zero := 0
	mock.ExpectExec(sqlText("INSERT INTO events")).
		WithArgs("Jazz Night", "Live quartet", "Music", "Blue Room", "",
			sqlmock.AnyArg(), sqlmock.AnyArg(), 30.0, 10, 0).
		WillReturnResult(sqlmock.NewResult(4, 1))

	e, err := NewEventRepo(db).Create(context.Background(), jazzInput(10, &zero))
	require.NoError(t, err)
	assert.Equal(t, uint64(4), e.ID)
	assert.Equal(t, 0, e.AvailableSeats)
}

func TestEventRepoUpdate(t *testing.T) {
	lock := sqlText("FROM events WHERE id = ? FOR UPDATE")
	update := sqlText("UPDATE events SET title = ?")
	three := 3

	cases := map[string]struct {
		curTotal, curAvail int
		in                 model.EventInput
		wantErr            error
		wantTotal          int
		wantAvail          int
	}{
		"growing capacity adds seats": {
			curTotal: 10, curAvail: 4,
			in:        jazzInput(15, nil),
			wantTotal: 15, wantAvail: 9,
		},
		"shrinking capacity clamps at zero": {
			curTotal: 10, curAvail: 2,
			in:        jazzInput(5, nil),
			wantTotal: 5, wantAvail: 0,
		},
		"explicit available wins": {
			curTotal: 10, curAvail: 8,
			in:        jazzInput(12, &three),
			wantTotal: 12, wantAvail: 3,
		},
		"invalid input": {
			curTotal: 10, curAvail: 4,
			in:      jazzInput(0, nil),
			wantErr: ErrInvalidEvent,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			db, mock := newSQLMock(t)
			mock.ExpectBegin()
			mock.ExpectQuery(lock).WithArgs(uint64(1)).WillReturnRows(eventRows(tc.curTotal, tc.curAvail))
			if tc.wantErr == nil {
				mock.ExpectExec(update).
					WithArgs("Jazz Night", "Live quartet", "Music", "Blue Room", "",
						sqlmock.AnyArg(), sqlmock.AnyArg(), 30.0, tc.wantTotal, tc.wantAvail, uint64(1)).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			} else {
				mock.ExpectRollback()
			}

			e, err := NewEventRepo(db).Update(context.Background(), 1, tc.in)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, uint64(1), e.ID)
			assert.Equal(t, tc.wantTotal, e.TotalSeats)
			assert.Equal(t, tc.wantAvail, e.AvailableSeats)
		})
	}
}

func TestEventRepoUpdateNotFound(t *testing.T) {
	db, mock := newSQLMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(sqlText("FOR UPDATE")).WithArgs(uint64(1)).WillReturnRows(sqlmock.NewRows(eventRowColumns))
	mock.ExpectRollback()

	_, err := NewEventRepo(db).Update(context.Background(), 1, jazzInput(10, nil))
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestEventRepoDelete(t *testing.T) {
	lock := sqlText("SELECT id FROM events WHERE id = ? FOR UPDATE")
	count := sqlText("SELECT COUNT(*) FROM bookings WHERE event_id = ?")
	del := sqlText("DELETE FROM events WHERE id = ?")

	locked := func(m sqlmock.Sqlmock) {
		m.ExpectBegin()
		m.ExpectQuery(lock).WithArgs(uint64(1)).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	}
	bookings := func(m sqlmock.Sqlmock, n int) {
		m.ExpectQuery(count).WithArgs(uint64(1)).WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(n))
	}

	cases := map[string]struct {
		expect  func(m sqlmock.Sqlmock)
		wantErr error
	}{
		"deletes an unbooked event": {
			expect: func(m sqlmock.Sqlmock) {
				locked(m)
				bookings(m, 0)
				m.ExpectExec(del).WithArgs(uint64(1)).WillReturnResult(sqlmock.NewResult(0, 1))
				m.ExpectCommit()
			},
		},
		"unknown event": {
			expect: func(m sqlmock.Sqlmock) {
				m.ExpectBegin()
				m.ExpectQuery(lock).WithArgs(uint64(1)).WillReturnRows(sqlmock.NewRows([]string{"id"}))
				m.ExpectRollback()
			},
			wantErr: ErrEventNotFound,
		},
		"event with bookings": {
			expect: func(m sqlmock.Sqlmock) {
				locked(m)
				bookings(m, 2)
				m.ExpectRollback()
			},
			wantErr: ErrConflict,
		},
		"foreign key violation on delete": {
			expect: func(m sqlmock.Sqlmock) {
				locked(m)
				bookings(m, 0)
				m.ExpectExec(del).WithArgs(uint64(1)).
					WillReturnError(&mysql.MySQLError{Number: 1451, Message: "Cannot delete or update a parent row"})
				m.ExpectRollback()
			},
			wantErr: ErrConflict,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			db, mock := newSQLMock(t)
			tc.expect(mock)

			err := NewEventRepo(db).Delete(context.Background(), 1)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}
