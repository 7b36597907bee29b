package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickcourt/quickcourt-api/internal/model"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func provisional() *model.Booking {
	return &model.Booking{
		UserID: 3, VenueID: 2, CourtID: 7, Date: "2025-03-01",
		StartTime: "10:30", EndTime: "11:30", TotalPrice: 45,
		Status: model.BookingConfirmed, PaymentStatus: model.PaymentPending,
	}
}

func TestCreateIfFreeInsertsWhenSlotIsFree(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBookingRepo(db)
	fixed := time.Date(2025, 2, 1, 8, 0, 0, 0, time.UTC)
	repo.Now = func() time.Time { return fixed }

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM courts WHERE id = \? FOR UPDATE`).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectQuery(`SELECT start_time, end_time FROM bookings`).
		WithArgs(7, "2025-03-01", "Confirmed").
		WillReturnRows(sqlmock.NewRows([]string{"start_time", "end_time"}).
			AddRow("09:00", "10:00").
			AddRow("11:30", "12:00"))
	mock.ExpectExec(`INSERT INTO bookings`).
		WithArgs(3, 2, 7, "2025-03-01", "10:30", "11:30", 45.0, "Confirmed", "PENDING", fixed, fixed).
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectCommit()

	b := provisional()
	require.NoError(t, repo.CreateIfFree(context.Background(), b))
	assert.Equal(t, uint64(42), b.ID)
	assert.Equal(t, fixed, b.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateIfFreeRejectsOverlap(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBookingRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM courts WHERE id = \? FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectQuery(`SELECT start_time, end_time FROM bookings`).
		WillReturnRows(sqlmock.NewRows([]string{"start_time", "end_time"}).AddRow("10:00", "11:00"))
	mock.ExpectRollback()

	err := repo.CreateIfFree(context.Background(), provisional())
	assert.ErrorIs(t, err, ErrSlotTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateIfFreeUnknownCourt(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBookingRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM courts`).WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	err := repo.CreateIfFree(context.Background(), provisional())
	assert.ErrorIs(t, err, ErrCourtNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateIfFreeRejectsEmptyInterval(t *testing.T) {
	db, mock := newMock(t)
	b := provisional()
	b.EndTime = b.StartTime
	assert.Error(t, NewBookingRepo(db).CreateIfFree(context.Background(), b))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransitionStatus(t *testing.T) {
	t.Run("confirmed to cancelled", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectExec(`UPDATE bookings SET status = \?.*AND payment_status <> \?`).
			WithArgs("Cancelled", 5, "Confirmed", "PENDING").
			WillReturnResult(sqlmock.NewResult(0, 1))
		assert.NoError(t, NewBookingRepo(db).TransitionStatus(context.Background(), 5, model.BookingCancelled))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("payment still pending", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectExec(`UPDATE bookings SET status = \?.*AND payment_status <> \?`).
			WithArgs("Cancelled", 5, "Confirmed", "PENDING").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT status FROM bookings WHERE id = \?`).
			WithArgs(5).
			WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("Confirmed"))
		err := NewBookingRepo(db).TransitionStatus(context.Background(), 5, model.BookingCancelled)
		assert.ErrorIs(t, err, ErrInvalidTransition)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("already completed", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectExec(`UPDATE bookings SET status = \?`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT status FROM bookings WHERE id = \?`).
			WithArgs(5).
			WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("Completed"))
		err := NewBookingRepo(db).TransitionStatus(context.Background(), 5, model.BookingCancelled)
		assert.ErrorIs(t, err, ErrInvalidTransition)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing booking", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectExec(`UPDATE bookings SET status = \?`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT status FROM bookings WHERE id = \?`).
			WillReturnError(sql.ErrNoRows)
		err := NewBookingRepo(db).TransitionStatus(context.Background(), 5, model.BookingCompleted)
		assert.ErrorIs(t, err, ErrBookingNotFound)
	})

	t.Run("back to confirmed is never allowed", func(t *testing.T) {
		db, mock := newMock(t)
		err := NewBookingRepo(db).TransitionStatus(context.Background(), 5, model.BookingConfirmed)
		assert.ErrorIs(t, err, ErrInvalidTransition)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMarkPaidOnlyTouchesPendingBookings(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(`UPDATE bookings SET payment_status = \?, payment_ref = \?`).
		WithArgs("PAID", "txn_1", 9, "Confirmed", "PENDING").
		WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, NewBookingRepo(db).MarkPaid(context.Background(), 9, "txn_1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExpirePendingReleasesStaleProvisionalRows(t *testing.T) {
	db, mock := newMock(t)
	cutoff := time.Date(2025, 3, 1, 9, 59, 0, 0, time.UTC)
	mock.ExpectExec(`UPDATE bookings SET status = \?, payment_status = \?.*WHERE status = \? AND payment_status = \? AND created_at < \?`).
		WithArgs("Cancelled", "FAILED", "Confirmed", "PENDING", cutoff).
		WillReturnResult(sqlmock.NewResult(0, 2))
	n, err := NewBookingRepo(db).ExpirePending(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatsCountsOnlyPaidConfirmedBookings(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`status = 'Confirmed' AND payment_status = 'PAID'`).
		WillReturnRows(sqlmock.NewRows([]string{"u", "o", "v", "pv", "c", "b", "cb", "r"}).
			AddRow(4, 2, 3, 1, 6, 9, 5, 225.0))
	s, err := NewBookingRepo(db).Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, s.ConfirmedBookings)
	assert.Equal(t, 225.0, s.Revenue)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByID(t *testing.T) {
	db, mock := newMock(t)
	created := time.Date(2025, 2, 1, 8, 0, 0, 0, time.UTC)
	cols := []string{"id", "user_id", "venue_id", "court_id", "booking_date", "start_time", "end_time",
		"total_price", "status", "payment_status", "payment_ref", "created_at", "updated_at"}
	mock.ExpectQuery(`FROM bookings b WHERE b.id = \?`).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(1, 3, 2, 7, "2025-03-01", "10:00", "11:00", 45.0, "Confirmed", "PAID", "txn_abc", created, created))

	b, err := NewBookingRepo(db).GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-01", b.Date)
	assert.Equal(t, model.PaymentPaid, b.PaymentStatus)
	require.NotNil(t, b.PaymentRef)
	assert.Equal(t, "txn_abc", *b.PaymentRef)

	mock.ExpectQuery(`FROM bookings b WHERE b.id = \?`).WillReturnError(sql.ErrNoRows)
	_, err = NewBookingRepo(db).GetByID(context.Background(), 2)
	assert.ErrorIs(t, err, ErrBookingNotFound)
}
