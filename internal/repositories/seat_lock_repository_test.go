package repositories

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"

	"busticket/internal/domain"
	"busticket/internal/domain/models"
)

func TestInsertMapsDuplicateKeyToConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("INSERT INTO seat_locks").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'A1' for key 'uq_seat_locks_schedule_seat'"})

	repo := SeatLockRepository{DB: db}
	err = repo.Insert(nil, models.SeatLock{
		ScheduleID:  10,
		SeatLabel:   "A1",
		LockToken:   "tok-1",
		LockedUntil: time.Now().Add(2 * time.Minute),
	})
	if !domain.IsSeatConflict(err) {
		t.Fatalf("err = %v, want seat conflict", err)
	}
}

func TestFirstByTokenNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("FROM seat_locks WHERE lock_token").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	repo := SeatLockRepository{DB: db}
	if _, err := repo.FirstByToken(nil, "missing"); !domain.IsNotFound(err) {
		t.Fatalf("err = %v, want not found", err)
	}
}
