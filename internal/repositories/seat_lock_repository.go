package repositories

import (
	"database/sql"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"

	intconfig "busticket/internal/config"
	intdb "busticket/internal/db"
	"busticket/internal/domain"
	"busticket/internal/domain/models"
)

const mysqlDuplicateEntry = 1062

// SeatLockRepository persists seat holds. The table carries a unique
// key on (schedule_id, seat_label), which is what guarantees at most
// one live lock per seat even when two transactions race past the
// application-level conflict check.
type SeatLockRepository struct {
	DB *sql.DB
}

func (r SeatLockRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

const seatLockColumns = "id, schedule_id, seat_label, lock_token, COALESCE(user_id,0), locked_until, created_at"

// DeleteExpired reaps locks whose TTL has passed. Idempotent; called
// as the first step of every availability read and every lock/booking
// attempt.
func (r SeatLockRepository) DeleteExpired(q intdb.DBTX, scheduleID int64, now time.Time) error {
	if q == nil {
		q = r.db()
	}
	_, err := q.Exec(`DELETE FROM seat_locks WHERE schedule_id=? AND locked_until < ?`, scheduleID, now)
	return err
}

// ListBySchedule returns all lock rows of a schedule keyed by label.
func (r SeatLockRepository) ListBySchedule(q intdb.DBTX, scheduleID int64) (map[string]models.SeatLock, error) {
	if q == nil {
		q = r.db()
	}
	rows, err := q.Query(`SELECT `+seatLockColumns+` FROM seat_locks WHERE schedule_id=?`, scheduleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]models.SeatLock{}
	for rows.Next() {
		l, err := scanSeatLock(rows)
		if err != nil {
			return nil, err
		}
		out[l.SeatLabel] = l
	}
	return out, rows.Err()
}

// ListByLabels returns the lock rows covering any of the given labels.
func (r SeatLockRepository) ListByLabels(q intdb.DBTX, scheduleID int64, labels []string) ([]models.SeatLock, error) {
	if len(labels) == 0 {
		return nil, nil
	}
	if q == nil {
		q = r.db()
	}
	args := make([]any, 0, len(labels)+1)
	args = append(args, scheduleID)
	for _, l := range labels {
		args = append(args, l)
	}
	rows, err := q.Query(`SELECT `+seatLockColumns+` FROM seat_locks WHERE schedule_id=? AND seat_label IN (`+placeholders(len(labels))+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.SeatLock
	for rows.Next() {
		l, err := scanSeatLock(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// LabelsByToken returns the seat labels a token currently holds on a
// schedule.
func (r SeatLockRepository) LabelsByToken(q intdb.DBTX, scheduleID int64, token string) ([]string, error) {
	if q == nil {
		q = r.db()
	}
	rows, err := q.Query(`SELECT seat_label FROM seat_locks WHERE schedule_id=? AND lock_token=?`, scheduleID, token)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var labels []string
	for rows.Next() {
		var l string
		if err := rows.Scan(&l); err != nil {
			return nil, err
		}
		labels = append(labels, l)
	}
	return labels, rows.Err()
}

// FirstByToken returns one lock row of a hold, used for ownership
// checks on release.
func (r SeatLockRepository) FirstByToken(q intdb.DBTX, token string) (models.SeatLock, error) {
	if q == nil {
		q = r.db()
	}
	row := q.QueryRow(`SELECT `+seatLockColumns+` FROM seat_locks WHERE lock_token=? LIMIT 1`, token)
	var l models.SeatLock
	var userID int64
	err := row.Scan(&l.ID, &l.ScheduleID, &l.SeatLabel, &l.LockToken, &userID, &l.LockedUntil, &l.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.SeatLock{}, domain.NotFoundError{Resource: "seat lock"}
	}
	if err != nil {
		return models.SeatLock{}, err
	}
	l.UserID = userID
	return l, nil
}

// Insert writes one lock row. A duplicate-key error means another
// transaction claimed the seat first and surfaces as a seat conflict.
func (r SeatLockRepository) Insert(q intdb.DBTX, l models.SeatLock) error {
	if q == nil {
		q = r.db()
	}
	_, err := q.Exec(`INSERT INTO seat_locks (schedule_id, seat_label, lock_token, user_id, locked_until, created_at)
		VALUES (?, ?, ?, ?, ?, NOW())`,
		l.ScheduleID,
		l.SeatLabel,
		l.LockToken,
		intdb.NullIfZero(l.UserID),
		l.LockedUntil,
	)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == mysqlDuplicateEntry {
			return domain.SeatConflictError{Labels: []string{l.SeatLabel}}
		}
		return err
	}
	return nil
}

// DeleteByToken removes every lock row of a hold, returning how many
// rows were deleted.
func (r SeatLockRepository) DeleteByToken(q intdb.DBTX, token string) (int64, error) {
	if q == nil {
		q = r.db()
	}
	res, err := q.Exec(`DELETE FROM seat_locks WHERE lock_token=?`, token)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteByLabels removes lock rows of a schedule covering the given
// labels. Used when an elevated actor books over foreign locks without
// a token.
func (r SeatLockRepository) DeleteByLabels(q intdb.DBTX, scheduleID int64, labels []string) error {
	if len(labels) == 0 {
		return nil
	}
	if q == nil {
		q = r.db()
	}
	args := make([]any, 0, len(labels)+1)
	args = append(args, scheduleID)
	for _, l := range labels {
		args = append(args, l)
	}
	_, err := q.Exec(`DELETE FROM seat_locks WHERE schedule_id=? AND seat_label IN (`+placeholders(len(labels))+`)`, args...)
	return err
}

func scanSeatLock(rows *sql.Rows) (models.SeatLock, error) {
	var l models.SeatLock
	if err := rows.Scan(&l.ID, &l.ScheduleID, &l.SeatLabel, &l.LockToken, &l.UserID, &l.LockedUntil, &l.CreatedAt); err != nil {
		return models.SeatLock{}, err
	}
	return l, nil
}
