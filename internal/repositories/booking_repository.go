package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	intconfig "busticket/internal/config"
	intdb "busticket/internal/db"
	"busticket/internal/domain"
	"busticket/internal/domain/models"
)

type BookingRepository struct {
	DB *sql.DB
}

func (r BookingRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

const bookingColumns = `id, reference, COALESCE(user_id,0), schedule_id, channel,
	customer_name, customer_phone, COALESCE(customer_email,''),
	seats, subtotal, fees, total_amount, status, payment_status,
	COALESCE(qr_code_path,''), created_at`

// Insert stores a booking with its frozen seat snapshot.
func (r BookingRepository) Insert(q intdb.DBTX, b models.Booking) (int64, error) {
	if q == nil {
		q = r.db()
	}
	seats, err := json.Marshal(b.Seats)
	if err != nil {
		return 0, fmt.Errorf("marshal seat snapshot: %w", err)
	}
	res, err := q.Exec(`INSERT INTO bookings
		(reference, user_id, schedule_id, channel, customer_name, customer_phone, customer_email,
		 seats, subtotal, fees, total_amount, status, payment_status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NOW(), NOW())`,
		b.Reference,
		intdb.NullIfZero(b.UserID),
		b.ScheduleID,
		b.Channel,
		b.CustomerName,
		b.CustomerPhone,
		intdb.NullIfEmpty(b.CustomerEmail),
		seats,
		b.Subtotal,
		b.Fees,
		b.TotalAmount,
		b.Status,
		b.PaymentStatus,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetByID fetches a booking by primary key.
func (r BookingRepository) GetByID(q intdb.DBTX, id int64) (models.Booking, error) {
	if id <= 0 {
		return models.Booking{}, fmt.Errorf("invalid booking id")
	}
	if q == nil {
		q = r.db()
	}
	return r.scan(q.QueryRow(`SELECT `+bookingColumns+` FROM bookings WHERE id=? LIMIT 1`, id))
}

// GetByIDForUpdate fetches the booking under a row lock so that
// confirm/cancel/reconcile transitions cannot interleave.
func (r BookingRepository) GetByIDForUpdate(tx *sql.Tx, id int64) (models.Booking, error) {
	if id <= 0 {
		return models.Booking{}, fmt.Errorf("invalid booking id")
	}
	return r.scan(tx.QueryRow(`SELECT `+bookingColumns+` FROM bookings WHERE id=? LIMIT 1 FOR UPDATE`, id))
}

// GetByReference fetches a booking by its public reference.
func (r BookingRepository) GetByReference(reference string) (models.Booking, error) {
	if reference == "" {
		return models.Booking{}, fmt.Errorf("empty reference")
	}
	return r.scan(r.db().QueryRow(`SELECT `+bookingColumns+` FROM bookings WHERE reference=? LIMIT 1`, reference))
}

// BookingFilter narrows List results.
type BookingFilter struct {
	UserID int64
	Status string
	Limit  int
	Offset int
}

// List returns bookings newest first. A zero UserID means no owner
// filter (elevated roles see everything).
func (r BookingRepository) List(f BookingFilter) ([]models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings`
	where := ""
	args := []any{}
	if f.UserID > 0 {
		where = ` WHERE user_id=?`
		args = append(args, f.UserID)
	}
	if f.Status != "" {
		if where == "" {
			where = ` WHERE status=?`
		} else {
			where += ` AND status=?`
		}
		args = append(args, f.Status)
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 15
	} else if limit > 100 {
		limit = 100
	}
	query += where + ` ORDER BY id DESC LIMIT ? OFFSET ?`
	args = append(args, limit, f.Offset)

	rows, err := r.db().Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Booking
	for rows.Next() {
		b, err := r.scanRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// ActiveSeatLabels returns the union of seat labels claimed by all
// pending and confirmed bookings of a schedule.
func (r BookingRepository) ActiveSeatLabels(q intdb.DBTX, scheduleID int64) (map[string]struct{}, error) {
	if q == nil {
		q = r.db()
	}
	rows, err := q.Query(`SELECT seats FROM bookings WHERE schedule_id=? AND status IN (?, ?)`,
		scheduleID, models.BookingPending, models.BookingConfirmed)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	labels := map[string]struct{}{}
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var seats []models.BookingSeat
		if err := json.Unmarshal(raw, &seats); err != nil {
			return nil, fmt.Errorf("corrupt seat snapshot for schedule %d: %w", scheduleID, err)
		}
		for _, s := range seats {
			labels[s.Label] = struct{}{}
		}
	}
	return labels, rows.Err()
}

// UpdateStatus flips booking and payment status together.
func (r BookingRepository) UpdateStatus(q intdb.DBTX, id int64, status, paymentStatus string) error {
	if q == nil {
		q = r.db()
	}
	_, err := q.Exec(`UPDATE bookings SET status=?, payment_status=?, updated_at=NOW() WHERE id=?`,
		status, paymentStatus, id)
	return err
}

// SetQRCodePath records the issued ticket artifact URL.
func (r BookingRepository) SetQRCodePath(q intdb.DBTX, id int64, path string) error {
	if q == nil {
		q = r.db()
	}
	_, err := q.Exec(`UPDATE bookings SET qr_code_path=?, updated_at=NOW() WHERE id=?`, path, id)
	return err
}

func (r BookingRepository) scan(row *sql.Row) (models.Booking, error) {
	var b models.Booking
	var raw []byte
	err := row.Scan(
		&b.ID,
		&b.Reference,
		&b.UserID,
		&b.ScheduleID,
		&b.Channel,
		&b.CustomerName,
		&b.CustomerPhone,
		&b.CustomerEmail,
		&raw,
		&b.Subtotal,
		&b.Fees,
		&b.TotalAmount,
		&b.Status,
		&b.PaymentStatus,
		&b.QRCodePath,
		&b.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Booking{}, domain.NotFoundError{Resource: "booking"}
	}
	if err != nil {
		return models.Booking{}, err
	}
	if err := json.Unmarshal(raw, &b.Seats); err != nil {
		return models.Booking{}, fmt.Errorf("corrupt seat snapshot for booking %d: %w", b.ID, err)
	}
	return b, nil
}

func (r BookingRepository) scanRows(rows *sql.Rows) (models.Booking, error) {
	var b models.Booking
	var raw []byte
	err := rows.Scan(
		&b.ID,
		&b.Reference,
		&b.UserID,
		&b.ScheduleID,
		&b.Channel,
		&b.CustomerName,
		&b.CustomerPhone,
		&b.CustomerEmail,
		&raw,
		&b.Subtotal,
		&b.Fees,
		&b.TotalAmount,
		&b.Status,
		&b.PaymentStatus,
		&b.QRCodePath,
		&b.CreatedAt,
	)
	if err != nil {
		return models.Booking{}, err
	}
	if err := json.Unmarshal(raw, &b.Seats); err != nil {
		return models.Booking{}, fmt.Errorf("corrupt seat snapshot for booking %d: %w", b.ID, err)
	}
	return b, nil
}
