package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	intconfig "busticket/internal/config"
	intdb "busticket/internal/db"
	"busticket/internal/domain"
	"busticket/internal/domain/models"
)

type PaymentRepository struct {
	DB *sql.DB
}

func (r PaymentRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

const paymentColumns = "id, booking_id, provider, transaction_reference, amount, status, paid_at, created_at"

// Insert stores a new payment attempt in the initiated state.
func (r PaymentRepository) Insert(q intdb.DBTX, p models.Payment) (int64, error) {
	if q == nil {
		q = r.db()
	}
	res, err := q.Exec(`INSERT INTO payments
		(booking_id, provider, transaction_reference, amount, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, NOW(), NOW())`,
		p.BookingID,
		p.Provider,
		p.TransactionReference,
		p.Amount,
		p.Status,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetByBookingAndReference locates the payment attempt a provider
// callback refers to.
func (r PaymentRepository) GetByBookingAndReference(q intdb.DBTX, bookingID int64, reference string) (models.Payment, error) {
	if bookingID <= 0 || reference == "" {
		return models.Payment{}, fmt.Errorf("invalid payment lookup")
	}
	if q == nil {
		q = r.db()
	}
	row := q.QueryRow(`SELECT `+paymentColumns+` FROM payments
		WHERE booking_id=? AND transaction_reference=? LIMIT 1`, bookingID, reference)
	return scanPayment(row)
}

// GetByID fetches a payment attempt by primary key.
func (r PaymentRepository) GetByID(q intdb.DBTX, id int64) (models.Payment, error) {
	if id <= 0 {
		return models.Payment{}, fmt.Errorf("invalid payment id")
	}
	if q == nil {
		q = r.db()
	}
	return scanPayment(q.QueryRow(`SELECT `+paymentColumns+` FROM payments WHERE id=? LIMIT 1`, id))
}

// MarkOutcome records the provider outcome; paidAt is nil for failures.
func (r PaymentRepository) MarkOutcome(q intdb.DBTX, id int64, status string, paidAt *time.Time) error {
	if q == nil {
		q = r.db()
	}
	_, err := q.Exec(`UPDATE payments SET status=?, paid_at=?, updated_at=NOW() WHERE id=?`, status, paidAt, id)
	return err
}

func scanPayment(row *sql.Row) (models.Payment, error) {
	var p models.Payment
	var paidAt sql.NullTime
	err := row.Scan(
		&p.ID,
		&p.BookingID,
		&p.Provider,
		&p.TransactionReference,
		&p.Amount,
		&p.Status,
		&paidAt,
		&p.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Payment{}, domain.NotFoundError{Resource: "payment"}
	}
	if err != nil {
		return models.Payment{}, err
	}
	if paidAt.Valid {
		t := paidAt.Time
		p.PaidAt = &t
	}
	return p, nil
}
