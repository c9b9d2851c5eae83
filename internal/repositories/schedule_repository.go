package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	intconfig "busticket/internal/config"
	intdb "busticket/internal/db"
	"busticket/internal/domain"
	"busticket/internal/domain/models"
)

type ScheduleRepository struct {
	DB *sql.DB
}

func (r ScheduleRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

const scheduleColumns = `id, bus_id, travel_route_id, COALESCE(driver_id,0),
	departure_time, arrival_time,
	COALESCE(boarding_point,''), COALESCE(dropoff_point,''),
	base_fare, dynamic_pricing_factor, status, booked_seat_count`

func (r ScheduleRepository) scan(row *sql.Row) (models.Schedule, error) {
	var s models.Schedule
	err := row.Scan(
		&s.ID,
		&s.BusID,
		&s.TravelRouteID,
		&s.DriverID,
		&s.DepartureTime,
		&s.ArrivalTime,
		&s.BoardingPoint,
		&s.DropoffPoint,
		&s.BaseFare,
		&s.DynamicPricingFactor,
		&s.Status,
		&s.BookedSeatCount,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Schedule{}, domain.NotFoundError{Resource: "schedule"}
	}
	if err != nil {
		return models.Schedule{}, err
	}
	return s, nil
}

// GetByID fetches a schedule without locking it.
func (r ScheduleRepository) GetByID(q intdb.DBTX, id int64) (models.Schedule, error) {
	if id <= 0 {
		return models.Schedule{}, fmt.Errorf("invalid schedule id")
	}
	if q == nil {
		q = r.db()
	}
	return r.scan(q.QueryRow(`SELECT `+scheduleColumns+` FROM schedules WHERE id=? LIMIT 1`, id))
}

// GetByIDForUpdate fetches the schedule holding a row lock for the
// duration of the enclosing transaction. Every seat-state mutation on
// a schedule goes through this, which serializes the check-then-act
// sequences of concurrent lockers and bookers.
func (r ScheduleRepository) GetByIDForUpdate(tx *sql.Tx, id int64) (models.Schedule, error) {
	if id <= 0 {
		return models.Schedule{}, fmt.Errorf("invalid schedule id")
	}
	return r.scan(tx.QueryRow(`SELECT `+scheduleColumns+` FROM schedules WHERE id=? LIMIT 1 FOR UPDATE`, id))
}

// IncrementBookedSeats bumps the denormalized seat counter.
func (r ScheduleRepository) IncrementBookedSeats(q intdb.DBTX, id int64, n int) error {
	if q == nil {
		q = r.db()
	}
	_, err := q.Exec(`UPDATE schedules SET booked_seat_count = booked_seat_count + ?, updated_at=NOW() WHERE id=?`, n, id)
	return err
}

// DecrementBookedSeats lowers the counter by at most its current
// value, so prior drift can never push it negative.
func (r ScheduleRepository) DecrementBookedSeats(q intdb.DBTX, id int64, n int) error {
	if q == nil {
		q = r.db()
	}
	_, err := q.Exec(`UPDATE schedules
		SET booked_seat_count = booked_seat_count - LEAST(?, GREATEST(booked_seat_count, 0)),
		    updated_at=NOW()
		WHERE id=?`, n, id)
	return err
}
