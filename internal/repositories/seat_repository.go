package repositories

import (
	"database/sql"
	"fmt"
	"strings"

	intconfig "busticket/internal/config"
	intdb "busticket/internal/db"
	"busticket/internal/domain/models"
)

// SeatRepository reads the per-bus seat catalog. The catalog is
// read-only inside the reservation core.
type SeatRepository struct {
	DB *sql.DB
}

func (r SeatRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

const seatColumns = "id, bus_id, label, seat_class, is_window, status"

// ListByBus returns every catalog seat of a bus in template order.
func (r SeatRepository) ListByBus(busID int64) ([]models.Seat, error) {
	if busID <= 0 {
		return nil, fmt.Errorf("invalid bus id")
	}
	rows, err := r.db().Query(`SELECT `+seatColumns+` FROM seats WHERE bus_id=? ORDER BY id`, busID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var seats []models.Seat
	for rows.Next() {
		var s models.Seat
		if err := rows.Scan(&s.ID, &s.BusID, &s.Label, &s.SeatClass, &s.IsWindow, &s.Status); err != nil {
			return nil, err
		}
		seats = append(seats, s)
	}
	return seats, rows.Err()
}

// MapByLabels resolves the requested labels against the bus catalog,
// keyed by label. Missing labels are simply absent from the map; the
// caller decides whether that is an error.
func (r SeatRepository) MapByLabels(q intdb.DBTX, busID int64, labels []string) (map[string]models.Seat, error) {
	if len(labels) == 0 {
		return map[string]models.Seat{}, nil
	}
	if q == nil {
		q = r.db()
	}

	ph := placeholders(len(labels))
	args := make([]any, 0, len(labels)+1)
	args = append(args, busID)
	for _, l := range labels {
		args = append(args, l)
	}

	rows, err := q.Query(`SELECT `+seatColumns+` FROM seats WHERE bus_id=? AND label IN (`+ph+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]models.Seat, len(labels))
	for rows.Next() {
		var s models.Seat
		if err := rows.Scan(&s.ID, &s.BusID, &s.Label, &s.SeatClass, &s.IsWindow, &s.Status); err != nil {
			return nil, err
		}
		out[s.Label] = s
	}
	return out, rows.Err()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
