package models

import "time"

// Catalog seat statuses. Seat status is a property of the bus layout,
// not of any particular trip.
const (
	SeatAvailable   = "available"
	SeatMaintenance = "maintenance"
	SeatBlocked     = "blocked"
)

// Bus is the vehicle a schedule runs with. The seat template hangs off
// the bus, one Seat row per label.
type Bus struct {
	ID          int64  `json:"id"`
	Code        string `json:"code"`
	PlateNumber string `json:"plate_number"`
	Capacity    int    `json:"capacity"`
	Type        string `json:"type"`
	Status      string `json:"status"`
}

// Seat is one catalog seat on a bus. Label is unique per bus.
type Seat struct {
	ID        int64  `json:"id"`
	BusID     int64  `json:"bus_id"`
	Label     string `json:"label"`
	SeatClass string `json:"seat_class"`
	IsWindow  bool   `json:"is_window"`
	Status    string `json:"status"`
}

// SeatView is the per-seat availability answer for one schedule:
// booked wins over locked, locked wins over the catalog status.
type SeatView struct {
	Label       string     `json:"label"`
	SeatClass   string     `json:"seat_class"`
	IsWindow    bool       `json:"is_window"`
	Status      string     `json:"status"`
	LockedUntil *time.Time `json:"locked_until"`
}

// Schedule-facing seat states layered on top of the catalog statuses.
const (
	SeatBooked = "booked"
	SeatLocked = "locked"
)
