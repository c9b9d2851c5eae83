package models

import "time"

// Schedule statuses.
const (
	ScheduleScheduled = "scheduled"
	ScheduleBoarding  = "boarding"
	ScheduleOngoing   = "ongoing"
	ScheduleCompleted = "completed"
	ScheduleCancelled = "cancelled"
)

// Schedule is one bus running one route at one departure time.
// BookedSeatCount is a denormalized aggregate maintained by the
// booking flow inside the same transaction as the booking mutation.
type Schedule struct {
	ID                   int64     `json:"id"`
	BusID                int64     `json:"bus_id"`
	TravelRouteID        int64     `json:"travel_route_id"`
	DriverID             int64     `json:"driver_id"`
	DepartureTime        time.Time `json:"departure_time"`
	ArrivalTime          time.Time `json:"arrival_time"`
	BoardingPoint        string    `json:"boarding_point"`
	DropoffPoint         string    `json:"dropoff_point"`
	BaseFare             float64   `json:"base_fare"`
	DynamicPricingFactor float64   `json:"dynamic_pricing_factor"`
	Status               string    `json:"status"`
	BookedSeatCount      int       `json:"booked_seat_count"`
}

// CanAcceptReservations gates seat locking and booking creation.
func (s Schedule) CanAcceptReservations() bool {
	return s.Status == ScheduleScheduled
}
