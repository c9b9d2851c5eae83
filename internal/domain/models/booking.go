package models

import "time"

// Booking statuses. Cancelled is terminal; confirmed can still be
// cancelled to model refunds.
const (
	BookingPending   = "pending"
	BookingConfirmed = "confirmed"
	BookingCancelled = "cancelled"
	BookingRefunded  = "refunded"
)

// Payment statuses carried on the booking.
const (
	PaymentUnpaid   = "unpaid"
	PaymentPaid     = "paid"
	PaymentRefunded = "refunded"
)

// Sales channels.
const (
	ChannelOnline  = "online"
	ChannelCashier = "cashier"
	ChannelAPI     = "api"
)

// BookingSeat is the frozen snapshot of one purchased seat: label,
// class and the fare at booking time. It stays authoritative even if
// the catalog seat is later edited.
type BookingSeat struct {
	Label     string  `json:"label"`
	SeatClass string  `json:"seat_class"`
	Fare      float64 `json:"fare"`
}

// Booking is a durable, priced claim on one or more seats of one
// schedule.
type Booking struct {
	ID            int64         `json:"id"`
	Reference     string        `json:"reference"`
	UserID        int64         `json:"user_id"`
	ScheduleID    int64         `json:"schedule_id"`
	Channel       string        `json:"channel"`
	CustomerName  string        `json:"customer_name"`
	CustomerPhone string        `json:"customer_phone"`
	CustomerEmail string        `json:"customer_email"`
	Seats         []BookingSeat `json:"seats"`
	Subtotal      float64       `json:"subtotal"`
	Fees          float64       `json:"fees"`
	TotalAmount   float64       `json:"total_amount"`
	Status        string        `json:"status"`
	PaymentStatus string        `json:"payment_status"`
	QRCodePath    string        `json:"qr_code_path"`
	CreatedAt     time.Time     `json:"created_at"`
}

// SeatLabels returns the labels of the seat snapshot.
func (b Booking) SeatLabels() []string {
	labels := make([]string, 0, len(b.Seats))
	for _, s := range b.Seats {
		labels = append(labels, s.Label)
	}
	return labels
}

// SeatCount returns how many seats the booking claims.
func (b Booking) SeatCount() int {
	return len(b.Seats)
}

// Active reports whether the booking still claims its seats
// (pending or confirmed).
func (b Booking) Active() bool {
	return b.Status == BookingPending || b.Status == BookingConfirmed
}
