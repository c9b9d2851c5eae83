package models

import "time"

// Payment attempt statuses.
const (
	PaymentInitiated  = "initiated"
	PaymentSuccessful = "successful"
	PaymentFailed     = "failed"
)

// PaymentProvider is the simulated mobile-money provider.
const PaymentProvider = "telebirr"

// Payment is one payment attempt for a booking, correlated with the
// provider callback by TransactionReference.
type Payment struct {
	ID                   int64      `json:"id"`
	BookingID            int64      `json:"booking_id"`
	Provider             string     `json:"provider"`
	TransactionReference string     `json:"transaction_reference"`
	Amount               float64    `json:"amount"`
	Status               string     `json:"status"`
	PaidAt               *time.Time `json:"paid_at"`
	CreatedAt            time.Time  `json:"created_at"`
}
