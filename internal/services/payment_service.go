package services

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	intconfig "busticket/internal/config"
	"busticket/internal/domain"
	"busticket/internal/domain/models"
	"busticket/internal/repositories"
	"busticket/internal/utils"
)

// PaymentService correlates provider callbacks to bookings and flips
// booking and payment state together. The provider itself is a
// simulation; outcomes arrive over the webhook endpoint.
type PaymentService struct {
	DB        *sql.DB
	Bookings  repositories.BookingRepository
	Payments  repositories.PaymentRepository
	Tickets   TicketIssuer
	Now       func() time.Time
	RequestID string
}

func (s PaymentService) db() *sql.DB {
	if s.DB != nil {
		return s.DB
	}
	return intconfig.DB
}

func (s PaymentService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Initiate opens a payment attempt for a booking. Only the booking
// owner or an elevated role may pay; paying a paid booking is
// rejected.
func (s PaymentService) Initiate(bookingID int64, actor domain.Actor) (models.Payment, error) {
	booking, err := s.Bookings.GetByID(nil, bookingID)
	if err != nil {
		return models.Payment{}, err
	}
	if !actor.IsElevated() && !actor.Owns(booking.UserID) {
		return models.Payment{}, domain.ForbiddenError{Msg: "not authorized to pay for this booking"}
	}
	if booking.PaymentStatus == models.PaymentPaid {
		return models.Payment{}, domain.AlreadyPaidError{BookingID: booking.ID}
	}

	payment := models.Payment{
		BookingID:            booking.ID,
		Provider:             models.PaymentProvider,
		TransactionReference: utils.NewTransactionReference(),
		Amount:               booking.TotalAmount,
		Status:               models.PaymentInitiated,
	}
	id, err := s.Payments.Insert(nil, payment)
	if err != nil {
		return models.Payment{}, domain.InternalError{Err: err}
	}
	payment.ID = id
	payment.CreatedAt = s.now()

	utils.LogEvent(s.RequestID, "payments", "initiate",
		fmt.Sprintf("booking_id=%d reference=%s", booking.ID, payment.TransactionReference))
	return payment, nil
}

// ReconcileResult returns both sides of the reconciliation.
type ReconcileResult struct {
	Payment models.Payment `json:"payment"`
	Booking models.Booking `json:"booking"`
}

// Reconcile applies a provider outcome. The payment is located by
// (booking, transaction reference); an unknown pair is NotFound. On
// success the booking flips to confirmed/paid and the ticket is
// issued; on failure the booking's payment status resets to unpaid and
// its booking status stays put.
func (s PaymentService) Reconcile(bookingID int64, transactionReference, outcome string) (ReconcileResult, error) {
	switch outcome {
	case models.PaymentSuccessful, models.PaymentFailed:
	default:
		return ReconcileResult{}, domain.ValidationError{Field: "status", Msg: "must be successful or failed"}
	}

	tx, err := s.db().Begin()
	if err != nil {
		return ReconcileResult{}, domain.InternalError{Err: err}
	}
	defer tx.Rollback()

	booking, err := s.Bookings.GetByIDForUpdate(tx, bookingID)
	if err != nil {
		return ReconcileResult{}, err
	}
	payment, err := s.Payments.GetByBookingAndReference(tx, booking.ID, transactionReference)
	if err != nil {
		return ReconcileResult{}, err
	}

	if outcome == models.PaymentSuccessful {
		paidAt := s.now()
		if err := s.Payments.MarkOutcome(tx, payment.ID, models.PaymentSuccessful, &paidAt); err != nil {
			return ReconcileResult{}, domain.InternalError{Err: err}
		}
		if err := s.Bookings.UpdateStatus(tx, booking.ID, models.BookingConfirmed, models.PaymentPaid); err != nil {
			return ReconcileResult{}, domain.InternalError{Err: err}
		}
		payment.Status = models.PaymentSuccessful
		payment.PaidAt = &paidAt
		booking.Status = models.BookingConfirmed
		booking.PaymentStatus = models.PaymentPaid
	} else {
		if err := s.Payments.MarkOutcome(tx, payment.ID, models.PaymentFailed, nil); err != nil {
			return ReconcileResult{}, domain.InternalError{Err: err}
		}
		if err := s.Bookings.UpdateStatus(tx, booking.ID, booking.Status, models.PaymentUnpaid); err != nil {
			return ReconcileResult{}, domain.InternalError{Err: err}
		}
		payment.Status = models.PaymentFailed
		booking.PaymentStatus = models.PaymentUnpaid
	}

	if err := tx.Commit(); err != nil {
		return ReconcileResult{}, domain.InternalError{Err: err}
	}

	utils.LogEvent(s.RequestID, "payments", "reconcile",
		fmt.Sprintf("booking_id=%d reference=%s outcome=%s", booking.ID, transactionReference, outcome))

	if outcome == models.PaymentSuccessful && s.Tickets != nil {
		url, err := s.Tickets.Issue(booking)
		if err != nil {
			log.Printf("[PAYMENTS] ticket issuance failed booking_id=%d err=%v", booking.ID, err)
		} else {
			booking.QRCodePath = url
		}
	}
	return ReconcileResult{Payment: payment, Booking: booking}, nil
}
