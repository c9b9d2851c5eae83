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

// TicketIssuer produces the ticket artifact (QR image URL) for a
// confirmed booking. Implementations must be idempotent: re-issuing
// when an artifact already exists returns the existing one.
type TicketIssuer interface {
	Issue(b models.Booking) (string, error)
}

// BookingService is the booking ledger: atomic booking creation
// reconciled against locks and existing bookings, plus the
// confirm/cancel state machine and the schedule seat-count aggregate.
type BookingService struct {
	DB        *sql.DB
	Seats     repositories.SeatRepository
	Locks     repositories.SeatLockRepository
	Bookings  repositories.BookingRepository
	Schedules repositories.ScheduleRepository
	Tickets   TicketIssuer
	Now       func() time.Time
	RequestID string
}

// CreateBookingInput carries everything a booking needs. LockToken is
// optional for elevated actors (walk-in sales over the counter).
type CreateBookingInput struct {
	ScheduleID    int64
	SeatLabels    []string
	CustomerName  string
	CustomerPhone string
	CustomerEmail string
	Channel       string
	LockToken     string
	AutoConfirm   bool
	Actor         domain.Actor
}

func (s BookingService) db() *sql.DB {
	if s.DB != nil {
		return s.DB
	}
	return intconfig.DB
}

func (s BookingService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Create validates, prices and persists a booking in one transaction:
// seat snapshot, counter increment and lock consumption commit or fail
// together. Ticket issuance for auto-confirmed bookings happens after
// commit; the issuer is idempotent and can be retried via the ticket
// endpoints.
func (s BookingService) Create(in CreateBookingInput) (models.Booking, error) {
	labels := utils.NormalizeSeatLabels(in.SeatLabels)
	if len(labels) == 0 {
		return models.Booking{}, domain.ValidationError{Field: "seat_labels", Msg: "at least one seat is required"}
	}
	if utils.TrimOrEmpty(in.CustomerName) == "" {
		return models.Booking{}, domain.ValidationError{Field: "customer_name", Msg: "required"}
	}
	if utils.TrimOrEmpty(in.CustomerPhone) == "" {
		return models.Booking{}, domain.ValidationError{Field: "customer_phone", Msg: "required"}
	}
	switch in.Channel {
	case models.ChannelOnline, models.ChannelCashier, models.ChannelAPI:
	default:
		return models.Booking{}, domain.ValidationError{Field: "channel", Msg: "unknown channel"}
	}

	tx, err := s.db().Begin()
	if err != nil {
		return models.Booking{}, domain.InternalError{Err: err}
	}
	defer tx.Rollback()

	schedule, err := s.Schedules.GetByIDForUpdate(tx, in.ScheduleID)
	if err != nil {
		return models.Booking{}, err
	}
	if !schedule.CanAcceptReservations() {
		return models.Booking{}, domain.ScheduleNotBookableError{ScheduleID: schedule.ID, Status: schedule.Status}
	}

	now := s.now()
	if err := s.Locks.DeleteExpired(tx, schedule.ID, now); err != nil {
		return models.Booking{}, domain.InternalError{Err: err}
	}

	seatMap, err := s.Seats.MapByLabels(tx, schedule.BusID, labels)
	if err != nil {
		return models.Booking{}, domain.InternalError{Err: err}
	}
	var missing []string
	for _, label := range labels {
		if _, ok := seatMap[label]; !ok {
			missing = append(missing, label)
		}
	}
	if len(missing) > 0 {
		return models.Booking{}, domain.UnknownSeatError{Labels: missing}
	}

	booked, err := s.Bookings.ActiveSeatLabels(tx, schedule.ID)
	if err != nil {
		return models.Booking{}, domain.InternalError{Err: err}
	}
	var conflicts []string
	for _, label := range labels {
		if _, ok := booked[label]; ok {
			conflicts = append(conflicts, label)
		}
	}
	if len(conflicts) > 0 {
		return models.Booking{}, domain.SeatConflictError{Labels: conflicts}
	}

	locks, err := s.Locks.ListByLabels(tx, schedule.ID, labels)
	if err != nil {
		return models.Booking{}, domain.InternalError{Err: err}
	}
	var lockedLabels []string
	for _, l := range locks {
		if !l.Expired(now) {
			lockedLabels = append(lockedLabels, l.SeatLabel)
		}
	}
	if len(lockedLabels) > 0 {
		if in.LockToken != "" {
			// A token is only good for the exact seat set it holds.
			held, err := s.Locks.LabelsByToken(tx, schedule.ID, in.LockToken)
			if err != nil {
				return models.Booking{}, domain.InternalError{Err: err}
			}
			if !utils.SameLabelSet(held, labels) {
				return models.Booking{}, domain.LockMismatchError{Token: in.LockToken}
			}
		} else if !in.Actor.IsElevated() {
			return models.Booking{}, domain.SeatLockedError{Labels: lockedLabels}
		}
	}

	farePerSeat := utils.Round2(schedule.BaseFare * schedule.DynamicPricingFactor)
	subtotal := utils.Round2(farePerSeat * float64(len(labels)))
	fees := 0.0
	total := subtotal + fees

	snapshot := make([]models.BookingSeat, 0, len(labels))
	for _, label := range labels {
		snapshot = append(snapshot, models.BookingSeat{
			Label:     label,
			SeatClass: seatMap[label].SeatClass,
			Fare:      farePerSeat,
		})
	}

	status := models.BookingPending
	paymentStatus := models.PaymentUnpaid
	if in.AutoConfirm {
		status = models.BookingConfirmed
		paymentStatus = models.PaymentPaid
	}

	booking := models.Booking{
		Reference:     utils.NewBookingReference(),
		UserID:        in.Actor.UserID,
		ScheduleID:    schedule.ID,
		Channel:       in.Channel,
		CustomerName:  utils.TrimOrEmpty(in.CustomerName),
		CustomerPhone: utils.TrimOrEmpty(in.CustomerPhone),
		CustomerEmail: utils.TrimOrEmpty(in.CustomerEmail),
		Seats:         snapshot,
		Subtotal:      subtotal,
		Fees:          fees,
		TotalAmount:   total,
		Status:        status,
		PaymentStatus: paymentStatus,
	}
	if in.Channel != models.ChannelOnline {
		booking.UserID = 0
	}

	bookingID, err := s.Bookings.Insert(tx, booking)
	if err != nil {
		return models.Booking{}, domain.InternalError{Err: err}
	}
	booking.ID = bookingID
	booking.CreatedAt = now

	if err := s.Schedules.IncrementBookedSeats(tx, schedule.ID, len(snapshot)); err != nil {
		return models.Booking{}, domain.InternalError{Err: err}
	}

	if in.LockToken != "" {
		if _, err := s.Locks.DeleteByToken(tx, in.LockToken); err != nil {
			return models.Booking{}, domain.InternalError{Err: err}
		}
	} else {
		if err := s.Locks.DeleteByLabels(tx, schedule.ID, labels); err != nil {
			return models.Booking{}, domain.InternalError{Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return models.Booking{}, domain.InternalError{Err: err}
	}

	utils.LogEvent(s.RequestID, "bookings", "create",
		fmt.Sprintf("booking_id=%d reference=%s schedule_id=%d seats=%d channel=%s",
			booking.ID, booking.Reference, schedule.ID, len(snapshot), in.Channel))

	if in.AutoConfirm {
		s.issueTicket(&booking)
	}
	return booking, nil
}

// Confirm moves a pending booking to confirmed/paid and issues the
// ticket. Confirming a confirmed booking is an idempotent no-op;
// confirming a cancelled one is an error.
func (s BookingService) Confirm(bookingID int64) (models.Booking, error) {
	tx, err := s.db().Begin()
	if err != nil {
		return models.Booking{}, domain.InternalError{Err: err}
	}
	defer tx.Rollback()

	booking, err := s.Bookings.GetByIDForUpdate(tx, bookingID)
	if err != nil {
		return models.Booking{}, err
	}
	switch booking.Status {
	case models.BookingCancelled:
		return models.Booking{}, domain.ValidationError{Field: "status", Msg: "cannot confirm a cancelled booking"}
	case models.BookingConfirmed:
		return booking, nil
	}

	if err := s.Bookings.UpdateStatus(tx, booking.ID, models.BookingConfirmed, models.PaymentPaid); err != nil {
		return models.Booking{}, domain.InternalError{Err: err}
	}
	if err := tx.Commit(); err != nil {
		return models.Booking{}, domain.InternalError{Err: err}
	}

	booking.Status = models.BookingConfirmed
	booking.PaymentStatus = models.PaymentPaid
	utils.LogEvent(s.RequestID, "bookings", "confirm", fmt.Sprintf("booking_id=%d", booking.ID))

	s.issueTicket(&booking)
	return booking, nil
}

// Cancel releases a booking's seats. Idempotent: cancelling a
// cancelled booking changes nothing. A paid booking flips to refunded;
// the schedule counter decrement is clamped so drift can never drive
// it negative.
func (s BookingService) Cancel(bookingID int64) (models.Booking, error) {
	tx, err := s.db().Begin()
	if err != nil {
		return models.Booking{}, domain.InternalError{Err: err}
	}
	defer tx.Rollback()

	booking, err := s.Bookings.GetByIDForUpdate(tx, bookingID)
	if err != nil {
		return models.Booking{}, err
	}
	if booking.Status == models.BookingCancelled {
		return booking, nil
	}

	paymentStatus := models.PaymentUnpaid
	if booking.PaymentStatus == models.PaymentPaid {
		paymentStatus = models.PaymentRefunded
	}

	if err := s.Bookings.UpdateStatus(tx, booking.ID, models.BookingCancelled, paymentStatus); err != nil {
		return models.Booking{}, domain.InternalError{Err: err}
	}
	if n := booking.SeatCount(); n > 0 {
		if err := s.Schedules.DecrementBookedSeats(tx, booking.ScheduleID, n); err != nil {
			return models.Booking{}, domain.InternalError{Err: err}
		}
	}
	if err := tx.Commit(); err != nil {
		return models.Booking{}, domain.InternalError{Err: err}
	}

	booking.Status = models.BookingCancelled
	booking.PaymentStatus = paymentStatus
	utils.LogEvent(s.RequestID, "bookings", "cancel", fmt.Sprintf("booking_id=%d", booking.ID))
	return booking, nil
}

func (s BookingService) issueTicket(b *models.Booking) {
	if s.Tickets == nil {
		return
	}
	url, err := s.Tickets.Issue(*b)
	if err != nil {
		log.Printf("[BOOKINGS] ticket issuance failed booking_id=%d err=%v", b.ID, err)
		return
	}
	b.QRCodePath = url
}
