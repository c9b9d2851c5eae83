package services

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	intconfig "busticket/internal/config"
	"busticket/internal/domain"
	"busticket/internal/domain/models"
	"busticket/internal/repositories"
	"busticket/internal/utils"
)

// LockService is the seat hold manager: availability classification,
// time-boxed lock acquisition and release. Expired locks are reaped
// lazily at the start of every operation; there is no background
// sweeper.
type LockService struct {
	DB        *sql.DB
	Seats     repositories.SeatRepository
	Locks     repositories.SeatLockRepository
	Bookings  repositories.BookingRepository
	Schedules repositories.ScheduleRepository
	TTL       time.Duration
	Now       func() time.Time
	RequestID string
}

// LockGrant is the result of a successful hold: one token covering all
// requested seats.
type LockGrant struct {
	Token       string    `json:"lock_token"`
	LockedUntil time.Time `json:"locked_until"`
}

func (s LockService) db() *sql.DB {
	if s.DB != nil {
		return s.DB
	}
	return intconfig.DB
}

func (s LockService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s LockService) ttl() time.Duration {
	if s.TTL < intconfig.MinLockTTL {
		return intconfig.DefaultLockTTL
	}
	return s.TTL
}

// Availability returns the schedule plus a per-seat view. Booked wins
// over locked, locked wins over the catalog status. Callers must treat
// a cancelled schedule as gone; the seat list is empty in that case.
func (s LockService) Availability(scheduleID int64) (models.Schedule, []models.SeatView, error) {
	schedule, err := s.Schedules.GetByID(nil, scheduleID)
	if err != nil {
		return models.Schedule{}, nil, err
	}
	if schedule.Status == models.ScheduleCancelled {
		return schedule, nil, nil
	}

	now := s.now()
	if err := s.Locks.DeleteExpired(nil, scheduleID, now); err != nil {
		return models.Schedule{}, nil, domain.InternalError{Err: err}
	}

	seats, err := s.Seats.ListByBus(schedule.BusID)
	if err != nil {
		return models.Schedule{}, nil, domain.InternalError{Err: err}
	}
	locked, err := s.Locks.ListBySchedule(nil, scheduleID)
	if err != nil {
		return models.Schedule{}, nil, domain.InternalError{Err: err}
	}
	booked, err := s.Bookings.ActiveSeatLabels(nil, scheduleID)
	if err != nil {
		return models.Schedule{}, nil, domain.InternalError{Err: err}
	}

	views := make([]models.SeatView, 0, len(seats))
	for _, seat := range seats {
		view := models.SeatView{
			Label:     seat.Label,
			SeatClass: seat.SeatClass,
			IsWindow:  seat.IsWindow,
			Status:    seat.Status,
		}
		lock, isLocked := locked[seat.Label]
		// Liveness is a function of the clock, never of row presence:
		// a row the purge missed still counts as expired.
		if isLocked && lock.Expired(now) {
			isLocked = false
		}
		if _, isBooked := booked[seat.Label]; isBooked {
			view.Status = models.SeatBooked
		} else if isLocked {
			view.Status = models.SeatLocked
			until := lock.LockedUntil
			view.LockedUntil = &until
		}
		views = append(views, view)
	}
	return schedule, views, nil
}

// Lock places a hold on the requested seats. All-or-nothing: any
// conflict leaves no locks behind. The schedule row is locked for the
// duration of the transaction so two concurrent holders cannot both
// pass the conflict check; the unique key on (schedule_id, seat_label)
// backstops anything that slips through.
func (s LockService) Lock(scheduleID int64, labels []string, holder domain.Actor) (LockGrant, error) {
	labels = utils.NormalizeSeatLabels(labels)
	if len(labels) == 0 {
		return LockGrant{}, domain.ValidationError{Field: "seat_labels", Msg: "at least one seat is required"}
	}

	tx, err := s.db().Begin()
	if err != nil {
		return LockGrant{}, domain.InternalError{Err: err}
	}
	defer tx.Rollback()

	schedule, err := s.Schedules.GetByIDForUpdate(tx, scheduleID)
	if err != nil {
		return LockGrant{}, err
	}
	if !schedule.CanAcceptReservations() {
		return LockGrant{}, domain.ScheduleNotBookableError{ScheduleID: scheduleID, Status: schedule.Status}
	}

	now := s.now()
	if err := s.Locks.DeleteExpired(tx, scheduleID, now); err != nil {
		return LockGrant{}, domain.InternalError{Err: err}
	}

	seatMap, err := s.Seats.MapByLabels(tx, schedule.BusID, labels)
	if err != nil {
		return LockGrant{}, domain.InternalError{Err: err}
	}
	var missing, unavailable []string
	for _, label := range labels {
		seat, ok := seatMap[label]
		if !ok {
			missing = append(missing, label)
			continue
		}
		if seat.Status != models.SeatAvailable {
			unavailable = append(unavailable, label)
		}
	}
	if len(missing) > 0 {
		return LockGrant{}, domain.UnknownSeatError{Labels: missing}
	}
	if len(unavailable) > 0 {
		return LockGrant{}, domain.SeatUnavailableError{Labels: unavailable}
	}

	booked, err := s.Bookings.ActiveSeatLabels(tx, scheduleID)
	if err != nil {
		return LockGrant{}, domain.InternalError{Err: err}
	}
	liveLocks, err := s.Locks.ListByLabels(tx, scheduleID, labels)
	if err != nil {
		return LockGrant{}, domain.InternalError{Err: err}
	}

	var conflicts []string
	for _, label := range labels {
		if _, ok := booked[label]; ok {
			conflicts = append(conflicts, label)
		}
	}
	for _, lock := range liveLocks {
		if !lock.Expired(now) {
			conflicts = append(conflicts, lock.SeatLabel)
		}
	}
	if len(conflicts) > 0 {
		return LockGrant{}, domain.SeatConflictError{Labels: utils.NormalizeSeatLabels(conflicts)}
	}

	token := uuid.NewString()
	lockedUntil := now.Add(s.ttl())
	for _, label := range labels {
		err := s.Locks.Insert(tx, models.SeatLock{
			ScheduleID:  scheduleID,
			SeatLabel:   label,
			LockToken:   token,
			UserID:      holder.UserID,
			LockedUntil: lockedUntil,
		})
		if err != nil {
			return LockGrant{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return LockGrant{}, domain.InternalError{Err: err}
	}

	utils.LogEvent(s.RequestID, "locks", "lock",
		fmt.Sprintf("schedule_id=%d seats=%d token=%s", scheduleID, len(labels), token))
	return LockGrant{Token: token, LockedUntil: lockedUntil}, nil
}

// Release drops every lock of a hold. Only the original holder or an
// elevated role may release a lock tied to a user.
func (s LockService) Release(token string, requester domain.Actor) error {
	token = utils.TrimOrEmpty(token)
	if token == "" {
		return domain.ValidationError{Field: "lock_token", Msg: "token is required"}
	}

	lock, err := s.Locks.FirstByToken(nil, token)
	if err != nil {
		return err
	}
	if lock.UserID != 0 && !requester.Owns(lock.UserID) && !requester.IsElevated() {
		return domain.ForbiddenError{Msg: "you are not allowed to release this lock"}
	}

	if _, err := s.Locks.DeleteByToken(nil, token); err != nil {
		return domain.InternalError{Err: err}
	}
	utils.LogEvent(s.RequestID, "locks", "release", "token="+token)
	return nil
}
