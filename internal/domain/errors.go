package domain

import (
	"errors"
	"fmt"
	"strings"
)

type NotFoundError struct {
	Resource string
	Err      error
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e NotFoundError) Unwrap() error { return e.Err }

type ValidationError struct {
	Field string
	Msg   string
	Err   error
}

func (e ValidationError) Error() string {
	if e.Msg != "" && e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Msg)
	}
	if e.Msg != "" {
		return e.Msg
	}
	if e.Field != "" {
		return fmt.Sprintf("invalid %s", e.Field)
	}
	return "validation error"
}

func (e ValidationError) Unwrap() error { return e.Err }

type ForbiddenError struct {
	Msg string
}

func (e ForbiddenError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return "forbidden"
}

type InternalError struct {
	Msg string
	Err error
}

func (e InternalError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return "internal error"
}

func (e InternalError) Unwrap() error { return e.Err }

// ScheduleNotBookableError is returned when a schedule is not open for
// seat locking or booking (any status other than "scheduled").
type ScheduleNotBookableError struct {
	ScheduleID int64
	Status     string
}

func (e ScheduleNotBookableError) Error() string {
	return fmt.Sprintf("schedule is not open for booking (status %s)", e.Status)
}

// UnknownSeatError reports requested labels that do not exist on the
// schedule's bus.
type UnknownSeatError struct {
	Labels []string
}

func (e UnknownSeatError) Error() string {
	if len(e.Labels) == 0 {
		return "one or more seats do not exist on this bus"
	}
	return "unknown seats: " + strings.Join(e.Labels, ", ")
}

// SeatUnavailableError reports seats whose catalog status is not
// "available" (maintenance or blocked).
type SeatUnavailableError struct {
	Labels []string
}

func (e SeatUnavailableError) Error() string {
	return "seats not available for booking: " + strings.Join(e.Labels, ", ")
}

// SeatConflictError reports seats already claimed by an active booking
// or a live lock.
type SeatConflictError struct {
	Labels []string
}

func (e SeatConflictError) Error() string {
	return "seats already taken: " + strings.Join(e.Labels, ", ")
}

// SeatLockedError is returned when requested seats are held by another
// party and the caller presented no valid token and holds no elevated
// role.
type SeatLockedError struct {
	Labels []string
}

func (e SeatLockedError) Error() string {
	return "seats are currently locked by another user"
}

// LockMismatchError is returned when a lock token was supplied but the
// locked seat set differs from the requested one.
type LockMismatchError struct {
	Token string
}

func (e LockMismatchError) Error() string {
	return "seat lock mismatch or expired"
}

// AlreadyPaidError rejects a second payment attempt for a paid booking.
type AlreadyPaidError struct {
	BookingID int64
}

func (e AlreadyPaidError) Error() string {
	return "booking already paid"
}

func IsNotFound(err error) bool {
	var target NotFoundError
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target ValidationError
	return errors.As(err, &target)
}

func IsForbidden(err error) bool {
	var target ForbiddenError
	return errors.As(err, &target)
}

func IsInternal(err error) bool {
	var target InternalError
	return errors.As(err, &target)
}

func IsScheduleNotBookable(err error) bool {
	var target ScheduleNotBookableError
	return errors.As(err, &target)
}

func IsUnknownSeat(err error) bool {
	var target UnknownSeatError
	return errors.As(err, &target)
}

func IsSeatUnavailable(err error) bool {
	var target SeatUnavailableError
	return errors.As(err, &target)
}

func IsSeatConflict(err error) bool {
	var target SeatConflictError
	return errors.As(err, &target)
}

func IsSeatLocked(err error) bool {
	var target SeatLockedError
	return errors.As(err, &target)
}

func IsLockMismatch(err error) bool {
	var target LockMismatchError
	return errors.As(err, &target)
}

func IsAlreadyPaid(err error) bool {
	var target AlreadyPaidError
	return errors.As(err, &target)
}
