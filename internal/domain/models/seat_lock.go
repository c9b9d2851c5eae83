package models

import "time"

// SeatLock is a short-lived hold on one seat of one schedule. All
// seats held by one lock call share the same token. Expiry is lazy: a
// row may outlive LockedUntil in storage until the next purge, so
// liveness must always be judged against the clock, never assumed from
// row presence.
type SeatLock struct {
	ID          int64     `json:"id"`
	ScheduleID  int64     `json:"schedule_id"`
	SeatLabel   string    `json:"seat_label"`
	LockToken   string    `json:"lock_token"`
	UserID      int64     `json:"user_id"`
	LockedUntil time.Time `json:"locked_until"`
	CreatedAt   time.Time `json:"created_at"`
}

// Expired reports whether the lock is past its TTL at the given time.
func (l SeatLock) Expired(now time.Time) bool {
	return l.LockedUntil.Before(now)
}
