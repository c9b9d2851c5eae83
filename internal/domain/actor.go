package domain

import "strings"

// Roles known to the system. Admin and cashier may bypass foreign seat
// locks and release locks they do not own.
const (
	RoleCustomer = "customer"
	RoleCashier  = "cashier"
	RoleAdmin    = "admin"
)

// Actor identifies the caller of a seat/booking operation. A zero
// Actor means the call is unauthenticated (guest availability reads).
type Actor struct {
	UserID int64
	Role   string
}

// IsElevated reports whether the actor may override another party's
// seat lock or act on bookings it does not own.
func (a Actor) IsElevated() bool {
	switch strings.ToLower(strings.TrimSpace(a.Role)) {
	case RoleAdmin, RoleCashier:
		return true
	}
	return false
}

// Owns reports whether the actor is the authenticated owner of the
// given user id.
func (a Actor) Owns(userID int64) bool {
	return a.UserID != 0 && a.UserID == userID
}
