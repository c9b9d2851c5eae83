package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"busticket/internal/domain"
	"busticket/internal/http/middleware"
)

// ErrorResponse standardizes error payloads.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

func respondError(c *gin.Context, status int, code, message string, details any) {
	if code == "" {
		code = http.StatusText(status)
	}
	resp := ErrorResponse{
		Error:   message,
		Code:    code,
		Details: details,
	}
	reqID := middleware.GetRequestID(c)
	if reqID != "" {
		c.JSON(status, gin.H{
			"error":      resp.Error,
			"code":       resp.Code,
			"details":    resp.Details,
			"request_id": reqID,
			"message":    message,
		})
		return
	}
	c.JSON(status, resp)
}

// RespondDomainError maps domain errors to distinguishable HTTP
// responses. Conflict-class errors carry the offending seat labels so
// the caller can retry with different seats.
func RespondDomainError(c *gin.Context, err error) {
	var (
		unknownSeat  domain.UnknownSeatError
		unavailable  domain.SeatUnavailableError
		seatConflict domain.SeatConflictError
		seatLocked   domain.SeatLockedError
	)
	switch {
	case domain.IsValidation(err):
		respondError(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case domain.IsNotFound(err):
		respondError(c, http.StatusNotFound, "not_found", err.Error(), nil)
	case domain.IsForbidden(err):
		respondError(c, http.StatusForbidden, "forbidden", err.Error(), nil)
	case domain.IsScheduleNotBookable(err):
		respondError(c, http.StatusUnprocessableEntity, "schedule_not_bookable", err.Error(), nil)
	case errors.As(err, &unknownSeat):
		respondError(c, http.StatusUnprocessableEntity, "unknown_seat", err.Error(), gin.H{"seats": unknownSeat.Labels})
	case errors.As(err, &unavailable):
		respondError(c, http.StatusUnprocessableEntity, "seat_unavailable", err.Error(), gin.H{"conflicts": unavailable.Labels})
	case errors.As(err, &seatConflict):
		respondError(c, http.StatusConflict, "seat_conflict", err.Error(), gin.H{"conflicts": seatConflict.Labels})
	case errors.As(err, &seatLocked):
		respondError(c, http.StatusConflict, "seat_locked", err.Error(), gin.H{"conflicts": seatLocked.Labels})
	case domain.IsLockMismatch(err):
		respondError(c, http.StatusConflict, "lock_mismatch", err.Error(), nil)
	case domain.IsAlreadyPaid(err):
		respondError(c, http.StatusUnprocessableEntity, "already_paid", err.Error(), nil)
	default:
		respondError(c, http.StatusInternalServerError, "internal_error", "something went wrong", nil)
	}
}
