package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"busticket/internal/domain/models"
	"busticket/internal/http/middleware"
	"busticket/internal/services"
)

func lockService(c *gin.Context) services.LockService {
	return services.LockService{
		TTL:       currentEnv().LockTTL,
		RequestID: middleware.GetRequestID(c),
	}
}

// GET /api/schedules/:id/seats
func Availability(c *gin.Context) {
	scheduleID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || scheduleID <= 0 {
		respondError(c, http.StatusBadRequest, "invalid_schedule_id", "invalid schedule id", nil)
		return
	}

	schedule, seats, err := lockService(c).Availability(scheduleID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	if schedule.Status == models.ScheduleCancelled {
		c.JSON(http.StatusGone, gin.H{
			"message": "schedule is cancelled",
			"seats":   []models.SeatView{},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"schedule_id": schedule.ID,
		"seats":       seats,
	})
}

type lockRequest struct {
	SeatLabels []string `json:"seat_labels" binding:"required,min=1"`
}

// POST /api/schedules/:id/locks
func LockSeats(c *gin.Context) {
	scheduleID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || scheduleID <= 0 {
		respondError(c, http.StatusBadRequest, "invalid_schedule_id", "invalid schedule id", nil)
		return
	}

	var req lockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_payload", "seat_labels is required", nil)
		return
	}

	grant, err := lockService(c).Lock(scheduleID, req.SeatLabels, middleware.ActorFrom(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":      "seats locked successfully",
		"lock_token":   grant.Token,
		"locked_until": grant.LockedUntil,
	})
}

// DELETE /api/seat-locks/:token
func ReleaseSeats(c *gin.Context) {
	token := c.Param("token")
	if err := lockService(c).Release(token, middleware.ActorFrom(c)); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "seat lock released"})
}
