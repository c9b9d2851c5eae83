package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"busticket/internal/domain"
	"busticket/internal/domain/models"
	"busticket/internal/http/middleware"
	"busticket/internal/repositories"
	"busticket/internal/services"
)

func bookingService(c *gin.Context) services.BookingService {
	return services.BookingService{
		Tickets:   ticketService(c),
		RequestID: middleware.GetRequestID(c),
	}
}

func ticketService(c *gin.Context) services.TicketService {
	e := currentEnv()
	return services.TicketService{
		StorageDir: e.StorageDir,
		PublicURL:  e.PublicURL,
		RequestID:  middleware.GetRequestID(c),
	}
}

type createBookingRequest struct {
	ScheduleID    int64    `json:"schedule_id" binding:"required"`
	SeatLabels    []string `json:"seat_labels" binding:"required,min=1"`
	CustomerName  string   `json:"customer_name" binding:"required,max=120"`
	CustomerPhone string   `json:"customer_phone" binding:"required,max=25"`
	CustomerEmail string   `json:"customer_email" binding:"omitempty,email"`
	LockToken     string   `json:"lock_token"`
}

// POST /api/bookings
func CreateBooking(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_payload", "schedule_id, seat_labels, customer_name and customer_phone are required", nil)
		return
	}
	// Online buyers must first hold the seats; walk-ins may not.
	if req.LockToken == "" {
		respondError(c, http.StatusBadRequest, "invalid_payload", "lock_token is required for online bookings", nil)
		return
	}

	booking, err := bookingService(c).Create(services.CreateBookingInput{
		ScheduleID:    req.ScheduleID,
		SeatLabels:    req.SeatLabels,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		CustomerEmail: req.CustomerEmail,
		Channel:       models.ChannelOnline,
		LockToken:     req.LockToken,
		Actor:         middleware.ActorFrom(c),
	})
	if err != nil {
		RespondDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "booking created, proceed to payment",
		"data":    booking,
	})
}

// POST /api/cashier/bookings
func CreateCounterBooking(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_payload", "schedule_id, seat_labels, customer_name and customer_phone are required", nil)
		return
	}

	booking, err := bookingService(c).Create(services.CreateBookingInput{
		ScheduleID:    req.ScheduleID,
		SeatLabels:    req.SeatLabels,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		CustomerEmail: req.CustomerEmail,
		Channel:       models.ChannelCashier,
		LockToken:     req.LockToken,
		AutoConfirm:   true,
		Actor:         middleware.ActorFrom(c),
	})
	if err != nil {
		RespondDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "booking created and confirmed for walk-in customer",
		"data":    booking,
	})
}

// GET /api/bookings
func ListBookings(c *gin.Context) {
	actor := middleware.ActorFrom(c)
	filter := repositories.BookingFilter{
		Status: c.Query("status"),
	}
	if !actor.IsElevated() {
		filter.UserID = actor.UserID
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil && page > 1 {
		filter.Offset = (page - 1) * 15
	}

	repo := repositories.BookingRepository{}
	bookings, err := repo.List(filter)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "internal_error", "failed to list bookings", nil)
		return
	}
	if bookings == nil {
		bookings = []models.Booking{}
	}
	c.JSON(http.StatusOK, gin.H{"data": bookings})
}

// GET /api/bookings/:id
func GetBooking(c *gin.Context) {
	booking, ok := fetchOwnedBooking(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": booking})
}

// GET /api/bookings/reference/:reference
func GetBookingByReference(c *gin.Context) {
	repo := repositories.BookingRepository{}
	booking, err := repo.GetByReference(c.Param("reference"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":        booking,
		"qr_code_url": booking.QRCodePath,
	})
}

// POST /api/bookings/:id/confirm
func ConfirmBooking(c *gin.Context) {
	id, ok := bookingIDParam(c)
	if !ok {
		return
	}
	booking, err := bookingService(c).Confirm(id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "booking confirmed",
		"data":    booking,
	})
}

// POST /api/bookings/:id/cancel
func CancelBooking(c *gin.Context) {
	booking, ok := fetchOwnedBooking(c)
	if !ok {
		return
	}
	cancelled, err := bookingService(c).Cancel(booking.ID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "booking cancelled",
		"data":    cancelled,
	})
}

// GET /api/bookings/reference/:reference/verify
func VerifyBooking(c *gin.Context) {
	repo := repositories.BookingRepository{}
	booking, err := repo.GetByReference(c.Param("reference"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	valid := booking.Status == models.BookingConfirmed && booking.PaymentStatus == models.PaymentPaid
	message := "ticket is valid"
	if !valid {
		message = "ticket is invalid or booking not confirmed"
	}
	c.JSON(http.StatusOK, gin.H{
		"valid":   valid,
		"booking": booking,
		"message": message,
	})
}

// GET /api/bookings/reference/:reference/qr
func BookingQR(c *gin.Context) {
	repo := repositories.BookingRepository{}
	booking, err := repo.GetByReference(c.Param("reference"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	url := booking.QRCodePath
	if url == "" {
		url, err = ticketService(c).Issue(booking)
		if err != nil {
			respondError(c, http.StatusInternalServerError, "internal_error", "failed to issue ticket", nil)
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"qr_code_url": url,
			"reference":   booking.Reference,
		},
	})
}

// GET /api/bookings/:id/ticket.pdf
func DownloadTicketPDF(c *gin.Context) {
	booking, ok := fetchOwnedBooking(c)
	if !ok {
		return
	}
	pdf, filename, err := ticketService(c).BuildPDF(booking)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "internal_error", "failed to render ticket", nil)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}

func bookingIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, http.StatusBadRequest, "invalid_booking_id", "invalid booking id", nil)
		return 0, false
	}
	return id, true
}

// fetchOwnedBooking loads the booking and enforces that the caller is
// its owner or holds an elevated role.
func fetchOwnedBooking(c *gin.Context) (models.Booking, bool) {
	id, ok := bookingIDParam(c)
	if !ok {
		return models.Booking{}, false
	}
	repo := repositories.BookingRepository{}
	booking, err := repo.GetByID(nil, id)
	if err != nil {
		RespondDomainError(c, err)
		return models.Booking{}, false
	}
	actor := middleware.ActorFrom(c)
	if !actor.IsElevated() && !actor.Owns(booking.UserID) {
		RespondDomainError(c, domain.ForbiddenError{Msg: "not authorized for this booking"})
		return models.Booking{}, false
	}
	return booking, true
}
