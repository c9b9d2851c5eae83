package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"busticket/internal/http/middleware"
	"busticket/internal/services"
)

func paymentService(c *gin.Context) services.PaymentService {
	return services.PaymentService{
		Tickets:   ticketService(c),
		RequestID: middleware.GetRequestID(c),
	}
}

// POST /api/bookings/:id/payments/initiate
func InitiatePayment(c *gin.Context) {
	id, ok := bookingIDParam(c)
	if !ok {
		return
	}
	payment, err := paymentService(c).Initiate(id, middleware.ActorFrom(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "payment initiated",
		"data": gin.H{
			"payment":        payment,
			"checkout_token": payment.TransactionReference,
			"instructions":   "use the telebirr app to approve this mock transaction",
		},
	})
}

type webhookRequest struct {
	TransactionReference string `json:"transaction_reference" binding:"required"`
	Status               string `json:"status" binding:"required,oneof=successful failed"`
}

// POST /api/bookings/:id/payments/webhook
func PaymentWebhook(c *gin.Context) {
	id, ok := bookingIDParam(c)
	if !ok {
		return
	}
	var req webhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_payload", "transaction_reference and status (successful|failed) are required", nil)
		return
	}

	result, err := paymentService(c).Reconcile(id, req.TransactionReference, req.Status)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "payment status updated",
		"data":    result,
	})
}
