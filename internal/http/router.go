package api

import (
	"log"
	stdhttp "net/http"

	intconfig "busticket/internal/config"
	h "busticket/internal/http/handlers"
	"busticket/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

func NewRouter(env intconfig.Env) *gin.Engine {
	h.Configure(env)
	secret := []byte(env.JWTSecret)

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), gin.Recovery(), middleware.CORS())

	if err := r.SetTrustedProxies(nil); err != nil {
		log.Printf("warning: failed to set trusted proxies: %v", err)
	}

	r.OPTIONS("/*path", func(c *gin.Context) { c.AbortWithStatus(stdhttp.StatusNoContent) })

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"error":  "route not found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})

	api := r.Group("/api")
	{
		api.GET("/health", h.Health)
		api.GET("/db-check", h.DBCheck)

		// Auth
		auth := api.Group("/auth")
		auth.POST("/login", h.Login)
		auth.POST("/register", h.Register)

		// Public reads: seat maps and booking lookup by reference.
		public := api.Group("")
		public.Use(middleware.Auth(secret, false))
		public.GET("/schedules/:id/seats", h.Availability)
		public.GET("/bookings/reference/:reference", h.GetBookingByReference)
		public.GET("/bookings/reference/:reference/verify", h.VerifyBooking)
		public.GET("/bookings/reference/:reference/qr", h.BookingQR)

		// Everything below needs a valid token.
		authed := api.Group("")
		authed.Use(middleware.Auth(secret, true))

		authed.POST("/schedules/:id/locks", h.LockSeats)
		authed.DELETE("/seat-locks/:token", h.ReleaseSeats)

		bookings := authed.Group("/bookings")
		bookings.POST("", h.CreateBooking)
		bookings.GET("", h.ListBookings)
		bookings.GET("/:id", h.GetBooking)
		bookings.POST("/:id/confirm", h.ConfirmBooking)
		bookings.POST("/:id/cancel", h.CancelBooking)
		bookings.GET("/:id/ticket.pdf", h.DownloadTicketPDF)
		bookings.POST("/:id/payments/initiate", h.InitiatePayment)
		bookings.POST("/:id/payments/webhook", h.PaymentWebhook)

		// Counter sales by staff.
		cashier := authed.Group("/cashier")
		cashier.Use(middleware.RequireRoles("cashier", "admin"))
		cashier.POST("/bookings", h.CreateCounterBooking)
	}

	return r
}
