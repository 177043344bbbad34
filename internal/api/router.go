// Package api contains the HTTP handlers and routing for the booking service.
package api

import (
	"github.com/gin-gonic/gin"
)

// SetupRouter configures the Gin router with all routes and middleware.
func SetupRouter(handler *Handler, auth AuthService, ginMode string) *gin.Engine {
	gin.SetMode(ginMode)

	router := gin.New()

	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(CORSMiddleware())
	router.Use(RequestIDMiddleware())

	// Health check endpoints (no auth required)
	router.GET("/", handler.Health)
	router.GET("/health", handler.Health)

	// Booking creation; /crear-preferencia is the route the original
	// frontend calls, /bookings the English alias.
	router.POST("/crear-preferencia", handler.CreateBooking)
	router.POST("/bookings", handler.CreateBooking)

	// Webhook endpoint, called by the payment provider. No bearer auth:
	// security is the canonical-status fetch plus the optional signature check.
	router.POST("/webhook", handler.HandleWebhook)

	// Admin login
	router.POST("/admin-login", handler.AdminLogin)

	// Admin listing, bearer-token protected
	authorized := router.Group("/", AdminAuthMiddleware(auth))
	{
		authorized.GET("/reservas", handler.ListReservations)
		authorized.GET("/reservations", handler.ListReservations)
	}

	return router
}
