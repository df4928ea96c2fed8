// README: HTTP route registration.
package http

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fixnow/internal/http/handlers"
	"fixnow/internal/http/middleware"
	"fixnow/internal/infra"
	"fixnow/internal/modules/booking"
	"fixnow/internal/modules/catalog"
	"fixnow/internal/modules/matching"
	"fixnow/internal/modules/notify"
	"fixnow/internal/modules/payment"
	"fixnow/internal/modules/technician"
)

type RouterDeps struct {
	Bookings    *booking.Service
	Matching    *matching.Service
	Payments    *payment.Service
	Technicians *technician.Service
	Catalog     catalog.Store
	Tokens      notify.TokenStore
	Verifier    infra.TokenVerifier
	Logger      *zap.Logger
}

func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	r := gin.New()
	r.Use(middleware.Recovery(deps.Logger), middleware.Logging(deps.Logger))

	r.GET("/health", func(c *gin.Context) {
		c.String(200, "OK")
	})

	api := r.Group("/api", middleware.Auth(deps.Verifier))

	bookingHandler := handlers.NewBookingHandler(deps.Bookings)
	api.POST("/bookings", bookingHandler.Create)
	api.GET("/bookings", bookingHandler.ListMine)
	api.GET("/bookings/:id", bookingHandler.Get)
	api.POST("/bookings/:id/accept", bookingHandler.Accept)
	api.POST("/bookings/:id/arrive", bookingHandler.Arrive)
	api.POST("/bookings/:id/complete", bookingHandler.Complete)
	api.POST("/bookings/:id/cancel", bookingHandler.Cancel)

	matchingHandler := handlers.NewMatchingHandler(deps.Bookings, deps.Matching)
	api.GET("/bookings/:id/technicians", matchingHandler.Candidates)

	catalogHandler := handlers.NewCatalogHandler(deps.Catalog)
	api.GET("/categories", catalogHandler.List)

	paymentHandler := handlers.NewPaymentHandler(deps.Payments)
	api.POST("/payments", paymentHandler.Initialize)
	api.POST("/payments/:id/authorize", paymentHandler.Authorize)
	api.POST("/payments/:id/release", paymentHandler.Release)
	api.POST("/payments/:id/refund", paymentHandler.Refund)
	api.GET("/bookings/:id/payment", paymentHandler.GetByBooking)

	technicianHandler := handlers.NewTechnicianHandler(deps.Technicians, deps.Tokens)
	api.PUT("/technicians/me/availability", technicianHandler.SetAvailability)
	api.PUT("/technicians/me/location", technicianHandler.UpdateLocation)
	api.PUT("/technicians/me/device", technicianHandler.RegisterDevice)
	api.GET("/technicians/me/bookings", bookingHandler.ListAssigned)

	return r
}
