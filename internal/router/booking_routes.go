package router

import (
	"github.com/labstack/echo/v4"

	"github.com/travelco/travel-planner/internal/handler"
)

// RegisterBookings registers transport and accommodation bookings and the
// booking session flow. Ownership is checked in the handlers through the
// parent trip.
func RegisterBookings(g *echo.Group, tb *handler.TransportHandler, ab *handler.AccommodationHandler, s *handler.SessionHandler) {
	g.POST("/transport-bookings", tb.Create)
	g.GET("/transport-bookings", tb.List)
	g.GET("/transport-bookings/trip/:tripId", tb.ListByTrip)
	g.GET("/transport-bookings/:id", tb.Get)
	g.PUT("/transport-bookings/:id", tb.Update)
	g.DELETE("/transport-bookings/:id", tb.Delete)

	g.POST("/accommodation-bookings", ab.Create)
	g.GET("/accommodation-bookings", ab.List)
	g.GET("/accommodation-bookings/trip/:tripId", ab.ListByTrip)
	g.GET("/accommodation-bookings/:id", ab.Get)
	g.PUT("/accommodation-bookings/:id", ab.Update)
	g.DELETE("/accommodation-bookings/:id", ab.Delete)

	g.POST("/booking-sessions", s.Start)
	g.GET("/booking-sessions/:id", s.Get)
	g.PUT("/booking-sessions/:id/transport", s.ChooseTransport)
	g.PUT("/booking-sessions/:id/accommodation", s.ChooseAccommodation)
	g.POST("/booking-sessions/:id/review", s.Review)
	g.POST("/booking-sessions/:id/confirm", s.Confirm)
	g.DELETE("/booking-sessions/:id", s.Abandon)
}

// RegisterPayments registers payment routes. The webhook is public and is
// registered by RegisterRoutes.
func RegisterPayments(g *echo.Group, p *handler.PaymentHandler) {
	g.POST("/payments", p.Create)
	g.GET("/payments", p.List)
	g.GET("/payments/trip/:tripId", p.ListByTrip)
	g.GET("/payments/transaction/:transactionId", p.GetByTransaction)
	g.GET("/payments/:id", p.Get)
	g.GET("/payments/:id/receipt", p.Receipt)
	g.PUT("/payments/:id", p.Update)
	g.DELETE("/payments/:id", p.Delete)
}
