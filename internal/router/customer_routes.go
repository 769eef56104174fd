package router

import (
	"github.com/labstack/echo/v4"

	"github.com/travelco/travel-planner/internal/handler"
	"github.com/travelco/travel-planner/internal/middleware"
)

// RegisterCustomers registers customer profile and trip routes on the
// authenticated /api group. Profile routes only serve the caller.
func RegisterCustomers(g *echo.Group, c *handler.CustomerHandler, t *handler.TripHandler) {
	self := middleware.RequireSelf("id")
	g.GET("/customers", c.List)
	g.GET("/customers/:id", c.Get, self)
	g.PUT("/customers/:id", c.Update, self)
	g.DELETE("/customers/:id", c.Delete, self)

	g.POST("/trips", t.Create)
	g.GET("/trips", t.List)
	g.GET("/trips/customer/:customerId", t.ListByCustomer, middleware.RequireSelf("customerId"))
	g.GET("/trips/:id", t.Get)
	g.PUT("/trips/:id", t.Update)
	g.DELETE("/trips/:id", t.Delete)
}
