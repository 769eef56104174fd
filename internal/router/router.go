// Package router wires handlers and middleware onto the Echo instance.
package router

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/travelco/travel-planner/internal/config"
	"github.com/travelco/travel-planner/internal/handler"
	"github.com/travelco/travel-planner/internal/middleware"
)

// Handlers bundles everything the routes dispatch to.
type Handlers struct {
	Health        *handler.HealthHandler
	Auth          *handler.AuthHandler
	Customers     *handler.CustomerHandler
	Trips         *handler.TripHandler
	Transports    *handler.TransportHandler
	Accommodation *handler.AccommodationHandler
	Payments      *handler.PaymentHandler
	Sessions      *handler.SessionHandler
}

// Setup installs the global middleware chain. rdb may be nil, in which case
// the cache invalidator passes requests through.
func Setup(e *echo.Echo, cfg config.Config, rdb *redis.Client) {
	e.HideBanner = true
	e.HTTPErrorHandler = handler.HTTPErrorHandler

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
	}))
	e.Use(echomw.BodyLimit("1M"))
	e.Use(middleware.NewCacheInvalidator(config.LoadCacheConfig(), rdb))
}

// RegisterRoutes registers every API route. authLimit throttles signup and
// login; it may be nil.
func RegisterRoutes(e *echo.Echo, h Handlers, cfg config.Config, rdb *redis.Client, authLimit echo.MiddlewareFunc) {
	e.GET("/api/health", h.Health.Health)

	RegisterAuth(e, h.Auth, cfg.JWTSecret, authLimit)

	// Anonymous callers share a bucket per IP. Behind JWTAuth the bucket
	// is per customer.
	bucket := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	// public: registration form and provider callbacks
	e.POST("/api/customers", h.Customers.Create, bucket)
	e.POST("/api/payments/webhook", h.Payments.Webhook, bucket)

	api := e.Group("/api", middleware.JWTAuth(cfg.JWTSecret), bucket, middleware.NewRedisCache(config.LoadCacheConfig(), rdb))
	RegisterCustomers(api, h.Customers, h.Trips)
	RegisterBookings(api, h.Transports, h.Accommodation, h.Sessions)
	RegisterPayments(api, h.Payments)

	e.RouteNotFound("/api/*", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "Route not found")
	})
}

// RegisterAuth registers signup, login and logout, which need no token, and
// /api/auth/me, which does.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, authLimit echo.MiddlewareFunc) {
	var limited []echo.MiddlewareFunc
	if authLimit != nil {
		limited = append(limited, authLimit)
	}
	g := e.Group("/api/auth")
	g.POST("/signup", a.Signup, limited...)
	g.POST("/login", a.Login, limited...)
	g.POST("/logout", a.Logout)
	g.GET("/me", a.Me, middleware.JWTAuth(jwtSecret))
}

// RegisterStatic serves the front-end bundle with index.html as fallback for
// client-side routes. API paths are never rewritten.
func RegisterStatic(e *echo.Echo, dir string) {
	if dir == "" {
		return
	}
	e.Use(echomw.StaticWithConfig(echomw.StaticConfig{
		Root:  dir,
		Index: "index.html",
		HTML5: true,
		Skipper: func(c echo.Context) bool {
			return strings.HasPrefix(c.Request().URL.Path, "/api")
		},
	}))
}
