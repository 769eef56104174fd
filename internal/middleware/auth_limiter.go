package middleware

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/travelco/travel-planner/internal/logger"
)

// NewAuthLimiter throttles login and signup per client IP and route using
// ulule/limiter. rate uses the limiter format, e.g. "10-M". With a redis
// client the counters are shared across instances; otherwise they live in
// process memory.
func NewAuthLimiter(rate string, rdb *redis.Client) (echo.MiddlewareFunc, error) {
	r, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, err
	}

	var store limiter.Store
	if rdb != nil {
		store, err = redisstore.NewStoreWithOptions(rdb, limiter.StoreOptions{Prefix: "auth_limiter"})
		if err != nil {
			return nil, err
		}
	} else {
		store = memory.NewStoreWithOptions(limiter.StoreOptions{Prefix: "auth_limiter"})
	}
	lim := limiter.New(store, r)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// signup and login count separately
			key := c.RealIP() + ":" + c.Path()
			lctx, err := lim.Get(c.Request().Context(), key)
			if err != nil {
				logger.ErrorLogger.WithError(err).WithField("key", key).Warn("auth limiter unavailable")
				return next(c) // fail open
			}
			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.FormatInt(lctx.Limit, 10))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(lctx.Remaining, 10))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(lctx.Reset, 10)) // unix seconds
			if lctx.Reached {
				logger.InfoLogger.WithField("key", key).Info("auth rate limit reached")
				return c.JSON(http.StatusTooManyRequests, echo.Map{
					"success": false,
					"error":   "Too many attempts, please try again later",
				})
			}
			return next(c)
		}
	}, nil
}
