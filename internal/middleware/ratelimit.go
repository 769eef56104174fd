package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/travelco/travel-planner/internal/config"
	"github.com/travelco/travel-planner/internal/logger"
)

// bucketScript refills continuously at one token per ARGV[3] ms up to
// ARGV[2], spends one token when it can and returns
// {allowed, remaining, wait_ms}.
var bucketScript = redis.NewScript(`
local now = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])
local every = tonumber(ARGV[3])

local tokens = tonumber(redis.call('HGET', KEYS[1], 'tokens') or burst)
local seen = tonumber(redis.call('HGET', KEYS[1], 'seen') or now)
tokens = math.min(burst, tokens + math.max(0, now - seen) / every)

local ok, wait = 0, 0
if tokens >= 1 then
  ok = 1
  tokens = tokens - 1
else
  wait = math.ceil((1 - tokens) * every)
end

redis.call('HSET', KEYS[1], 'tokens', tokens, 'seen', now)
redis.call('EXPIRE', KEYS[1], ARGV[4])
return { ok, math.floor(tokens), wait }
`)

// NewTokenBucket throttles every request through a shared redis bucket per
// caller. It is a no-op when disabled or without redis and lets requests
// through if the script fails.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return passThrough
	}
	every := cfg.Every.Milliseconds()
	if every <= 0 {
		every = 1000
	}
	idle := int64(cfg.IdleTTL() / time.Second)
	limit := strconv.Itoa(cfg.Burst)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := bucketKey(cfg.Prefix, c)
			res, err := bucketScript.Run(c.Request().Context(), rdb, []string{key},
				time.Now().UnixMilli(), cfg.Burst, every, idle).Int64Slice()
			if err != nil || len(res) != 3 {
				logger.ErrorLogger.WithError(err).WithField("key", key).Warn("token bucket unavailable")
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", limit)
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(res[1], 10))
			if res[0] == 1 {
				return next(c)
			}

			wait := (res[2] + 999) / 1000
			h.Set("Retry-After", strconv.FormatInt(wait, 10))
			return c.JSON(http.StatusTooManyRequests, echo.Map{
				"success":    false,
				"error":      "rate limit exceeded",
				"retryAfter": wait,
			})
		}
	}
}

func passThrough(next echo.HandlerFunc) echo.HandlerFunc { return next }

// bucketKey uses the customer id once JWTAuth has run and the client IP
// for anonymous requests.
func bucketKey(prefix string, c echo.Context) string {
	if id, ok := GetIdentity(c); ok {
		return prefix + ":customer:" + strconv.FormatUint(id.CustomerID, 10)
	}
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	return prefix + ":ip:" + ip
}
