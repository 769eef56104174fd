package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/travelco/travel-planner/internal/config"
	"github.com/travelco/travel-planner/internal/logger"
)

// cachedResponse is what a cache entry holds in redis.
type cachedResponse struct {
	Status      int    `json:"s"`
	ContentType string `json:"ct"`
	Body        []byte `json:"b"`
}

// teeWriter copies up to max bytes of the body on its way to the client.
// overflow is set once the response no longer fits.
type teeWriter struct {
	http.ResponseWriter
	status   int
	buf      bytes.Buffer
	max      int64
	overflow bool
}

func (w *teeWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *teeWriter) Write(b []byte) (int, error) {
	if !w.overflow {
		if w.max > 0 && int64(w.buf.Len()+len(b)) > w.max {
			w.overflow = true
			w.buf.Reset()
		} else {
			w.buf.Write(b)
		}
	}
	return w.ResponseWriter.Write(b)
}

func versionKey(prefix string) string { return prefix + ":version" }

// dataVersion is bumped by every successful write. A missing key reads as 0.
func dataVersion(ctx context.Context, rdb *redis.Client, prefix string) (int64, error) {
	v, err := rdb.Get(ctx, versionKey(prefix)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return v, err
}

// cacheKey scopes entries to the caller and the data version, so one
// customer never sees another's data and stale reads die with the version.
func cacheKey(prefix string, c echo.Context, version int64) string {
	h := sha1.New()
	for _, part := range []string{userID(c), strconv.FormatInt(version, 10), c.Request().URL.RequestURI()} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return prefix + ":" + hex.EncodeToString(h.Sum(nil))
}

// NewRedisCache replays GET responses from redis. It belongs after JWTAuth.
// Only 200 responses up to cfg.MaxBody bytes are stored.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return passThrough
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Method != http.MethodGet {
				return next(c)
			}
			ctx := c.Request().Context()
			version, err := dataVersion(ctx, rdb, cfg.Prefix)
			if err != nil {
				return next(c) // redis down: serve uncached
			}
			key := cacheKey(cfg.Prefix, c, version)

			if raw, err := rdb.Get(ctx, key).Bytes(); err == nil {
				var hit cachedResponse
				if json.Unmarshal(raw, &hit) == nil {
					c.Response().Header().Set("X-Cache", "HIT")
					return c.Blob(hit.Status, hit.ContentType, hit.Body)
				}
			}

			// miss: run the handler and copy what it writes
			tee := &teeWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, max: cfg.MaxBody}
			c.Response().Writer = tee
			c.Response().Header().Set("X-Cache", "MISS")
			if err := next(c); err != nil {
				return err
			}
			if tee.status != http.StatusOK || tee.overflow {
				return nil
			}
			entry, err := json.Marshal(cachedResponse{
				Status:      tee.status,
				ContentType: c.Response().Header().Get(echo.HeaderContentType),
				Body:        tee.buf.Bytes(),
			})
			if err == nil {
				// request ctx may already be cancelled once the body is flushed
				_ = rdb.Set(context.Background(), key, entry, ttl).Err()
			}
			return nil
		}
	}
}

// NewCacheInvalidator bumps the data version after each successful
// non-read request, retiring every cached response at once.
func NewCacheInvalidator(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return passThrough
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err != nil || isRead(c.Request().Method) || c.Response().Status >= http.StatusBadRequest {
				return err
			}
			if ierr := rdb.Incr(context.Background(), versionKey(cfg.Prefix)).Err(); ierr != nil {
				logger.ErrorLogger.WithError(ierr).Warn("cache version bump failed")
			}
			return nil
		}
	}
}

func isRead(method string) bool {
	return method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions
}
