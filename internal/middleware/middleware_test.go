package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/travelco/travel-planner/internal/config"
	"github.com/travelco/travel-planner/internal/utils"
)

const secret = "test-secret"

func serve(e *echo.Echo, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	return body.Error
}

func TestJWTAuth(t *testing.T) {
	e := echo.New()
	e.GET("/me", func(c echo.Context) error {
		id, ok := GetIdentity(c)
		if !ok {
			return c.NoContent(http.StatusInternalServerError)
		}
		return c.JSON(http.StatusOK, id)
	}, JWTAuth(secret))

	t.Run("missing header", func(t *testing.T) {
		rec := serve(e, http.MethodGet, "/me", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, MsgNoToken, errorOf(t, rec))
	})

	t.Run("malformed token", func(t *testing.T) {
		rec := serve(e, http.MethodGet, "/me", "abc.def.ghi")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, MsgInvalidToken, errorOf(t, rec))
	})

	t.Run("expired token", func(t *testing.T) {
		tok, err := utils.NewAccessToken(secret, 1, 2, "a@b.co", -time.Minute)
		require.NoError(t, err)
		rec := serve(e, http.MethodGet, "/me", tok.Token)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, MsgTokenExpired, errorOf(t, rec))
	})

	t.Run("valid token stores identity", func(t *testing.T) {
		tok, err := utils.NewAccessToken(secret, 1, 2, "a@b.co", time.Hour)
		require.NoError(t, err)
		rec := serve(e, http.MethodGet, "/me", tok.Token)
		require.Equal(t, http.StatusOK, rec.Code)
		var id Identity
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &id))
		assert.Equal(t, Identity{ID: 1, Email: "a@b.co", CustomerID: 2}, id)
	})
}

func TestRequireSelf(t *testing.T) {
	e := echo.New()
	e.GET("/customers/:id", func(c echo.Context) error { return c.NoContent(http.StatusOK) },
		JWTAuth(secret), RequireSelf("id"))
	tok, err := utils.NewAccessToken(secret, 1, 2, "a@b.co", time.Hour)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/customers/2", tok.Token).Code)
	assert.Equal(t, http.StatusForbidden, serve(e, http.MethodGet, "/customers/3", tok.Token).Code)
	assert.Equal(t, http.StatusBadRequest, serve(e, http.MethodGet, "/customers/abc", tok.Token).Code)
}

func TestAuthLimiterMemoryStore(t *testing.T) {
	mw, err := NewAuthLimiter("2-M", nil)
	require.NoError(t, err)
	e := echo.New()
	e.POST("/login", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, mw)

	assert.Equal(t, http.StatusOK, serve(e, http.MethodPost, "/login", "").Code)
	assert.Equal(t, http.StatusOK, serve(e, http.MethodPost, "/login", "").Code)
	rec := serve(e, http.MethodPost, "/login", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	_, err = NewAuthLimiter("lots", nil)
	assert.Error(t, err)
}

func TestCacheWithoutRedisIsPassThrough(t *testing.T) {
	cfg := config.CacheConfig{Enabled: true, Prefix: "cache"}
	calls := 0
	e := echo.New()
	e.Use(NewCacheInvalidator(cfg, nil))
	e.GET("/trips", func(c echo.Context) error {
		calls++
		return c.String(http.StatusOK, "ok")
	}, NewRedisCache(cfg, nil))

	serve(e, http.MethodGet, "/trips", "")
	rec := serve(e, http.MethodGet, "/trips", "")
	assert.Equal(t, 2, calls)
	assert.Empty(t, rec.Header().Get("X-Cache"))
}

func TestCacheKeyIsPerCallerAndVersion(t *testing.T) {
	e := echo.New()
	newCtx := func(customerID uint64, target string) echo.Context {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, target, nil), httptest.NewRecorder())
		if customerID != 0 {
			SetIdentity(c, Identity{CustomerID: customerID})
		}
		return c
	}

	a := cacheKey("cache", newCtx(1, "/api/trips?x=1"), 0)
	assert.Equal(t, a, cacheKey("cache", newCtx(1, "/api/trips?x=1"), 0))
	assert.NotEqual(t, a, cacheKey("cache", newCtx(2, "/api/trips?x=1"), 0))
	assert.NotEqual(t, a, cacheKey("cache", newCtx(1, "/api/trips?x=1"), 1))
	assert.NotEqual(t, a, cacheKey("cache", newCtx(0, "/api/trips?x=1"), 0))
	assert.NotEqual(t, a, cacheKey("cache", newCtx(1, "/api/trips?x=2"), 0))
	assert.Contains(t, a, "cache:")
}

func TestTeeWriterStopsAtLimit(t *testing.T) {
	rec := httptest.NewRecorder()
	w := &teeWriter{ResponseWriter: rec, status: http.StatusOK, max: 4}
	_, _ = w.Write([]byte("abc"))
	assert.False(t, w.overflow)
	_, _ = w.Write([]byte("de"))
	assert.True(t, w.overflow)
	assert.Zero(t, w.buf.Len())
	assert.Equal(t, "abcde", rec.Body.String())
}

func TestBucketKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/trips", nil)
	req.Header.Set(echo.HeaderXRealIP, "10.0.0.1")
	c := e.NewContext(req, httptest.NewRecorder())

	assert.Equal(t, "rl:ip:10.0.0.1", bucketKey("rl", c))
	SetIdentity(c, Identity{CustomerID: 7})
	assert.Equal(t, "rl:customer:7", bucketKey("rl", c))
}

func TestTokenBucketDisabled(t *testing.T) {
	e := echo.New()
	e.GET("/x", func(c echo.Context) error { return c.NoContent(http.StatusOK) },
		NewTokenBucket(config.RateLimitConfig{Enabled: false, Burst: 1, Every: time.Second}, nil))
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/x", "").Code)
	}
}
