package middleware

// identity.go carries the authenticated caller through the echo context.
// JWTAuth stores it; handlers and the cache/rate-limit middleware read it.

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

const identityKey = "identity"

// Identity is the signed-in caller, decoded from the bearer token.
type Identity struct {
	ID         uint64 `json:"id"` // credential id
	Email      string `json:"email"`
	CustomerID uint64 `json:"customerId"`
}

// SetIdentity stores the caller on the context.
func SetIdentity(c echo.Context, id Identity) { c.Set(identityKey, id) }

// GetIdentity returns the caller stored by JWTAuth.
func GetIdentity(c echo.Context) (Identity, bool) {
	id, ok := c.Get(identityKey).(Identity)
	return id, ok
}

// userID returns the caller's customer id as a string, or "guest" when the
// request is unauthenticated.
func userID(c echo.Context) string {
	if id, ok := GetIdentity(c); ok && id.CustomerID != 0 {
		return strconv.FormatUint(id.CustomerID, 10)
	}
	return "guest"
}
