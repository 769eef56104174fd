package middleware

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// RequireSelf rejects requests whose path parameter names a customer other
// than the caller. It must run after JWTAuth.
func RequireSelf(param string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := GetIdentity(c)
			if !ok {
				return unauthorized(c, MsgNoToken)
			}
			want, err := strconv.ParseUint(c.Param(param), 10, 64)
			if err != nil || want == 0 {
				return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "invalid " + param})
			}
			if want != id.CustomerID {
				return c.JSON(http.StatusForbidden, echo.Map{"success": false, "error": "forbidden"})
			}
			return next(c)
		}
	}
}
