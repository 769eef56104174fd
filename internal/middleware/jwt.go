package middleware // middleware holds the reusable echo middleware of the API

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/travelco/travel-planner/internal/logger"
	"github.com/travelco/travel-planner/internal/utils"
)

// Messages returned by JWTAuth. Clients key off the exact text.
const (
	MsgNoToken      = "No token provided"
	MsgInvalidToken = "Invalid token"
	MsgTokenExpired = "Token expired"
)

func unauthorized(c echo.Context, msg string) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "error": msg})
}

// JWTAuth validates the Bearer token and stores the caller's Identity on the
// context. Missing, malformed and expired tokens each get their own 401
// message.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(auth, "Bearer ") {
				return unauthorized(c, MsgNoToken)
			}
			raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			if raw == "" {
				return unauthorized(c, MsgNoToken)
			}

			// signature, issuer and expiry; the database is not consulted
			claims, err := utils.ParseAccessToken(secret, raw)
			switch {
			case errors.Is(err, utils.ErrTokenExpired):
				return unauthorized(c, MsgTokenExpired)
			case errors.Is(err, utils.ErrTokenInvalid):
				return unauthorized(c, MsgInvalidToken)
			case err != nil:
				logger.ErrorLogger.WithError(err).Error("token verification failed")
				return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "Authentication error"})
			}

			credID, _ := claims.CredentialID() // sub was checked by ParseAccessToken
			SetIdentity(c, Identity{ID: credID, Email: claims.Email, CustomerID: claims.CustomerID})
			return next(c)
		}
	}
}
