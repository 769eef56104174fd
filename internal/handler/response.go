package handler // handler holds the echo handlers of the REST API

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/travelco/travel-planner/internal/domain"
	"github.com/travelco/travel-planner/internal/logger"
)

// envelope is the body of every JSON response.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Count   *int   `json:"count,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

func respond(c echo.Context, status int, data any, message string) error {
	return c.JSON(status, envelope{Success: true, Data: data, Message: message})
}

// respondList always renders an array, never null, together with its count.
func respondList[T any](c echo.Context, items []T) error {
	if items == nil {
		items = []T{}
	}
	n := len(items)
	return c.JSON(http.StatusOK, envelope{Success: true, Data: items, Count: &n})
}

func respondMessage(c echo.Context, status int, msg string) error {
	if status >= http.StatusBadRequest {
		return c.JSON(status, envelope{Success: false, Error: msg})
	}
	return c.JSON(status, envelope{Success: true, Message: msg})
}

// statusOf maps the domain error taxonomy to an HTTP status.
func statusOf(err error) int {
	switch {
	case domain.IsValidation(err), domain.IsConflict(err):
		return http.StatusBadRequest
	case domain.IsAuth(err):
		return http.StatusUnauthorized
	case domain.IsForbidden(err):
		return http.StatusForbidden
	case domain.IsNotFound(err):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// respondError writes err in the error envelope. Unclassified errors are
// logged with full detail and reported to the client generically.
func respondError(c echo.Context, err error) error {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		logger.ErrorLogger.WithError(err).WithFields(logrus.Fields{
			"method": c.Request().Method,
			"uri":    c.Request().RequestURI,
		}).Error("request failed")
		return respondMessage(c, status, "internal server error")
	}
	return respondMessage(c, status, err.Error())
}

// HTTPErrorHandler renders errors that escape handlers, including echo's
// own 404/405/413, in the same envelope.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if m, ok := he.Message.(string); ok && m != "" {
			msg = m
		} else if he.Message != nil {
			msg = fmt.Sprint(he.Message)
		}
		if he.Code >= http.StatusInternalServerError {
			logger.ErrorLogger.WithError(err).Error("unhandled http error")
			msg = "internal server error"
		}
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(he.Code)
			return
		}
		_ = respondMessage(c, he.Code, msg)
		return
	}
	_ = respondError(c, err)
}
