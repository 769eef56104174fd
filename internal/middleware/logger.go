package middleware

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/travelco/travel-planner/internal/logger"
)

// RequestLogger writes one structured line per request to the info logger.
func RequestLogger() echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			fields := logrus.Fields{
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency_ms": v.Latency.Milliseconds(),
				"request_id": v.RequestID,
				"remote_ip":  v.RemoteIP,
			}
			if id, ok := GetIdentity(c); ok {
				fields["customer_id"] = id.CustomerID
			}
			entry := logger.InfoLogger.WithFields(fields)
			if v.Error != nil {
				entry = entry.WithError(v.Error)
			}
			if v.Status >= 500 {
				entry.Warn("request failed")
				return nil
			}
			entry.Info("request")
			return nil
		},
	})
}
