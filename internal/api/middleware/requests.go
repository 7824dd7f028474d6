package middleware

import (
	"net/http"
	"time"

	"github.com/example/storefront/internal/metrics"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Requests logs each request and records it in the request metrics.
// The route label is the registered path pattern, not the raw URL.
func Requests(m *metrics.Metrics, logger *zap.Logger) echo.MiddlewareFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("http")

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			elapsed := time.Since(start)
			req := c.Request()
			code := c.Response().Status
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			m.ObserveRequest(req.Method, route, code, elapsed)

			fields := []zap.Field{
				zap.String("method", req.Method),
				zap.String("route", route),
				zap.String("path", req.URL.Path),
				zap.Int("status", code),
				zap.Duration("elapsed", elapsed),
			}
			if code >= http.StatusInternalServerError {
				logger.Error("request failed", append(fields, zap.Error(err))...)
			} else {
				logger.Info("request", fields...)
			}
			return nil
		}
	}
}
