package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	otelinfra "payment-bridge/internal/infrastructure/observability/otel"
)

// LoggingMiddleware アクセスログミドルウェア
func LoggingMiddleware(logger *otelinfra.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			fields := map[string]interface{}{
				"method":      c.Request().Method,
				"path":        c.Request().URL.Path,
				"route":       c.Path(),
				"status_code": c.Response().Status,
				"duration_ms": time.Since(start).Milliseconds(),
				"remote_ip":   c.RealIP(),
			}
			if requestID := c.Response().Header().Get(echo.HeaderXRequestID); requestID != "" {
				fields["request_id"] = requestID
			}
			if deviceID, ok := c.Get(ContextKeyDeviceID).(string); ok {
				fields["device_id"] = deviceID
			}

			ctx := c.Request().Context()
			switch {
			case err != nil:
				logger.Error(ctx, "HTTP request failed", err, fields)
			case c.Response().Status >= 500:
				logger.Error(ctx, "HTTP request completed with server error", nil, fields)
			default:
				logger.Info(ctx, "HTTP request completed", fields)
			}

			return err
		}
	}
}
