package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"payment-bridge/internal/application/auth"
	"payment-bridge/internal/infrastructure/config"
	otelinfra "payment-bridge/internal/infrastructure/observability/otel"
)

// ContextKeyDeviceID 認証済み端末IDを保持するコンテキストキー
const ContextKeyDeviceID = "device_id"

// AuthMiddleware JWT認証ミドルウェア
func AuthMiddleware(cfg *config.JWTConfig, logger *otelinfra.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()

			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				logger.Warn(ctx, "Missing authorization header", nil)
				return unauthorized(c, "Missing authorization header")
			}

			scheme, tokenString, found := strings.Cut(authHeader, " ")
			if !found || scheme != "Bearer" || tokenString == "" {
				logger.Warn(ctx, "Invalid authorization header format", nil)
				return unauthorized(c, "Invalid authorization header format")
			}

			deviceID, err := auth.ParseDeviceID(cfg, tokenString)
			if err != nil {
				logger.Warn(ctx, "Invalid token", map[string]interface{}{
					"error": err.Error(),
				})
				return unauthorized(c, "Invalid or expired token")
			}

			c.Set(ContextKeyDeviceID, deviceID)
			return next(c)
		}
	}
}

func unauthorized(c echo.Context, message string) error {
	return c.JSON(http.StatusUnauthorized, ErrorResponse{
		Error:   "unauthorized",
		Message: message,
	})
}
