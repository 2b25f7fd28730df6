package middleware

import (
	"crypto/subtle"
	"net/http"
	"net/netip"
	"strings"

	"github.com/labstack/echo/v4"

	"payment-bridge/internal/infrastructure/config"
	otelinfra "payment-bridge/internal/infrastructure/observability/otel"
)

// HeaderAPIKey ホストシェル用APIキーのヘッダー名
const HeaderAPIKey = "X-API-Key"

// APIKeyMiddleware ホストシェル向けAPIキー認証ミドルウェア
func APIKeyMiddleware(cfg *config.HostAPIConfig, logger *otelinfra.Logger) echo.MiddlewareFunc {
	allowed := parseAllowList(cfg.AllowedIPs)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()

			if !cfg.Enabled {
				logger.Warn(ctx, "Host API is disabled", nil)
				return c.JSON(http.StatusForbidden, ErrorResponse{
					Error:   "forbidden",
					Message: "Host API is disabled",
				})
			}

			apiKey := c.Request().Header.Get(HeaderAPIKey)
			if apiKey == "" {
				logger.Warn(ctx, "Missing X-API-Key header", nil)
				return unauthorized(c, "Missing X-API-Key header")
			}
			if subtle.ConstantTimeCompare([]byte(apiKey), []byte(cfg.APIKey)) != 1 {
				logger.Warn(ctx, "Invalid API key", nil)
				return unauthorized(c, "Invalid API key")
			}

			if len(allowed) > 0 {
				clientIP := c.RealIP()
				if !isIPAllowed(clientIP, allowed) {
					logger.Warn(ctx, "IP address not allowed", map[string]interface{}{
						"ip": clientIP,
					})
					return c.JSON(http.StatusForbidden, ErrorResponse{
						Error:   "forbidden",
						Message: "IP address not allowed",
					})
				}
			}

			return next(c)
		}
	}
}

// parseAllowList 単一IPとCIDR表記を許可リストに変換する
// 解釈できない要素は無視する
func parseAllowList(entries []string) []netip.Prefix {
	prefixes := make([]netip.Prefix, 0, len(entries))
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if strings.Contains(entry, "/") {
			if p, err := netip.ParsePrefix(entry); err == nil {
				prefixes = append(prefixes, p.Masked())
			}
			continue
		}
		if addr, err := netip.ParseAddr(entry); err == nil {
			prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
		}
	}
	return prefixes
}

// isIPAllowed IPアドレスが許可リストに含まれているか
func isIPAllowed(ip string, allowed []netip.Prefix) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range allowed {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
