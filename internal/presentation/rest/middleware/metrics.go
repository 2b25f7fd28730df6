package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	otelinfra "payment-bridge/internal/infrastructure/observability/otel"
)

// MetricsMiddleware メトリクス記録ミドルウェア
// エラーレスポンスはハンドラーの戻り値ではなくステータスコードで判定する
func MetricsMiddleware(metrics *otelinfra.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			ctx := c.Request().Context()
			method := c.Request().Method
			route := c.Path()

			metrics.RecordRequest(ctx, method, route)

			err := next(c)

			metrics.RecordResponseTime(ctx, method, route, time.Since(start).Seconds())

			status := c.Response().Status
			if err != nil && status < 400 {
				// 上位のエラーハンドラーで5xxとして返される
				status = 500
			}
			switch {
			case status >= 500:
				metrics.RecordError(ctx, "server_error")
			case status >= 400:
				metrics.RecordError(ctx, "client_error")
			}

			return err
		}
	}
}
