package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"payment-bridge/internal/application/auth"
	"payment-bridge/internal/application/host"
	"payment-bridge/internal/domain/payment"
	otelinfra "payment-bridge/internal/infrastructure/observability/otel"
)

// ErrorResponse エラーレスポンス
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ErrorHandlerMiddleware エラーハンドリングミドルウェア
func ErrorHandlerMiddleware(logger *otelinfra.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}
			return handleError(c, err, logger)
		}
	}
}

// domainError ドメインエラーとHTTPレスポンスの対応
type domainError struct {
	target error
	status int
	code   string
}

var domainErrors = []domainError{
	{target: payment.ErrNoHostSurface, status: http.StatusServiceUnavailable, code: "no_host_surface"},
	{target: payment.ErrAlreadyInProgress, status: http.StatusConflict, code: "already_in_progress"},
	{target: payment.ErrInvalidPaymentRequest, status: http.StatusBadRequest, code: "invalid_payment_request"},
	{target: host.ErrNoActiveSession, status: http.StatusNotFound, code: "session_not_found"},
	{target: auth.ErrDeviceIDRequired, status: http.StatusBadRequest, code: "invalid_request"},
}

// handleError エラーを処理して適切なHTTPレスポンスを返す
func handleError(c echo.Context, err error, logger *otelinfra.Logger) error {
	ctx := c.Request().Context()

	for _, de := range domainErrors {
		if errors.Is(err, de.target) {
			logger.Warn(ctx, "Request rejected", map[string]interface{}{
				"code":  de.code,
				"error": err.Error(),
			})
			return c.JSON(de.status, ErrorResponse{
				Error:   de.code,
				Message: err.Error(),
			})
		}
	}

	// 呼び出し元が待機を打ち切った
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		logger.Warn(ctx, "Request cancelled by client", map[string]interface{}{
			"error": err.Error(),
		})
		return c.JSON(http.StatusRequestTimeout, ErrorResponse{
			Error:   "request_cancelled",
			Message: err.Error(),
		})
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		message, ok := httpErr.Message.(string)
		if !ok {
			message = http.StatusText(httpErr.Code)
		}
		logger.Warn(ctx, "HTTP error", map[string]interface{}{
			"status_code": httpErr.Code,
			"message":     message,
		})
		return c.JSON(httpErr.Code, ErrorResponse{
			Error:   http.StatusText(httpErr.Code),
			Message: message,
		})
	}

	logger.Error(ctx, "Internal server error", err, map[string]interface{}{
		"path": c.Request().URL.Path,
	})
	return c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_server_error",
		Message: "An unexpected error occurred",
	})
}
