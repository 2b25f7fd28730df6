package rest

import (
	"context"
	"net/http"

	authapp "payment-bridge/internal/application/auth"
	"payment-bridge/internal/infrastructure/config"
	otelinfra "payment-bridge/internal/infrastructure/observability/otel"
	"payment-bridge/internal/presentation/rest/handler"
	restmiddleware "payment-bridge/internal/presentation/rest/middleware"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Router REST APIルーター
type Router struct {
	echo           *echo.Echo
	cfg            *config.Config
	authHandler    *handler.AuthHandler
	paymentHandler *handler.PaymentHandler
	hostHandler    *handler.HostHandler
}

// NewRouter 新しいRouterを作成
func NewRouter(
	cfg *config.Config,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
	authService *authapp.AuthApplicationService,
	bridge handler.PaymentBridge,
	shell handler.HostShell,
) (*Router, error) {
	e := echo.New()
	e.HideBanner = true

	// Echoのデフォルトエラーハンドラーを無効化（カスタムエラーハンドラーを使用）
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		// エラーハンドリングミドルウェアで処理される
	}

	setupMiddleware(e, logger, metrics)

	r := &Router{
		echo:           e,
		cfg:            cfg,
		authHandler:    handler.NewAuthHandler(authService),
		paymentHandler: handler.NewPaymentHandler(bridge),
		hostHandler:    handler.NewHostHandler(shell),
	}
	r.setupRoutes(logger)

	// Swagger UI / ReDoc統合
	SetupSwagger(e)

	return r, nil
}

// setupMiddleware ミドルウェアを設定
func setupMiddleware(e *echo.Echo, logger *otelinfra.Logger, metrics *otelinfra.Metrics) {
	e.Use(middleware.Recover())

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"}, // 本番環境では適切に設定
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
			restmiddleware.HeaderAPIKey,
		},
	}))

	e.Use(middleware.RequestID())
	e.Use(restmiddleware.TracingMiddleware())
	if metrics != nil {
		e.Use(restmiddleware.MetricsMiddleware(metrics))
	}
	e.Use(restmiddleware.LoggingMiddleware(logger))
	e.Use(restmiddleware.SecurityHeadersMiddleware())
	e.Use(restmiddleware.ErrorHandlerMiddleware(logger))
}

// setupRoutes ルーティングを設定
func (r *Router) setupRoutes(logger *otelinfra.Logger) {
	api := r.echo.Group("/api/v1")

	// 認証不要
	api.POST("/auth/token", r.authHandler.GenerateToken)

	// アプリ向け（JWT）
	app := api.Group("", restmiddleware.AuthMiddleware(&r.cfg.JWT, logger))
	app.POST("/payments/redirect", r.paymentHandler.StartRedirectPayment)
	app.POST("/payments/card-present", r.paymentHandler.StartCardPresentPayment)
	app.GET("/nfc/status", r.paymentHandler.GetNFCStatus)
	app.POST("/nfc/settings", r.paymentHandler.OpenNFCSettings)

	// ホストシェル向け（APIキー）
	if r.cfg.HostAPI.Enabled {
		hostGroup := api.Group("/host", restmiddleware.APIKeyMiddleware(&r.cfg.HostAPI, logger))
		hostGroup.POST("/attach", r.hostHandler.Attach)
		hostGroup.POST("/detach", r.hostHandler.Detach)
		hostGroup.GET("/status", r.hostHandler.GetStatus)
		hostGroup.POST("/redirect/navigate", r.hostHandler.Navigate)
		hostGroup.POST("/redirect/back", r.hostHandler.Back)
		hostGroup.POST("/redirect/page-error", r.hostHandler.PageError)
		hostGroup.POST("/redirect/page-finished", r.hostHandler.PageFinished)
		hostGroup.POST("/nfc/tag", r.hostHandler.TagDetected)
		hostGroup.POST("/nfc/cancel", r.hostHandler.CancelNFC)
		hostGroup.PUT("/nfc/adapter", r.hostHandler.SetNFCAdapter)
		hostGroup.POST("/dismiss", r.hostHandler.Dismiss)
	}

	r.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
}

// Echo 内部のEchoインスタンス
func (r *Router) Echo() *echo.Echo {
	return r.echo
}

// Start サーバーを起動
func (r *Router) Start(address string) error {
	r.echo.Server.ReadTimeout = r.cfg.Server.ReadTimeout
	r.echo.Server.IdleTimeout = r.cfg.Server.IdleTimeout
	r.echo.Server.WriteTimeout = r.cfg.Server.WriteTimeout // 0は無制限
	return r.echo.Start(address)
}

// Shutdown サーバーをシャットダウン
func (r *Router) Shutdown(ctx context.Context) error {
	return r.echo.Shutdown(ctx)
}
