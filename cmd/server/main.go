package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	authapp "payment-bridge/internal/application/auth"
	"payment-bridge/internal/application/bridge"
	"payment-bridge/internal/application/host"
	"payment-bridge/internal/application/redirect"
	"payment-bridge/internal/domain/card"
	"payment-bridge/internal/infrastructure/config"
	"payment-bridge/internal/infrastructure/gateway"
	otelinfra "payment-bridge/internal/infrastructure/observability/otel"
	grpcserver "payment-bridge/internal/presentation/grpc"
	"payment-bridge/internal/presentation/rest"
)

func main() {
	// 設定の読み込み
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// OpenTelemetryの初期化
	tracerShutdown, err := otelinfra.InitTracer(&cfg.OpenTelemetry)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerShutdown(ctx); err != nil {
			log.Printf("Failed to shutdown tracer: %v", err)
		}
	}()

	meterShutdown, err := otelinfra.InitMeter(&cfg.OpenTelemetry)
	if err != nil {
		log.Fatalf("Failed to initialize meter: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := meterShutdown(ctx); err != nil {
			log.Printf("Failed to shutdown meter: %v", err)
		}
	}()

	// ロガーとメトリクスの初期化
	logger := otelinfra.NewLogger(otelinfra.Tracer("payment-bridge"))
	metrics, err := otelinfra.NewMetrics("payment-bridge")
	if err != nil {
		log.Fatalf("Failed to create metrics: %v", err)
	}

	// ディープリンク判定テーブル
	classifier, err := redirect.NewClassifier(redirect.Routes{
		Scheme:        cfg.DeepLink.Scheme,
		Host:          cfg.DeepLink.Host,
		SuccessPath:   cfg.DeepLink.SuccessPath,
		FailedPath:    cfg.DeepLink.FailedPath,
		CancelledPath: cfg.DeepLink.CancelledPath,
		ErrorMessages: cfg.DeepLink.ErrorMessages,
	})
	if err != nil {
		log.Fatalf("Failed to create deep-link classifier: %v", err)
	}

	// 決済シミュレーター
	simulator := gateway.NewSimulator(gateway.SimulatorConfig{
		Delay:       cfg.NFC.ProcessingDelay,
		SuccessRate: cfg.NFC.SuccessRate,
		Random:      gateway.NewRandomSource(),
	})

	// ホストシェルとブリッジ
	adapter := host.NewAdapter(cfg.NFC.Supported, cfg.NFC.Enabled)
	shell := host.NewShell(adapter, classifier, card.NewLuhnValidator(), simulator, logger, host.Options{
		ReadDelay: cfg.NFC.ReadDelay,
	})
	paymentBridge := bridge.NewPaymentBridge(shell, adapter, shell, logger, metrics)

	authService := authapp.NewAuthApplicationService(&cfg.JWT, logger)

	// REST APIルーターの初期化
	router, err := rest.NewRouter(cfg, logger, metrics, authService, paymentBridge, shell)
	if err != nil {
		log.Fatalf("Failed to create router: %v", err)
	}

	// gRPCサーバーの初期化
	grpcSrv, err := grpcserver.NewServer(cfg, logger, paymentBridge)
	if err != nil {
		log.Fatalf("Failed to create gRPC server: %v", err)
	}

	address := fmt.Sprintf(":%d", cfg.Server.Port)

	// グレースフルシャットダウンの設定
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info(context.Background(), "REST API server starting", map[string]interface{}{
			"address": address,
		})
		if err := router.Start(address); err != nil {
			logger.Warn(context.Background(), "REST API server stopped", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	go func() {
		if err := grpcSrv.Start(); err != nil {
			logger.Error(context.Background(), "gRPC server error", err, nil)
		}
	}()

	<-quit
	logger.Info(context.Background(), "Shutting down servers", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// 待機中の決済をキャンセルで確定させてからサーバーを止める
	shell.Detach(shutdownCtx)

	if err := router.Shutdown(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "Error shutting down REST API server", err, nil)
	}

	if err := grpcSrv.Stop(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "Error shutting down gRPC server", err, nil)
	}

	logger.Info(context.Background(), "Servers stopped", nil)
}
