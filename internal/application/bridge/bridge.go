package bridge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"payment-bridge/internal/domain/payment"
	otelinfra "payment-bridge/internal/infrastructure/observability/otel"
)

// ResolveFunc フローの終端結果を届けるコールバック
type ResolveFunc func(*payment.Outcome)

// Presentation ホスト上に表示中のフロー
type Presentation interface {
	// Dismiss 画面を閉じる。未確定であればキャンセルで確定する
	Dismiss()
}

// Host 決済フローを表示するUIホスト
type Host interface {
	PresentRedirect(ctx context.Context, req *payment.RedirectRequest, resolve ResolveFunc) (Presentation, error)
	PresentCardPresent(ctx context.Context, req *payment.CardPresentRequest, resolve ResolveFunc) (Presentation, error)
}

// HostProvider 現在利用可能なホストを返す
type HostProvider interface {
	CurrentHost() (Host, bool)
}

// NFCAdapter 端末のNFC機能
type NFCAdapter interface {
	IsSupported() bool
	IsEnabled() bool
}

// SettingsNavigator OSのNFC設定画面を開く
type SettingsNavigator interface {
	OpenNFCSettings(ctx context.Context) error
}

// PaymentBridge 決済フローを呼び出し元へ公開するブリッジ
type PaymentBridge struct {
	hosts    HostProvider
	adapter  NFCAdapter
	settings SettingsNavigator
	pending  *registry
	logger   *otelinfra.Logger
	metrics  *otelinfra.Metrics
	tracer   trace.Tracer
}

// NewPaymentBridge 新しいPaymentBridgeを作成
func NewPaymentBridge(
	hosts HostProvider,
	adapter NFCAdapter,
	settings SettingsNavigator,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
) *PaymentBridge {
	return &PaymentBridge{
		hosts:    hosts,
		adapter:  adapter,
		settings: settings,
		pending:  newRegistry(),
		logger:   logger.Named("payment-bridge"),
		metrics:  metrics,
		tracer:   otel.Tracer("payment-bridge"),
	}
}

// StartRedirectPayment リダイレクト型決済を開始し、終端結果まで待つ
func (b *PaymentBridge) StartRedirectPayment(ctx context.Context, req *StartRedirectPaymentRequest) (*PaymentResponse, error) {
	ctx, span := b.tracer.Start(ctx, "PaymentBridge.StartRedirectPayment")
	defer span.End()

	host, err := b.currentHost(ctx, span, payment.KindRedirect)
	if err != nil {
		return nil, err
	}

	request, err := payment.NewRedirectRequest(req.PaymentURL, req.SuccessURL, req.FailURL, req.CancelURL)
	if err != nil {
		return nil, b.reject(ctx, span, payment.KindRedirect, err)
	}

	return b.run(ctx, span, payment.KindRedirect, payment.MethodRedirectProvider, func(resolve ResolveFunc) (Presentation, error) {
		return host.PresentRedirect(ctx, request, resolve)
	})
}

// StartCardPresentPayment NFCカード決済を開始し、終端結果まで待つ
func (b *PaymentBridge) StartCardPresentPayment(ctx context.Context, req *StartCardPresentPaymentRequest) (*PaymentResponse, error) {
	ctx, span := b.tracer.Start(ctx, "PaymentBridge.StartCardPresentPayment")
	defer span.End()

	span.SetAttributes(attribute.Float64("amount", req.Amount))

	host, err := b.currentHost(ctx, span, payment.KindCardPresent)
	if err != nil {
		return nil, err
	}

	request, err := payment.NewCardPresentRequest(req.Amount, req.CardNumber, req.ExpiryDate, req.CVV)
	if err != nil {
		return nil, b.reject(ctx, span, payment.KindCardPresent, err)
	}

	return b.run(ctx, span, payment.KindCardPresent, payment.MethodNFC, func(resolve ResolveFunc) (Presentation, error) {
		return host.PresentCardPresent(ctx, request, resolve)
	})
}

// IsNFCSupported NFCハードウェアがあるかどうか
func (b *PaymentBridge) IsNFCSupported() bool {
	return b.adapter != nil && b.adapter.IsSupported()
}

// IsNFCEnabled NFCが有効かどうか（非対応端末では常にfalse）
func (b *PaymentBridge) IsNFCEnabled() bool {
	return b.IsNFCSupported() && b.adapter.IsEnabled()
}

// NFCStatus NFCの対応状況と有効状態
func (b *PaymentBridge) NFCStatus() *NFCStatusResponse {
	return &NFCStatusResponse{
		Supported: b.IsNFCSupported(),
		Enabled:   b.IsNFCEnabled(),
	}
}

// OpenNFCSettings NFC設定画面を開く
// 画面遷移そのものの成否のみを返す
func (b *PaymentBridge) OpenNFCSettings(ctx context.Context) error {
	ctx, span := b.tracer.Start(ctx, "PaymentBridge.OpenNFCSettings")
	defer span.End()

	if _, ok := b.hosts.CurrentHost(); !ok {
		err := payment.ErrNoHostSurface
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		b.logger.Warn(ctx, "Cannot open NFC settings without a host", nil)
		return err
	}

	if err := b.settings.OpenNFCSettings(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		b.logger.Error(ctx, "Failed to open NFC settings", err, nil)
		return fmt.Errorf("failed to open NFC settings: %w", err)
	}

	b.logger.Info(ctx, "Opened NFC settings", nil)
	return nil
}

// InProgress 指定した種類の決済が進行中であればそのリクエストIDを返す
func (b *PaymentBridge) InProgress(kind payment.Kind) (string, bool) {
	return b.pending.inProgress(kind)
}

func (b *PaymentBridge) currentHost(ctx context.Context, span trace.Span, kind payment.Kind) (Host, error) {
	host, ok := b.hosts.CurrentHost()
	if !ok {
		return nil, b.reject(ctx, span, kind, payment.ErrNoHostSurface)
	}
	return host, nil
}

func (b *PaymentBridge) reject(ctx context.Context, span trace.Span, kind payment.Kind, err error) error {
	span.RecordError(err)
	span.SetStatus(otelcodes.Error, err.Error())

	reason := "invalid_request"
	switch {
	case errors.Is(err, payment.ErrNoHostSurface):
		reason = "no_host_surface"
	case errors.Is(err, payment.ErrAlreadyInProgress):
		reason = "already_in_progress"
	}
	b.metrics.RecordRejected(ctx, kind.String(), reason)
	b.logger.Warn(ctx, "Payment request rejected", map[string]interface{}{
		"kind":   kind.String(),
		"reason": reason,
		"error":  err.Error(),
	})
	return err
}

// run 進行中リクエストとして登録し、フローを表示して結果を待つ
func (b *PaymentBridge) run(
	ctx context.Context,
	span trace.Span,
	kind payment.Kind,
	method payment.Method,
	present func(resolve ResolveFunc) (Presentation, error),
) (*PaymentResponse, error) {
	pending, err := b.pending.register(kind)
	if err != nil {
		return nil, b.reject(ctx, span, kind, err)
	}
	defer b.pending.release(pending.id)

	span.SetAttributes(
		attribute.String("request_id", pending.id),
		attribute.String("payment_method", method.String()),
	)

	startedAt := time.Now()
	presentation, err := present(func(outcome *payment.Outcome) {
		if !b.pending.resolve(pending.id, outcome) {
			b.logger.Debug(context.Background(), "Dropping outcome for released request", map[string]interface{}{
				"request_id": pending.id,
			})
		}
	})
	if err != nil {
		return nil, b.reject(ctx, span, kind, err)
	}

	b.metrics.RecordFlowStarted(ctx, method.String())
	b.logger.Info(ctx, "Payment flow launched", map[string]interface{}{
		"request_id":     pending.id,
		"payment_method": method.String(),
	})

	select {
	case outcome := <-pending.results:
		b.metrics.RecordOutcome(ctx, method.String(), outcome.Status().String(), time.Since(startedAt).Seconds())
		span.SetAttributes(attribute.String("status", outcome.Status().String()))
		fields := map[string]interface{}{
			"request_id":     pending.id,
			"payment_method": method.String(),
			"status":         outcome.Status().String(),
		}
		if err := outcome.Err(); err != nil {
			span.RecordError(err)
			fields["error"] = err.Error()
		}
		b.logger.Info(ctx, "Payment flow resolved", fields)
		return &PaymentResponse{RequestID: pending.id, Outcome: outcome}, nil

	case <-ctx.Done():
		presentation.Dismiss()
		err := ctx.Err()
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		b.logger.Warn(ctx, "Caller abandoned payment flow", map[string]interface{}{
			"request_id":     pending.id,
			"payment_method": method.String(),
			"error":          err.Error(),
		})
		return nil, err
	}
}
