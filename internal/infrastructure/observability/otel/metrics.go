package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics メトリクス定義
type Metrics struct {
	// 開始された決済フロー数
	FlowsStarted metric.Int64Counter

	// 決済結果数（method, status別）
	Outcomes metric.Int64Counter

	// フロー開始から終端結果までの時間
	FlowDuration metric.Float64Histogram

	// 受付を拒否された決済リクエスト数
	RejectedRequests metric.Int64Counter

	// リクエスト数
	RequestCount metric.Int64Counter

	// レスポンス時間
	ResponseTime metric.Float64Histogram

	// エラー率
	ErrorCount metric.Int64Counter
}

// NewMetrics 新しいMetricsを作成
func NewMetrics(meterName string) (*Metrics, error) {
	return NewMetricsWithMeter(otel.Meter(meterName))
}

// NewMetricsWithMeter メーターを指定してMetricsを作成
func NewMetricsWithMeter(meter metric.Meter) (*Metrics, error) {
	flowsStarted, err := meter.Int64Counter(
		"payment_flows_started_total",
		metric.WithDescription("Total number of payment flows launched"),
	)
	if err != nil {
		return nil, err
	}

	outcomes, err := meter.Int64Counter(
		"payment_outcomes_total",
		metric.WithDescription("Total number of terminal payment outcomes"),
	)
	if err != nil {
		return nil, err
	}

	flowDuration, err := meter.Float64Histogram(
		"payment_flow_duration_seconds",
		metric.WithDescription("Time from flow launch to terminal outcome"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	rejected, err := meter.Int64Counter(
		"payment_requests_rejected_total",
		metric.WithDescription("Total number of payment requests rejected before launch"),
	)
	if err != nil {
		return nil, err
	}

	requestCount, err := meter.Int64Counter(
		"requests_total",
		metric.WithDescription("Total number of requests"),
	)
	if err != nil {
		return nil, err
	}

	responseTime, err := meter.Float64Histogram(
		"response_time_seconds",
		metric.WithDescription("Response time in seconds"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"errors_total",
		metric.WithDescription("Total number of errors"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		FlowsStarted:     flowsStarted,
		Outcomes:         outcomes,
		FlowDuration:     flowDuration,
		RejectedRequests: rejected,
		RequestCount:     requestCount,
		ResponseTime:     responseTime,
		ErrorCount:       errorCount,
	}, nil
}

// RecordFlowStarted フロー開始を記録
func (m *Metrics) RecordFlowStarted(ctx context.Context, method string) {
	m.FlowsStarted.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("payment_method", method),
		),
	)
}

// RecordOutcome 決済結果と所要時間を記録
func (m *Metrics) RecordOutcome(ctx context.Context, method, status string, seconds float64) {
	attrs := metric.WithAttributes(
		attribute.String("payment_method", method),
		attribute.String("status", status),
	)
	m.Outcomes.Add(ctx, 1, attrs)
	m.FlowDuration.Record(ctx, seconds, attrs)
}

// RecordRejected 受付拒否を記録
func (m *Metrics) RecordRejected(ctx context.Context, kind, reason string) {
	m.RejectedRequests.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("kind", kind),
			attribute.String("reason", reason),
		),
	)
}

// RecordRequest リクエストを記録
func (m *Metrics) RecordRequest(ctx context.Context, method, path string) {
	m.RequestCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("method", method),
			attribute.String("path", path),
		),
	)
}

// RecordResponseTime レスポンス時間を記録
func (m *Metrics) RecordResponseTime(ctx context.Context, method, path string, duration float64) {
	m.ResponseTime.Record(ctx, duration,
		metric.WithAttributes(
			attribute.String("method", method),
			attribute.String("path", path),
		),
	)
}

// RecordError エラーを記録
func (m *Metrics) RecordError(ctx context.Context, errorType string) {
	m.ErrorCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("error_type", errorType),
		),
	)
}
