package middleware

import (
	"io"

	"go.opentelemetry.io/otel/trace/noop"

	otelinfra "payment-bridge/internal/infrastructure/observability/otel"
)

func testLogger() *otelinfra.Logger {
	return otelinfra.NewLoggerWithWriter(noop.NewTracerProvider().Tracer("test"), io.Discard)
}
