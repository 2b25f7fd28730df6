package handler

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	bridgeapp "payment-bridge/internal/application/bridge"
	"payment-bridge/internal/application/host"
	"payment-bridge/internal/application/nfc"
	"payment-bridge/internal/domain/payment"
	otelinfra "payment-bridge/internal/infrastructure/observability/otel"
	restmiddleware "payment-bridge/internal/presentation/rest/middleware"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/mock"
	"go.opentelemetry.io/otel/trace/noop"
)

func testLogger() *otelinfra.Logger {
	return otelinfra.NewLoggerWithWriter(noop.NewTracerProvider().Tracer("test"), io.Discard)
}

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Use(restmiddleware.ErrorHandlerMiddleware(testLogger()))
	return e
}

func doJSON(t *testing.T, e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}


// MockPaymentBridge PaymentBridgeのモック
type MockPaymentBridge struct {
	mock.Mock
}

func (m *MockPaymentBridge) StartRedirectPayment(ctx context.Context, req *bridgeapp.StartRedirectPaymentRequest) (*bridgeapp.PaymentResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*bridgeapp.PaymentResponse), args.Error(1)
}

func (m *MockPaymentBridge) StartCardPresentPayment(ctx context.Context, req *bridgeapp.StartCardPresentPaymentRequest) (*bridgeapp.PaymentResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*bridgeapp.PaymentResponse), args.Error(1)
}

func (m *MockPaymentBridge) NFCStatus() *bridgeapp.NFCStatusResponse {
	args := m.Called()
	return args.Get(0).(*bridgeapp.NFCStatusResponse)
}

func (m *MockPaymentBridge) OpenNFCSettings(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockHostShell HostShellのモック
type MockHostShell struct {
	mock.Mock
}

func (m *MockHostShell) Attach(ctx context.Context) {
	m.Called(ctx)
}

func (m *MockHostShell) Detach(ctx context.Context) {
	m.Called(ctx)
}

func (m *MockHostShell) Status() host.Status {
	args := m.Called()
	return args.Get(0).(host.Status)
}

func (m *MockHostShell) Navigate(rawURL string) (bool, error) {
	args := m.Called(rawURL)
	return args.Bool(0), args.Error(1)
}

func (m *MockHostShell) Back() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockHostShell) PageError(rawURL, description string) (*payment.TransportError, error) {
	args := m.Called(rawURL, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.TransportError), args.Error(1)
}

func (m *MockHostShell) PageFinished(rawURL string) error {
	args := m.Called(rawURL)
	return args.Error(0)
}

func (m *MockHostShell) TagDetected(tag nfc.Tag) error {
	args := m.Called(tag)
	return args.Error(0)
}

func (m *MockHostShell) CancelNFC() (bool, error) {
	args := m.Called()
	return args.Bool(0), args.Error(1)
}

func (m *MockHostShell) Dismiss(kind payment.Kind) error {
	args := m.Called(kind)
	return args.Error(0)
}

func (m *MockHostShell) SetNFCEnabled(ctx context.Context, enabled bool) {
	m.Called(ctx, enabled)
}
