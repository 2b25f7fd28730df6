package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	authapp "payment-bridge/internal/application/auth"
	"payment-bridge/internal/application/bridge"
	"payment-bridge/internal/application/host"
	"payment-bridge/internal/application/redirect"
	"payment-bridge/internal/domain/card"
	"payment-bridge/internal/infrastructure/config"
	"payment-bridge/internal/infrastructure/gateway"
	otelinfra "payment-bridge/internal/infrastructure/observability/otel"
	restmiddleware "payment-bridge/internal/presentation/rest/middleware"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace/noop"
)

const testAPIKey = "host-test-key"

func testConfig() *config.Config {
	return &config.Config{
		Environment: "test",
		JWT: config.JWTConfig{
			Secret:     "test-secret",
			Expiration: time.Hour,
			Issuer:     "payment-bridge-test",
		},
		HostAPI: config.HostAPIConfig{
			Enabled: true,
			APIKey:  testAPIKey,
		},
	}
}

func setupTestRouter(t *testing.T) (*Router, *host.Shell) {
	t.Helper()

	cfg := testConfig()
	logger := otelinfra.NewLoggerWithWriter(noop.NewTracerProvider().Tracer("test"), io.Discard)
	metrics, err := otelinfra.NewMetricsWithMeter(metricnoop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)

	classifier, err := redirect.NewClassifier(redirect.DefaultRoutes())
	require.NoError(t, err)
	simulator := gateway.NewSimulator(gateway.SimulatorConfig{
		SuccessRate: 0.9,
		Random:      gateway.FixedSource(0.1),
	})

	adapter := host.NewAdapter(true, true)
	shell := host.NewShell(adapter, classifier, card.NewLuhnValidator(), simulator, logger, host.Options{})
	t.Cleanup(func() { shell.Detach(context.Background()) })

	b := bridge.NewPaymentBridge(shell, adapter, shell, logger, metrics)
	authService := authapp.NewAuthApplicationService(&cfg.JWT, logger)

	router, err := NewRouter(cfg, logger, metrics, authService, b, shell)
	require.NoError(t, err)
	return router, shell
}

func serve(router *Router, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.echo.ServeHTTP(rec, req)
	return rec
}

func issueToken(t *testing.T, router *Router) string {
	t.Helper()
	rec := serve(router, http.MethodPost, "/api/v1/auth/token", map[string]string{"device_id": "pos-01"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp["token"].(string)
}

func bearer(token string) map[string]string {
	return map[string]string{echo.HeaderAuthorization: "Bearer " + token}
}

func apiKey() map[string]string {
	return map[string]string{restmiddleware.HeaderAPIKey: testAPIKey}
}

func TestNewRouter(t *testing.T) {
	router, _ := setupTestRouter(t)

	assert.NotNil(t, router)
	assert.NotNil(t, router.Echo())
	assert.NotNil(t, router.authHandler)
	assert.NotNil(t, router.paymentHandler)
	assert.NotNil(t, router.hostHandler)
}

func TestRouter_HealthCheck(t *testing.T) {
	router, _ := setupTestRouter(t)

	rec := serve(router, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}

func TestRouter_SwaggerEndpoints(t *testing.T) {
	router, _ := setupTestRouter(t)

	tests := []struct {
		name string
		path string
	}{
		{name: "Swagger UIエンドポイント", path: "/swagger/index.html"},
		{name: "ReDocエンドポイント", path: "/redoc"},
		{name: "OpenAPI仕様エンドポイント", path: "/openapi.yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(router, http.MethodGet, tt.path, nil, nil)
			assert.Equal(t, http.StatusOK, rec.Code, "path: %s", tt.path)
		})
	}

	rec := serve(router, http.MethodGet, "/openapi.yaml", nil, nil)
	assert.Contains(t, rec.Body.String(), "/payments/card-present")
}

func TestRouter_Authentication(t *testing.T) {
	router, _ := setupTestRouter(t)

	tests := []struct {
		name           string
		method         string
		path           string
		headers        map[string]string
		expectedStatus int
	}{
		{
			name:           "異常系: JWTなしで決済を開始",
			method:         http.MethodPost,
			path:           "/api/v1/payments/card-present",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "異常系: JWTなしでNFC状態を取得",
			method:         http.MethodGet,
			path:           "/api/v1/nfc/status",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "異常系: APIキーなしでホスト操作",
			method:         http.MethodPost,
			path:           "/api/v1/host/attach",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "異常系: 誤ったAPIキー",
			method:         http.MethodGet,
			path:           "/api/v1/host/status",
			headers:        map[string]string{restmiddleware.HeaderAPIKey: "wrong"},
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(router, tt.method, tt.path, nil, tt.headers)
			assert.Equal(t, tt.expectedStatus, rec.Code)
		})
	}
}

func TestRouter_NoHostSurface(t *testing.T) {
	router, _ := setupTestRouter(t)
	token := issueToken(t, router)

	rec := serve(router, http.MethodPost, "/api/v1/payments/redirect",
		map[string]string{"payment_url": "https://pay.example.com/abc"}, bearer(token))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = serve(router, http.MethodGet, "/api/v1/nfc/status", nil, bearer(token))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"supported":true,"enabled":true}`, rec.Body.String())
}

func TestRouter_CardPresentPaymentEndToEnd(t *testing.T) {
	router, shell := setupTestRouter(t)
	token := issueToken(t, router)

	rec := serve(router, http.MethodPost, "/api/v1/host/attach", nil, apiKey())
	require.Equal(t, http.StatusOK, rec.Code)

	done := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		done <- serve(router, http.MethodPost, "/api/v1/payments/card-present", map[string]interface{}{
			"amount":      149.9,
			"card_number": "4532015112830366",
			"expiry_date": "12/27",
			"cvv":         "123",
		}, bearer(token))
	}()

	require.Eventually(t, func() bool {
		return shell.Status().NFCActive
	}, 2*time.Second, 10*time.Millisecond)

	rec = serve(router, http.MethodPost, "/api/v1/host/nfc/tag",
		map[string]interface{}{"tag_id": "04A2", "technologies": []string{"IsoDep"}}, apiKey())
	require.Equal(t, http.StatusAccepted, rec.Code)

	select {
	case rec = <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for payment outcome")
	}
	require.Equal(t, http.StatusOK, rec.Code)

	var outcome map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &outcome))
	assert.Equal(t, "success", outcome["status"])
	assert.Equal(t, "nfc", outcome["payment_method"])
	assert.Equal(t, 149.9, outcome["amount"])
	assert.Regexp(t, `^NFC_`, outcome["transaction_id"])
	assert.NotEmpty(t, outcome["request_id"])
}

func TestRouter_RedirectPaymentEndToEnd(t *testing.T) {
	router, shell := setupTestRouter(t)
	token := issueToken(t, router)

	require.Equal(t, http.StatusOK, serve(router, http.MethodPost, "/api/v1/host/attach", nil, apiKey()).Code)

	done := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		done <- serve(router, http.MethodPost, "/api/v1/payments/redirect",
			map[string]string{"payment_url": "https://pay.example.com/abc"}, bearer(token))
	}()

	require.Eventually(t, func() bool {
		return shell.Status().RedirectActive
	}, 2*time.Second, 10*time.Millisecond)

	rec := serve(router, http.MethodPost, "/api/v1/host/redirect/navigate",
		map[string]string{"url": "https://pay.example.com/3ds"}, apiKey())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"override":false}`, rec.Body.String())

	rec = serve(router, http.MethodPost, "/api/v1/host/redirect/navigate",
		map[string]string{"url": "alo17://payment/failed?error=insufficient_funds"}, apiKey())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"override":true}`, rec.Body.String())

	select {
	case rec = <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for payment outcome")
	}
	require.Equal(t, http.StatusOK, rec.Code)

	var outcome map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &outcome))
	assert.Equal(t, "failed", outcome["status"])
	assert.Equal(t, "redirect-provider", outcome["payment_method"])
	assert.Equal(t, "insufficient_funds", outcome["error"])
}

func TestRouter_RedirectSuccessWithNonFiniteAmount(t *testing.T) {
	tests := []struct {
		name   string
		amount string
	}{
		{name: "正常系: 金額がNaN", amount: "NaN"},
		{name: "正常系: 金額がInf", amount: "Inf"},
		{name: "正常系: 金額が+Inf", amount: "%2BInf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, shell := setupTestRouter(t)
			token := issueToken(t, router)

			require.Equal(t, http.StatusOK, serve(router, http.MethodPost, "/api/v1/host/attach", nil, apiKey()).Code)

			done := make(chan *httptest.ResponseRecorder, 1)
			go func() {
				done <- serve(router, http.MethodPost, "/api/v1/payments/redirect",
					map[string]string{"payment_url": "https://pay.example.com/abc"}, bearer(token))
			}()

			require.Eventually(t, func() bool {
				return shell.Status().RedirectActive
			}, 2*time.Second, 10*time.Millisecond)

			rec := serve(router, http.MethodPost, "/api/v1/host/redirect/navigate",
				map[string]string{"url": "alo17://payment/success?token=abc&amount=" + tt.amount}, apiKey())
			require.Equal(t, http.StatusOK, rec.Code)
			assert.JSONEq(t, `{"override":true}`, rec.Body.String())

			select {
			case rec = <-done:
			case <-time.After(5 * time.Second):
				t.Fatal("timed out waiting for payment outcome")
			}
			require.Equal(t, http.StatusOK, rec.Code)

			var outcome map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &outcome))
			assert.Equal(t, "success", outcome["status"])
			assert.Equal(t, "abc", outcome["token"])
			assert.NotContains(t, outcome, "amount")
		})
	}
}

func TestRouter_DetachCancelsPayment(t *testing.T) {
	router, shell := setupTestRouter(t)
	token := issueToken(t, router)

	require.Equal(t, http.StatusOK, serve(router, http.MethodPost, "/api/v1/host/attach", nil, apiKey()).Code)

	done := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		done <- serve(router, http.MethodPost, "/api/v1/payments/card-present", map[string]interface{}{
			"amount":      10,
			"card_number": "4532015112830366",
			"expiry_date": "12/27",
			"cvv":         "123",
		}, bearer(token))
	}()

	require.Eventually(t, func() bool {
		return shell.Status().NFCActive
	}, 2*time.Second, 10*time.Millisecond)

	require.Equal(t, http.StatusOK, serve(router, http.MethodPost, "/api/v1/host/detach", nil, apiKey()).Code)

	var rec *httptest.ResponseRecorder
	select {
	case rec = <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for payment outcome")
	}
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"cancelled"`)
}

func TestRouter_StartShutdown(t *testing.T) {
	router, _ := setupTestRouter(t)

	go func() {
		_ = router.Start("127.0.0.1:0")
	}()
	time.Sleep(100 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, router.Shutdown(ctx))
}
