package redirect

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"payment-bridge/internal/domain/payment"
	otelinfra "payment-bridge/internal/infrastructure/observability/otel"
)

// MockBrowser Browserのモック
type MockBrowser struct {
	mock.Mock
}

func (m *MockBrowser) Configure(settings BrowserSettings) {
	m.Called(settings)
}

func (m *MockBrowser) Load(url string) error {
	args := m.Called(url)
	return args.Error(0)
}

func (m *MockBrowser) CanGoBack() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockBrowser) GoBack() {
	m.Called()
}

const paymentURL = "https://provider.example/pay?merchant=1"

func newTestSession(t *testing.T, browser Browser) (*Session, *[]*payment.Outcome) {
	t.Helper()

	req, err := payment.NewRedirectRequest(paymentURL, "app://payment/success", "app://payment/failed", "app://payment/cancelled")
	require.NoError(t, err)
	classifier, err := NewClassifier(appRoutes())
	require.NoError(t, err)

	outcomes := &[]*payment.Outcome{}
	logger := otelinfra.NewLoggerWithWriter(noop.NewTracerProvider().Tracer("test"), io.Discard)
	session := NewSession(req, classifier, browser, logger, func(o *payment.Outcome) {
		*outcomes = append(*outcomes, o)
	})
	return session, outcomes
}

func TestSession_Start(t *testing.T) {
	tests := []struct {
		name      string
		loadErr   error
		wantError bool
	}{
		{name: "正常系: 決済ページを読み込む"},
		{name: "異常系: 読み込み失敗は通知のみ", loadErr: errors.New("net::ERR_NAME_NOT_RESOLVED"), wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			browser := new(MockBrowser)
			browser.On("Configure", DefaultBrowserSettings()).Once()
			browser.On("Load", paymentURL).Return(tt.loadErr).Once()

			session, outcomes := newTestSession(t, browser)
			transportErr := session.Start()

			if tt.wantError {
				require.NotNil(t, transportErr)
				assert.Equal(t, paymentURL, transportErr.URL)
				assert.Len(t, session.PageErrors(), 1)
			} else {
				assert.Nil(t, transportErr)
			}
			assert.Empty(t, *outcomes)
			assert.False(t, session.IsTerminal())
			browser.AssertExpectations(t)
		})
	}
}

func TestSession_ShouldOverrideURLLoading(t *testing.T) {
	browser := new(MockBrowser)
	session, outcomes := newTestSession(t, browser)

	assert.False(t, session.ShouldOverrideURLLoading("https://provider.example/3ds"))
	assert.False(t, session.ShouldOverrideURLLoading("https://provider.example/return?next=app://payment/success?token=x"))
	assert.Empty(t, *outcomes)

	assert.True(t, session.ShouldOverrideURLLoading("app://payment/success?token=abc&amount=10.00"))
	require.Len(t, *outcomes, 1)
	outcome := (*outcomes)[0]
	assert.Equal(t, payment.StatusSuccess, outcome.Status())
	assert.Equal(t, "abc", outcome.Token())
	amount, ok := outcome.Amount()
	assert.True(t, ok)
	assert.Equal(t, 10.00, amount)
	assert.Equal(t, payment.MethodRedirectProvider, outcome.Method())

	// 終端後の遷移でも結果は一度だけ
	assert.True(t, session.ShouldOverrideURLLoading("app://payment/cancelled"))
	assert.Len(t, *outcomes, 1)

	// 終端URLはブラウザに読み込ませない
	browser.AssertNotCalled(t, "Load", mock.Anything)
}

func TestSession_OnBackPressed(t *testing.T) {
	tests := []struct {
		name       string
		canGoBack  bool
		wantStatus *payment.Status
	}{
		{name: "正常系: 履歴があれば戻る", canGoBack: true},
		{name: "正常系: 履歴がなければキャンセル", canGoBack: false, wantStatus: func() *payment.Status { s := payment.StatusCancelled; return &s }()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			browser := new(MockBrowser)
			browser.On("CanGoBack").Return(tt.canGoBack).Once()
			if tt.canGoBack {
				browser.On("GoBack").Once()
			}

			session, outcomes := newTestSession(t, browser)
			session.OnBackPressed()

			if tt.wantStatus == nil {
				assert.Empty(t, *outcomes)
				assert.False(t, session.IsTerminal())
			} else {
				require.Len(t, *outcomes, 1)
				assert.Equal(t, *tt.wantStatus, (*outcomes)[0].Status())
				assert.Equal(t, payment.MethodRedirectProvider, (*outcomes)[0].Method())
			}
			browser.AssertExpectations(t)
		})
	}
}

func TestSession_PageErrorIsAdvisory(t *testing.T) {
	session, outcomes := newTestSession(t, new(MockBrowser))

	transportErr := session.OnPageError(paymentURL, "net::ERR_CONNECTION_RESET")
	require.NotNil(t, transportErr)
	assert.Contains(t, transportErr.Error(), "ERR_CONNECTION_RESET")
	session.OnPageFinished(paymentURL)

	assert.Empty(t, *outcomes)
	assert.False(t, session.IsTerminal())
	assert.Nil(t, session.Outcome())

	// その後の失敗コールバックで確定する
	assert.True(t, session.ShouldOverrideURLLoading("app://payment/failed?error=declined"))
	require.Len(t, *outcomes, 1)
	assert.Equal(t, "declined", session.Outcome().Error())
}

func TestSession_Dismiss(t *testing.T) {
	session, outcomes := newTestSession(t, new(MockBrowser))

	session.Dismiss()
	session.Dismiss()

	require.Len(t, *outcomes, 1)
	assert.Equal(t, payment.StatusCancelled, (*outcomes)[0].Status())
}

func TestDefaultBrowserSettings(t *testing.T) {
	settings := DefaultBrowserSettings()
	assert.True(t, settings.JavaScriptEnabled)
	assert.True(t, settings.DOMStorageEnabled)
	assert.True(t, settings.LoadWithOverviewMode)
	assert.True(t, settings.UseWideViewPort)
	assert.True(t, settings.SupportZoom)
	assert.True(t, settings.BuiltInZoomControls)
	assert.False(t, settings.DisplayZoomControls)
	assert.Equal(t, "utf-8", settings.DefaultTextEncoding)
}
