package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payment-bridge/internal/infrastructure/config"
)

func TestAPIKeyMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		cfg        config.HostAPIConfig
		apiKey     string
		remoteIP   string
		wantStatus int
	}{
		{
			name:       "正常系: 有効なAPIキー",
			cfg:        config.HostAPIConfig{Enabled: true, APIKey: "host-key"},
			apiKey:     "host-key",
			wantStatus: http.StatusOK,
		},
		{
			name:       "正常系: CIDRで許可されたIP",
			cfg:        config.HostAPIConfig{Enabled: true, APIKey: "host-key", AllowedIPs: []string{"10.0.0.0/8"}},
			apiKey:     "host-key",
			remoteIP:   "10.1.2.3",
			wantStatus: http.StatusOK,
		},
		{
			name:       "正常系: 単一IPで許可",
			cfg:        config.HostAPIConfig{Enabled: true, APIKey: "host-key", AllowedIPs: []string{"192.168.1.10"}},
			apiKey:     "host-key",
			remoteIP:   "192.168.1.10",
			wantStatus: http.StatusOK,
		},
		{
			name:       "異常系: 無効化されている",
			cfg:        config.HostAPIConfig{Enabled: false, APIKey: "host-key"},
			apiKey:     "host-key",
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "異常系: APIキーなし",
			cfg:        config.HostAPIConfig{Enabled: true, APIKey: "host-key"},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "異常系: APIキー不一致",
			cfg:        config.HostAPIConfig{Enabled: true, APIKey: "host-key"},
			apiKey:     "wrong",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "異常系: 許可されていないIP（前方一致では通さない）",
			cfg:        config.HostAPIConfig{Enabled: true, APIKey: "host-key", AllowedIPs: []string{"10.0.0.0/24"}},
			apiKey:     "host-key",
			remoteIP:   "10.0.0.100.evil",
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "異常系: 範囲外のIP",
			cfg:        config.HostAPIConfig{Enabled: true, APIKey: "host-key", AllowedIPs: []string{"10.0.0.0/24"}},
			apiKey:     "host-key",
			remoteIP:   "10.0.1.1",
			wantStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/host/attach", nil)
			if tt.apiKey != "" {
				req.Header.Set(HeaderAPIKey, tt.apiKey)
			}
			if tt.remoteIP != "" {
				req.Header.Set(echo.HeaderXRealIP, tt.remoteIP)
			}
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			cfg := tt.cfg
			h := APIKeyMiddleware(&cfg, testLogger())(func(c echo.Context) error {
				return c.NoContent(http.StatusOK)
			})

			require.NoError(t, h(c))
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestParseAllowList(t *testing.T) {
	prefixes := parseAllowList([]string{"10.0.0.0/8", " 192.168.1.10 ", "not-an-ip", "::1", "bad/33"})
	require.Len(t, prefixes, 3)

	assert.True(t, isIPAllowed("10.200.0.1", prefixes))
	assert.True(t, isIPAllowed("192.168.1.10", prefixes))
	assert.True(t, isIPAllowed("::1", prefixes))
	assert.True(t, isIPAllowed("::ffff:10.0.0.1", prefixes))
	assert.False(t, isIPAllowed("192.168.1.11", prefixes))
	assert.False(t, isIPAllowed("", prefixes))
}
