package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config アプリケーション全体の設定
type Config struct {
	Server        ServerConfig
	GRPC          GRPCConfig
	JWT           JWTConfig
	OpenTelemetry OpenTelemetryConfig
	DeepLink      DeepLinkConfig
	NFC           NFCConfig
	HostAPI       HostAPIConfig
	Environment   string
}

// ServerConfig サーバー設定
type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// GRPCConfig gRPCサーバー設定
type GRPCConfig struct {
	Port int
}

// JWTConfig JWT設定
type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

// OpenTelemetryConfig OpenTelemetry設定
type OpenTelemetryConfig struct {
	Enabled         bool
	ServiceName     string
	ServiceVersion  string
	OTLPEndpoint    string
	OTLPInsecure    bool
	TraceExporter   string // "otlp", "stdout"
	MetricsExporter string // "otlp", "stdout"
}

// DeepLinkConfig 決済プロバイダーのコールバックディープリンク設定
type DeepLinkConfig struct {
	Scheme        string
	Host          string
	SuccessPath   string
	FailedPath    string
	CancelledPath string
	// ErrorMessages 失敗コールバックのエラーコード表（DEEPLINK_ERROR_MESSAGES="1=...;2=..."）
	ErrorMessages map[string]string
}

// NFCConfig NFC決済設定
type NFCConfig struct {
	Supported       bool
	Enabled         bool
	ReadDelay       time.Duration
	ProcessingDelay time.Duration
	SuccessRate     float64
}

// HostAPIConfig ホストシェル向けAPI設定
type HostAPIConfig struct {
	Enabled    bool
	APIKey     string
	AllowedIPs []string
}

// Load 設定を読み込む
func Load() (*Config, error) {
	// .envファイルを読み込む（存在しない場合は無視）
	_ = godotenv.Load()

	env := getEnv("ENVIRONMENT", "development")
	serverPort := getEnvAsInt("SERVER_PORT", 8080)

	cfg := &Config{
		Environment: env,
		Server: ServerConfig{
			Port:         serverPort,
			ReadTimeout:  getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getEnvAsDuration("SERVER_WRITE_TIMEOUT", 0),
			IdleTimeout:  getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		GRPC: GRPCConfig{
			Port: getEnvAsInt("GRPC_PORT", serverPort+1),
		},
		JWT: JWTConfig{
			Secret:     getEnv("JWT_SECRET", ""),
			Expiration: getEnvAsDuration("JWT_EXPIRATION", 24*time.Hour),
			Issuer:     getEnv("JWT_ISSUER", "payment-bridge"),
		},
		OpenTelemetry: OpenTelemetryConfig{
			Enabled:         getEnvAsBool("OTEL_ENABLED", false),
			ServiceName:     getEnv("OTEL_SERVICE_NAME", "payment-bridge"),
			ServiceVersion:  getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			OTLPEndpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			OTLPInsecure:    getEnvAsBool("OTEL_EXPORTER_OTLP_INSECURE", true),
			TraceExporter:   getEnv("OTEL_TRACES_EXPORTER", "otlp"),
			MetricsExporter: getEnv("OTEL_METRICS_EXPORTER", "otlp"),
		},
		DeepLink: DeepLinkConfig{
			Scheme:        getEnv("DEEPLINK_SCHEME", "alo17"),
			Host:          getEnv("DEEPLINK_HOST", "payment"),
			SuccessPath:   getEnv("DEEPLINK_SUCCESS_PATH", "/success"),
			FailedPath:    getEnv("DEEPLINK_FAILED_PATH", "/failed"),
			CancelledPath: getEnv("DEEPLINK_CANCELLED_PATH", "/cancelled"),
			ErrorMessages: getEnvAsMap("DEEPLINK_ERROR_MESSAGES", nil),
		},
		NFC: NFCConfig{
			Supported:       getEnvAsBool("NFC_SUPPORTED", true),
			Enabled:         getEnvAsBool("NFC_ENABLED", true),
			ReadDelay:       getEnvAsDuration("NFC_READ_DELAY", 2*time.Second),
			ProcessingDelay: getEnvAsDuration("NFC_PROCESSING_DELAY", 1500*time.Millisecond),
			SuccessRate:     getEnvAsFloat("NFC_SUCCESS_RATE", 0.9),
		},
		HostAPI: HostAPIConfig{
			Enabled:    getEnvAsBool("HOST_API_ENABLED", true),
			APIKey:     getEnv("HOST_API_KEY", ""),
			AllowedIPs: getEnvAsSlice("HOST_API_ALLOWED_IPS", nil),
		},
	}

	// 必須設定の検証
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate 設定の検証
func (c *Config) validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.DeepLink.Scheme == "" {
		return fmt.Errorf("DEEPLINK_SCHEME is required")
	}
	if c.DeepLink.Host == "" {
		return fmt.Errorf("DEEPLINK_HOST is required")
	}
	if c.NFC.SuccessRate < 0 || c.NFC.SuccessRate > 1 {
		return fmt.Errorf("NFC_SUCCESS_RATE must be between 0 and 1, got %v", c.NFC.SuccessRate)
	}
	if c.HostAPI.Enabled && c.HostAPI.APIKey == "" {
		return fmt.Errorf("HOST_API_KEY is required when HOST_API_ENABLED is true")
	}
	if c.GRPC.Port == c.Server.Port {
		return fmt.Errorf("GRPC_PORT must differ from SERVER_PORT")
	}
	return nil
}

// SuccessURL 成功コールバックURLを返す
func (c *DeepLinkConfig) SuccessURL() string {
	return c.Scheme + "://" + c.Host + c.SuccessPath
}

// FailedURL 失敗コールバックURLを返す
func (c *DeepLinkConfig) FailedURL() string {
	return c.Scheme + "://" + c.Host + c.FailedPath
}

// CancelledURL キャンセルコールバックURLを返す
func (c *DeepLinkConfig) CancelledURL() string {
	return c.Scheme + "://" + c.Host + c.CancelledPath
}

// getEnv 環境変数を取得（デフォルト値付き）
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt 環境変数を整数として取得
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsFloat 環境変数を浮動小数点数として取得
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsBool 環境変数を真偽値として取得
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsSlice 環境変数をカンマ区切りのスライスとして取得
func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var values []string
	for _, v := range strings.Split(valueStr, ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return values
}

// getEnvAsMap 環境変数を "key=value;key=value" 形式のマップとして取得
func getEnvAsMap(key string, defaultValue map[string]string) map[string]string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	values := make(map[string]string)
	for _, pair := range strings.Split(valueStr, ";") {
		k, v, ok := strings.Cut(pair, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			continue
		}
		values[k] = strings.TrimSpace(v)
	}
	if len(values) == 0 {
		return defaultValue
	}
	return values
}

// getEnvAsDuration 環境変数を時間として取得
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
