package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"payment-bridge/internal/infrastructure/config"
	otelinfra "payment-bridge/internal/infrastructure/observability/otel"

	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// ClaimDeviceID 端末IDを保持するクレーム名
const ClaimDeviceID = "device_id"

var (
	// ErrDeviceIDRequired 端末IDが指定されていないエラー
	ErrDeviceIDRequired = errors.New("device_id is required")
	// ErrInvalidToken トークンが無効なエラー
	ErrInvalidToken = errors.New("invalid or expired token")
)

// AuthApplicationService 認証アプリケーションサービス
type AuthApplicationService struct {
	jwtConfig *config.JWTConfig
	logger    *otelinfra.Logger
}

// NewAuthApplicationService 新しいAuthApplicationServiceを作成
func NewAuthApplicationService(jwtConfig *config.JWTConfig, logger *otelinfra.Logger) *AuthApplicationService {
	return &AuthApplicationService{
		jwtConfig: jwtConfig,
		logger:    logger,
	}
}

// GenerateToken 端末向けのJWTトークンを生成
func (s *AuthApplicationService) GenerateToken(ctx context.Context, req *GenerateTokenRequest) (*GenerateTokenResponse, error) {
	tracer := otel.Tracer("auth-service")
	ctx, span := tracer.Start(ctx, "AuthApplicationService.GenerateToken")
	defer span.End()

	span.SetAttributes(
		attribute.String("device_id", req.DeviceID),
	)

	if req.DeviceID == "" {
		err := ErrDeviceIDRequired
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Warn(ctx, "Device ID is required", nil)
		return nil, err
	}

	now := time.Now()
	expiresAt := now.Add(s.jwtConfig.Expiration)

	claims := jwt.MapClaims{
		ClaimDeviceID: req.DeviceID,
		"iss":         s.jwtConfig.Issuer,
		"iat":         now.Unix(),
		"exp":         expiresAt.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtConfig.Secret))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Error(ctx, "Failed to generate token", err, map[string]interface{}{
			"device_id": req.DeviceID,
		})
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	s.logger.Info(ctx, "Token generated successfully", map[string]interface{}{
		"device_id":  req.DeviceID,
		"expires_at": expiresAt.Unix(),
	})

	return &GenerateTokenResponse{
		Token:     tokenString,
		ExpiresIn: int64(s.jwtConfig.Expiration.Seconds()),
		TokenType: "Bearer",
	}, nil
}

// ParseDeviceID トークンを検証して端末IDを取り出す
// RESTミドルウェアとgRPCインターセプターで共通に使う
func ParseDeviceID(cfg *config.JWTConfig, tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// 署名アルゴリズムの確認
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(cfg.Secret), nil
	}, jwt.WithIssuer(cfg.Issuer))
	if err != nil || !token.Valid {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}

	deviceID, ok := claims[ClaimDeviceID].(string)
	if !ok || deviceID == "" {
		return "", fmt.Errorf("%w: missing %s claim", ErrInvalidToken, ClaimDeviceID)
	}
	return deviceID, nil
}
