package interceptor

import (
	"context"
	"strings"

	"payment-bridge/internal/application/auth"
	"payment-bridge/internal/infrastructure/config"
	otelinfra "payment-bridge/internal/infrastructure/observability/otel"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type contextKey string

const deviceIDKey contextKey = "device_id"

// AuthInterceptor JWT認証インターセプター
func AuthInterceptor(cfg *config.JWTConfig, logger *otelinfra.Logger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			logger.Warn(ctx, "Missing metadata", map[string]interface{}{"method": info.FullMethod})
			return nil, status.Error(codes.Unauthenticated, "missing metadata")
		}

		authHeaders := md.Get("authorization")
		if len(authHeaders) == 0 {
			logger.Warn(ctx, "Missing authorization header", map[string]interface{}{"method": info.FullMethod})
			return nil, status.Error(codes.Unauthenticated, "missing authorization header")
		}

		scheme, tokenString, found := strings.Cut(authHeaders[0], " ")
		if !found || scheme != "Bearer" || tokenString == "" {
			logger.Warn(ctx, "Invalid authorization header format", nil)
			return nil, status.Error(codes.Unauthenticated, "invalid authorization header format")
		}

		deviceID, err := auth.ParseDeviceID(cfg, tokenString)
		if err != nil {
			logger.Warn(ctx, "Invalid token", map[string]interface{}{
				"error": err.Error(),
			})
			return nil, status.Error(codes.Unauthenticated, "invalid or expired token")
		}

		return handler(context.WithValue(ctx, deviceIDKey, deviceID), req)
	}
}

// DeviceIDFromContext 認証済みの端末IDを取り出す
func DeviceIDFromContext(ctx context.Context) (string, bool) {
	deviceID, ok := ctx.Value(deviceIDKey).(string)
	return deviceID, ok
}
