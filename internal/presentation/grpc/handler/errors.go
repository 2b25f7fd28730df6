package handler

import (
	"context"
	"errors"

	"payment-bridge/internal/application/host"
	"payment-bridge/internal/domain/payment"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// toStatus ドメインエラーをgRPCステータスに変換
func toStatus(err error) error {
	switch {
	case errors.Is(err, payment.ErrNoHostSurface):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, payment.ErrAlreadyInProgress):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, payment.ErrInvalidPaymentRequest):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, host.ErrNoActiveSession):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, "internal server error")
	}
}
