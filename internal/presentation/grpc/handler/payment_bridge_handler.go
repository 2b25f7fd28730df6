package handler

import (
	"context"

	bridgeapp "payment-bridge/internal/application/bridge"
	otelinfra "payment-bridge/internal/infrastructure/observability/otel"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// PaymentBridge gRPCハンドラーから利用する決済ブリッジ
type PaymentBridge interface {
	StartRedirectPayment(ctx context.Context, req *bridgeapp.StartRedirectPaymentRequest) (*bridgeapp.PaymentResponse, error)
	StartCardPresentPayment(ctx context.Context, req *bridgeapp.StartCardPresentPaymentRequest) (*bridgeapp.PaymentResponse, error)
	IsNFCSupported() bool
	IsNFCEnabled() bool
	OpenNFCSettings(ctx context.Context) error
}

// PaymentBridgeHandler gRPCの決済ブリッジハンドラー
type PaymentBridgeHandler struct {
	bridge PaymentBridge
	logger *otelinfra.Logger
}

// NewPaymentBridgeHandler 新しいPaymentBridgeHandlerを作成
func NewPaymentBridgeHandler(bridge PaymentBridge, logger *otelinfra.Logger) *PaymentBridgeHandler {
	return &PaymentBridgeHandler{
		bridge: bridge,
		logger: logger.Named("grpc-handler"),
	}
}

// StartRedirectPayment リダイレクト決済を開始
// 入力: {payment_url, success_url?, fail_url?, cancel_url?}
func (h *PaymentBridgeHandler) StartRedirectPayment(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	resp, err := h.bridge.StartRedirectPayment(ctx, &bridgeapp.StartRedirectPaymentRequest{
		PaymentURL: fields["payment_url"].GetStringValue(),
		SuccessURL: fields["success_url"].GetStringValue(),
		FailURL:    fields["fail_url"].GetStringValue(),
		CancelURL:  fields["cancel_url"].GetStringValue(),
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return h.payload(ctx, resp.Payload())
}

// StartCardPresentPayment NFC決済を開始
// 入力: {amount, card_number, expiry_date, cvv}
func (h *PaymentBridgeHandler) StartCardPresentPayment(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	if v, ok := fields["amount"]; ok {
		if _, isNumber := v.GetKind().(*structpb.Value_NumberValue); !isNumber {
			return nil, status.Error(codes.InvalidArgument, "amount must be a number")
		}
	}

	resp, err := h.bridge.StartCardPresentPayment(ctx, &bridgeapp.StartCardPresentPaymentRequest{
		Amount:     fields["amount"].GetNumberValue(),
		CardNumber: fields["card_number"].GetStringValue(),
		ExpiryDate: fields["expiry_date"].GetStringValue(),
		CVV:        fields["cvv"].GetStringValue(),
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return h.payload(ctx, resp.Payload())
}

// IsNFCSupported NFCハードウェアの有無 {supported}
func (h *PaymentBridgeHandler) IsNFCSupported(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	return h.payload(ctx, map[string]interface{}{"supported": h.bridge.IsNFCSupported()})
}

// IsNFCEnabled NFCの有効状態 {enabled}
func (h *PaymentBridgeHandler) IsNFCEnabled(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	return h.payload(ctx, map[string]interface{}{"enabled": h.bridge.IsNFCEnabled()})
}

// OpenNFCSettings NFC設定画面を開く {opened}
func (h *PaymentBridgeHandler) OpenNFCSettings(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	if err := h.bridge.OpenNFCSettings(ctx); err != nil {
		return nil, toStatus(err)
	}
	return h.payload(ctx, map[string]interface{}{"opened": true})
}

func (h *PaymentBridgeHandler) payload(ctx context.Context, m map[string]interface{}) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(m)
	if err != nil {
		h.logger.Error(ctx, "Failed to encode response", err, nil)
		return nil, status.Error(codes.Internal, "failed to encode response")
	}
	return out, nil
}
