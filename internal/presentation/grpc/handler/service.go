package handler

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName gRPCサービス名
const ServiceName = "paymentbridge.v1.PaymentBridge"

// 各メソッドのフルネーム
const (
	MethodStartRedirectPayment    = "/" + ServiceName + "/StartRedirectPayment"
	MethodStartCardPresentPayment = "/" + ServiceName + "/StartCardPresentPayment"
	MethodIsNFCSupported          = "/" + ServiceName + "/IsNFCSupported"
	MethodIsNFCEnabled            = "/" + ServiceName + "/IsNFCEnabled"
	MethodOpenNFCSettings         = "/" + ServiceName + "/OpenNFCSettings"
)

// PaymentBridgeServer gRPCで公開する決済ブリッジ
// メッセージはすべて google.protobuf.Struct
type PaymentBridgeServer interface {
	StartRedirectPayment(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	StartCardPresentPayment(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	IsNFCSupported(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	IsNFCEnabled(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	OpenNFCSettings(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// RegisterPaymentBridgeServer サービスを登録
func RegisterPaymentBridgeServer(s grpc.ServiceRegistrar, srv PaymentBridgeServer) {
	s.RegisterService(&PaymentBridgeServiceDesc, srv)
}

// PaymentBridgeServiceDesc サービス定義
var PaymentBridgeServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PaymentBridgeServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "StartRedirectPayment",
			Handler: unaryHandler(MethodStartRedirectPayment, func(srv PaymentBridgeServer) structHandler {
				return srv.StartRedirectPayment
			}),
		},
		{
			MethodName: "StartCardPresentPayment",
			Handler: unaryHandler(MethodStartCardPresentPayment, func(srv PaymentBridgeServer) structHandler {
				return srv.StartCardPresentPayment
			}),
		},
		{
			MethodName: "IsNFCSupported",
			Handler: unaryHandler(MethodIsNFCSupported, func(srv PaymentBridgeServer) structHandler {
				return srv.IsNFCSupported
			}),
		},
		{
			MethodName: "IsNFCEnabled",
			Handler: unaryHandler(MethodIsNFCEnabled, func(srv PaymentBridgeServer) structHandler {
				return srv.IsNFCEnabled
			}),
		},
		{
			MethodName: "OpenNFCSettings",
			Handler: unaryHandler(MethodOpenNFCSettings, func(srv PaymentBridgeServer) structHandler {
				return srv.OpenNFCSettings
			}),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "paymentbridge/v1/payment_bridge.proto",
}

type structHandler func(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)

// unaryHandler protoc-gen-go-grpc が生成するハンドラーと同じ形の関数を作る
func unaryHandler(fullMethod string, pick func(PaymentBridgeServer) structHandler) grpc.MethodHandler {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		call := pick(srv.(PaymentBridgeServer))
		if interceptor == nil {
			return call(ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		return interceptor(ctx, in, info, func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(ctx, req.(*structpb.Struct))
		})
	}
}
