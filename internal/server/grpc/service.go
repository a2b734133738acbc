package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "authkeeper.v1.AuthService"

// Full method names, as seen by interceptors.
const (
	LoginMethod   = "/" + ServiceName + "/Login"
	RefreshMethod = "/" + ServiceName + "/Refresh"
	LogoutMethod  = "/" + ServiceName + "/Logout"
	WhoAmIMethod  = "/" + ServiceName + "/WhoAmI"
)

// authServiceServer is the handler set behind serviceDesc. Payloads are
// google.protobuf.Struct so that no generated code is needed.
type authServiceServer interface {
	Login(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Refresh(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Logout(context.Context, *structpb.Struct) (*structpb.Struct, error)
	WhoAmI(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(authServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call unaryCall) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		impl := srv.(authServiceServer)
		if interceptor == nil {
			return call(impl, ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
			return call(impl, ctx, req.(*structpb.Struct))
		})
	}
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*authServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Login", Handler: unaryHandler(LoginMethod, authServiceServer.Login)},
		{MethodName: "Refresh", Handler: unaryHandler(RefreshMethod, authServiceServer.Refresh)},
		{MethodName: "Logout", Handler: unaryHandler(LogoutMethod, authServiceServer.Logout)},
		{MethodName: "WhoAmI", Handler: unaryHandler(WhoAmIMethod, authServiceServer.WhoAmI)},
	},
	Streams: []grpc.StreamDesc{},
}
