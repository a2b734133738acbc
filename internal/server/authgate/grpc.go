package authgate

import (
	"context"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

func authorizationFromMetadata(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if values := md.Get(common.AuthorizationMetadataKey); len(values) > 0 {
		return values[0]
	}
	return ""
}

func (g *Gate) authenticateRPC(ctx context.Context, method string) (context.Context, error) {
	ctx, err := g.Authenticate(ctx, method, authorizationFromMetadata(ctx))
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, common.DetailOf(err))
	}
	return ctx, nil
}

// UnaryInterceptor applies the gate to unary RPCs, keyed by full method
// name.
func (g *Gate) UnaryInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	ctx, err := g.authenticateRPC(ctx, info.FullMethod)
	if err != nil {
		return nil, err
	}
	return handler(ctx, req)
}

// StreamInterceptor applies the gate to streaming RPCs.
func (g *Gate) StreamInterceptor(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
	ctx, err := g.authenticateRPC(ss.Context(), info.FullMethod)
	if err != nil {
		return err
	}
	return handler(srv, &authenticatedStream{ServerStream: ss, ctx: ctx})
}

type authenticatedStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *authenticatedStream) Context() context.Context { return s.ctx }
