package authgate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const protectedMethod = "/authkeeper.v1.AuthService/WhoAmI"

func TestUnaryInterceptor(t *testing.T) {
	g, _ := newGate(t)

	handler := func(ctx context.Context, req any) (any, error) {
		subject, _ := SubjectFromContext(ctx)
		return subject, nil
	}

	t.Run("health is exempt", func(t *testing.T) {
		info := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}
		resp, err := g.UnaryInterceptor(context.Background(), nil, info, handler)
		require.NoError(t, err)
		assert.Equal(t, "", resp)
	})

	t.Run("missing metadata", func(t *testing.T) {
		info := &grpc.UnaryServerInfo{FullMethod: protectedMethod}
		_, err := g.UnaryInterceptor(context.Background(), nil, info, func(context.Context, any) (any, error) {
			t.Fatal("handler must not run")
			return nil, nil
		})
		assert.Equal(t, codes.Unauthenticated, status.Code(err))
		assert.Equal(t, "Unauthorized", status.Convert(err).Message())
	})

	t.Run("invalid token", func(t *testing.T) {
		ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer forged"))
		info := &grpc.UnaryServerInfo{FullMethod: protectedMethod}
		_, err := g.UnaryInterceptor(ctx, nil, info, handler)
		assert.Equal(t, codes.Unauthenticated, status.Code(err))
		assert.Equal(t, "Invalid token", status.Convert(err).Message())
	})

	t.Run("valid token", func(t *testing.T) {
		ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer good"))
		info := &grpc.UnaryServerInfo{FullMethod: protectedMethod}
		resp, err := g.UnaryInterceptor(ctx, nil, info, handler)
		require.NoError(t, err)
		assert.Equal(t, "alice", resp)
	})
}

type fakeStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *fakeStream) Context() context.Context { return s.ctx }

func TestStreamInterceptor(t *testing.T) {
	g, _ := newGate(t)
	info := &grpc.StreamServerInfo{FullMethod: "/grpc.reflection.v1.ServerReflection/ServerReflectionInfo"}

	err := g.StreamInterceptor(nil, &fakeStream{ctx: context.Background()}, info, func(any, grpc.ServerStream) error {
		t.Fatal("reflection is protected outside debug mode")
		return nil
	})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer good"))
	var subject string
	err = g.StreamInterceptor(nil, &fakeStream{ctx: ctx}, info, func(_ any, ss grpc.ServerStream) error {
		subject, _ = SubjectFromContext(ss.Context())
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", subject)
}
