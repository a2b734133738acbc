package grpc

import (
	"context"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/server/authgate"
	"github.com/dmitrijs2005/authkeeper/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

func stringField(in *structpb.Struct, name string) string {
	return in.GetFields()[name].GetStringValue()
}

func tokenPairStruct(p *services.TokenPair) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"access_token":             p.AccessToken,
		"refresh_token":            p.RefreshToken,
		"token_type":               "bearer",
		"expires_in":               p.ExpiresIn,
		"refresh_token_expires_in": p.RefreshExpiresIn,
	})
}

func codeOf(kind common.Kind) codes.Code {
	switch kind {
	case common.KindUnauthorized:
		return codes.Unauthenticated
	case common.KindConflict:
		return codes.AlreadyExists
	case common.KindNotFound:
		return codes.NotFound
	case common.KindInvalid:
		return codes.InvalidArgument
	default:
		return codes.Internal
	}
}

func (s *GRPCServer) statusError(ctx context.Context, err error) error {
	code := codeOf(common.KindOf(err))
	if code == codes.Internal {
		s.logger.Error(ctx, "rpc failed", "error", err)
		return status.Error(codes.Internal, "Internal server error")
	}
	return status.Error(code, common.DetailOf(err))
}

func (s *GRPCServer) Login(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	username, password := stringField(in, "username"), stringField(in, "password")
	if username == "" || password == "" {
		return nil, status.Error(codes.InvalidArgument, "username and password are required")
	}

	pair, err := s.auth.Login(ctx, username, password)
	if err != nil {
		return nil, s.statusError(ctx, err)
	}
	return tokenPairStruct(pair)
}

func (s *GRPCServer) Refresh(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	token := stringField(in, "refresh_token")
	if token == "" {
		return nil, status.Error(codes.InvalidArgument, "refresh_token is required")
	}

	pair, err := s.auth.Refresh(ctx, token)
	if err != nil {
		return nil, s.statusError(ctx, err)
	}
	return tokenPairStruct(pair)
}

func (s *GRPCServer) Logout(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	token := stringField(in, "refresh_token")
	if token == "" {
		return nil, status.Error(codes.InvalidArgument, "refresh_token is required")
	}
	s.auth.Logout(ctx, token)
	return structpb.NewStruct(map[string]any{"message": "Successfully logged out"})
}

func (s *GRPCServer) WhoAmI(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	username, ok := authgate.SubjectFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "Unauthorized")
	}
	return structpb.NewStruct(map[string]any{"username": username})
}
