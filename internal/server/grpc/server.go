// Package grpc exposes the token lifecycle over gRPC, next to the standard
// health service and, in debug mode, server reflection.
package grpc

import (
	"context"
	"errors"
	"net"

	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/authgate"
	"github.com/dmitrijs2005/authkeeper/internal/server/services"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

type AuthService interface {
	Login(ctx context.Context, username, password string) (*services.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Logout(ctx context.Context, refreshToken string)
}

var ErrGateNotInstalled = errors.New("grpc: auth gate not installed")

type GRPCServer struct {
	address string
	auth    AuthService
	gate    *authgate.Gate
	debug   bool
	logger  logging.Logger
}

func NewGRPCServer(a string, as AuthService, debug bool, l logging.Logger) *GRPCServer {
	return &GRPCServer{
		address: a,
		auth:    as,
		debug:   debug,
		logger:  l.With("module", "grpc_server"),
	}
}

// ExemptRoutes lists the methods callable without an access token.
func (s *GRPCServer) ExemptRoutes() []string {
	return []string{LoginMethod, RefreshMethod, LogoutMethod}
}

// Freeze is a no-op: the method set is fixed by serviceDesc.
func (s *GRPCServer) Freeze() {}

func (s *GRPCServer) Install(g *authgate.Gate) { s.gate = g }

func (s *GRPCServer) newServer() (*grpc.Server, *health.Server, error) {
	if s.gate == nil {
		return nil, nil, ErrGateNotInstalled
	}

	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(s.logUnary, s.gate.UnaryInterceptor),
		grpc.ChainStreamInterceptor(s.logStream, s.gate.StreamInterceptor),
	)
	srv.RegisterService(&serviceDesc, s)

	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)

	if s.debug {
		reflection.Register(srv)
	}
	return srv, hs, nil
}

func (s *GRPCServer) Run(ctx context.Context) error {
	if s.gate == nil {
		return ErrGateNotInstalled
	}

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is cancelled.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv, hs, err := s.newServer()
	if err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		hs.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}
