package rest

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/authgate"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/dmitrijs2005/authkeeper/internal/server/services"
)

// AuthService is the token lifecycle as the HTTP layer uses it.
type AuthService interface {
	Login(ctx context.Context, username, password string) (*services.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Logout(ctx context.Context, refreshToken string)
	RevokeAllForUser(ctx context.Context, userID int64) (int64, error)
}

type UserService interface {
	Register(ctx context.Context, username, password string) (*models.User, error)
	Profile(ctx context.Context, username string) (*models.User, error)
	ByID(ctx context.Context, id int64) (*models.User, error)
	UpdateProfile(ctx context.Context, username string, upd models.ProfileUpdate) (*models.User, error)
}

var ErrGateNotInstalled = errors.New("rest: auth gate not installed")

const shutdownTimeout = 5 * time.Second

type Server struct {
	address string
	router  *Router
	auth    AuthService
	users   UserService
	gate    *authgate.Gate
	debug   bool
	logger  logging.Logger
}

// NewServer registers every route on a fresh router. The router must be
// collected into an authgate.Builder and the resulting gate installed
// before the server can run.
func NewServer(address string, as AuthService, us UserService, debug bool, l logging.Logger) *Server {
	s := &Server{
		address: address,
		router:  NewRouter(),
		auth:    as,
		users:   us,
		debug:   debug,
		logger:  l.With("module", "http_server"),
	}
	s.registerRoutes()
	return s
}

func (s *Server) Router() *Router { return s.router }

func (s *Server) Install(g *authgate.Gate) { s.gate = g }

func (s *Server) registerRoutes() {
	r := s.router

	r.Handle(http.MethodGet, "/", s.handleRoot, Exempt(), Summary("Health check"), Tag("health"))

	r.Handle(http.MethodPost, "/auth/login", s.handleLogin, Exempt(), Summary("Log in with username and password"), Tag("auth"))
	r.Handle(http.MethodPost, "/auth/refresh", s.handleRefresh, Exempt(), Summary("Rotate a refresh token"), Tag("auth"))
	r.Handle(http.MethodPost, "/auth/logout", s.handleLogout, Exempt(), Summary("Revoke a refresh token"), Tag("auth"))

	r.Handle(http.MethodPost, "/user/register", s.handleRegister, Exempt(), Summary("Create an account"), Tag("user"))
	r.Handle(http.MethodGet, "/user/whoami", s.handleWhoAmI, Summary("Current username"), Tag("user"))
	r.Handle(http.MethodGet, "/user/me", s.handleGetMe, Summary("Current profile"), Tag("user"))
	r.Handle(http.MethodPatch, "/user/me", s.handleUpdateMe, Summary("Update current profile"), Tag("user"))

	r.Handle(http.MethodPost, "/admin/users/{id}/revoke-tokens", s.handleRevokeUserTokens, Summary("End every session of a user"), Tag("admin"))

	if s.debug {
		r.Handle(http.MethodGet, "/openapi.json", s.handleOpenAPI, Hidden())
		r.Handle(http.MethodGet, "/docs", s.handleDocs, Hidden())
		r.Handle(http.MethodGet, "/redoc", s.handleRedoc, Hidden())
	}
}

// Handler returns the full middleware chain: request logging, panic
// recovery, the auth gate and the router.
func (s *Server) Handler() (http.Handler, error) {
	if s.gate == nil {
		return nil, ErrGateNotInstalled
	}
	return s.logRequests(s.recoverPanics(s.gate.Middleware(s.router))), nil
}

func (s *Server) recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if p := recover(); p != nil {
				if p == http.ErrAbortHandler {
					panic(p)
				}
				s.logger.Error(r.Context(), "panic in handler", "path", r.URL.Path, "panic", p)
				writeDetail(w, http.StatusInternalServerError, "Internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) Run(ctx context.Context) error {
	handler, err := s.Handler()
	if err != nil {
		return err
	}

	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP shutdown failed", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
