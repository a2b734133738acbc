// Package server assembles the auth server: database, migrations, services,
// the auth gate and the HTTP and gRPC transports.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/auth"
	"github.com/dmitrijs2005/authkeeper/internal/server/authgate"
	"github.com/dmitrijs2005/authkeeper/internal/server/config"
	"github.com/dmitrijs2005/authkeeper/internal/server/passwords"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/authkeeper/internal/server/rest"
	"github.com/dmitrijs2005/authkeeper/internal/server/services"
	"github.com/dmitrijs2005/authkeeper/internal/server/tokenstore"

	gs "github.com/dmitrijs2005/authkeeper/internal/server/grpc"
)

type runner interface {
	Run(ctx context.Context) error
}

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	servers map[string]runner
}

// NewApp connects to PostgreSQL, applies migrations and wires everything
// else on top of the connection.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	db, err := repomanager.OpenPostgres(ctx, c.DatabaseDSN, c.DatabaseTimeout)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	app, err := assemble(ctx, c, db, rm, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return app, nil
}

// assemble builds services and transports over an open, migrated db. The
// exemption set is built last, after both transports registered their
// routes.
func assemble(ctx context.Context, c *config.Config, db *sql.DB, rm repomanager.RepositoryManager, logger logging.Logger) (*App, error) {
	codec, err := auth.NewCodec(c.SecretKey, c.SigningAlgorithm)
	if err != nil {
		return nil, fmt.Errorf("token codec: %w", err)
	}
	hasher := passwords.NewHasher(c.PasswordPepper, 0)
	store := tokenstore.New(db, rm, c.DatabaseTimeout)
	userRepo := rm.Users(db)

	as := services.NewAuthService(userRepo, store, codec, hasher, c, logger)
	us := services.NewUserService(userRepo, hasher, c, logger)

	if err := us.EnsureAdmin(ctx); err != nil {
		return nil, fmt.Errorf("ensure admin: %w", err)
	}

	httpServer := rest.NewServer(c.EndpointAddrHTTP, as, us, c.Debug, logger)
	grpcServer := gs.NewGRPCServer(c.EndpointAddrGRPC, as, c.Debug, logger)

	exempt := authgate.NewBuilder(c.Debug).
		Collect(httpServer.Router()).
		Collect(grpcServer).
		Build()
	gate := authgate.New(exempt, as, logger)
	httpServer.Install(gate)
	grpcServer.Install(gate)

	logger.Debug(ctx, "auth gate built", "exempt", exempt.Paths())

	return &App{
		config: c,
		logger: logger,
		db:     db,
		servers: map[string]runner{
			"http": httpServer,
			"grpc": grpcServer,
		},
	}, nil
}

func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigs)
		select {
		case s := <-sigs:
			app.logger.Info(ctx, "Signal received", "signal", s.String())
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

// Run serves until ctx is cancelled, a signal arrives or one of the
// servers fails; a failing server stops the other one too.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(ctx, cancelFunc)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	for name, srv := range app.servers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := srv.Run(ctx); err != nil {
				app.logger.Error(ctx, "server failed", "server", name, "error", err)
				mu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("%s server: %w", name, err)
				}
				mu.Unlock()
				cancelFunc()
			}
		}()
	}

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close failed", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
	return firstErr
}
