// Package server initializes and runs the passtree server: it opens the
// database, applies migrations, provisions the first user and starts the
// HTTP endpoint, shutting everything down gracefully on SIGINT/SIGTERM.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/passtree/passtree/internal/logging"
	"github.com/passtree/passtree/internal/server/config"
	"github.com/passtree/passtree/internal/server/httpapi"
	"github.com/passtree/passtree/internal/server/repositories/repomanager"
	"github.com/passtree/passtree/internal/server/services"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	credentials *services.CredentialService
	httpServer  *httpapi.HTTPServer
}

func NewApp(cfg *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()

	groupService := services.NewGroupService(db, rm)
	credentialService := services.NewCredentialService(db, rm, groupService, cfg)
	sessionService := services.NewSessionService(db, rm, cfg)
	entryService := services.NewEntryService(db, rm)
	guard := services.NewAccessGuard(sessionService, groupService)

	httpServer := httpapi.NewHTTPServer(cfg.EndpointAddr, logger, guard,
		credentialService, sessionService, groupService, entryService)

	return &App{
		config:      cfg,
		logger:      logger,
		db:          db,
		repomanager: rm,
		credentials: credentialService,
		httpServer:  httpServer,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.httpServer.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run migrates the schema, provisions the first user and serves until the
// context is cancelled or a termination signal arrives.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	if err := app.repomanager.RunMigrations(ctx, app.db); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}

	if err := app.credentials.Bootstrap(ctx); err != nil {
		return fmt.Errorf("bootstrap error: %w", err)
	}

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, err.Error())
	}

	return nil
}
