// Package server initializes and runs the FileKeeper server: it opens the
// database, applies migrations, wires the object store and services, and
// serves the HTTP API until a shutdown signal arrives.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/avolkovs/filekeeper/internal/logging"
	"github.com/avolkovs/filekeeper/internal/server/config"
	"github.com/avolkovs/filekeeper/internal/server/httpapi"
	"github.com/avolkovs/filekeeper/internal/server/objstore"
	"github.com/avolkovs/filekeeper/internal/server/repositories/repomanager"
	"github.com/avolkovs/filekeeper/internal/server/services"
	"github.com/avolkovs/filekeeper/internal/taskx"
)

const (
	shutdownTimeout = 10 * time.Second
	workerPoolSize  = 4
)

type App struct {
	config *config.Config
	logger logging.Logger
	api    *httpapi.API
	pool   *taskx.Pool
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	m, err := repomanager.NewPostgresRepositoryManager(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	db := m.Conn()

	store, err := objstore.NewS3Store(ctx, objstore.Settings{
		RootUser:     cfg.S3RootUser,
		RootPassword: cfg.S3RootPassword,
		Region:       cfg.S3Region,
		BaseEndpoint: cfg.S3BaseEndpoint,
	})
	if err != nil {
		return nil, fmt.Errorf("object store init error: %w", err)
	}

	pool := taskx.NewPool(workerPoolSize)

	notifier := services.NewNotificationService(db, m, pool, logger)
	api := httpapi.NewAPI(
		services.NewAccountService(db, m, cfg),
		services.NewUploadService(db, m, store, notifier, logger),
		services.NewCatalogService(db, m, store, notifier, cfg, logger),
		services.NewSharingService(db, m, store, notifier, cfg, logger),
		services.NewFavoritesService(db, m),
		notifier,
		pool,
		cfg,
		logger,
	)

	return &App{config: cfg, logger: logger, api: api, pool: pool}, nil
}

// Run serves HTTP until ctx is canceled or a SIGINT/SIGTERM/SIGQUIT arrives,
// then drains in-flight requests and background tasks.
func (app *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	app.initSignalHandler(cancel)

	srv := &http.Server{
		Addr:    app.config.EndpointAddrHTTP,
		Handler: app.api.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		app.logger.Info(ctx, "starting http server", "addr", app.config.EndpointAddrHTTP)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		app.logger.Info(ctx, "shutting down")
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelShutdown()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(ctx, "http shutdown error", "error", err)
		}
	}

	app.pool.Close()
	return nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}
