// Package main implements the product catalog HTTP service.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "net/http/pprof"

	"github.com/gebeya/catalog/internal/app"
	"github.com/gebeya/catalog/internal/config"
	"github.com/gebeya/catalog/internal/store"
	"github.com/gebeya/catalog/pkg/bootstrap"
	pkgconfig "github.com/gebeya/catalog/pkg/config"
	"github.com/gebeya/catalog/pkg/config/configloader"
	"golang.org/x/sync/errgroup"
)

const serviceName = "catalog"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Printf("application run failed: %v", err)
		os.Exit(1)
	}
	log.Println("application stopped gracefully")
}

// run initializes the application, connects the configured store, and runs
// the HTTP (and optional pprof) servers until the context is cancelled.
func run(ctx context.Context) error {
	cfg, cfgErr := configloader.Load[*config.Config](serviceName)
	if cfgErr != nil {
		return fmt.Errorf("failed to load configuration: %w", cfgErr)
	}
	log.Printf("Configuration loaded: %v", cfg)

	logger := bootstrap.NewLogger(cfg.Log.Level)
	slog.SetDefault(logger)

	productStore, cleanup, err := setupStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to set up product store: %w", err)
	}
	defer cleanup()
	logger.Info("Successfully connected to the product store", slog.String("backend", cfg.Database.Backend))

	deps := app.SetupDependencies(productStore, cfg, logger)
	httpServer := app.SetupHttpServer(deps, cfg)
	pprofServer := &http.Server{Addr: cfg.PProf.Addr}

	g, gCtx := errgroup.WithContext(ctx)

	// Start the HTTP server
	g.Go(func() error {
		logger.Info("HTTP server listening", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})
	// gracefully shutdown HTTP server on context cancellation
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("Shutting down HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	// Start the pprof server if enabled
	if cfg.PProf.Enabled {
		g.Go(func() error {
			logger.Info("Pprof server listening", slog.String("addr", pprofServer.Addr))
			if err := pprofServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("pprof server failed: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gCtx.Done()
			logger.Info("Shutting down pprof server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
			defer cancel()
			return pprofServer.Shutdown(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("errgroup encountered an error: %w", err)
	}
	return nil
}

// setupStore connects the backend selected in configuration and returns the
// store together with its connection cleanup.
func setupStore(ctx context.Context, cfg *config.Config) (store.ProductStore, func(), error) {
	switch cfg.Database.Backend {
	case pkgconfig.BackendMongo:
		client, err := bootstrap.NewMongoClient(ctx, cfg.Database.URL, cfg.Database.Timeout)
		if err != nil {
			return nil, nil, err
		}
		mongoStore := store.NewMongoStore(client, cfg.Database.Name)
		if err := mongoStore.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, err
		}
		cleanup := func() { _ = client.Disconnect(context.Background()) }
		return mongoStore, cleanup, nil

	case pkgconfig.BackendSQLite, pkgconfig.BackendPostgres:
		db, err := bootstrap.NewGormDB(cfg.Database.Backend, cfg.Database.URL)
		if err != nil {
			return nil, nil, err
		}
		gormStore, err := store.NewGormStore(db)
		if err != nil {
			return nil, nil, err
		}
		return gormStore, func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown database backend: %q", cfg.Database.Backend)
	}
}
