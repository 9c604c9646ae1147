package main

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

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	"github.com/ericfisherdev/repoconfig/internal/adapter/driven/jsonfile"
	sqliteadapter "github.com/ericfisherdev/repoconfig/internal/adapter/driven/sqlite"
	httphandler "github.com/ericfisherdev/repoconfig/internal/adapter/driving/http"
	"github.com/ericfisherdev/repoconfig/internal/application"
	"github.com/ericfisherdev/repoconfig/internal/config"
	"github.com/ericfisherdev/repoconfig/internal/domain/port/driven"
	"github.com/ericfisherdev/repoconfig/internal/metrics"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on invalid env vars).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := cfg.NewLogger()
	slog.SetDefault(logger)
	logger.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"store", cfg.Store,
		"data_path", cfg.DataPath,
		"cors_origins", cfg.CORSOrigins,
		"metrics_enabled", cfg.MetricsEnabled,
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open the repository store, seeded from the JSON document.
	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := closeStore(); closeErr != nil {
			logger.Error("error closing store", "error", closeErr)
		}
	}()

	// 4. Wire the service and HTTP API.
	repoSvc := application.NewRepositoryService(store, logger)
	apiHandler := httphandler.NewHandler(repoSvc, logger)

	mux := http.NewServeMux()
	httphandler.RegisterAPIRoutes(mux, apiHandler)
	if cfg.MetricsEnabled {
		mux.Handle("GET /metrics", metrics.Handler())
	}

	handler := httphandler.ApplyMiddleware(mux, logger, cfg.CORSOrigins)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	// 5. Wait for shutdown signal or a listener failure.
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-serveErr:
		return fmt.Errorf("http server: %w", err)
	}

	// 6. Graceful shutdown with 10s timeout to drain in-flight requests.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}

// openStore builds the configured RepositoryStore. The returned close func
// releases any resources the store holds.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (driven.RepositoryStore, func() error, error) {
	switch cfg.Store {
	case config.StoreSQLite:
		db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}

		version, err := sqliteadapter.RunMigrations(db.Writer)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		logger.Info("database opened", "path", db.Path(), "schema_version", version)

		repo := sqliteadapter.NewRepositoryRepo(db)
		seed, err := jsonfile.ReadDocument(cfg.DataPath)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		n, err := repo.Seed(ctx, seed)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		if n > 0 {
			logger.Info("database seeded", "repositories", n, "from", cfg.DataPath)
		}
		return repo, db.Close, nil

	default:
		store, err := jsonfile.Open(cfg.DataPath)
		if err != nil {
			return nil, nil, err
		}
		repos, err := store.List(ctx)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("repositories loaded", "path", store.Path(), "count", len(repos))
		return store, func() error { return nil }, nil
	}
}
