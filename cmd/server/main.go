// Command server runs the streaming milestone service: HTTP intake, the
// single ingest worker, the query API, and debounced persistence.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jeffweisbein/roon-wrapped-sub000/internal/adapters/http/api"
	"github.com/jeffweisbein/roon-wrapped-sub000/internal/adapters/persistence"
	app "github.com/jeffweisbein/roon-wrapped-sub000/internal/app"
	"github.com/jeffweisbein/roon-wrapped-sub000/internal/config"
	"github.com/jeffweisbein/roon-wrapped-sub000/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	if err := run(); err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}

func run() error {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env).
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	logOpts := []logger.Option{}
	if cfg.LogFormat == "json" {
		logOpts = append(logOpts, logger.WithJSON())
	}
	if err := logger.Init(logOpts...); err != nil {
		return err
	}
	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
	}

	gateway, err := persistence.NewGateway(ctx, persistence.FactoryConfig{
		Backend:        cfg.PersistenceBackend,
		DataDir:        cfg.DataDir,
		RedisAddr:      cfg.RedisAddr,
		RedisKeyPrefix: cfg.RedisKeyPrefix,
	})
	if err != nil {
		return err
	}

	svc := app.New(
		app.WithLogger(log),
		app.WithGateway(gateway),
		app.WithQueueSize(cfg.QueueSize),
		app.WithQuietPeriod(cfg.PersistQuietPeriod()),
		app.WithAliases(cfg.ArtistAliases),
	)
	if err := svc.Start(ctx); err != nil {
		return err
	}

	mux := http.NewServeMux()
	apiServer := api.NewServer(svc, svc, api.NewDeduper(cfg.DedupeSize), cfg.MaxLeaderboardLimit)
	apiServer.Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	if err := svc.Stop(shutdownCtx); err != nil {
		log.Error(ctx, "service shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
	return nil
}
