package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/ndreno/jellyfin-transmission-uploader/internal/config"
	"github.com/ndreno/jellyfin-transmission-uploader/internal/domain"
	"github.com/ndreno/jellyfin-transmission-uploader/internal/httpserver"
	"github.com/ndreno/jellyfin-transmission-uploader/internal/logging"
	"github.com/ndreno/jellyfin-transmission-uploader/internal/mediaserver"
	"github.com/ndreno/jellyfin-transmission-uploader/internal/redis"
	"github.com/ndreno/jellyfin-transmission-uploader/internal/session"
	"github.com/ndreno/jellyfin-transmission-uploader/internal/transmission"
)

const sessionSweepInterval = time.Minute

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupSessionStore(cfg *config.Config, clock clockwork.Clock) (domain.SessionStore, []httpserver.HealthCheck, func()) {
	if cfg.RedisURL == "" {
		store := session.NewMemoryStore(cfg.SessionMaxAge, clock)
		stopSweeper := store.StartSweeper(sessionSweepInterval)
		return store, nil, stopSweeper
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}

	checks := []httpserver.HealthCheck{{
		Name:  "redis",
		Check: func(ctx context.Context) error { return client.Ping(ctx).Err() },
	}}
	cleanup := func() { _ = client.Close() }

	return redis.NewSessionStore(client, cfg.SessionMaxAge, clock), checks, cleanup
}

func runGracefulShutdown(srv *httpserver.Server, cleanups ...func()) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		for _, cleanup := range cleanups {
			cleanup()
		}

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.Init(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port)

	store, healthChecks, cleanupStore := setupSessionStore(cfg, clock)

	authenticator := mediaserver.NewClient(cfg.MediaServerURL)
	submitter := transmission.NewClient(cfg.DaemonURL, cfg.DaemonUsername, cfg.DaemonPassword,
		cfg.DaemonTimeout, cfg.DaemonStrictHandshake)

	srv := httpserver.NewServer(cfg, store, authenticator, submitter, healthChecks)

	done := runGracefulShutdown(srv, cleanupStore)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
