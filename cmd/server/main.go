package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mtaylorio/iam-server/internal/authn"
	"github.com/mtaylorio/iam-server/internal/authn/redisreplay"
	"github.com/mtaylorio/iam-server/internal/authz"
	"github.com/mtaylorio/iam-server/internal/config"
	"github.com/mtaylorio/iam-server/internal/session"
	"github.com/mtaylorio/iam-server/internal/storage"
	"github.com/mtaylorio/iam-server/internal/storage/memory"
	"github.com/mtaylorio/iam-server/internal/storage/postgres"
	httpTransport "github.com/mtaylorio/iam-server/internal/transport/http"
)

func main() {
	cfg := config.Load("")

	logLevel := slog.LevelInfo
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}

	var handler slog.Handler
	if cfg.LogFormat == "text" {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, closeStore, err := buildStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	replay, closeReplay, err := buildReplayCache(cfg, logger)
	if err != nil {
		return err
	}
	defer closeReplay()

	sessions := session.NewManager(store, cfg.SessionTTL)
	authenticator := &authn.Authenticator{
		Users:  store,
		Headers: authn.Headers{Prefix: cfg.Prefix},
		Host:   cfg.Host,
		Replay: replay,
	}
	authorizer := &authz.Authorizer{Store: store}

	srv := httpTransport.NewServer(cfg, store, sessions, authenticator, authorizer, logger)

	errChan := make(chan error, 1)
	go func() {
		logger.Info("starting HTTP server", "addr", cfg.Addr(), "tls", cfg.TLSEnabled())
		if err := srv.ListenAndServe(cfg.Addr(), cfg.TLSCertFile, cfg.TLSKeyFile); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig)
	case err := <-errChan:
		logger.Error("server error", "error", err)
		return err
	}

	logger.Info("initiating graceful shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	cancel()

	logger.Info("shutdown complete")
	return nil
}

// buildStore constructs the configured storage.Store implementation and a
// function to release its resources on shutdown.
func buildStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.Store, func(), error) {
	switch cfg.Backend {
	case "postgres":
		logger.Info("connecting to database")
		db, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to database: %w", err)
		}
		logger.Info("database connected")
		return db.Store(), func() { db.Close() }, nil
	default:
		logger.Info("using in-memory storage backend")
		return memory.New(), func() {}, nil
	}
}

// buildReplayCache constructs the configured authn.ReplayCache implementation.
// A nil cache disables replay detection entirely.
func buildReplayCache(cfg *config.Config, logger *slog.Logger) (authn.ReplayCache, func(), error) {
	switch cfg.ReplayBackend {
	case "redis":
		logger.Info("using redis replay cache", "addr", cfg.RedisAddr)
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		cache := redisreplay.New(client, cfg.Prefix, cfg.ReplayWindow)
		return cache, func() { client.Close() }, nil
	case "none":
		logger.Info("replay detection disabled")
		return nil, func() {}, nil
	default:
		logger.Info("using in-process replay cache")
		return authn.NewInProcessReplayCache(cfg.ReplayWindow, 0), func() {}, nil
	}
}
