package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"bilancio/internal/cache"
	"bilancio/internal/config"
	"bilancio/internal/events"
	apphttp "bilancio/internal/http"
	"bilancio/internal/identity"
	idgoogle "bilancio/internal/identity/google"
	idstatic "bilancio/internal/identity/static"
	applog "bilancio/internal/log"
	"bilancio/internal/remote"
	remotemem "bilancio/internal/remote/memory"
	remoterest "bilancio/internal/remote/rest"
	"bilancio/internal/session"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.Config{Level: slog.LevelInfo, Component: "bilancio"})
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	localCache, err := cache.New(cfg.CacheDBPath)
	if err != nil {
		logger.Error("Failed to open local cache", "error", err, "path", cfg.CacheDBPath)
		os.Exit(1)
	}
	defer localCache.Close()

	var remoteClient remote.StoreClient
	switch cfg.RemoteBackend {
	case "rest":
		remoteClient = remoterest.New(cfg.RemoteURL, cfg.RemoteAPIKey, cfg.RemoteTable)
		logger.Info("Initialized REST remote store", "url", cfg.RemoteURL, "table", cfg.RemoteTable)
	case "memory":
		remoteClient = remotemem.New()
		logger.Info("Initialized in-memory remote store")
	default:
		logger.Info("Remote sync disabled")
	}

	var provider identity.Provider
	switch cfg.IdentityBackend {
	case "google":
		verifier, err := idgoogle.NewFromEnv()
		if err != nil {
			logger.Error("Failed to initialize Google identity provider", "error", err)
			os.Exit(1)
		}
		provider = verifier
		logger.Info("Initialized Google identity provider")
	default:
		static := idstatic.New()
		static.Register(cfg.StaticToken, identity.Session{UserID: cfg.StaticUserID})
		provider = static
		logger.Info("Initialized static identity provider", "user", cfg.StaticUserID)
	}

	// Change notifications are optional; without AMQP the daemon still
	// syncs, it just cannot hear about writes from other devices.
	var amqpClient *events.AMQPClient
	var publisher events.Publisher
	if cfg.AMQPURL != "" {
		amqpClient, err = events.NewAMQPClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		publisher = amqpClient
		logger.Info("Initialized AMQP notifications",
			"exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	coord := session.New(ctx, localCache, remoteClient, publisher,
		session.Config{DebounceWindow: cfg.DebounceWindow})
	defer coord.Close()

	srv := apphttp.NewServer(":"+cfg.Port, coord, provider, logger)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting bilancio server", "port", cfg.Port, "remote", cfg.RemoteBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if amqpClient != nil {
		g.Go(func() error {
			err := amqpClient.ConsumeStoreUpdated(gctx, func(msg *events.StoreUpdatedMessage) error {
				sess, ok := coord.Session()
				if !ok || sess.UserID != msg.UserID {
					return nil
				}
				logger.Info("Remote store changed elsewhere, refreshing", "user_id", msg.UserID)
				return coord.Refresh(gctx)
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}

		// Push any still-debounced edits before exit; a hard kill would
		// lose only the remote copy, never the local one.
		coord.Flush()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
