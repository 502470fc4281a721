package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"soda/internal/backend"
	"soda/internal/cache"
	"soda/internal/cli"
	"soda/internal/config"
	apphttp "soda/internal/http"
	applog "soda/internal/log"
	"soda/internal/services"
	"soda/internal/session"
)

const maxMemorySessions = 10000

func main() {
	cfg, logger := cli.MustStart("soda")
	ctx := context.Background()

	registry, err := cfg.Registry()
	if err != nil {
		logger.Error("Failed to load users", applog.FieldError, err)
		os.Exit(1)
	}
	pairRates, err := cfg.PairRates()
	if err != nil {
		logger.Error("Failed to parse tax pair rates", applog.FieldError, err)
		os.Exit(1)
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", applog.FieldError, err, applog.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}

	stores, err := newSessionStores(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize session storage", applog.FieldError, err)
		_ = result.Close()
		os.Exit(1)
	}

	summaries := services.NewSummaryService(result.Repository, result.Publisher, logger)
	resolver := session.NewResolver(registry,
		session.WithRememberFor(cfg.RememberFor),
		session.WithLogger(logger))

	srv, err := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Logger:             logger,
		Resolver:           resolver,
		Transient:          stores.transient,
		Remembered:         stores.remembered,
		Summaries:          summaries,
		PairRates:          pairRates,
		LoginRatePerMinute: cfg.LoginRatePerMinute,
		CookieSecure:       cfg.CookieSecure,
		Production:         cfg.Production,
		Ready:              result.Ready,
	})
	if err != nil {
		logger.Error("Failed to create HTTP server", applog.FieldError, err)
		os.Exit(1)
	}
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	_, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.ErrorContext(ctx, "Server shutdown error", applog.FieldError, err)
		}
		stores.close()
		if err := result.Close(); err != nil {
			logger.ErrorContext(ctx, "Backend cleanup error", applog.FieldError, err)
		}
	})

	logger.Info("Starting soda server",
		"port", cfg.Port,
		applog.FieldBackend, cfg.DataBackend,
		"sessions", stores.kind)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-done
	logger.Info("Server stopped gracefully")
}

type sessionStores struct {
	kind       string
	transient  session.Store
	remembered session.Store
	close      func()
}

// newSessionStores uses Redis when REDIS_ADDR is set so sessions survive a
// restart, and process memory otherwise.
func newSessionStores(ctx context.Context, cfg *config.Config, logger *applog.Logger) (*sessionStores, error) {
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		transient := session.NewRedisStore(client, "soda:session:", cfg.SessionTTL)
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := transient.Ping(pingCtx); err != nil {
			_ = client.Close()
			return nil, err
		}
		logger.Info("Using Redis session storage", "addr", cfg.RedisAddr)
		return &sessionStores{
			kind:       "redis",
			transient:  transient,
			remembered: session.NewRedisStore(client, "soda:session:", cfg.RememberFor),
			close: func() {
				if err := client.Close(); err != nil {
					logger.Warn("Closing Redis client failed", applog.FieldError, err)
				}
			},
		}, nil
	}

	transient := session.NewMemoryStore(maxMemorySessions, cfg.SessionTTL)
	remembered := session.NewMemoryStore(maxMemorySessions, cfg.RememberFor)

	manager := cache.NewManager(func(removed int) {
		logger.Debug("Expired sessions removed", applog.FieldCount, removed)
	})
	manager.Register(transient.Cache())
	manager.Register(remembered.Cache())
	manager.StartCleanup(5 * time.Minute)

	logger.Info("Using in-memory session storage")
	return &sessionStores{
		kind:       "memory",
		transient:  transient,
		remembered: remembered,
		close:      manager.Stop,
	}, nil
}
