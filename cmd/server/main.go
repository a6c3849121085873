package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"TechNotesWebserver/internal/config"
	"TechNotesWebserver/internal/eventlog"
	"TechNotesWebserver/internal/httpapi"
	"TechNotesWebserver/internal/ratelimit"
	"TechNotesWebserver/internal/service"
	"TechNotesWebserver/internal/store/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	logger := newLogger(cfg)

	var (
		usersSvc *service.UsersService
		dbPing   func(context.Context) error
	)

	if cfg.DBDSN != "" {
		pool, err := postgres.Open(context.Background(), cfg.DBDSN)
		if err != nil {
			logger.Error("db open failed", "err", err)
			os.Exit(1)
		}
		defer pool.Close()

		if err := postgres.Migrate(context.Background(), pool, logger); err != nil {
			logger.Error("migrations failed", "err", err)
			os.Exit(1)
		}

		usersSvc = &service.UsersService{
			Users: postgres.NewUsersStore(pool),
			Notes: postgres.NewNotesStore(pool),
		}
		dbPing = pool.Ping
	} else {
		logger.Warn("no APP_DB_DSN set, user directory disabled")
	}

	limiter := newLimiter(cfg, logger)
	defer limiter.Close()

	router := httpapi.NewRouter(httpapi.RouterOpts{
		Logger:           logger,
		IsProd:           cfg.IsProd(),
		DBPing:           dbPing,
		Users:            usersSvc,
		Limiter:          limiter,
		AuditLog:         eventlog.New(cfg.ErrLogPath),
		LoginMaxAttempts: cfg.LoginMaxAttempts,
		LoginWindow:      cfg.LoginWindow,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "env", cfg.Env, "addr", cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "err", err)
			os.Exit(1)
		}
	}
}

func newLimiter(cfg config.Config, logger *slog.Logger) ratelimit.Limiter {
	if cfg.ThrottleRedisAddr != "" {
		l, err := ratelimit.NewRedisLimiter(cfg.ThrottleRedisAddr, cfg.ThrottleRedisPassword, cfg.ThrottleRedisDB, logger)
		if err == nil {
			logger.Info("login throttle backed by redis", "addr", cfg.ThrottleRedisAddr)
			return l
		}
		logger.Error("redis limiter unavailable, falling back to memory", "err", err)
	}
	return ratelimit.NewMemoryLimiter()
}

func newLogger(cfg config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "info", "":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.IsProd() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
