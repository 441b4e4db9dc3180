// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/templates/go-microblog/internal/admin"
	"github.com/carterperez-dev/templates/go-microblog/internal/auth"
	"github.com/carterperez-dev/templates/go-microblog/internal/config"
	"github.com/carterperez-dev/templates/go-microblog/internal/core"
	"github.com/carterperez-dev/templates/go-microblog/internal/health"
	"github.com/carterperez-dev/templates/go-microblog/internal/middleware"
	"github.com/carterperez-dev/templates/go-microblog/internal/post"
	"github.com/carterperez-dev/templates/go-microblog/internal/role"
	"github.com/carterperez-dev/templates/go-microblog/internal/server"
	"github.com/carterperez-dev/templates/go-microblog/internal/session"
	"github.com/carterperez-dev/templates/go-microblog/internal/user"
)

const (
	drainDelay = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	telemetry, err := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
	if err != nil {
		logger.Warn("failed to initialize telemetry", "error", err)
	} else if cfg.Otel.Enabled {
		logger.Info("OpenTelemetry exporter initialized",
			"endpoint", cfg.Otel.Endpoint,
		)
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("database close error", "error", err)
		}
	}()
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	if err := db.ApplySchema(ctx); err != nil {
		return err
	}

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer func() {
		if err := redis.Close(); err != nil {
			logger.Error("redis close error", "error", err)
		}
	}()
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	roleSvc := role.NewService(
		role.NewRepository(db.DB),
		role.WithTransactions(db.DB),
	)
	if err := roleSvc.Seed(ctx); err != nil {
		return fmt.Errorf("seed roles: %w", err)
	}
	logger.Info("roles seeded")

	if err := auth.EnsureKeyPair(cfg.Remember); err != nil {
		return err
	}

	remember, err := auth.NewRememberManager(cfg.Remember,
		auth.WithSecureCookie(cfg.Session.Secure),
		auth.WithRevocation(redis.Client),
	)
	if err != nil {
		return err
	}
	logger.Info("remember-me tokens enabled",
		"algorithm", "ES256",
		"expire", cfg.Remember.Expire,
	)

	sessions := session.NewManager(redis.Client, cfg.Session)

	postSvc := post.NewService(post.NewRepository(db.DB))
	postHandler := post.NewHandler(postSvc)

	userSvc := user.NewService(
		user.NewRepository(db.DB),
		roleSvc,
		user.WithAdminEmail(cfg.App.AdminEmail),
	)
	userHandler := user.NewHandler(userSvc, postSvc)

	authSvc := auth.NewService(userSvc)
	authHandler := auth.NewHandler(authSvc, sessions, remember)

	roleHandler := role.NewHandler(roleSvc)

	healthHandler := health.NewHandler(
		health.Dependency{Name: "database", Checker: db},
		health.Dependency{Name: "redis", Checker: redis},
	)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		Database: db,
		Redis:    redis,
		Users:    userSvc,
		Posts:    postSvc,
	})

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	healthHandler.RegisterRoutes(router)

	router.Group(func(r chi.Router) {
		r.Use(middleware.RequestID)
		r.Use(middleware.Trace)
		r.Use(middleware.SecurityHeaders(cfg.IsProduction()))
		r.Use(middleware.Logger(logger))
		r.Use(sessions.Middleware)
		r.Use(middleware.ResolveIdentity(userSvc, sessions, remember))
		r.Use(
			middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
				Limit: middleware.Per(
					cfg.RateLimit.Requests,
					cfg.RateLimit.Burst,
					cfg.RateLimit.Window,
				),
				KeyFunc:       middleware.KeyByUser,
				LocalFallback: true,
			}).Handler,
		)

		requireLogin := middleware.RequireLogin(auth.LoginPath)
		adminOnly := middleware.RequireAdmin(auth.LoginPath)
		moderatorOnly := middleware.RequirePermission(auth.LoginPath, role.Moderate)
		loginLimit := middleware.LoginRateLimit(
			cfg.LoginRateLimit.Attempts,
			cfg.LoginRateLimit.Window,
		)

		postHandler.RegisterRoutes(r, requireLogin)
		authHandler.RegisterRoutes(r, requireLogin, loginLimit)
		userHandler.RegisterRoutes(r, requireLogin)
		roleHandler.RegisterRoutes(r, adminOnly)
		adminHandler.RegisterRoutes(r, adminOnly, moderatorOnly)
	})

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	logger.Info("application stopped")
	return nil
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
