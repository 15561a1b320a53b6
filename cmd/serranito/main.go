// Copyright (c) 2025-2026 Serranito Society contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"

	"github.com/serranito-society/serranito/internal/cache"
	"github.com/serranito-society/serranito/internal/config"
	"github.com/serranito-society/serranito/internal/handler"
	"github.com/serranito-society/serranito/internal/handler/api"
	"github.com/serranito-society/serranito/internal/logging"
	"github.com/serranito-society/serranito/internal/middleware"
	"github.com/serranito-society/serranito/internal/scheduler"
	"github.com/serranito-society/serranito/internal/service"
	"github.com/serranito-society/serranito/internal/store"
	"github.com/serranito-society/serranito/internal/version"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "serranito - Serranito Society API server\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  SERRANITO_DB_DRIVER          sqlite|pgx (default: sqlite)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  SERRANITO_DB_URL             Database path or DSN (default: ./data/serranito.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  SERRANITO_SERVICE_ROLE_KEY   Elevated store credential for admin writes (min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  SERRANITO_IDENTITY_HEADER    Header carrying the caller's email (default: X-User-Email)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  SERRANITO_SERVER_PORT        Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  SERRANITO_ENV                development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  SERRANITO_TRUST_PROXY        Read the client IP from proxy headers (default false)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  SERRANITO_REDIS_URL          Redis URL for the post-list cache (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  SERRANITO_CACHE_REQUIRE_SHARED  Never use the per-process cache (set when replicated)\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if *showVersion {
		_, _ = fmt.Printf("serranito %s\n", version.Get())
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func parseLogLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func run() error {
	// Load .env files if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel := parseLogLevel(cfg.LogLevel)
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	if cfg.DBDriver == config.DriverSQLite {
		if err := os.MkdirAll(filepath.Dir(cfg.DBURL), 0o755); err != nil {
			return fmt.Errorf("creating data directory: %w", err)
		}
	}

	slog.Info("initializing database", "driver", cfg.DBDriver)
	db, err := store.NewDB(cfg.DBDriver, cfg.DBURL)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sqlx.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	// Upgrade logger to also write WARN and ERROR logs to the event log
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(logging.NewEventLogHandler(textHandler, store.New(db))))
	slog.Info("event log integration enabled", "min_level", "warn")

	ctx := context.Background()
	if err := store.Seed(ctx, db, store.SeedOptions{ServiceRoleKey: cfg.ServiceRoleKey}); err != nil {
		return fmt.Errorf("seeding database: %w", err)
	}

	postCacheBackend := cache.New(ctx, cache.Config{
		RedisURL:      cfg.RedisURL,
		Prefix:        cfg.CachePrefix,
		DefaultTTL:    time.Duration(cfg.CacheTTL) * time.Second,
		MaxSize:       cfg.CacheMaxSize,
		RequireShared: cfg.CacheRequireShared,
	})
	defer func() { _ = postCacheBackend.Close() }()
	postCache := cache.NewPostListCache(postCacheBackend, time.Duration(cfg.CacheTTL)*time.Second)

	sched := scheduler.New(slog.Default())
	if err := sched.RegisterEventRetention(store.NewProvisioning(db), cfg.RetentionSchedule, cfg.EventRetentionDays); err != nil {
		return fmt.Errorf("scheduling event retention: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	loginProtection := middleware.NewLoginProtection(middleware.LoginProtectionConfig{
		IPRateLimit: cfg.LoginRateLimit,
		IPBurst:     cfg.LoginBurst,
	})
	defer loginProtection.Close()

	apiHandler := api.NewHandler(db, api.Options{
		ServiceRoleKey:  cfg.ServiceRoleKey,
		IdentityHeader:  cfg.IdentityHeader,
		PostCache:       postCache,
		LoginProtection: loginProtection,
	})
	healthHandler := handler.NewHealthHandler(db, postCacheBackend,
		service.NewIdentityResolver(store.New(db)), cfg.IdentityHeader)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	if cfg.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RateLimit(20, 40))
	r.Use(middleware.Timeout(30*time.Second, api.AdminPostsPath))
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())))

	r.Get("/health", healthHandler.Health)
	r.Get("/health/live", healthHandler.Liveness)
	r.Get("/health/ready", healthHandler.Readiness)

	apiHandler.Routes(r, loginProtection.Middleware())

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env, "version", version.Get().String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
