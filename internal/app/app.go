package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/photofriends/backend/internal/config"
	"github.com/photofriends/backend/internal/db"
	"github.com/photofriends/backend/internal/handlers"
	"github.com/photofriends/backend/internal/httpserver"
	"github.com/photofriends/backend/internal/middleware"
)

// Run bootstraps the PhotoFriends backend application.
func Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("expected command: serve, migrate, or seed")
	}

	switch args[0] {
	case "serve":
		return serve(ctx)
	case "migrate":
		return runMigrations(ctx, args[1:])
	case "seed":
		return runSeed(ctx, args[1:])
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func newLogger(level string) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		AddSource: true,
		Level:     parseLogLevel(level),
	}))
}

func parseLogLevel(level string) slog.Level {
	switch level {
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

func serve(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg.DatabaseURL, db.Options{})
	if err != nil {
		return err
	}
	defer pool.Close()

	deps, cleanup, err := buildDependencies(ctx, pool, cfg, logger)
	if err != nil {
		return err
	}

	srv := httpserver.New(cfg.AppPort, newRouter(deps, cfg, logger, prometheus.DefaultRegisterer))

	logger.Info("starting http server", "port", cfg.AppPort)
	serveErr := httpserver.Run(ctx, srv, cfg.ShutdownTimeout, logger)

	drainCtx, cancel := context.WithTimeout(context.Background(), shutdownBudget(cfg))
	defer cancel()
	if err := cleanup(drainCtx); err != nil {
		logger.Error("asset publisher did not drain", "error", err)
	}

	return serveErr
}

func shutdownBudget(cfg config.Config) time.Duration {
	if cfg.ShutdownTimeout > 0 {
		return cfg.ShutdownTimeout
	}
	return httpserver.DefaultShutdownTimeout
}

func newRouter(deps handlers.Dependencies, cfg config.Config, logger *slog.Logger, reg prometheus.Registerer) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.Metrics(reg))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{"Location", middleware.RequestIDHeader},
		MaxAge:         300,
	}))

	r.Handle("/metrics", promhttp.Handler())
	handlers.RegisterRoutes(r, deps)
	return r
}

func runMigrations(ctx context.Context, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.LogLevel)

	command := "up"
	if len(args) > 0 {
		command = args[0]
	}

	migrationDir := cfg.MigrationDir
	if !filepath.IsAbs(migrationDir) {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("determine working directory: %w", err)
		}
		migrationDir = filepath.Join(wd, migrationDir)
	}

	migrator, err := db.NewMigrator(cfg.DatabaseURL, migrationDir, logger)
	if err != nil {
		return err
	}

	switch command {
	case "up", "":
		return migrator.Up(ctx)
	case "status":
		return migrator.Status(ctx)
	case "down":
		return migrator.Down(ctx)
	default:
		return fmt.Errorf("unknown migrate command %q", command)
	}
}
