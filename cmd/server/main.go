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
	"syscall"
	"time"

	"github.com/iudanet/schoolsync/internal/models"
	"github.com/iudanet/schoolsync/internal/server/handlers"
	"github.com/iudanet/schoolsync/internal/server/middleware"
	"github.com/iudanet/schoolsync/internal/server/storage/sqlite"
	serversync "github.com/iudanet/schoolsync/internal/server/sync"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

const (
	accessTokenTTL  = 15 * time.Minute
	refreshTokenTTL = 30 * 24 * time.Hour

	authRateLimit       = 10 // запросов на IP в окно
	authRateLimitWindow = time.Minute

	tokenCleanupInterval = time.Hour
)

// envOrDefault возвращает значение переменной окружения или значение по умолчанию
func envOrDefault(key, def string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return def
}

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	addr := flag.String("addr", envOrDefault("SCHOOLSYNC_ADDR", ":8080"), "HTTP listen address")
	dbPath := flag.String("db", envOrDefault("SCHOOLSYNC_DB", "schoolsync.db"), "Path to SQLite database")
	jwtSecret := flag.String("jwt-secret", os.Getenv("SCHOOLSYNC_JWT_SECRET"), "JWT signing secret")
	logLevel := flag.String("log-level", envOrDefault("SCHOOLSYNC_LOG_LEVEL", "info"), "Log level (debug, info, warn, error)")
	logJSON := flag.Bool("log-json", os.Getenv("SCHOOLSYNC_LOG_JSON") == "true", "Log in JSON format")
	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	logger := newLogger(*logLevel, *logJSON)

	if *jwtSecret == "" {
		logger.Error("JWT secret is required (set SCHOOLSYNC_JWT_SECRET or -jwt-secret)")
		os.Exit(1)
	}

	if err := run(logger, *addr, *dbPath, *jwtSecret); err != nil {
		logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, addr, dbPath, jwtSecret string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := sqlite.New(ctx, dbPath)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close storage", "error", err)
		}
	}()

	// Репозиторий на каждый синхронизируемый тип сущности
	registry := serversync.NewRegistry()
	for _, entityType := range models.EntityTypes {
		repo, err := store.EntityRepo(entityType)
		if err != nil {
			return fmt.Errorf("failed to build repository for %s: %w", entityType, err)
		}
		registry.Register(repo)
	}
	logger.Info("entity repositories registered", "types", registry.Types())

	pullService := serversync.NewPullService(logger, store, registry)
	pushService := serversync.NewPushService(logger, registry)

	jwtConfig := handlers.JWTConfig{
		Secret:          []byte(jwtSecret),
		AccessTokenTTL:  accessTokenTTL,
		RefreshTokenTTL: refreshTokenTTL,
	}

	authHandler := handlers.NewAuthHandler(logger, store, store, jwtConfig)
	syncHandler := handlers.NewSyncHandler(logger, pullService, pushService)
	healthHandler := handlers.NewHealthHandler(logger, store.DB(), Version)

	authMw := middleware.AuthMiddleware(logger, jwtConfig)
	rateLimitMw := middleware.RateLimitMiddleware(authRateLimit, authRateLimitWindow, logger)

	mux := http.NewServeMux()
	mux.Handle("/api/v1/auth/register", rateLimitMw(http.HandlerFunc(authHandler.Register)))
	mux.Handle("/api/v1/auth/login", rateLimitMw(http.HandlerFunc(authHandler.Login)))
	mux.Handle("/api/v1/auth/refresh", rateLimitMw(http.HandlerFunc(authHandler.Refresh)))
	mux.Handle("/api/v1/auth/logout", rateLimitMw(http.HandlerFunc(authHandler.Logout)))
	mux.Handle("/api/v1/sync", authMw(http.HandlerFunc(syncHandler.HandleSync)))
	mux.HandleFunc("/healthz", healthHandler.Health)

	// Внешние middleware: recovery снаружи, чтобы ловить панику логирования тоже
	handler := middleware.RecoveryMiddleware(logger)(
		middleware.LoggingWithSkip(logger, []string{"/healthz"})(mux),
	)

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Фоновая чистка истекших refresh token
	go cleanupExpiredTokens(ctx, logger, store)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr, "version", Version)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	return nil
}

// cleanupExpiredTokens периодически удаляет истекшие refresh token
func cleanupExpiredTokens(ctx context.Context, logger *slog.Logger, store *sqlite.Storage) {
	ticker := time.NewTicker(tokenCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := store.DeleteExpiredTokens(ctx)
			if err != nil {
				logger.Error("failed to delete expired tokens", "error", err)
				continue
			}
			if deleted > 0 {
				logger.Info("deleted expired refresh tokens", "count", deleted)
			}
		}
	}
}

func newLogger(level string, jsonFormat bool) *slog.Logger {
	var slogLevel slog.Level
	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: slogLevel}

	var handler slog.Handler
	if jsonFormat {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}

func printVersion() {
	fmt.Printf("SchoolSync Server\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
