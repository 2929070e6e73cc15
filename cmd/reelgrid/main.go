package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/reelgrid/reelgrid/internal/api"
	"github.com/reelgrid/reelgrid/internal/auth"
	"github.com/reelgrid/reelgrid/internal/catalog"
	"github.com/reelgrid/reelgrid/internal/config"
	"github.com/reelgrid/reelgrid/internal/generate"
	"github.com/reelgrid/reelgrid/internal/metrics"
	"github.com/reelgrid/reelgrid/internal/moderation"
	"github.com/reelgrid/reelgrid/internal/ratelimit"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	flag.Parse()

	// Setup structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	slog.Info("Starting reelgrid", "config", *configPath)

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	if cfg.Auth.Secret == "" {
		slog.Error("auth.secret must be configured; operator endpoints cannot be gated without it")
		os.Exit(1)
	}

	// Ensure required directories exist
	if err := cfg.EnsureDirectories(); err != nil {
		slog.Error("Failed to create directories", "error", err)
		os.Exit(1)
	}

	// Initialize database
	db, err := catalog.NewDB(cfg.Database.Path)
	if err != nil {
		slog.Error("Failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("Database initialized", "path", cfg.Database.Path)

	// Initialize repositories and services
	recordRepo := catalog.NewRecordRepository(db)
	episodeRepo := catalog.NewEpisodeRepository(db)
	moderationSvc := moderation.NewService(recordRepo)
	generator := generate.NewService(recordRepo, generate.NewTemplateSynthesizer(), cfg.Generation.MaxBatch)

	// Metrics registry with process/go collectors
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)
	metricsServer := metrics.NewServer(cfg.Server.MetricsPort, registry)

	// Rate limiter: redis-backed when configured, in-memory otherwise
	var limiter *ratelimit.Limiter
	if cfg.RateLimit.Enabled {
		var store ratelimit.CounterStore
		if cfg.RateLimit.RedisAddr != "" {
			store = ratelimit.NewRedisStore(&redis.Options{Addr: cfg.RateLimit.RedisAddr})
			slog.Info("Rate limiter using redis counter store", "addr", cfg.RateLimit.RedisAddr)
		} else {
			store = ratelimit.NewMemoryStore()
			slog.Info("Rate limiter using in-memory counter store")
		}
		limiter = ratelimit.NewLimiter(store, cfg.RateLimit.Requests, cfg.RateLimitWindow())
	}

	jwt := auth.JWT{
		Secret:   []byte(cfg.Auth.Secret),
		TokenTTL: cfg.TokenTTLDuration(),
	}

	apiServer := api.NewServer(recordRepo, episodeRepo, moderationSvc, generator, jwt, limiter, m)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler: apiServer.Handler(),
	}

	// Start servers in goroutines
	go func() {
		slog.Info("Starting REST API server", "port", cfg.Server.HTTPPort)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("REST API server error", "error", err)
		}
	}()

	go func() {
		if err := metricsServer.Start(); err != nil {
			slog.Error("Metrics server error", "error", err)
		}
	}()

	slog.Info("reelgrid is ready",
		"api_url", fmt.Sprintf("http://localhost:%d/api", cfg.Server.HTTPPort),
		"metrics_url", fmt.Sprintf("http://localhost:%d/metrics", cfg.Server.MetricsPort),
	)

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	slog.Info("Received signal, shutting down", "signal", sig)

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("REST API server shutdown error", "error", err)
	}
	if err := metricsServer.Shutdown(ctx); err != nil {
		slog.Error("Metrics server shutdown error", "error", err)
	}

	slog.Info("reelgrid stopped")
}
