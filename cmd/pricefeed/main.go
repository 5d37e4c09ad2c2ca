package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/bimakw/token-explorer/internal/application/services"
	"github.com/bimakw/token-explorer/internal/config"
	"github.com/bimakw/token-explorer/internal/infrastructure/cache"
	"github.com/bimakw/token-explorer/internal/infrastructure/database"
	"github.com/bimakw/token-explorer/internal/infrastructure/pricefeed"
	"github.com/bimakw/token-explorer/internal/logging"
)

const refreshJob = "exchange-rates"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	logger, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting price feed",
		zap.String("schedule", cfg.PriceFeed.Schedule),
		zap.String("platform", cfg.PriceFeed.Platform),
		zap.String("currency", cfg.PriceFeed.VsCurrency),
	)

	// Connect to database
	db, err := database.NewPostgresDB(cfg.Database, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := db.Migrate(context.Background()); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}

	// Redis is only used to drop stale price lookups after a refresh
	redisCache, err := cache.NewRedisCache(cfg.Redis, cfg.PriceFeed.CacheTTL, logger)
	if err != nil {
		logger.Warn("Failed to connect to Redis, running without cache", zap.Error(err))
		redisCache = nil
	} else {
		defer redisCache.Close()
	}

	tokenRepo := database.NewTokenRepo(db.DB())
	rateRepo := database.NewExchangeRateRepo(db.DB())

	source := pricefeed.NewCoinGecko(cfg.PriceFeed, logger)
	feed := services.NewPriceFeedService(source, tokenRepo, rateRepo, redisCache, cfg.PriceFeed, logger)

	scheduler := services.NewScheduler(cfg.PriceFeed.Timeout, logger)
	err = scheduler.AddJob(refreshJob, cfg.PriceFeed.Schedule, func(ctx context.Context) error {
		_, err := feed.Refresh(ctx)
		return err
	})
	if err != nil {
		logger.Fatal("Failed to schedule price refresh", zap.Error(err))
	}

	// Populate the table right away instead of waiting for the first tick
	if err := scheduler.RunNow(refreshJob); err != nil {
		logger.Warn("Initial price refresh failed", zap.Error(err))
	}
	scheduler.Start()

	go startMetricsServer(cfg.PriceFeed.MetricsPort, logger)

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("Received shutdown signal, stopping price feed...")

	scheduler.Stop()

	logger.Info("Price feed stopped")
}

func startMetricsServer(port int, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	addr := fmt.Sprintf(":%d", port)
	logger.Info("Starting metrics server", zap.String("addr", addr))

	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Metrics server error", zap.Error(err))
	}
}
