package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/bimakw/token-explorer/internal/application/services"
	"github.com/bimakw/token-explorer/internal/config"
	"github.com/bimakw/token-explorer/internal/infrastructure/cache"
	"github.com/bimakw/token-explorer/internal/infrastructure/database"
	"github.com/bimakw/token-explorer/internal/logging"
	"github.com/bimakw/token-explorer/internal/presentation/handlers"
	"github.com/bimakw/token-explorer/internal/presentation/middleware"
)

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

	logger.Info("Starting token-explorer API",
		zap.Int("port", cfg.API.Port),
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

	// Connect to Redis cache (optional)
	redisCache, err := cache.NewRedisCache(cfg.Redis, cfg.API.CacheTTL, logger)
	if err != nil {
		logger.Warn("Failed to connect to Redis, running without cache", zap.Error(err))
		redisCache = nil
	} else {
		defer redisCache.Close()
	}

	// Create repositories
	tokenRepo := database.NewTokenRepo(db.DB())
	transferRepo := database.NewTransferRepo(db.DB())
	portfolioRepo := database.NewPortfolioRepo(db.DB())
	rateRepo := database.NewExchangeRateRepo(db.DB())

	// Create services
	exchangeService := services.NewExchangeService(rateRepo, redisCache, cfg.PriceFeed.CacheTTL, logger)
	tokenService := services.NewTokenService(tokenRepo, redisCache, logger)
	holdersService := services.NewHoldersService(transferRepo, tokenRepo, exchangeService, redisCache, logger)
	portfolioService := services.NewPortfolioService(
		portfolioRepo,
		exchangeService,
		redisCache,
		cfg.API.PortfolioTTL,
		cfg.PriceFeed.VsCurrency,
		logger,
	)

	// Create handlers
	tokenHandler := handlers.NewTokenHandler(tokenService, logger)
	holdersHandler := handlers.NewHoldersHandler(holdersService, logger)
	portfolioHandler := handlers.NewPortfolioHandler(portfolioService, logger)
	exchangeRateHandler := handlers.NewExchangeRateHandler(exchangeService, logger)

	// A nil *RedisCache inside the interface would not compare equal to nil
	var cacheChecker handlers.HealthChecker
	if redisCache != nil {
		cacheChecker = redisCache
	}
	healthHandler := handlers.NewHealthHandler(db, cacheChecker).
		WithPriceFeed(exchangeService, cfg.API.PriceStaleAfter)

	// Setup router
	r := chi.NewRouter()

	// Middleware stack
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics())
	r.Use(chimiddleware.Recoverer)

	// Health endpoints (no rate limiting)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)
	r.Get("/live", healthHandler.Live)
	r.Handle("/metrics", promhttp.Handler())

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimiter(cfg.API.RateLimitRPS))

		tokenHandler.RegisterRoutes(r)
		r.Get("/tokens/{address}/holders", holdersHandler.GetTopHolders)
		r.Get("/tokens/{address}/holders/{holder_address}", holdersHandler.GetHolderBalance)
		portfolioHandler.RegisterRoutes(r)
		exchangeRateHandler.RegisterRoutes(r)
	})

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.API.ReadTimeout,
		WriteTimeout: cfg.API.WriteTimeout,
	}

	// Run server in goroutine
	go func() {
		logger.Info("API server starting", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server error", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("Received shutdown signal, shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), cfg.API.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
	}

	logger.Info("Server stopped")
}
