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
	"go.uber.org/zap/zapcore"

	"github.com/rmaulana/pocketpay/internal/application/services"
	"github.com/rmaulana/pocketpay/internal/config"
	"github.com/rmaulana/pocketpay/internal/infrastructure/auth"
	"github.com/rmaulana/pocketpay/internal/infrastructure/cache"
	"github.com/rmaulana/pocketpay/internal/infrastructure/database"
	"github.com/rmaulana/pocketpay/internal/infrastructure/ethereum"
	"github.com/rmaulana/pocketpay/internal/infrastructure/push"
	"github.com/rmaulana/pocketpay/internal/presentation/handlers"
	"github.com/rmaulana/pocketpay/internal/presentation/middleware"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	logger := setupLogger(cfg.Log.Level)
	defer logger.Sync()

	logger.Info("Starting pocketpay API",
		zap.Int("port", cfg.API.Port),
	)

	// Connect to database
	db, err := database.NewPostgresDB(cfg.Database, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Connect to Redis cache (optional)
	var redisCache *cache.RedisCache
	redisCache, err = cache.NewRedisCache(cfg.Redis, cfg.API.CacheTTL, logger)
	if err != nil {
		logger.Warn("Failed to connect to Redis, running without cache", zap.Error(err))
		redisCache = nil
	} else {
		defer redisCache.Close()
	}

	// Connect to the rollup node
	chainClient, err := ethereum.NewClient(cfg.Chain, logger)
	if err != nil {
		logger.Fatal("Failed to connect to rollup node", zap.Error(err))
	}
	defer chainClient.Close()

	// External collaborators
	pushClient := push.NewClient(cfg.Push, logger)
	verifier := auth.NewHTTPVerifier(cfg.Auth, logger)

	// Create repositories
	txRepo := database.NewTransactionRepo(db.DB())
	walletRepo := database.NewWalletRepo(db.DB())
	userRepo := database.NewUserRepo(db.DB())
	tokenRepo := database.NewDeviceTokenRepo(db.DB())
	requestRepo := database.NewPaymentRequestRepo(db.DB())
	friendRepo := database.NewFriendshipRepo(db.DB())

	// Create services
	resolver := services.NewIdentityResolver(walletRepo, userRepo, redisCache, logger)
	notifier := services.NewNotificationDispatcher(tokenRepo, pushClient, logger)
	engine := services.NewReconciliationEngine(resolver, txRepo, walletRepo, chainClient, notifier, logger)
	transferService := services.NewTransferService(chainClient, resolver, txRepo, walletRepo, requestRepo, "USDC", logger)
	requestService := services.NewPaymentRequestService(requestRepo, userRepo, notifier, logger)
	friendService := services.NewFriendshipService(friendRepo, userRepo, notifier, logger)

	// Create handlers
	webhookHandler := handlers.NewWebhookHandler(engine, cfg.Webhook, middleware.NewWebhookMetrics(), logger)
	accountHandler := handlers.NewAccountHandler(transferService, logger)
	transactionHandler := handlers.NewTransactionHandler(transferService, logger)
	requestHandler := handlers.NewPaymentRequestHandler(requestService, logger)
	friendHandler := handlers.NewFriendshipHandler(friendService, logger)
	userHandler := handlers.NewUserHandler(userRepo, tokenRepo, logger)

	var cacheChecker handlers.HealthChecker
	if redisCache != nil {
		cacheChecker = redisCache
	}
	healthHandler := handlers.NewHealthHandler(db, cacheChecker)

	// Setup router
	r := chi.NewRouter()

	// Middleware stack
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics())
	r.Use(chimiddleware.Recoverer)

	// Health endpoints and webhook ingress (no auth, no rate limiting)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)
	r.Get("/live", healthHandler.Live)
	r.Handle("/metrics", promhttp.Handler())
	webhookHandler.RegisterRoutes(r)

	// Authenticated API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimiter(cfg.API.RateLimitRPS))
		r.Use(middleware.Auth(verifier, logger))
		accountHandler.RegisterRoutes(r)
		transactionHandler.RegisterRoutes(r)
		requestHandler.RegisterRoutes(r)
		friendHandler.RegisterRoutes(r)
		userHandler.RegisterRoutes(r)
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

func setupLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      false,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, _ := config.Build()
	return logger
}
