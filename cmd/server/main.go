package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ikkim/storefront-backend/config"
	"github.com/ikkim/storefront-backend/internal/app/controller"
	"github.com/ikkim/storefront-backend/internal/app/repository"
	"github.com/ikkim/storefront-backend/internal/app/service"
	"github.com/ikkim/storefront-backend/internal/db"
	"github.com/ikkim/storefront-backend/internal/events"
	"github.com/ikkim/storefront-backend/internal/middleware"
	"github.com/ikkim/storefront-backend/internal/router"
	"github.com/ikkim/storefront-backend/internal/scheduler"
	"github.com/ikkim/storefront-backend/internal/storage"
	"github.com/ikkim/storefront-backend/internal/websocket"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"github.com/ikkim/storefront-backend/pkg/redis"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := "info"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
	}
	logFormat := "console"
	if cfg.Server.Environment == "production" {
		logFormat = "json"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      logFormat,
		EnableColor: logFormat == "console",
	})

	logger.Info("Starting storefront backend server", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database
	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	// Run migrations
	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	// Product cache (optional)
	var productCache service.ProductCache
	if cfg.Redis.Enabled {
		if err := redis.Init(&cfg.Redis); err != nil {
			logger.Warn("Redis unavailable, product cache disabled", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			productCache = redis.NewProductCache(redis.GetClient(), cfg.Redis.CacheTTL)
			defer func() {
				if err := redis.Close(); err != nil {
					logger.Error("Failed to close Redis connection", err)
				}
			}()
		}
	}

	// Order notifications: WebSocket stream always, Kafka when configured
	hub := websocket.NewHub()
	go hub.Run(ctx)

	notifiers := service.MultiNotifier{hub}
	if len(cfg.Kafka.Brokers) > 0 {
		publisher := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.OrderTopic)
		notifiers = append(notifiers, publisher)
		defer func() {
			if err := publisher.Close(); err != nil {
				logger.Error("Failed to close Kafka publisher", err)
			}
		}()
		logger.Info("Kafka order events enabled", map[string]interface{}{
			"brokers": cfg.Kafka.Brokers,
			"topic":   cfg.Kafka.OrderTopic,
		})
	}

	// Product image uploads (optional)
	var presigner controller.ImagePresigner
	if cfg.S3.Enabled() {
		presigner = storage.NewS3Storage(ctx, cfg.S3)
		logger.Info("S3 image uploads enabled", map[string]interface{}{
			"bucket": cfg.S3.Bucket,
			"region": cfg.S3.Region,
		})
	}

	// Initialize repositories
	productRepo := repository.NewProductRepository(db.GetDB())
	cartRepo := repository.NewCartRepository(db.GetDB())
	orderRepo := repository.NewOrderRepository(db.GetDB())

	// Initialize services
	productService := service.NewProductService(db.GetDB(), productRepo, productCache)
	cartService := service.NewCartService(cartRepo, productRepo)
	orderService := service.NewOrderService(
		db.GetDB(),
		orderRepo,
		productRepo,
		service.WithOrderNotifier(notifiers),
		service.WithProductCache(productCache),
	)

	if cfg.Catalog.SeedOnStartup {
		if _, err := productService.SeedCatalog(ctx); err != nil {
			logger.Warn("Failed to seed catalog", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	// Low stock job (optional)
	if cfg.Catalog.LowStockCron != "" {
		lowStock := scheduler.NewLowStockScheduler(productService, cfg.Catalog.LowStockCron, cfg.Catalog.LowStockThreshold)
		if err := lowStock.Start(); err != nil {
			logger.Warn("Low stock scheduler not started", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			defer lowStock.Stop()
		}
	}

	// Initialize controllers
	productController := controller.NewProductController(productService)
	cartController := controller.NewCartController(cartService)
	orderController := controller.NewOrderController(orderService, hub)
	uploadController := controller.NewUploadController(presigner)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg.Admin.JWTSecret)
	if !authMiddleware.Enabled() {
		logger.Warn("ADMIN_JWT_SECRET not set, catalog writes are unauthenticated")
	}

	// Setup router
	r := router.NewRouter(
		productController,
		cartController,
		orderController,
		uploadController,
		authMiddleware,
		cfg,
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           r.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": srv.Addr,
			"pid":     os.Getpid(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", err)
	}

	logger.Info("Server stopped successfully")
}
