package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"catalogd/internal/caching"
	"catalogd/internal/config"
	"catalogd/internal/handlers"
	"catalogd/internal/jobs/background"
	"catalogd/internal/messaging"
	"catalogd/internal/repositories"
	"catalogd/internal/services"
	"catalogd/internal/storage"
	"catalogd/pkg/database"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}
	if cfg.DatabaseURL == "" {
		logger.Fatal("DATABASE_URL environment variable is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := database.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	// Backend selection happens exactly once, here.
	var store storage.ObjectStorage
	if cfg.Storage.Cloud {
		store, err = storage.NewS3Store(cfg.Storage.AccessKey, cfg.Storage.SecretKey, cfg.Storage.Region, cfg.Storage.Bucket)
	} else {
		store, err = storage.NewMinioStore(cfg.Storage.Endpoint, cfg.Storage.PublicURL, cfg.Storage.AccessKey, cfg.Storage.SecretKey, cfg.Storage.Region, cfg.Storage.Bucket, cfg.Storage.UseSSL)
	}
	if err != nil {
		logger.Fatal("Failed to initialize object storage", zap.Error(err))
	}

	cacheSvc := caching.NewRedisCacheService(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)

	productRepo := repositories.NewProductRepo(pool)
	inventoryRepo := repositories.NewInventoryRepo(pool)

	inventorySvc := services.NewInventoryService(inventoryRepo, cacheSvc, logger)
	catalogSvc := services.NewCatalogService(productRepo, store, cacheSvc, logger)

	consumer, err := messaging.NewConsumer(&cfg.RabbitMQ, inventorySvc, logger)
	if err != nil {
		logger.Fatal("Failed to start AMQP consumer", zap.Error(err))
	}
	defer consumer.Close()

	go func() {
		if err := consumer.Start(ctx); err != nil {
			logger.Error("Listener stopped with error", zap.Error(err))
			stop()
		}
	}()

	scheduler, err := background.NewJobScheduler(inventoryRepo, cfg.LowStockThreshold, logger)
	if err != nil {
		logger.Fatal("Failed to create job scheduler", zap.Error(err))
	}
	scheduler.Start()
	defer scheduler.Stop()

	productHandlers := handlers.NewProductHandlers(catalogSvc, inventorySvc)
	healthHandlers := handlers.NewHealthHandlers(pool, cacheSvc)

	e := echo.New()
	e.HideBanner = true
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.RemoveTrailingSlash())

	e.GET("/health", healthHandlers.HealthCheck)
	e.GET("/health/ready", healthHandlers.ReadinessCheck)

	e.GET("/products", productHandlers.ListProducts)
	e.POST("/products", productHandlers.CreateProduct)
	e.GET("/products/:id", productHandlers.GetProduct)
	e.DELETE("/products/:id", productHandlers.DeleteProduct)
	e.GET("/products/:id/inventory", productHandlers.GetProductInventory)
	e.POST("/products/:id/inventory", productHandlers.CreateProductInventory)

	go func() {
		if err := e.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server stopped", zap.Error(err))
			stop()
		}
	}()
	logger.Info("catalog server started", zap.Int64("port", cfg.Port))

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown failed", zap.Error(err))
	}
}
