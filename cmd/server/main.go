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

	"github.com/bitemebuddy/bitemebuddy-backend/config"
	"github.com/bitemebuddy/bitemebuddy-backend/internal/app/controller"
	"github.com/bitemebuddy/bitemebuddy-backend/internal/app/repository"
	"github.com/bitemebuddy/bitemebuddy-backend/internal/app/service"
	"github.com/bitemebuddy/bitemebuddy-backend/internal/db"
	"github.com/bitemebuddy/bitemebuddy-backend/internal/middleware"
	"github.com/bitemebuddy/bitemebuddy-backend/internal/router"
	"github.com/bitemebuddy/bitemebuddy-backend/internal/scheduler"
	"github.com/bitemebuddy/bitemebuddy-backend/internal/storage"
	ws "github.com/bitemebuddy/bitemebuddy-backend/internal/websocket"
	"github.com/bitemebuddy/bitemebuddy-backend/pkg/adminexport"
	"github.com/bitemebuddy/bitemebuddy-backend/pkg/logger"
	"github.com/bitemebuddy/bitemebuddy-backend/pkg/redis"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := "info"
	logFormat := "json"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
		logFormat = "console"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      logFormat,
		EnableColor: logFormat == "console",
	})

	logger.Info("Starting BiteMeBuddy Backend Server", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
	})

	// Initialize database
	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}
	if err := db.Seed(); err != nil {
		logger.Warn("Failed to seed database", map[string]interface{}{
			"error": err.Error(),
		})
	}

	// Redis is optional: without it logout only logs and the catalog cache
	// stays per process.
	var (
		revoke      service.TokenRevoker
		sharedCache service.SharedCache
	)
	if cfg.Redis.Addr != "" {
		if err := redis.Init(&cfg.Redis); err != nil {
			logger.Warn("Redis unavailable, continuing without it", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			defer redis.Close()
			revoke = redis.BlacklistToken
			sharedCache = redis.JSONCache{}
		}
	}

	// Image host is optional as well; photos then fall back to placeholders.
	var (
		imageSearcher service.ImageSearcher
		imageUploader service.ImageUploader
		presigner     controller.Presigner
	)
	if cfg.S3.Enabled() {
		s3Storage := storage.NewS3Storage(cfg.S3.Region, cfg.S3.Bucket, cfg.S3.AccessKeyID, cfg.S3.SecretAccessKey, cfg.S3.BaseURL)
		imageSearcher = s3Storage
		imageUploader = s3Storage
		presigner = s3Storage
		logger.Info("Image host configured", map[string]interface{}{
			"bucket": cfg.S3.Bucket,
			"region": cfg.S3.Region,
		})
	} else {
		logger.Warn("AWS_S3_BUCKET not set, image uploads disabled")
	}

	// Initialize repositories
	database := db.GetDB()
	userRepo := repository.NewUserRepository(database)
	catalogRepo := repository.NewCatalogRepository(database)
	cartRepo := repository.NewCartRepository(database)
	orderRepo := repository.NewOrderRepository(database)
	addressRepo := repository.NewAddressRepository(database)

	// Background workers share one lifetime.
	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	hub := ws.NewHub()
	go hub.Run(ctx)

	// Initialize services
	photos := service.NewPhotoResolver(imageSearcher, cfg.S3.ServicesFolder, cfg.S3.MenuFolder, cfg.Checkout.PhotoLookupTimeout)
	exporter := adminexport.NewClient(cfg.Catalog.ServicesURL, cfg.Catalog.MenuURL, cfg.Catalog.FetchTimeout)

	authService := service.NewAuthService(
		userRepo,
		imageUploader,
		cfg.S3.ProfileFolder,
		revoke,
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	catalogService := service.NewCatalogService(catalogRepo, exporter, sharedCache, photos, cfg.Catalog.CacheTTL)
	cartService := service.NewCartService(cartRepo, catalogRepo, photos)
	orderService := service.NewOrderService(database, orderRepo, cartRepo, userRepo, catalogRepo, photos, hub)
	addressService := service.NewAddressService(addressRepo)

	var syncScheduler *scheduler.CatalogSyncScheduler
	if cfg.Catalog.SyncSchedule != "" && (exporter.Configured(adminexport.KindServices) || exporter.Configured(adminexport.KindMenu)) {
		syncScheduler = scheduler.NewCatalogSyncScheduler(catalogService, cfg.Catalog.SyncSchedule, time.Minute)
		if err := syncScheduler.Start(); err != nil {
			logger.Fatal("Failed to start catalog sync scheduler", err)
		}
		go syncScheduler.RunOnce()
	}

	// Initialize controllers
	authController := controller.NewAuthController(authService)
	catalogController := controller.NewCatalogController(catalogService)
	cartController := controller.NewCartController(cartService)
	orderController := controller.NewOrderController(orderService, addressService)
	addressController := controller.NewAddressController(addressService)
	uploadController := controller.NewUploadController(presigner, cfg.S3.ProfileFolder)
	wsController := controller.NewWSController(hub, cfg.CORS.AllowedOrigins)

	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret)

	// Setup router
	r := router.NewRouter(
		authController,
		catalogController,
		cartController,
		orderController,
		addressController,
		uploadController,
		wsController,
		authMiddleware,
		cfg,
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           r.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
	}

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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", err)
	}

	if syncScheduler != nil {
		syncScheduler.Stop()
	}
	stop()

	logger.Info("Server stopped successfully")
}
