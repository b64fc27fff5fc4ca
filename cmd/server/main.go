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

	"github.com/storeup/storeup-backend/config"
	"github.com/storeup/storeup-backend/internal/app/controller"
	"github.com/storeup/storeup-backend/internal/app/repository"
	"github.com/storeup/storeup-backend/internal/app/service"
	"github.com/storeup/storeup-backend/internal/authz"
	"github.com/storeup/storeup-backend/internal/cache"
	"github.com/storeup/storeup-backend/internal/db"
	"github.com/storeup/storeup-backend/internal/middleware"
	"github.com/storeup/storeup-backend/internal/router"
	"github.com/storeup/storeup-backend/internal/scheduler"
	"github.com/storeup/storeup-backend/internal/storage"
	"github.com/storeup/storeup-backend/internal/tenant"
	"github.com/storeup/storeup-backend/pkg/logger"
	"github.com/storeup/storeup-backend/pkg/redis"
	"github.com/storeup/storeup-backend/pkg/util"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := cfg.Server.LogLevel
	if logLevel == "" {
		logLevel = "info"
		if cfg.Server.Environment == "development" {
			logLevel = "debug"
		}
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      cfg.Server.LogFormat,
		EnableColor: cfg.Server.Environment == "development",
	})

	logger.Info("Starting Storeup Backend Server", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"base_domain": cfg.Tenant.BaseDomain,
		"storage":     cfg.Storage.Driver,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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
	if err := db.SeedAdmin(db.GetDB(), cfg.Admin); err != nil {
		logger.Warn("Failed to seed admin user", map[string]interface{}{
			"error": err.Error(),
		})
	}

	if err := util.RegisterValidators(); err != nil {
		logger.Fatal("Failed to register validators", err)
	}

	// Redis is optional: without it the tenant cache is per-process and
	// logout cannot revoke tokens server-side.
	var (
		storeCache cache.StoreCache
		revoker    service.TokenRevoker
		revoked    middleware.RevocationChecker
	)
	if cfg.Redis.Enabled() {
		client, err := redis.Init(&cfg.Redis)
		if err != nil {
			logger.Fatal("Failed to initialize Redis", err)
		}
		defer func() {
			if err := redis.Close(); err != nil {
				logger.Error("Failed to close Redis connection", err)
			}
		}()
		storeCache = cache.NewRedisStoreCache(client, cfg.Tenant.CacheTTL)
		blacklist := redis.NewTokenBlacklist(client)
		revoker = blacklist
		revoked = blacklist
	} else {
		memoryCache := cache.NewMemoryStoreCache(cfg.Tenant.CacheTTL)
		storeCache = memoryCache

		cacheScheduler := scheduler.NewCacheScheduler(memoryCache, cfg.Tenant.CachePurgeSchedule)
		if err := cacheScheduler.Start(); err != nil {
			logger.Fatal("Failed to start tenant cache scheduler", err)
		}
		defer cacheScheduler.Stop()
	}

	images, presigner, mediaBase, err := setupStorage(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize storage", err)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db.GetDB())
	storeRepo := repository.NewStoreRepository(db.GetDB())
	categoryRepo := repository.NewCategoryRepository(db.GetDB())
	productRepo := repository.NewProductRepository(db.GetDB())
	agentRepo := repository.NewShippingAgentRepository(db.GetDB())

	// Initialize services
	guard := authz.NewGuard(authz.Policy{OwnerScopedWrites: cfg.Catalog.OwnerScopedWrites})
	directory := service.NewTenantDirectory(storeRepo, storeCache)
	authService := service.NewAuthService(
		userRepo,
		guard,
		revoker,
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	principals := service.NewPrincipalLoader(userRepo, storeRepo)
	storeService := service.NewStoreService(storeRepo, directory, guard, images, mediaBase)
	categoryService := service.NewCategoryService(categoryRepo, storeRepo, guard, images)
	productService := service.NewProductService(productRepo, categoryRepo, storeRepo, guard, images, service.ProductOptions{
		MediaBase:        mediaBase,
		EnforceSalePrice: cfg.Catalog.EnforceSalePrice,
	})
	agentService := service.NewShippingAgentService(agentRepo, storeRepo, guard)
	exportService := service.NewCatalogExportService(storeRepo, categoryRepo, productRepo, guard)

	// Initialize controllers
	userController := controller.NewUserController(authService)
	storeController := controller.NewStoreController(storeService, exportService, images)
	categoryController := controller.NewCategoryController(categoryService, directory)
	productController := controller.NewProductController(productService, directory)
	agentController := controller.NewShippingAgentController(agentService)
	tenantController := controller.NewTenantController(directory, productService, mediaBase)
	uploadController := controller.NewUploadController(presigner)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret, revoked, principals)
	authLimiter := middleware.NewRateLimiter(ctx, middleware.PerMinute(cfg.RateLimit.AuthRequestsPerMinute), cfg.RateLimit.AuthBurst)

	r := router.NewRouter(
		userController,
		storeController,
		categoryController,
		productController,
		agentController,
		tenantController,
		uploadController,
		authMiddleware,
		tenant.NewResolver(cfg.Tenant.BaseDomain, cfg.Tenant.PlatformSuffix),
		authLimiter,
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

	<-ctx.Done()
	logger.Info("Shutting down server gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", err)
	}
	logger.Info("Server stopped successfully")
}

// setupStorage picks the image store. presigner is nil unless the S3
// driver is configured, and mediaBase prefers the bucket's public URL.
func setupStorage(ctx context.Context, cfg *config.Config) (storage.ImageStorage, controller.Presigner, string, error) {
	switch cfg.Storage.Driver {
	case "s3":
		s3, err := storage.NewS3Storage(ctx, cfg.Storage.S3.Region, cfg.Storage.S3.Bucket,
			cfg.Storage.S3.AccessKeyID, cfg.Storage.S3.SecretAccessKey)
		if err != nil {
			return nil, nil, "", err
		}
		mediaBase := cfg.Storage.S3.BaseURL
		if mediaBase == "" {
			mediaBase = cfg.Media.PublicBaseURL
		}
		return s3, s3, mediaBase, nil
	default:
		local, err := storage.NewLocalStorage(cfg.Storage.LocalDir)
		if err != nil {
			return nil, nil, "", err
		}
		return local, nil, cfg.Media.PublicBaseURL, nil
	}
}
