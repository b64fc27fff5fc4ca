package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/storeup/storeup-backend/config"
	"github.com/storeup/storeup-backend/internal/app/controller"
	"github.com/storeup/storeup-backend/internal/middleware"
	"github.com/storeup/storeup-backend/internal/storage"
	"github.com/storeup/storeup-backend/internal/tenant"
)

type Router struct {
	userController          *controller.UserController
	storeController         *controller.StoreController
	categoryController      *controller.CategoryController
	productController       *controller.ProductController
	shippingAgentController *controller.ShippingAgentController
	tenantController        *controller.TenantController
	uploadController        *controller.UploadController
	authMiddleware          *middleware.AuthMiddleware
	tenantResolver          *tenant.Resolver
	authLimiter             *middleware.RateLimiter
	config                  *config.Config
}

func NewRouter(
	userController *controller.UserController,
	storeController *controller.StoreController,
	categoryController *controller.CategoryController,
	productController *controller.ProductController,
	shippingAgentController *controller.ShippingAgentController,
	tenantController *controller.TenantController,
	uploadController *controller.UploadController,
	authMiddleware *middleware.AuthMiddleware,
	tenantResolver *tenant.Resolver,
	authLimiter *middleware.RateLimiter,
	cfg *config.Config,
) *Router {
	return &Router{
		userController:          userController,
		storeController:         storeController,
		categoryController:      categoryController,
		productController:       productController,
		shippingAgentController: shippingAgentController,
		tenantController:        tenantController,
		uploadController:        uploadController,
		authMiddleware:          authMiddleware,
		tenantResolver:          tenantResolver,
		authLimiter:             authLimiter,
		config:                  cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()
	if r.config.Media.MaxUploadSize > 0 {
		router.MaxMultipartMemory = r.config.Media.MaxUploadSize
	}

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))
	router.Use(middleware.TenantMiddleware(r.tenantResolver))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"message": "Storeup API is running",
		})
	})

	if r.config.Storage.Driver == "local" {
		router.Static(storage.MediaPrefix, r.config.Storage.LocalDir)
	}

	authenticated := r.authMiddleware.Authenticate()
	optional := r.authMiddleware.OptionalAuthenticate()
	limited := r.authLimiter.Middleware()

	v1 := router.Group("/api/v1")
	{
		users := v1.Group("/users")
		{
			users.GET("", authenticated, r.userController.ListUsers)
			users.POST("", limited, r.userController.Register)
			users.POST("/login", limited, r.userController.Login)
			users.GET("/me", authenticated, r.userController.Me)
			users.POST("/logout", authenticated, r.userController.Logout)
		}

		stores := v1.Group("/stores")
		{
			stores.GET("", optional, r.storeController.ListStores)
			stores.GET("/:id", r.storeController.GetStoreByID)
			stores.GET("/:id/export", authenticated, r.storeController.ExportStore)
			stores.POST("", authenticated, r.storeController.CreateStore)
			stores.PUT("/:id", authenticated, r.storeController.UpdateStore)
			stores.PATCH("/:id", authenticated, r.storeController.UpdateStore)
			stores.DELETE("/:id", authenticated, r.storeController.DeleteStore)
		}

		categories := v1.Group("/categories")
		{
			categories.GET("", r.categoryController.ListCategories)
			categories.GET("/:id", r.categoryController.GetCategoryByID)
			categories.POST("", authenticated, r.categoryController.CreateCategory)
			categories.PUT("/:id", authenticated, r.categoryController.UpdateCategory)
			categories.PATCH("/:id", authenticated, r.categoryController.UpdateCategory)
			categories.DELETE("/:id", authenticated, r.categoryController.DeleteCategory)
		}

		products := v1.Group("/products")
		{
			products.GET("", r.productController.ListProducts)
			products.GET("/featured", r.productController.Featured)
			products.GET("/new_arrivals", r.productController.NewArrivals)
			products.GET("/sale", r.productController.OnSale)
			products.GET("/:id", r.productController.GetProductByID)
			products.POST("", authenticated, r.productController.CreateProduct)
			products.PUT("/:id", authenticated, r.productController.UpdateProduct)
			products.PATCH("/:id", authenticated, r.productController.UpdateProduct)
			products.DELETE("/:id", authenticated, r.productController.DeleteProduct)
		}

		agents := v1.Group("/shipping-agents", authenticated)
		{
			agents.GET("", r.shippingAgentController.ListShippingAgents)
			agents.GET("/:id", r.shippingAgentController.GetShippingAgent)
			agents.POST("", r.shippingAgentController.CreateShippingAgent)
			agents.PUT("/:id", r.shippingAgentController.UpdateShippingAgent)
			agents.PATCH("/:id", r.shippingAgentController.UpdateShippingAgent)
			agents.DELETE("/:id", r.shippingAgentController.DeleteShippingAgent)
		}

		v1.POST("/uploads/presign", authenticated, r.uploadController.Presign)

		v1.GET("/store-info", r.tenantController.StoreInfo)
		v1.GET("/subdomain-products", r.tenantController.SubdomainProducts)
		v1.GET("/subdomain-test", r.tenantController.SubdomainTest)
	}

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Content-Length", "Accept", "Authorization", "X-Requested-With", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Disposition", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	for _, origin := range allowedOrigins {
		if origin == "*" {
			cfg.AllowAllOrigins = true
			cfg.AllowCredentials = false
			return cors.New(cfg)
		}
	}
	if len(allowedOrigins) == 0 {
		cfg.AllowOriginFunc = func(string) bool { return false }
		return cors.New(cfg)
	}
	cfg.AllowOrigins = allowedOrigins
	return cors.New(cfg)
}
