package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/storeup/storeup-backend/internal/app/model"
	"github.com/storeup/storeup-backend/internal/app/service"
	"github.com/storeup/storeup-backend/internal/middleware"
	"github.com/storeup/storeup-backend/internal/tenant"
)

// TenantController serves the storefront endpoints that depend on the
// store named by the request host.
type TenantController struct {
	directory      service.TenantDirectory
	productService service.ProductService
	mediaBase      string
}

func NewTenantController(directory service.TenantDirectory, productService service.ProductService, mediaBase string) *TenantController {
	return &TenantController{
		directory:      directory,
		productService: productService,
		mediaBase:      mediaBase,
	}
}

// resolve answers 400 without a subdomain and 404 for an unknown one.
func (ctrl *TenantController) resolve(c *gin.Context) (*model.Store, string, bool) {
	key, _ := middleware.GetTenantKey(c)
	store, err := ctrl.directory.Resolve(c.Request.Context(), key)
	if err != nil {
		respondError(c, "Tenant resolution failed", err, map[string]interface{}{
			"host":      c.Request.Host,
			"subdomain": key,
		})
		return nil, key, false
	}
	store.ApplyMediaBase(ctrl.mediaBase)
	return store, key, true
}

// StoreInfo handles GET /store-info.
func (ctrl *TenantController) StoreInfo(c *gin.Context) {
	store, key, ok := ctrl.resolve(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"store":     store,
		"subdomain": key,
		"full_url":  tenant.FullURL(key, c.Request.Host),
	})
}

// SubdomainProducts handles GET /subdomain-products. The query string
// filters the same way the product listing does; any store parameter is
// overridden by the tenant.
func (ctrl *TenantController) SubdomainProducts(c *gin.Context) {
	store, key, ok := ctrl.resolve(c)
	if !ok {
		return
	}

	query := service.ParseProductQuery(c.Request.URL.Query())
	products, err := ctrl.productService.StorefrontProducts(c.Request.Context(), store, query)
	if err != nil {
		respondError(c, "Failed to list storefront products", err, map[string]interface{}{
			"store_id": store.ID,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"store":     store.Name,
		"subdomain": key,
		"products":  products,
		"count":     len(products),
	})
}

// SubdomainTest handles GET /subdomain-test, a diagnostic that never fails
// on tenant resolution.
func (ctrl *TenantController) SubdomainTest(c *gin.Context) {
	var subdomain interface{}
	if key, ok := middleware.GetTenantKey(c); ok {
		subdomain = key
	}

	stores, err := ctrl.directory.KnownStores(c.Request.Context())
	if err != nil {
		respondError(c, "Failed to list known stores", err, nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":          "Subdomain test successful",
		"subdomain":        subdomain,
		"host":             c.Request.Host,
		"full_url":         requestURL(c),
		"available_stores": stores,
	})
}

// requestURL rebuilds the absolute URL the client requested.
func requestURL(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + c.Request.Host + c.Request.URL.RequestURI()
}
