package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/storeup/storeup-backend/internal/tenant"
)

const TenantKeyKey = "tenant_key"

// TenantMiddleware stores the tenant key carried by the Host header.
// Requests on the apex domain, www, IPs or unknown domains carry none.
func TenantMiddleware(resolver *tenant.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key, ok := resolver.Resolve(c.Request.Host); ok {
			c.Set(TenantKeyKey, key)
		}
		c.Next()
	}
}

// GetTenantKey returns the key TenantMiddleware extracted, if any.
func GetTenantKey(c *gin.Context) (string, bool) {
	key, exists := c.Get(TenantKeyKey)
	if !exists {
		return "", false
	}
	return key.(string), true
}
