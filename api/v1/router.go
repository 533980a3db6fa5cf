package v1

import (
	"go_storefront/api/v1/auth"
	"go_storefront/api/v1/domains"
	"go_storefront/api/v1/middleware"
	"go_storefront/api/v1/stores"
	"go_storefront/internal/acme"
	"go_storefront/internal/analytics"
	"go_storefront/internal/config"
	"go_storefront/internal/edge"
	"go_storefront/internal/health"
	"go_storefront/internal/httpx"
	"go_storefront/internal/registry"
	"go_storefront/internal/verify"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Deps carries the wired services the API needs
type Deps struct {
	DB        *gorm.DB
	Config    *config.Config
	Registry  *registry.Service
	Engine    *verify.Engine
	Checker   *health.Checker
	Analytics *analytics.Service
	Provider  edge.Provider
	ACME      *acme.Service // nil when auto-TLS is disabled
}

// SetupRouter sets up the API v1 routes
func SetupRouter(r *gin.Engine, deps Deps) {
	v1 := r.Group("/api/v1")
	{
		// Public routes (no authentication required)
		v1.GET("/ping", pingHandler)

		// Auth routes
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/login", auth.LoginHandler(deps.DB, deps.Config))
		}

		// Protected routes (authentication required)
		protected := v1.Group("")
		protected.Use(middleware.AuthRequired())
		{
			protected.GET("/me", meHandler)

			// Stores routes
			storesHandler := stores.NewHandler(deps.Registry, deps.Analytics)
			storesGroup := protected.Group("/stores")
			{
				storesGroup.GET("", storesHandler.List)
				storesGroup.GET("/detail", storesHandler.Detail)
				storesGroup.GET("/stats", storesHandler.Stats)
				storesGroup.POST("/create", storesHandler.Create)
				storesGroup.POST("/delete", storesHandler.Delete)
			}

			// Domains routes
			domainsHandler := domains.NewHandler(deps.Registry, deps.Engine, deps.Checker, deps.Analytics, deps.Provider, deps.ACME)
			domainsGroup := protected.Group("/domains")
			{
				domainsGroup.GET("", domainsHandler.List)
				domainsGroup.GET("/detail", domainsHandler.Detail)
				domainsGroup.GET("/stats", domainsHandler.Stats)
				domainsGroup.GET("/certificate", domainsHandler.Certificate)
				domainsGroup.GET("/provider-status", domainsHandler.ProviderStatus)
				domainsGroup.GET("/resolve", domainsHandler.Resolve)
				domainsGroup.POST("/create", domainsHandler.Create)
				domainsGroup.POST("/delete", domainsHandler.Delete)
				domainsGroup.POST("/verify", domainsHandler.Verify)
				domainsGroup.POST("/set-primary", domainsHandler.SetPrimary)
				domainsGroup.POST("/health-check", domainsHandler.HealthCheck)
			}
		}
	}
}

// pingHandler handles the ping request using unified response
func pingHandler(c *gin.Context) {
	httpx.OK(c, gin.H{
		"pong": true,
	})
}

// meHandler returns current user information
func meHandler(c *gin.Context) {
	uid, _ := c.Get("uid")
	username, _ := c.Get("username")
	tenantId, _ := c.Get("tenantId")
	role, _ := c.Get("role")

	httpx.OK(c, gin.H{
		"uid":      uid,
		"username": username,
		"tenantId": tenantId,
		"role":     role,
	})
}
