package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	iauth "github.com/greensiliconvalley/portal/internal/auth"
	"github.com/greensiliconvalley/portal/internal/handlers"
	"github.com/greensiliconvalley/portal/internal/middleware"
	"github.com/greensiliconvalley/portal/internal/models"
	"github.com/greensiliconvalley/portal/internal/services"
	"github.com/greensiliconvalley/portal/internal/visibility"
)

// NewRouter builds the Gin engine, wires middleware and registers all routes.
func NewRouter(db *gorm.DB, jwt *iauth.JWTService, manager *visibility.Manager) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if jwt == nil {
		return nil, fmt.Errorf("jwt service must be provided")
	}
	if manager == nil {
		return nil, fmt.Errorf("visibility manager must be provided")
	}

	userService, err := services.NewUserService(db)
	if err != nil {
		return nil, err
	}
	auditService, err := services.NewAuditService(db)
	if err != nil {
		return nil, err
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())

	// Public endpoints
	r.GET("/health", handlers.Health(db))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authHandler := handlers.NewAuthHandler(db, jwt, userService, auditService)

	auth := r.Group("/api/auth")
	{
		auth.POST("/login", authHandler.Login)
	}

	// Protected routes
	requireAuth := middleware.Auth(jwt)
	requireAdmin := middleware.RequireRole(db, models.RoleFounder, models.RoleAdmin)

	api := r.Group("/api")
	api.Use(requireAuth)

	api.GET("/auth/me", authHandler.Me)

	// Users
	userHandler := handlers.NewUserHandler(userService, auditService)
	users := api.Group("/users")
	users.Use(requireAdmin)
	{
		users.GET("", userHandler.List)
		users.POST("", userHandler.Create)
		users.PUT("/:id/role", userHandler.SetRole)
	}

	// Visibility
	visibilityHandler := handlers.NewVisibilityHandler(db, manager, auditService)
	vis := api.Group("/visibility")
	{
		vis.GET("/:type/:id/can-view", visibilityHandler.CanView)
		vis.PUT("/:type/:id", requireAdmin, visibilityHandler.Set)
		vis.POST("/bulk", requireAdmin, visibilityHandler.BulkUpdate)
		vis.POST("/copy", requireAdmin, visibilityHandler.Copy)
		vis.POST("/:type/:id/approve", requireAdmin, visibilityHandler.ApproveViewer)
		vis.GET("/stats", requireAdmin, visibilityHandler.Stats)
	}

	// Audit trail
	auditHandler := handlers.NewAuditHandler(auditService)
	api.GET("/audit", requireAdmin, auditHandler.List)

	// Resource enumeration
	resourceHandler := handlers.NewResourceHandler(manager)
	api.GET("/resources/:type", resourceHandler.List)

	return r, nil
}
