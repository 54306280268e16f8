package http

import (
	"github.com/gin-gonic/gin"

	"github.com/shelftrack/shelftrack/internal/auth"
)

// NewRouter creates and configures the HTTP router with all endpoints.
// Uses RouterConfig to receive all dependencies, improving testability
// and reducing parameter count.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Apply security headers to all responses
	router.Use(auth.SecurityHeadersMiddleware())

	// Apply CSRF protection if auth is enabled
	// CSRF must run before session so that session context is preserved
	if len(cfg.CSRFSecret) > 0 {
		router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies, cfg.AuthService))
	}

	// Apply session middleware if enabled
	// Session runs after CSRF so session context isn't overwritten by CSRF's request replacement
	if cfg.SessionManager != nil {
		router.Use(cfg.SessionManager.SessionLoadSave())
	}

	// Apply auth middleware if enabled
	if cfg.AuthMiddleware != nil {
		router.Use(cfg.AuthMiddleware.Handler())
	} else {
		// No auth - inject default user ID
		router.Use(func(c *gin.Context) {
			c.Set(auth.ContextKeyUserID, auth.DefaultUserID)
			c.Set(auth.ContextKeyAuthType, auth.AuthTypeNone)
			c.Next()
		})
	}

	// Register auth routes if auth service is available
	if cfg.AuthService != nil && cfg.AuthService.IsAuthEnabled() {
		authController := auth.NewController(cfg.AuthService, cfg.SessionManager)
		authController.RegisterRoutes(router)
	}

	// Health endpoints
	health := NewHealthController(cfg.Database, cfg.Version)
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	// Import endpoints
	if cfg.Pipeline != nil {
		importController := NewImportController(cfg.Pipeline, cfg.ImportHistory, cfg.MaxFileBytes)
		router.POST("/api/import/parse", importController.Parse)
		router.POST("/api/import/confirm", importController.Confirm)
		router.POST("/api/import/skipped.csv", importController.SkippedCSV)
		if cfg.ImportHistory != nil {
			router.GET("/api/import/history", importController.History)
		}
	}

	// Library endpoints
	if cfg.LibraryStore != nil {
		libraryController := NewLibraryController(cfg.LibraryStore)
		router.GET("/api/library", libraryController.List)
		router.GET("/api/library/:id", libraryController.Get)
		router.POST("/api/library", libraryController.Create)
		router.PATCH("/api/library/:id/status", libraryController.UpdateStatus)
		router.DELETE("/api/library/:id", libraryController.Delete)
	}

	// Completed books endpoints
	if cfg.CompletedStore != nil {
		completedController := NewCompletedController(cfg.CompletedStore)
		router.GET("/api/completed", completedController.List)
		router.GET("/api/completed/:id", completedController.Get)
		router.POST("/api/completed", completedController.Create)
		router.DELETE("/api/completed/:id", completedController.Delete)
	}

	return router
}
