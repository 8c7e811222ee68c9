package main

import (
	"github.com/clinscribe/backend/internal/handlers"
	"github.com/clinscribe/backend/internal/middleware"
	"github.com/clinscribe/backend/internal/services"
	"github.com/clinscribe/backend/pkg/logger"
	"github.com/gin-gonic/gin"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, svc *appServices) {
	// Middleware
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS())

	// Rate limiter for the generation endpoint
	generateLimiter := middleware.NewRateLimiter(10, 20)

	// Health check
	healthHandler := handlers.NewHealthHandler()
	r.GET("/health", healthHandler.CheckHealth)

	aiService := services.NewAIService(&svc.cfg.AI)
	notesHandler := handlers.NewNotesHandler(svc.cacheService, aiService, svc.ledger, &svc.cfg.AI)
	cacheHandler := handlers.NewCacheHandler(svc.analytics, svc.retention)
	usageHandler := handlers.NewUsageHandler(svc.ledger)
	trainingHandler := handlers.NewTrainingDataHandler(svc.trainingService)

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/login", svc.authHandler.Login)
		}

		// Protected routes
		protected := api.Group("")
		protected.Use(middleware.AuthRequired())
		{
			// Auth
			protected.GET("/auth/me", svc.authHandler.GetCurrentUser)
			protected.POST("/auth/logout", svc.authHandler.Logout)
			protected.POST("/auth/password", svc.authHandler.ChangePassword)

			// Note generation (rate limited per IP)
			protected.POST("/notes/generate", generateLimiter.Middleware(), notesHandler.Generate)

			// Cache statistics
			protected.GET("/cache/stats", cacheHandler.Stats)

			// Usage and subscription lifecycle
			protected.GET("/usage", usageHandler.GetUsage)
			protected.GET("/usage/transactions", usageHandler.ListTransactions)
			protected.POST("/subscription/upgrade", usageHandler.Upgrade)
			protected.POST("/subscription/cancel", usageHandler.Cancel)
			protected.POST("/subscription/tokens/purchase", usageHandler.PurchaseTokens)
		}

		// Admin only routes
		admin := api.Group("/admin")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
		{
			// Retention surface
			admin.DELETE("/cache/expired", cacheHandler.ClearExpired)
			admin.DELETE("/users/:id/cache", cacheHandler.DeleteUserCache)
			admin.DELETE("/users/:id/training-data", cacheHandler.DeleteUserTrainingData)
			admin.DELETE("/users/:id/data", cacheHandler.PurgeUser)

			// Training dataset curation
			admin.GET("/training-data/export", trainingHandler.Export)
			admin.PUT("/training-data/:id/score", trainingHandler.SetQualityScore)
			admin.PUT("/training-data/:id/reviewed", trainingHandler.MarkReviewed)
		}
	}
}
