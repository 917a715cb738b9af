package api

import (
	"net/http"

	"mailtriage-backend/internal/auth/delivery"
	authUsecase "mailtriage-backend/internal/auth/usecase"
	emailDelivery "mailtriage-backend/internal/email/delivery"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, authUsecase authUsecase.AuthUsecase, emailHandler *emailDelivery.EmailHandler) {
	authHandler := delivery.NewAuthHandler(authUsecase)

	api := r.Group("/api")
	{
		// Health check (no auth required)
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		// Auth routes
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/google", authHandler.GoogleSignIn)
			auth.POST("/imap", authHandler.IMAPLogin)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", delivery.AuthMiddleware(authUsecase), authHandler.Me)
		}

		// FCM device token routes (protected)
		fcm := api.Group("/fcm")
		fcm.Use(delivery.AuthMiddleware(authUsecase))
		{
			fcm.POST("/register", authHandler.RegisterDeviceToken)
			fcm.DELETE("/:token", authHandler.UnregisterDeviceToken)
		}

		// Import routes (protected)
		imports := api.Group("/import")
		imports.Use(delivery.AuthMiddleware(authUsecase))
		{
			imports.POST("", emailHandler.Import)
			imports.POST("/watch", emailHandler.Watch)
		}

		// Message routes (protected)
		messages := api.Group("/messages")
		messages.Use(delivery.AuthMiddleware(authUsecase))
		{
			messages.GET("", emailHandler.ListMessages)
			messages.GET("/:id", emailHandler.GetMessage)
			messages.POST("/:id/archive", emailHandler.ArchiveMessage)
			messages.POST("/:id/trash", emailHandler.TrashMessage)
			messages.DELETE("/:id", emailHandler.TrashMessage)
		}

		// Search routes (protected)
		search := api.Group("/search")
		search.Use(delivery.AuthMiddleware(authUsecase))
		{
			search.GET("", emailHandler.Search)
			search.POST("/semantic", emailHandler.SemanticSearch)
		}

		// Category routes (protected)
		categories := api.Group("/categories")
		categories.Use(delivery.AuthMiddleware(authUsecase))
		{
			categories.GET("", emailHandler.ListCategories)
			categories.POST("", emailHandler.CreateCategory)
			categories.PUT("/:id", emailHandler.UpdateCategory)
			categories.DELETE("/:id", emailHandler.DeleteCategory)
		}

		// Stats routes (protected)
		stats := api.Group("/stats")
		stats.Use(delivery.AuthMiddleware(authUsecase))
		{
			stats.GET("/summary", emailHandler.Stats)
			stats.GET("/daily", emailHandler.StatsDaily)
			stats.GET("/senders", emailHandler.StatsSenders)
		}
	}
}
