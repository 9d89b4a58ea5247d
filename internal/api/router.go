package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/preschool-cms-api/internal/auth"
	"github.com/preschool-cms-api/internal/config"
	"github.com/preschool-cms-api/internal/service"
	"github.com/rs/zerolog"
)

// NewRouter creates and configures the Gin router
func NewRouter(services *service.Services, provider auth.Provider, cfg *config.Config, log zerolog.Logger) *gin.Engine {
	// Set Gin mode
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Middleware
	router.Use(recoveryMiddleware(log))
	router.Use(loggingMiddleware(log))
	router.Use(corsMiddleware(cfg.Server.AllowedOrigin))

	// Handlers
	publicHandler := NewPublicHandler(services, log)
	adminHandler := NewAdminHandler(services, log)
	authHandler := NewAuthHandler(provider, cfg, log)
	streamHandler := NewStreamHandler(services, log)
	exportHandler := NewExportHandler(services, log)

	// Health check
	router.GET("/health", healthCheck(services))

	// Public site
	router.GET("/", publicHandler.Home)
	router.GET("/blog", publicHandler.ListBlog)
	router.GET("/blog/:id", publicHandler.GetBlogPost)
	router.GET("/gallery", publicHandler.Gallery)
	router.GET("/schedule", publicHandler.Schedule)
	router.POST("/contact", publicHandler.SubmitContact)
	router.POST("/enrollments", publicHandler.SubmitEnrollment)
	router.GET("/stream/:collection", streamHandler.Public)

	// Admin sign-in
	router.POST("/admin/login", authHandler.Login)

	// Admin CMS
	admin := router.Group("/admin", authHandler.RequireAdmin())
	{
		admin.POST("/logout", authHandler.Logout)
		admin.GET("/session", authHandler.Session)
		admin.GET("/dashboard", adminHandler.Dashboard)

		blog := admin.Group("/blog-posts")
		{
			blog.GET("", adminHandler.ListBlogPosts)
			blog.POST("", adminHandler.CreateBlogPost)
			blog.PATCH("/:id", adminHandler.UpdateBlogPost)
			blog.DELETE("/:id", adminHandler.DeleteBlogPost)
			blog.POST("/:id/toggle-published", adminHandler.ToggleBlogPost)
		}

		messages := admin.Group("/contact-messages")
		{
			messages.GET("", adminHandler.ListContactMessages)
			messages.DELETE("/:id", adminHandler.DeleteContactMessage)
		}

		enrollments := admin.Group("/enrollments")
		{
			enrollments.GET("", adminHandler.ListEnrollments)
			enrollments.GET("/:id", adminHandler.GetEnrollment)
			enrollments.POST("/:id/approve", adminHandler.ApproveEnrollment)
			enrollments.POST("/:id/reject", adminHandler.RejectEnrollment)
			enrollments.DELETE("/:id", adminHandler.DeleteEnrollment)
		}

		gallery := admin.Group("/gallery-items")
		{
			gallery.GET("", adminHandler.ListGalleryItems)
			gallery.POST("", adminHandler.CreateGalleryItem)
			gallery.PATCH("/:id", adminHandler.UpdateGalleryItem)
			gallery.DELETE("/:id", adminHandler.DeleteGalleryItem)
		}

		schedule := admin.Group("/daily-schedule")
		{
			schedule.GET("", adminHandler.ListScheduleItems)
			schedule.POST("", adminHandler.CreateScheduleItem)
			schedule.PATCH("/:id", adminHandler.UpdateScheduleItem)
			schedule.DELETE("/:id", adminHandler.DeleteScheduleItem)
		}

		admin.GET("/stream/:collection", streamHandler.Admin)
		admin.GET("/export/:collection", exportHandler.StreamExport)
	}

	return router
}

// healthCheck returns the health status
func healthCheck(services *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, code := "healthy", http.StatusOK
		if err := services.Health(c.Request.Context()); err != nil {
			status, code = "unhealthy", http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":    status,
			"timestamp": time.Now().Format(time.RFC3339),
			"service":   "preschool-cms-api",
		})
	}
}

// recoveryMiddleware handles panics
func recoveryMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().Interface("error", err).Msg("Panic recovered")
				c.JSON(http.StatusInternalServerError, gin.H{
					"error": "Internal server error",
				})
				c.Abort()
			}
		}()
		c.Next()
	}
}

// loggingMiddleware logs requests
func loggingMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		event := log.Info()
		if statusCode >= 400 {
			event = log.Warn()
		}
		if statusCode >= 500 {
			event = log.Error()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", statusCode).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Msg("Request completed")
	}
}

// corsMiddleware handles CORS. Credentials are only allowed for an explicit
// origin.
func corsMiddleware(origin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if origin != "*" {
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Add("Vary", "Origin")
		}

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
