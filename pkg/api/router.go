package api

import (
	"newsletter-go/pkg/api/handlers"
	"newsletter-go/pkg/api/middleware"
	"newsletter-go/pkg/services"

	"github.com/gin-gonic/gin"
)

// NewRouter serves the newsletter generation contract backed by service.
// apiKey, when set, is required on every /api route.
func NewRouter(service *services.TaskService, apiKey string) *gin.Engine {
	router := gin.New()

	// Middleware
	router.Use(middleware.RequestLogger())
	router.Use(middleware.ErrorHandler())

	// Health check
	router.GET("/healthz", handlers.HealthCheck)

	v1 := router.Group("/api/v1")
	v1.Use(middleware.RequireAuth(apiKey))
	{
		newsletter := v1.Group("/newsletter")
		{
			newsletter.POST("/generate", handlers.Generate(service))
			newsletter.GET("/status/:id", handlers.GetStatus(service))
			newsletter.GET("/result/:id", handlers.GetResult(service))
			newsletter.GET("/events/:id", handlers.StreamEvents(service))
			newsletter.POST("/upload", handlers.UploadManifest())
		}
	}

	return router
}
