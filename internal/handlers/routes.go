package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"billing-functions-api/internal/middleware"
	"billing-functions-api/internal/services"
)

// maxRequestBody caps invocation payloads on the local server
const maxRequestBody = 1 << 20

// RouterConfig holds configuration for setting up routes
type RouterConfig struct {
	DeployService  services.DeployService
	BillingService services.BillingService
	EmailService   services.EmailService
}

// MiddlewareConfig holds the tunables of the global middleware chain
type MiddlewareConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// SetupRoutes registers the health check and one invoke route per handler
func SetupRoutes(router *gin.Engine, config *RouterConfig) {
	deployHandler := NewDeployHandler(config.DeployService)
	billingHandler := NewBillingHandler(config.BillingService)
	emailHandler := NewEmailHandler(config.EmailService)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"service":   "billing-functions-api",
			"timestamp": time.Now().UTC(),
		})
	})

	invoke := router.Group("/invoke")
	{
		invoke.POST("/deploy", deployHandler.Deploy)
		invoke.POST("/billing", billingHandler.Ingest)
		invoke.POST("/email", emailHandler.Send)
	}
}

// SetupMiddleware configures global middleware
func SetupMiddleware(router *gin.Engine, config MiddlewareConfig) {
	router.Use(middleware.RequestID())
	router.Use(middleware.StructuredLogger())
	router.Use(middleware.CORS())
	router.Use(middleware.RateLimiter(config.RequestsPerSecond, config.Burst))
	router.Use(middleware.RequestSizeLimit(maxRequestBody))
	router.Use(middleware.ContentTypeValidation("application/json"))
	router.Use(middleware.ErrorHandler(StatusFor))
}
