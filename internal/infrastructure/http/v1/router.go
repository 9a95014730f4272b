// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"motodealer/internal/domain/promotion"
	"motodealer/internal/domain/quote"
	"motodealer/internal/infrastructure/http/v1/handlers"
	"motodealer/internal/infrastructure/http/v1/middleware"
	"motodealer/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	// Logger for request logging
	Logger *logger.Logger

	// Promotions serves the catalogue, eligibility and compatibility checks
	Promotions *promotion.Service

	// Quotes builds and archives sale quotes
	Quotes *quote.Service

	// HealthChecks are pinged by /health/ready, keyed by dependency name
	HealthChecks map[string]handlers.Pinger

	// Version is reported by /health/info
	Version string
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Operator())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.Version, cfg.HealthChecks)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	v1 := router.Group("/api/v1")
	base := handlers.NewBaseHandler()

	registerFinancingRoutes(v1, base)
	registerPromotionRoutes(v1, base, cfg)
	registerQuoteRoutes(v1, base, cfg)

	return router
}

func registerFinancingRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler) {
	h := handlers.NewFinancingHandler(base)
	rg.POST("/financing/schedule", h.Schedule)
}

// registerPromotionRoutes registers the promotion catalogue and pricing endpoints.
func registerPromotionRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	if cfg.Promotions == nil {
		return
	}

	h := handlers.NewPromotionHandler(base, cfg.Promotions)
	promotions := rg.Group("/promotions")
	{
		promotions.GET("", h.List)
		promotions.POST("", h.Create)
		promotions.POST("/applicable", h.Applicable)
		promotions.POST("/compatibility", h.Compatibility)
		promotions.POST("/installment-options", h.InstallmentOptions)
	}

	pricing := handlers.NewPricingHandler(base, cfg.Promotions)
	rg.POST("/pricing/final-price", pricing.FinalPrice)
}

func registerQuoteRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	if cfg.Quotes == nil {
		return
	}

	h := handlers.NewQuoteHandler(base, cfg.Quotes)
	rg.POST("/quotes", h.Create)
}
