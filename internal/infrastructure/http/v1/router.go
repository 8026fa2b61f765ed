// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/domain/batch"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/domain/product"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/domain/reception"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/domain/reconciliation"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/domain/writeoff"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/infrastructure/http/v1/handlers"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/infrastructure/http/v1/middleware"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/pkg/logger"
)

// Services are the domain services exposed over HTTP.
type Services struct {
	Products   *product.Service
	Receptions *reception.Service
	Batches    *batch.Service
	WriteOffs  *writeoff.Service
	Engine     *reconciliation.Engine
}

// RouterConfig holds router configuration.
type RouterConfig struct {
	Services Services

	// Storage backs the readiness probe.
	Storage       handlers.Pinger
	StorageDriver string

	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator guards /api/v1; nil leaves the API open (development).
	JWTValidator middleware.JWTValidator

	// MaxUploadBytes caps xlsx uploads.
	MaxUploadBytes int64
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	registerValidators()

	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.Storage, cfg.StorageDriver)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}

	v1 := router.Group("/api/v1")
	if cfg.JWTValidator != nil {
		v1.Use(middleware.Auth(cfg.JWTValidator))
	}

	base := handlers.NewBaseHandler()
	registerProductRoutes(v1, base, cfg)
	registerReceptionRoutes(v1, base, cfg)
	registerBatchRoutes(v1, base, cfg)
	registerInventoryRoutes(v1, base, cfg)

	return router
}

func registerProductRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewProductHandler(base, cfg.Services.Products)

	products := rg.Group("/products")
	products.POST("", h.Create)
	products.GET("", h.List)
	products.GET("/:id", h.Get)
}

func registerReceptionRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	s := cfg.Services
	h := handlers.NewReceptionHandler(base, s.Receptions, s.Batches, s.WriteOffs, s.Products)
	items := handlers.NewBatchHandler(base, s.Batches, s.WriteOffs, s.Products, cfg.MaxUploadBytes)
	inventory := handlers.NewInventoryHandler(base, s.Engine, s.Products)

	receptions := rg.Group("/receptions")
	receptions.POST("", h.Create)
	receptions.GET("", h.List)
	receptions.GET("/:id", h.Get)
	receptions.PATCH("/:id", h.Update)
	receptions.DELETE("/:id", h.Delete)
	receptions.POST("/:id/close", h.Close)
	receptions.POST("/:id/reopen", h.Reopen)

	receptions.POST("/:id/items", items.CreateItems)
	receptions.POST("/:id/items/import", items.ImportItems)
	receptions.GET("/:id/write-offs", h.WriteOffs)

	receptions.GET("/:id/inventory", h.Inventory)
	receptions.POST("/:id/inventory/check", inventory.CheckReception)
	receptions.POST("/:id/inventory/apply", inventory.ApplyReception)
}

func registerBatchRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	s := cfg.Services
	h := handlers.NewBatchHandler(base, s.Batches, s.WriteOffs, s.Products, cfg.MaxUploadBytes)

	items := rg.Group("/reception-items")
	items.GET("/:id", h.Get)
	items.DELETE("/:id", h.Delete)
	items.POST("/:id/write-off", h.WriteOff)
	items.GET("/:id/write-offs", h.WriteOffs)
	items.GET("/:id/history", h.History)
	items.POST("/:id/sales", h.RecordSale)
}

func registerInventoryRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewInventoryHandler(base, cfg.Services.Engine, cfg.Services.Products)

	inventory := rg.Group("/inventory")
	inventory.GET("/global", h.Global)
	inventory.POST("/global/check", h.CheckGlobal)
	inventory.POST("/global/apply", h.ApplyGlobal)
	inventory.GET("/reconciliations", h.ListSessions)
	inventory.GET("/reconciliations/:id", h.GetSession)
}
