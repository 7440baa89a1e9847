package v1

import (
	"github.com/gin-gonic/gin"

	"orderledger/internal/core/types"
	"orderledger/internal/domain/inventory"
	"orderledger/internal/domain/orders"
	"orderledger/internal/domain/parties"
	"orderledger/internal/domain/reports"
	"orderledger/internal/infrastructure/http/v1/handlers"
	"orderledger/internal/infrastructure/http/v1/middleware"
	"orderledger/pkg/logger"
)

// RouterConfig holds router configuration.
type RouterConfig struct {
	// Logger for request logging
	Logger *logger.Logger

	// DB backs the readiness probe and pool stats
	DB      handlers.DatabaseProbe
	Version string

	// HealthChecks are probed by /health/ready next to the database
	HealthChecks []handlers.HealthCheck

	// DefaultCurrency applies to new parties and items that name none
	DefaultCurrency types.Currency

	Customers    *parties.Service
	Suppliers    *parties.Service
	Inventory    *inventory.Service
	SalesOrders  *orders.Service
	SupplyOrders *orders.Service
	Reports      *reports.Service

	// Journal serves the party history endpoints
	Journal handlers.HistoryReader

	// Idempotency store for delivery and payment writes; nil disables it
	Idempotency middleware.IdempotencyStore

	Development bool
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Development {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.DB, cfg.Version, cfg.HealthChecks...)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	api := router.Group("/api/v1")
	base := handlers.NewBaseHandler(cfg.DefaultCurrency)

	var idempotency gin.HandlerFunc
	if cfg.Idempotency != nil {
		idempotency = middleware.Idempotency(cfg.Idempotency)
	}

	registerPartyRoutes(api, base, cfg)
	registerInventoryRoutes(api, base, cfg)
	registerOrderRoutes(api, base, cfg, idempotency)

	dashboard := handlers.NewDashboardHandler(base, cfg.Reports)
	api.GET("/dashboard", dashboard.Get)

	return router
}

// registerPartyRoutes registers customer and supplier endpoints. Each party
// kind reconciles through the order service of its own kind.
func registerPartyRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	// --- CUSTOMERS ---
	{
		handler := handlers.NewPartyHandler(base, handlers.PartyHandlerConfig{
			Service:    cfg.Customers,
			Reconciler: cfg.SalesOrders,
			History:    cfg.Journal,
			Statements: cfg.Reports,
		})
		RegisterPartyRoutes(rg.Group("/customers"), handler)
	}

	// --- SUPPLIERS ---
	{
		handler := handlers.NewPartyHandler(base, handlers.PartyHandlerConfig{
			Service:    cfg.Suppliers,
			Reconciler: cfg.SupplyOrders,
			History:    cfg.Journal,
			Statements: cfg.Reports,
		})
		RegisterPartyRoutes(rg.Group("/suppliers"), handler)
	}
}

func registerInventoryRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	handler := handlers.NewInventoryHandler(base, cfg.Inventory)
	group := rg.Group("/inventory")
	group.GET("/low-stock", handler.LowStock)
	RegisterCatalogRoutes(group, handler)
}

func registerOrderRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig, idempotency gin.HandlerFunc) {
	RegisterOrderRoutes(rg.Group("/sales-orders"), handlers.NewOrderHandler(base, cfg.SalesOrders), idempotency)
	RegisterOrderRoutes(rg.Group("/supply-orders"), handlers.NewOrderHandler(base, cfg.SupplyOrders), idempotency)
}
