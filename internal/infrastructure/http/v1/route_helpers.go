// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"
)

// CatalogRouteHandler defines the interface for reference record handlers.
type CatalogRouteHandler interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
}

// PartyRouteHandler adds the ledger endpoints of customers and suppliers.
type PartyRouteHandler interface {
	CatalogRouteHandler
	Reconcile(c *gin.Context)
	History(c *gin.Context)
	Statement(c *gin.Context)
}

// OrderRouteHandler defines the interface for order handlers.
type OrderRouteHandler interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
	Recompute(c *gin.Context)

	AddItem(c *gin.Context)
	UpdateItem(c *gin.Context)
	RemoveItem(c *gin.Context)

	RecordDelivery(c *gin.Context)
	UpdateDelivery(c *gin.Context)
	DeleteDelivery(c *gin.Context)

	ApplyPayment(c *gin.Context)
	UpdatePayment(c *gin.Context)
	DeletePayment(c *gin.Context)
}

// RegisterCatalogRoutes registers standard CRUD routes for a reference record.
//
// Usage:
//
//	repo := catalog_repo.NewInventoryRepo(txm)
//	service := inventory.NewService(repo, txm)
//	handler := handlers.NewInventoryHandler(baseHandler, service)
//	RegisterCatalogRoutes(api.Group("/inventory"), handler)
func RegisterCatalogRoutes(group *gin.RouterGroup, handler CatalogRouteHandler) {
	group.GET("", handler.List)
	group.POST("", handler.Create)
	group.GET("/:id", handler.Get)
	group.PUT("/:id", handler.Update)
	group.DELETE("/:id", handler.Delete)
}

// RegisterPartyRoutes registers CRUD plus reconcile, history and statement
// routes for customers or suppliers.
func RegisterPartyRoutes(group *gin.RouterGroup, handler PartyRouteHandler) {
	RegisterCatalogRoutes(group, handler)
	group.POST("/:id/reconcile", handler.Reconcile)
	group.GET("/:id/history", handler.History)
	group.GET("/:id/statement.xlsx", handler.Statement)
}

// RegisterOrderRoutes registers order, line, delivery and payment routes.
// idempotency, when not nil, guards the delivery and payment writes.
func RegisterOrderRoutes(group *gin.RouterGroup, handler OrderRouteHandler, idempotency gin.HandlerFunc) {
	guarded := func(h gin.HandlerFunc) []gin.HandlerFunc {
		if idempotency == nil {
			return []gin.HandlerFunc{h}
		}
		return []gin.HandlerFunc{idempotency, h}
	}

	group.GET("", handler.List)
	group.POST("", handler.Create)
	group.GET("/:id", handler.Get)
	group.PUT("/:id", handler.Update)
	group.DELETE("/:id", handler.Delete)
	group.POST("/:id/recompute", handler.Recompute)

	group.POST("/:id/items", handler.AddItem)
	group.PUT("/:id/items/:itemId", handler.UpdateItem)
	group.DELETE("/:id/items/:itemId", handler.RemoveItem)

	group.POST("/:id/items/:itemId/deliveries", guarded(handler.RecordDelivery)...)
	group.PUT("/:id/deliveries/:deliveryId", guarded(handler.UpdateDelivery)...)
	group.DELETE("/:id/deliveries/:deliveryId", handler.DeleteDelivery)

	group.POST("/:id/payments", guarded(handler.ApplyPayment)...)
	group.PUT("/:id/payments/:paymentId", guarded(handler.UpdatePayment)...)
	group.DELETE("/:id/payments/:paymentId", handler.DeletePayment)
}
