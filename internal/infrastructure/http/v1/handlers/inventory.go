package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"orderledger/internal/core/types"
	"orderledger/internal/domain/inventory"
	"orderledger/internal/infrastructure/http/v1/dto"
)

// InventoryHandler handles inventory item endpoints.
type InventoryHandler struct {
	*CatalogHandler[*inventory.Item, dto.CreateItemRequest, dto.UpdateItemRequest]
	service *inventory.Service
}

type itemCodec struct{ currency types.Currency }

func (ic itemCodec) New(req dto.CreateItemRequest) *inventory.Item { return req.ToEntity(ic.currency) }

func (ic itemCodec) Apply(req dto.UpdateItemRequest, it *inventory.Item) { req.ApplyTo(it) }

func (ic itemCodec) Render(it *inventory.Item) any { return dto.FromItem(it) }

// NewInventoryHandler creates a new inventory handler.
func NewInventoryHandler(base *BaseHandler, service *inventory.Service) *InventoryHandler {
	catalog := NewCatalogHandler[*inventory.Item, dto.CreateItemRequest, dto.UpdateItemRequest](
		base, service.CatalogService, itemCodec{currency: base.DefaultCurrency()},
	)
	return &InventoryHandler{
		CatalogHandler: catalog,
		service:        service,
	}
}

// LowStock handles GET /inventory/low-stock.
func (h *InventoryHandler) LowStock(c *gin.Context) {
	items, err := h.service.ListLowStock(c.Request.Context(), h.ParseIntQuery(c, "limit", 20))
	if err != nil {
		h.Error(c, err)
		return
	}

	out := make([]dto.ItemResponse, len(items))
	for i, item := range items {
		out[i] = dto.FromItem(item)
	}
	c.JSON(http.StatusOK, gin.H{"items": out})
}
