package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"orderledger/internal/core/id"
	"orderledger/internal/domain"
	"orderledger/internal/domain/orders"
	"orderledger/internal/infrastructure/http/v1/dto"
)

// OrderService is the order ledger as seen by the HTTP layer.
// Implemented by *orders.Service.
type OrderService interface {
	GetOrder(ctx context.Context, orderID id.ID) (*orders.Order, error)
	ListOrders(ctx context.Context, filter orders.ListFilter) (domain.ListResult[*orders.Order], error)
	CreateOrder(ctx context.Context, in orders.CreateInput) (*orders.Order, error)
	UpdateOrder(ctx context.Context, orderID id.ID, in orders.UpdateInput) (*orders.Order, error)
	DeleteOrder(ctx context.Context, orderID id.ID) error
	RecomputeAndSave(ctx context.Context, orderID id.ID) (*orders.Order, error)

	AddItem(ctx context.Context, orderID id.ID, in orders.ItemInput) (*orders.Order, error)
	UpdateItem(ctx context.Context, orderID, itemID id.ID, in orders.ItemUpdate) (*orders.Order, error)
	RemoveItem(ctx context.Context, orderID, itemID id.ID) (*orders.Order, error)

	RecordDelivery(ctx context.Context, orderID, itemID id.ID, in orders.DeliveryInput) (*orders.Order, error)
	UpdateDelivery(ctx context.Context, orderID, deliveryID id.ID, in orders.DeliveryInput) (*orders.Order, error)
	DeleteDelivery(ctx context.Context, orderID, deliveryID id.ID) (*orders.Order, error)

	ApplyPayment(ctx context.Context, orderID id.ID, in orders.PaymentInput) (*orders.Order, error)
	UpdatePayment(ctx context.Context, orderID, paymentID id.ID, in orders.PaymentInput) (*orders.Order, error)
	DeletePayment(ctx context.Context, orderID, paymentID id.ID) (*orders.Order, error)
}

// OrderHandler handles sales or supply order endpoints. Every mutation responds
// with the recomputed order.
type OrderHandler struct {
	*BaseHandler
	service OrderService
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(base *BaseHandler, service OrderService) *OrderHandler {
	return &OrderHandler{BaseHandler: base, service: service}
}

// List handles GET /{orders}.
func (h *OrderHandler) List(c *gin.Context) {
	var q dto.OrderListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	filter, err := q.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}

	result, err := h.service.ListOrders(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]dto.OrderResponse, len(result.Items))
	for i, o := range result.Items {
		items[i] = dto.FromOrder(o)
	}

	h.OK(c, dto.ListResponse{
		Items:      items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// Get handles GET /{orders}/:id.
func (h *OrderHandler) Get(c *gin.Context) {
	orderID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	h.respond(c, false)(h.service.GetOrder(c.Request.Context(), orderID))
}

// Create handles POST /{orders}.
func (h *OrderHandler) Create(c *gin.Context) {
	var req dto.CreateOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}
	h.respond(c, true)(h.service.CreateOrder(c.Request.Context(), in))
}

// Update handles PUT /{orders}/:id.
func (h *OrderHandler) Update(c *gin.Context) {
	orderID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}
	h.respond(c, false)(h.service.UpdateOrder(c.Request.Context(), orderID, req.ToInput()))
}

// Delete handles DELETE /{orders}/:id.
func (h *OrderHandler) Delete(c *gin.Context) {
	orderID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteOrder(c.Request.Context(), orderID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// Recompute handles POST /{orders}/:id/recompute.
func (h *OrderHandler) Recompute(c *gin.Context) {
	orderID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	h.respond(c, false)(h.service.RecomputeAndSave(c.Request.Context(), orderID))
}

// --- Lines ---

// AddItem handles POST /{orders}/:id/items.
func (h *OrderHandler) AddItem(c *gin.Context) {
	orderID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.OrderItemRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}
	h.respond(c, true)(h.service.AddItem(c.Request.Context(), orderID, in))
}

// UpdateItem handles PUT /{orders}/:id/items/:itemId.
func (h *OrderHandler) UpdateItem(c *gin.Context) {
	orderID, itemID, ok := h.parseChild(c, "itemId")
	if !ok {
		return
	}
	var req dto.UpdateOrderItemRequest
	if !h.BindJSON(c, &req) {
		return
	}
	h.respond(c, false)(h.service.UpdateItem(c.Request.Context(), orderID, itemID, req.ToInput()))
}

// RemoveItem handles DELETE /{orders}/:id/items/:itemId.
func (h *OrderHandler) RemoveItem(c *gin.Context) {
	orderID, itemID, ok := h.parseChild(c, "itemId")
	if !ok {
		return
	}
	h.respond(c, false)(h.service.RemoveItem(c.Request.Context(), orderID, itemID))
}

// --- Deliveries ---

// RecordDelivery handles POST /{orders}/:id/items/:itemId/deliveries.
func (h *OrderHandler) RecordDelivery(c *gin.Context) {
	orderID, itemID, ok := h.parseChild(c, "itemId")
	if !ok {
		return
	}
	var req dto.DeliveryRequest
	if !h.BindJSON(c, &req) {
		return
	}
	h.respond(c, true)(h.service.RecordDelivery(c.Request.Context(), orderID, itemID, req.ToInput()))
}

// UpdateDelivery handles PUT /{orders}/:id/deliveries/:deliveryId.
func (h *OrderHandler) UpdateDelivery(c *gin.Context) {
	orderID, deliveryID, ok := h.parseChild(c, "deliveryId")
	if !ok {
		return
	}
	var req dto.DeliveryRequest
	if !h.BindJSON(c, &req) {
		return
	}
	h.respond(c, false)(h.service.UpdateDelivery(c.Request.Context(), orderID, deliveryID, req.ToInput()))
}

// DeleteDelivery handles DELETE /{orders}/:id/deliveries/:deliveryId.
func (h *OrderHandler) DeleteDelivery(c *gin.Context) {
	orderID, deliveryID, ok := h.parseChild(c, "deliveryId")
	if !ok {
		return
	}
	h.respond(c, false)(h.service.DeleteDelivery(c.Request.Context(), orderID, deliveryID))
}

// --- Payments ---

// ApplyPayment handles POST /{orders}/:id/payments.
func (h *OrderHandler) ApplyPayment(c *gin.Context) {
	orderID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.PaymentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	h.respond(c, true)(h.service.ApplyPayment(c.Request.Context(), orderID, req.ToInput()))
}

// UpdatePayment handles PUT /{orders}/:id/payments/:paymentId.
func (h *OrderHandler) UpdatePayment(c *gin.Context) {
	orderID, paymentID, ok := h.parseChild(c, "paymentId")
	if !ok {
		return
	}
	var req dto.PaymentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	h.respond(c, false)(h.service.UpdatePayment(c.Request.Context(), orderID, paymentID, req.ToInput()))
}

// DeletePayment handles DELETE /{orders}/:id/payments/:paymentId.
func (h *OrderHandler) DeletePayment(c *gin.Context) {
	orderID, paymentID, ok := h.parseChild(c, "paymentId")
	if !ok {
		return
	}
	h.respond(c, false)(h.service.DeletePayment(c.Request.Context(), orderID, paymentID))
}

// parseChild parses the order id and the id of one of its children.
func (h *OrderHandler) parseChild(c *gin.Context, param string) (id.ID, id.ID, bool) {
	orderID, ok := h.ParseID(c, "id")
	if !ok {
		return id.Nil(), id.Nil(), false
	}
	childID, ok := h.ParseID(c, param)
	if !ok {
		return id.Nil(), id.Nil(), false
	}
	return orderID, childID, true
}

// respond writes the order view of a service call: 201 when created is set,
// 200 otherwise.
func (h *OrderHandler) respond(c *gin.Context, created bool) func(*orders.Order, error) {
	return func(o *orders.Order, err error) {
		if err != nil {
			h.Error(c, err)
			return
		}
		if created {
			h.Created(c, dto.FromOrder(o))
			return
		}
		h.OK(c, dto.FromOrder(o))
	}
}
