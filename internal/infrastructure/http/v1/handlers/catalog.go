package handlers

import (
	"github.com/gin-gonic/gin"

	"orderledger/internal/core/entity"
	"orderledger/internal/domain"
	"orderledger/internal/infrastructure/http/v1/dto"
)

// CatalogCodec converts between the wire DTOs of a reference record and its entity.
type CatalogCodec[T any, CreateReq any, UpdateReq any] interface {
	// New builds a fresh entity from a create request.
	New(req CreateReq) T
	// Apply copies the fields present in req onto existing, including the version
	// the client based its edit on.
	Apply(req UpdateReq, existing T)
	Render(e T) any
}

// CatalogHandler serves list/get/create/update/delete for a reference record
// (parties, inventory items) on top of a domain.CatalogService.
type CatalogHandler[T entity.Validatable, CreateReq any, UpdateReq any] struct {
	*BaseHandler
	service *domain.CatalogService[T]
	codec   CatalogCodec[T, CreateReq, UpdateReq]
}

// NewCatalogHandler creates a catalog handler.
func NewCatalogHandler[T entity.Validatable, CreateReq any, UpdateReq any](
	base *BaseHandler,
	service *domain.CatalogService[T],
	codec CatalogCodec[T, CreateReq, UpdateReq],
) *CatalogHandler[T, CreateReq, UpdateReq] {
	return &CatalogHandler[T, CreateReq, UpdateReq]{
		BaseHandler: base,
		service:     service,
		codec:       codec,
	}
}

// List handles GET /{entity}.
func (h *CatalogHandler[T, CreateReq, UpdateReq]) List(c *gin.Context) {
	var q dto.ListQuery
	if !h.BindQuery(c, &q) {
		return
	}

	result, err := h.service.List(c.Request.Context(), q.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, h.page(result))
}

// Get handles GET /{entity}/:id.
func (h *CatalogHandler[T, CreateReq, UpdateReq]) Get(c *gin.Context) {
	entityID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	e, err := h.service.GetByID(c.Request.Context(), entityID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, h.codec.Render(e))
}

// Create handles POST /{entity}.
func (h *CatalogHandler[T, CreateReq, UpdateReq]) Create(c *gin.Context) {
	var req CreateReq
	if !h.BindJSON(c, &req) {
		return
	}

	e := h.codec.New(req)
	if err := h.service.Create(c.Request.Context(), e); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, h.codec.Render(e))
}

// Update handles PUT /{entity}/:id. A stale version is rejected by the repository
// with CONCURRENT_MODIFICATION.
func (h *CatalogHandler[T, CreateReq, UpdateReq]) Update(c *gin.Context) {
	entityID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req UpdateReq
	if !h.BindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	e, err := h.service.GetByID(ctx, entityID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.codec.Apply(req, e)
	if err := h.service.Update(ctx, e); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, h.codec.Render(e))
}

// Delete handles DELETE /{entity}/:id.
func (h *CatalogHandler[T, CreateReq, UpdateReq]) Delete(c *gin.Context) {
	entityID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), entityID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

func (h *CatalogHandler[T, CreateReq, UpdateReq]) page(result domain.ListResult[T]) dto.ListResponse {
	items := make([]any, 0, len(result.Items))
	for _, e := range result.Items {
		items = append(items, h.codec.Render(e))
	}
	return dto.ListResponse{
		Items:      items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	}
}
