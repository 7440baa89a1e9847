package dto

import (
	"time"

	"orderledger/internal/core/types"
	"orderledger/internal/domain/inventory"
)

// --- Request DTOs ---

// CreateItemRequest is the request body for creating an inventory item.
type CreateItemRequest struct {
	ItemName     string           `json:"itemName" binding:"required,max=255"`
	SKU          string           `json:"sku" binding:"required,max=30"`
	Description  *string          `json:"description"`
	Currency     string           `json:"currency" binding:"omitempty,currency"`
	UnitPrice    types.Money      `json:"unitPrice"`
	ManageStock  bool             `json:"manageStock"`
	Quantity     int64            `json:"quantity" binding:"min=0"`
	MinThreshold int64            `json:"minThreshold" binding:"min=0"`
	ItemStatus   inventory.Status `json:"itemStatus" binding:"omitempty,oneof=active inactive"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateItemRequest) ToEntity(def types.Currency) *inventory.Item {
	item := inventory.NewItem(r.ItemName, r.SKU, r.UnitPrice)
	item.Description = optString(r.Description)
	item.Currency = def
	if r.Currency != "" {
		item.Currency = types.Currency(r.Currency)
	}
	item.ManageStock = r.ManageStock
	item.Quantity = r.Quantity
	item.MinThreshold = r.MinThreshold
	if r.ItemStatus != "" {
		item.Status = r.ItemStatus
	}
	return item
}

// UpdateItemRequest is the request body for updating an inventory item.
type UpdateItemRequest struct {
	ItemName     *string           `json:"itemName" binding:"omitempty,max=255"`
	SKU          *string           `json:"sku" binding:"omitempty,max=30"`
	Description  *string           `json:"description"`
	Currency     *string           `json:"currency" binding:"omitempty,currency"`
	UnitPrice    *types.Money      `json:"unitPrice"`
	ManageStock  *bool             `json:"manageStock"`
	Quantity     *int64            `json:"quantity" binding:"omitempty,min=0"`
	MinThreshold *int64            `json:"minThreshold" binding:"omitempty,min=0"`
	ItemStatus   *inventory.Status `json:"itemStatus" binding:"omitempty,oneof=active inactive"`
	Version      int               `json:"version" binding:"required,min=1"`
}

// ApplyTo applies update to existing entity.
func (r *UpdateItemRequest) ApplyTo(item *inventory.Item) {
	if r.ItemName != nil {
		item.ItemName = *r.ItemName
	}
	if r.SKU != nil {
		item.SKU = *r.SKU
	}
	if r.Description != nil {
		item.Description = optString(r.Description)
	}
	if r.Currency != nil {
		item.Currency = types.Currency(*r.Currency)
	}
	if r.UnitPrice != nil {
		item.UnitPrice = *r.UnitPrice
	}
	if r.ManageStock != nil {
		item.ManageStock = *r.ManageStock
	}
	if r.Quantity != nil {
		item.Quantity = *r.Quantity
	}
	if r.MinThreshold != nil {
		item.MinThreshold = *r.MinThreshold
	}
	if r.ItemStatus != nil {
		item.Status = *r.ItemStatus
	}
	item.Version = r.Version
}

// --- Response DTOs ---

// ItemResponse is the response for an inventory item.
type ItemResponse struct {
	ID           string           `json:"id"`
	ItemName     string           `json:"itemName"`
	SKU          string           `json:"sku"`
	Description  *string          `json:"description,omitempty"`
	Currency     types.Currency   `json:"currency"`
	UnitPrice    types.Money      `json:"unitPrice"`
	ManageStock  bool             `json:"manageStock"`
	Quantity     int64            `json:"quantity"`
	MinThreshold int64            `json:"minThreshold"`
	ItemStatus   inventory.Status `json:"itemStatus"`
	HasStock     bool             `json:"hasStock"`
	IsLowStock   bool             `json:"isLowStock"`
	DeletionMark bool             `json:"deletionMark"`
	Version      int              `json:"version"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
}

// FromItem creates response DTO from domain entity.
func FromItem(i *inventory.Item) ItemResponse {
	return ItemResponse{
		ID:           i.ID.String(),
		ItemName:     i.ItemName,
		SKU:          i.SKU,
		Description:  i.Description,
		Currency:     i.Currency,
		UnitPrice:    i.UnitPrice,
		ManageStock:  i.ManageStock,
		Quantity:     i.Quantity,
		MinThreshold: i.MinThreshold,
		ItemStatus:   i.Status,
		HasStock:     i.HasStock(),
		IsLowStock:   i.IsLowStock(),
		DeletionMark: i.DeletionMark,
		Version:      i.Version,
		CreatedAt:    i.CreatedAt,
		UpdatedAt:    i.UpdatedAt,
	}
}
