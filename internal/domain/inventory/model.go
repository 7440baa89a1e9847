// Package inventory provides the catalog of goods that orders refer to.
package inventory

import (
	"context"
	"strings"

	"orderledger/internal/core/apperror"
	"orderledger/internal/core/entity"
	"orderledger/internal/core/types"
)

// Status of an inventory item.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Item is a stock-keeping unit.
type Item struct {
	entity.BaseEntity

	ItemName    string         `db:"item_name" json:"itemName"`
	SKU         string         `db:"sku" json:"sku"`
	Description *string        `db:"description" json:"description,omitempty"`
	Currency    types.Currency `db:"currency" json:"currency"`
	UnitPrice   types.Money    `db:"unit_price" json:"unitPrice"`

	// ManageStock enables quantity tracking at item level
	ManageStock bool `db:"manage_stock" json:"manageStock"`
	Quantity    int64 `db:"quantity" json:"quantity"`

	// MinThreshold is the level at which stock is considered low
	MinThreshold int64  `db:"min_threshold" json:"minThreshold"`
	Status       Status `db:"item_status" json:"itemStatus"`
}

// NewItem creates an active item.
func NewItem(name, sku string, unitPrice types.Money) *Item {
	return &Item{
		BaseEntity: entity.NewBaseEntity(),
		ItemName:   name,
		SKU:        sku,
		Currency:   types.DefaultCurrency,
		UnitPrice:  unitPrice,
		Status:     StatusActive,
	}
}

// HasStock is always true for items without stock management.
func (i *Item) HasStock() bool {
	if i.ManageStock {
		return i.Quantity > 0
	}
	return true
}

// IsLowStock reports whether quantity has fallen to the threshold.
func (i *Item) IsLowStock() bool {
	return i.Quantity <= i.MinThreshold
}

// IsActive reports whether the item may be put on new order lines.
func (i *Item) IsActive() bool {
	return i.Status == StatusActive
}

// Validate implements entity.Validatable.
func (i *Item) Validate(ctx context.Context) error {
	i.ItemName = strings.TrimSpace(i.ItemName)
	i.SKU = strings.ToUpper(strings.TrimSpace(i.SKU))

	if i.ItemName == "" {
		return apperror.NewFieldValidation("itemName", "item name is required")
	}
	if i.SKU == "" {
		return apperror.NewFieldValidation("sku", "sku is required")
	}
	if len(i.SKU) > 30 {
		return apperror.NewFieldValidation("sku", "sku must be at most 30 characters")
	}
	if i.UnitPrice.IsNegative() {
		return apperror.NewFieldValidation("unitPrice", "unit price cannot be negative")
	}
	if i.Quantity < 0 {
		return apperror.NewFieldValidation("quantity", "quantity cannot be negative")
	}
	if i.MinThreshold < 0 {
		return apperror.NewFieldValidation("minThreshold", "min threshold cannot be negative")
	}
	switch i.Status {
	case StatusActive, StatusInactive:
	case "":
		i.Status = StatusActive
	default:
		return apperror.NewFieldValidation("itemStatus", "invalid item status").
			WithDetail("value", string(i.Status))
	}
	cur, err := types.ParseCurrency(string(i.Currency))
	if err != nil {
		return apperror.NewFieldValidation("currency", err.Error())
	}
	i.Currency = cur
	return nil
}
