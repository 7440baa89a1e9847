package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"orderledger/internal/domain/inventory"
	"orderledger/internal/infrastructure/storage/postgres"
)

const inventoryTable = "inventory_items"

// InventoryRepo implements inventory.Repository.
type InventoryRepo struct {
	*BaseCatalogRepo[*inventory.Item]
}

var _ inventory.Repository = (*InventoryRepo)(nil)

// NewInventoryRepo creates a new inventory repository.
func NewInventoryRepo(txm *postgres.TxManager) *InventoryRepo {
	return &InventoryRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(txm, BaseConfig[*inventory.Item]{
			TableName:    inventoryTable,
			EntityName:   "inventory item",
			WriteCols:    postgres.ExtractDBColumns[inventory.Item](),
			SearchCols:   []string{"item_name", "sku"},
			DefaultOrder: "item_name ASC",
			New:          func() *inventory.Item { return &inventory.Item{} },
		}),
	}
}

// ListLowStock returns active stock-managed items at or below their threshold,
// lowest quantity first.
func (r *InventoryRepo) ListLowStock(ctx context.Context, limit int) ([]*inventory.Item, error) {
	sql, args, err := r.BaseSelect().
		Where(squirrel.Eq{
			"deletion_mark": false,
			"manage_stock":  true,
			"item_status":   string(inventory.StatusActive),
		}).
		Where("quantity <= min_threshold").
		OrderBy("quantity ASC", "item_name ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	items := []*inventory.Item{}
	if err := pgxscan.Select(ctx, r.Querier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("list low stock: %w", err)
	}
	return items, nil
}
