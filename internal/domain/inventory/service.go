package inventory

import (
	"context"

	"orderledger/internal/core/apperror"
	"orderledger/internal/core/id"
	"orderledger/internal/core/tx"
	"orderledger/internal/domain"
)

// Repository persists inventory items.
type Repository interface {
	domain.CatalogRepository[*Item]

	// ListLowStock returns active items whose quantity is at or below the threshold.
	ListLowStock(ctx context.Context, limit int) ([]*Item, error)
}

// Service provides business logic for inventory items.
type Service struct {
	*domain.CatalogService[*Item]
	repo Repository
}

// NewService creates an inventory service.
func NewService(repo Repository, txm tx.Manager) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Item]{
		Repo:       repo,
		TxManager:  txm,
		EntityName: "inventory item",
	})
	return &Service{CatalogService: base, repo: repo}
}

// GetOrderable returns the item if it can be put on an order line.
func (s *Service) GetOrderable(ctx context.Context, itemID id.ID) (*Item, error) {
	item, err := s.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.DeletionMark || !item.IsActive() {
		return nil, apperror.NewBusinessRule(apperror.CodeBusinessRule, "inventory item is not active").
			WithDetail("inventory_id", itemID.String())
	}
	return item, nil
}

// ListLowStock returns items that need replenishing.
func (s *Service) ListLowStock(ctx context.Context, limit int) ([]*Item, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.repo.ListLowStock(ctx, limit)
}
