package reports

import (
	"context"
	"time"

	"orderledger/internal/core/id"
	"orderledger/internal/domain/parties"
)

// Repository defines report data access.
type Repository interface {
	// GetDashboard computes every dashboard figure. lowStockLimit bounds LowStock.
	GetDashboard(ctx context.Context, lowStockLimit int) (*Dashboard, error)

	// GetStatement returns the statement of a live party of the given kind.
	GetStatement(ctx context.Context, kind parties.Kind, partyID id.ID) (*Statement, error)
}

// Cache stores computed reports. Implemented by the Redis cache.
type Cache interface {
	// Get loads key into dst and reports whether it was present.
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}
