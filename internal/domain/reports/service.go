package reports

import (
	"context"
	"fmt"
	"time"

	"orderledger/internal/core/apperror"
	"orderledger/internal/core/id"
	"orderledger/internal/domain/parties"
	"orderledger/pkg/logger"
)

const (
	dashboardCacheKey    = "ledger:dashboard"
	defaultLowStockLimit = 10
	DefaultDashboardTTL  = 30 * time.Second
)

// Service provides report generation operations.
type Service struct {
	repo  Repository
	cache Cache
	ttl   time.Duration
	now   func() time.Time
}

// NewService creates a reports service. cache may be nil; a ttl of zero disables caching.
func NewService(repo Repository, cache Cache, ttl time.Duration) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
		ttl:   ttl,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) cacheEnabled() bool {
	return s.cache != nil && s.ttl > 0
}

// Dashboard returns the ledger summary, served from cache when fresh.
// Cache failures are logged and the figures are computed from the database.
func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	if s.cacheEnabled() {
		var cached Dashboard
		hit, err := s.cache.Get(ctx, dashboardCacheKey, &cached)
		if err != nil {
			logger.Warn(ctx, "dashboard cache read failed", "error", err)
		} else if hit {
			return &cached, nil
		}
	}

	d, err := s.repo.GetDashboard(ctx, defaultLowStockLimit)
	if err != nil {
		return nil, fmt.Errorf("get dashboard: %w", err)
	}
	if d.LowStock == nil {
		d.LowStock = []LowStockItem{}
	}
	d.GeneratedAt = s.now()

	if s.cacheEnabled() {
		if err := s.cache.Set(ctx, dashboardCacheKey, d, s.ttl); err != nil {
			logger.Warn(ctx, "dashboard cache write failed", "error", err)
		}
	}
	return d, nil
}

// InvalidateDashboard drops the cached dashboard.
func (s *Service) InvalidateDashboard(ctx context.Context) {
	if !s.cacheEnabled() {
		return
	}
	if err := s.cache.Delete(ctx, dashboardCacheKey); err != nil {
		logger.Warn(ctx, "dashboard cache invalidation failed", "error", err)
	}
}

// Statement returns the statement of a party.
func (s *Service) Statement(ctx context.Context, kind parties.Kind, partyID id.ID) (*Statement, error) {
	if !kind.Valid() {
		return nil, apperror.NewValidation("invalid party kind").WithDetail("kind", string(kind))
	}
	st, err := s.repo.GetStatement(ctx, kind, partyID)
	if err != nil {
		if apperror.IsAppError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("get statement: %w", err)
	}
	if st.Orders == nil {
		st.Orders = []StatementOrder{}
	}
	if st.Payments == nil {
		st.Payments = []StatementPayment{}
	}
	st.GeneratedAt = s.now()
	return st, nil
}
