// Package app wires storage, services and the HTTP router from a Config.
// The server, the worker and ledgerctl share it.
package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"orderledger/internal/config"
	corelock "orderledger/internal/core/lock"
	"orderledger/internal/domain/inventory"
	"orderledger/internal/domain/orders"
	"orderledger/internal/domain/parties"
	"orderledger/internal/domain/reports"
	"orderledger/internal/infrastructure/cache"
	v1 "orderledger/internal/infrastructure/http/v1"
	"orderledger/internal/infrastructure/http/v1/dto"
	"orderledger/internal/infrastructure/http/v1/handlers"
	"orderledger/internal/infrastructure/lock"
	"orderledger/internal/infrastructure/storage/postgres"
	"orderledger/internal/infrastructure/storage/postgres/catalog_repo"
	"orderledger/internal/infrastructure/storage/postgres/order_repo"
	"orderledger/internal/infrastructure/storage/postgres/report_repo"
	"orderledger/pkg/logger"
	"orderledger/pkg/numerator"
)

// App holds the wired components.
type App struct {
	Config *config.Config
	Log    *logger.Logger

	Pool      *postgres.Pool
	TxManager *postgres.TxManager
	Redis     *redis.Client

	Journal     *postgres.Journal
	Idempotency *postgres.IdempotencyStore

	Customers    *parties.Service
	Suppliers    *parties.Service
	Inventory    *inventory.Service
	SalesOrders  *orders.Service
	SupplyOrders *orders.Service
	Reports      *reports.Service
}

// New connects to Postgres (and Redis when configured) and builds every service.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	poolCfg := postgres.DefaultPoolConfig(cfg.DatabaseURL)
	poolCfg.MaxConns = cfg.DBMaxConns
	poolCfg.MinConns = cfg.DBMinConns

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	a := &App{Config: cfg, Log: log, Pool: pool}
	a.TxManager = postgres.NewTxManager(pool).WithStatementTimeout(cfg.StatementTimeout)

	var (
		locker    corelock.Locker = corelock.Nop{}
		dashCache reports.Cache
	)
	if cfg.RedisURL != "" {
		rdb, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		a.Redis = rdb
		locker = lock.NewRedisLocker(rdb)
		dashCache = cache.NewRedisCache(rdb)
		log.Infow("redis connected", "locks", "redis", "dashboard_cache_ttl", cfg.DashboardCacheTTL)
	} else {
		log.Warn("REDIS_URL not set: party locks are local and the dashboard is not cached")
	}

	a.Journal, err = postgres.NewJournal(a.TxManager)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Idempotency = postgres.NewIdempotencyStore(a.TxManager, cfg.IdempotencyTTL)

	// --- PARTIES ---
	a.Customers = parties.NewService(parties.Config{
		Kind:        parties.KindCustomer,
		Repo:        catalog_repo.NewPartyRepo(a.TxManager, parties.KindCustomer),
		TxManager:   a.TxManager,
		PhoneRegion: cfg.PhoneRegion,
		Journal:     a.Journal,
	})
	a.Suppliers = parties.NewService(parties.Config{
		Kind:        parties.KindSupplier,
		Repo:        catalog_repo.NewPartyRepo(a.TxManager, parties.KindSupplier),
		TxManager:   a.TxManager,
		PhoneRegion: cfg.PhoneRegion,
		Journal:     a.Journal,
	})

	// --- INVENTORY ---
	a.Inventory = inventory.NewService(catalog_repo.NewInventoryRepo(a.TxManager), a.TxManager)

	// --- ORDERS ---
	seq := numerator.NewWithResolver(func(ctx context.Context) numerator.Querier {
		return a.TxManager.GetQuerier(ctx)
	}, numerator.DefaultOptions())
	deriver := orders.NewDeriver(orders.ParseAgingPolicy(cfg.AgingFallback))

	a.SalesOrders, err = orders.NewService(orders.Config{
		Kind:      orders.KindSales,
		Repo:      order_repo.NewOrderRepo(a.TxManager, orders.KindSales),
		Parties:   a.Customers,
		Catalog:   a.Inventory,
		TxManager: a.TxManager,
		Sequencer: seq,
		Locker:    locker,
		Deriver:   deriver,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	a.SupplyOrders, err = orders.NewService(orders.Config{
		Kind:      orders.KindSupply,
		Repo:      order_repo.NewOrderRepo(a.TxManager, orders.KindSupply),
		Parties:   a.Suppliers,
		Catalog:   a.Inventory,
		TxManager: a.TxManager,
		Sequencer: seq,
		Locker:    locker,
		Deriver:   deriver,
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	// --- REPORTS ---
	a.Reports = reports.NewService(report_repo.NewReportRepo(a.TxManager), dashCache, cfg.DashboardCacheTTL)

	return a, nil
}

// OrdersFor returns the order service whose orders belong to parties of kind.
func (a *App) OrdersFor(kind parties.Kind) (*orders.Service, error) {
	switch kind {
	case parties.KindCustomer:
		return a.SalesOrders, nil
	case parties.KindSupplier:
		return a.SupplyOrders, nil
	}
	return nil, fmt.Errorf("unknown party kind %q", kind)
}

// Orders returns the order service of kind.
func (a *App) Orders(kind orders.Kind) (*orders.Service, error) {
	switch kind {
	case orders.KindSales:
		return a.SalesOrders, nil
	case orders.KindSupply:
		return a.SupplyOrders, nil
	}
	return nil, fmt.Errorf("unknown order kind %q", kind)
}

// Router builds the HTTP API.
func (a *App) Router(version string) (*gin.Engine, error) {
	if err := dto.RegisterValidators(a.Config.PhoneRegion); err != nil {
		return nil, err
	}

	rc := v1.RouterConfig{
		Logger:          a.Log,
		DB:              a.Pool,
		Version:         version,
		DefaultCurrency: a.Config.DefaultCurrency,
		Customers:       a.Customers,
		Suppliers:       a.Suppliers,
		Inventory:       a.Inventory,
		SalesOrders:     a.SalesOrders,
		SupplyOrders:    a.SupplyOrders,
		Reports:         a.Reports,
		Journal:         a.Journal,
		Development:     a.Config.IsDevelopment(),
	}
	if a.Config.IdempotencyEnabled {
		rc.Idempotency = a.Idempotency
	}
	if a.Redis != nil {
		rc.HealthChecks = append(rc.HealthChecks, handlers.HealthCheck{
			Name: "redis",
			Ping: func(ctx context.Context) error { return a.Redis.Ping(ctx).Err() },
		})
	}
	return v1.NewRouter(rc), nil
}

// Close releases connections.
func (a *App) Close() {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Log.Warnw("close redis", "error", err)
		}
	}
	a.Pool.Close()
}
