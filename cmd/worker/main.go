// Package main is the entry point for the order ledger background worker.
// It moves aging-dependent payment statuses forward, reconciles party totals
// and expires idempotency keys.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"orderledger/internal/app"
	"orderledger/internal/config"
	"orderledger/internal/domain/orders"
	"orderledger/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.IsDevelopment(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Info("starting orderledger worker")

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatalw("failed to initialize application", "error", err)
	}
	defer a.Close()

	worker := NewLedgerWorker(log, ledgerJobs(a))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Run(ctx)
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()

	wg.Wait()
	log.Info("worker stopped")
}

// Job is a periodic task.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// ledgerJobs builds the worker's jobs from the wired services.
func ledgerJobs(a *app.App) []Job {
	return []Job{
		{
			Name:     "refresh-statuses",
			Interval: a.Config.StatusRefreshInterval,
			Run: func(ctx context.Context) error {
				for _, svc := range []*orders.Service{a.SalesOrders, a.SupplyOrders} {
					changed, err := svc.RefreshStatuses(ctx)
					if err != nil {
						return err
					}
					if changed > 0 {
						logger.Info(ctx, "payment statuses refreshed", "changed", changed)
					}
				}
				return nil
			},
		},
		{
			Name:     "reconcile",
			Interval: a.Config.ReconcileInterval,
			Run: func(ctx context.Context) error {
				for _, svc := range []*orders.Service{a.SalesOrders, a.SupplyOrders} {
					reports, err := svc.ReconcileAll(ctx)
					if err != nil {
						return err
					}
					drifted := 0
					for _, r := range reports {
						if r.HasDrift() {
							drifted++
						}
					}
					logger.Info(ctx, "parties reconciled", "parties", len(reports), "drifted", drifted)
				}
				return nil
			},
		},
		{
			Name:     "cleanup-idempotency",
			Interval: a.Config.CleanupInterval,
			Run: func(ctx context.Context) error {
				n, err := a.Idempotency.CleanupExpired(ctx)
				if err != nil {
					return err
				}
				if n > 0 {
					logger.Info(ctx, "cleaned up idempotency keys", "count", n)
				}
				return nil
			},
		},
	}
}

// LedgerWorker runs each enabled job on its own ticker until the context ends.
type LedgerWorker struct {
	log  *logger.Logger
	jobs []Job
}

// NewLedgerWorker creates a worker. Jobs with a non-positive interval are skipped.
func NewLedgerWorker(log *logger.Logger, jobs []Job) *LedgerWorker {
	return &LedgerWorker{
		log:  log.WithComponent("worker"),
		jobs: jobs,
	}
}

// Run blocks until ctx is cancelled and every job goroutine has returned.
func (w *LedgerWorker) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, job := range w.jobs {
		if job.Interval <= 0 {
			w.log.Infow("job disabled", "job", job.Name)
			continue
		}
		wg.Add(1)
		go func(job Job) {
			defer wg.Done()
			w.loop(ctx, job)
		}(job)
	}
	wg.Wait()
}

func (w *LedgerWorker) loop(ctx context.Context, job Job) {
	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	log := w.log.With("job", job.Name)
	log.Infow("job scheduled", "interval", job.Interval)
	jobCtx := logger.WithLogger(ctx, log)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			start := time.Now()
			if err := job.Run(jobCtx); err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Errorw("job failed", "error", err)
				continue
			}
			log.Debugw("job finished", "duration_ms", time.Since(start).Milliseconds())
		}
	}
}
