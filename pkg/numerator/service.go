// Package numerator hands out per-key sequence numbers backed by sys_sequences.
package numerator

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
)

// Strategy defines the number generation strategy.
type Strategy int

const (
	// StrategyStrict uses UPSERT ... RETURNING for every number.
	// Run inside the caller's transaction it is gapless: a rollback returns the number.
	StrategyStrict Strategy = iota

	// StrategyCached allocates ranges of numbers in memory.
	// Much faster, but a restart leaves gaps.
	StrategyCached
)

// DefaultRangeSize is the number of values reserved at once by StrategyCached.
const DefaultRangeSize = 50

// Options configure number generation.
type Options struct {
	Strategy  Strategy
	RangeSize int64
}

// DefaultOptions returns strict numbering.
func DefaultOptions() Options {
	return Options{Strategy: StrategyStrict}
}

// Querier is the subset of pgx used by the service.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// QuerierFunc resolves the querier for a call, typically the transaction in ctx.
type QuerierFunc func(ctx context.Context) Querier

type cachedRange struct {
	current int64
	max     int64
}

// Service provides sequence numbers.
type Service struct {
	querier QuerierFunc
	opts    Options

	cacheMu sync.Mutex
	ranges  map[string]*cachedRange
}

// New creates a service with a fixed querier.
func New(q Querier, opts Options) *Service {
	return NewWithResolver(func(context.Context) Querier { return q }, opts)
}

// NewWithResolver creates a service that resolves its querier per call.
func NewWithResolver(resolve QuerierFunc, opts Options) *Service {
	if opts.RangeSize <= 0 {
		opts.RangeSize = DefaultRangeSize
	}
	return &Service{
		querier: resolve,
		opts:    opts,
		ranges:  make(map[string]*cachedRange),
	}
}

// NextValue returns the next value of the sequence named key, starting at 1.
func (s *Service) NextValue(ctx context.Context, key string) (int64, error) {
	if s == nil {
		return 0, fmt.Errorf("numerator service is not initialized")
	}
	if key == "" {
		return 0, fmt.Errorf("sequence key is required")
	}
	switch s.opts.Strategy {
	case StrategyCached:
		return s.nextCached(ctx, key)
	default:
		return s.nextStrict(ctx, key)
	}
}

func (s *Service) nextStrict(ctx context.Context, key string) (int64, error) {
	var num int64
	err := s.querier(ctx).QueryRow(ctx, `
		INSERT INTO sys_sequences (key, current_val)
		VALUES ($1, 1)
		ON CONFLICT (key) DO UPDATE SET current_val = sys_sequences.current_val + 1
		RETURNING current_val
	`, key).Scan(&num)
	if err != nil {
		return 0, fmt.Errorf("strict next %s: %w", key, err)
	}
	return num, nil
}

func (s *Service) nextCached(ctx context.Context, key string) (int64, error) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	rng, ok := s.ranges[key]
	if !ok {
		rng = &cachedRange{}
		s.ranges[key] = rng
	}

	if rng.current >= rng.max {
		size := s.opts.RangeSize
		var newMax int64
		// current_val is the last value handed out; the reserved range is
		// (newMax-size, newMax].
		err := s.querier(ctx).QueryRow(ctx, `
			INSERT INTO sys_sequences (key, current_val)
			VALUES ($1, $2)
			ON CONFLICT (key) DO UPDATE SET current_val = sys_sequences.current_val + $2
			RETURNING current_val
		`, key, size).Scan(&newMax)
		if err != nil {
			return 0, fmt.Errorf("reserve range %s: %w", key, err)
		}
		rng.current = newMax - size
		rng.max = newMax
	}

	rng.current++
	return rng.current, nil
}

// Current returns the last value handed out for key, 0 if none.
func (s *Service) Current(ctx context.Context, key string) (int64, error) {
	var num int64
	err := s.querier(ctx).QueryRow(ctx,
		`SELECT COALESCE((SELECT current_val FROM sys_sequences WHERE key = $1), 0)`, key).Scan(&num)
	if err != nil {
		return 0, fmt.Errorf("current %s: %w", key, err)
	}
	return num, nil
}

// SetValue sets the last handed-out value (for data imports).
func (s *Service) SetValue(ctx context.Context, key string, value int64) error {
	var result int64
	err := s.querier(ctx).QueryRow(ctx, `
		INSERT INTO sys_sequences (key, current_val)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET current_val = $2
		RETURNING current_val
	`, key, value).Scan(&result)

	s.cacheMu.Lock()
	delete(s.ranges, key)
	s.cacheMu.Unlock()

	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}
