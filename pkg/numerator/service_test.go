package numerator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"
)

type mockRow struct {
	val int64
	err error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.err != nil {
		return m.err
	}
	if len(dest) > 0 {
		if ptr, ok := dest[0].(*int64); ok {
			*ptr = m.val
		}
	}
	return nil
}

// mockQuerier simulates sys_sequences rows keyed by name.
type mockQuerier struct {
	mu    sync.Mutex
	vals  map[string]int64
	calls int
	err   error
}

func newMockQuerier() *mockQuerier {
	return &mockQuerier{vals: map[string]int64{}}
}

func (m *mockQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return &mockRow{err: m.err}
	}

	key := args[0].(string)
	switch {
	case strings.HasPrefix(strings.TrimSpace(sql), "SELECT"):
		return &mockRow{val: m.vals[key]}
	case strings.Contains(sql, "SET current_val = $2"):
		m.vals[key] = args[1].(int64)
	case len(args) == 2:
		m.vals[key] += args[1].(int64)
	default:
		m.vals[key]++
	}
	return &mockRow{val: m.vals[key]}
}

func TestNextValue_Strict(t *testing.T) {
	q := newMockQuerier()
	svc := New(q, DefaultOptions())
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		got, err := svc.NextValue(ctx, "sales_order")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != want {
			t.Errorf("expected %d, got %d", want, got)
		}
	}

	// keys are independent
	got, err := svc.NextValue(ctx, "supply_order")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 1 {
		t.Errorf("expected 1 for a new key, got %d", got)
	}
	if q.calls != 4 {
		t.Errorf("expected one query per number, got %d", q.calls)
	}
}

func TestNextValue_Cached(t *testing.T) {
	q := newMockQuerier()
	svc := New(q, Options{Strategy: StrategyCached, RangeSize: 10})
	ctx := context.Background()

	// First call reserves 1..10.
	got, err := svc.NextValue(ctx, "sales_order")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 1 {
		t.Errorf("expected 1, got %d", got)
	}
	if q.vals["sales_order"] != 10 {
		t.Errorf("expected DB value 10, got %d", q.vals["sales_order"])
	}

	for i := 0; i < 9; i++ {
		if _, err := svc.NextValue(ctx, "sales_order"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if q.calls != 1 {
		t.Errorf("expected values 2..10 from memory, got %d queries", q.calls)
	}

	got, err = svc.NextValue(ctx, "sales_order")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 11 {
		t.Errorf("expected 11, got %d", got)
	}
	if q.vals["sales_order"] != 20 {
		t.Errorf("expected DB value 20, got %d", q.vals["sales_order"])
	}
}

func TestSetValue_InvalidatesCache(t *testing.T) {
	q := newMockQuerier()
	svc := New(q, Options{Strategy: StrategyCached, RangeSize: 10})
	ctx := context.Background()

	if _, err := svc.NextValue(ctx, "sales_order"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.SetValue(ctx, "sales_order", 100); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := svc.NextValue(ctx, "sales_order")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 101 {
		t.Errorf("expected 101 after SetValue(100), got %d", got)
	}

	cur, err := svc.Current(ctx, "sales_order")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cur != 110 {
		t.Errorf("expected reserved max 110, got %d", cur)
	}
}

func TestNextValue_Errors(t *testing.T) {
	q := newMockQuerier()
	svc := New(q, DefaultOptions())
	ctx := context.Background()

	if _, err := svc.NextValue(ctx, ""); err == nil {
		t.Error("expected error for empty key")
	}

	q.err = errors.New("connection reset")
	if _, err := svc.NextValue(ctx, "sales_order"); err == nil {
		t.Error("expected database error to surface")
	}

	var nilSvc *Service
	if _, err := nilSvc.NextValue(ctx, "sales_order"); err == nil {
		t.Error("expected error from nil service")
	}
}

func TestNextValue_ResolverPerCall(t *testing.T) {
	a, b := newMockQuerier(), newMockQuerier()
	type ctxKey struct{}
	svc := NewWithResolver(func(ctx context.Context) Querier {
		if ctx.Value(ctxKey{}) != nil {
			return b
		}
		return a
	}, DefaultOptions())

	if _, err := svc.NextValue(context.Background(), "k"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.NextValue(context.WithValue(context.Background(), ctxKey{}, true), "k"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.calls != 1 || b.calls != 1 {
		t.Errorf("expected one call per querier, got %d and %d", a.calls, b.calls)
	}
}
