package inventory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderledger/internal/core/apperror"
	"orderledger/internal/core/id"
	"orderledger/internal/core/types"
	"orderledger/internal/domain"
)

type memRepo struct {
	rows map[id.ID]*Item
}

func (r *memRepo) Create(ctx context.Context, it *Item) error {
	c := *it
	r.rows[it.ID] = &c
	return nil
}

func (r *memRepo) GetByID(ctx context.Context, itemID id.ID) (*Item, error) {
	it, ok := r.rows[itemID]
	if !ok {
		return nil, apperror.NewNotFound("inventory item", itemID)
	}
	c := *it
	return &c, nil
}

func (r *memRepo) Update(ctx context.Context, it *Item) error { return r.Create(ctx, it) }

func (r *memRepo) Delete(ctx context.Context, itemID id.ID) error {
	r.rows[itemID].DeletionMark = true
	return nil
}

func (r *memRepo) List(ctx context.Context, f domain.ListFilter) (domain.ListResult[*Item], error) {
	return domain.ListResult[*Item]{}, nil
}

func (r *memRepo) ListLowStock(ctx context.Context, limit int) ([]*Item, error) {
	var out []*Item
	for _, it := range r.rows {
		if it.IsActive() && it.IsLowStock() && len(out) < limit {
			out = append(out, it)
		}
	}
	return out, nil
}

func newService() (*Service, *memRepo) {
	repo := &memRepo{rows: map[id.ID]*Item{}}
	return NewService(repo, nil), repo
}

func TestItem_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Item)
		wantErr bool
	}{
		{"valid", func(*Item) {}, false},
		{"blank name", func(i *Item) { i.ItemName = "  " }, true},
		{"blank sku", func(i *Item) { i.SKU = "" }, true},
		{"long sku", func(i *Item) { i.SKU = "ABCDEFGHIJKLMNOPQRSTUVWXYZ012345" }, true},
		{"negative price", func(i *Item) { i.UnitPrice = types.MustMoney("-1") }, true},
		{"negative quantity", func(i *Item) { i.Quantity = -1 }, true},
		{"unknown status", func(i *Item) { i.Status = "archived" }, true},
		{"bad currency", func(i *Item) { i.Currency = "usd1" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it := NewItem("Widget", "wid-1", types.MustMoney("9.99"))
			tt.mutate(it)
			err := it.Validate(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "WID-1", it.SKU)
		})
	}
}

func TestItem_Stock(t *testing.T) {
	it := NewItem("Widget", "W", types.MustMoney("1"))
	assert.True(t, it.HasStock(), "unmanaged items always have stock")

	it.ManageStock = true
	assert.False(t, it.HasStock())
	it.Quantity = 5
	it.MinThreshold = 5
	assert.True(t, it.HasStock())
	assert.True(t, it.IsLowStock())
	it.Quantity = 6
	assert.False(t, it.IsLowStock())
}

func TestService_GetOrderable(t *testing.T) {
	svc, repo := newService()
	ctx := context.Background()

	active := NewItem("Widget", "W-1", types.MustMoney("10"))
	inactive := NewItem("Gadget", "G-1", types.MustMoney("20"))
	inactive.Status = StatusInactive
	require.NoError(t, svc.Create(ctx, active))
	require.NoError(t, svc.Create(ctx, inactive))

	got, err := svc.GetOrderable(ctx, active.ID)
	require.NoError(t, err)
	assert.Equal(t, "Widget", got.ItemName)

	_, err = svc.GetOrderable(ctx, inactive.ID)
	assert.True(t, apperror.HasCode(err, apperror.CodeBusinessRule))

	require.NoError(t, svc.Delete(ctx, active.ID))
	assert.True(t, repo.rows[active.ID].DeletionMark)
	_, err = svc.GetOrderable(ctx, active.ID)
	assert.True(t, apperror.HasCode(err, apperror.CodeBusinessRule))

	_, err = svc.GetOrderable(ctx, id.New())
	assert.True(t, apperror.IsNotFound(err))
}

func TestService_ListLowStockDefaultsLimit(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		it := NewItem("Bolt", "B-"+string(rune('A'+i)), types.MustMoney("1"))
		require.NoError(t, svc.Create(ctx, it))
	}

	items, err := svc.ListLowStock(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, items, 3)
}
