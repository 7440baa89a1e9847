package catalog_repo

import (
	"testing"

	"github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderledger/internal/core/apperror"
	"orderledger/internal/domain/parties"
)

func TestPartyRepo_SelectIsScopedAndCountsOrders(t *testing.T) {
	repo := NewPartyRepo(nil, parties.KindSupplier)

	sql, args, err := repo.BaseSelect().Where(squirrel.Eq{"deletion_mark": false}).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "FROM parties WHERE kind = $1 AND deletion_mark = $2")
	assert.Contains(t, sql, "AS total_orders")
	assert.Equal(t, []any{"supplier", false}, args)
}

func TestPartyRepo_TotalsAreNotUpdatableColumns(t *testing.T) {
	repo := NewPartyRepo(nil, parties.KindCustomer)

	assert.NotContains(t, repo.writeCols, "total_orders")
	assert.Contains(t, repo.writeCols, "total_paid")
	assert.Contains(t, repo.immutable, "total_paid")
	assert.Contains(t, repo.immutable, "total_due")
}

func TestParseOrderBy(t *testing.T) {
	repo := NewPartyRepo(nil, parties.KindCustomer)

	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"", "name ASC", false},
		{"name", "name ASC", false},
		{"-created_at", "created_at DESC", false},
		{"+email", "email ASC", false},
		{"total_orders", "", true},
		{"name; DROP TABLE parties", "", true},
		{"-", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := repo.parseOrderBy(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInventoryRepo_DefaultOrder(t *testing.T) {
	repo := NewInventoryRepo(nil)

	got, err := repo.parseOrderBy("")
	require.NoError(t, err)
	assert.Equal(t, "item_name ASC", got)
}
