package order_repo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderledger/internal/core/id"
	"orderledger/internal/domain"
	"orderledger/internal/domain/orders"
)

func TestApplyFilter(t *testing.T) {
	repo := NewOrderRepo(nil, orders.KindSupply)
	partyID := id.New()
	status := orders.PaymentOverdue

	q := repo.applyFilter(repo.baseSelect(), orders.ListFilter{
		ListFilter:    domain.ListFilter{Limit: 10},
		PartyID:       &partyID,
		PaymentStatus: &status,
	})
	sql, args, err := q.ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "FROM orders WHERE kind = $1 AND deletion_mark = $2 AND party_id = $3 AND payment_status = $4")
	// squirrel resolves driver.Valuer arguments, so the uuid arrives as text
	assert.Equal(t, []any{"supply", false, partyID.String(), "overdue"}, args)
}

func TestApplyFilter_IncludeDeletedAndSearch(t *testing.T) {
	repo := NewOrderRepo(nil, orders.KindSales)

	q := repo.applyFilter(repo.baseSelect(), orders.ListFilter{
		ListFilter: domain.ListFilter{IncludeDeleted: true, Search: "acme"},
	})
	sql, args, err := q.ToSql()
	require.NoError(t, err)

	assert.NotContains(t, sql, "deletion_mark =")
	assert.Contains(t, sql, "party_name ILIKE $2")
	assert.Equal(t, []any{"sales", "%acme%", "%acme%"}, args)
}

func TestParseOrderBy(t *testing.T) {
	got, err := parseOrderBy("")
	require.NoError(t, err)
	assert.Equal(t, "order_code DESC", got)

	got, err = parseOrderBy("-amount_due")
	require.NoError(t, err)
	assert.Equal(t, "amount_due DESC", got)

	got, err = parseOrderBy("order_date")
	require.NoError(t, err)
	assert.Equal(t, "order_date ASC", got)

	_, err = parseOrderBy("payment_code")
	assert.Error(t, err)
}

func TestColumnsSkipChildren(t *testing.T) {
	assert.NotContains(t, orderCols, "items")
	assert.NotContains(t, orderCols, "payments")
	assert.NotContains(t, itemCols, "deliveries")
	assert.Contains(t, orderCols, "party_name")
}
