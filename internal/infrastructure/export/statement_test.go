package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"orderledger/internal/core/id"
	"orderledger/internal/core/types"
	"orderledger/internal/domain/orders"
	"orderledger/internal/domain/parties"
	"orderledger/internal/domain/reports"
)

func TestWriteStatement(t *testing.T) {
	note := "bank transfer"
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	st := &reports.Statement{
		PartyID:   id.New(),
		Kind:      parties.KindCustomer,
		Name:      "Acme Ltd",
		Currency:  types.DefaultCurrency,
		TotalPaid: types.MustMoney("100"),
		TotalDue:  types.MustMoney("150"),
		Orders: []reports.StatementOrder{{
			OrderCode:     1001,
			OrderDate:     day,
			OrderValue:    types.MustMoney("250"),
			TotalPaid:     types.MustMoney("100"),
			AmountDue:     types.MustMoney("250"),
			PaymentStatus: orders.PaymentPending,
			OrderStatus:   orders.OrderPendingDeliveries,
		}},
		Payments: []reports.StatementPayment{{
			OrderCode:   1001,
			PaymentCode: "1001abcd1234",
			DatePaid:    day,
			AmountPaid:  types.MustMoney("100"),
			Notes:       &note,
		}},
		GeneratedAt: day,
	}

	var buf bytes.Buffer
	require.NoError(t, WriteStatement(&buf, st))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{summarySheet, ordersSheet, paymentsSheet}, f.GetSheetList())

	name, err := f.GetCellValue(summarySheet, "B1")
	require.NoError(t, err)
	assert.Equal(t, "Acme Ltd", name)

	rows, err := f.GetRows(ordersSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Order code", rows[0][0])
	assert.Equal(t, []string{"1001", "2026-03-01", "250", "100", "250", "pending_payment", "pending_deliveries"}, rows[1])

	rows, err = f.GetRows(paymentsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "1001abcd1234", rows[1][1])
	assert.Equal(t, "bank transfer", rows[1][4])
}

func TestWriteStatement_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteStatement(&buf, &reports.Statement{Name: "Nobody"}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(ordersSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
