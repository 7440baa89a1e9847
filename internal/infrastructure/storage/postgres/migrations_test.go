package postgres

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderledger/internal/core/types"
)

var currencyDefault = regexp.MustCompile(`(?m)^\s*currency\s+CHAR\(3\)\s+NOT NULL DEFAULT '([A-Z]{3})'`)

func TestMigrations_CurrencyDefaultsMatchDomain(t *testing.T) {
	raw, err := os.ReadFile(filepath.Join("..", "..", "..", "..", "db", "migrations", "00001_ledger.sql"))
	require.NoError(t, err)

	matches := currencyDefault.FindAllStringSubmatch(string(raw), -1)
	require.Len(t, matches, 5, "parties, inventory_items, orders, order_items and payments")
	for _, m := range matches {
		assert.Equal(t, string(types.DefaultCurrency), m[1])
	}
}
