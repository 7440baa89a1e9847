package lock

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNop_ObtainAlwaysSucceeds(t *testing.T) {
	ctx := context.Background()
	var l Locker = Nop{}

	first, err := l.Obtain(ctx, PartyKey("p-1"), DefaultTTL)
	require.NoError(t, err)
	second, err := l.Obtain(ctx, PartyKey("p-1"), DefaultTTL)
	require.NoError(t, err, "nop leases never contend")

	assert.NoError(t, first.Release(ctx))
	assert.NoError(t, second.Release(ctx))
}

func TestPartyKey(t *testing.T) {
	assert.Equal(t, "ledger:party:42", PartyKey("42"))
}
