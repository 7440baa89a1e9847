package postgres

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJournal_EncodeSmallPayloadUncompressed(t *testing.T) {
	j, err := NewJournal(nil)
	require.NoError(t, err)

	payload := []byte(`{"cause":"payment applied"}`)
	changes, compressed, algo := j.encode(payload)

	assert.Equal(t, CompressionNone, algo)
	assert.Nil(t, compressed)
	assert.JSONEq(t, string(payload), string(changes))
}

func TestJournal_LargePayloadRoundTripsThroughZstd(t *testing.T) {
	j, err := NewJournal(nil)
	require.NoError(t, err)

	big, err := json.Marshal(map[string]string{"cause": strings.Repeat("reconcile ", 1000)})
	require.NoError(t, err)

	changes, compressed, algo := j.encode(big)
	require.Equal(t, CompressionZstd, algo)
	assert.Nil(t, changes)
	assert.Less(t, len(compressed), len(big))

	out, err := j.decode(changes, compressed, algo)
	require.NoError(t, err)
	assert.Equal(t, big, out)
}
