package domain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHookRegistry_RunsInOrderAndStopsAtFirstError(t *testing.T) {
	ctx := context.Background()
	r := NewHookRegistry[*[]string]()
	boom := errors.New("boom")

	r.On(BeforeDelete, func(ctx context.Context, seen *[]string) error {
		*seen = append(*seen, "first")
		return nil
	})
	r.On(BeforeDelete, func(ctx context.Context, seen *[]string) error {
		*seen = append(*seen, "second")
		return boom
	})
	r.On(BeforeDelete, func(ctx context.Context, seen *[]string) error {
		*seen = append(*seen, "third")
		return nil
	})

	var seen []string
	assert.ErrorIs(t, r.Run(ctx, BeforeDelete, &seen), boom)
	assert.Equal(t, []string{"first", "second"}, seen)

	seen = nil
	assert.NoError(t, r.Run(ctx, BeforeCreate, &seen))
	assert.Empty(t, seen)
}

func TestListFilter_Normalize(t *testing.T) {
	f := ListFilter{Limit: MaxPageSize + 1, Offset: -3}
	f.Normalize()
	assert.Equal(t, MaxPageSize, f.Limit)
	assert.Zero(t, f.Offset)

	f = ListFilter{}
	f.Normalize()
	assert.Equal(t, DefaultPageSize, f.Limit)
}
