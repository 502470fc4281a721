package memory

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"soda/internal/core"
	"soda/internal/repository"
)

func fields(day int, sales int64) core.Fields {
	return core.Fields{Date: core.NewDate(2024, 3, day), Sales: decimal.NewFromInt(sales)}
}

func TestStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	s := New()

	id, err := s.Create(ctx, fields(4, 1000))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	_, err = s.Create(ctx, fields(5, 200))
	require.NoError(t, err)

	all, err := s.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, id, all[0].ID)
	assert.True(t, all[0].FinalProfit.Equal(decimal.NewFromInt(1000)))

	require.NoError(t, s.Update(ctx, id, fields(4, 1500)))
	all, _ = s.ListAll(ctx)
	assert.True(t, all[0].Sales.Equal(decimal.NewFromInt(1500)))

	require.NoError(t, s.Delete(ctx, id))
	assert.Equal(t, 1, s.Len())
}

func TestStoreMissingID(t *testing.T) {
	s := New()
	err := s.Delete(context.Background(), "nope")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Equal(t, 404, repository.Status(err))

	err = s.Update(context.Background(), "nope", fields(4, 1))
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestStoreRejectsUndated(t *testing.T) {
	s := New()
	_, err := s.Create(context.Background(), core.Fields{Sales: decimal.NewFromInt(1)})
	require.Error(t, err)
	assert.Equal(t, 400, repository.Status(err))
	assert.Equal(t, 0, s.Len())
}

func TestSeedKeepsIDs(t *testing.T) {
	s := New(core.NewSummary("seed-1", fields(4, 10), core.StoredTotals{}))
	all, err := s.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "seed-1", all[0].ID)
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().ListAll(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
