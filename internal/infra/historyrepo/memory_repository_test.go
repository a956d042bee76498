package historyrepo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/dupcheck/internal/domain/dedup"
)

func TestMemoryRepositoryRecentNewestFirst(t *testing.T) {
	repo := NewMemoryRepository(2)
	ctx := context.Background()
	for _, q := range []string{"a", "b", "c"} {
		require.NoError(t, repo.Insert(ctx, dedup.PredictionRecord{Question1: q}))
	}

	recs, err := repo.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	require.Equal(t, "c", recs[0].Question1)
	require.Equal(t, "b", recs[1].Question1)

	recs, err = repo.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, recs, 1)
}

func TestMemoryRepositoryNearest(t *testing.T) {
	repo := NewMemoryRepository(0)
	ctx := context.Background()
	require.NoError(t, repo.Insert(ctx, dedup.PredictionRecord{Question1: "far", Features: []float64{10, 10}}))
	require.NoError(t, repo.Insert(ctx, dedup.PredictionRecord{Question1: "near", Features: []float64{1, 1}}))

	matches, err := repo.Nearest(ctx, []float64{1, 2}, 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	require.Equal(t, "near", matches[0].Record.Question1)
	require.InDelta(t, 1.0, matches[0].Distance, 1e-9)
}

func TestConversions(t *testing.T) {
	require.Equal(t, []float64{0.5, 2}, toFloat64(toFloat32([]float64{0.5, 2})))
}
