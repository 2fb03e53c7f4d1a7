package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/evalboard/evalboard-api/internal/repository"
)

type stubDiagnosticsRepo struct {
	counts []repository.CombinationCount
}

func (r *stubDiagnosticsRepo) CountByCombination(_ context.Context) ([]repository.CombinationCount, error) {
	return r.counts, nil
}

func TestCoverageFullGrid(t *testing.T) {
	repo := &stubDiagnosticsRepo{counts: []repository.CombinationCount{
		{Module: "M1", Edition: "Ed1", Count: 12},
		{Module: "P2", Edition: "Ed2", Count: 1},
		{Module: "M99", Edition: "Ed1", Count: 5}, // outside the known grid
	}}
	svc := NewDiagnosticsService(repo, nil, zap.NewNop())

	report, err := svc.Coverage(context.Background())
	require.NoError(t, err)

	// 11 known modules x 2 known editions
	assert.Len(t, report.Combinations, 22)
	assert.Equal(t, 22, report.Stats.TotalCombinations)
	assert.Equal(t, 2, report.Stats.CombinationsWithData)
	assert.Equal(t, 20, report.Stats.CombinationsWithoutData)
	assert.Equal(t, 9, report.Stats.CoveragePercentage)

	first := report.Combinations[0]
	assert.Equal(t, "M1", first.Module)
	assert.Equal(t, "Ed1", first.Edition)
	assert.Equal(t, 12, first.ResponseCount)
	assert.True(t, first.HasData)
}

func TestCoverageEmptyDatabase(t *testing.T) {
	svc := NewDiagnosticsService(&stubDiagnosticsRepo{}, nil, zap.NewNop())

	report, err := svc.Coverage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.Stats.CombinationsWithData)
	assert.Equal(t, 0, report.Stats.CoveragePercentage)
	for _, c := range report.Combinations {
		assert.False(t, c.HasData)
	}
}
