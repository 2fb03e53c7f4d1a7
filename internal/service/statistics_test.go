package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateMeanIgnoresUnanswered(t *testing.T) {
	assert.InDelta(t, 3.25, CalculateMean([]int{1, 1, 4, 7, 0, 0}), 0.001)
	assert.Equal(t, 0.0, CalculateMean(nil))
	assert.Equal(t, 0.0, CalculateMean([]int{0, 0, 0}))
}

func TestCalculateMeanRejectsOutOfScale(t *testing.T) {
	assert.InDelta(t, 4.0, CalculateMean([]int{4, 8, -1, 99}), 0.001)
}

func TestCalculateStdDevPopulation(t *testing.T) {
	// mean 3.25, squared deviations 5.0625*2 + 0.5625 + 14.0625
	assert.InDelta(t, 2.49, CalculateStdDev([]int{1, 1, 4, 7}), 0.001)
	assert.Equal(t, 0.0, CalculateStdDev([]int{5}))
	assert.Equal(t, 0.0, CalculateStdDev(nil))
}

func TestCalculateDistributionAllBucketsPresent(t *testing.T) {
	dist := CalculateDistribution([]int{1, 1, 4, 7, 0})
	assert.Len(t, dist, 7)
	assert.Equal(t, 2, dist["1"])
	assert.Equal(t, 0, dist["2"])
	assert.Equal(t, 1, dist["4"])
	assert.Equal(t, 1, dist["7"])
}

func TestCalculateItemStatistics(t *testing.T) {
	stats := CalculateItemStatistics([]int{6, 7, 7, 0})
	assert.Equal(t, 3, stats.N)
	assert.InDelta(t, 6.67, stats.Mean, 0.001)
	assert.Equal(t, 2, stats.Distribution["7"])
}

func TestFormatResponseRate(t *testing.T) {
	assert.Equal(t, 50, FormatResponseRate(10, 20))
	assert.Equal(t, 33, FormatResponseRate(1, 3))
	assert.Equal(t, 67, FormatResponseRate(2, 3))
	assert.Equal(t, 0, FormatResponseRate(5, 0))
}
