package service

import (
	"math"
	"strconv"

	"github.com/evalboard/evalboard-api/internal/models"
)

// validRatings filters a rating series down to the answered values.
// Zero means the student skipped the question and out-of-scale values
// come from malformed sheet cells; neither participates in statistics.
func validRatings(values []int) []int {
	filtered := make([]int, 0, len(values))
	for _, v := range values {
		if v >= models.RatingMin && v <= models.RatingMax {
			filtered = append(filtered, v)
		}
	}
	return filtered
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// CalculateMean returns the mean of the answered ratings rounded to two
// decimals, or 0 when nothing was answered.
func CalculateMean(values []int) float64 {
	filtered := validRatings(values)
	if len(filtered) == 0 {
		return 0
	}
	sum := 0
	for _, v := range filtered {
		sum += v
	}
	return round2(float64(sum) / float64(len(filtered)))
}

// CalculateStdDev returns the population standard deviation of the
// answered ratings rounded to two decimals.
func CalculateStdDev(values []int) float64 {
	filtered := validRatings(values)
	if len(filtered) == 0 {
		return 0
	}
	mean := 0.0
	for _, v := range filtered {
		mean += float64(v)
	}
	mean /= float64(len(filtered))

	variance := 0.0
	for _, v := range filtered {
		diff := float64(v) - mean
		variance += diff * diff
	}
	variance /= float64(len(filtered))
	return round2(math.Sqrt(variance))
}

// CalculateDistribution buckets the answered ratings per scale point.
// Every bucket from "1" to "7" is present even when empty so chart
// consumers never have to backfill.
func CalculateDistribution(values []int) map[string]int {
	distribution := make(map[string]int, models.RatingMax)
	for i := models.RatingMin; i <= models.RatingMax; i++ {
		distribution[strconv.Itoa(i)] = 0
	}
	for _, v := range validRatings(values) {
		distribution[strconv.Itoa(v)]++
	}
	return distribution
}

// CalculateItemStatistics computes the full statistics block for one
// survey item.
func CalculateItemStatistics(values []int) models.ItemStatistics {
	return models.ItemStatistics{
		N:            len(validRatings(values)),
		Mean:         CalculateMean(values),
		StdDev:       CalculateStdDev(values),
		Distribution: CalculateDistribution(values),
	}
}

// FormatResponseRate returns the whole-percent response rate for the
// given counts. A zero enrollment yields 0 rather than a division error.
func FormatResponseRate(responses, enrolled int) int {
	if enrolled <= 0 {
		return 0
	}
	return int(math.Round(float64(responses) / float64(enrolled) * 100))
}
