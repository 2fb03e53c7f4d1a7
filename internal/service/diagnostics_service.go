package service

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/evalboard/evalboard-api/internal/models"
	"github.com/evalboard/evalboard-api/internal/repository"
)

// DiagnosticsResponseRepository describes the persistence required by DiagnosticsService.
type DiagnosticsResponseRepository interface {
	CountByCombination(ctx context.Context) ([]repository.CombinationCount, error)
}

// DiagnosticsService reports data coverage across the full grid of
// known module/edition combinations.
type DiagnosticsService struct {
	repo    DiagnosticsResponseRepository
	metrics *MetricsService
	logger  *zap.Logger
}

// NewDiagnosticsService constructs a diagnostics service.
func NewDiagnosticsService(repo DiagnosticsResponseRepository, metrics *MetricsService, logger *zap.Logger) *DiagnosticsService {
	return &DiagnosticsService{repo: repo, metrics: metrics, logger: logger}
}

// Coverage returns a diagnostic entry for every known combination,
// including the ones with no data at all.
func (s *DiagnosticsService) Coverage(ctx context.Context) (*models.DiagnosticsReport, error) {
	counts, err := s.repo.CountByCombination(ctx)
	if err != nil {
		return nil, fmt.Errorf("count responses: %w", err)
	}

	countsByKey := make(map[string]int, len(counts))
	for _, c := range counts {
		countsByKey[c.Module+"|"+c.Edition] = c.Count
	}

	combinations := make([]models.CombinationDiagnostic, 0, len(models.KnownModules)*len(models.KnownEditions))
	withData := 0
	for _, module := range models.KnownModules {
		for _, edition := range models.KnownEditions {
			count := countsByKey[module+"|"+edition]
			if count > 0 {
				withData++
			}
			combinations = append(combinations, models.CombinationDiagnostic{
				Module:        module,
				Edition:       edition,
				ResponseCount: count,
				HasData:       count > 0,
			})
		}
	}

	total := len(combinations)
	coverage := 0
	if total > 0 {
		coverage = int(math.Round(float64(withData) / float64(total) * 100))
	}

	return &models.DiagnosticsReport{
		Combinations: combinations,
		Stats: models.DiagnosticsStats{
			TotalCombinations:       total,
			CombinationsWithData:    withData,
			CombinationsWithoutData: total - withData,
			CoveragePercentage:      coverage,
		},
	}, nil
}

// SystemMetrics exposes the runtime counter snapshot.
func (s *DiagnosticsService) SystemMetrics() models.SystemMetrics {
	return s.metrics.Snapshot()
}
