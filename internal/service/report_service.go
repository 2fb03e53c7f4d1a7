package service

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/evalboard/evalboard-api/internal/models"
)

// ReportResponseRepository describes the persistence required by ReportService.
type ReportResponseRepository interface {
	ListAll(ctx context.Context) ([]models.StudentResponse, error)
	DistinctModules(ctx context.Context) ([]string, error)
	DistinctEditions(ctx context.Context) ([]string, error)
}

// ReportService aggregates persisted responses into report payloads.
type ReportService struct {
	repo       ReportResponseRepository
	enrollment *EnrollmentService
	cache      *CacheService
	metrics    *MetricsService
	logger     *zap.Logger
	cacheTTL   time.Duration
}

// NewReportService constructs a report service.
func NewReportService(repo ReportResponseRepository, enrollment *EnrollmentService, cache *CacheService, metrics *MetricsService, cacheTTL time.Duration, logger *zap.Logger) *ReportService {
	return &ReportService{
		repo:       repo,
		enrollment: enrollment,
		cache:      cache,
		metrics:    metrics,
		cacheTTL:   cacheTTL,
		logger:     logger,
	}
}

// Generate computes the full report for a module and edition filter.
// Either axis accepts the ALL wildcard; empty values default to it.
// The boolean indicates whether the payload came from cache.
func (s *ReportService) Generate(ctx context.Context, module, edition string) (*models.ReportData, bool, error) {
	if module == "" {
		module = models.CodeAll
	}
	if edition == "" {
		edition = models.CodeAll
	}

	cacheKey := fmt.Sprintf("reports:data:%s:%s", module, edition)
	var cached models.ReportData
	if s.cache != nil {
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			return &cached, true, nil
		}
	}

	start := time.Now()
	responses, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("list responses: %w", err)
	}
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("report_list_responses", time.Since(start))
	}

	filtered := filterResponses(responses, module, edition)
	report := s.buildReport(module, edition, filtered)

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, report, s.cacheTTL); err != nil {
			s.logger.Warn("cache report", zap.String("key", cacheKey), zap.Error(err))
		}
	}
	return report, false, nil
}

func (s *ReportService) buildReport(module, edition string, filtered []models.StudentResponse) *models.ReportData {
	totalStudents := s.enrollment.EnrolledCount(module, edition)
	totalResponses := len(filtered)

	return &models.ReportData{
		Module:         module,
		Edition:        edition,
		TotalStudents:  totalStudents,
		TotalResponses: totalResponses,
		ResponseRate:   FormatResponseRate(totalResponses, totalStudents),
		Course:         buildCourseStatistics(filtered),
		Teaching:       buildTeachingStatistics(filtered),
		Organization:   buildOrganizationStatistics(filtered),
		Comments:       collectComments(filtered),
	}
}

func filterResponses(responses []models.StudentResponse, module, edition string) []models.StudentResponse {
	filtered := make([]models.StudentResponse, 0, len(responses))
	for _, r := range responses {
		if module != models.CodeAll && r.Module != module {
			continue
		}
		if edition != models.CodeAll && r.Edition != edition {
			continue
		}
		filtered = append(filtered, r)
	}
	return filtered
}

func buildCourseStatistics(responses []models.StudentResponse) models.CourseStatistics {
	return models.CourseStatistics{
		ObjectiveClarity:      CalculateItemStatistics(pluck(responses, func(r models.StudentResponse) int { return r.ObjectiveClarity })),
		ModuleArticulation:    CalculateItemStatistics(pluck(responses, func(r models.StudentResponse) int { return r.ModuleArticulation })),
		PlatformUse:           CalculateItemStatistics(pluck(responses, func(r models.StudentResponse) int { return r.PlatformUse })),
		KnowledgeContribution: CalculateItemStatistics(pluck(responses, func(r models.StudentResponse) int { return r.KnowledgeContribution })),
		OverallCourseRating:   CalculateItemStatistics(pluck(responses, func(r models.StudentResponse) int { return r.OverallCourseRating })),
	}
}

func buildTeachingStatistics(responses []models.StudentResponse) models.TeachingStatistics {
	return models.TeachingStatistics{
		LessonStructure:       CalculateItemStatistics(pluck(responses, func(r models.StudentResponse) int { return r.LessonStructure })),
		ContentDelivery:       CalculateItemStatistics(pluck(responses, func(r models.StudentResponse) int { return r.ContentDelivery })),
		ContentMastery:        CalculateItemStatistics(pluck(responses, func(r models.StudentResponse) int { return r.ContentMastery })),
		Punctuality:           CalculateItemStatistics(pluck(responses, func(r models.StudentResponse) int { return r.Punctuality })),
		SupportAvailability:   CalculateItemStatistics(pluck(responses, func(r models.StudentResponse) int { return r.SupportAvailability })),
		ParticipationStimulus: CalculateItemStatistics(pluck(responses, func(r models.StudentResponse) int { return r.ParticipationStimulus })),
		OverallTeacherRating:  CalculateItemStatistics(pluck(responses, func(r models.StudentResponse) int { return r.OverallTeacherRating })),
	}
}

func buildOrganizationStatistics(responses []models.StudentResponse) models.OrganizationStatistics {
	return models.OrganizationStatistics{
		ExecutiveSupport:    CalculateItemStatistics(pluck(responses, func(r models.StudentResponse) int { return r.ExecutiveSupport })),
		CourseOrganization:  CalculateItemStatistics(pluck(responses, func(r models.StudentResponse) int { return r.CourseOrganization })),
		FacilitiesEquipment: CalculateItemStatistics(pluck(responses, func(r models.StudentResponse) int { return r.FacilitiesEquipment })),
	}
}

func pluck(responses []models.StudentResponse, field func(models.StudentResponse) int) []int {
	values := make([]int, len(responses))
	for i, r := range responses {
		values[i] = field(r)
	}
	return values
}

// collectComments keeps the comments worth reading: non-empty after
// trimming, not the "n/a" placeholder, and not tombstoned by a curator.
func collectComments(responses []models.StudentResponse) []models.ReportComment {
	comments := make([]models.ReportComment, 0)
	for _, r := range responses {
		if r.Comments == nil || r.CommentsDeleted {
			continue
		}
		text := strings.TrimSpace(*r.Comments)
		if text == "" || strings.EqualFold(text, "n/a") {
			continue
		}
		comments = append(comments, models.ReportComment{
			Text:      text,
			Email:     r.Email,
			Module:    r.Module,
			Edition:   r.Edition,
			Timestamp: r.Timestamp,
		})
	}
	return comments
}

// AvailableModules returns the module codes present in the data in
// curriculum order.
func (s *ReportService) AvailableModules(ctx context.Context) ([]string, error) {
	modules, err := s.repo.DistinctModules(ctx)
	if err != nil {
		return nil, fmt.Errorf("distinct modules: %w", err)
	}
	SortModules(modules)
	return modules, nil
}

// AvailableEditions returns the edition codes present in the data in
// display order.
func (s *ReportService) AvailableEditions(ctx context.Context) ([]string, error) {
	editions, err := s.repo.DistinctEditions(ctx)
	if err != nil {
		return nil, fmt.Errorf("distinct editions: %w", err)
	}
	SortEditions(editions)
	return editions, nil
}

var modulePattern = regexp.MustCompile(`([MP])(\d+)`)

// SortModules orders module codes M1..M9 before P1, P2. Codes outside
// the pattern sort last in their incoming order.
func SortModules(modules []string) {
	sort.SliceStable(modules, func(i, j int) bool {
		return moduleRank(modules[i]) < moduleRank(modules[j])
	})
}

func moduleRank(code string) int {
	match := modulePattern.FindStringSubmatch(code)
	if match == nil {
		return 999
	}
	rank := 0
	if match[1] == "P" {
		rank = 100
	}
	number, _ := strconv.Atoi(match[2])
	return rank + number
}

// SortEditions orders plain numeric editions first (Ed1..Ed11), then
// the C variants, then the CES variants. Unknown codes sort last.
func SortEditions(editions []string) {
	sort.SliceStable(editions, func(i, j int) bool {
		return editionRank(editions[i]) < editionRank(editions[j])
	})
}

func editionRank(code string) int {
	trimmed := strings.TrimPrefix(code, "Ed")

	if strings.Contains(trimmed, "CES") {
		number, err := strconv.Atoi(strings.Replace(trimmed, "CES", "", 1))
		if err != nil {
			return 9999
		}
		return 3000 + number
	}
	if strings.Contains(trimmed, "C") {
		number, err := strconv.Atoi(strings.Replace(trimmed, "C", "", 1))
		if err != nil {
			return 9999
		}
		return 2000 + number
	}
	if number, err := strconv.Atoi(trimmed); err == nil {
		return 1000 + number
	}
	return 9999
}
