package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/evalboard/evalboard-api/internal/models"
)

type stubReportRepo struct {
	responses []models.StudentResponse
	modules   []string
	editions  []string
}

func (r *stubReportRepo) ListAll(_ context.Context) ([]models.StudentResponse, error) {
	return r.responses, nil
}

func (r *stubReportRepo) DistinctModules(_ context.Context) ([]string, error) {
	return r.modules, nil
}

func (r *stubReportRepo) DistinctEditions(_ context.Context) ([]string, error) {
	return r.editions, nil
}

func strPtr(s string) *string { return &s }

func sampleResponse(email, module, edition string, rating int, comment *string) models.StudentResponse {
	return models.StudentResponse{
		Email:               email,
		Module:              module,
		Edition:             edition,
		Timestamp:           time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		OverallCourseRating: rating,
		Comments:            comment,
	}
}

func newReportService(repo *stubReportRepo) *ReportService {
	return NewReportService(repo, NewEnrollmentService("", nil), nil, nil, 0, zap.NewNop())
}

func TestGenerateFiltersAndAggregates(t *testing.T) {
	repo := &stubReportRepo{responses: []models.StudentResponse{
		sampleResponse("a@example.com", "M1", "Ed1", 7, strPtr("great")),
		sampleResponse("b@example.com", "M1", "Ed1", 5, nil),
		sampleResponse("c@example.com", "M2", "Ed1", 1, strPtr("other module")),
	}}

	report, cached, err := newReportService(repo).Generate(context.Background(), "M1", "Ed1")
	require.NoError(t, err)
	assert.False(t, cached)

	assert.Equal(t, "M1", report.Module)
	assert.Equal(t, 447, report.TotalStudents)
	assert.Equal(t, 2, report.TotalResponses)
	assert.Equal(t, 0, report.ResponseRate) // round(2/447*100) = 0
	assert.Equal(t, 2, report.Course.OverallCourseRating.N)
	assert.InDelta(t, 6.0, report.Course.OverallCourseRating.Mean, 0.001)
	require.Len(t, report.Comments, 1)
	assert.Equal(t, "great", report.Comments[0].Text)
	assert.Equal(t, "a@example.com", report.Comments[0].Email)
}

func TestGenerateWildcardsAndDefaults(t *testing.T) {
	repo := &stubReportRepo{responses: []models.StudentResponse{
		sampleResponse("a@example.com", "M1", "Ed1", 7, nil),
		sampleResponse("b@example.com", "M2", "Ed2", 6, nil),
	}}

	report, _, err := newReportService(repo).Generate(context.Background(), "", "")
	require.NoError(t, err)
	assert.Equal(t, models.CodeAll, report.Module)
	assert.Equal(t, models.CodeAll, report.Edition)
	assert.Equal(t, 2, report.TotalResponses)
}

func TestGenerateEmptyPopulation(t *testing.T) {
	repo := &stubReportRepo{}
	report, _, err := newReportService(repo).Generate(context.Background(), "M9", "Ed2")
	require.NoError(t, err)

	assert.Equal(t, 0, report.TotalResponses)
	assert.Equal(t, 0, report.TotalStudents)
	assert.Equal(t, 0, report.ResponseRate)
	assert.Equal(t, 0, report.Course.ObjectiveClarity.N)
	assert.Len(t, report.Course.ObjectiveClarity.Distribution, 7)
	assert.Empty(t, report.Comments)
}

func TestCollectCommentsFiltering(t *testing.T) {
	tombstoned := sampleResponse("d@example.com", "M1", "Ed1", 5, strPtr("hidden"))
	tombstoned.CommentsDeleted = true

	comments := collectComments([]models.StudentResponse{
		sampleResponse("a@example.com", "M1", "Ed1", 7, strPtr("  keep me  ")),
		sampleResponse("b@example.com", "M1", "Ed1", 6, strPtr("N/A")),
		sampleResponse("c@example.com", "M1", "Ed1", 6, strPtr("   ")),
		tombstoned,
	})

	require.Len(t, comments, 1)
	assert.Equal(t, "keep me", comments[0].Text)
}

func TestSortModules(t *testing.T) {
	modules := []string{"P2", "M1", "M9", "P1", "M2", "X9"}
	SortModules(modules)
	assert.Equal(t, []string{"M1", "M2", "M9", "P1", "P2", "X9"}, modules)
}

func TestSortEditions(t *testing.T) {
	editions := []string{"Ed1CES", "Ed2", "Ed1C", "Ed11", "Ed1", "EdX"}
	SortEditions(editions)
	assert.Equal(t, []string{"Ed1", "Ed2", "Ed11", "Ed1C", "Ed1CES", "EdX"}, editions)
}

func TestAvailableModulesSorted(t *testing.T) {
	repo := &stubReportRepo{modules: []string{"P1", "M3", "M1"}, editions: []string{"Ed2", "Ed1"}}
	svc := newReportService(repo)

	modules, err := svc.AvailableModules(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"M1", "M3", "P1"}, modules)

	editions, err := svc.AvailableEditions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Ed1", "Ed2"}, editions)
}
