package service

import (
	"context"
	"database/sql"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/evalboard/evalboard-api/internal/models"
	"github.com/evalboard/evalboard-api/internal/repository"
	appErrors "github.com/evalboard/evalboard-api/pkg/errors"
	"github.com/evalboard/evalboard-api/pkg/jobs"
	"github.com/evalboard/evalboard-api/pkg/storage"
)

type stubExportStore struct {
	jobs map[string]*models.ExportJob
	seq  int
}

func newStubExportStore() *stubExportStore {
	return &stubExportStore{jobs: make(map[string]*models.ExportJob)}
}

func (s *stubExportStore) Create(_ context.Context, job *models.ExportJob) error {
	s.seq++
	if job.ID == "" {
		job.ID = "job-1"
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	stored := *job
	s.jobs[job.ID] = &stored
	return nil
}

func (s *stubExportStore) GetByID(_ context.Context, id string) (*models.ExportJob, error) {
	job, ok := s.jobs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *job
	return &copied, nil
}

func (s *stubExportStore) Update(_ context.Context, id string, params repository.UpdateExportJobParams) error {
	job, ok := s.jobs[id]
	if !ok {
		return sql.ErrNoRows
	}
	if params.Status != nil {
		job.Status = *params.Status
	}
	if params.ResultURL != nil {
		job.ResultURL = params.ResultURL
	}
	if params.ErrorMessage != nil {
		job.ErrorMessage = params.ErrorMessage
	}
	if params.FinishedAt != nil {
		job.FinishedAt = params.FinishedAt
	}
	return nil
}

func (s *stubExportStore) ListQueued(_ context.Context, _ int) ([]models.ExportJob, error) {
	var queued []models.ExportJob
	for _, job := range s.jobs {
		if job.Status == models.ExportStatusQueued {
			queued = append(queued, *job)
		}
	}
	return queued, nil
}

func (s *stubExportStore) ListFinishedBefore(_ context.Context, _ time.Time, _ int) ([]models.ExportJob, error) {
	return nil, nil
}

type stubDispatcher struct {
	enqueued []jobs.Job
	err      error
}

func (d *stubDispatcher) Enqueue(job jobs.Job) error {
	if d.err != nil {
		return d.err
	}
	d.enqueued = append(d.enqueued, job)
	return nil
}

type stubReportSource struct{}

func (s *stubReportSource) Generate(_ context.Context, module, edition string) (*models.ReportData, bool, error) {
	report := &models.ReportData{
		Module:         module,
		Edition:        edition,
		TotalStudents:  100,
		TotalResponses: 40,
		ResponseRate:   40,
	}
	report.Course.OverallCourseRating = CalculateItemStatistics([]int{6, 7})
	return report, false, nil
}

func newTestExportService(t *testing.T, store *stubExportStore, queue *stubDispatcher) *ExportService {
	t.Helper()
	fs, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	cfg := ExportServiceConfig{APIPrefix: "/api/v1", ResultTTL: time.Hour, MaxRetries: 2}
	return NewExportService(store, &stubReportSource{}, queue, fs, signer, cfg, zap.NewNop())
}

func TestExportCreateJobEnqueues(t *testing.T) {
	store := newStubExportStore()
	queue := &stubDispatcher{}
	svc := newTestExportService(t, store, queue)

	resp, err := svc.CreateJob(context.Background(), ExportRequest{Format: models.ExportFormatCSV}, "user-1")
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusQueued, resp.Status)
	require.Len(t, queue.enqueued, 1)

	stored := store.jobs[resp.ID]
	assert.Equal(t, models.CodeAll, stored.Params.Module)
	assert.Equal(t, models.CodeAll, stored.Params.Edition)
}

func TestExportCreateJobRejectsUnknownFormat(t *testing.T) {
	svc := newTestExportService(t, newStubExportStore(), &stubDispatcher{})

	_, err := svc.CreateJob(context.Background(), ExportRequest{Format: "xlsx"}, "user-1")
	require.Error(t, err)
	var typed *appErrors.Error
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, appErrors.ErrValidation.Code, typed.Code)
}

func TestExportWorkerRendersAndFinishes(t *testing.T) {
	store := newStubExportStore()
	queue := &stubDispatcher{}
	svc := newTestExportService(t, store, queue)

	resp, err := svc.CreateJob(context.Background(), ExportRequest{Module: "M1", Edition: "Ed1", Format: models.ExportFormatCSV}, "user-1")
	require.NoError(t, err)

	worker := NewExportWorker(store, svc, 2, zap.NewNop())
	require.NoError(t, worker.Handle(context.Background(), jobs.Job{ID: resp.ID}))

	job := store.jobs[resp.ID]
	assert.Equal(t, models.ExportStatusFinished, job.Status)
	require.NotNil(t, job.ResultURL)
	assert.Contains(t, *job.ResultURL, "/api/v1/exports/download/")

	download, err := svc.ResolveDownload(context.Background(), extractToken(*job.ResultURL))
	require.NoError(t, err)
	defer download.File.Close()
	content, err := io.ReadAll(download.File)
	require.NoError(t, err)
	assert.Contains(t, string(content), "Overall Course Rating")
}

func TestExportStatusOwnership(t *testing.T) {
	store := newStubExportStore()
	queue := &stubDispatcher{}
	svc := newTestExportService(t, store, queue)

	resp, err := svc.CreateJob(context.Background(), ExportRequest{Format: models.ExportFormatPDF}, "user-1")
	require.NoError(t, err)

	_, err = svc.GetStatus(context.Background(), resp.ID, "someone-else", models.RoleViewer)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	status, err := svc.GetStatus(context.Background(), resp.ID, "someone-else", models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusQueued, status.Status)
}
