package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/evalboard/evalboard-api/internal/models"
	"github.com/evalboard/evalboard-api/pkg/config"
	appErrors "github.com/evalboard/evalboard-api/pkg/errors"
)

type stubResponseRepo struct {
	records     map[string]*models.StudentResponse
	insertErrOn string
	inserted    []models.StudentResponse
	updated     []models.StudentResponse
	commentsOn  []bool
}

func newStubResponseRepo() *stubResponseRepo {
	return &stubResponseRepo{records: make(map[string]*models.StudentResponse)}
}

func responseKey(email, module, edition string) string {
	return email + "|" + module + "|" + edition
}

func (r *stubResponseRepo) FindByIdentity(_ context.Context, email, module, edition string) (*models.StudentResponse, error) {
	if existing, ok := r.records[responseKey(email, module, edition)]; ok {
		copied := *existing
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (r *stubResponseRepo) Insert(_ context.Context, response *models.StudentResponse) error {
	if r.insertErrOn != "" && response.Email == r.insertErrOn {
		return errors.New("insert rejected")
	}
	response.ID = fmt.Sprintf("resp-%d", len(r.records)+1)
	stored := *response
	r.records[responseKey(response.Email, response.Module, response.Edition)] = &stored
	r.inserted = append(r.inserted, stored)
	return nil
}

func (r *stubResponseRepo) Update(_ context.Context, response *models.StudentResponse, includeComments bool) error {
	key := responseKey(response.Email, response.Module, response.Edition)
	existing, ok := r.records[key]
	if !ok {
		return errors.New("missing record")
	}
	stored := *response
	stored.CommentsDeleted = existing.CommentsDeleted
	if !includeComments {
		stored.Comments = existing.Comments
	}
	r.records[key] = &stored
	r.updated = append(r.updated, stored)
	r.commentsOn = append(r.commentsOn, includeComments)
	return nil
}

type stubRunRepo struct {
	created        *models.SyncRun
	completedID    string
	completedState models.SyncStatus
	processed      int
	added          int
	updatedCount   int
	errorMessage   *string
	runs           []models.SyncRunDetail
	lastErr        error
}

func (r *stubRunRepo) CreateRun(_ context.Context, run *models.SyncRun) error {
	run.ID = "run-1"
	run.Status = models.SyncStatusRunning
	run.StartedAt = time.Now().UTC()
	r.created = run
	return nil
}

func (r *stubRunRepo) CompleteRun(_ context.Context, id string, status models.SyncStatus, rowsProcessed, rowsAdded, rowsUpdated int, errorMessage *string) error {
	r.completedID = id
	r.completedState = status
	r.processed = rowsProcessed
	r.added = rowsAdded
	r.updatedCount = rowsUpdated
	r.errorMessage = errorMessage
	return nil
}

func (r *stubRunRepo) ListRuns(_ context.Context, _ int) ([]models.SyncRunDetail, error) {
	return r.runs, nil
}

func (r *stubRunRepo) LastRun(_ context.Context) (*models.SyncRunDetail, error) {
	if r.lastErr != nil {
		return nil, r.lastErr
	}
	if len(r.runs) == 0 {
		return nil, sql.ErrNoRows
	}
	return &r.runs[0], nil
}

type stubRowSource struct {
	rows [][]string
	err  error
}

func (s *stubRowSource) ReadRows(_ context.Context, _ string) ([][]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.rows, nil
}

func dataRow(email, edition, module, comment string) []string {
	return []string{"2024-03-01 10:00:00", email, edition, module,
		"7", "6", "5", "4", "3",
		"7", "7", "7", "6", "6", "6", "7",
		"5", "5", "4", comment}
}

func newSyncService(responses *stubResponseRepo, runs *stubRunRepo, source *stubRowSource) *SyncService {
	cfg := config.SyncConfig{SourceTimeout: time.Second, HistoryLimit: 10}
	return NewSyncService(responses, runs, nil, source, NewSheetParser(nil), nil, nil, cfg, zap.NewNop())
}

func TestSyncInsertsAndUpdates(t *testing.T) {
	responses := newStubResponseRepo()
	responses.records[responseKey("old@example.com", "M1", "Ed1")] = &models.StudentResponse{
		ID: "resp-0", Email: "old@example.com", Module: "M1", Edition: "Ed1",
	}
	runs := &stubRunRepo{}
	source := &stubRowSource{rows: [][]string{
		sheetHeader(),
		dataRow("new@example.com", "1", "M2", ""),
		dataRow("old@example.com", "1", "M1", "still here"),
	}}

	svc := newSyncService(responses, runs, source)
	result, err := svc.Sync(context.Background(), "user-1", "token")
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 2, result.RowsProcessed)
	assert.Equal(t, 1, result.RowsAdded)
	assert.Equal(t, 1, result.RowsUpdated)
	assert.Empty(t, result.Errors)

	assert.Equal(t, "run-1", runs.completedID)
	assert.Equal(t, models.SyncStatusSuccess, runs.completedState)
	assert.Equal(t, 2, runs.processed)
	assert.Nil(t, runs.errorMessage)
}

func TestSyncIsIdempotent(t *testing.T) {
	responses := newStubResponseRepo()
	runs := &stubRunRepo{}
	source := &stubRowSource{rows: [][]string{
		sheetHeader(),
		dataRow("a@example.com", "1", "M1", "nice"),
	}}

	svc := newSyncService(responses, runs, source)
	_, err := svc.Sync(context.Background(), "user-1", "token")
	require.NoError(t, err)
	result, err := svc.Sync(context.Background(), "user-1", "token")
	require.NoError(t, err)

	assert.Equal(t, 0, result.RowsAdded)
	assert.Equal(t, 1, result.RowsUpdated)
	assert.Len(t, responses.records, 1)
}

func TestSyncPreservesCommentTombstone(t *testing.T) {
	responses := newStubResponseRepo()
	responses.records[responseKey("a@example.com", "M1", "Ed1")] = &models.StudentResponse{
		ID: "resp-0", Email: "a@example.com", Module: "M1", Edition: "Ed1",
		Comments: nil, CommentsDeleted: true,
	}
	runs := &stubRunRepo{}
	source := &stubRowSource{rows: [][]string{
		sheetHeader(),
		dataRow("a@example.com", "1", "M1", "resurrected comment"),
	}}

	svc := newSyncService(responses, runs, source)
	result, err := svc.Sync(context.Background(), "user-1", "token")
	require.NoError(t, err)
	require.Equal(t, 1, result.RowsUpdated)

	require.Len(t, responses.commentsOn, 1)
	assert.False(t, responses.commentsOn[0])
	stored := responses.records[responseKey("a@example.com", "M1", "Ed1")]
	assert.Nil(t, stored.Comments)
	assert.True(t, stored.CommentsDeleted)
	// ratings still refresh even though the comment stays suppressed
	assert.Equal(t, 7, stored.ObjectiveClarity)
}

func TestSyncRowErrorsDoNotFailRun(t *testing.T) {
	responses := newStubResponseRepo()
	responses.insertErrOn = "bad@example.com"
	runs := &stubRunRepo{}

	rows := [][]string{sheetHeader()}
	for i := 0; i < 9; i++ {
		rows = append(rows, dataRow(fmt.Sprintf("s%d@example.com", i), "1", "M1", ""))
	}
	rows = append(rows, dataRow("bad@example.com", "1", "M1", ""))
	source := &stubRowSource{rows: rows}

	svc := newSyncService(responses, runs, source)
	result, err := svc.Sync(context.Background(), "user-1", "token")
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 9, result.RowsProcessed)
	assert.Equal(t, 9, result.RowsAdded)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "bad@example.com")
	assert.Equal(t, models.SyncStatusSuccess, runs.completedState)
}

func TestSyncSourceFailureMarksRunFailed(t *testing.T) {
	responses := newStubResponseRepo()
	runs := &stubRunRepo{}
	source := &stubRowSource{err: errors.New("sheet unreachable")}

	svc := newSyncService(responses, runs, source)
	_, err := svc.Sync(context.Background(), "user-1", "token")
	require.Error(t, err)

	var typed *appErrors.Error
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, appErrors.ErrSourceUnavailable.Code, typed.Code)

	assert.Equal(t, models.SyncStatusFailed, runs.completedState)
	require.NotNil(t, runs.errorMessage)
	assert.Contains(t, *runs.errorMessage, "sheet unreachable")
}

func TestSyncRejectsConcurrentRuns(t *testing.T) {
	svc := newSyncService(newStubResponseRepo(), &stubRunRepo{}, &stubRowSource{})
	svc.running = true

	_, err := svc.Sync(context.Background(), "user-1", "token")
	assert.ErrorIs(t, err, appErrors.ErrSyncInProgress)
}

func TestLastStatusEmptyHistory(t *testing.T) {
	svc := newSyncService(newStubResponseRepo(), &stubRunRepo{}, &stubRowSource{})
	run, err := svc.LastStatus(context.Background())
	require.NoError(t, err)
	assert.Nil(t, run)
}
