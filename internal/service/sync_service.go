package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/evalboard/evalboard-api/internal/models"
	"github.com/evalboard/evalboard-api/internal/sheets"
	"github.com/evalboard/evalboard-api/pkg/config"
	appErrors "github.com/evalboard/evalboard-api/pkg/errors"
)

// SyncResponseRepository describes the response persistence required by SyncService.
type SyncResponseRepository interface {
	FindByIdentity(ctx context.Context, email, module, edition string) (*models.StudentResponse, error)
	Insert(ctx context.Context, response *models.StudentResponse) error
	Update(ctx context.Context, response *models.StudentResponse, includeComments bool) error
}

// SyncRunRepository describes the run bookkeeping required by SyncService.
type SyncRunRepository interface {
	CreateRun(ctx context.Context, run *models.SyncRun) error
	CompleteRun(ctx context.Context, id string, status models.SyncStatus, rowsProcessed, rowsAdded, rowsUpdated int, errorMessage *string) error
	ListRuns(ctx context.Context, limit int) ([]models.SyncRunDetail, error)
	LastRun(ctx context.Context) (*models.SyncRunDetail, error)
}

// AuditWriter records audit trail entries.
type AuditWriter interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// SyncService reconciles the consolidated response sheet into the
// database. Runs are serialised: only one reconciliation may be in
// flight per process.
type SyncService struct {
	responses SyncResponseRepository
	runs      SyncRunRepository
	audit     AuditWriter
	source    sheets.RowSource
	parser    *SheetParser
	cache     *CacheService
	metrics   *MetricsService
	logger    *zap.Logger
	cfg       config.SyncConfig

	mu      sync.Mutex
	running bool
}

// NewSyncService constructs a sync service.
func NewSyncService(responses SyncResponseRepository, runs SyncRunRepository, audit AuditWriter, source sheets.RowSource, parser *SheetParser, cache *CacheService, metrics *MetricsService, cfg config.SyncConfig, logger *zap.Logger) *SyncService {
	return &SyncService{
		responses: responses,
		runs:      runs,
		audit:     audit,
		source:    source,
		parser:    parser,
		cache:     cache,
		metrics:   metrics,
		cfg:       cfg,
		logger:    logger,
	}
}

func (s *SyncService) tryAcquire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return false
	}
	s.running = true
	return true
}

func (s *SyncService) release() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// Sync performs one incremental reconciliation. The run record is
// created before the source is read so a failed read still leaves an
// auditable FAILED row. Row-level failures are collected and do not
// fail the run; only an unreadable source does.
func (s *SyncService) Sync(ctx context.Context, userID, accessToken string) (*models.SyncResult, error) {
	if !s.tryAcquire() {
		return nil, appErrors.ErrSyncInProgress
	}
	defer s.release()

	run := &models.SyncRun{TriggeredBy: userID}
	if err := s.runs.CreateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("create sync run: %w", err)
	}

	start := time.Now()
	result := &models.SyncResult{Errors: []string{}}

	sourceCtx, cancel := context.WithTimeout(ctx, s.sourceTimeout())
	rows, err := s.source.ReadRows(sourceCtx, accessToken)
	cancel()
	if err != nil {
		s.logger.Error("sync source read failed", zap.String("run_id", run.ID), zap.Error(err))
		message := err.Error()
		if completeErr := s.runs.CompleteRun(ctx, run.ID, models.SyncStatusFailed, 0, 0, 0, &message); completeErr != nil {
			s.logger.Error("complete failed sync run", zap.String("run_id", run.ID), zap.Error(completeErr))
		}
		s.metrics.ObserveSyncRun(models.SyncStatusFailed, time.Since(start), 0, 0, 0)
		return nil, appErrors.Wrap(err, appErrors.ErrSourceUnavailable.Code, appErrors.ErrSourceUnavailable.Status, appErrors.ErrSourceUnavailable.Message)
	}

	parsed := s.parser.Parse(rows)
	s.logger.Info("sync source read", zap.String("run_id", run.ID), zap.Int("rows", len(parsed)))

	for _, row := range parsed {
		added, err := s.upsertRow(ctx, row)
		if err != nil {
			s.logger.Warn("sync row failed", zap.String("email", row.Email), zap.String("module", row.Module), zap.Error(err))
			result.Errors = append(result.Errors, fmt.Sprintf("row %s/%s/%s: %v", row.Email, row.Module, row.Edition, err))
			continue
		}
		result.RowsProcessed++
		if added {
			result.RowsAdded++
		} else {
			result.RowsUpdated++
		}
	}

	if err := s.runs.CompleteRun(ctx, run.ID, models.SyncStatusSuccess, result.RowsProcessed, result.RowsAdded, result.RowsUpdated, nil); err != nil {
		return nil, fmt.Errorf("complete sync run: %w", err)
	}

	result.Success = true
	s.metrics.ObserveSyncRun(models.SyncStatusSuccess, time.Since(start), result.RowsAdded, result.RowsUpdated, len(result.Errors))
	s.invalidateReports(ctx)
	s.recordAudit(ctx, userID, run.ID)

	s.logger.Info("sync completed",
		zap.String("run_id", run.ID),
		zap.Int("processed", result.RowsProcessed),
		zap.Int("added", result.RowsAdded),
		zap.Int("updated", result.RowsUpdated),
		zap.Int("row_errors", len(result.Errors)))
	return result, nil
}

// upsertRow applies one parsed row. Existing records are matched on
// (email, module, edition); a curator tombstone on the stored record
// keeps the comment column out of the update so re-syncing never
// resurrects a deleted comment.
func (s *SyncService) upsertRow(ctx context.Context, row models.StudentResponse) (added bool, err error) {
	existing, err := s.responses.FindByIdentity(ctx, row.Email, row.Module, row.Edition)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		row.CommentsDeleted = false
		row.LastSyncedAt = time.Now().UTC()
		if err := s.responses.Insert(ctx, &row); err != nil {
			return false, err
		}
		return true, nil
	case err != nil:
		return false, fmt.Errorf("find response: %w", err)
	}

	row.ID = existing.ID
	row.LastSyncedAt = time.Now().UTC()
	if err := s.responses.Update(ctx, &row, !existing.CommentsDeleted); err != nil {
		return false, err
	}
	return false, nil
}

// History returns the most recent sync runs.
func (s *SyncService) History(ctx context.Context, limit int) ([]models.SyncRunDetail, error) {
	if limit <= 0 {
		limit = s.cfg.HistoryLimit
	}
	runs, err := s.runs.ListRuns(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list sync runs: %w", err)
	}
	return runs, nil
}

// LastStatus returns the most recent run, or nil when no sync has been
// attempted yet.
func (s *SyncService) LastStatus(ctx context.Context) (*models.SyncRunDetail, error) {
	run, err := s.runs.LastRun(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("last sync run: %w", err)
	}
	return run, nil
}

func (s *SyncService) sourceTimeout() time.Duration {
	if s.cfg.SourceTimeout > 0 {
		return s.cfg.SourceTimeout
	}
	return 2 * time.Minute
}

func (s *SyncService) invalidateReports(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, "reports:*"); err != nil {
		s.logger.Warn("invalidate report cache after sync", zap.Error(err))
	}
}

func (s *SyncService) recordAudit(ctx context.Context, userID, runID string) {
	if s.audit == nil {
		return
	}
	log := &models.AuditLog{
		UserID:     &userID,
		Action:     models.AuditActionSyncTrigger,
		Resource:   "sync_runs",
		ResourceID: &runID,
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("record sync audit log", zap.Error(err))
	}
}
