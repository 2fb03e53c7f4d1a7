package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/evalboard/evalboard-api/internal/models"
)

// SyncRepository persists sync run bookkeeping.
type SyncRepository struct {
	db *sqlx.DB
}

// NewSyncRepository constructs the repository.
func NewSyncRepository(db *sqlx.DB) *SyncRepository {
	return &SyncRepository{db: db}
}

// CreateRun inserts the RUNNING record before any row is processed.
func (r *SyncRepository) CreateRun(ctx context.Context, run *models.SyncRun) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	if run.Status == "" {
		run.Status = models.SyncStatusRunning
	}
	const query = `INSERT INTO sync_runs (id, started_at, completed_at, status, rows_processed, rows_added, rows_updated, error_message, triggered_by)
        VALUES (:id, :started_at, :completed_at, :status, :rows_processed, :rows_added, :rows_updated, :error_message, :triggered_by)`
	if _, err := r.db.NamedExecContext(ctx, query, run); err != nil {
		return fmt.Errorf("create sync run: %w", err)
	}
	return nil
}

// CompleteRun freezes the run in its terminal state. Called exactly
// once per run.
func (r *SyncRepository) CompleteRun(ctx context.Context, id string, status models.SyncStatus, rowsProcessed, rowsAdded, rowsUpdated int, errorMessage *string) error {
	const query = `UPDATE sync_runs SET completed_at = $2, status = $3, rows_processed = $4, rows_added = $5, rows_updated = $6, error_message = $7 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC(), status, rowsProcessed, rowsAdded, rowsUpdated, errorMessage); err != nil {
		return fmt.Errorf("complete sync run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs with the triggering user joined.
func (r *SyncRepository) ListRuns(ctx context.Context, limit int) ([]models.SyncRunDetail, error) {
	if limit <= 0 {
		limit = 10
	}
	const query = `SELECT s.id, s.started_at, s.completed_at, s.status, s.rows_processed, s.rows_added, s.rows_updated, s.error_message, s.triggered_by,
        u.email AS triggered_by_email, u.full_name AS triggered_by_name
        FROM sync_runs s
        LEFT JOIN users u ON u.id = s.triggered_by
        ORDER BY s.started_at DESC LIMIT $1`
	var runs []models.SyncRunDetail
	if err := r.db.SelectContext(ctx, &runs, query, limit); err != nil {
		return nil, fmt.Errorf("list sync runs: %w", err)
	}
	return runs, nil
}

// LastRun returns the most recent run or sql.ErrNoRows.
func (r *SyncRepository) LastRun(ctx context.Context) (*models.SyncRunDetail, error) {
	const query = `SELECT s.id, s.started_at, s.completed_at, s.status, s.rows_processed, s.rows_added, s.rows_updated, s.error_message, s.triggered_by,
        u.email AS triggered_by_email, u.full_name AS triggered_by_name
        FROM sync_runs s
        LEFT JOIN users u ON u.id = s.triggered_by
        ORDER BY s.started_at DESC LIMIT 1`
	var run models.SyncRunDetail
	if err := r.db.GetContext(ctx, &run, query); err != nil {
		return nil, err
	}
	return &run, nil
}
