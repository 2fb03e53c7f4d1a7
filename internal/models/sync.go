package models

import "time"

// SyncStatus captures the lifecycle of a sync run.
type SyncStatus string

const (
	SyncStatusRunning SyncStatus = "RUNNING"
	SyncStatusSuccess SyncStatus = "SUCCESS"
	SyncStatusFailed  SyncStatus = "FAILED"
)

// SyncRun is one execution of the spreadsheet reconciliation. A row is
// created eagerly at start, so a crash mid-run leaves a visible
// RUNNING record instead of losing the attempt.
type SyncRun struct {
	ID            string     `db:"id" json:"id"`
	StartedAt     time.Time  `db:"started_at" json:"started_at"`
	CompletedAt   *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	Status        SyncStatus `db:"status" json:"status"`
	RowsProcessed int        `db:"rows_processed" json:"rows_processed"`
	RowsAdded     int        `db:"rows_added" json:"rows_added"`
	RowsUpdated   int        `db:"rows_updated" json:"rows_updated"`
	ErrorMessage  *string    `db:"error_message" json:"error_message,omitempty"`
	TriggeredBy   string     `db:"triggered_by" json:"triggered_by"`
}

// SyncRunDetail joins the triggering user onto the run row.
type SyncRunDetail struct {
	SyncRun
	TriggeredByEmail *string `db:"triggered_by_email" json:"triggered_by_email,omitempty"`
	TriggeredByName  *string `db:"triggered_by_name" json:"triggered_by_name,omitempty"`
}

// SyncResult is the structured outcome returned to the caller that
// triggered a run. Row-level errors are informational: the run is
// still successful when the source read itself succeeded.
type SyncResult struct {
	Success       bool     `json:"success"`
	RowsProcessed int      `json:"rows_processed"`
	RowsAdded     int      `json:"rows_added"`
	RowsUpdated   int      `json:"rows_updated"`
	Errors        []string `json:"errors"`
}
