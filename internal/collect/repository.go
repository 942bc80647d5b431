package collect

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fortuna/diana/internal/store"
)

// Repository handles persistence for collection runs and their events.
type Repository struct {
	db *store.Database
}

// NewRepository creates a repository backed by the manifest database.
func NewRepository(db *store.Database) *Repository {
	return &Repository{db: db}
}

const runColumns = `run_id, season_year, dry_run, status, status_message,
	progress_current, progress_total, games_collected, games_skipped,
	stat_rows, profiles_fetched, api_calls, warnings, last_error,
	created_at, updated_at, started_at, completed_at`

// CreateRun inserts a new run and returns the stored record.
func (r *Repository) CreateRun(ctx context.Context, run *Run) (*Run, error) {
	query := `
		INSERT INTO collection_runs (season_year, dry_run, status, status_message)
		VALUES (?, ?, ?, ?)
	`

	res, err := r.db.DB().ExecContext(ctx, query,
		run.SeasonYear, run.DryRun, run.Status, run.StatusMessage)
	if err != nil {
		return nil, fmt.Errorf("creating run: %w", err)
	}

	runID, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("creating run: %w", err)
	}

	return r.GetRun(ctx, runID)
}

// GetRun loads one run by id.
func (r *Repository) GetRun(ctx context.Context, runID int64) (*Run, error) {
	run := &Run{}
	query := `SELECT ` + runColumns + ` FROM collection_runs WHERE run_id = ?`
	if err := r.db.DB().GetContext(ctx, run, query, runID); err != nil {
		return nil, fmt.Errorf("loading run %d: %w", runID, err)
	}
	return run, nil
}

// UpdateStatus updates a run's status, message, and optional error.
// Terminal statuses also stamp completed_at.
func (r *Repository) UpdateStatus(ctx context.Context, runID int64, status RunStatus, message string, runErr error) error {
	query := `
		UPDATE collection_runs
		SET status = ?,
			status_message = ?,
			last_error = ?,
			updated_at = CURRENT_TIMESTAMP,
			completed_at = CASE
				WHEN ? IN ('completed', 'failed', 'cancelled') THEN CURRENT_TIMESTAMP
				ELSE completed_at
			END
		WHERE run_id = ?
	`

	var errText sql.NullString
	if runErr != nil {
		errText = sql.NullString{String: runErr.Error(), Valid: true}
	}

	if _, err := r.db.DB().ExecContext(ctx, query, status, message, errText, status, runID); err != nil {
		return fmt.Errorf("updating run %d status: %w", runID, err)
	}

	return nil
}

// UpdateProgress records how far along a run is.
func (r *Repository) UpdateProgress(ctx context.Context, runID int64, current, total int, message string) error {
	query := `
		UPDATE collection_runs
		SET progress_current = ?,
			progress_total = ?,
			status_message = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE run_id = ?
	`

	if _, err := r.db.DB().ExecContext(ctx, query, current, total, message, runID); err != nil {
		return fmt.Errorf("updating run %d progress: %w", runID, err)
	}

	return nil
}

// RecordSummary copies the final counters of a run into its row.
func (r *Repository) RecordSummary(ctx context.Context, runID int64, summary RunSummary) error {
	query := `
		UPDATE collection_runs
		SET games_collected = ?,
			games_skipped = ?,
			stat_rows = ?,
			profiles_fetched = ?,
			api_calls = ?,
			warnings = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE run_id = ?
	`

	_, err := r.db.DB().ExecContext(ctx, query,
		summary.GamesCollected, summary.GamesSkipped, summary.StatRows,
		summary.ProfilesFetched, summary.APICalls, summary.Warnings, runID)
	if err != nil {
		return fmt.Errorf("recording run %d summary: %w", runID, err)
	}

	return nil
}

// AppendEvent attaches a log entry to a run.
func (r *Repository) AppendEvent(ctx context.Context, runID int64, eventType, message string) error {
	query := `INSERT INTO run_events (run_id, event_type, message) VALUES (?, ?, ?)`
	if _, err := r.db.DB().ExecContext(ctx, query, runID, eventType, message); err != nil {
		return fmt.Errorf("appending run %d event: %w", runID, err)
	}
	return nil
}

// ListEvents returns a run's events oldest first.
func (r *Repository) ListEvents(ctx context.Context, runID int64) ([]*RunEvent, error) {
	events := []*RunEvent{}
	query := `
		SELECT event_id, run_id, event_type, message, created_at
		FROM run_events
		WHERE run_id = ?
		ORDER BY event_id
	`
	if err := r.db.DB().SelectContext(ctx, &events, query, runID); err != nil {
		return nil, fmt.Errorf("listing run %d events: %w", runID, err)
	}
	return events, nil
}

// MarkNextRunRunning claims the oldest queued run, if any. Returns
// nil, nil when the queue is empty.
func (r *Repository) MarkNextRunRunning(ctx context.Context) (*Run, error) {
	tx, err := r.db.DB().BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("claiming run: %w", err)
	}
	defer tx.Rollback()

	var runID int64
	err = tx.GetContext(ctx, &runID, `
		SELECT run_id
		FROM collection_runs
		WHERE status = 'queued'
		ORDER BY created_at, run_id
		LIMIT 1
	`)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("claiming run: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE collection_runs
		SET status = 'running',
			status_message = 'Starting run...',
			started_at = COALESCE(started_at, CURRENT_TIMESTAMP),
			updated_at = CURRENT_TIMESTAMP
		WHERE run_id = ?
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("claiming run: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("claiming run: %w", err)
	}

	return r.GetRun(ctx, runID)
}

// GetActiveRun returns the currently running run, or nil.
func (r *Repository) GetActiveRun(ctx context.Context) (*Run, error) {
	run := &Run{}
	query := `SELECT ` + runColumns + `
		FROM collection_runs
		WHERE status = 'running'
		ORDER BY started_at DESC
		LIMIT 1
	`
	err := r.db.DB().GetContext(ctx, run, query)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading active run: %w", err)
	}
	return run, nil
}

// ListRecentRuns returns the most recently created runs, newest first.
func (r *Repository) ListRecentRuns(ctx context.Context, limit int) ([]*Run, error) {
	runs := []*Run{}
	query := `SELECT ` + runColumns + `
		FROM collection_runs
		ORDER BY created_at DESC, run_id DESC
		LIMIT ?
	`
	if err := r.db.DB().SelectContext(ctx, &runs, query, limit); err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	return runs, nil
}

// ResetStuckRuns re-queues runs left in running state by an unclean
// shutdown.
func (r *Repository) ResetStuckRuns(ctx context.Context) (int64, error) {
	query := `
		UPDATE collection_runs
		SET status = 'queued',
			status_message = 'Reset after service restart',
			updated_at = CURRENT_TIMESTAMP
		WHERE status = 'running'
	`

	res, err := r.db.DB().ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("resetting stuck runs: %w", err)
	}

	count, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("resetting stuck runs: %w", err)
	}

	return count, nil
}
