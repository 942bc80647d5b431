package collect

import (
	"database/sql"
	"time"
)

// RunStatus represents the lifecycle state of a collection run.
type RunStatus string

const (
	RunStatusQueued    RunStatus = "queued"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// Run models the database representation of one collection run.
type Run struct {
	RunID           int64          `db:"run_id"`
	SeasonYear      int            `db:"season_year"`
	DryRun          bool           `db:"dry_run"`
	Status          RunStatus      `db:"status"`
	StatusMessage   sql.NullString `db:"status_message"`
	ProgressCurrent int            `db:"progress_current"`
	ProgressTotal   int            `db:"progress_total"`
	GamesCollected  int            `db:"games_collected"`
	GamesSkipped    int            `db:"games_skipped"`
	StatRows        int            `db:"stat_rows"`
	ProfilesFetched int            `db:"profiles_fetched"`
	APICalls        int            `db:"api_calls"`
	Warnings        int            `db:"warnings"`
	LastError       sql.NullString `db:"last_error"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
	StartedAt       sql.NullTime   `db:"started_at"`
	CompletedAt     sql.NullTime   `db:"completed_at"`
}

// RunEvent is one log entry attached to a run.
type RunEvent struct {
	EventID   int64     `db:"event_id" json:"event_id"`
	RunID     int64     `db:"run_id" json:"run_id"`
	EventType string    `db:"event_type" json:"event_type"`
	Message   string    `db:"message" json:"message"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// RunSpec describes the work for one runner invocation.
type RunSpec struct {
	Year   int
	DryRun bool
}

// RunSummary is the final accounting of one run.
type RunSummary struct {
	Year            int           `json:"year"`
	DryRun          bool          `json:"dry_run"`
	ScheduleFetched bool          `json:"schedule_fetched"`
	GamesTotal      int           `json:"games_total"`
	GamesCollected  int           `json:"games_collected"`
	GamesSkipped    int           `json:"games_skipped"`
	StatRows        int           `json:"stat_rows"`
	PlayersSeen     int           `json:"players_seen"`
	NovelPlayers    int           `json:"novel_players"`
	ProfilesFetched int           `json:"profiles_fetched"`
	ProfilesSkipped int           `json:"profiles_skipped"`
	Warnings        int           `json:"warnings"`
	APICalls        int           `json:"api_calls"`
	CallBudget      int           `json:"call_budget,omitempty"`
	Elapsed         time.Duration `json:"elapsed"`
}

// BudgetRemaining reports budget minus calls when a budget is
// configured. The second return is false when no budget is set.
func (s RunSummary) BudgetRemaining() (int, bool) {
	if s.CallBudget <= 0 {
		return 0, false
	}
	return s.CallBudget - s.APICalls, true
}

// Reporter receives lifecycle callbacks from the runner.
type Reporter interface {
	OnRunStart(spec RunSpec)
	OnGameStart(gameID string, index int, total int)
	OnGameProcessed(gameID string, statRows int)
	OnGameSkipped(gameID string)
	OnWarning(message string)
	OnProfileFetched(playerID string)
	OnProfileSkipped(playerID string)
	OnProgress(message string, current int, total int)
	OnRunComplete(summary RunSummary)
	OnRunError(err error)
}

// StatusSummary is returned to API callers.
type StatusSummary struct {
	ActiveRun *Run   `json:"active_run,omitempty"`
	History   []*Run `json:"recent_runs,omitempty"`
}
