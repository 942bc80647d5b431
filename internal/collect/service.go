package collect

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/fortuna/diana/internal/archive"
	"github.com/fortuna/diana/internal/ingest/sportradar"
	"github.com/fortuna/diana/internal/store"
)

// Request represents an API or scheduler request for a collection run.
type Request struct {
	Year   int  `json:"year"`
	DryRun bool `json:"dry_run"`
}

// RunPublisher broadcasts run lifecycle events to external consumers.
type RunPublisher interface {
	PublishRunStarted(ctx context.Context, run *Run) error
	PublishRunCompleted(ctx context.Context, run *Run, summary RunSummary) error
	PublishRunFailed(ctx context.Context, run *Run, runErr error) error
}

// Service owns the run queue: it persists requests, executes them one
// at a time in a background worker, and answers status queries.
type Service struct {
	repo   *Repository
	runner *Runner

	publisher RunPublisher

	historyLimit int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	logger *log.Logger
}

// NewService creates the collection service. A nil logger falls back
// to the standard logger with a [collect] prefix.
func NewService(db *store.Database, arch *archive.Archive, client *sportradar.Client, budget int, logger *log.Logger) *Service {
	ctx, cancel := context.WithCancel(context.Background())

	if logger == nil {
		logger = log.New(log.Writer(), "[collect] ", log.LstdFlags)
	}

	return &Service{
		repo:         NewRepository(db),
		runner:       NewRunnerWithBudget(db, arch, client, budget),
		historyLimit: 10,
		ctx:          ctx,
		cancel:       cancel,
		logger:       logger,
	}
}

// SetPublisher wires an optional run event publisher. Must be called
// before Start.
func (s *Service) SetPublisher(p RunPublisher) {
	s.publisher = p
}

// Repo exposes the run repository for read-only status queries.
func (s *Service) Repo() *Repository {
	return s.repo
}

// Start re-queues runs interrupted by a restart and launches the
// worker goroutine.
func (s *Service) Start() error {
	reset, err := s.repo.ResetStuckRuns(s.ctx)
	if err != nil {
		return fmt.Errorf("resetting stuck runs: %w", err)
	}
	if reset > 0 {
		s.logger.Printf("Reset %d stuck runs to queued", reset)
	}

	s.wg.Add(1)
	go s.worker()

	return nil
}

// Shutdown stops the worker and waits for any in-flight run to wind
// down, up to the context deadline.
func (s *Service) Shutdown(ctx context.Context) error {
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Enqueue validates a request and stores it as a queued run.
func (s *Service) Enqueue(ctx context.Context, req Request) (*Run, error) {
	if req.Year <= 0 {
		return nil, fmt.Errorf("collection request requires a season year")
	}

	run := &Run{
		SeasonYear:    req.Year,
		DryRun:        req.DryRun,
		Status:        RunStatusQueued,
		StatusMessage: sql.NullString{String: "Queued", Valid: true},
	}

	stored, err := s.repo.CreateRun(ctx, run)
	if err != nil {
		return nil, err
	}

	if err := s.repo.AppendEvent(ctx, stored.RunID, "queued", fmt.Sprintf("Run queued for season %d", req.Year)); err != nil {
		s.logger.Printf("append queued event: %v", err)
	}

	s.logger.Printf("Queued run %d for season %d", stored.RunID, req.Year)
	return stored, nil
}

// GetStatus returns the active run plus recent history.
func (s *Service) GetStatus(ctx context.Context) (*StatusSummary, error) {
	active, err := s.repo.GetActiveRun(ctx)
	if err != nil {
		return nil, err
	}

	history, err := s.repo.ListRecentRuns(ctx, s.historyLimit)
	if err != nil {
		return nil, err
	}

	return &StatusSummary{ActiveRun: active, History: history}, nil
}

func (s *Service) worker() {
	defer s.wg.Done()

	ticker := time.NewTicker(3 * time.Second)
	defer ticker.Stop()

	for {
		run, err := s.repo.MarkNextRunRunning(s.ctx)
		if err != nil {
			if s.ctx.Err() != nil {
				return
			}
			s.logger.Printf("claim next run: %v", err)
			time.Sleep(time.Second)
			continue
		}

		if run == nil {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				continue
			}
		}

		s.executeRun(run)
	}
}

func (s *Service) executeRun(run *Run) {
	s.logger.Printf("Starting run %d (season %d)", run.RunID, run.SeasonYear)

	if s.publisher != nil {
		if err := s.publisher.PublishRunStarted(s.ctx, run); err != nil {
			s.logger.Printf("publish run started: %v", err)
		}
	}

	spec := RunSpec{Year: run.SeasonYear, DryRun: run.DryRun}
	reporter := &runReporter{ctx: s.ctx, repo: s.repo, runID: run.RunID}

	summary, err := s.runner.Run(s.ctx, spec, reporter)

	// Terminal writes get their own context so a shutdown still leaves
	// the run row in a final state.
	finishCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if summary != nil {
		if rerr := s.repo.RecordSummary(finishCtx, run.RunID, *summary); rerr != nil {
			s.logger.Printf("record run %d summary: %v", run.RunID, rerr)
		}
	}

	if err != nil {
		status := RunStatusFailed
		message := "Run failed"
		if errors.Is(err, context.Canceled) {
			status = RunStatusCancelled
			message = "Run cancelled during shutdown"
		}
		if serr := s.repo.UpdateStatus(finishCtx, run.RunID, status, message, err); serr != nil {
			s.logger.Printf("mark run %d %s: %v", run.RunID, status, serr)
		}
		if s.publisher != nil {
			if perr := s.publisher.PublishRunFailed(finishCtx, run, err); perr != nil {
				s.logger.Printf("publish run failed: %v", perr)
			}
		}
		s.logger.Printf("Run %d %s: %v", run.RunID, status, err)
		return
	}

	if serr := s.repo.UpdateStatus(finishCtx, run.RunID, RunStatusCompleted, "Run completed", nil); serr != nil {
		s.logger.Printf("mark run %d completed: %v", run.RunID, serr)
	}
	if s.publisher != nil && summary != nil {
		if perr := s.publisher.PublishRunCompleted(finishCtx, run, *summary); perr != nil {
			s.logger.Printf("publish run completed: %v", perr)
		}
	}

	if summary != nil {
		s.logger.Printf("Run %d completed: %d games, %d stat rows, %d profiles, %d API calls",
			run.RunID, summary.GamesCollected, summary.StatRows, summary.ProfilesFetched, summary.APICalls)
	}
}

// runReporter persists runner callbacks into the run row and its
// event log.
type runReporter struct {
	ctx   context.Context
	repo  *Repository
	runID int64
}

func (r *runReporter) OnRunStart(spec RunSpec) {
	_ = r.repo.UpdateProgress(r.ctx, r.runID, 0, 0, fmt.Sprintf("Collecting season %d", spec.Year))
}

func (r *runReporter) OnGameStart(gameID string, index, total int) {
	_ = r.repo.UpdateProgress(r.ctx, r.runID, index, total, fmt.Sprintf("Fetching game %s (%d/%d)", gameID, index+1, total))
}

func (r *runReporter) OnGameProcessed(gameID string, statRows int) {
	_ = r.repo.AppendEvent(r.ctx, r.runID, "game", fmt.Sprintf("Game %s processed, %d stat rows", gameID, statRows))
}

func (r *runReporter) OnGameSkipped(gameID string) {
	_ = r.repo.AppendEvent(r.ctx, r.runID, "skip", fmt.Sprintf("Game %s skipped: no summary", gameID))
}

func (r *runReporter) OnWarning(message string) {
	_ = r.repo.AppendEvent(r.ctx, r.runID, "warning", message)
}

func (r *runReporter) OnProfileFetched(playerID string) {
	_ = r.repo.AppendEvent(r.ctx, r.runID, "profile", fmt.Sprintf("Profile %s collected", playerID))
}

func (r *runReporter) OnProfileSkipped(playerID string) {
	_ = r.repo.AppendEvent(r.ctx, r.runID, "skip", fmt.Sprintf("Profile %s unavailable, will retry next run", playerID))
}

func (r *runReporter) OnProgress(message string, current, total int) {
	_ = r.repo.UpdateProgress(r.ctx, r.runID, current, total, message)
}

func (r *runReporter) OnRunComplete(summary RunSummary) {
	processed := summary.GamesCollected + summary.GamesSkipped
	_ = r.repo.UpdateProgress(r.ctx, r.runID, processed, summary.GamesTotal, "Run complete")
}

func (r *runReporter) OnRunError(err error) {
	_ = r.repo.AppendEvent(r.ctx, r.runID, "error", err.Error())
}
