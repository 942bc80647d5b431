package collect

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/fortuna/diana/internal/archive"
	"github.com/fortuna/diana/internal/ingest/sportradar"
	"github.com/fortuna/diana/internal/reconcile"
	"github.com/fortuna/diana/internal/store"
	"github.com/fortuna/diana/internal/store/repository"
)

// Runner executes one collection pass over a season: the schedule,
// every game summary, the derived CSV tables, then profiles for any
// player not yet in the manifest. Upstream failures shrink the output;
// only local persistence failures abort the run.
type Runner struct {
	client     *sportradar.Client
	arch       *archive.Archive
	profiles   *repository.ProfileRepository
	reconciler *reconcile.Engine
	budget     int
}

// NewRunner creates a runner over the given archive and manifest.
func NewRunner(db *store.Database, arch *archive.Archive, client *sportradar.Client) *Runner {
	profiles := repository.NewProfileRepository(db)
	return &Runner{
		client:     client,
		arch:       arch,
		profiles:   profiles,
		reconciler: reconcile.NewEngine(profiles, arch),
	}
}

// NewRunnerWithBudget creates a runner that reports remaining call
// budget in its summaries. A budget of zero disables the report.
func NewRunnerWithBudget(db *store.Database, arch *archive.Archive, client *sportradar.Client, budget int) *Runner {
	r := NewRunner(db, arch, client)
	r.budget = budget
	return r
}

// Run collects one season. The returned summary is populated even when
// an error cut the run short.
func (r *Runner) Run(ctx context.Context, spec RunSpec, reporter Reporter) (*RunSummary, error) {
	start := time.Now()
	callsBefore := r.client.Calls()

	summary := &RunSummary{Year: spec.Year, DryRun: spec.DryRun, CallBudget: r.budget}

	if reporter != nil {
		reporter.OnRunStart(spec)
	}

	err := r.collect(ctx, spec, reporter, summary)

	summary.APICalls = r.client.Calls() - callsBefore
	summary.Elapsed = time.Since(start)

	if err != nil {
		if reporter != nil {
			reporter.OnRunError(err)
		}
		return summary, err
	}

	if reporter != nil {
		reporter.OnRunComplete(*summary)
	}
	return summary, nil
}

func (r *Runner) collect(ctx context.Context, spec RunSpec, reporter Reporter, summary *RunSummary) error {
	schedulePayload := r.client.FetchSchedule(ctx, spec.Year)
	if schedulePayload == nil {
		log.Printf("[collect] ⚠️ No schedule available for %d, ending run", spec.Year)
		return nil
	}
	summary.ScheduleFetched = true

	games, scheduleWarnings := sportradar.ParseSchedule(schedulePayload)
	summary.GamesTotal = len(games)
	r.warnAll(reporter, summary, scheduleWarnings)

	if spec.DryRun {
		recorded, err := r.profiles.Count(ctx)
		if err != nil {
			return err
		}
		log.Printf("[collect] Dry run for %d: %d scheduled games, %d profiles recorded, nothing written",
			spec.Year, len(games), recorded)
		if reporter != nil {
			reporter.OnProgress(fmt.Sprintf("Dry run: %d scheduled games, %d profiles recorded", len(games), recorded), 0, 0)
		}
		return nil
	}

	// First write of the run; dry runs and empty schedules never get here.
	if _, err := r.arch.EnsureSeason(spec.Year); err != nil {
		return err
	}
	if err := r.arch.WriteJSON(r.arch.SchedulePath(spec.Year), schedulePayload); err != nil {
		return err
	}

	// The baseline is read once and stays fixed for the whole run.
	baseline, err := r.determineBaseline(ctx)
	if err != nil {
		return err
	}

	var gameRecords []*store.GameRecord
	var statRows []*store.PlayerStatRecord
	seen := make(map[string]bool)

	total := len(games)
	for idx, game := range games {
		if err := ctx.Err(); err != nil {
			return err
		}

		if reporter != nil {
			reporter.OnGameStart(game.ID, idx, total)
		}

		payload := r.client.FetchGameSummary(ctx, game.ID)
		if payload == nil {
			summary.GamesSkipped++
			log.Printf("[collect] ⊘ Skipping game %s: no summary", game.ID)
			if reporter != nil {
				reporter.OnGameSkipped(game.ID)
			}
			continue
		}

		if err := r.arch.WriteJSON(r.arch.GamePath(spec.Year, game.ID), payload); err != nil {
			return err
		}

		parsed := sportradar.ParseGameSummary(payload, game)
		r.warnAll(reporter, summary, parsed.Warnings)

		gameRecords = append(gameRecords, parsed.Record)
		statRows = append(statRows, parsed.Stats...)
		for _, id := range parsed.PlayerIDs {
			seen[id] = true
		}

		summary.GamesCollected++
		if reporter != nil {
			reporter.OnGameProcessed(game.ID, len(parsed.Stats))
			reporter.OnProgress(fmt.Sprintf("Processed game %s (%d/%d)", game.ID, idx+1, total), idx+1, total)
		}
	}
	summary.StatRows = len(statRows)
	summary.PlayersSeen = len(seen)

	// Season tables are rewritten even when every game was skipped.
	if err := r.arch.WriteGameTable(spec.Year, gameRecords); err != nil {
		return err
	}
	if err := r.arch.WriteStatsTable(spec.Year, statRows); err != nil {
		return err
	}

	novel := novelPlayers(seen, baseline)
	summary.NovelPlayers = len(novel)

	var profileRows []*store.ProfileRecord
	for _, playerID := range novel {
		if err := ctx.Err(); err != nil {
			return err
		}

		payload := r.client.FetchPlayerProfile(ctx, playerID)
		if payload == nil {
			summary.ProfilesSkipped++
			log.Printf("[collect] ⊘ Skipping profile %s: no payload, will retry next run", playerID)
			if reporter != nil {
				reporter.OnProfileSkipped(playerID)
			}
			continue
		}

		path := r.arch.ProfilePath(playerID)
		if err := r.arch.WriteJSON(path, payload); err != nil {
			return err
		}
		entry := &store.ProfileEntry{PlayerID: playerID, FilePath: path}
		if err := r.profiles.Record(ctx, entry); err != nil {
			return err
		}

		profileRows = append(profileRows, sportradar.ParseProfile(payload, playerID))
		summary.ProfilesFetched++
		if reporter != nil {
			reporter.OnProfileFetched(playerID)
		}
	}

	if len(profileRows) > 0 {
		if err := r.arch.AppendProfileTable(profileRows); err != nil {
			return err
		}
	}

	log.Printf("[collect] ✓ Season %d complete: %d games, %d stat rows, %d new profiles",
		spec.Year, summary.GamesCollected, summary.StatRows, summary.ProfilesFetched)
	return nil
}

// determineBaseline repairs the manifest against the Players directory
// and returns the resulting id set.
func (r *Runner) determineBaseline(ctx context.Context) (map[string]bool, error) {
	if _, err := r.reconciler.Repair(ctx); err != nil {
		return nil, fmt.Errorf("repairing manifest: %w", err)
	}

	ids, err := r.profiles.ListIDs(ctx)
	if err != nil {
		return nil, err
	}

	baseline := make(map[string]bool, len(ids))
	for _, id := range ids {
		baseline[id] = true
	}
	return baseline, nil
}

func (r *Runner) warnAll(reporter Reporter, summary *RunSummary, warnings []string) {
	for _, w := range warnings {
		summary.Warnings++
		log.Printf("[collect] ⚠️ %s", w)
		if reporter != nil {
			reporter.OnWarning(w)
		}
	}
}

// novelPlayers returns the ids in seen but not in baseline, sorted.
func novelPlayers(seen, baseline map[string]bool) []string {
	var novel []string
	for id := range seen {
		if !baseline[id] {
			novel = append(novel, id)
		}
	}
	sort.Strings(novel)
	return novel
}
