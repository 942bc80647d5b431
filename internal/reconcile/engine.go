package reconcile

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/fortuna/diana/internal/archive"
	"github.com/fortuna/diana/internal/store"
	"github.com/fortuna/diana/internal/store/repository"
)

// Engine keeps the profile manifest consistent with the files on disk.
// The manifest is only as true as the filesystem underneath it: an entry
// whose file vanished must not block a re-fetch, and a file without an
// entry must never be fetched again.
type Engine struct {
	profiles *repository.ProfileRepository
	arch     *archive.Archive
}

// Report summarizes one reconcile pass.
type Report struct {
	ManifestEntries int       `json:"manifest_entries"`
	DiskProfiles    int       `json:"disk_profiles"`
	Evicted         []string  `json:"evicted,omitempty"`
	Adopted         []string  `json:"adopted,omitempty"`
	CheckedAt       time.Time `json:"checked_at"`
}

// NewEngine creates a reconcile engine
func NewEngine(profiles *repository.ProfileRepository, arch *archive.Archive) *Engine {
	return &Engine{
		profiles: profiles,
		arch:     arch,
	}
}

// Repair audits the manifest against the Players directory and fixes
// both directions of drift: entries whose file vanished are evicted,
// files without an entry are adopted.
func (e *Engine) Repair(ctx context.Context) (*Report, error) {
	report := &Report{CheckedAt: time.Now()}

	entries, err := e.profiles.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing manifest: %w", err)
	}

	recorded := make(map[string]bool, len(entries))
	for _, entry := range entries {
		recorded[entry.PlayerID] = true

		_, err := os.Stat(entry.FilePath)
		if err == nil {
			continue
		}
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("checking %s: %w", entry.FilePath, err)
		}

		if err := e.profiles.Remove(ctx, entry.PlayerID); err != nil {
			return nil, err
		}
		recorded[entry.PlayerID] = false
		report.Evicted = append(report.Evicted, entry.PlayerID)
		log.Printf("[reconcile] ⚠️ Evicted %s: profile file missing", entry.PlayerID)
	}

	diskIDs, err := e.arch.ListPlayerIDs()
	if err != nil {
		return nil, fmt.Errorf("listing profile files: %w", err)
	}
	report.DiskProfiles = len(diskIDs)

	for _, id := range diskIDs {
		if recorded[id] {
			continue
		}

		entry := &store.ProfileEntry{
			PlayerID: id,
			FilePath: e.arch.ProfilePath(id),
		}
		if err := e.profiles.Record(ctx, entry); err != nil {
			return nil, err
		}
		report.Adopted = append(report.Adopted, id)
	}

	count, err := e.profiles.Count(ctx)
	if err != nil {
		return nil, err
	}
	report.ManifestEntries = count

	if len(report.Evicted) > 0 || len(report.Adopted) > 0 {
		log.Printf("[reconcile] ✓ Repaired manifest: %d evicted, %d adopted (%d entries, %d files)",
			len(report.Evicted), len(report.Adopted), report.ManifestEntries, report.DiskProfiles)
	}

	return report, nil
}
