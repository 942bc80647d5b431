package reconcile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/fortuna/diana/internal/archive"
	"github.com/fortuna/diana/internal/store"
	"github.com/fortuna/diana/internal/store/repository"
)

func newTestEngine(t *testing.T) (*Engine, *repository.ProfileRepository, *archive.Archive) {
	t.Helper()

	arch, err := archive.New(t.TempDir())
	if err != nil {
		t.Fatalf("archive.New: %v", err)
	}

	db, err := store.NewDatabase(arch.ManifestPath())
	if err != nil {
		t.Fatalf("store.NewDatabase: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations(); err != nil {
		t.Fatalf("RunMigrations: %v", err)
	}

	profiles := repository.NewProfileRepository(db)
	return NewEngine(profiles, arch), profiles, arch
}

func writeProfileFile(t *testing.T, arch *archive.Archive, playerID string) {
	t.Helper()
	if err := os.WriteFile(arch.ProfilePath(playerID), []byte("{}"), 0644); err != nil {
		t.Fatalf("writing profile file: %v", err)
	}
}

func TestRepairAdoptsUntrackedFiles(t *testing.T) {
	engine, profiles, arch := newTestEngine(t)
	ctx := context.Background()

	writeProfileFile(t, arch, "p1")
	writeProfileFile(t, arch, "p2")

	report, err := engine.Repair(ctx)
	if err != nil {
		t.Fatalf("Repair: %v", err)
	}

	if len(report.Adopted) != 2 {
		t.Errorf("expected 2 adopted, got %v", report.Adopted)
	}
	if report.ManifestEntries != 2 || report.DiskProfiles != 2 {
		t.Errorf("unexpected totals: %+v", report)
	}

	ids, err := profiles.ListIDs(ctx)
	if err != nil {
		t.Fatalf("ListIDs: %v", err)
	}
	if len(ids) != 2 || ids[0] != "p1" || ids[1] != "p2" {
		t.Errorf("expected [p1 p2] recorded, got %v", ids)
	}
}

func TestRepairEvictsEntriesWithoutFiles(t *testing.T) {
	engine, profiles, arch := newTestEngine(t)
	ctx := context.Background()

	entry := &store.ProfileEntry{
		PlayerID: "gone",
		FilePath: filepath.Join(arch.PlayersDir(), "player_gone.json"),
	}
	if err := profiles.Record(ctx, entry); err != nil {
		t.Fatalf("Record: %v", err)
	}

	report, err := engine.Repair(ctx)
	if err != nil {
		t.Fatalf("Repair: %v", err)
	}

	if len(report.Evicted) != 1 || report.Evicted[0] != "gone" {
		t.Errorf("expected [gone] evicted, got %v", report.Evicted)
	}

	exists, err := profiles.Exists(ctx, "gone")
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if exists {
		t.Error("evicted entry still present, player would never be re-fetched")
	}
}

func TestRepairLeavesConsistentStateAlone(t *testing.T) {
	engine, profiles, arch := newTestEngine(t)
	ctx := context.Background()

	writeProfileFile(t, arch, "p1")
	entry := &store.ProfileEntry{PlayerID: "p1", FilePath: arch.ProfilePath("p1")}
	if err := profiles.Record(ctx, entry); err != nil {
		t.Fatalf("Record: %v", err)
	}

	report, err := engine.Repair(ctx)
	if err != nil {
		t.Fatalf("Repair: %v", err)
	}

	if len(report.Evicted) != 0 || len(report.Adopted) != 0 {
		t.Errorf("consistent state should not change: %+v", report)
	}
	if report.ManifestEntries != 1 || report.DiskProfiles != 1 {
		t.Errorf("unexpected totals: %+v", report)
	}
}
