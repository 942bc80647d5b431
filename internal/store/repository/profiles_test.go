package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/fortuna/diana/internal/store"
)

func newTestRepo(t *testing.T) *ProfileRepository {
	t.Helper()

	db, err := store.NewDatabase(filepath.Join(t.TempDir(), "manifest.db"))
	if err != nil {
		t.Fatalf("store.NewDatabase: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations(); err != nil {
		t.Fatalf("RunMigrations: %v", err)
	}

	return NewProfileRepository(db)
}

func TestRecordAndExists(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	exists, err := repo.Exists(ctx, "p1")
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if exists {
		t.Fatal("p1 should not exist before Record")
	}

	entry := &store.ProfileEntry{PlayerID: "p1", FilePath: "/data/Players/player_p1.json"}
	if err := repo.Record(ctx, entry); err != nil {
		t.Fatalf("Record: %v", err)
	}

	exists, err = repo.Exists(ctx, "p1")
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if !exists {
		t.Error("p1 should exist after Record")
	}
}

func TestRecordTwiceKeepsFirstEntry(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first := &store.ProfileEntry{PlayerID: "p1", FilePath: "/data/Players/player_p1.json"}
	if err := repo.Record(ctx, first); err != nil {
		t.Fatalf("Record: %v", err)
	}

	second := &store.ProfileEntry{PlayerID: "p1", FilePath: "/elsewhere/player_p1.json"}
	if err := repo.Record(ctx, second); err != nil {
		t.Fatalf("Record repeat: %v", err)
	}

	entries, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].FilePath != first.FilePath {
		t.Errorf("second Record must not overwrite, got %q", entries[0].FilePath)
	}
	if entries[0].FetchedAt.IsZero() {
		t.Error("fetched_at should be populated")
	}
}

func TestListIDsSorted(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, id := range []string{"p3", "p1", "p2"} {
		entry := &store.ProfileEntry{PlayerID: id, FilePath: "/data/Players/player_" + id + ".json"}
		if err := repo.Record(ctx, entry); err != nil {
			t.Fatalf("Record %s: %v", id, err)
		}
	}

	ids, err := repo.ListIDs(ctx)
	if err != nil {
		t.Fatalf("ListIDs: %v", err)
	}
	if len(ids) != 3 || ids[0] != "p1" || ids[1] != "p2" || ids[2] != "p3" {
		t.Errorf("expected sorted ids, got %v", ids)
	}

	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 3 {
		t.Errorf("expected count 3, got %d", count)
	}
}

func TestRemove(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	entry := &store.ProfileEntry{PlayerID: "p1", FilePath: "/data/Players/player_p1.json"}
	if err := repo.Record(ctx, entry); err != nil {
		t.Fatalf("Record: %v", err)
	}

	if err := repo.Remove(ctx, "p1"); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	exists, err := repo.Exists(ctx, "p1")
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if exists {
		t.Error("p1 should be gone after Remove")
	}

	// Removing an absent id is not an error
	if err := repo.Remove(ctx, "p1"); err != nil {
		t.Errorf("Remove absent id: %v", err)
	}
}
