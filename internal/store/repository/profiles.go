package repository

import (
	"context"
	"fmt"

	"github.com/fortuna/diana/internal/store"
)

// ProfileRepository handles profile manifest access
type ProfileRepository struct {
	db *store.Database
}

// NewProfileRepository creates a new profile manifest repository
func NewProfileRepository(db *store.Database) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Record marks a player profile as collected. Callers must write the
// profile file before recording it. Recording the same player twice is a
// no-op: the first entry wins.
func (r *ProfileRepository) Record(ctx context.Context, entry *store.ProfileEntry) error {
	query := `
		INSERT INTO profile_manifest (player_id, file_path)
		VALUES (:player_id, :file_path)
		ON CONFLICT (player_id) DO NOTHING
	`

	if _, err := r.db.DB().NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("recording profile %s: %w", entry.PlayerID, err)
	}

	return nil
}

// Exists reports whether a player already has a manifest entry
func (r *ProfileRepository) Exists(ctx context.Context, playerID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM profile_manifest WHERE player_id = ?)`

	if err := r.db.DB().GetContext(ctx, &exists, query, playerID); err != nil {
		return false, fmt.Errorf("querying manifest: %w", err)
	}

	return exists, nil
}

// List returns every manifest entry, sorted by player id
func (r *ProfileRepository) List(ctx context.Context) ([]*store.ProfileEntry, error) {
	var entries []*store.ProfileEntry
	query := `SELECT player_id, file_path, fetched_at FROM profile_manifest ORDER BY player_id`

	if err := r.db.DB().SelectContext(ctx, &entries, query); err != nil {
		return nil, fmt.Errorf("listing manifest entries: %w", err)
	}

	return entries, nil
}

// ListIDs returns every recorded player id, sorted
func (r *ProfileRepository) ListIDs(ctx context.Context) ([]string, error) {
	var ids []string
	query := `SELECT player_id FROM profile_manifest ORDER BY player_id`

	if err := r.db.DB().SelectContext(ctx, &ids, query); err != nil {
		return nil, fmt.Errorf("listing manifest ids: %w", err)
	}

	return ids, nil
}

// Remove deletes a manifest entry, making the player fetchable again
func (r *ProfileRepository) Remove(ctx context.Context, playerID string) error {
	query := `DELETE FROM profile_manifest WHERE player_id = ?`

	if _, err := r.db.DB().ExecContext(ctx, query, playerID); err != nil {
		return fmt.Errorf("removing manifest entry %s: %w", playerID, err)
	}

	return nil
}

// Count returns the number of recorded profiles
func (r *ProfileRepository) Count(ctx context.Context) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM profile_manifest`

	if err := r.db.DB().GetContext(ctx, &count, query); err != nil {
		return 0, fmt.Errorf("counting manifest entries: %w", err)
	}

	return count, nil
}
