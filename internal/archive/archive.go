package archive

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/fortuna/diana/internal/store"
)

// ManifestFile is the name of the manifest database inside the root.
const ManifestFile = "manifest.db"

var (
	gamesHeader = []string{"game_id", "date", "home_team", "away_team", "venue"}
	statsHeader = []string{
		"game_id", "game_date", "player_id", "player_name", "team", "opponent",
		"home_away", "starter", "minutes", "three_points_made", "three_points_att", "points",
	}
	profilesHeader = []string{"player_id", "name", "position", "experience", "height", "weight"}
)

// Archive owns the on-disk layout of collected data: raw JSON payloads
// under the root, per-season CSV tables, and the shared Players
// directory of profile files.
type Archive struct {
	root string
}

// New creates the archive root and the shared Players directory. Both
// may already exist.
func New(root string) (*Archive, error) {
	a := &Archive{root: root}

	if err := os.MkdirAll(a.PlayersDir(), 0755); err != nil {
		return nil, fmt.Errorf("creating players directory: %w", err)
	}

	return a, nil
}

// Root returns the archive root directory
func (a *Archive) Root() string {
	return a.root
}

// PlayersDir returns the shared profile directory
func (a *Archive) PlayersDir() string {
	return filepath.Join(a.root, "Players")
}

// SeasonDir returns the per-year directory
func (a *Archive) SeasonDir(year int) string {
	return filepath.Join(a.root, strconv.Itoa(year))
}

// ManifestPath returns the manifest database path inside the root
func (a *Archive) ManifestPath() string {
	return filepath.Join(a.root, ManifestFile)
}

// SchedulePath returns the raw schedule payload path for a year
func (a *Archive) SchedulePath(year int) string {
	return filepath.Join(a.SeasonDir(year), fmt.Sprintf("schedule_%d.json", year))
}

// GamePath returns the raw game summary payload path
func (a *Archive) GamePath(year int, gameID string) string {
	return filepath.Join(a.SeasonDir(year), fmt.Sprintf("game_%s.json", gameID))
}

// ProfilePath returns the raw profile payload path for a player
func (a *Archive) ProfilePath(playerID string) string {
	return filepath.Join(a.PlayersDir(), fmt.Sprintf("player_%s.json", playerID))
}

// GamesTablePath returns the season games CSV path
func (a *Archive) GamesTablePath(year int) string {
	return filepath.Join(a.SeasonDir(year), fmt.Sprintf("games_%d.csv", year))
}

// StatsTablePath returns the season player stats CSV path
func (a *Archive) StatsTablePath(year int) string {
	return filepath.Join(a.SeasonDir(year), fmt.Sprintf("player_game_stats_%d.csv", year))
}

// ProfilesTablePath returns the cumulative profiles CSV path
func (a *Archive) ProfilesTablePath() string {
	return filepath.Join(a.root, "player_profiles.csv")
}

// EnsureSeason creates the per-year directory, returning its path. Safe
// to call repeatedly.
func (a *Archive) EnsureSeason(year int) (string, error) {
	dir := a.SeasonDir(year)

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating season directory: %w", err)
	}

	return dir, nil
}

// ListPlayerIDs returns the bare player ids embedded in the persisted
// profile filenames, sorted.
func (a *Archive) ListPlayerIDs() ([]string, error) {
	entries, err := os.ReadDir(a.PlayersDir())
	if err != nil {
		return nil, fmt.Errorf("reading players directory: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, "player_") || !strings.HasSuffix(name, ".json") {
			continue
		}

		id := strings.TrimSuffix(strings.TrimPrefix(name, "player_"), ".json")
		if id != "" {
			ids = append(ids, id)
		}
	}

	sort.Strings(ids)
	return ids, nil
}

// WriteJSON writes payload as pretty printed JSON, replacing any
// existing file.
func (a *Archive) WriteJSON(path string, payload interface{}) error {
	data, err := json.MarshalIndent(payload, "", "    ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}

	return nil
}

// WriteGameTable writes the season games table, replacing any existing
// file. An empty season still gets its header row.
func (a *Archive) WriteGameTable(year int, games []*store.GameRecord) error {
	rows := make([][]string, 0, len(games))
	for _, g := range games {
		rows = append(rows, []string{g.GameID, g.Date, g.HomeTeam, g.AwayTeam, g.Venue})
	}

	return writeTable(a.GamesTablePath(year), gamesHeader, rows)
}

// WriteStatsTable writes the season player stats table, replacing any
// existing file.
func (a *Archive) WriteStatsTable(year int, stats []*store.PlayerStatRecord) error {
	rows := make([][]string, 0, len(stats))
	for _, s := range stats {
		rows = append(rows, []string{
			s.GameID, s.GameDate, s.PlayerID, s.PlayerName, s.Team, s.Opponent,
			s.HomeAway, strconv.FormatBool(s.Starter), s.Minutes,
			strconv.Itoa(s.ThreePointsMade), strconv.Itoa(s.ThreePointsAtt), strconv.Itoa(s.Points),
		})
	}

	return writeTable(a.StatsTablePath(year), statsHeader, rows)
}

// AppendProfileTable appends profile rows to the cumulative table,
// keeping any existing rows, in order, ahead of the new ones. There is
// no dedup pass: rows accumulate as written.
func (a *Archive) AppendProfileTable(profiles []*store.ProfileRecord) error {
	rows := make([][]string, 0, len(profiles))
	for _, p := range profiles {
		rows = append(rows, []string{
			p.PlayerID, p.Name, p.Position, p.Experience,
			strconv.Itoa(p.Height), strconv.Itoa(p.Weight),
		})
	}

	return appendOrCreateTable(a.ProfilesTablePath(), profilesHeader, rows)
}

// writeTable writes header plus rows, replacing any existing file.
func writeTable(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("writing header of %s: %w", filepath.Base(path), err)
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("writing row of %s: %w", filepath.Base(path), err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing %s: %w", filepath.Base(path), err)
	}

	return nil
}

// appendOrCreateTable rewrites a table as existing data rows followed by
// the new ones, creating the file when absent.
func appendOrCreateTable(path string, header []string, newRows [][]string) error {
	existing, err := readTableRows(path)
	if err != nil {
		return err
	}

	return writeTable(path, header, append(existing, newRows...))
}

// readTableRows returns the data rows of a CSV table without its
// header. A missing file yields no rows.
func readTableRows(path string) ([][]string, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	return records[1:], nil
}
