package sportradar

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fortuna/diana/internal/store"
)

// ParseSchedule extracts the season's games from a schedule payload in
// schedule order. Entries without an id are skipped with a warning.
func ParseSchedule(payload map[string]interface{}) ([]ScheduledGame, []string) {
	var games []ScheduledGame
	var warnings []string

	for _, gameData := range extractArray(payload, "games") {
		game, ok := gameData.(map[string]interface{})
		if !ok {
			warnings = append(warnings, fmt.Sprintf("malformed schedule entry: %v", gameData))
			continue
		}

		id := extractString(game, "id")
		if id == "" {
			warnings = append(warnings, fmt.Sprintf("schedule entry without id: %v", game))
			continue
		}

		games = append(games, ScheduledGame{
			ID:        id,
			Scheduled: extractString(game, "scheduled"),
		})
	}

	return games, warnings
}

// ParseGameSummary flattens one game summary into a game record plus one
// stat row per rostered appearance, home side first, then away. The game
// date comes from the schedule entry, not the summary. Every field falls
// back to its zero form when absent; an appearance without a player id
// yields a warning instead of a row.
func ParseGameSummary(payload map[string]interface{}, game ScheduledGame) *ParsedSummary {
	home := extractMap(payload, "home")
	away := extractMap(payload, "away")

	record := &store.GameRecord{
		GameID:   game.ID,
		Date:     game.Scheduled,
		HomeTeam: extractString(home, "name"),
		AwayTeam: extractString(away, "name"),
		Venue:    extractString(extractMap(payload, "venue"), "name"),
	}

	parsed := &ParsedSummary{Record: record}

	sides := []struct {
		data     map[string]interface{}
		other    map[string]interface{}
		homeAway string
	}{
		{home, away, "home"},
		{away, home, "away"},
	}

	for _, side := range sides {
		team := extractString(side.data, "name")
		opponent := extractString(side.other, "name")

		for _, playerData := range extractArray(side.data, "players") {
			row, err := parseAppearance(playerData, record, team, opponent, side.homeAway)
			if err != nil {
				parsed.Warnings = append(parsed.Warnings, fmt.Sprintf("game %s: %v", record.GameID, err))
				continue
			}

			parsed.Stats = append(parsed.Stats, row)
			parsed.PlayerIDs = append(parsed.PlayerIDs, row.PlayerID)
		}
	}

	return parsed
}

// parseAppearance turns one roster entry into a stat row. Entries that
// are not objects or carry no player id are rejected with the offending
// payload in the error.
func parseAppearance(playerData interface{}, record *store.GameRecord, team, opponent, homeAway string) (*store.PlayerStatRecord, error) {
	player, ok := playerData.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("malformed player entry: %v", playerData)
	}

	playerID := extractString(player, "id")
	if playerID == "" {
		return nil, fmt.Errorf("player without id: %v", player)
	}

	stats := extractMap(player, "statistics")

	return &store.PlayerStatRecord{
		GameID:          record.GameID,
		GameDate:        record.Date,
		PlayerID:        playerID,
		PlayerName:      fallbackString(extractString(player, "full_name"), "Unknown"),
		Team:            team,
		Opponent:        opponent,
		HomeAway:        homeAway,
		Starter:         extractBool(player, "starter"),
		Minutes:         fallbackString(extractString(stats, "minutes"), "0"),
		ThreePointsMade: extractInt(stats, "three_points_made"),
		ThreePointsAtt:  extractInt(stats, "three_points_att"),
		Points:          extractInt(stats, "points"),
	}, nil
}

// ParseProfile flattens a player profile payload into one table row.
func ParseProfile(payload map[string]interface{}, playerID string) *store.ProfileRecord {
	return &store.ProfileRecord{
		PlayerID:   playerID,
		Name:       extractString(payload, "full_name"),
		Position:   extractString(payload, "position"),
		Experience: extractString(payload, "experience"),
		Height:     extractInt(payload, "height"),
		Weight:     extractInt(payload, "weight"),
	}
}

// Helper functions

func extractString(m map[string]interface{}, key string) string {
	if v, ok := m[key]; ok {
		if str, ok := v.(string); ok {
			return str
		}
	}
	return ""
}

func fallbackString(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func extractInt(m map[string]interface{}, key string) int {
	if v, ok := m[key]; ok {
		return parseInt(v)
	}
	return 0
}

func extractBool(m map[string]interface{}, key string) bool {
	if v, ok := m[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return false
}

func extractMap(m map[string]interface{}, key string) map[string]interface{} {
	if v, ok := m[key]; ok {
		if mapVal, ok := v.(map[string]interface{}); ok {
			return mapVal
		}
	}
	return map[string]interface{}{}
}

func extractArray(m map[string]interface{}, key string) []interface{} {
	if v, ok := m[key]; ok {
		if arrVal, ok := v.([]interface{}); ok {
			return arrVal
		}
	}
	return []interface{}{}
}

func parseInt(v interface{}) int {
	switch val := v.(type) {
	case float64:
		return int(val)
	case string:
		i, _ := strconv.Atoi(val)
		return i
	case int:
		return val
	default:
		return 0
	}
}
