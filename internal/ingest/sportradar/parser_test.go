package sportradar

import (
	"strings"
	"testing"
)

func TestParseScheduleKeepsOrder(t *testing.T) {
	payload := map[string]interface{}{
		"games": []interface{}{
			map[string]interface{}{"id": "g1", "scheduled": "2021-05-14T23:00:00+00:00"},
			map[string]interface{}{"id": "g2", "scheduled": "2021-05-15T23:00:00+00:00"},
			map[string]interface{}{"id": "g3"},
		},
	}

	games, warnings := ParseSchedule(payload)
	if len(games) != 3 {
		t.Fatalf("expected 3 games, got %d", len(games))
	}
	if games[0].ID != "g1" || games[1].ID != "g2" || games[2].ID != "g3" {
		t.Errorf("schedule order not preserved: %+v", games)
	}
	if games[2].Scheduled != "" {
		t.Errorf("missing scheduled should default empty, got %q", games[2].Scheduled)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
}

func TestParseScheduleSkipsEntriesWithoutID(t *testing.T) {
	payload := map[string]interface{}{
		"games": []interface{}{
			map[string]interface{}{"scheduled": "2021-05-14T23:00:00+00:00"},
			map[string]interface{}{"id": "g2", "scheduled": "2021-05-15T23:00:00+00:00"},
		},
	}

	games, warnings := ParseSchedule(payload)
	if len(games) != 1 || games[0].ID != "g2" {
		t.Fatalf("expected only g2, got %+v", games)
	}
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning, got %v", warnings)
	}
}

func TestParseScheduleEmptyPayload(t *testing.T) {
	games, warnings := ParseSchedule(map[string]interface{}{})
	if len(games) != 0 || len(warnings) != 0 {
		t.Errorf("expected nothing from payload without games, got %v / %v", games, warnings)
	}
}

func TestParseGameSummary(t *testing.T) {
	game := ScheduledGame{ID: "g1", Scheduled: "2021-05-14T23:00:00+00:00"}
	payload := map[string]interface{}{
		"venue": map[string]interface{}{"name": "Footprint Center"},
		"home": map[string]interface{}{
			"name": "Mercury",
			"players": []interface{}{
				map[string]interface{}{
					"id":        "p1",
					"full_name": "Diana Taurasi",
					"starter":   true,
					"statistics": map[string]interface{}{
						"minutes":           "31:42",
						"three_points_made": float64(4),
						"three_points_att":  float64(9),
						"points":            float64(22),
					},
				},
			},
		},
		"away": map[string]interface{}{
			"name": "Storm",
			"players": []interface{}{
				map[string]interface{}{
					"id": "p2",
				},
			},
		},
	}

	parsed := ParseGameSummary(payload, game)

	record := parsed.Record
	if record.GameID != "g1" || record.Date != game.Scheduled {
		t.Errorf("record identity wrong: %+v", record)
	}
	if record.HomeTeam != "Mercury" || record.AwayTeam != "Storm" || record.Venue != "Footprint Center" {
		t.Errorf("record teams/venue wrong: %+v", record)
	}

	if len(parsed.Stats) != 2 {
		t.Fatalf("expected 2 stat rows, got %d", len(parsed.Stats))
	}

	p1 := parsed.Stats[0]
	if p1.PlayerID != "p1" || p1.HomeAway != "home" {
		t.Errorf("home row first, got %+v", p1)
	}
	if p1.Team != "Mercury" || p1.Opponent != "Storm" {
		t.Errorf("team/opponent wrong: %+v", p1)
	}
	if !p1.Starter || p1.Minutes != "31:42" || p1.ThreePointsMade != 4 || p1.ThreePointsAtt != 9 || p1.Points != 22 {
		t.Errorf("stats wrong: %+v", p1)
	}

	p2 := parsed.Stats[1]
	if p2.PlayerID != "p2" || p2.HomeAway != "away" {
		t.Errorf("away row second, got %+v", p2)
	}
	if p2.PlayerName != "Unknown" {
		t.Errorf("missing name should default to Unknown, got %q", p2.PlayerName)
	}
	if p2.Starter || p2.Minutes != "0" || p2.ThreePointsMade != 0 || p2.ThreePointsAtt != 0 || p2.Points != 0 {
		t.Errorf("missing stats should default to zero forms: %+v", p2)
	}

	if len(parsed.PlayerIDs) != 2 || parsed.PlayerIDs[0] != "p1" || parsed.PlayerIDs[1] != "p2" {
		t.Errorf("player ids wrong: %v", parsed.PlayerIDs)
	}
	if len(parsed.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", parsed.Warnings)
	}
}

func TestParseGameSummaryWarnsOnMissingPlayerID(t *testing.T) {
	game := ScheduledGame{ID: "g1", Scheduled: "2021-05-14T23:00:00+00:00"}
	payload := map[string]interface{}{
		"home": map[string]interface{}{
			"name": "Mercury",
			"players": []interface{}{
				map[string]interface{}{"full_name": "No ID Player", "jersey": "7"},
			},
		},
		"away": map[string]interface{}{"name": "Storm"},
	}

	parsed := ParseGameSummary(payload, game)

	if len(parsed.Stats) != 0 {
		t.Errorf("appearance without id must yield no rows, got %+v", parsed.Stats)
	}
	if len(parsed.PlayerIDs) != 0 {
		t.Errorf("appearance without id must not join the seen set, got %v", parsed.PlayerIDs)
	}
	if len(parsed.Warnings) != 1 {
		t.Fatalf("expected 1 warning, got %v", parsed.Warnings)
	}
	if !strings.Contains(parsed.Warnings[0], "No ID Player") {
		t.Errorf("warning should include the offending payload, got %q", parsed.Warnings[0])
	}
}

func TestParseGameSummarySkipsMalformedAppearance(t *testing.T) {
	game := ScheduledGame{ID: "g1", Scheduled: "2021-05-14T23:00:00+00:00"}
	payload := map[string]interface{}{
		"home": map[string]interface{}{
			"name": "Mercury",
			"players": []interface{}{
				"not an object",
				map[string]interface{}{"id": "p1", "full_name": "Valid Player"},
			},
		},
		"away": map[string]interface{}{"name": "Storm"},
	}

	parsed := ParseGameSummary(payload, game)

	if len(parsed.Stats) != 1 || parsed.Stats[0].PlayerID != "p1" {
		t.Errorf("valid appearance after malformed one must survive, got %+v", parsed.Stats)
	}
	if len(parsed.Warnings) != 1 {
		t.Errorf("expected 1 warning for malformed entry, got %v", parsed.Warnings)
	}
}

func TestParseGameSummaryWithoutRosters(t *testing.T) {
	game := ScheduledGame{ID: "g1", Scheduled: "2021-05-14T23:00:00+00:00"}
	payload := map[string]interface{}{
		"home": map[string]interface{}{"name": "Mercury"},
		"away": map[string]interface{}{"name": "Storm"},
	}

	parsed := ParseGameSummary(payload, game)

	if parsed.Record.HomeTeam != "Mercury" {
		t.Errorf("game record must still be derived, got %+v", parsed.Record)
	}
	if len(parsed.Stats) != 0 || len(parsed.Warnings) != 0 {
		t.Errorf("rosterless sides contribute nothing, got %+v / %v", parsed.Stats, parsed.Warnings)
	}
}

func TestParseProfileDefaults(t *testing.T) {
	full := ParseProfile(map[string]interface{}{
		"full_name":  "Sue Bird",
		"position":   "G",
		"experience": "18",
		"height":     float64(69),
		"weight":     float64(150),
	}, "p2")

	if full.PlayerID != "p2" || full.Name != "Sue Bird" || full.Position != "G" ||
		full.Experience != "18" || full.Height != 69 || full.Weight != 150 {
		t.Errorf("profile fields wrong: %+v", full)
	}

	empty := ParseProfile(map[string]interface{}{}, "p3")
	if empty.PlayerID != "p3" || empty.Name != "" || empty.Position != "" ||
		empty.Experience != "" || empty.Height != 0 || empty.Weight != 0 {
		t.Errorf("missing profile fields should default, got %+v", empty)
	}
}
