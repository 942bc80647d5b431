package store

import (
	"time"
)

// ProfileEntry is one row of the profile manifest: a player whose raw
// profile JSON has been written to durable storage. A player with an
// entry here is never fetched again.
type ProfileEntry struct {
	PlayerID  string    `json:"player_id" db:"player_id"`
	FilePath  string    `json:"file_path" db:"file_path"`
	FetchedAt time.Time `json:"fetched_at" db:"fetched_at"`
}

// GameRecord is one row of the season games table.
type GameRecord struct {
	GameID   string `json:"game_id"`
	Date     string `json:"date"`
	HomeTeam string `json:"home_team"`
	AwayTeam string `json:"away_team"`
	Venue    string `json:"venue"`
}

// PlayerStatRecord is one player appearance in one game, flattened for
// the per-season stats table. Minutes stays a string because the API
// reports it as "MM:SS".
type PlayerStatRecord struct {
	GameID          string `json:"game_id"`
	GameDate        string `json:"game_date"`
	PlayerID        string `json:"player_id"`
	PlayerName      string `json:"player_name"`
	Team            string `json:"team"`
	Opponent        string `json:"opponent"`
	HomeAway        string `json:"home_away"`
	Starter         bool   `json:"starter"`
	Minutes         string `json:"minutes"`
	ThreePointsMade int    `json:"three_points_made"`
	ThreePointsAtt  int    `json:"three_points_att"`
	Points          int    `json:"points"`
}

// ProfileRecord is one row of the cumulative player profiles table.
type ProfileRecord struct {
	PlayerID   string `json:"player_id"`
	Name       string `json:"name"`
	Position   string `json:"position"`
	Experience string `json:"experience"`
	Height     int    `json:"height"`
	Weight     int    `json:"weight"`
}
