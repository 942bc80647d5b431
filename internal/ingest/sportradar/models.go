package sportradar

import (
	"github.com/fortuna/diana/internal/store"
)

// ScheduledGame is one entry of the season schedule, trimmed to the two
// fields the collector uses. The scheduled timestamp is kept verbatim
// and becomes the game date in every derived row.
type ScheduledGame struct {
	ID        string
	Scheduled string
}

// ParsedSummary holds everything derived from one game summary payload:
// the game record, one stat row per rostered appearance, the player ids
// seen, and any per-appearance warnings.
type ParsedSummary struct {
	Record    *store.GameRecord
	Stats     []*store.PlayerStatRecord
	PlayerIDs []string
	Warnings  []string
}
