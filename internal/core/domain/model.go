package domain

import (
	"encoding/json"
	"math"

	"github.com/google/uuid"
)

// LevelGroup is a display bucket covering the half-open level range [Min, Max).
type LevelGroup struct {
	Key   string
	Name  string
	Color Color
	Min   int
	Max   int
}

func (g LevelGroup) Contains(level int) bool {
	return level >= g.Min && level < g.Max
}

type ProgressRecord struct {
	Player     uuid.UUID
	Level      int
	Experience int64
}

// DefaultRecord is what callers assume when the ledger has nothing for a player.
func DefaultRecord(player uuid.UUID) ProgressRecord {
	return ProgressRecord{Player: player, Level: 1, Experience: 0}
}

type NotificationKind string

const (
	NotifyAddExperience NotificationKind = "add-experience"
	NotifyLevelUp       NotificationKind = "level-up"
	NotifySetLevel      NotificationKind = "set-level"
)

// Notification is a player-facing message descriptor. Args fill the
// positional placeholders of the template selected by Kind.
type Notification struct {
	Kind NotificationKind
	Args []any
}

type LevelUp struct {
	Player   uuid.UUID
	OldLevel int
	NewLevel int
	Group    LevelGroup
}

// Document is one record as returned by a ledger backend.
type Document map[string]any

// Int64 reads a numeric field regardless of how the backend decoded it.
func (d Document) Int64(key string) (int64, bool) {
	v, ok := d[key]
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}
