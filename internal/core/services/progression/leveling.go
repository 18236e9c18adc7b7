package progression

import (
	"context"
	"fmt"
	"log/slog"

	"network-leveling/internal/adapters/metrics"
	"network-leveling/internal/core/domain"
	"network-leveling/internal/wire"

	"github.com/google/uuid"
)

// Level returns the stored level, or 1 when the ledger has nothing usable.
func (m *Manager) Level(ctx context.Context, id uuid.UUID) int {
	return m.load(ctx, id).Level
}

// Experience returns the stored experience, or 0 when the ledger has nothing usable.
func (m *Manager) Experience(ctx context.Context, id uuid.UUID) int64 {
	return m.load(ctx, id).Experience
}

func (m *Manager) Record(ctx context.Context, id uuid.UUID) domain.ProgressRecord {
	return m.load(ctx, id)
}

// SetLevel stores level with experience at that level's floor and tells the
// player once the write went through.
func (m *Manager) SetLevel(ctx context.Context, id uuid.UUID, level int, reason string) error {
	if level < 1 {
		level = 1
	}
	if level > domain.MaxLevel {
		level = domain.MaxLevel
	}

	unlock := m.locks.Lock(id)
	rec := domain.ProgressRecord{Player: id, Level: level, Experience: domain.ThresholdFor(level - 1)}
	err := m.store(ctx, rec)
	unlock()
	if err != nil {
		return err
	}

	m.notify(ctx, id, domain.Notification{
		Kind: domain.NotifySetLevel,
		Args: []any{m.catalog.FormatLevel(level), formatReason(reason)},
	})
	return nil
}

// AddExperience scales delta by the multiplier, adds it without ever dropping
// below the current level's floor and promotes the player through every
// threshold crossed. The returned record is what was persisted.
func (m *Manager) AddExperience(ctx context.Context, id uuid.UUID, delta int64, reason string) (domain.ProgressRecord, error) {
	settings := m.Settings()

	unlock := m.locks.Lock(id)
	rec := m.load(ctx, id)
	oldLevel := rec.Level

	scaled := scaleExperience(delta, settings.Multiplier)
	total := addClamped(rec.Experience, scaled)

	level := rec.Level
	floor := domain.ThresholdFor(level - 1)
	next := domain.ThresholdFor(level)
	leveledUp := total >= next

	if total < floor {
		total = floor
	}

	var notes []domain.Notification
	for total >= next && level < domain.MaxLevel {
		level++
		next = domain.ThresholdFor(level)
		if !settings.Messages.OnlySendLastLevelUp {
			notes = append(notes, m.levelUpNote(level))
		}
	}
	if leveledUp && settings.Messages.OnlySendLastLevelUp {
		notes = append(notes, m.levelUpNote(level))
	}

	rec.Level = level
	rec.Experience = total
	err := m.store(ctx, rec)
	unlock()
	if err != nil {
		return rec, err
	}

	if reason == "" && settings.Multiplier != 1.0 {
		reason = settings.Messages.MultiplierDesc
	} else {
		reason = formatReason(reason)
	}
	m.notify(ctx, id, domain.Notification{Kind: domain.NotifyAddExperience, Args: []any{scaled, reason}})
	for _, n := range notes {
		m.notify(ctx, id, n)
	}

	if level > oldLevel {
		metrics.LevelUps.Add(float64(level - oldLevel))
		slog.Info("Level up", "player", id, "old_level", oldLevel, "new_level", level)
		m.announce(id, oldLevel, level)
	}

	return rec, nil
}

func (m *Manager) levelUpNote(level int) domain.Notification {
	return domain.Notification{Kind: domain.NotifyLevelUp, Args: []any{m.catalog.FormatLevel(level)}}
}

// announce posts the level up in the background. When every slot is busy
// the announcement is dropped rather than holding up the caller.
func (m *Manager) announce(id uuid.UUID, oldLevel, newLevel int) {
	if m.announcer == nil {
		return
	}
	group, _ := m.catalog.GroupFor(newLevel)
	levelUp := domain.LevelUp{Player: id, OldLevel: oldLevel, NewLevel: newLevel, Group: group}

	select {
	case m.announceSlots <- struct{}{}:
	default:
		metrics.AnnouncementsDropped.Inc()
		slog.Warn("Announcement backlog full, dropping level up", "player", id, "new_level", newLevel)
		return
	}

	m.announcing.Add(1)
	go func() {
		defer m.announcing.Done()
		defer func() { <-m.announceSlots }()

		ctx, cancel := context.WithTimeout(context.Background(), announceTimeout)
		defer cancel()
		if err := m.announcer.AnnounceLevelUp(ctx, levelUp); err != nil {
			slog.Warn("Failed to announce level up", "player", id, "error", err)
		}
	}()
}

// load reads a player's record. Missing records and ledger failures both
// read as the default record.
func (m *Manager) load(ctx context.Context, id uuid.UUID) domain.ProgressRecord {
	rec := domain.DefaultRecord(id)

	docs, err := m.ledger.Find(ctx, fieldUUID, id.String())
	if err != nil {
		slog.Warn("Ledger read failed, using defaults", "player", id, "error", err)
		return rec
	}

	var haveLevel, haveExp bool
	for _, doc := range docs {
		if !haveLevel {
			if v, ok := doc.Int64(fieldLevel); ok {
				rec.Level, haveLevel = int(v), true
			}
		}
		if !haveExp {
			if v, ok := doc.Int64(fieldExperience); ok {
				rec.Experience, haveExp = v, true
			}
		}
		if haveLevel && haveExp {
			break
		}
	}

	if rec.Level < 1 {
		rec.Level = 1
	}
	if rec.Experience < 0 {
		rec.Experience = 0
	}
	return rec
}

func (m *Manager) store(ctx context.Context, rec domain.ProgressRecord) error {
	ok, err := m.ledger.Update(ctx, fieldUUID, rec.Player.String(), []wire.Field{
		{Name: fieldExperience, Value: rec.Experience},
		{Name: fieldLevel, Value: int32(rec.Level)},
	})
	if err != nil {
		return fmt.Errorf("store progress for %s: %w", rec.Player, err)
	}
	if !ok {
		slog.Warn("Ledger matched no record, progress not stored", "player", rec.Player)
		return fmt.Errorf("store progress for %s: no record matched", rec.Player)
	}
	return nil
}

func scaleExperience(delta int64, multiplier float64) int64 {
	scaled := multiplier * float64(delta)
	switch {
	case scaled >= float64(domain.MaxExperience):
		return domain.MaxExperience
	case scaled <= -float64(domain.MaxExperience):
		return -domain.MaxExperience
	default:
		return int64(scaled)
	}
}

// addClamped adds delta to exp keeping the result within [0, MaxExperience].
func addClamped(exp, delta int64) int64 {
	total := exp + delta
	if total < 0 {
		return 0
	}
	if total > domain.MaxExperience {
		return domain.MaxExperience
	}
	return total
}

func formatReason(reason string) string {
	if reason == "" {
		return ""
	}
	return "&7(" + reason + "&7)"
}
