// Package catalog resolves levels to their display group. The group set is
// replaced wholesale on reload; readers always see one complete snapshot.
package catalog

import (
	"sync/atomic"

	"network-leveling/internal/core/domain"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type snapshot struct {
	groups []domain.LevelGroup
}

type Catalog struct {
	current atomic.Pointer[snapshot]
	printer *message.Printer
}

func New(groups []domain.LevelGroup) *Catalog {
	c := &Catalog{printer: message.NewPrinter(language.English)}
	c.Reload(groups)
	return c
}

// Reload swaps in a copy of groups. Order is kept and decides which group
// wins when ranges overlap.
func (c *Catalog) Reload(groups []domain.LevelGroup) {
	c.current.Store(&snapshot{groups: append([]domain.LevelGroup(nil), groups...)})
}

func (c *Catalog) Groups() []domain.LevelGroup {
	return append([]domain.LevelGroup(nil), c.current.Load().groups...)
}

// GroupFor returns the first group whose range contains level. Otherwise a
// level below every group maps to the lowest-min group, a level at or above
// every max maps to the highest-max group, and a level in a gap between
// groups falls back to the lowest-min group.
func (c *Catalog) GroupFor(level int) (domain.LevelGroup, bool) {
	groups := c.current.Load().groups
	if len(groups) == 0 {
		return domain.LevelGroup{}, false
	}

	lowest, highest := 0, 0
	for i, g := range groups {
		if g.Contains(level) {
			return g, true
		}
		if g.Min < groups[lowest].Min {
			lowest = i
		}
		if g.Max > groups[highest].Max {
			highest = i
		}
	}

	if level < groups[lowest].Min {
		return groups[lowest], true
	}
	if level >= groups[highest].Max {
		return groups[highest], true
	}
	return groups[lowest], true
}

// FormatLevel renders "Level 1,234" prefixed with the group's color code.
func (c *Catalog) FormatLevel(level int) string {
	g, _ := c.GroupFor(level)
	return g.Color.Code() + c.printer.Sprintf("Level %d", level)
}

func (c *Catalog) FormatName(level int) string {
	g, _ := c.GroupFor(level)
	return g.Color.Code() + g.Name
}
