package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"network-leveling/internal/core/domain"

	"gopkg.in/yaml.v3"
)

// Progression is the reloadable part of the configuration: experience
// multiplier, message templates and level groups.
type Progression struct {
	Multiplier  float64
	Messages    Messages
	LevelGroups []domain.LevelGroup
}

// Messages holds chat templates. Placeholders are fmt verbs filled in order:
//
//	add-experience: scaled experience, reason
//	level-up:       formatted level
//	set-level:      formatted level, reason
type Messages struct {
	AddExperience       string `yaml:"add-experience"`
	LevelUp             string `yaml:"level-up"`
	SetLevel            string `yaml:"set-level"`
	MultiplierDesc      string `yaml:"multiplier-desc"`
	OnlySendLastLevelUp bool   `yaml:"only-send-last-levelup"`
}

type progressionFile struct {
	Multiplier  *float64  `yaml:"xp-multiplier"`
	Messages    Messages  `yaml:"messages"`
	LevelGroups yaml.Node `yaml:"level-groups"`
}

type levelGroupEntry struct {
	Min   int    `yaml:"min"`
	Max   int    `yaml:"max"`
	Color string `yaml:"color"`
	Name  string `yaml:"name"`
}

func DefaultProgression() *Progression {
	return &Progression{
		Multiplier: 1.0,
		Messages:   defaultMessages(),
		LevelGroups: []domain.LevelGroup{
			{Key: "novice", Name: "Novice", Color: "GRAY", Min: 1, Max: 10},
			{Key: "adept", Name: "Adept", Color: "GREEN", Min: 10, Max: 25},
			{Key: "veteran", Name: "Veteran", Color: "AQUA", Min: 25, Max: 50},
			{Key: "master", Name: "Master", Color: "GOLD", Min: 50, Max: 100},
			{Key: "legend", Name: "Legend", Color: "LIGHT_PURPLE", Min: 100, Max: 1000},
		},
	}
}

func defaultMessages() Messages {
	return Messages{
		AddExperience:  "&b+%d Network Experience %s",
		LevelUp:        "&6&lLEVEL UP! &eYou are now %s",
		SetLevel:       "&eYour network level was set to %s %s",
		MultiplierDesc: "&7(Multiplier)",
	}
}

// LoadProgression reads the YAML progression file. A missing file yields the
// defaults; a present but invalid file is an error.
func LoadProgression(path string) (*Progression, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		slog.Warn("Progression file not found, using defaults", "path", path)
		return DefaultProgression(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return ParseProgression(data)
}

func ParseProgression(data []byte) (*Progression, error) {
	var file progressionFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse progression yaml: %w", err)
	}

	p := &Progression{
		Multiplier: 1.0,
		Messages:   mergeMessages(defaultMessages(), file.Messages),
	}
	if file.Multiplier != nil {
		p.Multiplier = *file.Multiplier
	}

	groups, err := decodeLevelGroups(&file.LevelGroups)
	if err != nil {
		return nil, err
	}
	p.LevelGroups = groups

	return p, nil
}

// decodeLevelGroups walks the mapping node directly so groups keep the order
// they were written in.
func decodeLevelGroups(node *yaml.Node) ([]domain.LevelGroup, error) {
	if node.Kind == 0 {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("level-groups must be a mapping (line %d)", node.Line)
	}

	groups := make([]domain.LevelGroup, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		var entry levelGroupEntry
		if err := node.Content[i+1].Decode(&entry); err != nil {
			return nil, fmt.Errorf("level group %q: %w", key, err)
		}
		color, err := domain.ParseColor(entry.Color)
		if err != nil {
			return nil, fmt.Errorf("level group %q: %w", key, err)
		}
		name := entry.Name
		if name == "" {
			name = key
		}
		groups = append(groups, domain.LevelGroup{
			Key:   key,
			Name:  name,
			Color: color,
			Min:   entry.Min,
			Max:   entry.Max,
		})
	}
	return groups, nil
}

func mergeMessages(base, override Messages) Messages {
	if override.AddExperience != "" {
		base.AddExperience = override.AddExperience
	}
	if override.LevelUp != "" {
		base.LevelUp = override.LevelUp
	}
	if override.SetLevel != "" {
		base.SetLevel = override.SetLevel
	}
	if override.MultiplierDesc != "" {
		base.MultiplierDesc = override.MultiplierDesc
	}
	base.OnlySendLastLevelUp = override.OnlySendLastLevelUp
	return base
}
