package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleProgression = `
xp-multiplier: 2.5
messages:
  add-experience: "&a+%d XP %s"
  only-send-last-levelup: true
level-groups:
  zeta:
    min: 1
    max: 10
    color: gray
  alpha:
    min: 10
    max: 20
    color: GOLD
    name: Golden
`

func TestParseProgression(t *testing.T) {
	p, err := ParseProgression([]byte(sampleProgression))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assertEqual(t, "Multiplier", 2.5, p.Multiplier)
	assertEqual(t, "AddExperience", "&a+%d XP %s", p.Messages.AddExperience)
	assertEqual(t, "LevelUp default kept", defaultMessages().LevelUp, p.Messages.LevelUp)
	assertEqual(t, "OnlySendLastLevelUp", true, p.Messages.OnlySendLastLevelUp)

	if len(p.LevelGroups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(p.LevelGroups))
	}
	// Document order is preserved, not alphabetical.
	assertEqual(t, "first key", "zeta", p.LevelGroups[0].Key)
	assertEqual(t, "name defaults to key", "zeta", p.LevelGroups[0].Name)
	assertEqual(t, "color normalised", "GRAY", string(p.LevelGroups[0].Color))
	assertEqual(t, "explicit name", "Golden", p.LevelGroups[1].Name)
	assertEqual(t, "min", 10, p.LevelGroups[1].Min)
	assertEqual(t, "max", 20, p.LevelGroups[1].Max)
}

func TestParseProgression_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"bad yaml", "xp-multiplier: [", "parse progression yaml"},
		{"groups not a mapping", "level-groups: [1]", "must be a mapping"},
		{"unknown color", "level-groups:\n  a: {min: 1, max: 2, color: PLAID}", "unknown color"},
		{"bad group body", "level-groups:\n  a: {min: x}", `level group "a"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseProgression([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected error")
			}
			assertContains(t, err.Error(), tt.want)
		})
	}
}

func TestParseProgression_Empty(t *testing.T) {
	p, err := ParseProgression([]byte(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertEqual(t, "Multiplier", 1.0, p.Multiplier)
	assertEqual(t, "groups", 0, len(p.LevelGroups))
}

func TestLoadProgression(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file uses defaults", func(t *testing.T) {
		p, err := LoadProgression(filepath.Join(dir, "nope.yml"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertEqual(t, "groups", len(DefaultProgression().LevelGroups), len(p.LevelGroups))
	})

	t.Run("reads file", func(t *testing.T) {
		path := filepath.Join(dir, "progression.yml")
		os.WriteFile(path, []byte(sampleProgression), 0600)
		p, err := LoadProgression(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertEqual(t, "Multiplier", 2.5, p.Multiplier)
	})

	t.Run("directory is an error", func(t *testing.T) {
		if _, err := LoadProgression(dir); err == nil {
			t.Fatal("expected error reading a directory")
		}
	})
}

func TestDefaultProgression_IsValid(t *testing.T) {
	if err := DefaultProgression().Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
	for _, g := range DefaultProgression().LevelGroups {
		if g.Color.Code() == "" || !strings.HasPrefix(g.Color.Code(), "§") {
			t.Errorf("default group %q has unknown color %q", g.Key, g.Color)
		}
	}
}
