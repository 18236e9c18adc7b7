package formatting

import (
	"testing"

	"github.com/google/uuid"
)

func TestMsgLevelUp(t *testing.T) {
	id := uuid.MustParse("0b9c2d57-3f4e-4a8b-9d1c-5e6f7a8b9c0d")

	tests := []struct {
		name     string
		group    string
		expected string
	}{
		{"with group", "Adept", "`0b9c2d57-3f4e-4a8b-9d1c-5e6f7a8b9c0d` advanced from level 9 to 12 (**Adept**)"},
		{"without group", "", "`0b9c2d57-3f4e-4a8b-9d1c-5e6f7a8b9c0d` advanced from level 9 to 12"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MsgLevelUp(id, 9, 12, tt.group); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}
