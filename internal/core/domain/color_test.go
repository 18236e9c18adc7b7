package domain

import "testing"

func TestParseColor(t *testing.T) {
	c, err := ParseColor(" green ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c != "GREEN" || c.Code() != "§a" {
		t.Errorf("unexpected color %q code %q", c, c.Code())
	}

	if _, err := ParseColor("chartreuse"); err == nil {
		t.Error("expected error for unknown color")
	}
}

func TestTranslateColorCodes(t *testing.T) {
	tests := []struct {
		in, expected string
	}{
		{"&aLevel up!", "§aLevel up!"},
		{"&7(&Breason&7)", "§7(§breason§7)"},
		{"rock & roll", "rock & roll"},
		{"&", "&"},
		{"&zNope", "&zNope"},
	}

	for _, tt := range tests {
		if got := TranslateColorCodes('&', tt.in); got != tt.expected {
			t.Errorf("TranslateColorCodes(%q) = %q, expected %q", tt.in, got, tt.expected)
		}
	}
}
