package domain

import (
	"fmt"
	"strings"
)

// Color is a legacy chat color or format name such as GREEN or BOLD.
type Color string

const colorChar = '§'

var colorCodes = map[Color]byte{
	"BLACK":         '0',
	"DARK_BLUE":     '1',
	"DARK_GREEN":    '2',
	"DARK_AQUA":     '3',
	"DARK_RED":      '4',
	"DARK_PURPLE":   '5',
	"GOLD":          '6',
	"GRAY":          '7',
	"DARK_GRAY":     '8',
	"BLUE":          '9',
	"GREEN":         'a',
	"AQUA":          'b',
	"RED":           'c',
	"LIGHT_PURPLE":  'd',
	"YELLOW":        'e',
	"WHITE":         'f',
	"MAGIC":         'k',
	"BOLD":          'l',
	"STRIKETHROUGH": 'm',
	"UNDERLINE":     'n',
	"ITALIC":        'o',
	"RESET":         'r',
}

func ParseColor(name string) (Color, error) {
	c := Color(strings.ToUpper(strings.TrimSpace(name)))
	if _, ok := colorCodes[c]; !ok {
		return "", fmt.Errorf("unknown color %q", name)
	}
	return c, nil
}

// Code returns the two-character control sequence, or "" for unknown colors.
func (c Color) Code() string {
	b, ok := colorCodes[c]
	if !ok {
		return ""
	}
	return string(colorChar) + string(b)
}

// TranslateColorCodes replaces alt followed by a valid code character with the
// section-sign control sequence, e.g. "&aHi" -> "§aHi".
func TranslateColorCodes(alt rune, text string) string {
	runes := []rune(text)
	for i := 0; i < len(runes)-1; i++ {
		if runes[i] == alt && strings.ContainsRune("0123456789AaBbCcDdEeFfKkLlMmNnOoRr", runes[i+1]) {
			runes[i] = colorChar
			runes[i+1] = []rune(strings.ToLower(string(runes[i+1])))[0]
		}
	}
	return string(runes)
}
