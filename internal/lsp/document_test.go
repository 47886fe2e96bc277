package lsp

import (
	"testing"

	"github.com/MirrexOne/sqlctx/internal/lsp/protocol"
)

// "é" is two bytes and one UTF-16 unit, "😀" four bytes and two units.
const unicodeText = "héllo\n😀x"

func TestOffsetAt(t *testing.T) {
	tests := []struct {
		name string
		pos  protocol.Position
		want int
	}{
		{"start", protocol.Position{}, 0},
		{"after two-byte rune", protocol.Position{Character: 2}, 3},
		{"past line end", protocol.Position{Character: 99}, 6},
		{"second line", protocol.Position{Line: 1}, 7},
		{"after surrogate pair", protocol.Position{Line: 1, Character: 2}, 11},
		{"inside surrogate pair", protocol.Position{Line: 1, Character: 1}, 7},
		{"end", protocol.Position{Line: 1, Character: 3}, 12},
		{"past last line", protocol.Position{Line: 5}, 12},
		{"negative line", protocol.Position{Line: -1}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := OffsetAt(unicodeText, tt.pos); got != tt.want {
				t.Errorf("OffsetAt(%+v) = %d, want %d", tt.pos, got, tt.want)
			}
		})
	}
}

func TestPositionAt(t *testing.T) {
	tests := []struct {
		offset int
		want   protocol.Position
	}{
		{0, protocol.Position{}},
		{3, protocol.Position{Character: 2}},
		{6, protocol.Position{Character: 5}},
		{7, protocol.Position{Line: 1}},
		{11, protocol.Position{Line: 1, Character: 2}},
		{12, protocol.Position{Line: 1, Character: 3}},
		{100, protocol.Position{Line: 1, Character: 3}},
		{-4, protocol.Position{}},
	}

	for _, tt := range tests {
		if got := PositionAt(unicodeText, tt.offset); got != tt.want {
			t.Errorf("PositionAt(%d) = %+v, want %+v", tt.offset, got, tt.want)
		}
	}
}

func TestOffsetPositionRoundTrip(t *testing.T) {
	text := "SELECT *\r\nFROM \"日本\" t\nWHERE t."
	for offset := 0; offset <= len(text); offset++ {
		pos := PositionAt(text, offset)
		back := OffsetAt(text, pos)
		// Offsets inside a multi-byte rune map to the rune start.
		if back > offset {
			t.Errorf("offset %d -> %+v -> %d", offset, pos, back)
		}
	}
}

func TestWordAt(t *testing.T) {
	tests := []struct {
		text     string
		offset   int
		word     string
		from, to int
	}{
		{"SELECT u.name", 10, "name", 9, 13},
		{"SELECT u.name", 13, "name", 9, 13},
		{"SELECT u.name", 8, "u", 7, 8},
		{"SELECT ", 7, "", 7, 7},
		{"SELECT $total", 9, "$total", 7, 13},
	}

	for _, tt := range tests {
		word, from, to := wordAt(tt.text, tt.offset)
		if word != tt.word || from != tt.from || to != tt.to {
			t.Errorf("wordAt(%q, %d) = %q [%d,%d), want %q [%d,%d)",
				tt.text, tt.offset, word, from, to, tt.word, tt.from, tt.to)
		}
	}

	if q := qualifierOf("SELECT u.name", 9); q != "u" {
		t.Errorf("qualifierOf() = %q, want u", q)
	}
	if q := qualifierOf("SELECT name", 7); q != "" {
		t.Errorf("qualifierOf() = %q, want empty", q)
	}
}
