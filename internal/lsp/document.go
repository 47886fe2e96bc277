package lsp

import (
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/MirrexOne/sqlctx/internal/lsp/protocol"
)

// Document represents an open text document.
type Document struct {
	URI        string
	LanguageID string
	Version    int
	Content    string

	// Variables are the {{ variables }} last reported for the document.
	Variables []string
}

// OffsetAt converts an LSP position to a byte offset in text. Characters
// count UTF-16 code units. Positions past the end of a line clamp to the
// line end, lines past the end of text clamp to len(text).
func OffsetAt(text string, pos protocol.Position) int {
	if pos.Line < 0 {
		return 0
	}

	offset := 0
	for line := 0; line < pos.Line; line++ {
		nl := strings.IndexByte(text[offset:], '\n')
		if nl < 0 {
			return len(text)
		}
		offset += nl + 1
	}

	units := 0
	for offset < len(text) && units < pos.Character {
		r, size := utf8.DecodeRuneInString(text[offset:])
		if r == '\n' {
			break
		}
		n := utf16.RuneLen(r)
		if n < 0 {
			n = 1
		}
		if units+n > pos.Character {
			break
		}
		units += n
		offset += size
	}
	return offset
}

// PositionAt converts a byte offset in text to an LSP position.
func PositionAt(text string, offset int) protocol.Position {
	offset = max(0, min(offset, len(text)))

	var pos protocol.Position
	for i := 0; i < offset; {
		r, size := utf8.DecodeRuneInString(text[i:])
		// A rune cut by offset does not count.
		if i+size > offset {
			break
		}
		i += size
		if r == '\n' {
			pos.Line++
			pos.Character = 0
			continue
		}
		n := utf16.RuneLen(r)
		if n < 0 {
			n = 1
		}
		pos.Character += n
	}
	return pos
}

// rangeOf returns the LSP range of the byte span [from, to) of text.
func rangeOf(text string, from, to int) protocol.Range {
	return protocol.Range{Start: PositionAt(text, from), End: PositionAt(text, to)}
}

// wordAt returns the identifier touching offset and its byte span. The dot
// separating a qualifier is not part of the word.
func wordAt(text string, offset int) (string, int, int) {
	offset = max(0, min(offset, len(text)))

	from := offset
	for from > 0 && isIdentByte(text[from-1]) {
		from--
	}
	to := offset
	for to < len(text) && isIdentByte(text[to]) {
		to++
	}
	return text[from:to], from, to
}

// qualifierOf returns the identifier directly before the dot preceding
// from, if any.
func qualifierOf(text string, from int) string {
	if from == 0 || text[from-1] != '.' {
		return ""
	}
	q, _, _ := wordAt(text, from-1)
	return q
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '$' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9') ||
		c >= utf8.RuneSelf
}
