package completion

import "github.com/MirrexOne/sqlctx/internal/sqlcontext"

// WordBounds returns the span of the identifier around cursor. The scan
// extends left over letters, digits, '_' and '.', so a typed qualifier is part
// of the span, and right over letters, digits and '_' only.
func WordBounds(document string, cursor int) Span {
	cursor = sqlcontext.ClampOffset(document, cursor)

	from := cursor
	for from > 0 && (isWordByte(document[from-1]) || document[from-1] == '.') {
		from--
	}
	to := cursor
	for to < len(document) && isWordByte(document[to]) {
		to++
	}
	return Span{From: from, To: to}
}

// IsTypingKeyword reports whether the word around cursor is a strict prefix of
// an SQL keyword. Completion stays out of the way in that case so the editor's
// keyword completion can take over.
func IsTypingKeyword(document string, cursor int) bool {
	span := WordBounds(document, cursor)
	return sqlcontext.IsKeywordPrefix(document[span.From:span.To])
}

func isWordByte(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}
