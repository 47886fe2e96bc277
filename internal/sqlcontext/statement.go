package sqlcontext

import "strings"

// Statement is the slice of a document between the semicolons that enclose
// the cursor. Offsets are byte offsets into the document; End is exclusive.
type Statement struct {
	Start  int    `json:"start"`
	End    int    `json:"end"`
	Cursor int    `json:"cursor"`
	Before string `json:"before"`
	After  string `json:"after"`
}

// Text returns the whole statement.
func (s Statement) Text() string {
	return s.Before + s.After
}

// SplitStatement isolates the statement containing cursor. The statement
// starts after the last ';' before the cursor and ends at the first ';' at or
// after it. Semicolons inside string literals are not special-cased.
func SplitStatement(document string, cursor int) Statement {
	cursor = ClampOffset(document, cursor)

	start := strings.LastIndexByte(document[:cursor], ';') + 1

	end := len(document)
	if i := strings.IndexByte(document[cursor:], ';'); i >= 0 {
		end = cursor + i
	}

	return Statement{
		Start:  start,
		End:    end,
		Cursor: cursor,
		Before: document[start:cursor],
		After:  document[cursor:end],
	}
}

// ClampOffset forces offset into [0, len(document)].
func ClampOffset(document string, offset int) int {
	if offset < 0 {
		return 0
	}
	if offset > len(document) {
		return len(document)
	}
	return offset
}
