package sqlcontext

import (
	"slices"
	"strings"
)

// keywordClass groups reserved words by the role they play in a statement.
type keywordClass uint8

const (
	classClause keywordClass = iota + 1
	classJoin
	classLogical
	classStatement
	classFunction
)

// keywordTable is the single reserved-word table shared by alias extraction
// and the completion keyword guard.
var keywordTable = map[string]keywordClass{
	"select":    classClause,
	"from":      classClause,
	"where":     classClause,
	"order":     classClause,
	"group":     classClause,
	"by":        classClause,
	"having":    classClause,
	"limit":     classClause,
	"offset":    classClause,
	"union":     classClause,
	"intersect": classClause,
	"except":    classClause,
	"with":      classClause,
	"values":    classClause,
	"set":       classClause,
	"as":        classClause,
	"distinct":  classClause,
	"all":       classClause,
	"using":     classClause,
	"returning": classClause,

	"join":    classJoin,
	"inner":   classJoin,
	"left":    classJoin,
	"right":   classJoin,
	"full":    classJoin,
	"outer":   classJoin,
	"cross":   classJoin,
	"natural": classJoin,
	"on":      classJoin,

	"and":     classLogical,
	"or":      classLogical,
	"not":     classLogical,
	"in":      classLogical,
	"exists":  classLogical,
	"like":    classLogical,
	"ilike":   classLogical,
	"between": classLogical,
	"is":      classLogical,
	"null":    classLogical,
	"case":    classLogical,
	"when":    classLogical,
	"then":    classLogical,
	"else":    classLogical,
	"end":     classLogical,

	"insert": classStatement,
	"update": classStatement,
	"delete": classStatement,
	"create": classStatement,
	"drop":   classStatement,
	"alter":  classStatement,
	"table":  classStatement,
	"into":   classStatement,

	"count": classFunction,
	"sum":   classFunction,
	"avg":   classFunction,
	"max":   classFunction,
	"min":   classFunction,
}

// unguarded words are reserved for alias extraction but are also common
// identifier prefixes ("us" for users, "nu" for number), so typing one of
// their prefixes does not suppress completion.
var unguarded = map[string]bool{
	"using":     true,
	"returning": true,
	"natural":   true,
	"is":        true,
	"null":      true,
	"into":      true,
}

// IsKeyword reports whether word is reserved. Reserved words are never
// accepted as table aliases.
func IsKeyword(word string) bool {
	_, ok := keywordTable[strings.ToLower(word)]
	return ok
}

// IsKeywordPrefix reports whether word is a non-empty strict prefix of a
// clause, join, logical or statement keyword. Function names are left out so
// that a partially typed aggregate still gets function candidates, and so are
// the unguarded words.
func IsKeywordPrefix(word string) bool {
	if word == "" {
		return false
	}
	word = strings.ToLower(word)
	for kw, class := range keywordTable {
		if class == classFunction || unguarded[kw] {
			continue
		}
		if len(word) < len(kw) && strings.HasPrefix(kw, word) {
			return true
		}
	}
	return false
}

// Keywords returns the non-function keywords in upper case, sorted.
func Keywords() []string {
	out := make([]string, 0, len(keywordTable))
	for kw, class := range keywordTable {
		if class != classFunction {
			out = append(out, strings.ToUpper(kw))
		}
	}
	slices.Sort(out)
	return out
}
