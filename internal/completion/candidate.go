package completion

import (
	"slices"

	"github.com/MirrexOne/sqlctx/internal/sqlcontext"
)

// ItemKind is what a candidate completes to.
type ItemKind int

const (
	KindTable ItemKind = iota + 1
	KindColumn
	KindKeyword
	KindFunction
)

var itemKindNames = map[ItemKind]string{
	KindTable:    "table",
	KindColumn:   "column",
	KindKeyword:  "keyword",
	KindFunction: "function",
}

func (k ItemKind) String() string {
	if name, ok := itemKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// ParseItemKind returns the ItemKind named s.
func ParseItemKind(s string) (ItemKind, bool) {
	for k, name := range itemKindNames {
		if name == s {
			return k, true
		}
	}
	return 0, false
}

// MarshalText implements encoding.TextMarshaler.
func (k ItemKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *ItemKind) UnmarshalText(text []byte) error {
	*k, _ = ParseItemKind(string(text))
	return nil
}

// Candidate is one completion suggestion.
type Candidate struct {
	Label  string   `json:"label"`
	Kind   ItemKind `json:"kind"`
	Detail string   `json:"detail"`
	// Boost ranks candidates, higher first.
	Boost int `json:"boost"`
	// InsertText replaces Label when accepted, if set.
	InsertText string `json:"insertText,omitempty"`
}

// Text returns what accepting the candidate inserts.
func (c Candidate) Text() string {
	if c.InsertText != "" {
		return c.InsertText
	}
	return c.Label
}

// Span is the byte range [From, To) that an accepted candidate replaces.
type Span struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Result is the answer to one completion request.
type Result struct {
	Span       Span               `json:"span"`
	Candidates []Candidate        `json:"candidates"`
	Context    sqlcontext.Context `json:"context"`
}

// Sort orders candidates by boost, highest first. Candidates with equal
// boost keep the order they were produced in.
func Sort(candidates []Candidate) {
	slices.SortStableFunc(candidates, func(a, b Candidate) int {
		return b.Boost - a.Boost
	})
}

// Filter rewrites the candidate list after the engine has built it, for
// example to hide or re-rank entries. It must not modify the input slice.
type Filter interface {
	Apply(ctx sqlcontext.Context, candidates []Candidate) []Candidate
}

// FilterFunc adapts a function to Filter.
type FilterFunc func(ctx sqlcontext.Context, candidates []Candidate) []Candidate

// Apply calls f.
func (f FilterFunc) Apply(ctx sqlcontext.Context, candidates []Candidate) []Candidate {
	return f(ctx, candidates)
}

// Function names offered in select lists.
var functions = []struct {
	name   string
	detail string
	noArgs bool
}{
	{name: "COUNT", detail: "Count rows"},
	{name: "SUM", detail: "Sum values"},
	{name: "AVG", detail: "Average values"},
	{name: "MAX", detail: "Maximum value"},
	{name: "MIN", detail: "Minimum value"},
	{name: "DISTINCT", detail: "Unique values"},
	{name: "UPPER", detail: "Uppercase"},
	{name: "LOWER", detail: "Lowercase"},
	{name: "LENGTH", detail: "String length"},
	{name: "NOW", detail: "Current timestamp", noArgs: true},
}

// FunctionNames returns the names of the functions offered in select lists.
func FunctionNames() []string {
	names := make([]string, len(functions))
	for i, f := range functions {
		names[i] = f.name
	}
	return names
}
