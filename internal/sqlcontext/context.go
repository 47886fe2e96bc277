// Package sqlcontext classifies a cursor position inside free-form SQL text.
//
// The analysis is heuristic: it scans the statement enclosing the cursor with
// a handful of anchored regular expressions instead of parsing it, so it keeps
// working on partially typed or invalid SQL. Every function in this package is
// pure and never fails; input that cannot be understood yields empty tables
// and KindUnknown.
package sqlcontext

import (
	"regexp"
	"strings"
)

// Kind is the syntactic position of the cursor.
type Kind int

const (
	KindUnknown Kind = iota
	KindAfterFrom
	KindAfterSelect
	KindSelectColumns
	KindAfterWhere
	KindWhereCondition
	KindAfterHaving
	KindAfterOrderBy
	KindAfterGroupBy
	KindAfterOn
)

var kindNames = [...]string{
	KindUnknown:        "unknown",
	KindAfterFrom:      "after_from",
	KindAfterSelect:    "after_select",
	KindSelectColumns:  "select_columns",
	KindAfterWhere:     "after_where",
	KindWhereCondition: "where_condition",
	KindAfterHaving:    "after_having",
	KindAfterOrderBy:   "after_order_by",
	KindAfterGroupBy:   "after_group_by",
	KindAfterOn:        "after_on",
}

// Kinds lists every Kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, len(kindNames))
	for i := range kindNames {
		out[i] = Kind(i)
	}
	return out
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return kindNames[KindUnknown]
	}
	return kindNames[k]
}

// ParseKind returns the Kind named s.
func ParseKind(s string) (Kind, bool) {
	for i, name := range kindNames {
		if name == s {
			return Kind(i), true
		}
	}
	return KindUnknown, false
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Unknown names decode to
// KindUnknown.
func (k *Kind) UnmarshalText(text []byte) error {
	*k, _ = ParseKind(string(text))
	return nil
}

// Context is the result of analyzing one cursor position.
type Context struct {
	// Tables referenced by the enclosing statement, in order of first appearance.
	Tables []string `json:"tables"`
	// Aliases maps a lower-cased alias to its table name.
	Aliases map[string]string `json:"aliases"`
	Kind    Kind              `json:"contextType"`
	// CurrentTable is empty unless exactly one table is referenced or the
	// cursor follows a qualifier that resolves to a table.
	CurrentTable string `json:"currentTable,omitempty"`
	IsAfterDot   bool   `json:"isAfterDot"`
	// Qualifier is the identifier typed before the dot, as written.
	Qualifier string    `json:"qualifier,omitempty"`
	Statement Statement `json:"statement"`
}

type classifier struct {
	kind     Kind
	patterns []*regexp.Regexp
}

// Evaluated in order, first match wins.
var classifiers = []classifier{
	{KindAfterSelect, []*regexp.Regexp{regexp.MustCompile(`(?i)\bselect\s*$`)}},
	{KindAfterFrom, []*regexp.Regexp{regexp.MustCompile(`(?i)\bfrom\s*$`)}},
	{KindAfterWhere, []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bwhere\s*$`),
		regexp.MustCompile(`(?is)\bwhere\b.*\b(?:and|or)\s*$`),
	}},
	{KindAfterOrderBy, []*regexp.Regexp{regexp.MustCompile(`(?i)\border\s+by\s*$`)}},
	{KindAfterGroupBy, []*regexp.Regexp{regexp.MustCompile(`(?i)\bgroup\s+by\s*$`)}},
	{KindAfterHaving, []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bhaving\s*$`),
		regexp.MustCompile(`(?is)\bhaving\b.*\b(?:and|or)\s*$`),
	}},
	{KindAfterOn, []*regexp.Regexp{regexp.MustCompile(`(?i)\bon\s*$`)}},
}

var (
	selectWord      = regexp.MustCompile(`(?i)\bselect\b`)
	fromWord        = regexp.MustCompile(`(?i)\bfrom\b`)
	whereWord       = regexp.MustCompile(`(?i)\bwhere\b`)
	afterWhereWords = regexp.MustCompile(`(?i)\b(?:group|order|having|limit)\b`)

	qualifierBeforeDot = regexp.MustCompile(
		`(?:"([^"]+)"|` + "`([^`]+)`" + `|\[([^\]]+)\]|(?:^|[^A-Za-z0-9_$])([A-Za-z_][A-Za-z0-9_$]*))\.$`)
)

// Analyze classifies the cursor position in document. Offsets are byte
// offsets; out of range cursors are clamped.
func Analyze(document string, cursor int) Context {
	stmt := SplitStatement(document, cursor)
	full := stmt.Text()
	before := strings.TrimSpace(stmt.Before)

	ctx := Context{
		Tables:    ExtractTables(full),
		Aliases:   ExtractAliases(full),
		Kind:      ClassifyContext(before),
		Statement: stmt,
	}

	if qualifier, ok := QualifierBeforeCursor(before); ok {
		ctx.IsAfterDot = true
		ctx.Qualifier = qualifier
		ctx.CurrentTable = resolveQualifier(qualifier, ctx.Tables, ctx.Aliases)
	} else if len(ctx.Tables) == 1 {
		ctx.CurrentTable = ctx.Tables[0]
	}

	return ctx
}

// ClassifyContext maps the statement text before the cursor to a Kind.
func ClassifyContext(before string) Kind {
	trimmed := strings.TrimSpace(before)

	for _, c := range classifiers {
		for _, re := range c.patterns {
			if re.MatchString(trimmed) {
				return c.kind
			}
		}
	}

	if selectWord.MatchString(trimmed) && !fromWord.MatchString(trimmed) {
		return KindSelectColumns
	}
	if whereWord.MatchString(trimmed) && !afterWhereWords.MatchString(trimmed) {
		return KindWhereCondition
	}
	return KindUnknown
}

// QualifierBeforeCursor reports whether the text before the cursor ends with
// "<identifier>." and returns the identifier without quotes. A partially typed
// word after the dot is not skipped.
func QualifierBeforeCursor(before string) (string, bool) {
	m := qualifierBeforeDot.FindStringSubmatch(strings.TrimSpace(before))
	if m == nil {
		return "", false
	}
	for _, group := range m[1:] {
		if group != "" {
			return group, true
		}
	}
	return "", false
}

// resolveQualifier looks the qualifier up as an alias first, then as one of
// the statement's tables.
func resolveQualifier(qualifier string, tables []string, aliases map[string]string) string {
	if table, ok := aliases[strings.ToLower(qualifier)]; ok {
		return table
	}
	for _, table := range tables {
		if strings.EqualFold(table, qualifier) {
			return table
		}
	}
	return ""
}
