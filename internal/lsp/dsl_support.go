package lsp

import (
	"path"
	"slices"
	"strings"

	"github.com/MirrexOne/sqlctx/internal/configloader"
	"github.com/MirrexOne/sqlctx/internal/dsl"
	"github.com/MirrexOne/sqlctx/internal/lsp/protocol"
	"github.com/MirrexOne/sqlctx/pkg/config"
)

// DSLSupport provides completion and hover inside .sqlctx.yaml files.
type DSLSupport struct{}

// NewDSLSupport creates a new DSL support instance.
func NewDSLSupport() *DSLSupport {
	return &DSLSupport{}
}

type settingKey struct {
	key, doc string
	rule     bool
}

var settingKeys = []settingKey{
	{key: "dialect", doc: "SQL dialect hint: postgres, mysql or sqlite. Selects the introspection query."},
	{key: "schema-file", doc: "YAML or JSON file with the tables and their columns."},
	{key: "dsn", doc: "Database to introspect for the schema instead of schema-file."},
	{key: "qualify", doc: "How qualified columns are labeled: `alias` or `table`."},
	{key: "cache-size", doc: "Number of completion results kept. Negative disables the cache."},
	{key: "hide-system-tables", doc: "Hide pg_*, sqlite_* and other catalog tables from completion."},
	{key: "variables-debounce", doc: "Delay before reporting a changed set of {{ variables }}, e.g. `300ms`."},
	{key: "rules", doc: "Completion rules that hide or boost candidates."},
	{key: "id", doc: "Name of the rule, used in logs and errors.", rule: true},
	{key: "pattern", doc: "Label pattern, matched ignoring case. Supports $TABLE, $COLUMN and $ANY.", rule: true},
	{key: "patterns", doc: "Several label patterns; any may match.", rule: true},
	{key: "when", doc: "Condition evaluated with expr-lang; the rule applies when it is true.", rule: true},
	{key: "action", doc: "`hide` drops the candidate, `boost` adds `boost` to its rank.", rule: true},
	{key: "boost", doc: "Amount added to the candidate's boost by boost rules.", rule: true},
	{key: "kinds", doc: "Candidate kinds the rule applies to: table, column, keyword, function.", rule: true},
}

// IsConfigFile reports whether uri names a sqlctx settings file.
func IsConfigFile(uri string) bool {
	base := path.Base(uri)
	return base == configloader.ConfigFileName || base == configloader.AlternateConfigFileName
}

// GetDSLCompletions returns completions for the line under pos.
func (d *DSLSupport) GetDSLCompletions(doc *Document, pos protocol.Position) []protocol.CompletionItem {
	lines := strings.Split(doc.Content, "\n")
	if pos.Line >= len(lines) {
		return nil
	}

	trimmed := strings.TrimSpace(lines[pos.Line])
	trimmed = strings.TrimSpace(strings.TrimPrefix(trimmed, "-"))

	switch {
	case strings.HasPrefix(trimmed, "when:"):
		return d.getConditionCompletions()
	case strings.HasPrefix(trimmed, "pattern:"), strings.HasPrefix(trimmed, "patterns:"):
		return d.getPatternCompletions()
	case strings.HasPrefix(trimmed, "action:"):
		return values(config.ActionHide, config.ActionBoost)
	case strings.HasPrefix(trimmed, "kinds:"):
		return values("table", "column", "keyword", "function")
	case strings.HasPrefix(trimmed, "qualify:"):
		return values(config.QualifyAlias, config.QualifyTable)
	case strings.HasPrefix(trimmed, "dialect:"):
		return values(config.Dialects()...)
	case strings.HasPrefix(trimmed, "hide-system-tables:"):
		return values("true", "false")
	case !strings.Contains(trimmed, ":"):
		return d.getKeyCompletions(strings.HasPrefix(lines[pos.Line], " "))
	}
	return nil
}

// GetDSLHover documents the setting key, variable, function or metavariable
// under pos.
func (d *DSLSupport) GetDSLHover(doc *Document, pos protocol.Position) *protocol.Hover {
	offset := OffsetAt(doc.Content, pos)
	word, from, to := wordAt(doc.Content, offset)
	// Keys such as schema-file are hyphenated.
	for from > 0 && doc.Content[from-1] == '-' {
		head, start, _ := wordAt(doc.Content, from-1)
		if head == "" {
			break
		}
		word = head + "-" + word
		from = start
	}
	for to < len(doc.Content) && doc.Content[to] == '-' {
		rest, _, end := wordAt(doc.Content, to+1)
		if rest == "" {
			break
		}
		word += "-" + rest
		to = end
	}
	// A metavariable may follow literal text, as in tmp_$ANY.
	if i := strings.LastIndexByte(doc.Content[from:offset], '$'); i > 0 {
		from += i
		word = doc.Content[from:to]
	}
	if word == "" {
		return nil
	}

	var title, desc string
	if i := slices.IndexFunc(settingKeys, func(k settingKey) bool { return k.key == word }); i >= 0 {
		title, desc = "`"+word+"`", settingKeys[i].doc
	} else if v, ok := dsl.BuiltinVariableDescriptions()[word]; ok {
		title, desc = "Variable: `"+word+"`", v
	} else if v, ok := dsl.BuiltinFunctionDescriptions()[word]; ok {
		title, desc = "Function: `"+word+"`", v
	} else if v, ok := dsl.MetavariableDescriptions()[word]; ok {
		title, desc = "Metavariable: `"+word+"`", v
	} else {
		return nil
	}

	r := rangeOf(doc.Content, from, to)
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: "### " + title + "\n\n" + desc,
		},
		Range: &r,
	}
}

// getConditionCompletions returns completions for "when:" conditions.
func (d *DSLSupport) getConditionCompletions() []protocol.CompletionItem {
	var items []protocol.CompletionItem

	for _, name := range sortedKeys(dsl.BuiltinVariableDescriptions()) {
		items = append(items, protocol.CompletionItem{
			Label:  name,
			Kind:   protocol.CompletionItemKindField,
			Detail: dsl.BuiltinVariableDescriptions()[name],
		})
	}
	for _, name := range dsl.GetBuiltinFunctionNames() {
		items = append(items, protocol.CompletionItem{
			Label:  name,
			Kind:   protocol.CompletionItemKindFunction,
			Detail: dsl.BuiltinFunctionDescriptions()[name],
		})
	}
	for _, op := range []string{"&&", "||", "!", "==", "!=", "in", "contains", "startsWith", "endsWith", "matches"} {
		items = append(items, protocol.CompletionItem{Label: op, Kind: protocol.CompletionItemKindOperator})
	}
	return items
}

// getPatternCompletions returns the metavariables usable in patterns.
func (d *DSLSupport) getPatternCompletions() []protocol.CompletionItem {
	descriptions := dsl.MetavariableDescriptions()
	items := make([]protocol.CompletionItem, 0, len(descriptions))
	for _, name := range sortedKeys(descriptions) {
		items = append(items, protocol.CompletionItem{
			Label:  name,
			Kind:   protocol.CompletionItemKindKeyword,
			Detail: descriptions[name],
		})
	}
	return items
}

// getKeyCompletions returns top-level keys, or rule keys on indented lines.
func (d *DSLSupport) getKeyCompletions(inRule bool) []protocol.CompletionItem {
	var items []protocol.CompletionItem
	for _, k := range settingKeys {
		if k.rule != inRule {
			continue
		}
		items = append(items, protocol.CompletionItem{
			Label:         k.key,
			Kind:          protocol.CompletionItemKindField,
			Documentation: &protocol.MarkupContent{Kind: protocol.MarkupKindMarkdown, Value: k.doc},
		})
	}
	return items
}

func values(vs ...string) []protocol.CompletionItem {
	items := make([]protocol.CompletionItem, len(vs))
	for i, v := range vs {
		items[i] = protocol.CompletionItem{Label: v, Kind: protocol.CompletionItemKindText}
	}
	return items
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
