package lsp

import (
	"fmt"
	"path"
	"regexp"
	"slices"
	"strings"

	"github.com/MirrexOne/sqlctx/internal/completion"
	"github.com/MirrexOne/sqlctx/internal/lsp/protocol"
	"github.com/MirrexOne/sqlctx/internal/messages"
	"github.com/MirrexOne/sqlctx/internal/sqlcontext"
	"github.com/MirrexOne/sqlctx/internal/vet"
)

// Analyzer answers editor requests for one completion engine.
type Analyzer struct {
	engine *completion.Engine
}

// NewAnalyzer creates an Analyzer over engine.
func NewAnalyzer(engine *completion.Engine) *Analyzer {
	return &Analyzer{engine: engine}
}

// Engine returns the completion engine.
func (a *Analyzer) Engine() *completion.Engine {
	return a.engine
}

// isSQL reports whether doc holds SQL rather than a host language.
func isSQL(doc *Document) bool {
	if doc.LanguageID == "sql" {
		return true
	}
	return doc.LanguageID == "" && strings.EqualFold(path.Ext(doc.URI), ".sql")
}

// Analyze returns the schema diagnostics of a SQL document.
func (a *Analyzer) Analyze(doc *Document) []protocol.Diagnostic {
	if !isSQL(doc) {
		return []protocol.Diagnostic{}
	}

	problems := vet.Check(a.engine.Schema(), doc.Content)
	diagnostics := make([]protocol.Diagnostic, 0, len(problems))
	for _, p := range problems {
		from, to := locate(doc.Content, p)
		severity := protocol.DiagnosticSeverityWarning
		if p.Type == messages.UnknownTable {
			severity = protocol.DiagnosticSeverityError
		}
		diagnostics = append(diagnostics, protocol.Diagnostic{
			Range:    rangeOf(doc.Content, from, to),
			Severity: severity,
			Code:     string(p.Type),
			Source:   "sqlctx",
			Message:  p.Message,
		})
	}
	return diagnostics
}

// locate finds the first occurrence of the name a problem is about. Problems
// that cannot be located are reported at the start of the document.
func locate(text string, p vet.Problem) (int, int) {
	var re *regexp.Regexp
	if p.Type == messages.UnknownColumn {
		re = regexp.MustCompile(`(?i)\.\s*(` + regexp.QuoteMeta(p.Column) + `)\b`)
	} else {
		re = regexp.MustCompile(`(?i)\b(` + regexp.QuoteMeta(p.Table) + `)\b`)
	}
	if m := re.FindStringSubmatchIndex(text); m != nil {
		return m[2], m[3]
	}
	return 0, 0
}

// GetCompletions returns the completion list at pos. The items are ordered
// by boost through sortText and replace the word being typed.
func (a *Analyzer) GetCompletions(doc *Document, pos protocol.Position) protocol.CompletionList {
	list := protocol.CompletionList{Items: []protocol.CompletionItem{}}

	offset := OffsetAt(doc.Content, pos)
	r := a.engine.Complete(doc.Content, offset)
	if r == nil {
		return list
	}

	candidates := slices.Clone(r.Candidates)
	completion.Sort(candidates)
	span := rangeOf(doc.Content, r.Span.From, r.Span.To)

	for i, c := range candidates {
		item := protocol.CompletionItem{
			Label:      c.Label,
			Kind:       itemKind(c.Kind),
			Detail:     c.Detail,
			SortText:   fmt.Sprintf("%04d", i),
			FilterText: c.Label,
			TextEdit:   &protocol.TextEdit{Range: span, NewText: c.Text()},
		}
		if c.Kind == completion.KindFunction {
			if fn, ok := messages.Function(c.Label); ok {
				item.Documentation = &protocol.MarkupContent{Kind: protocol.MarkupKindMarkdown, Value: fn.Markdown()}
			}
		}
		list.Items = append(list.Items, item)
	}
	return list
}

func itemKind(k completion.ItemKind) protocol.CompletionItemKind {
	switch k {
	case completion.KindTable:
		return protocol.CompletionItemKindClass
	case completion.KindColumn:
		return protocol.CompletionItemKindField
	case completion.KindFunction:
		return protocol.CompletionItemKindFunction
	case completion.KindKeyword:
		return protocol.CompletionItemKindKeyword
	}
	return protocol.CompletionItemKindText
}

// GetHover describes the table, column or function under pos.
func (a *Analyzer) GetHover(doc *Document, pos protocol.Position) *protocol.Hover {
	offset := OffsetAt(doc.Content, pos)
	word, from, to := wordAt(doc.Content, offset)
	if word == "" {
		return nil
	}

	s := a.engine.Schema()
	qualifier := qualifierOf(doc.Content, from)

	var value string
	if qualifier == "" {
		if name, ok := s.Lookup(word); ok {
			value = fmt.Sprintf("**table** `%s`\n\n%s", name, s.Describe(name))
		} else if fn, ok := messages.Function(word); ok {
			value = fn.Markdown()
		}
	}

	if value == "" {
		ctx := sqlcontext.Analyze(doc.Content, offset)
		tables := ctx.Tables
		if qualifier != "" {
			table, ok := ctx.Aliases[strings.ToLower(qualifier)]
			if !ok {
				table = qualifier
			}
			tables = []string{table}
		}

		var owners []string
		for _, t := range tables {
			columns, ok := s.Columns(t)
			if ok && slices.ContainsFunc(columns, func(c string) bool { return strings.EqualFold(c, word) }) {
				name, _ := s.Lookup(t)
				owners = append(owners, "`"+name+"`")
			}
		}
		if len(owners) > 0 {
			value = fmt.Sprintf("**column** `%s` of %s", word, strings.Join(owners, ", "))
		}
	}

	if value == "" {
		return nil
	}
	r := rangeOf(doc.Content, from, to)
	return &protocol.Hover{
		Contents: protocol.MarkupContent{Kind: protocol.MarkupKindMarkdown, Value: value},
		Range:    &r,
	}
}

// Context returns the analysis of the cursor at pos.
func (a *Analyzer) Context(doc *Document, pos protocol.Position) protocol.AnalyzeResult {
	offset := OffsetAt(doc.Content, pos)
	ctx := sqlcontext.Analyze(doc.Content, offset)
	return protocol.AnalyzeResult{
		Context:     ctx,
		Description: messages.ContextDescription(ctx.Kind),
		Offset:      offset,
	}
}
