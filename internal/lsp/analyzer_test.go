package lsp

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/MirrexOne/sqlctx/internal/completion"
	"github.com/MirrexOne/sqlctx/internal/lsp/protocol"
	"github.com/MirrexOne/sqlctx/internal/messages"
	"github.com/MirrexOne/sqlctx/internal/schema"
	"github.com/MirrexOne/sqlctx/internal/sqlcontext"
)

func testAnalyzer() *Analyzer {
	s := schema.FromTables([]schema.Table{
		{Name: "users", Columns: []string{"id", "name", "email"}},
		{Name: "orders", Columns: []string{"id", "user_id", "total"}},
	})
	return NewAnalyzer(completion.New(s, completion.Options{}))
}

func sqlDoc(content string) *Document {
	return &Document{URI: "file:///q.sql", LanguageID: "sql", Content: content}
}

func TestAnalyzer_Analyze(t *testing.T) {
	a := testAnalyzer()

	tests := []struct {
		name string
		doc  *Document
		want []protocol.Diagnostic
	}{
		{
			name: "unknown table",
			doc:  sqlDoc("SELECT * FROM accounts"),
			want: []protocol.Diagnostic{{
				Range:    protocol.Range{Start: protocol.Position{Character: 14}, End: protocol.Position{Character: 22}},
				Severity: protocol.DiagnosticSeverityError,
				Code:     string(messages.UnknownTable),
				Source:   "sqlctx",
				Message:  `unknown table "accounts"`,
			}},
		},
		{
			name: "unknown column",
			doc:  sqlDoc("SELECT u.nmae\nFROM users u"),
			want: []protocol.Diagnostic{{
				Range:    protocol.Range{Start: protocol.Position{Character: 9}, End: protocol.Position{Character: 13}},
				Severity: protocol.DiagnosticSeverityWarning,
				Code:     string(messages.UnknownColumn),
				Source:   "sqlctx",
				Message:  `table "users" has no column "nmae"`,
			}},
		},
		{
			name: "clean query",
			doc:  sqlDoc("SELECT u.name FROM users u JOIN orders o ON o.user_id = u.id"),
			want: []protocol.Diagnostic{},
		},
		{
			name: "sql file without language id",
			doc:  &Document{URI: "file:///db/report.SQL", Content: "SELECT * FROM accounts"},
			want: []protocol.Diagnostic{{
				Range:    protocol.Range{Start: protocol.Position{Character: 14}, End: protocol.Position{Character: 22}},
				Severity: protocol.DiagnosticSeverityError,
				Code:     string(messages.UnknownTable),
				Source:   "sqlctx",
				Message:  `unknown table "accounts"`,
			}},
		},
		{
			name: "go file is not checked",
			doc:  &Document{URI: "file:///main.go", LanguageID: "go", Content: "SELECT * FROM accounts"},
			want: []protocol.Diagnostic{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := a.Analyze(tt.doc)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Analyze() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func itemLabels(list protocol.CompletionList) []string {
	out := make([]string, len(list.Items))
	for i, item := range list.Items {
		out[i] = item.Label
	}
	return out
}

func TestAnalyzer_GetCompletions(t *testing.T) {
	a := testAnalyzer()

	t.Run("qualified columns replace the qualifier", func(t *testing.T) {
		doc := sqlDoc("SELECT * FROM users u WHERE u.")
		list := a.GetCompletions(doc, protocol.Position{Character: 30})

		if diff := cmp.Diff([]string{"u.id", "u.name", "u.email"}, itemLabels(list)); diff != "" {
			t.Fatalf("labels mismatch (-want +got):\n%s", diff)
		}
		first := list.Items[0]
		wantEdit := &protocol.TextEdit{
			Range:   protocol.Range{Start: protocol.Position{Character: 28}, End: protocol.Position{Character: 30}},
			NewText: "u.id",
		}
		if diff := cmp.Diff(wantEdit, first.TextEdit); diff != "" {
			t.Errorf("text edit mismatch (-want +got):\n%s", diff)
		}
		if first.Kind != protocol.CompletionItemKindField || first.SortText != "0000" {
			t.Errorf("first item = %+v", first)
		}
	})

	t.Run("multi-line document", func(t *testing.T) {
		doc := sqlDoc("SELECT *\nFROM ")
		list := a.GetCompletions(doc, protocol.Position{Line: 1, Character: 5})

		if diff := cmp.Diff([]string{"users", "orders"}, itemLabels(list)); diff != "" {
			t.Fatalf("labels mismatch (-want +got):\n%s", diff)
		}
		want := protocol.Range{Start: protocol.Position{Line: 1, Character: 5}, End: protocol.Position{Line: 1, Character: 5}}
		if list.Items[0].TextEdit.Range != want {
			t.Errorf("range = %+v, want %+v", list.Items[0].TextEdit.Range, want)
		}
		if list.Items[0].Kind != protocol.CompletionItemKindClass {
			t.Errorf("kind = %d, want class", list.Items[0].Kind)
		}
	})

	t.Run("sorted by boost with function docs", func(t *testing.T) {
		list := a.GetCompletions(sqlDoc("SELECT "), protocol.Position{Character: 7})
		if len(list.Items) == 0 || list.Items[0].Label != "*" {
			t.Fatalf("the wildcard should rank first, got %v", itemLabels(list))
		}
		for i := 1; i < len(list.Items); i++ {
			if list.Items[i-1].SortText >= list.Items[i].SortText {
				t.Fatalf("sortText not increasing at %d: %v", i, list.Items)
			}
		}

		var count *protocol.CompletionItem
		for i := range list.Items {
			if list.Items[i].Label == "COUNT" {
				count = &list.Items[i]
			}
		}
		if count == nil {
			t.Fatal("COUNT missing")
		}
		if count.TextEdit.NewText != "COUNT(" {
			t.Errorf("NewText = %q, want COUNT(", count.TextEdit.NewText)
		}
		if count.Documentation == nil || !strings.Contains(count.Documentation.Value, "COUNT(expr)") {
			t.Errorf("COUNT documentation = %+v", count.Documentation)
		}
	})

	t.Run("keyword being typed", func(t *testing.T) {
		list := a.GetCompletions(sqlDoc("SEL"), protocol.Position{Character: 3})
		if list.Items == nil || len(list.Items) != 0 {
			t.Errorf("want an empty, non-nil item list, got %v", list.Items)
		}
	})
}

func TestAnalyzer_GetHover(t *testing.T) {
	a := testAnalyzer()

	tests := []struct {
		name    string
		content string
		char    int
		want    string
	}{
		{"table", "SELECT * FROM users", 16, "**table** `users`\n\nColumns: id, name, email"},
		{"function", "SELECT COUNT(*) FROM users", 9, "COUNT(expr)"},
		{"aliased column", "SELECT u.email FROM users u", 10, "**column** `email` of `users`"},
		{"unqualified column", "SELECT name FROM users", 8, "**column** `name` of `users`"},
		{"column of several tables", "SELECT id FROM users, orders", 8, "**column** `id` of `users`, `orders`"},
		{"whitespace", "SELECT   FROM users", 7, ""},
		{"unknown word", "SELECT nothing FROM users", 9, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hover := a.GetHover(sqlDoc(tt.content), protocol.Position{Character: tt.char})
			if tt.want == "" {
				if hover != nil {
					t.Errorf("GetHover() = %+v, want nil", hover)
				}
				return
			}
			if hover == nil {
				t.Fatal("GetHover() = nil")
			}
			if hover.Contents.Kind != protocol.MarkupKindMarkdown {
				t.Errorf("kind = %s", hover.Contents.Kind)
			}
			if !strings.Contains(hover.Contents.Value, tt.want) {
				t.Errorf("hover = %q, want it to contain %q", hover.Contents.Value, tt.want)
			}
		})
	}
}

func TestAnalyzer_Context(t *testing.T) {
	a := testAnalyzer()
	doc := sqlDoc("SELECT *\nFROM users u\nWHERE ")

	got := a.Context(doc, protocol.Position{Line: 2, Character: 6})
	if got.Offset != len(doc.Content) {
		t.Errorf("Offset = %d, want %d", got.Offset, len(doc.Content))
	}
	if got.Context.Kind != sqlcontext.KindAfterWhere {
		t.Errorf("Kind = %s, want after_where", got.Context.Kind)
	}
	if got.Description != messages.ContextDescription(sqlcontext.KindAfterWhere) {
		t.Errorf("Description = %q", got.Description)
	}
	if diff := cmp.Diff(map[string]string{"u": "users"}, got.Context.Aliases); diff != "" {
		t.Errorf("aliases mismatch (-want +got):\n%s", diff)
	}
}
