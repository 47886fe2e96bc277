// Package vet provides a go/analysis analyzer that checks SQL string
// constants passed to database calls against a schema.
package vet

import (
	"go/ast"
	"go/constant"
	"regexp"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"

	"github.com/MirrexOne/sqlctx/internal/messages"
	"github.com/MirrexOne/sqlctx/internal/schema"
	"github.com/MirrexOne/sqlctx/internal/sqlcontext"
)

// Name is the analyzer name.
const Name = "sqlctxvet"

// Analyzer loads its schema from the -schema flag.
var Analyzer = NewAnalyzer(nil)

// queryMethods are the method names whose first string argument is SQL.
var queryMethods = map[string]bool{
	"Query":           true,
	"QueryRow":        true,
	"QueryContext":    true,
	"QueryRowContext": true,
	"Exec":            true,
	"ExecContext":     true,
	"Prepare":         true,
	"PrepareContext":  true,
	"Get":             true,
	"Select":          true,
	"Raw":             true,
}

var (
	quotedString = regexp.MustCompile(`'(?:[^']|'')*'`)
	qualifiedRef = regexp.MustCompile(`(?:^|[^\p{L}\p{N}_$."])([\p{L}_][\p{L}\p{N}_$]*)\.([\p{L}_][\p{L}\p{N}_$]*)\b`)
)

type checker struct {
	schemaPath string

	once   sync.Once
	schema *schema.Schema
	err    error
}

// NewAnalyzer returns an analyzer that checks queries against s. When s is
// nil the schema is read from the file named by the -schema flag.
func NewAnalyzer(s *schema.Schema) *analysis.Analyzer {
	c := &checker{}
	if s != nil {
		c.once.Do(func() { c.schema = s })
	}

	a := &analysis.Analyzer{
		Name:     Name,
		Doc:      "check SQL in database calls for unknown tables and columns",
		URL:      "https://github.com/MirrexOne/sqlctx",
		Run:      c.run,
		Requires: []*analysis.Analyzer{inspect.Analyzer},
	}
	a.Flags.StringVar(&c.schemaPath, "schema", "", "schema file (YAML or JSON) to check queries against")
	return a
}

func (c *checker) load() (*schema.Schema, error) {
	c.once.Do(func() {
		if c.schemaPath == "" {
			return
		}
		c.schema, c.err = schema.LoadFile(c.schemaPath)
	})
	return c.schema, c.err
}

func (c *checker) run(pass *analysis.Pass) (any, error) {
	s, err := c.load()
	if err != nil {
		return nil, errors.Wrap(err, "load schema")
	}
	if s.Len() == 0 {
		return nil, nil
	}

	insp := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)
	nodeFilter := []ast.Node{(*ast.CallExpr)(nil)}

	insp.Preorder(nodeFilter, func(n ast.Node) {
		call := n.(*ast.CallExpr)
		sel, ok := call.Fun.(*ast.SelectorExpr)
		if !ok || !queryMethods[sel.Sel.Name] {
			return
		}
		for _, arg := range call.Args {
			query, ok := stringConstant(pass, arg)
			if !ok {
				continue
			}
			for _, p := range Check(s, query) {
				pass.Report(analysis.Diagnostic{
					Pos:      arg.Pos(),
					End:      arg.End(),
					Category: string(p.Type),
					Message:  p.Message,
				})
			}
			return
		}
	})

	return nil, nil
}

// stringConstant returns the value of expr if it is a constant string.
func stringConstant(pass *analysis.Pass, expr ast.Expr) (string, bool) {
	tv, ok := pass.TypesInfo.Types[expr]
	if !ok || tv.Value == nil || tv.Value.Kind() != constant.String {
		return "", false
	}
	return constant.StringVal(tv.Value), true
}

// Problem is one schema mismatch found in a query.
type Problem struct {
	Type    messages.MessageType
	Table   string
	Column  string
	Message string
}

// Check reports the tables and qualified columns of query that s does not
// know. Each statement of a multi-statement query is checked on its own.
func Check(s *schema.Schema, query string) []Problem {
	if s.Len() == 0 {
		return nil
	}

	var problems []Problem
	seen := make(map[string]bool)
	report := func(p Problem) {
		if !seen[p.Message] {
			seen[p.Message] = true
			problems = append(problems, p)
		}
	}

	for _, stmt := range strings.Split(query, ";") {
		stmt = quotedString.ReplaceAllStringFunc(stmt, blank)

		tables := sqlcontext.ExtractTables(stmt)
		for _, t := range tables {
			if !s.Has(t) {
				report(Problem{Type: messages.UnknownTable, Table: t, Message: `unknown table "` + t + `"`})
			}
		}

		aliases := sqlcontext.ExtractAliases(stmt)
		for _, m := range qualifiedRef.FindAllStringSubmatch(stmt, -1) {
			qualifier, column := m[1], m[2]
			table := resolve(qualifier, tables, aliases)
			if table == "" {
				continue
			}
			columns, ok := s.Columns(table)
			if !ok || containsFold(columns, column) {
				continue
			}
			name, _ := s.Lookup(table)
			report(Problem{
				Type:    messages.UnknownColumn,
				Table:   name,
				Column:  column,
				Message: `table "` + name + `" has no column "` + column + `"`,
			})
		}
	}
	return problems
}

// resolve maps a qualifier to a table of the statement, via its alias first.
func resolve(qualifier string, tables []string, aliases map[string]string) string {
	if t, ok := aliases[strings.ToLower(qualifier)]; ok {
		return t
	}
	for _, t := range tables {
		if strings.EqualFold(t, qualifier) {
			return t
		}
	}
	return ""
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

func blank(s string) string {
	return strings.Repeat(" ", len(s))
}
