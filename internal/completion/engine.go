// Package completion turns an analyzed cursor position into ranked completion
// candidates drawn from the current schema.
package completion

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/cockroachdb/errors"

	"github.com/MirrexOne/sqlctx/internal/schema"
	"github.com/MirrexOne/sqlctx/internal/sqlcontext"
)

// Candidate boosts.
const (
	BoostStar            = 20
	BoostQualifiedColumn = 15
	BoostTable           = 10
	BoostFunction        = 8
	BoostColumn          = 5
)

// Qualify selects how qualified column labels are spelled.
type Qualify string

const (
	// QualifyAlias spells qualified columns the way the statement refers to the
	// table: the typed qualifier after a dot, otherwise the table's alias.
	QualifyAlias Qualify = "alias"
	// QualifyTable always uses the resolved table name.
	QualifyTable Qualify = "table"
)

// ParseQualify validates a qualification mode. The empty string selects
// QualifyAlias.
func ParseQualify(s string) (Qualify, error) {
	switch Qualify(s) {
	case "", QualifyAlias:
		return QualifyAlias, nil
	case QualifyTable:
		return QualifyTable, nil
	}
	return "", errors.WithHint(errors.Newf("invalid qualify mode %q", s), `use "alias" or "table"`)
}

// Options configures an Engine.
type Options struct {
	Qualify Qualify
	// Filter, if set, post-processes every candidate list.
	Filter Filter
	// CacheSize bounds the result cache. Zero selects DefaultCacheSize, a
	// negative value disables caching.
	CacheSize int
}

type snapshot struct {
	schema  *schema.Schema
	version uint64
}

// Engine produces completions against a replaceable schema. It is safe for
// concurrent use: every request reads the schema once, and SetSchema swaps
// the whole value.
type Engine struct {
	current  atomic.Pointer[snapshot]
	versions atomic.Uint64
	opts     Options
	cache    *Cache
}

// New returns an engine serving s. A nil schema is empty.
func New(s *schema.Schema, opts Options) *Engine {
	if opts.Qualify == "" {
		opts.Qualify = QualifyAlias
	}
	e := &Engine{opts: opts}
	switch {
	case opts.CacheSize == 0:
		e.cache = NewCache(DefaultCacheSize)
	case opts.CacheSize > 0:
		e.cache = NewCache(opts.CacheSize)
	}
	e.SetSchema(s)
	return e
}

// SetSchema replaces the schema. Requests already running keep the schema
// they started with.
func (e *Engine) SetSchema(s *schema.Schema) {
	if s == nil {
		s = schema.FromTables(nil)
	}
	e.current.Store(&snapshot{schema: s, version: e.versions.Add(1)})
}

// Schema returns the current schema.
func (e *Engine) Schema() *schema.Schema {
	return e.current.Load().schema
}

// Version increases every time the schema is replaced.
func (e *Engine) Version() uint64 {
	return e.current.Load().version
}

// Complete returns the candidates for cursor in document, or nil when there is
// nothing to offer or the user is typing a keyword.
func (e *Engine) Complete(document string, cursor int) *Result {
	cursor = sqlcontext.ClampOffset(document, cursor)
	snap := e.current.Load()

	if e.cache == nil {
		return e.complete(snap.schema, document, cursor)
	}

	key := newCacheKey(document, cursor, snap.version)
	if r, ok := e.cache.get(key); ok {
		return r.clone()
	}
	r := e.complete(snap.schema, document, cursor)
	e.cache.put(key, r)
	return r.clone()
}

func (e *Engine) complete(s *schema.Schema, document string, cursor int) *Result {
	if IsTypingKeyword(document, cursor) {
		return nil
	}

	ctx := sqlcontext.Analyze(document, cursor)
	if ctx.Kind == sqlcontext.KindUnknown && !ctx.IsAfterDot {
		ctx.Kind = classifyBeforeWord(document, ctx.Statement)
	}
	candidates := Candidates(s, ctx, e.opts.Qualify)
	if e.opts.Filter != nil {
		candidates = e.opts.Filter.Apply(ctx, candidates)
	}
	candidates = slices.DeleteFunc(candidates, func(c Candidate) bool { return c.Label == "" })
	if len(candidates) == 0 {
		return nil
	}

	return &Result{
		Span:       WordBounds(document, cursor),
		Candidates: candidates,
		Context:    ctx,
	}
}

// classifyBeforeWord classifies the statement up to the start of a bare
// identifier being typed, so "FROM us" completes like "FROM ". Qualified words
// are left alone.
func classifyBeforeWord(document string, stmt sqlcontext.Statement) sqlcontext.Kind {
	span := WordBounds(document, stmt.Cursor)
	if span.From >= stmt.Cursor || span.From < stmt.Start ||
		strings.IndexByte(document[span.From:stmt.Cursor], '.') >= 0 {
		return sqlcontext.KindUnknown
	}
	return sqlcontext.ClassifyContext(document[stmt.Start:span.From])
}

func (r *Result) clone() *Result {
	if r == nil {
		return nil
	}
	out := *r
	out.Candidates = slices.Clone(r.Candidates)
	out.Context.Tables = slices.Clone(r.Context.Tables)
	out.Context.Aliases = maps.Clone(r.Context.Aliases)
	return &out
}

// Candidates assembles the candidate list for an analyzed context.
func Candidates(s *schema.Schema, ctx sqlcontext.Context, qualify Qualify) []Candidate {
	b := builder{schema: s, ctx: ctx, qualify: qualify}
	b.resolveQualifier()

	switch ctx.Kind {
	case sqlcontext.KindAfterFrom:
		return b.tables()

	case sqlcontext.KindAfterSelect, sqlcontext.KindSelectColumns:
		if b.afterQualifier() {
			return b.qualifiedColumns(b.current)
		}
		out := []Candidate{star()}
		out = append(out, b.relevantColumns()...)
		return append(out, functionCandidates()...)

	case sqlcontext.KindAfterWhere, sqlcontext.KindWhereCondition, sqlcontext.KindAfterHaving,
		sqlcontext.KindAfterOrderBy, sqlcontext.KindAfterGroupBy, sqlcontext.KindAfterOn:
		if b.afterQualifier() {
			return b.qualifiedColumns(b.current)
		}
		return b.relevantColumns()

	case sqlcontext.KindUnknown:
	}
	return nil
}

type builder struct {
	schema  *schema.Schema
	ctx     sqlcontext.Context
	qualify Qualify
	// current is the analyzer's current table, or the schema table named by
	// an otherwise unresolved qualifier.
	current string
}

func (b *builder) resolveQualifier() {
	b.current = b.ctx.CurrentTable
	if b.current == "" && b.ctx.IsAfterDot {
		if name, ok := b.schema.Lookup(b.ctx.Qualifier); ok {
			b.current = name
		}
	}
}

func (b *builder) afterQualifier() bool {
	return b.ctx.IsAfterDot && b.current != ""
}

func (b *builder) tables() []Candidate {
	out := make([]Candidate, 0, b.schema.Len())
	for _, t := range b.schema.Tables() {
		out = append(out, Candidate{
			Label:  t.Name,
			Kind:   KindTable,
			Detail: fmt.Sprintf("Table (%d columns)", len(t.Columns)),
			Boost:  BoostTable,
		})
	}
	return out
}

// relevantTables is the current table after a qualifier, else the tables of
// the statement.
func (b *builder) relevantTables() []string {
	if b.afterQualifier() {
		return []string{b.current}
	}
	return b.ctx.Tables
}

// relevantColumns falls back to the unqualified columns of every schema table
// when the relevant tables yield nothing.
func (b *builder) relevantColumns() []Candidate {
	tables := b.relevantTables()

	var out []Candidate
	for _, table := range tables {
		if !b.schema.Has(table) {
			continue
		}
		out = append(out, b.columns(table)...)
		if len(tables) > 1 {
			out = append(out, b.qualifiedColumns(table)...)
		}
	}

	if len(out) == 0 {
		for _, table := range b.schema.TableNames() {
			out = append(out, b.columns(table)...)
		}
	}
	return out
}

func (b *builder) columns(table string) []Candidate {
	name, _ := b.schema.Lookup(table)
	columns, _ := b.schema.Columns(name)

	out := make([]Candidate, 0, len(columns))
	for _, column := range columns {
		out = append(out, Candidate{
			Label:  column,
			Kind:   KindColumn,
			Detail: "Column from " + name,
			Boost:  BoostColumn,
		})
	}
	return out
}

func (b *builder) qualifiedColumns(table string) []Candidate {
	name, _ := b.schema.Lookup(table)
	columns, _ := b.schema.Columns(name)
	prefix := b.qualifierFor(name) + "."

	out := make([]Candidate, 0, len(columns))
	for _, column := range columns {
		out = append(out, Candidate{
			Label:  prefix + column,
			Kind:   KindColumn,
			Detail: "Column from " + name,
			Boost:  BoostQualifiedColumn,
		})
	}
	return out
}

// qualifierFor spells the qualifier of table according to the qualify mode.
func (b *builder) qualifierFor(table string) string {
	if b.qualify == QualifyTable {
		return table
	}
	if b.afterQualifier() && b.ctx.Qualifier != "" {
		return b.ctx.Qualifier
	}

	aliases := make([]string, 0, len(b.ctx.Aliases))
	for alias, target := range b.ctx.Aliases {
		if target == table || b.schemaName(target) == table {
			aliases = append(aliases, alias)
		}
	}
	if len(aliases) == 0 {
		return table
	}
	slices.Sort(aliases)
	return aliases[0]
}

func (b *builder) schemaName(table string) string {
	name, _ := b.schema.Lookup(table)
	return name
}

func star() Candidate {
	return Candidate{
		Label:  "*",
		Kind:   KindKeyword,
		Detail: "Select all columns",
		Boost:  BoostStar,
	}
}

func functionCandidates() []Candidate {
	out := make([]Candidate, 0, len(functions))
	for _, f := range functions {
		insert := f.name + "("
		if f.noArgs {
			insert = f.name + "()"
		}
		out = append(out, Candidate{
			Label:      f.name,
			Kind:       KindFunction,
			Detail:     f.detail,
			Boost:      BoostFunction,
			InsertText: insert,
		})
	}
	return out
}
