// Package schema holds the table and column names that completion draws from.
//
// A Schema is immutable once built. Replacing the schema means building a new
// value and swapping the pointer, so readers that already hold the old value
// are never affected.
package schema

import (
	"fmt"
	"slices"
	"strings"

	"github.com/maruel/natural"
)

// previewColumns is how many column names Describe lists before eliding.
const previewColumns = 5

// Table is one table and its ordered column names.
type Table struct {
	Name    string   `yaml:"name" json:"name"`
	Columns []string `yaml:"columns" json:"columns"`
}

// Schema is an ordered, read-only set of tables. The nil *Schema is empty.
type Schema struct {
	tables []Table
	exact  map[string]int
	folded map[string]int
}

// New builds a schema from a table -> columns mapping. Map iteration order is
// random, so tables are ordered naturally ("t2" before "t10").
func New(m map[string][]string) *Schema {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	slices.SortFunc(names, func(a, b string) int {
		switch {
		case natural.Less(a, b):
			return -1
		case natural.Less(b, a):
			return 1
		}
		return 0
	})

	tables := make([]Table, 0, len(names))
	for _, name := range names {
		tables = append(tables, Table{Name: name, Columns: m[name]})
	}
	return FromTables(tables)
}

// FromTables builds a schema that keeps the given table order. Tables with an
// empty name are skipped; the first of several tables with the same name wins.
func FromTables(tables []Table) *Schema {
	s := &Schema{
		tables: make([]Table, 0, len(tables)),
		exact:  make(map[string]int, len(tables)),
		folded: make(map[string]int, len(tables)),
	}
	for _, t := range tables {
		if t.Name == "" {
			continue
		}
		if _, dup := s.exact[t.Name]; dup {
			continue
		}
		idx := len(s.tables)
		s.tables = append(s.tables, Table{Name: t.Name, Columns: slices.Clone(t.Columns)})
		s.exact[t.Name] = idx
		if _, ok := s.folded[strings.ToLower(t.Name)]; !ok {
			s.folded[strings.ToLower(t.Name)] = idx
		}
	}
	return s
}

// Len returns the number of tables.
func (s *Schema) Len() int {
	if s == nil {
		return 0
	}
	return len(s.tables)
}

// TableNames returns the table names in schema order.
func (s *Schema) TableNames() []string {
	if s == nil {
		return nil
	}
	names := make([]string, len(s.tables))
	for i, t := range s.tables {
		names[i] = t.Name
	}
	return names
}

// Tables returns a copy of every table.
func (s *Schema) Tables() []Table {
	if s == nil {
		return nil
	}
	out := make([]Table, len(s.tables))
	for i, t := range s.tables {
		out[i] = Table{Name: t.Name, Columns: slices.Clone(t.Columns)}
	}
	return out
}

// Lookup returns the canonical name of table, matching exactly first and then
// ignoring case.
func (s *Schema) Lookup(table string) (string, bool) {
	idx, ok := s.index(table)
	if !ok {
		return "", false
	}
	return s.tables[idx].Name, true
}

// Columns returns the columns of table. The returned slice must not be
// modified.
func (s *Schema) Columns(table string) ([]string, bool) {
	idx, ok := s.index(table)
	if !ok {
		return nil, false
	}
	return s.tables[idx].Columns, true
}

// Has reports whether the schema contains table.
func (s *Schema) Has(table string) bool {
	_, ok := s.index(table)
	return ok
}

// Describe summarizes the columns of table for hover text and details.
func (s *Schema) Describe(table string) string {
	columns, _ := s.Columns(table)
	if len(columns) == 0 {
		return "Empty table"
	}
	if len(columns) <= previewColumns {
		return "Columns: " + strings.Join(columns, ", ")
	}
	return fmt.Sprintf("Columns: %s, ... (%d more)",
		strings.Join(columns[:previewColumns], ", "), len(columns)-previewColumns)
}

// Map returns the schema as a table -> columns mapping.
func (s *Schema) Map() map[string][]string {
	out := make(map[string][]string, s.Len())
	for _, t := range s.Tables() {
		out[t.Name] = t.Columns
	}
	return out
}

func (s *Schema) index(table string) (int, bool) {
	if s == nil || table == "" {
		return 0, false
	}
	if idx, ok := s.exact[table]; ok {
		return idx, true
	}
	idx, ok := s.folded[strings.ToLower(table)]
	return idx, ok
}
