package dsl

import (
	"slices"
	"strings"

	"github.com/MirrexOne/sqlctx/internal/sqlcontext"
)

// BuiltinFunctions are the SQL helpers callable from "when" conditions.
// String tests use expr's own operators and builtins (contains, startsWith,
// matches, lower, len, any...).
var BuiltinFunctions = map[string]any{
	"isSystemTable": isSystemTable,
	"isTempTable":   isTempTable,
	"isAggregate":   isAggregate,
	"isKeyword":     sqlcontext.IsKeyword,
	"qualifierOf":   qualifierOf,
	"unqualified":   unqualified,
}

var systemPrefixes = []string{
	"pg_", "information_schema.",
	"mysql.", "performance_schema.", "sys.",
	"sqlite_",
}

// isSystemTable reports whether table belongs to a database catalog.
func isSystemTable(table string) bool {
	table = strings.ToLower(table)
	if table == "information_schema" {
		return true
	}
	return slices.ContainsFunc(systemPrefixes, func(p string) bool {
		return strings.HasPrefix(table, p)
	})
}

// isTempTable reports whether table is named like a scratch table.
func isTempTable(table string) bool {
	table = strings.ToLower(table)
	for _, p := range []string{"temp_", "tmp_", "#"} {
		if strings.HasPrefix(table, p) {
			return true
		}
	}
	return strings.HasSuffix(table, "_temp") || strings.HasSuffix(table, "_tmp")
}

// isAggregate reports whether name is one of the aggregate functions offered
// as candidates. An argument list is ignored, so "COUNT(*)" matches.
func isAggregate(name string) bool {
	name = strings.ToUpper(strings.TrimSpace(name))
	if i := strings.IndexByte(name, '('); i >= 0 {
		name = name[:i]
	}
	switch name {
	case "COUNT", "SUM", "AVG", "MIN", "MAX":
		return true
	}
	return false
}

// qualifierOf returns the part of a qualified column label before the dot:
// "u" for "u.id", "" for "id".
func qualifierOf(label string) string {
	if i := strings.LastIndexByte(label, '.'); i >= 0 {
		return label[:i]
	}
	return ""
}

// unqualified strips the qualifier from a column label.
func unqualified(label string) string {
	return label[strings.LastIndexByte(label, '.')+1:]
}

// GetBuiltinFunctionNames returns the sorted names of all built-in functions.
func GetBuiltinFunctionNames() []string {
	names := make([]string, 0, len(BuiltinFunctions))
	for name := range BuiltinFunctions {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
