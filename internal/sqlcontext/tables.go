package sqlcontext

import (
	"regexp"
	"strings"
)

var (
	fromKeyword = regexp.MustCompile(`(?i)\bfrom\s+`)
	joinKeyword = regexp.MustCompile(`(?i)\bjoin\s+`)
	dmlKeyword  = regexp.MustCompile(`(?i)\b(?:update|into)\s+`)

	joinTarget = regexp.MustCompile(`(?i)\b(?:(?:inner|left|right|outer|cross|full|natural)\s+)*join\s+([^\s,;()]+)`)
	dmlTarget  = regexp.MustCompile(`(?i)\b(?:update|into)\s+([^\s,;()]+)`)

	// Terminates the comma separated list that follows FROM. Clause words must
	// start the list or follow whitespace so that "order" stays a table name.
	fromListEnd = regexp.MustCompile(
		`(?i)(?:^|\s)(?:where|group|order|limit|offset|having|union|intersect|except|window|returning|` +
			`join|inner|left|right|full|outer|cross|natural|on|using)\b|[;()]`)

	aliasedItem = regexp.MustCompile(`(?i)^([^\s,;()]+)(?:\s+as)?\s+([A-Za-z_][A-Za-z0-9_]*)\b`)

	tableName = regexp.MustCompile(`^[\p{L}_][\p{L}\p{N}_$]*$`)
)

// ExtractTables returns the tables referenced after FROM (including comma
// lists), JOIN, UPDATE and INTO, de-duplicated in order of first appearance.
// Schema qualifiers and identifier quotes are stripped.
func ExtractTables(stmt string) []string {
	var (
		tables []string
		seen   = make(map[string]struct{})
	)
	add := func(raw string) {
		name, ok := tableRef(raw)
		if !ok {
			return
		}
		if _, dup := seen[name]; dup {
			return
		}
		seen[name] = struct{}{}
		tables = append(tables, name)
	}

	for _, list := range fromLists(stmt) {
		for _, item := range strings.Split(list, ",") {
			if fields := strings.Fields(item); len(fields) > 0 {
				add(fields[0])
			}
		}
	}
	for _, m := range joinTarget.FindAllStringSubmatch(stmt, -1) {
		add(m[1])
	}
	for _, m := range dmlTarget.FindAllStringSubmatch(stmt, -1) {
		add(m[1])
	}

	return tables
}

// ExtractAliases maps lower-cased aliases to table names for every
// "table alias" and "table AS alias" reference. Later definitions win.
func ExtractAliases(stmt string) map[string]string {
	aliases := make(map[string]string)

	for _, list := range fromLists(stmt) {
		for _, item := range strings.Split(list, ",") {
			addAlias(aliases, strings.TrimSpace(item))
		}
	}
	for _, re := range []*regexp.Regexp{joinKeyword, dmlKeyword} {
		for _, loc := range re.FindAllStringIndex(stmt, -1) {
			addAlias(aliases, stmt[loc[1]:])
		}
	}

	return aliases
}

// CleanTableName drops a schema prefix and identifier quotes:
// `public."Users"` becomes `Users`.
func CleanTableName(raw string) string {
	if i := strings.LastIndexByte(raw, '.'); i >= 0 {
		raw = raw[i+1:]
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '"', '`', '[', ']':
			return -1
		}
		return r
	}, raw)
}

// fromLists returns the raw text of every FROM list in stmt.
func fromLists(stmt string) []string {
	var lists []string
	for _, loc := range fromKeyword.FindAllStringIndex(stmt, -1) {
		rest := stmt[loc[1]:]
		if end := fromListEnd.FindStringIndex(rest); end != nil {
			rest = rest[:end[0]]
		}
		lists = append(lists, rest)
	}
	return lists
}

func addAlias(aliases map[string]string, s string) {
	m := aliasedItem.FindStringSubmatch(s)
	if m == nil || IsKeyword(m[2]) {
		return
	}
	table, ok := tableRef(m[1])
	if !ok {
		return
	}
	aliases[strings.ToLower(m[2])] = table
}

// tableRef cleans a raw table token and rejects anything that cannot be a
// table name. Quoted identifiers may hold any characters, keywords included.
func tableRef(raw string) (string, bool) {
	name := CleanTableName(raw)
	if strings.ContainsAny(raw, "\"`[") {
		return name, name != ""
	}
	if !tableName.MatchString(name) {
		return "", false
	}
	if IsKeyword(name) {
		return "", false
	}
	return name, true
}
