package sqlcontext

import "regexp"

var templateVariable = regexp.MustCompile(`\{\{\s*(\w+)\s*\}\}`)

// ExtractVariables returns the names of {{ name }} template placeholders in
// document, in order of first appearance and without duplicates.
func ExtractVariables(document string) []string {
	var (
		names []string
		seen  = make(map[string]struct{})
	)
	for _, m := range templateVariable.FindAllStringSubmatch(document, -1) {
		if _, dup := seen[m[1]]; dup {
			continue
		}
		seen[m[1]] = struct{}{}
		names = append(names, m[1])
	}
	return names
}
