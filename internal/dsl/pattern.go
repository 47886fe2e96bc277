package dsl

import (
	"regexp"
	"strings"
)

// PatternCompiler compiles DSL patterns into regex patterns.
type PatternCompiler struct {
	metavarPattern *regexp.Regexp
}

// NewPatternCompiler creates a new pattern compiler.
func NewPatternCompiler() *PatternCompiler {
	return &PatternCompiler{
		metavarPattern: regexp.MustCompile(`\$([A-Z][A-Z0-9]*)`),
	}
}

// CompiledPattern holds a compiled pattern with metavariable extraction.
type CompiledPattern struct {
	Original  string
	Regex     *regexp.Regexp
	Metavars  []string // Names of metavariables in order of capture groups
	IsNegated bool     // Pattern starts with !
}

// Compile compiles a DSL pattern into a regex-based CompiledPattern.
// Patterns match a whole candidate label, ignoring case, and support:
//   - $TABLE: a table name, optionally schema qualified
//   - $COLUMN: a column name
//   - $ANY: any text, possibly empty
//   - $NAME (any other upper-case name): an identifier
//   - literal text, matched exactly
//   - !pattern: matches labels the pattern does not match
//
// Metavariable names are upper-case letters and digits, so "$ANY_id" is
// $ANY followed by the literal "_id". A metavariable repeated in one pattern
// is only captured the first time.
func (pc *PatternCompiler) Compile(pattern string) (*CompiledPattern, error) {
	original := pattern

	isNegated := false
	if strings.HasPrefix(pattern, "!") {
		isNegated = true
		pattern = pattern[1:]
	}

	var metavars []string
	for _, m := range pc.metavarPattern.FindAllStringSubmatch(pattern, -1) {
		metavars = append(metavars, m[1])
	}

	regex, err := regexp.Compile(`(?i)^` + pc.patternToRegex(pattern) + `$`)
	if err != nil {
		return nil, err
	}

	return &CompiledPattern{
		Original:  original,
		Regex:     regex,
		Metavars:  metavars,
		IsNegated: isNegated,
	}, nil
}

// patternToRegex converts a DSL pattern to a regex pattern.
func (pc *PatternCompiler) patternToRegex(pattern string) string {
	var result strings.Builder
	seen := make(map[string]bool)

	i := 0
	for i < len(pattern) {
		if pattern[i] == '$' && i+1 < len(pattern) {
			end := i + 1
			for end < len(pattern) && isMetavarChar(pattern[end]) {
				end++
			}
			if end > i+1 {
				name := pattern[i+1 : end]
				result.WriteString(metavarToRegex(name, seen[name]))
				seen[name] = true
				i = end
				continue
			}
		}

		result.WriteString(regexp.QuoteMeta(pattern[i : i+1]))
		i++
	}

	return result.String()
}

// metavarToRegex converts a metavariable name to a regex group. Go regexps
// reject duplicate group names, so repeats are captured anonymously.
func metavarToRegex(name string, repeated bool) string {
	var body string
	switch {
	case strings.HasPrefix(name, "TABLE"):
		body = `[\p{L}_][\p{L}\p{N}_$.]*`
	case strings.HasPrefix(name, "COLUMN"):
		body = `[\p{L}_][\p{L}\p{N}_$]*`
	case strings.HasPrefix(name, "ANY"):
		body = `.*`
	default:
		body = `[\p{L}_][\p{L}\p{N}_]*`
	}
	if repeated {
		return `(?:` + body + `)`
	}
	return `(?P<` + name + `>` + body + `)`
}

// Match attempts to match a compiled pattern against a label.
// Returns the captured metavariables if successful.
func (cp *CompiledPattern) Match(label string) (map[string]string, bool) {
	matches := cp.Regex.FindStringSubmatch(label)
	if matches == nil {
		if cp.IsNegated {
			return map[string]string{}, true
		}
		return nil, false
	}

	if cp.IsNegated {
		return nil, false
	}

	result := make(map[string]string)
	for i, name := range cp.Regex.SubexpNames() {
		if i > 0 && name != "" && i < len(matches) {
			result[name] = matches[i]
		}
	}

	return result, true
}

// isMetavarChar returns true if c is valid in a metavariable name.
func isMetavarChar(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// CompilePatterns compiles multiple patterns.
func (pc *PatternCompiler) CompilePatterns(patterns []string) ([]*CompiledPattern, error) {
	var compiled []*CompiledPattern
	for _, p := range patterns {
		cp, err := pc.Compile(p)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, cp)
	}
	return compiled, nil
}
