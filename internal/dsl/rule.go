// Package dsl implements completion rules: label patterns with optional expr
// conditions that hide candidates or change their rank.
package dsl

import (
	"github.com/cockroachdb/errors"

	"github.com/MirrexOne/sqlctx/internal/completion"
	"github.com/MirrexOne/sqlctx/pkg/config"
)

// Action represents what to do with a candidate a rule matches.
type Action string

const (
	ActionHide  Action = config.ActionHide  // Drop the candidate (default)
	ActionBoost Action = config.ActionBoost // Add Rule.Boost to its boost
)

// Rule represents a completion rule.
type Rule struct {
	// ID is a unique identifier for the rule.
	ID string

	// Pattern is matched against the whole candidate label.
	// Supports metavariables $TABLE, $COLUMN and $ANY.
	Pattern string

	// Patterns allows multiple patterns for a single rule.
	Patterns []string

	// When is an optional condition expression (evaluated with expr-lang).
	When string

	Action Action
	Boost  int

	// Kinds restricts the rule to these candidate kinds.
	Kinds []completion.ItemKind
}

// EvalContext provides context for evaluating rule conditions.
type EvalContext struct {
	// Candidate
	Label  string `expr:"label"`
	Kind   string `expr:"kind"`
	Detail string `expr:"detail"`
	Boost  int    `expr:"boost"`

	// Cursor context
	Context      string            `expr:"context"`
	IsAfterDot   bool              `expr:"is_after_dot"`
	CurrentTable string            `expr:"current_table"`
	Qualifier    string            `expr:"qualifier"`
	Tables       []string          `expr:"tables"`
	Aliases      map[string]string `expr:"aliases"`

	// Metavariables captured from pattern matching
	Metavars map[string]string `expr:"metavars"`
}

// RuleFromSpec converts a rule read from the config file.
func RuleFromSpec(spec config.RuleSpec) (Rule, error) {
	r := Rule{
		ID:       spec.ID,
		Pattern:  spec.Pattern,
		Patterns: spec.Patterns,
		When:     spec.When,
		Action:   Action(spec.Action),
		Boost:    spec.Boost,
	}
	for _, name := range spec.Kinds {
		kind, ok := completion.ParseItemKind(name)
		if !ok {
			return Rule{}, errors.WithHint(
				errors.Newf("rule %q has invalid kind %q", spec.ID, name),
				"kinds are table, column, keyword and function")
		}
		r.Kinds = append(r.Kinds, kind)
	}
	return r, r.Validate()
}

// Validate checks if the rule configuration is valid.
func (r *Rule) Validate() error {
	if r.ID == "" {
		return errors.New("rule must have an id")
	}

	if r.Pattern == "" && len(r.Patterns) == 0 {
		return errors.Newf("rule %q must have a pattern or patterns", r.ID)
	}

	switch r.GetAction() {
	case ActionHide:
	case ActionBoost:
		if r.Boost == 0 {
			return errors.Newf("boost rule %q needs a non-zero boost", r.ID)
		}
	default:
		return errors.Newf("rule %q has invalid action %q", r.ID, r.Action)
	}

	return nil
}

// GetPatterns returns all patterns for the rule.
func (r *Rule) GetPatterns() []string {
	if r.Pattern != "" {
		return append([]string{r.Pattern}, r.Patterns...)
	}
	return r.Patterns
}

// GetAction returns the action, defaulting to hide if not set.
func (r *Rule) GetAction() Action {
	if r.Action == "" {
		return ActionHide
	}
	return r.Action
}

func (r *Rule) appliesTo(kind completion.ItemKind) bool {
	if len(r.Kinds) == 0 {
		return true
	}
	for _, k := range r.Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// SystemTablesRule hides catalog tables such as pg_* and sqlite_* from table
// completion.
func SystemTablesRule() Rule {
	return Rule{
		ID:      "hide-system-tables",
		Pattern: "$TABLE",
		When:    "isSystemTable(label)",
		Action:  ActionHide,
		Kinds:   []completion.ItemKind{completion.KindTable},
	}
}
