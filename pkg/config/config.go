// Package config defines the settings read from .sqlctx.yaml.
package config

import "time"

// Qualification modes for qualified column labels.
const (
	QualifyAlias = "alias"
	QualifyTable = "table"
)

// Rule actions.
const (
	ActionHide  = "hide"
	ActionBoost = "boost"
)

// Settings is the complete configuration of the completion tools.
type Settings struct {
	// Dialect is a hint (postgres, mysql, sqlite). It selects the
	// introspection query; the analyzer itself is dialect agnostic.
	Dialect string `yaml:"dialect,omitempty" json:"dialect,omitempty"`

	// SchemaFile is a YAML or JSON file with the table and column names.
	SchemaFile string `yaml:"schema-file,omitempty" json:"schemaFile,omitempty"`

	// DSN, when set, is introspected for the schema instead of SchemaFile.
	DSN string `yaml:"dsn,omitempty" json:"-"`

	// Qualify selects how qualified columns are labeled: "alias" uses the
	// alias in scope, "table" the table name.
	Qualify string `yaml:"qualify,omitempty" json:"qualify,omitempty"`

	// CacheSize bounds the completion result cache. Negative disables it.
	CacheSize int `yaml:"cache-size,omitempty" json:"cacheSize,omitempty"`

	// HideSystemTables drops pg_*, sqlite_* and similar catalog tables from
	// completion lists.
	HideSystemTables bool `yaml:"hide-system-tables" json:"hideSystemTables"`

	// VariablesDebounce delays the notification sent when the set of
	// {{ variables }} in a document changes.
	VariablesDebounce time.Duration `yaml:"variables-debounce,omitempty" json:"variablesDebounce,omitempty"`

	// Rules hide or re-rank completion candidates.
	Rules []RuleSpec `yaml:"rules,omitempty" json:"rules,omitempty"`
}

// RuleSpec is a user-defined completion rule as written in the config file.
type RuleSpec struct {
	// ID names the rule in logs and errors.
	ID string `yaml:"id" json:"id"`

	// Pattern is matched against the whole candidate label, ignoring case.
	// $TABLE, $COLUMN and $ANY capture parts of the label.
	Pattern string `yaml:"pattern,omitempty" json:"pattern,omitempty"`

	// Patterns allows several patterns; any may match.
	Patterns []string `yaml:"patterns,omitempty" json:"patterns,omitempty"`

	// When is an optional expr condition that must evaluate to true.
	When string `yaml:"when,omitempty" json:"when,omitempty"`

	// Action is "hide" (default) or "boost".
	Action string `yaml:"action,omitempty" json:"action,omitempty"`

	// Boost is added to the candidate's boost by boost rules.
	Boost int `yaml:"boost,omitempty" json:"boost,omitempty"`

	// Kinds restricts the rule to candidate kinds (table, column, keyword,
	// function). Empty means all.
	Kinds []string `yaml:"kinds,omitempty" json:"kinds,omitempty"`
}

// DefaultSettings returns the settings used when no config file is found.
func DefaultSettings() Settings {
	return Settings{
		Dialect:           "postgres",
		Qualify:           QualifyAlias,
		CacheSize:         256,
		HideSystemTables:  true,
		VariablesDebounce: 300 * time.Millisecond,
	}
}

// Dialects returns the supported dialect names.
func Dialects() []string {
	return []string{"postgres", "mysql", "sqlite"}
}
