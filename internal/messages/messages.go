// Package messages provides user facing documentation: diagnostic
// explanations, cursor context descriptions and function help.
package messages

import (
	"fmt"
	"strings"

	"github.com/MirrexOne/sqlctx/internal/sqlcontext"
)

const (
	// DocsBaseURL is the base URL for documentation
	DocsBaseURL = "https://github.com/MirrexOne/sqlctx"
)

// MessageType identifies a kind of diagnostic.
type MessageType string

const (
	UnknownTable  MessageType = "unknown_table"
	UnknownColumn MessageType = "unknown_column"
)

// DiagnosticMessage contains enhanced diagnostic information.
type DiagnosticMessage struct {
	Title       string
	Description string
	Example     string
	Suggestion  string
	LearnMore   string
}

var diagnostics = map[MessageType]DiagnosticMessage{
	UnknownTable: {
		Title:       "query references a table that is not in the schema",
		Description: "The table name after FROM, JOIN, UPDATE or INTO does not match any table of the loaded schema, ignoring case.",
		Example: `  - db.Query("SELECT id FROM user")
  + db.Query("SELECT id FROM users")`,
		Suggestion: "Fix the table name, or refresh the schema file if the table was added recently.",
		LearnMore:  DocsBaseURL + "#unknown-table",
	},
	UnknownColumn: {
		Title:       "qualified column is not a column of its table",
		Description: "The qualifier before the dot resolves to a schema table, through an alias or by name, but the column after it is not one of that table's columns.",
		Example: `  - db.Query("SELECT u.nmae FROM users u")
  + db.Query("SELECT u.name FROM users u")`,
		Suggestion: "Check the column name and the alias it is qualified with.",
		LearnMore:  DocsBaseURL + "#unknown-column",
	},
}

// GetEnhancedMessage returns an enhanced diagnostic message with context.
func GetEnhancedMessage(msgType MessageType, verbose bool) string {
	msg := getMessage(msgType)

	if !verbose {
		return msg.Title
	}

	var parts []string

	parts = append(parts, msg.Title)

	if msg.Description != "" {
		parts = append(parts, "\n"+msg.Description)
	}

	if msg.Example != "" {
		parts = append(parts, "\n\nExample fix:\n")
		parts = append(parts, msg.Example)
	}

	if msg.Suggestion != "" {
		parts = append(parts, "\n"+msg.Suggestion)
	}

	if msg.LearnMore != "" {
		parts = append(parts, "\n📖 Learn more: "+msg.LearnMore)
	}

	return strings.Join(parts, "")
}

// getMessage returns the diagnostic message for a given type.
func getMessage(msgType MessageType) DiagnosticMessage {
	msg, exists := diagnostics[msgType]
	if !exists {
		return DiagnosticMessage{
			Title: "query does not match the schema",
		}
	}
	return msg
}

// FormatDiagnostic formats a diagnostic with its file location. In verbose
// mode the explanation for msgType follows the message.
func FormatDiagnostic(file string, line int, col int, message string, msgType MessageType, verbose bool) string {
	location := fmt.Sprintf("%s:%d:%d", file, line, col)
	if !verbose {
		return fmt.Sprintf("%s: %s", location, message)
	}
	return fmt.Sprintf("%s: %s\n%s", location, message, GetEnhancedMessage(msgType, true))
}

var contextDescriptions = map[sqlcontext.Kind]string{
	sqlcontext.KindUnknown:        "No completions: the cursor position is not recognized",
	sqlcontext.KindAfterFrom:      "Table names after FROM or JOIN",
	sqlcontext.KindAfterSelect:    "Columns of the referenced tables, *, and functions",
	sqlcontext.KindSelectColumns:  "More columns of the select list",
	sqlcontext.KindAfterWhere:     "Columns to filter on",
	sqlcontext.KindWhereCondition: "Columns inside the WHERE condition",
	sqlcontext.KindAfterHaving:    "Columns to filter groups on",
	sqlcontext.KindAfterOrderBy:   "Columns to sort by",
	sqlcontext.KindAfterGroupBy:   "Columns to group by",
	sqlcontext.KindAfterOn:        "Qualified columns for the join condition",
}

// ContextDescription describes what is completed at a cursor context.
func ContextDescription(k sqlcontext.Kind) string {
	if d, ok := contextDescriptions[k]; ok {
		return d
	}
	return contextDescriptions[sqlcontext.KindUnknown]
}

// FunctionDoc documents a SQL function offered by completion.
type FunctionDoc struct {
	Signature   string
	Description string
}

var functionDocs = map[string]FunctionDoc{
	"COUNT":    {"COUNT(expr)", "Number of rows, or of non-null values of expr. COUNT(*) counts every row."},
	"SUM":      {"SUM(expr)", "Sum of the non-null values of expr."},
	"AVG":      {"AVG(expr)", "Average of the non-null values of expr."},
	"MAX":      {"MAX(expr)", "Largest value of expr."},
	"MIN":      {"MIN(expr)", "Smallest value of expr."},
	"DISTINCT": {"DISTINCT(expr)", "Removes duplicate values."},
	"UPPER":    {"UPPER(text)", "text converted to upper case."},
	"LOWER":    {"LOWER(text)", "text converted to lower case."},
	"LENGTH":   {"LENGTH(text)", "Number of characters in text."},
	"NOW":      {"NOW()", "Current date and time."},
}

// Function returns the documentation of the function name, ignoring case.
func Function(name string) (FunctionDoc, bool) {
	doc, ok := functionDocs[strings.ToUpper(name)]
	return doc, ok
}

// Markdown renders the documentation for hover text.
func (d FunctionDoc) Markdown() string {
	return "```sql\n" + d.Signature + "\n```\n" + d.Description
}
