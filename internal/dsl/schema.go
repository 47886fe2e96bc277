package dsl

// JSONSchema returns the JSON Schema for .sqlctx.yaml configuration.
// This can be used by IDEs for validation and autocompletion.
func JSONSchema() string {
	return `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "$id": "https://github.com/MirrexOne/sqlctx/schema.json",
  "title": "sqlctx Configuration",
  "description": "Configuration file for the sqlctx SQL completion engine",
  "type": "object",
  "properties": {
    "dialect": {
      "type": "string",
      "description": "Database dialect used for schema introspection",
      "enum": ["postgres", "mysql", "sqlite"],
      "default": "postgres"
    },
    "schema-file": {
      "type": "string",
      "description": "YAML or JSON file mapping table names to column lists",
      "examples": ["schema.yaml"]
    },
    "dsn": {
      "type": "string",
      "description": "Connection string to introspect the schema from. Takes precedence over schema-file"
    },
    "qualify": {
      "type": "string",
      "description": "Label used for qualified column candidates",
      "enum": ["alias", "table"],
      "default": "alias"
    },
    "cache-size": {
      "type": "integer",
      "description": "Number of completion results to cache. Negative disables the cache",
      "default": 256
    },
    "hide-system-tables": {
      "type": "boolean",
      "description": "Hide pg_*, sqlite_* and other catalog tables",
      "default": true
    },
    "variables-debounce": {
      "type": "string",
      "description": "Delay before reporting changed {{ variables }}, as a Go duration",
      "default": "300ms"
    },
    "rules": {
      "type": "array",
      "description": "Rules that hide or boost completion candidates",
      "items": {
        "$ref": "#/definitions/rule"
      }
    }
  },
  "definitions": {
    "rule": {
      "type": "object",
      "required": ["id"],
      "properties": {
        "id": {
          "type": "string",
          "description": "Unique identifier for the rule",
          "pattern": "^[a-z][a-z0-9-]*$"
        },
        "pattern": {
          "type": "string",
          "description": "Pattern matched against the whole candidate label. Supports metavariables: $TABLE, $COLUMN, $ANY"
        },
        "patterns": {
          "type": "array",
          "description": "Multiple patterns for this rule",
          "items": {
            "type": "string"
          }
        },
        "when": {
          "type": "string",
          "description": "Condition expression (expr-lang). Available: label, kind, detail, boost, context, is_after_dot, current_table, qualifier, tables, aliases, metavars"
        },
        "action": {
          "type": "string",
          "description": "Action when the rule matches",
          "enum": ["hide", "boost"],
          "default": "hide"
        },
        "boost": {
          "type": "integer",
          "description": "Amount added to the candidate boost by boost rules"
        },
        "kinds": {
          "type": "array",
          "description": "Candidate kinds the rule applies to",
          "items": {
            "type": "string",
            "enum": ["table", "column", "keyword", "function"]
          }
        }
      },
      "oneOf": [
        {"required": ["pattern"]},
        {"required": ["patterns"]}
      ]
    }
  },
  "additionalProperties": false
}`
}

// BuiltinVariableDescriptions returns descriptions for DSL variables.
func BuiltinVariableDescriptions() map[string]string {
	return map[string]string{
		"label":         "Candidate label",
		"kind":          "Candidate kind: table, column, keyword, function",
		"detail":        "Candidate detail text",
		"boost":         "Candidate boost before this rule",
		"context":       "Cursor context, e.g. after_from or where_condition",
		"is_after_dot":  "Whether the cursor follows a qualifier and a dot",
		"current_table": "Table the qualifier before the dot resolved to",
		"qualifier":     "Identifier typed before the dot",
		"tables":        "Tables referenced by the statement",
		"aliases":       "Alias to table map of the statement",
		"metavars":      "Captured metavariables from pattern matching",
	}
}

// BuiltinFunctionDescriptions returns descriptions for DSL functions.
func BuiltinFunctionDescriptions() map[string]string {
	return map[string]string{
		"isSystemTable": "isSystemTable(table) - Check if table is a system/catalog table",
		"isTempTable":   "isTempTable(table) - Check if table name looks like a temp table",
		"isAggregate":   "isAggregate(name) - Check if name is an aggregate function (COUNT, SUM, AVG, MIN, MAX)",
		"isKeyword":     "isKeyword(word) - Check if word is a reserved SQL word",
		"qualifierOf":   "qualifierOf(label) - Qualifier of a column label: \"u\" for \"u.id\", empty when unqualified",
		"unqualified":   "unqualified(label) - Column label without its qualifier: \"id\" for \"u.id\"",
	}
}

// MetavariableDescriptions returns descriptions for pattern metavariables.
func MetavariableDescriptions() map[string]string {
	return map[string]string{
		"$TABLE":  "Matches a table name (identifier with optional schema prefix)",
		"$COLUMN": "Matches a column name",
		"$ANY":    "Matches any text, including none",
		"$NAME":   "Any other upper-case name matches an identifier",
	}
}
