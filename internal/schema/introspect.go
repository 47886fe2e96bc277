package schema

import (
	"context"
	"database/sql"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3" // registers the "sqlite3" driver
)

// Dialect names a database family. It selects the introspection query; the
// context analyzer itself is dialect agnostic.
type Dialect string

const (
	Postgres Dialect = "postgres"
	MySQL    Dialect = "mysql"
	SQLite   Dialect = "sqlite"
)

// Dialects lists the supported dialects.
var Dialects = []Dialect{Postgres, MySQL, SQLite}

// ParseDialect normalizes s. Common aliases such as "postgresql" and
// "sqlite3" are accepted.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "postgres", "postgresql", "pg":
		return Postgres, nil
	case "mysql", "mariadb":
		return MySQL, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	}
	return "", errors.WithHint(
		errors.Newf("unsupported dialect %q", s),
		"supported dialects: postgres, mysql, sqlite")
}

const (
	postgresColumnsQuery = `SELECT table_name, column_name FROM information_schema.columns
WHERE table_schema NOT IN ('pg_catalog', 'information_schema')
ORDER BY table_schema, table_name, ordinal_position`

	mysqlColumnsQuery = `SELECT table_name, column_name FROM information_schema.columns
WHERE table_schema = DATABASE()
ORDER BY table_name, ordinal_position`

	sqliteColumnsQuery = `SELECT m.name, p.name FROM sqlite_master AS m
JOIN pragma_table_info(m.name) AS p
WHERE m.type IN ('table', 'view') AND m.name NOT LIKE 'sqlite_%'
ORDER BY m.name, p.cid`
)

// Querier is the part of *sql.DB that introspection needs.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Open connects to a database for introspection. Postgres and SQLite drivers
// are bundled; for MySQL open the connection yourself and call Introspect.
func Open(dialect Dialect, dsn string) (*sql.DB, error) {
	switch dialect {
	case Postgres:
		connector, err := pq.NewConnector(dsn)
		if err != nil {
			return nil, errors.Wrap(err, "postgres dsn")
		}
		return sql.OpenDB(connector), nil
	case SQLite:
		db, err := sql.Open("sqlite3", dsn)
		if err != nil {
			return nil, errors.Wrap(err, "open sqlite")
		}
		return db, nil
	case MySQL:
		return nil, errors.WithHint(
			errors.New("no mysql driver is bundled"),
			"export the schema to a file and pass --schema instead")
	}
	return nil, errors.Newf("unsupported dialect %q", dialect)
}

// Introspect reads every user table and its columns.
func Introspect(ctx context.Context, db Querier, dialect Dialect) (*Schema, error) {
	var query string
	switch dialect {
	case Postgres:
		query = postgresColumnsQuery
	case MySQL:
		query = mysqlColumnsQuery
	case SQLite:
		query = sqliteColumnsQuery
	default:
		return nil, errors.Newf("unsupported dialect %q", dialect)
	}

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrapf(err, "introspect %s schema", dialect)
	}
	defer rows.Close()

	var (
		tables []Table
		index  = make(map[string]int)
	)
	for rows.Next() {
		var table, column string
		if err := rows.Scan(&table, &column); err != nil {
			return nil, errors.Wrap(err, "scan column row")
		}
		idx, ok := index[table]
		if !ok {
			idx = len(tables)
			index[table] = idx
			tables = append(tables, Table{Name: table})
		}
		tables[idx].Columns = append(tables[idx].Columns, column)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "read column rows")
	}

	return FromTables(tables), nil
}

// Load opens dsn, introspects it and closes the connection.
func Load(ctx context.Context, dialect Dialect, dsn string) (*Schema, error) {
	db, err := Open(dialect, dsn)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return nil, errors.Wrapf(err, "connect to %s", dialect)
	}
	return Introspect(ctx, db, dialect)
}
