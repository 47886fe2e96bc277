package queries

import (
	"context"
	"database/sql"
)

const byID = "SELECT u.name FROM users u WHERE u.id = ?"

func known(db *sql.DB) {
	db.Query("SELECT id, name FROM users")
	db.QueryRow(byID, 1)
	db.Exec("UPDATE orders SET total = 0 WHERE orders.user_id = ?", 1)
	db.Query("SELECT u.name, o.total FROM users u JOIN orders o ON o.user_id = u.id")
}

func unknownTable(db *sql.DB) {
	db.Query("SELECT id FROM invoices") // want `unknown table "invoices"`
}

func unknownColumn(ctx context.Context, db *sql.DB) {
	db.QueryContext(ctx, "SELECT u.nmae FROM users u") // want `table "users" has no column "nmae"`
}

func literalsIgnored(db *sql.DB) {
	db.Query("SELECT name FROM users WHERE email = 'a.b@example.com'")
}

func dynamic(db *sql.DB, table string) {
	db.Query("SELECT id FROM " + table)
}

func notADatabaseCall() string {
	return "SELECT x.y FROM nowhere x"
}
