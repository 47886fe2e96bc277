package schema

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/go-cmp/cmp"
)

func TestIntrospect(t *testing.T) {
	tests := []struct {
		dialect Dialect
		query   string
	}{
		{Postgres, `FROM information_schema\.columns\s+WHERE table_schema NOT IN`},
		{MySQL, `WHERE table_schema = DATABASE\(\)`},
		{SQLite, `FROM sqlite_master AS m\s+JOIN pragma_table_info`},
	}

	for _, tt := range tests {
		t.Run(string(tt.dialect), func(t *testing.T) {
			db, mock, err := sqlmock.New()
			if err != nil {
				t.Fatalf("Failed to create sqlmock: %v", err)
			}
			defer db.Close()

			mock.ExpectQuery(tt.query).WillReturnRows(
				sqlmock.NewRows([]string{"table_name", "column_name"}).
					AddRow("users", "id").
					AddRow("users", "name").
					AddRow("orders", "id").
					AddRow("orders", "user_id"))

			s, err := Introspect(context.Background(), db, tt.dialect)
			if err != nil {
				t.Fatalf("Introspect: %v", err)
			}

			want := []Table{
				{Name: "users", Columns: []string{"id", "name"}},
				{Name: "orders", Columns: []string{"id", "user_id"}},
			}
			if diff := cmp.Diff(want, s.Tables()); diff != "" {
				t.Errorf("tables mismatch (-want +got):\n%s", diff)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unfulfilled expectations: %v", err)
			}
		})
	}
}

func TestIntrospect_Interleaved(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create sqlmock: %v", err)
	}
	defer db.Close()

	// Same table name in two postgres schemas.
	mock.ExpectQuery("information_schema").WillReturnRows(
		sqlmock.NewRows([]string{"table_name", "column_name"}).
			AddRow("events", "id").
			AddRow("users", "id").
			AddRow("events", "payload"))

	s, err := Introspect(context.Background(), db, Postgres)
	if err != nil {
		t.Fatalf("Introspect: %v", err)
	}
	cols, _ := s.Columns("events")
	if diff := cmp.Diff([]string{"id", "payload"}, cols); diff != "" {
		t.Errorf("events columns mismatch (-want +got):\n%s", diff)
	}
}

func TestIntrospect_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create sqlmock: %v", err)
	}
	defer db.Close()

	boom := errors.New("permission denied")
	mock.ExpectQuery("information_schema").WillReturnError(boom)

	_, err = Introspect(context.Background(), db, Postgres)
	if !errors.Is(err, boom) {
		t.Errorf("Introspect error = %v, want wrapped %v", err, boom)
	}
}

func TestIntrospect_RowError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("sqlite_master").WillReturnRows(
		sqlmock.NewRows([]string{"name", "name"}).
			AddRow("users", "id").
			RowError(0, errors.New("disk I/O error")))

	if _, err := Introspect(context.Background(), db, SQLite); err == nil {
		t.Error("Introspect succeeded despite a row error")
	}
}

func TestIntrospect_UnknownDialect(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create sqlmock: %v", err)
	}
	defer db.Close()

	if _, err := Introspect(context.Background(), db, Dialect("oracle")); err == nil {
		t.Error("Introspect accepted an unknown dialect")
	}
}

func TestParseDialect(t *testing.T) {
	tests := map[string]Dialect{
		"postgres":   Postgres,
		"PostgreSQL": Postgres,
		"pg":         Postgres,
		"mysql":      MySQL,
		"mariadb":    MySQL,
		"sqlite3":    SQLite,
		" sqlite ":   SQLite,
	}
	for in, want := range tests {
		got, err := ParseDialect(in)
		if err != nil || got != want {
			t.Errorf("ParseDialect(%q) = (%q, %v), want %q", in, got, err, want)
		}
	}

	if _, err := ParseDialect("oracle"); err == nil {
		t.Error("ParseDialect accepted oracle")
	}
}

func TestOpen_MySQLHasNoDriver(t *testing.T) {
	if _, err := Open(MySQL, "user@/db"); err == nil {
		t.Error("Open(mysql) succeeded without a bundled driver")
	}
}

func TestLoad_SQLite(t *testing.T) {
	db, err := Open(SQLite, ":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	ctx := context.Background()
	for _, stmt := range []string{
		"CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT, email TEXT)",
		"CREATE TABLE orders (id INTEGER PRIMARY KEY, user_id INTEGER)",
	} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			t.Fatalf("exec %q: %v", stmt, err)
		}
	}

	s, err := Introspect(ctx, db, SQLite)
	if err != nil {
		t.Fatalf("Introspect: %v", err)
	}
	want := []Table{
		{Name: "orders", Columns: []string{"id", "user_id"}},
		{Name: "users", Columns: []string{"id", "name", "email"}},
	}
	if diff := cmp.Diff(want, s.Tables()); diff != "" {
		t.Errorf("tables mismatch (-want +got):\n%s", diff)
	}
}
