package runner

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MirrexOne/sqlctx/internal/cli"
	"github.com/MirrexOne/sqlctx/internal/messages"
	"github.com/MirrexOne/sqlctx/internal/schema"
	"github.com/MirrexOne/sqlctx/internal/vet"
)

func TestExitCodes(t *testing.T) {
	tests := []struct {
		name string
		code ExitCode
		want int
	}{
		{"success", ExitSuccess, 0},
		{"warnings", ExitWarnings, 1},
		{"errors", ExitErrors, 2},
		{"failure", ExitFailure, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if int(tt.code) != tt.want {
				t.Errorf("ExitCode %s = %d, want %d", tt.name, tt.code, tt.want)
			}
		})
	}
}

func TestSeverity(t *testing.T) {
	tests := []struct {
		category string
		want     string
	}{
		{string(messages.UnknownTable), "error"},
		{string(messages.UnknownColumn), "warning"},
		{"", "warning"},
	}

	for _, tt := range tests {
		if got := Severity(tt.category); got != tt.want {
			t.Errorf("Severity(%q) = %q, want %q", tt.category, got, tt.want)
		}
	}
}

// writeModule creates a throwaway module holding one package with src.
func writeModule(t *testing.T, src string) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"go.mod":  "module example.com/app\n\ngo 1.24\n",
		"main.go": src,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestRun(t *testing.T) {
	s := schema.New(map[string][]string{
		"users": {"id", "name"},
	})

	tests := []struct {
		name     string
		src      string
		want     ExitCode
		contains []string
	}{
		{
			name: "clean",
			src: `package main

import "database/sql"

func main() {
	var db *sql.DB
	db.Query("SELECT u.name FROM users u")
}
`,
			want:     ExitSuccess,
			contains: []string{"No issues found"},
		},
		{
			name: "unknown column is a warning",
			src: `package main

import "database/sql"

func main() {
	var db *sql.DB
	db.Query("SELECT u.age FROM users u")
}
`,
			want:     ExitWarnings,
			contains: []string{"main.go:7:11:", "warning:", `table "users" has no column "age"`},
		},
		{
			name: "unknown table is an error",
			src: `package main

import "database/sql"

func main() {
	var db *sql.DB
	db.Query("SELECT id FROM accounts")
	db.Query("SELECT u.age FROM users u")
}
`,
			want:     ExitErrors,
			contains: []string{"error:", `unknown table "accounts"`, "Issues found:    2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeModule(t, tt.src)
			var out, errOut bytes.Buffer
			output := cli.NewOutput(&out, &errOut, false, 0, false)

			got := Run(vet.NewAnalyzer(s), output, Options{Dir: dir, ShowStats: true})
			if got != tt.want {
				t.Errorf("Run() = %d, want %d\nstdout:\n%s\nstderr:\n%s", got, tt.want, out.String(), errOut.String())
			}
			for _, c := range tt.contains {
				if !strings.Contains(out.String(), c) {
					t.Errorf("output missing %q:\n%s", c, out.String())
				}
			}
		})
	}
}

func TestRunVerboseExplains(t *testing.T) {
	dir := writeModule(t, `package main

import "database/sql"

func main() {
	var db *sql.DB
	db.Exec("DELETE FROM sessions")
}
`)
	var out, errOut bytes.Buffer
	output := cli.NewOutput(&out, &errOut, false, 1, false)

	s := schema.New(map[string][]string{"users": {"id"}})
	if got := Run(vet.NewAnalyzer(s), output, Options{Dir: dir}); got != ExitErrors {
		t.Fatalf("Run() = %d, want %d", got, ExitErrors)
	}
	if !strings.Contains(out.String(), "Example fix:") {
		t.Errorf("verbose output should explain the diagnostic:\n%s", out.String())
	}
}

func TestRunLoadFailure(t *testing.T) {
	var out, errOut bytes.Buffer
	output := cli.NewOutput(&out, &errOut, false, 0, false)

	got := Run(vet.NewAnalyzer(nil), output, Options{Dir: filepath.Join(t.TempDir(), "missing")})
	if got != ExitFailure {
		t.Errorf("Run() = %d, want %d", got, ExitFailure)
	}
}
